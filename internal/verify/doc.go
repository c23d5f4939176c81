// Package verify guards what reaches the user: it normalizes and validates
// poster paths against the TMDB image URL format, and checks that a fetched
// detail record belongs to the candidate it was requested for.
package verify
