// Package classify decides what kind of movie request a free-text prompt is.
//
// A prompt is classified as a person query (actor or director), a holiday
// query, a genre query, or free text, in that order of precedence. Person
// queries also carry a best-effort extracted name; an empty name means the
// prompt looked like a person query but no name could be resolved, which the
// recommender treats as a cue to fall back to the next strategy.
//
// Everything here is pure string matching with no I/O, so callers can swap the
// heuristics without touching retrieval.
package classify
