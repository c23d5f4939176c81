// Package recommend turns a free-text request into an ordered list of movie
// candidates.
//
// The pipeline classifies the request, retrieves raw candidates from the
// catalog (person credits, genre discovery, or title search, falling through in
// that order), removes anything the user already watched or excluded, applies
// the quality tiers, ranks what is left, and verifies the head against its
// catalog detail record before returning it. The remaining candidates form the
// session's queue of alternates.
//
// Failures of upstream services never surface as errors here; they are logged
// and treated as "nothing from this step". The only error callers need to
// handle is ErrNoResult.
package recommend
