// Package session holds per-conversation recommendation state and drives the
// offer, accept, reject, and rating transitions.
//
// Each conversation owns an active prompt, a queue of ranked alternates, the
// set of ids already surfaced (excluded), an optional prefetched next
// candidate, and watching markers for movies the user chose. A new prompt
// resets everything except the watching markers. Every surfaced id is added to
// the excluded set before delivery, so the same movie is never offered twice
// for one prompt.
//
// After each offer a detached prefetch computes the next candidate. Its result
// is tagged with the prompt and generation it was computed for and is
// discarded if the conversation moved on. Accepting a movie schedules a rating
// prompt after the watch buffer plus the runtime; the job does nothing unless
// the watching marker is still present when it fires.
//
// The Manager also implements suture's Service interface: Serve sweeps idle
// conversations until its context is cancelled.
package session
