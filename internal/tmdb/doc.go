// Package tmdb is the catalog gateway: a read-only client for The Movie
// Database API covering title search, person search, filmographies, movie
// details, trailers, and genre discovery.
//
// Every call carries its own deadline, waits on a shared rate limiter, and
// runs through a circuit breaker so a degraded upstream fails fast instead of
// stalling conversations.
package tmdb
