// Package api serves the conversation HTTP API and defines its wire-format
// types.
//
// # Routes
//
//	POST /v1/conversations/{id}/messages                       new prompt
//	POST /v1/conversations/{id}/candidates/{movieID}/{action}  watch | dislike | watched
//	POST /v1/conversations/{id}/ratings                        1-10 rating
//	GET  /v1/conversations/{id}                                state snapshot
//	GET  /healthz                                              liveness
//	GET  /metrics                                              Prometheus (when enabled)
//
// Requests are decoded into DTOs and checked with go-playground/validator
// before reaching the session manager. Every request carries an X-Request-ID,
// generated when absent, that is attached to the logging context.
//
// # Design Notes
//
// DTOs use camelCase JSON tags. Session and movie types are converted here so
// the wire format can evolve without touching the state machine. Timestamps
// use RFC3339 with milliseconds.
package api
