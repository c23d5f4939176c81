// Package preflight provides readiness checks for the external services and
// filesystem paths that cinepick depends on.
//
// These checks run in two contexts:
//   - The "cinepick doctor" command renders every result as a table.
//   - "cinepick serve" runs them once at startup and logs failures as
//     warnings; the daemon still starts because every collaborator degrades.
//
// Each check is gated by its config section: disabled backends are skipped.
package preflight
