// Package config loads, normalizes, and validates cinepick configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// TMDB_API_KEY, MEM0_API_KEY, and NTFY_TOPIC. The Config type centralizes every
// knob the daemon and CLI need: catalog credentials, per-call timeouts,
// quality thresholds, and session timing.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
