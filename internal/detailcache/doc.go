// Package detailcache keeps recently verified movie detail records in memory
// so repeated offers, runtime lookups, and agent tool calls skip the catalog.
//
// # Eviction
//
// The cache is bounded (default 100 entries). Eviction is by insertion order,
// not access order: reading an entry never refreshes it, and re-storing an
// existing ID updates the value in place without moving it to the back.
//
// The cache is process-local and starts empty. Configure its size in
// config.toml:
//
//	[cache]
//	max_entries = 100
package detailcache
