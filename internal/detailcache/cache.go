package detailcache

import (
	"log/slog"
	"sync"

	"cinepick/internal/logging"
	"cinepick/internal/metrics"
	"cinepick/internal/movie"
)

// DefaultMaxEntries is the capacity used when none is configured.
const DefaultMaxEntries = 100

// Cache is a bounded map from catalog ID to verified movie details. When full,
// the oldest inserted entry is evicted. Re-storing an existing ID replaces the
// value but keeps its original insertion position.
type Cache struct {
	logger     *slog.Logger
	maxEntries int

	mu      sync.Mutex
	entries map[int64]movie.Candidate
	order   []int64
}

// New creates a cache holding at most maxEntries records. Non-positive values
// use DefaultMaxEntries.
func New(maxEntries int, logger *slog.Logger) *Cache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Cache{
		logger:     logging.NewComponentLogger(logger, "detailcache"),
		maxEntries: maxEntries,
		entries:    make(map[int64]movie.Candidate, maxEntries),
		order:      make([]int64, 0, maxEntries),
	}
}

// Lookup returns a copy of the cached details for id.
func (c *Cache) Lookup(id int64) (movie.Candidate, bool) {
	c.mu.Lock()
	entry, found := c.entries[id]
	c.mu.Unlock()

	if !found {
		metrics.RecordCacheEvent(metrics.CacheMiss)
		return movie.Candidate{}, false
	}
	metrics.RecordCacheEvent(metrics.CacheHit)
	return entry.Clone(), true
}

// Store adds or replaces the details for entry.ID, evicting the oldest
// inserted entries while over capacity.
func (c *Cache) Store(entry movie.Candidate) {
	if entry.ID <= 0 {
		return
	}
	entry = entry.Clone()

	c.mu.Lock()
	if _, exists := c.entries[entry.ID]; !exists {
		c.order = append(c.order, entry.ID)
	}
	c.entries[entry.ID] = entry
	var evicted []int64
	for len(c.order) > c.maxEntries {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
		evicted = append(evicted, oldest)
	}
	size := len(c.entries)
	c.mu.Unlock()

	metrics.SetCacheEntries(size)
	for _, id := range evicted {
		metrics.RecordCacheEvent(metrics.CacheEvict)
		c.logger.Debug("evicted movie details", logging.Int64(logging.FieldMovieID, id))
	}
}

// Remove deletes the entry for id, reporting whether it was present.
func (c *Cache) Remove(id int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[id]; !exists {
		return false
	}
	delete(c.entries, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	metrics.SetCacheEntries(len(c.entries))
	return true
}

// IDs returns the cached IDs in insertion order, oldest first.
func (c *Cache) IDs() []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int64(nil), c.order...)
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

