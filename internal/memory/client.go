package memory

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"cinepick/internal/logging"
	"cinepick/internal/metrics"
)

const (
	watchedQuery    = "watched already"
	preferenceQuery = "doesn't like avoid dislike rating"
	recallQuery     = "user preferences watched films"

	defaultQueryTimeout = 500 * time.Millisecond
	defaultWriteTimeout = 2 * time.Second
)

// Client wraps a Store with per-call deadlines and swallows its failures.
type Client struct {
	store        Store
	queryTimeout time.Duration
	writeTimeout time.Duration
	logger       *slog.Logger
}

// NewClient builds a Client. A nil store behaves like NopStore and zero
// timeouts fall back to 500ms for queries and 2s for writes.
func NewClient(store Store, queryTimeout, writeTimeout time.Duration, logger *slog.Logger) *Client {
	if store == nil {
		store = NopStore{}
	}
	if queryTimeout <= 0 {
		queryTimeout = defaultQueryTimeout
	}
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}
	return &Client{
		store:        store,
		queryTimeout: queryTimeout,
		writeTimeout: writeTimeout,
		logger:       logging.NewComponentLogger(logger, "memory"),
	}
}

// History fetches and parses everything known about userID. Failures yield an
// empty (or partial) History, never an error.
func (c *Client) History(ctx context.Context, userID string) History {
	history := NewHistory()
	if c == nil || strings.TrimSpace(userID) == "" {
		return history
	}
	watched, ok := c.search(ctx, watchedQuery, userID)
	if !ok {
		return history
	}
	ParseWatched(&history, watched)

	if prefs, ok := c.search(ctx, preferenceQuery, userID); ok {
		ParsePreferences(&history, prefs)
	}
	return history
}

// Remember stores text for userID and reports whether the write succeeded.
func (c *Client) Remember(ctx context.Context, userID, text string) bool {
	if c == nil || strings.TrimSpace(userID) == "" || strings.TrimSpace(text) == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, c.writeTimeout)
	defer cancel()

	if err := c.store.Add(ctx, text, userID); err != nil {
		metrics.RecordMemoryRequest("add", "error")
		logging.WarnWithContext(c.logger, "memory write failed", "memory_write_failed",
			logging.String("user_id", userID),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check memory backend availability"),
			logging.String(logging.FieldImpact, "preference will not influence future recommendations"),
		)
		return false
	}
	metrics.RecordMemoryRequest("add", "ok")
	return true
}

func (c *Client) search(ctx context.Context, query, userID string) ([]Entry, bool) {
	ctx, cancel := context.WithTimeout(ctx, c.queryTimeout)
	defer cancel()

	entries, err := c.store.Search(ctx, query, userID)
	if err != nil {
		metrics.RecordMemoryRequest("search", "error")
		c.logger.Debug("memory search failed",
			logging.String("user_id", userID),
			logging.String("query", query),
			logging.Error(err),
		)
		return nil, false
	}
	metrics.RecordMemoryRequest("search", "ok")
	return entries, true
}

// Recall returns up to limit entries matching query for userID. An empty
// query falls back to a general preference query.
func (c *Client) Recall(ctx context.Context, userID, query string, limit int) ([]Entry, bool) {
	if c == nil || strings.TrimSpace(userID) == "" {
		return nil, false
	}
	query = strings.TrimSpace(query)
	if query == "" {
		query = recallQuery
	}
	entries, ok := c.search(ctx, query, userID)
	if !ok {
		return nil, false
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, true
}
