package memory

import (
	"context"
	"time"
)

// Entry is one stored memory.
type Entry struct {
	ID        string
	Text      string
	CreatedAt time.Time
}

// Store is the query/write contract of a memory backend.
type Store interface {
	Search(ctx context.Context, query, userID string) ([]Entry, error)
	Add(ctx context.Context, text, userID string) error
}

// NopStore remembers nothing.
type NopStore struct{}

// Search returns no entries.
func (NopStore) Search(context.Context, string, string) ([]Entry, error) { return nil, nil }

// Add discards text.
func (NopStore) Add(context.Context, string, string) error { return nil }
