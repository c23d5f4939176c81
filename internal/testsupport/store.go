package testsupport

import (
	"context"
	"sync"
	"testing"

	"cinepick/internal/config"
	"cinepick/internal/memory"
)

// MustOpenMemory opens the SQLite memory store configured in cfg and registers
// cleanup.
func MustOpenMemory(t testing.TB, cfg *config.Config) *memory.SQLiteStore {
	t.Helper()

	store, err := memory.OpenSQLite(context.Background(), cfg.Memory.SQLitePath)
	if err != nil {
		t.Fatalf("open memory store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// MemoryRecorder is an in-memory memory.Store that records writes and answers
// every search with the stored entries of the user.
type MemoryRecorder struct {
	mu      sync.Mutex
	entries map[string][]memory.Entry
}

var _ memory.Store = (*MemoryRecorder)(nil)

// NewMemoryRecorder returns an empty recorder.
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{entries: make(map[string][]memory.Entry)}
}

// Search returns every entry stored for userID.
func (m *MemoryRecorder) Search(_ context.Context, _ string, userID string) ([]memory.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]memory.Entry(nil), m.entries[userID]...), nil
}

// Add stores text for userID.
func (m *MemoryRecorder) Add(_ context.Context, text, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[userID] = append(m.entries[userID], memory.Entry{Text: text})
	return nil
}

// Texts returns the stored texts of userID in insertion order.
func (m *MemoryRecorder) Texts(userID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.entries[userID]))
	for _, e := range m.entries[userID] {
		out = append(out, e.Text)
	}
	return out
}
