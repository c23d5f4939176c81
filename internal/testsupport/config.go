package testsupport

import (
	"path/filepath"
	"testing"

	"cinepick/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Memory and delivery are disabled and the API binds an ephemeral port.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.TMDB.APIKey = "test"
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Memory.Backend = "none"
	cfgVal.Memory.SQLitePath = filepath.Join(base, "data", "memory.db")
	cfgVal.Delivery.Backend = "none"
	cfgVal.Server.Bind = "127.0.0.1:0"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithTMDBBaseURL points the catalog client at a test server.
func WithTMDBBaseURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.TMDB.BaseURL = url
	}
}

// WithSQLiteMemory enables the local memory backend inside the temp dir.
func WithSQLiteMemory() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Memory.Backend = "sqlite"
	}
}

// WithQueueSize overrides the session queue size.
func WithQueueSize(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Session.QueueSize = n
	}
}
