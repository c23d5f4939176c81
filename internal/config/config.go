package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// TMDB contains configuration for The Movie Database API.
type TMDB struct {
	APIKey                  string  `toml:"api_key"`
	BaseURL                 string  `toml:"base_url"`
	Language                string  `toml:"language"`
	PosterSize              string  `toml:"poster_size"`
	RequestsPerSecond       float64 `toml:"requests_per_second"`
	Burst                   int     `toml:"burst"`
	BreakerFailureThreshold int     `toml:"breaker_failure_threshold"`
	BreakerCooldownSeconds  int     `toml:"breaker_cooldown_seconds"`
}

// Timeouts holds per-call deadlines. Values below one second are expressed in
// milliseconds.
type Timeouts struct {
	SearchMS          int `toml:"search_ms"`
	DiscoverMS        int `toml:"discover_ms"`
	PersonMS          int `toml:"person_ms"`
	DetailsMS         int `toml:"details_ms"`
	VideosMS          int `toml:"videos_ms"`
	MemoryQueryMS     int `toml:"memory_query_ms"`
	MemoryWriteMS     int `toml:"memory_write_ms"`
	AgentSeconds      int `toml:"agent_seconds"`
	FastSearchSeconds int `toml:"fast_search_seconds"`
}

// Quality contains the rating gates applied to catalog candidates.
type Quality struct {
	MinRating            float64 `toml:"min_rating"`
	MinVotes             int64   `toml:"min_votes"`
	FallbackMinRating    float64 `toml:"fallback_min_rating"`
	FallbackMinVotes     int64   `toml:"fallback_min_votes"`
	ClassicCutoffYear    int     `toml:"classic_cutoff_year"`
	ClassicMinRating     float64 `toml:"classic_min_rating"`
	ClassicMinVotes      int64   `toml:"classic_min_votes"`
	DiscoverSinceYear    int     `toml:"discover_since_year"`
	DislikedGenrePenalty float64 `toml:"disliked_genre_penalty"`
	TitleMatchWords      int     `toml:"title_match_words"`
}

// Cache contains configuration for the movie detail cache.
type Cache struct {
	MaxEntries int `toml:"max_entries"`
}

// Session contains configuration for per-conversation recommendation state.
type Session struct {
	IdleTimeoutMinutes    int  `toml:"idle_timeout_minutes"`
	WatchBufferMinutes    int  `toml:"watch_buffer_minutes"`
	DefaultRuntimeMinutes int  `toml:"default_runtime_minutes"`
	QueueSize             int  `toml:"queue_size"`
	Prefetch              bool `toml:"prefetch"`
}

// Memory contains configuration for the long-term preference store.
type Memory struct {
	Backend    string `toml:"backend"`
	APIKey     string `toml:"api_key"`
	BaseURL    string `toml:"base_url"`
	SQLitePath string `toml:"sqlite_path"`
}

// Delivery contains configuration for ntfy push delivery.
type Delivery struct {
	Backend        string `toml:"backend"`
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	PublicBaseURL  string `toml:"public_base_url"`
}

// Server contains configuration for the HTTP API.
type Server struct {
	Bind    string `toml:"bind"`
	Metrics bool   `toml:"metrics"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for cinepick.
//
// Configuration sections by subsystem:
//   - Paths: data and log directories
//   - TMDB: catalog access, rate limiting, and circuit breaking
//   - Timeouts: per-call deadlines for catalog, memory, and agent calls
//   - Quality: rating and vote thresholds
//   - Cache: detail cache capacity
//   - Session: conversation lifetime and rating prompt timing
//   - Memory: mem0 or sqlite preference storage
//   - Delivery: ntfy push settings
//   - Server: HTTP API bind address
//   - Logging: log format and level
type Config struct {
	Paths    Paths    `toml:"paths"`
	TMDB     TMDB     `toml:"tmdb"`
	Timeouts Timeouts `toml:"timeouts"`
	Quality  Quality  `toml:"quality"`
	Cache    Cache    `toml:"cache"`
	Session  Session  `toml:"session"`
	Memory   Memory   `toml:"memory"`
	Delivery Delivery `toml:"delivery"`
	Server   Server   `toml:"server"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("cinepick.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LockPath returns the daemon lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "cinepick.lock")
}

func ms(value int) time.Duration { return time.Duration(value) * time.Millisecond }

// SearchTimeout bounds title searches.
func (t Timeouts) SearchTimeout() time.Duration { return ms(t.SearchMS) }

// DiscoverTimeout bounds genre discovery.
func (t Timeouts) DiscoverTimeout() time.Duration { return ms(t.DiscoverMS) }

// PersonTimeout bounds person search and credit lookups.
func (t Timeouts) PersonTimeout() time.Duration { return ms(t.PersonMS) }

// DetailsTimeout bounds movie detail lookups.
func (t Timeouts) DetailsTimeout() time.Duration { return ms(t.DetailsMS) }

// VideosTimeout bounds trailer lookups.
func (t Timeouts) VideosTimeout() time.Duration { return ms(t.VideosMS) }

// MemoryQueryTimeout bounds memory searches.
func (t Timeouts) MemoryQueryTimeout() time.Duration { return ms(t.MemoryQueryMS) }

// MemoryWriteTimeout bounds memory writes.
func (t Timeouts) MemoryWriteTimeout() time.Duration { return ms(t.MemoryWriteMS) }

// AgentTimeout bounds a single agent proposal.
func (t Timeouts) AgentTimeout() time.Duration { return time.Duration(t.AgentSeconds) * time.Second }

// FastSearchTimeout bounds the pipeline rerun after a rejection.
func (t Timeouts) FastSearchTimeout() time.Duration {
	return time.Duration(t.FastSearchSeconds) * time.Second
}

// IdleTimeout returns how long an untouched session survives.
func (s Session) IdleTimeout() time.Duration {
	return time.Duration(s.IdleTimeoutMinutes) * time.Minute
}

// WatchBuffer returns the slack added to a film's runtime before asking for a rating.
func (s Session) WatchBuffer() time.Duration {
	return time.Duration(s.WatchBufferMinutes) * time.Minute
}

// BreakerCooldown returns how long the TMDB breaker stays open.
func (t TMDB) BreakerCooldown() time.Duration {
	return time.Duration(t.BreakerCooldownSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the config as TOML.
func (c *Config) Encode() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}
