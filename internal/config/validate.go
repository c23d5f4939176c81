package config

import (
	"errors"
	"fmt"
	"regexp"
)

var posterSizePattern = regexp.MustCompile(`^w\d+$`)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTMDB(); err != nil {
		return err
	}
	if err := c.validateTimeouts(); err != nil {
		return err
	}
	if err := c.validateQuality(); err != nil {
		return err
	}
	if err := c.validateSession(); err != nil {
		return err
	}
	if err := c.validateMemory(); err != nil {
		return err
	}
	if err := c.validateDelivery(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateTMDB() error {
	if c.TMDB.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("tmdb.api_key is required. Set TMDB_API_KEY env var or edit %s (create with 'cinepick config init')", defaultPath)
	}
	if !posterSizePattern.MatchString(c.TMDB.PosterSize) {
		return fmt.Errorf("tmdb.poster_size must look like w500, got %q", c.TMDB.PosterSize)
	}
	if c.TMDB.RequestsPerSecond <= 0 {
		return errors.New("tmdb.requests_per_second must be positive")
	}
	if c.TMDB.Burst <= 0 {
		return errors.New("tmdb.burst must be positive")
	}
	if c.TMDB.BreakerFailureThreshold <= 0 {
		return errors.New("tmdb.breaker_failure_threshold must be positive")
	}
	if c.TMDB.BreakerCooldownSeconds <= 0 {
		return errors.New("tmdb.breaker_cooldown_seconds must be positive")
	}
	return nil
}

func (c *Config) validateTimeouts() error {
	checks := []struct {
		name  string
		value int
	}{
		{"timeouts.search_ms", c.Timeouts.SearchMS},
		{"timeouts.discover_ms", c.Timeouts.DiscoverMS},
		{"timeouts.person_ms", c.Timeouts.PersonMS},
		{"timeouts.details_ms", c.Timeouts.DetailsMS},
		{"timeouts.videos_ms", c.Timeouts.VideosMS},
		{"timeouts.memory_query_ms", c.Timeouts.MemoryQueryMS},
		{"timeouts.memory_write_ms", c.Timeouts.MemoryWriteMS},
		{"timeouts.agent_seconds", c.Timeouts.AgentSeconds},
		{"timeouts.fast_search_seconds", c.Timeouts.FastSearchSeconds},
	}
	for _, check := range checks {
		if check.value <= 0 {
			return fmt.Errorf("%s must be positive", check.name)
		}
	}
	return nil
}

func (c *Config) validateQuality() error {
	q := c.Quality
	for name, rating := range map[string]float64{
		"quality.min_rating":          q.MinRating,
		"quality.fallback_min_rating": q.FallbackMinRating,
		"quality.classic_min_rating":  q.ClassicMinRating,
	} {
		if rating < 0 || rating > 10 {
			return fmt.Errorf("%s must be between 0 and 10", name)
		}
	}
	if q.MinVotes < 0 || q.FallbackMinVotes < 0 || q.ClassicMinVotes < 0 {
		return errors.New("quality vote thresholds must not be negative")
	}
	if q.FallbackMinRating > q.MinRating {
		return errors.New("quality.fallback_min_rating must not exceed quality.min_rating")
	}
	if q.DislikedGenrePenalty < 0 {
		return errors.New("quality.disliked_genre_penalty must not be negative")
	}
	if q.TitleMatchWords <= 0 {
		return errors.New("quality.title_match_words must be positive")
	}
	if c.Cache.MaxEntries <= 0 {
		return errors.New("cache.max_entries must be positive")
	}
	return nil
}

func (c *Config) validateSession() error {
	if c.Session.IdleTimeoutMinutes <= 0 {
		return errors.New("session.idle_timeout_minutes must be positive")
	}
	if c.Session.WatchBufferMinutes < 0 {
		return errors.New("session.watch_buffer_minutes must not be negative")
	}
	if c.Session.DefaultRuntimeMinutes <= 0 {
		return errors.New("session.default_runtime_minutes must be positive")
	}
	if c.Session.QueueSize <= 0 {
		return errors.New("session.queue_size must be positive")
	}
	return nil
}

func (c *Config) validateMemory() error {
	switch c.Memory.Backend {
	case "none", "sqlite":
		return nil
	case "mem0":
		if c.Memory.APIKey == "" {
			return errors.New("memory.api_key is required for the mem0 backend (or set MEM0_API_KEY)")
		}
		return nil
	default:
		return fmt.Errorf("memory.backend: unsupported value %q", c.Memory.Backend)
	}
}

func (c *Config) validateDelivery() error {
	switch c.Delivery.Backend {
	case "none":
		return nil
	case "ntfy":
		if c.Delivery.NtfyTopic == "" {
			return errors.New("delivery.ntfy_topic is required for the ntfy backend (or set NTFY_TOPIC)")
		}
		return nil
	default:
		return fmt.Errorf("delivery.backend: unsupported value %q", c.Delivery.Backend)
	}
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}
