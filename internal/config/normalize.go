package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTMDB()
	if err := c.normalizeMemory(); err != nil {
		return err
	}
	c.normalizeDelivery()
	c.normalizeServer()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTMDB() {
	if c.TMDB.APIKey == "" {
		if value, ok := os.LookupEnv("TMDB_API_KEY"); ok {
			c.TMDB.APIKey = value
		}
	}
	c.TMDB.APIKey = strings.TrimSpace(c.TMDB.APIKey)
	c.TMDB.BaseURL = strings.TrimRight(strings.TrimSpace(c.TMDB.BaseURL), "/")
	if c.TMDB.BaseURL == "" {
		c.TMDB.BaseURL = defaultTMDBBaseURL
	}
	c.TMDB.PosterSize = strings.ToLower(strings.TrimSpace(c.TMDB.PosterSize))
	if c.TMDB.PosterSize == "" {
		c.TMDB.PosterSize = defaultTMDBPosterSize
	}
	c.TMDB.Language = strings.TrimSpace(c.TMDB.Language)
}

func (c *Config) normalizeMemory() error {
	c.Memory.Backend = strings.ToLower(strings.TrimSpace(c.Memory.Backend))
	if c.Memory.Backend == "" {
		c.Memory.Backend = defaultMemoryBackend
	}
	if c.Memory.APIKey == "" {
		if value, ok := os.LookupEnv("MEM0_API_KEY"); ok {
			c.Memory.APIKey = strings.TrimSpace(value)
		}
	}
	c.Memory.BaseURL = strings.TrimRight(strings.TrimSpace(c.Memory.BaseURL), "/")
	if c.Memory.BaseURL == "" {
		c.Memory.BaseURL = defaultMem0BaseURL
	}
	if strings.TrimSpace(c.Memory.SQLitePath) == "" {
		c.Memory.SQLitePath = filepath.Join(c.Paths.DataDir, defaultMemorySQLiteName)
	}
	var err error
	if c.Memory.SQLitePath, err = expandPath(c.Memory.SQLitePath); err != nil {
		return fmt.Errorf("memory.sqlite_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeDelivery() {
	c.Delivery.Backend = strings.ToLower(strings.TrimSpace(c.Delivery.Backend))
	if c.Delivery.NtfyTopic == "" {
		if value, ok := os.LookupEnv("NTFY_TOPIC"); ok {
			c.Delivery.NtfyTopic = value
		}
	}
	c.Delivery.NtfyTopic = strings.TrimSpace(c.Delivery.NtfyTopic)
	if c.Delivery.Backend == "" {
		c.Delivery.Backend = defaultDeliveryBackend
		if c.Delivery.NtfyTopic != "" {
			c.Delivery.Backend = "ntfy"
		}
	}
	if c.Delivery.RequestTimeout <= 0 {
		c.Delivery.RequestTimeout = defaultNtfyRequestTimeout
	}
	c.Delivery.PublicBaseURL = strings.TrimRight(strings.TrimSpace(c.Delivery.PublicBaseURL), "/")
}

func (c *Config) normalizeServer() {
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultServerBind
	}
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch format {
	case "", "console", "text":
		c.Logging.Format = "console"
	default:
		c.Logging.Format = format
	}
	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if level == "" {
		level = defaultLogLevel
	}
	c.Logging.Level = level
}
