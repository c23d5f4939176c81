package config

const (
	defaultConfigPath              = "~/.config/cinepick/config.toml"
	defaultDataDir                 = "~/.local/share/cinepick"
	defaultLogDir                  = "~/.local/share/cinepick/logs"
	defaultTMDBLanguage            = "en-US"
	defaultTMDBBaseURL             = "https://api.themoviedb.org/3"
	defaultTMDBPosterSize          = "w500"
	defaultTMDBRequestsPerSecond   = 20
	defaultTMDBBurst               = 10
	defaultBreakerFailureThreshold = 5
	defaultBreakerCooldownSeconds  = 30
	defaultSearchMS                = 2000
	defaultDiscoverMS              = 2000
	defaultPersonMS                = 3000
	defaultDetailsMS               = 3000
	defaultVideosMS                = 800
	defaultMemoryQueryMS           = 500
	defaultMemoryWriteMS           = 2000
	defaultAgentSeconds            = 30
	defaultFastSearchSeconds       = 10
	defaultMinRating               = 7.0
	defaultMinVotes                = 500
	defaultFallbackMinRating       = 6.5
	defaultFallbackMinVotes        = 300
	defaultClassicCutoffYear       = 2010
	defaultClassicMinRating        = 8.5
	defaultClassicMinVotes         = 10000
	defaultDiscoverSinceYear       = 2020
	defaultDislikedGenrePenalty    = 4
	defaultTitleMatchWords         = 4
	defaultCacheMaxEntries         = 100
	defaultSessionIdleMinutes      = 720
	defaultWatchBufferMinutes      = 15
	defaultRuntimeMinutes          = 120
	defaultQueueSize               = 10
	defaultMemoryBackend           = "sqlite"
	defaultMem0BaseURL             = "https://api.mem0.ai"
	defaultMemorySQLiteName        = "memory.db"
	defaultDeliveryBackend         = "none"
	defaultNtfyRequestTimeout      = 10
	defaultServerBind              = "127.0.0.1:7490"
	defaultLogFormat               = "console"
	defaultLogLevel                = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		TMDB: TMDB{
			Language:                defaultTMDBLanguage,
			BaseURL:                 defaultTMDBBaseURL,
			PosterSize:              defaultTMDBPosterSize,
			RequestsPerSecond:       defaultTMDBRequestsPerSecond,
			Burst:                   defaultTMDBBurst,
			BreakerFailureThreshold: defaultBreakerFailureThreshold,
			BreakerCooldownSeconds:  defaultBreakerCooldownSeconds,
		},
		Timeouts: Timeouts{
			SearchMS:          defaultSearchMS,
			DiscoverMS:        defaultDiscoverMS,
			PersonMS:          defaultPersonMS,
			DetailsMS:         defaultDetailsMS,
			VideosMS:          defaultVideosMS,
			MemoryQueryMS:     defaultMemoryQueryMS,
			MemoryWriteMS:     defaultMemoryWriteMS,
			AgentSeconds:      defaultAgentSeconds,
			FastSearchSeconds: defaultFastSearchSeconds,
		},
		Quality: Quality{
			MinRating:            defaultMinRating,
			MinVotes:             defaultMinVotes,
			FallbackMinRating:    defaultFallbackMinRating,
			FallbackMinVotes:     defaultFallbackMinVotes,
			ClassicCutoffYear:    defaultClassicCutoffYear,
			ClassicMinRating:     defaultClassicMinRating,
			ClassicMinVotes:      defaultClassicMinVotes,
			DiscoverSinceYear:    defaultDiscoverSinceYear,
			DislikedGenrePenalty: defaultDislikedGenrePenalty,
			TitleMatchWords:      defaultTitleMatchWords,
		},
		Cache: Cache{
			MaxEntries: defaultCacheMaxEntries,
		},
		Session: Session{
			IdleTimeoutMinutes:    defaultSessionIdleMinutes,
			WatchBufferMinutes:    defaultWatchBufferMinutes,
			DefaultRuntimeMinutes: defaultRuntimeMinutes,
			QueueSize:             defaultQueueSize,
			Prefetch:              true,
		},
		Memory: Memory{
			Backend: defaultMemoryBackend,
			BaseURL: defaultMem0BaseURL,
		},
		Delivery: Delivery{
			Backend:        defaultDeliveryBackend,
			RequestTimeout: defaultNtfyRequestTimeout,
		},
		Server: Server{
			Bind:    defaultServerBind,
			Metrics: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
