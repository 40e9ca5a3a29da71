package config

const (
	defaultBind               = "127.0.0.1:8000"
	defaultRequestTimeout     = 120
	defaultShutdownTimeout    = 10
	defaultMaxBatchSize       = 10
	defaultYtdlpBinary        = "yt-dlp"
	defaultMaxAttempts        = 3
	defaultSleepSeconds       = 60
	defaultImpersonateTarget  = "chrome"
	defaultPlayerClient       = "default,-web"
	defaultSocketTimeout      = 120
	defaultLanguageTTL        = 300
	defaultRateLimitPerMinute = 10
	defaultCacheTTLSeconds    = 3600
	defaultCacheMaxEntries    = 1000
	defaultCacheDatabasePath  = "~/.local/share/subserve/cache.db"
	defaultCacheSweepInterval = 900
	defaultLogFormat          = "auto"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Server: Server{
			Bind:            defaultBind,
			RequestTimeout:  defaultRequestTimeout,
			ShutdownTimeout: defaultShutdownTimeout,
			MaxBatchSize:    defaultMaxBatchSize,
		},
		Extraction: Extraction{
			YtdlpBinary:       defaultYtdlpBinary,
			MaxAttempts:       defaultMaxAttempts,
			SleepSeconds:      defaultSleepSeconds,
			ImpersonateTarget: defaultImpersonateTarget,
			PlayerClient:      defaultPlayerClient,
			SocketTimeout:     defaultSocketTimeout,
			LanguageTTL:       defaultLanguageTTL,
		},
		Security: Security{
			RateLimitEnabled:   true,
			RateLimitPerMinute: defaultRateLimitPerMinute,
			SecurityHeaders:    true,
		},
		Cache: Cache{
			Enabled:       true,
			TTLSeconds:    defaultCacheTTLSeconds,
			MaxEntries:    defaultCacheMaxEntries,
			DatabasePath:  defaultCacheDatabasePath,
			SweepInterval: defaultCacheSweepInterval,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
