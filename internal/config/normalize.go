package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.applyEnvOverrides(); err != nil {
		return err
	}
	if err := c.normalizeServer(); err != nil {
		return err
	}
	if err := c.normalizeExtraction(); err != nil {
		return err
	}
	if err := c.normalizeCache(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

// applyEnvOverrides lets deployments tune settings without editing the
// config file. Environment values win over file values.
func (c *Config) applyEnvOverrides() error {
	if value, ok := lookupEnv("SUBSERVE_BIND"); ok {
		c.Server.Bind = value
	}
	if value, ok := lookupEnv("SUBSERVE_LOG_LEVEL"); ok {
		c.Logging.Level = value
	}
	if value, ok := lookupEnv("SUBSERVE_LOG_FORMAT"); ok {
		c.Logging.Format = value
	}
	if value, ok := lookupEnv("SUBSERVE_YTDLP_BINARY"); ok {
		c.Extraction.YtdlpBinary = value
	}
	if value, ok := lookupEnv("SUBSERVE_IMPERSONATE_TARGET"); ok {
		c.Extraction.ImpersonateTarget = value
	}
	if value, ok := lookupEnv("SUBSERVE_DATABASE_PATH"); ok {
		c.Cache.DatabasePath = value
	}
	if err := overrideInt("SUBSERVE_SLEEP_SECONDS", &c.Extraction.SleepSeconds); err != nil {
		return err
	}
	if err := overrideInt("SUBSERVE_RATE_LIMIT_PER_MINUTE", &c.Security.RateLimitPerMinute); err != nil {
		return err
	}
	if err := overrideInt("SUBSERVE_CACHE_TTL", &c.Cache.TTLSeconds); err != nil {
		return err
	}
	if err := overrideBool("SUBSERVE_CACHE_ENABLED", &c.Cache.Enabled); err != nil {
		return err
	}
	if err := overrideBool("SUBSERVE_RATE_LIMIT_ENABLED", &c.Security.RateLimitEnabled); err != nil {
		return err
	}
	return nil
}

func lookupEnv(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	value = strings.TrimSpace(value)
	return value, ok && value != ""
}

func overrideInt(key string, target *int) error {
	value, ok := lookupEnv(key)
	if !ok {
		return nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	*target = parsed
	return nil
}

func overrideBool(key string, target *bool) error {
	value, ok := lookupEnv(key)
	if !ok {
		return nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	*target = parsed
	return nil
}

func (c *Config) normalizeServer() error {
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultBind
	}
	if c.Server.RequestTimeout <= 0 {
		c.Server.RequestTimeout = defaultRequestTimeout
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = defaultShutdownTimeout
	}
	if c.Server.MaxBatchSize <= 0 {
		c.Server.MaxBatchSize = defaultMaxBatchSize
	}
	return nil
}

func (c *Config) normalizeExtraction() error {
	var err error
	if strings.TrimSpace(c.Extraction.WorkDir) != "" {
		if c.Extraction.WorkDir, err = expandPath(c.Extraction.WorkDir); err != nil {
			return fmt.Errorf("extraction.work_dir: %w", err)
		}
	} else {
		c.Extraction.WorkDir = ""
	}
	c.Extraction.YtdlpBinary = strings.TrimSpace(c.Extraction.YtdlpBinary)
	if c.Extraction.YtdlpBinary == "" {
		c.Extraction.YtdlpBinary = defaultYtdlpBinary
	}
	if c.Extraction.MaxAttempts <= 0 {
		c.Extraction.MaxAttempts = defaultMaxAttempts
	}
	c.Extraction.ImpersonateTarget = strings.TrimSpace(c.Extraction.ImpersonateTarget)
	c.Extraction.PlayerClient = strings.TrimSpace(c.Extraction.PlayerClient)
	if c.Extraction.LanguageTTL <= 0 {
		c.Extraction.LanguageTTL = defaultLanguageTTL
	}
	return nil
}

func (c *Config) normalizeCache() error {
	var err error
	if strings.TrimSpace(c.Cache.DatabasePath) == "" {
		c.Cache.DatabasePath = defaultCacheDatabasePath
	}
	if c.Cache.DatabasePath, err = expandPath(c.Cache.DatabasePath); err != nil {
		return fmt.Errorf("cache.database_path: %w", err)
	}
	if c.Cache.TTLSeconds <= 0 {
		c.Cache.TTLSeconds = defaultCacheTTLSeconds
	}
	if c.Cache.MaxEntries <= 0 {
		c.Cache.MaxEntries = defaultCacheMaxEntries
	}
	if c.Cache.SweepInterval <= 0 {
		c.Cache.SweepInterval = defaultCacheSweepInterval
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "auto":
		c.Logging.Format = "auto"
	case "console", "json":
	default:
		c.Logging.Format = "auto"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
