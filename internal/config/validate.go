package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateExtraction(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if _, _, err := net.SplitHostPort(c.Server.Bind); err != nil {
		return fmt.Errorf("server.bind must be host:port: %w", err)
	}
	if err := ensurePositiveMap(map[string]int{
		"server.request_timeout":  c.Server.RequestTimeout,
		"server.shutdown_timeout": c.Server.ShutdownTimeout,
		"server.max_batch_size":   c.Server.MaxBatchSize,
	}); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateExtraction() error {
	if err := ensurePositiveMap(map[string]int{
		"extraction.max_attempts": c.Extraction.MaxAttempts,
		"extraction.language_ttl": c.Extraction.LanguageTTL,
	}); err != nil {
		return err
	}
	if c.Extraction.SleepSeconds < 0 {
		return errors.New("extraction.sleep_seconds must be >= 0")
	}
	if c.Extraction.SocketTimeout < 0 {
		return errors.New("extraction.socket_timeout must be >= 0")
	}
	if strings.TrimSpace(c.Extraction.YtdlpBinary) == "" {
		return errors.New("extraction.ytdlp_binary must be set")
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if c.Security.RateLimitEnabled && c.Security.RateLimitPerMinute <= 0 {
		return errors.New("security.rate_limit_per_minute must be positive when security.rate_limit_enabled is true")
	}
	return nil
}

func (c *Config) validateCache() error {
	if !c.Cache.Enabled {
		return nil
	}
	if strings.TrimSpace(c.Cache.DatabasePath) == "" {
		return errors.New("cache.database_path must be set when cache.enabled is true")
	}
	if err := ensurePositiveMap(map[string]int{
		"cache.ttl_seconds":            c.Cache.TTLSeconds,
		"cache.max_entries":            c.Cache.MaxEntries,
		"cache.sweep_interval_seconds": c.Cache.SweepInterval,
	}); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	}
	return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
