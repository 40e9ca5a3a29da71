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

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Server contains bind address and request handling configuration.
type Server struct {
	Bind            string `toml:"bind"`
	RequestTimeout  int    `toml:"request_timeout"`
	ShutdownTimeout int    `toml:"shutdown_timeout"`
	MaxBatchSize    int    `toml:"max_batch_size"`
}

// Extraction contains configuration for the caption extraction pipeline.
type Extraction struct {
	WorkDir           string `toml:"work_dir"`
	YtdlpBinary       string `toml:"ytdlp_binary"`
	MaxAttempts       int    `toml:"max_attempts"`
	SleepSeconds      int    `toml:"sleep_seconds"`
	ImpersonateTarget string `toml:"impersonate_target"`
	PlayerClient      string `toml:"player_client"`
	SocketTimeout     int    `toml:"socket_timeout"`
	LanguageTTL       int    `toml:"language_ttl"`
}

// Security contains rate limiting and response header configuration.
type Security struct {
	RateLimitEnabled   bool `toml:"rate_limit_enabled"`
	RateLimitPerMinute int  `toml:"rate_limit_per_minute"`
	SecurityHeaders    bool `toml:"security_headers"`
}

// Cache contains configuration for the response caches.
type Cache struct {
	Enabled       bool   `toml:"enabled"`
	TTLSeconds    int    `toml:"ttl_seconds"`
	MaxEntries    int    `toml:"max_entries"`
	DatabasePath  string `toml:"database_path"`
	SweepInterval int    `toml:"sweep_interval_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for subserve.
//
// Configuration sections by subsystem:
//   - Server: bind address, timeouts, batch limits
//   - Extraction: yt-dlp behavior and retry pipeline knobs
//   - Security: per-IP rate limiting and response headers
//   - Cache: response cache TTL, bounds, and SQLite location
//   - Logging: log format and level
type Config struct {
	Server     Server     `toml:"server"`
	Extraction Extraction `toml:"extraction"`
	Security   Security   `toml:"security"`
	Cache      Cache      `toml:"cache"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/subserve/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and environment overrides applied.
func Load(path string) (*Config, string, bool, error) {
	// A .env next to the working directory may supply SUBSERVE_ overrides.
	_ = godotenv.Load()

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

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("subserve.toml")
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

// EnsureDirectories creates required directories for server operation.
func (c *Config) EnsureDirectories() error {
	dirs := []string{filepath.Dir(c.Cache.DatabasePath)}
	if strings.TrimSpace(c.Extraction.WorkDir) != "" {
		dirs = append(dirs, c.Extraction.WorkDir)
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LockPath returns the single-instance lock file location, kept next to the
// cache database.
func (c *Config) LockPath() string {
	return filepath.Join(filepath.Dir(c.Cache.DatabasePath), "subserve.lock")
}

// RequestTimeout returns the per-request deadline.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.RequestTimeout) * time.Second
}

// ShutdownTimeout returns the graceful shutdown deadline.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Server.ShutdownTimeout) * time.Second
}

// CacheTTL returns the response cache lifetime.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

// SweepInterval returns the cache sweeper period.
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.Cache.SweepInterval) * time.Second
}

// LanguageTTL returns the language directory cache lifetime.
func (c *Config) LanguageTTL() time.Duration {
	return time.Duration(c.Extraction.LanguageTTL) * time.Second
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
