package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"subserve/internal/config"
)

func TestLoadDefaultsAndExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	if cfg.Server.Bind != "127.0.0.1:8000" {
		t.Fatalf("unexpected bind: %q", cfg.Server.Bind)
	}
	wantDB := filepath.Join(tempHome, ".local", "share", "subserve", "cache.db")
	if cfg.Cache.DatabasePath != wantDB {
		t.Fatalf("unexpected database path: got %q want %q", cfg.Cache.DatabasePath, wantDB)
	}
	if cfg.Extraction.MaxAttempts != 3 {
		t.Fatalf("unexpected max attempts: %d", cfg.Extraction.MaxAttempts)
	}
	if cfg.Extraction.ImpersonateTarget != "chrome" {
		t.Fatalf("unexpected impersonate target: %q", cfg.Extraction.ImpersonateTarget)
	}
	if cfg.Extraction.PlayerClient != "default,-web" {
		t.Fatalf("unexpected player client: %q", cfg.Extraction.PlayerClient)
	}
	if !cfg.Security.RateLimitEnabled || cfg.Security.RateLimitPerMinute != 10 {
		t.Fatalf("unexpected security defaults: %+v", cfg.Security)
	}
	if !cfg.Cache.Enabled || cfg.Cache.TTLSeconds != 3600 || cfg.Cache.MaxEntries != 1000 {
		t.Fatalf("unexpected cache defaults: %+v", cfg.Cache)
	}
	if cfg.Logging.Format != "auto" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
	if cfg.LockPath() != filepath.Join(filepath.Dir(wantDB), "subserve.lock") {
		t.Fatalf("unexpected lock path: %q", cfg.LockPath())
	}
}

func TestLoadParsesFileValues(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[server]
bind = "0.0.0.0:9000"
max_batch_size = 5

[extraction]
sleep_seconds = 5
impersonate_target = "safari"

[cache]
ttl_seconds = 60

[logging]
level = "debug"
format = "json"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved == "" {
		t.Fatalf("expected existing config at %q", path)
	}
	if cfg.Server.Bind != "0.0.0.0:9000" || cfg.Server.MaxBatchSize != 5 {
		t.Fatalf("server section not applied: %+v", cfg.Server)
	}
	if cfg.Extraction.SleepSeconds != 5 || cfg.Extraction.ImpersonateTarget != "safari" {
		t.Fatalf("extraction section not applied: %+v", cfg.Extraction)
	}
	if cfg.Cache.TTLSeconds != 60 {
		t.Fatalf("cache section not applied: %+v", cfg.Cache)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Fatalf("logging section not applied: %+v", cfg.Logging)
	}
	// Unset fields keep defaults.
	if cfg.Server.RequestTimeout != 120 {
		t.Fatalf("unexpected request timeout: %d", cfg.Server.RequestTimeout)
	}
}

func TestLoadEnvOverridesWinOverFile(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("SUBSERVE_BIND", "127.0.0.1:9999")
	t.Setenv("SUBSERVE_SLEEP_SECONDS", "2")
	t.Setenv("SUBSERVE_CACHE_ENABLED", "false")
	t.Setenv("SUBSERVE_LOG_LEVEL", "warn")

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[server]\nbind = \"0.0.0.0:9000\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Bind != "127.0.0.1:9999" {
		t.Fatalf("env bind override not applied: %q", cfg.Server.Bind)
	}
	if cfg.Extraction.SleepSeconds != 2 {
		t.Fatalf("env sleep override not applied: %d", cfg.Extraction.SleepSeconds)
	}
	if cfg.Cache.Enabled {
		t.Fatal("env cache override not applied")
	}
	if cfg.Logging.Level != "warn" {
		t.Fatalf("env log level override not applied: %q", cfg.Logging.Level)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad bind", "[server]\nbind = \"no-port\"\n", "server.bind"},
		{"bad level", "[logging]\nlevel = \"verbose\"\n", "logging.level"},
		{"bad rate limit", "[security]\nrate_limit_enabled = true\nrate_limit_per_minute = -1\n", "rate_limit_per_minute"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			_, _, _, err := config.Load(path)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadNormalizesLoggingFallbacks(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[logging]\nformat = \"fancy\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Logging.Format != "auto" {
		t.Fatalf("unknown format should fall back to auto, got %q", cfg.Logging.Format)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, section := range []string{"[server]", "[extraction]", "[security]", "[cache]", "[logging]"} {
		if !strings.Contains(string(data), section) {
			t.Fatalf("sample config missing section %s", section)
		}
	}
}
