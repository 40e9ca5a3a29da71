package logging

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{" info ", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "fancy"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestConsoleOutputIncludesComponentPrefix(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "app.log")
	logger, err := New(Options{
		Level:       "info",
		Format:      "console",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	WithComponent(logger, "extractor").Info("caption download complete", "video_id", "dQw4w9WgXcQ")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	line := strings.TrimSpace(string(data))
	if !strings.Contains(line, "INFO extractor: caption download complete") {
		t.Fatalf("missing component prefix in %q", line)
	}
	if !strings.Contains(line, "video_id=dQw4w9WgXcQ") {
		t.Fatalf("missing attribute in %q", line)
	}
	if strings.Contains(line, "component=") {
		t.Fatalf("component should not render as key=value in %q", line)
	}
}

func TestConsoleOutputSourceOnlyAtDebug(t *testing.T) {
	dir := t.TempDir()

	infoPath := filepath.Join(dir, "info.log")
	infoLogger, err := New(Options{Level: "info", Format: "console", OutputPaths: []string{infoPath}})
	if err != nil {
		t.Fatal(err)
	}
	infoLogger.Info("plain message")

	debugPath := filepath.Join(dir, "debug.log")
	debugLogger, err := New(Options{Level: "debug", Format: "console", OutputPaths: []string{debugPath}})
	if err != nil {
		t.Fatal(err)
	}
	debugLogger.Debug("detailed message")

	infoData, err := os.ReadFile(infoPath)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(infoData), "logger_test.go") {
		t.Fatalf("info output should not carry source info: %q", infoData)
	}

	debugData, err := os.ReadFile(debugPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(debugData), "logger_test.go") {
		t.Fatalf("debug output should carry source info: %q", debugData)
	}
}

func TestConsoleOutputFlattensGroups(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "app.log")
	logger, err := New(Options{Level: "info", Format: "console", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatal(err)
	}

	logger.WithGroup("cache").Info("sweep complete", "deleted", 4)

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "cache.deleted=4") {
		t.Fatalf("missing flattened group key in %q", data)
	}
}

func TestConsoleOutputQuotesValuesWithSpaces(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "app.log")
	logger, err := New(Options{Level: "info", Format: "console", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatal(err)
	}

	logger.Info("extraction failed", "reason", "rate limit exceeded")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `reason="rate limit exceeded"`) {
		t.Fatalf("value with spaces not quoted in %q", data)
	}
}

func TestJSONOutputShape(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "app.log")
	logger, err := New(Options{Level: "info", Format: "json", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatal(err)
	}

	WithComponent(logger, "api").Warn("slow request", "elapsed_ms", 1500)

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	var entry map[string]any
	if err := json.Unmarshal(data, &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v (%q)", err, data)
	}
	if entry["msg"] != "slow request" {
		t.Fatalf("unexpected msg: %v", entry["msg"])
	}
	if entry["level"] != "warn" {
		t.Fatalf("unexpected level: %v", entry["level"])
	}
	if entry[FieldComponent] != "api" {
		t.Fatalf("unexpected component: %v", entry[FieldComponent])
	}
	if _, ok := entry["ts"]; !ok {
		t.Fatal("missing ts field")
	}
	if entry["elapsed_ms"] != float64(1500) {
		t.Fatalf("unexpected elapsed_ms: %v", entry["elapsed_ms"])
	}
}

func TestLevelFiltering(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "app.log")
	logger, err := New(Options{Level: "warn", Format: "console", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatal(err)
	}

	logger.Info("should be dropped")
	logger.Warn("should be kept")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "should be dropped") {
		t.Fatalf("info record leaked through warn level: %q", data)
	}
	if !strings.Contains(string(data), "should be kept") {
		t.Fatalf("warn record missing: %q", data)
	}
}

func TestNewNopDiscards(t *testing.T) {
	logger := NewNop()
	logger.Error("nothing to see")
}
