package ytdlp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"subserve/internal/extractor"
)

var commandContext = exec.CommandContext

// Option configures the CLI client.
type Option func(*CLI)

// WithBinary overrides the default binary name.
func WithBinary(binary string) Option {
	return func(c *CLI) {
		if binary != "" {
			c.binary = binary
		}
	}
}

// CLI wraps the yt-dlp command-line downloader.
type CLI struct {
	binary string
}

// NewCLI constructs a CLI client using defaults.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{binary: "yt-dlp"}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// DownloadCaptions fetches caption files for one language into workDir along
// with the video's metadata record.
func (c *CLI) DownloadCaptions(ctx context.Context, videoURL, lang, workDir string, opts extractor.Options) (*extractor.MediaInfo, error) {
	if videoURL == "" {
		return nil, errors.New("video url required")
	}
	if workDir == "" {
		return nil, errors.New("working directory required")
	}
	if lang == "" {
		lang = "en"
	}

	args := []string{
		"--skip-download",
		"--write-subs",
		"--write-auto-subs",
		"--sub-langs", lang,
		"--sub-format", "vtt",
		"--write-info-json",
		"--ignore-errors",
		"--no-playlist",
		"--no-progress",
		"--no-warnings",
		"--output", filepath.Join(workDir, "%(id)s.%(ext)s"),
	}
	if opts.ImpersonateTarget != "" {
		args = append(args, "--impersonate", opts.ImpersonateTarget)
	}
	if opts.SleepSeconds > 0 {
		args = append(args, "--sleep-subtitles", strconv.Itoa(opts.SleepSeconds))
	}
	if opts.PlayerClient != "" {
		args = append(args, "--extractor-args", "youtube:player_client="+opts.PlayerClient)
	}
	if opts.SocketTimeout > 0 {
		args = append(args, "--socket-timeout", strconv.Itoa(opts.SocketTimeout))
	}
	args = append(args, videoURL)

	cmd := commandContext(ctx, c.binary, args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("yt-dlp download failed: %w: %s", err, condenseOutput(output))
	}

	return readMediaInfo(workDir)
}

// ListTracks enumerates available caption tracks without downloading.
func (c *CLI) ListTracks(ctx context.Context, videoURL string) (*extractor.TrackListing, error) {
	if videoURL == "" {
		return nil, errors.New("video url required")
	}

	args := []string{
		"--skip-download",
		"--dump-json",
		"--no-playlist",
		"--no-warnings",
		videoURL,
	}
	cmd := commandContext(ctx, c.binary, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("yt-dlp listing failed: %w: %s", err, condenseOutput(stderr.Bytes()))
	}

	var record struct {
		Subtitles         map[string][]extractor.Track `json:"subtitles"`
		AutomaticCaptions map[string][]extractor.Track `json:"automatic_captions"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &record); err != nil {
		return nil, fmt.Errorf("decode track listing: %w", err)
	}
	return &extractor.TrackListing{Manual: record.Subtitles, Automatic: record.AutomaticCaptions}, nil
}

// readMediaInfo loads the metadata record yt-dlp wrote next to the caption
// files. A missing record is not an error; captions may still be usable.
func readMediaInfo(workDir string) (*extractor.MediaInfo, error) {
	matches, err := filepath.Glob(filepath.Join(workDir, "*.info.json"))
	if err != nil || len(matches) == 0 {
		return nil, nil
	}
	sort.Strings(matches)

	raw, err := os.ReadFile(matches[0])
	if err != nil {
		return nil, fmt.Errorf("read metadata record: %w", err)
	}
	var info extractor.MediaInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, fmt.Errorf("decode metadata record: %w", err)
	}
	return &info, nil
}

// condenseOutput reduces yt-dlp output to the lines that matter for error
// classification, preferring explicit ERROR lines over a raw tail.
func condenseOutput(output []byte) string {
	text := strings.TrimSpace(string(output))
	if text == "" {
		return "no output"
	}
	var errorLines []string
	for _, line := range strings.Split(text, "\n") {
		if strings.Contains(line, "ERROR") {
			errorLines = append(errorLines, strings.TrimSpace(line))
		}
	}
	if len(errorLines) > 0 {
		return strings.Join(errorLines, "; ")
	}
	if len(text) > 500 {
		text = text[len(text)-500:]
	}
	return text
}

var _ extractor.Capability = (*CLI)(nil)
