package extractor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"subserve/internal/language"
	"subserve/internal/videoid"
	"subserve/internal/vtt"
)

// Settings tune the retry schedule and downloader behavior.
type Settings struct {
	// MaxAttempts caps extraction attempts per request, first try included.
	MaxAttempts int
	// BackoffBase is the delay before the first retry; it doubles per
	// attempt up to BackoffMax.
	BackoffBase time.Duration
	BackoffMax  time.Duration
	// Jitter is the upper bound of the random delay added to each backoff.
	Jitter time.Duration
	// WorkDir hosts per-attempt temporary directories. Empty means the
	// system default.
	WorkDir string
	// LanguageTTL bounds the language directory cache.
	LanguageTTL time.Duration
	// Download is passed through to the Capability on every attempt.
	Download Options
}

// DefaultSettings mirrors the schedule the upstream rate limiting was tuned
// against: up to three attempts with 1s, 2s capped-at-4s backoff.
func DefaultSettings() Settings {
	return Settings{
		MaxAttempts: 3,
		BackoffBase: time.Second,
		BackoffMax:  4 * time.Second,
		Jitter:      500 * time.Millisecond,
		LanguageTTL: language.DefaultTTL,
		Download: Options{
			ImpersonateTarget: "chrome",
			SleepSeconds:      60,
			PlayerClient:      "default,-web",
			SocketTimeout:     120,
		},
	}
}

// Result is one successful extraction.
type Result struct {
	VideoID  string
	Metadata Metadata
	Payload  Payload
}

// Service drives caption extraction with retries and caches language
// listings.
type Service struct {
	capability Capability
	settings   Settings
	directory  *language.Directory
	logger     *slog.Logger

	sleep  func(ctx context.Context, d time.Duration) error
	jitter func(max time.Duration) time.Duration
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithSleep overrides the backoff sleep, for tests.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) ServiceOption {
	return func(s *Service) {
		if sleep != nil {
			s.sleep = sleep
		}
	}
}

// WithJitter overrides the backoff jitter source, for tests.
func WithJitter(jitter func(max time.Duration) time.Duration) ServiceOption {
	return func(s *Service) {
		if jitter != nil {
			s.jitter = jitter
		}
	}
}

// WithDirectory substitutes the language directory cache.
func WithDirectory(directory *language.Directory) ServiceOption {
	return func(s *Service) {
		if directory != nil {
			s.directory = directory
		}
	}
}

// NewService wires a Service around a Capability. Zero-valued schedule
// settings fall back to defaults.
func NewService(capability Capability, settings Settings, logger *slog.Logger, opts ...ServiceOption) *Service {
	defaults := DefaultSettings()
	if settings.MaxAttempts <= 0 {
		settings.MaxAttempts = defaults.MaxAttempts
	}
	if settings.BackoffBase <= 0 {
		settings.BackoffBase = defaults.BackoffBase
	}
	if settings.BackoffMax <= 0 {
		settings.BackoffMax = defaults.BackoffMax
	}
	if settings.Jitter < 0 {
		settings.Jitter = defaults.Jitter
	}
	if settings.LanguageTTL <= 0 {
		settings.LanguageTTL = defaults.LanguageTTL
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Service{
		capability: capability,
		settings:   settings,
		directory:  language.NewDirectory(settings.LanguageTTL),
		logger:     logger.With("component", "extractor"),
		sleep:      sleepContext,
		jitter:     randomJitter,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Extract fetches captions for one video and language, retrying transient
// upstream failures with capped exponential backoff. The context covers the
// whole schedule including backoff sleeps.
func (s *Service) Extract(ctx context.Context, videoURL, lang string, format Format) (*Result, error) {
	videoID, ok := videoid.Resolve(videoURL)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidReference, videoURL)
	}

	var lastErr error
	for attempt := 0; attempt < s.settings.MaxAttempts; attempt++ {
		s.logger.Info("extracting captions",
			"video_id", videoID,
			"language", lang,
			"attempt", attempt+1,
			"max_attempts", s.settings.MaxAttempts)

		result, err := s.attempt(ctx, videoURL, videoID, lang, format)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == s.settings.MaxAttempts-1 || !IsRetryable(err) {
			break
		}
		delay := s.backoffDelay(attempt)
		s.logger.Warn("transient failure, backing off",
			"video_id", videoID,
			"attempt", attempt+1,
			"delay", delay,
			"error", err)
		if sleepErr := s.sleep(ctx, delay); sleepErr != nil {
			return nil, sleepErr
		}
	}

	s.logger.Error("extraction failed", "video_id", videoID, "error", lastErr)
	return nil, lastErr
}

// attempt runs one extraction inside a fresh working directory that is
// removed before returning, success or failure.
func (s *Service) attempt(ctx context.Context, videoURL, videoID, lang string, format Format) (*Result, error) {
	workDir, err := os.MkdirTemp(s.settings.WorkDir, "captions-")
	if err != nil {
		return nil, fmt.Errorf("create working directory: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(workDir); rmErr != nil {
			s.logger.Warn("working directory cleanup failed", "path", workDir, "error", rmErr)
		}
	}()

	info, err := s.capability.DownloadCaptions(ctx, videoURL, lang, workDir, s.settings.Download)
	if err != nil {
		return nil, classifyUpstream(err)
	}

	captionPath, err := locateCaptionFile(workDir, videoID, lang)
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(captionPath)
	if err != nil {
		return nil, fmt.Errorf("read caption file: %w", err)
	}
	content := string(raw)
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: %s", ErrEmptyCaptions, filepath.Base(captionPath))
	}

	payload, err := buildPayload(content, format)
	if err != nil {
		return nil, err
	}

	return &Result{VideoID: videoID, Metadata: FromMediaInfo(info), Payload: payload}, nil
}

// locateCaptionFile picks the caption file for an attempt deterministically:
// the exact <id>.<lang>.vtt name wins, otherwise the lexicographically first
// .vtt file in the working directory.
func locateCaptionFile(workDir, videoID, lang string) (string, error) {
	exact := filepath.Join(workDir, videoID+"."+lang+".vtt")
	if _, err := os.Stat(exact); err == nil {
		return exact, nil
	}
	matches, err := filepath.Glob(filepath.Join(workDir, "*.vtt"))
	if err != nil {
		return "", fmt.Errorf("scan working directory: %w", err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("%w: video %s, language %q", ErrNoCaptions, videoID, lang)
	}
	sort.Strings(matches)
	return matches[0], nil
}

// buildPayload renders caption content for the requested format. Parse
// failures are folded into the caption taxonomy.
func buildPayload(content string, format Format) (Payload, error) {
	switch format {
	case FormatVTT:
		return DocumentPayload{Document: vtt.SanitizeDocument(content)}, nil
	case FormatText:
		entries, err := vtt.Parse(content)
		if err != nil {
			return nil, classifyParse(err)
		}
		return TextPayload{Text: vtt.CombineText(entries)}, nil
	default:
		entries, err := vtt.Parse(content)
		if err != nil {
			return nil, classifyParse(err)
		}
		return EntriesPayload{Entries: entries}, nil
	}
}

func classifyParse(err error) error {
	if errors.Is(err, vtt.ErrEmptyInput) {
		return fmt.Errorf("%w: %w", ErrEmptyCaptions, err)
	}
	return fmt.Errorf("%w: %w", ErrMalformedCaptions, err)
}

// ListLanguages enumerates available caption tracks for a video, serving
// cached listings while they are fresh.
func (s *Service) ListLanguages(ctx context.Context, videoURL string) (string, []language.Descriptor, error) {
	videoID, ok := videoid.Resolve(videoURL)
	if !ok {
		return "", nil, fmt.Errorf("%w: %q", ErrInvalidReference, videoURL)
	}

	if listing, ok := s.directory.Lookup(videoID); ok {
		s.logger.Debug("language listing served from cache", "video_id", videoID)
		return videoID, listing, nil
	}

	tracks, err := s.capability.ListTracks(ctx, videoURL)
	if err != nil {
		return "", nil, classifyUpstream(err)
	}
	listing := mergeTracks(tracks)
	s.directory.Store(videoID, listing)
	s.logger.Debug("language listing cached", "video_id", videoID, "languages", len(listing))
	return videoID, listing, nil
}

// ClearLanguages drops the cached listing for one video.
func (s *Service) ClearLanguages(videoID string) {
	s.directory.Clear(videoID)
}

// ClearAllLanguages drops every cached listing.
func (s *Service) ClearAllLanguages() {
	s.directory.ClearAll()
}

// mergeTracks flattens a listing into descriptors, authored tracks first.
// An automatic track is suppressed when an authored track exists for the
// same code. Codes sort lexicographically within each group.
func mergeTracks(tracks *TrackListing) []language.Descriptor {
	if tracks == nil {
		return nil
	}
	groups := []struct {
		tracks map[string][]Track
		auto   bool
	}{
		{tracks.Manual, false},
		{tracks.Automatic, true},
	}

	seen := make(map[string]struct{})
	var listing []language.Descriptor
	for _, group := range groups {
		codes := make([]string, 0, len(group.tracks))
		for code := range group.tracks {
			codes = append(codes, code)
		}
		sort.Strings(codes)
		for _, code := range codes {
			if _, dup := seen[code]; dup {
				continue
			}
			seen[code] = struct{}{}
			listing = append(listing, language.Descriptor{
				Code:          code,
				Name:          language.DisplayName(code),
				AutoGenerated: group.auto,
				Formats:       trackFormats(group.tracks[code]),
			})
		}
	}
	return listing
}

func trackFormats(tracks []Track) []string {
	if len(tracks) == 0 {
		return []string{"vtt"}
	}
	formats := make([]string, 0, len(tracks))
	for _, track := range tracks {
		ext := track.Ext
		if ext == "" {
			ext = "vtt"
		}
		formats = append(formats, ext)
	}
	return formats
}

// backoffDelay doubles the base per attempt, caps it, and adds jitter.
func (s *Service) backoffDelay(attempt int) time.Duration {
	delay := s.settings.BackoffBase << attempt
	if delay > s.settings.BackoffMax {
		delay = s.settings.BackoffMax
	}
	return delay + s.jitter(s.settings.Jitter)
}

func randomJitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return rand.N(max)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
