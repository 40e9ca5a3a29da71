package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"subserve/internal/cache"
	"subserve/internal/extractor"
	"subserve/internal/language"
	"subserve/internal/logging"
)

// ServiceName identifies this service in health responses.
const ServiceName = "subserve"

// Extractor is the caption pipeline consumed by the HTTP layer. Handlers do
// no retrying of their own; the pipeline owns the retry schedule.
type Extractor interface {
	Extract(ctx context.Context, videoURL, lang string, format extractor.Format) (*extractor.Result, error)
	ListLanguages(ctx context.Context, videoURL string) (string, []language.Descriptor, error)
}

// PersistentCache is the durable response cache consulted before the
// in-process one. *cache.Store satisfies it.
type PersistentCache interface {
	Get(ctx context.Context, videoURL, lang, format string) (*cache.Entry, error)
	Set(ctx context.Context, videoURL, videoID, lang, format string, payload []byte) error
	CheckHealth(ctx context.Context) error
	Count(ctx context.Context) (int64, error)
	Path() string
}

// Options carries the handler knobs derived from configuration.
type Options struct {
	Version            string
	RequestTimeout     time.Duration
	MaxBatchSize       int
	BatchConcurrency   int
	CacheEnabled       bool
	RateLimitEnabled   bool
	RateLimitPerMinute int
	SecurityHeaders    bool
	SleepSeconds       int
}

// Server owns the chi router and the handler dependencies.
type Server struct {
	extractor Extractor
	memory    *cache.Memory
	store     PersistentCache
	opts      Options
	logger    *slog.Logger
	router    chi.Router
	started   time.Time
}

// NewServer wires the HTTP surface. memory and store may be nil when caching
// is disabled.
func NewServer(svc Extractor, memory *cache.Memory, store PersistentCache, opts Options, logger *slog.Logger) *Server {
	if opts.Version == "" {
		opts.Version = "dev"
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 120 * time.Second
	}
	if opts.MaxBatchSize <= 0 {
		opts.MaxBatchSize = 10
	}
	if opts.BatchConcurrency <= 0 {
		opts.BatchConcurrency = 2
	}

	s := &Server{
		extractor: svc,
		memory:    memory,
		store:     store,
		opts:      opts,
		logger:    logging.WithComponent(logger, "api"),
		started:   time.Now(),
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(requestID)
	if s.opts.SecurityHeaders {
		r.Use(securityHeaders)
	}
	r.Use(chimw.Timeout(s.opts.RequestTimeout))

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if s.opts.RateLimitEnabled {
				r.Use(newRateLimiter(s.opts.RateLimitPerMinute).middleware)
			}
			r.Get("/subtitles", s.handleGetSubtitles)
			r.Get("/subtitles/languages", s.handleListLanguages)
		})
		r.Group(func(r chi.Router) {
			if s.opts.RateLimitEnabled {
				// Batch requests get triple the single-request allowance.
				r.Use(newRateLimiter(s.opts.RateLimitPerMinute * 3).middleware)
			}
			r.Post("/subtitles/batch", s.handleBatch)
		})
	})

	return r
}

// Router exposes the configured handler for an http.Server.
func (s *Server) Router() http.Handler {
	return s.router
}
