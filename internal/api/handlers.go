package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"subserve/internal/cache"
	"subserve/internal/extractor"
)

// maxVideoURLLength bounds the video_url parameter.
const maxVideoURLLength = 500

var langPattern = regexp.MustCompile(`^[a-z]{2,3}(-[A-Za-z]{2,4})?$`)

func validateVideoURL(videoURL string) error {
	if strings.TrimSpace(videoURL) == "" {
		return errors.New("video_url is required")
	}
	if len(videoURL) > maxVideoURLLength {
		return fmt.Errorf("video_url exceeds %d characters", maxVideoURLLength)
	}
	return nil
}

func (s *Server) handleGetSubtitles(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	videoURL := query.Get("video_url")
	if err := validateVideoURL(videoURL); err != nil {
		s.writeError(w, http.StatusBadRequest, "validation_error", err.Error(), "")
		return
	}

	lang := query.Get("lang")
	if lang == "" {
		lang = "en"
	}
	if !langPattern.MatchString(lang) {
		s.writeError(w, http.StatusBadRequest, "validation_error",
			"lang must be an ISO 639 code such as en or en-US", "")
		return
	}

	format, err := extractor.ParseFormat(query.Get("format"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "validation_error", err.Error(), "")
		return
	}

	if body, videoID, ok := s.cachedResponse(r.Context(), videoURL, lang, format); ok {
		s.serveSubtitleBody(w, format, body, videoID, "HIT")
		return
	}

	result, err := s.extractor.Extract(r.Context(), videoURL, lang, format)
	if err != nil {
		s.writeExtractionError(w, err)
		return
	}

	body, err := encodeResult(result, lang)
	if err != nil {
		s.logger.Error("response encoding failed", "video_id", result.VideoID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal_error", "failed to encode response", "")
		return
	}

	s.storeCached(r.Context(), videoURL, result.VideoID, lang, format, body)
	s.serveSubtitleBody(w, format, body, result.VideoID, "MISS")
}

func (s *Server) handleListLanguages(w http.ResponseWriter, r *http.Request) {
	videoURL := r.URL.Query().Get("video_url")
	if err := validateVideoURL(videoURL); err != nil {
		s.writeError(w, http.StatusBadRequest, "validation_error", err.Error(), "")
		return
	}

	videoID, languages, err := s.extractor.ListLanguages(r.Context(), videoURL)
	if err != nil {
		switch {
		case errors.Is(err, extractor.ErrInvalidReference):
			s.writeError(w, http.StatusBadRequest, "invalid_video_reference",
				"video_url is not a recognizable YouTube video reference", "")
		case errors.Is(err, extractor.ErrTransientUpstream):
			s.writeError(w, http.StatusServiceUnavailable, "upstream_rate_limited",
				fmt.Sprintf("upstream rate limit detected, retry in %d seconds", s.opts.SleepSeconds), "")
		default:
			s.writeError(w, http.StatusNotFound, "video_not_found",
				"could not list caption languages for the video", truncateDetail(err.Error()))
		}
		return
	}

	writeJSON(w, http.StatusOK, languagesResponse{VideoID: videoID, Languages: languages})
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "validation_error", "request body is not valid JSON", "")
		return
	}
	if len(req.Videos) == 0 {
		s.writeError(w, http.StatusBadRequest, "validation_error", "videos must not be empty", "")
		return
	}
	if len(req.Videos) > s.opts.MaxBatchSize {
		s.writeError(w, http.StatusBadRequest, "validation_error",
			fmt.Sprintf("videos exceeds the batch limit of %d", s.opts.MaxBatchSize), "")
		return
	}

	results := make([]batchItemResult, len(req.Videos))
	g, ctx := errgroup.WithContext(r.Context())
	g.SetLimit(s.opts.BatchConcurrency)
	for i, item := range req.Videos {
		g.Go(func() error {
			results[i] = s.processBatchItem(ctx, item)
			return nil
		})
	}
	_ = g.Wait()

	writeJSON(w, http.StatusOK, results)
}

// processBatchItem never fails the batch; item errors land in the result.
func (s *Server) processBatchItem(ctx context.Context, item batchItemRequest) batchItemResult {
	result := batchItemResult{VideoURL: item.VideoURL}

	if err := validateVideoURL(item.VideoURL); err != nil {
		result.Error = err.Error()
		return result
	}
	lang := item.Lang
	if lang == "" {
		lang = "en"
	}
	if !langPattern.MatchString(lang) {
		result.Error = "lang must be an ISO 639 code such as en or en-US"
		return result
	}
	format, err := extractor.ParseFormat(item.Format)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	if body, videoID, ok := s.cachedResponse(ctx, item.VideoURL, lang, format); ok {
		result.Success = true
		result.VideoID = videoID
		result.Data = body
		return result
	}

	extracted, err := s.extractor.Extract(ctx, item.VideoURL, lang, format)
	if err != nil {
		result.Error = truncateDetail(err.Error())
		return result
	}

	body, err := encodeResult(extracted, lang)
	if err != nil {
		result.Error = "failed to encode response"
		return result
	}
	s.storeCached(ctx, item.VideoURL, extracted.VideoID, lang, format, body)

	result.Success = true
	result.VideoID = extracted.VideoID
	result.Data = body
	return result
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": ServiceName,
		"version": s.opts.Version,
	})
}

type healthResponse struct {
	Status        string         `json:"status"`
	Service       string         `json:"service"`
	Version       string         `json:"version"`
	Timestamp     float64        `json:"timestamp"`
	UptimeSeconds float64        `json:"uptime_seconds"`
	Cache         map[string]any `json:"cache"`
	RateLimiting  map[string]any `json:"rate_limiting"`
	Database      map[string]any `json:"database"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"

	cacheStats := map[string]any{"enabled": false}
	if s.opts.CacheEnabled && s.memory != nil {
		snapshot := s.memory.Snapshot()
		cacheStats = map[string]any{
			"enabled":  true,
			"size":     snapshot.Size,
			"hits":     snapshot.Hits,
			"misses":   snapshot.Misses,
			"hit_rate": snapshot.HitRate,
		}
	}

	database := map[string]any{"status": "disabled"}
	if s.opts.CacheEnabled && s.store != nil {
		database = map[string]any{"status": "healthy", "path": s.store.Path()}
		if err := s.store.CheckHealth(r.Context()); err != nil {
			database["status"] = "unhealthy"
			database["error"] = err.Error()
			status = "degraded"
		} else if count, err := s.store.Count(r.Context()); err == nil {
			database["entries"] = count
		}
	}

	writeJSON(w, http.StatusOK, healthResponse{
		Status:        status,
		Service:       ServiceName,
		Version:       s.opts.Version,
		Timestamp:     float64(time.Now().UnixNano()) / float64(time.Second),
		UptimeSeconds: time.Since(s.started).Seconds(),
		Cache:         cacheStats,
		RateLimiting: map[string]any{
			"enabled":    s.opts.RateLimitEnabled,
			"per_minute": s.opts.RateLimitPerMinute,
		},
		Database: database,
	})
}

// cachedResponse consults the persistent store first, then the in-process
// cache. The persistent layer survives restarts so it wins.
func (s *Server) cachedResponse(ctx context.Context, videoURL, lang string, format extractor.Format) ([]byte, string, bool) {
	if !s.opts.CacheEnabled {
		return nil, "", false
	}
	if s.store != nil {
		entry, err := s.store.Get(ctx, videoURL, lang, string(format))
		if err != nil {
			s.logger.Warn("persistent cache read failed", "error", err)
		} else if entry != nil {
			return entry.Payload, entry.VideoID, true
		}
	}
	if s.memory != nil {
		if data, ok := s.memory.Get(cache.Key(videoURL, lang, string(format))); ok {
			return data, "", true
		}
	}
	return nil, "", false
}

func (s *Server) storeCached(ctx context.Context, videoURL, videoID, lang string, format extractor.Format, body []byte) {
	if !s.opts.CacheEnabled {
		return
	}
	if s.memory != nil {
		s.memory.Set(cache.Key(videoURL, lang, string(format)), body)
	}
	if s.store != nil {
		if err := s.store.Set(ctx, videoURL, videoID, lang, string(format), body); err != nil {
			s.logger.Warn("persistent cache write failed", "video_id", videoID, "error", err)
		}
	}
}

func (s *Server) serveSubtitleBody(w http.ResponseWriter, format extractor.Format, body []byte, videoID, cacheState string) {
	if format == extractor.FormatVTT {
		var doc vttDocument
		if err := json.Unmarshal(body, &doc); err != nil {
			s.writeError(w, http.StatusInternalServerError, "internal_error", "cached document is unreadable", "")
			return
		}
		if doc.VideoID != "" {
			videoID = doc.VideoID
		}
		w.Header().Set("Content-Type", "text/vtt; charset=utf-8")
		if videoID != "" {
			w.Header().Set("X-Video-ID", videoID)
		}
		w.Header().Set("X-Cache", cacheState)
		_, _ = w.Write([]byte(doc.Document))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if videoID != "" {
		w.Header().Set("X-Video-ID", videoID)
	}
	w.Header().Set("X-Cache", cacheState)
	_, _ = w.Write(body)
}
