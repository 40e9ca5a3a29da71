package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"subserve/internal/extractor"
	"subserve/internal/language"
	"subserve/internal/vtt"
)

type subtitleResponse struct {
	VideoID       string             `json:"video_id"`
	Language      string             `json:"language"`
	SubtitleCount int                `json:"subtitle_count"`
	Subtitles     []vtt.Entry        `json:"subtitles"`
	Metadata      extractor.Metadata `json:"metadata"`
}

type subtitleTextResponse struct {
	VideoID  string             `json:"video_id"`
	Language string             `json:"language"`
	Text     string             `json:"text"`
	Metadata extractor.Metadata `json:"metadata"`
}

// vttDocument is the cacheable envelope for raw WebVTT responses. The
// envelope keeps the video id next to the document so cache hits can still
// set the X-Video-ID header.
type vttDocument struct {
	VideoID  string `json:"video_id"`
	Document string `json:"vtt"`
}

type languagesResponse struct {
	VideoID   string                `json:"video_id"`
	Languages []language.Descriptor `json:"languages"`
}

type batchRequest struct {
	Videos []batchItemRequest `json:"videos"`
}

type batchItemRequest struct {
	VideoURL string `json:"video_url"`
	Lang     string `json:"lang"`
	Format   string `json:"format"`
}

type batchItemResult struct {
	VideoURL string          `json:"video_url"`
	Success  bool            `json:"success"`
	VideoID  string          `json:"video_id,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
	Error    string          `json:"error,omitempty"`
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, message, detail string) {
	writeJSON(w, status, errorBody{Error: code, Message: message, Detail: detail})
}

// writeExtractionError maps the caption error taxonomy onto HTTP statuses.
func (s *Server) writeExtractionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, extractor.ErrInvalidReference):
		s.writeError(w, http.StatusBadRequest, "invalid_video_reference",
			"video_url is not a recognizable YouTube video reference", "")
	case errors.Is(err, extractor.ErrNoCaptions),
		errors.Is(err, extractor.ErrEmptyCaptions),
		errors.Is(err, extractor.ErrMalformedCaptions):
		s.writeError(w, http.StatusNotFound, "captions_not_found",
			"no usable captions for the requested video and language", truncateDetail(err.Error()))
	case errors.Is(err, extractor.ErrTransientUpstream):
		s.writeError(w, http.StatusServiceUnavailable, "upstream_rate_limited",
			fmt.Sprintf("upstream rate limit detected, retry in %d seconds", s.opts.SleepSeconds), "")
	default:
		s.writeError(w, http.StatusInternalServerError, "extraction_failed",
			"subtitle extraction failed", truncateDetail(err.Error()))
	}
}

func truncateDetail(detail string) string {
	const limit = 200
	if len(detail) <= limit {
		return detail
	}
	return detail[:limit]
}

// encodeResult renders the canonical response body for a payload. The same
// bytes are served and cached.
func encodeResult(result *extractor.Result, lang string) ([]byte, error) {
	switch payload := result.Payload.(type) {
	case extractor.EntriesPayload:
		return json.Marshal(subtitleResponse{
			VideoID:       result.VideoID,
			Language:      lang,
			SubtitleCount: len(payload.Entries),
			Subtitles:     payload.Entries,
			Metadata:      result.Metadata,
		})
	case extractor.DocumentPayload:
		return json.Marshal(vttDocument{VideoID: result.VideoID, Document: payload.Document})
	case extractor.TextPayload:
		return json.Marshal(subtitleTextResponse{
			VideoID:  result.VideoID,
			Language: lang,
			Text:     payload.Text,
			Metadata: result.Metadata,
		})
	default:
		return nil, fmt.Errorf("unsupported payload type %T", result.Payload)
	}
}
