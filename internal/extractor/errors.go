package extractor

import (
	"errors"
	"fmt"
	"strings"
)

// Extraction failure taxonomy. Callers map these onto their own surfaces
// (HTTP status codes, exit codes) with errors.Is.
var (
	// ErrInvalidReference marks input that does not resolve to a video id.
	ErrInvalidReference = errors.New("video reference is not resolvable")
	// ErrNoCaptions marks a video with no caption track for the requested
	// language.
	ErrNoCaptions = errors.New("no captions available")
	// ErrEmptyCaptions marks a caption file with no content.
	ErrEmptyCaptions = errors.New("caption content is empty")
	// ErrMalformedCaptions marks caption content that yields no cues.
	ErrMalformedCaptions = errors.New("caption content could not be parsed")
	// ErrTransientUpstream marks an upstream failure worth retrying.
	ErrTransientUpstream = errors.New("transient upstream failure")
	// ErrPermanentUpstream marks an upstream failure retries cannot fix.
	ErrPermanentUpstream = errors.New("permanent upstream failure")
)

// transientMarkers are matched case-insensitively against upstream error
// text. Status codes first, then network failure phrasings.
var transientMarkers = []string{
	"429", "502", "503", "504",
	"too many requests",
	"rate limit",
	"timeout",
	"connection refused",
	"connection reset",
	"connection error",
	"network error",
	"temporary",
	"service unavailable",
	"bad gateway",
	"gateway timeout",
}

// IsTransientMessage reports whether an upstream error message describes a
// condition worth retrying.
func IsTransientMessage(msg string) bool {
	msg = strings.ToLower(msg)
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// classifyUpstream folds a raw downloader error into the taxonomy. Errors
// already carrying a taxonomy sentinel pass through unchanged.
func classifyUpstream(err error) error {
	if err == nil {
		return nil
	}
	for _, sentinel := range []error{
		ErrInvalidReference, ErrNoCaptions, ErrEmptyCaptions,
		ErrMalformedCaptions, ErrTransientUpstream, ErrPermanentUpstream,
	} {
		if errors.Is(err, sentinel) {
			return err
		}
	}
	if IsTransientMessage(err.Error()) {
		return fmt.Errorf("%w: %w", ErrTransientUpstream, err)
	}
	return fmt.Errorf("%w: %w", ErrPermanentUpstream, err)
}

// IsRetryable reports whether an extraction error may succeed on a retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransientUpstream)
}
