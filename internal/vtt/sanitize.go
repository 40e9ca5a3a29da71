package vtt

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strict strips every remaining tag after the angle-bracket pass. Running
// both stages keeps crafted markup out of downstream consumers even when it
// survives the coarse span removal.
var strict = bluemonday.StrictPolicy()

// cleanCueLine removes inline angle-bracket spans (embedded sub-timestamps,
// voice tags) and then sanitizes the remainder.
func cleanCueLine(line string) string {
	line = tagSpans.ReplaceAllString(line, "")
	line = strict.Sanitize(line)
	line = strings.TrimSpace(line)
	if line == "NOTE" || line == "STYLE" {
		return ""
	}
	return line
}

// SanitizeDocument cleans a whole caption document for raw delivery: inline
// tag spans are removed and the remainder passes through the strict policy.
func SanitizeDocument(raw string) string {
	cleaned := tagSpans.ReplaceAllString(raw, "")
	return strict.Sanitize(cleaned)
}

// CombineText joins entry texts into one whitespace-normalized string.
func CombineText(entries []Entry) string {
	parts := make([]string, 0, len(entries))
	for _, entry := range entries {
		parts = append(parts, entry.Text)
	}
	return normalizeText(strings.Join(parts, " "))
}
