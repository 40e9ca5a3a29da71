package vtt

import (
	"bufio"
	"errors"
	"regexp"
	"strings"
)

// streamThreshold selects the line-stream strategy for very large documents.
// Below it the whole document is split into a line slice up front. The two
// paths share one cue builder and always produce identical entries.
const streamThreshold = 1_000_000

var (
	// ErrEmptyInput reports an input that is empty or whitespace only.
	ErrEmptyInput = errors.New("caption input is empty")
	// ErrNoEntries reports a non-empty input from which no cues could be parsed.
	ErrNoEntries = errors.New("no parseable caption entries")
)

// Entry is a single timed caption cue. Timestamps are normalized to the long
// H+:MM:SS.fraction form; the hours field is variable width so arbitrarily
// long videos round-trip unchanged. Entries keep source order.
type Entry struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Text  string `json:"text"`
}

var (
	// Hours use \d+ to support videos longer than 99 hours; the fraction uses
	// \d+ to allow variable precision (.3, .30, .300).
	timestampLong  = regexp.MustCompile(`(\d+:\d{2}:\d{2}\.\d+)\s*-->\s*(\d+:\d{2}:\d{2}\.\d+)`)
	timestampShort = regexp.MustCompile(`(\d{2}:\d{2}\.\d+)\s*-->\s*(\d{2}:\d{2}\.\d+)`)

	tagSpans       = regexp.MustCompile(`<[^>]*>`)
	whitespaceRuns = regexp.MustCompile(`\s+`)
)

// Parse converts a WebVTT document into an ordered entry sequence.
// Empty or whitespace-only input fails with ErrEmptyInput before any cue
// counting; a document that yields zero cues fails with ErrNoEntries.
func Parse(content string) ([]Entry, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyInput
	}

	var entries []Entry
	if len(content) > streamThreshold {
		entries = parseStream(content)
	} else {
		entries = parseLines(strings.Split(content, "\n"))
	}

	if len(entries) == 0 {
		return nil, ErrNoEntries
	}
	return entries, nil
}

// parseLines feeds a materialized line slice through the cue builder.
func parseLines(lines []string) []Entry {
	var b cueBuilder
	for _, line := range lines {
		b.feed(line)
	}
	return b.finish()
}

// parseStream walks the document one line at a time without materializing a
// line slice. Output is identical to parseLines by construction.
func parseStream(content string) []Entry {
	var b cueBuilder
	scanner := bufio.NewScanner(strings.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		b.feed(scanner.Text())
	}
	return b.finish()
}

// cueBuilder is the per-line state machine shared by both parse strategies.
// It moves between awaiting-cue and collecting-text states; header noise
// (WEBVTT banner, NOTE/STYLE markers, blank lines) never opens a cue.
type cueBuilder struct {
	entries    []Entry
	start      string
	end        string
	collecting bool
	textLines  []string
}

func (b *cueBuilder) feed(raw string) {
	line := strings.TrimSpace(raw)

	if line == "" {
		b.flush()
		return
	}
	if strings.HasPrefix(line, "WEBVTT") || line == "NOTE" || line == "STYLE" {
		return
	}

	if start, end, ok := matchTimestamps(line); ok {
		b.flush()
		b.start = start
		b.end = end
		b.collecting = true
		return
	}

	if !b.collecting {
		// Awaiting a cue: identifiers and stray lines are skipped, not errors.
		return
	}

	cleaned := cleanCueLine(line)
	if cleaned != "" {
		b.textLines = append(b.textLines, cleaned)
	}
}

// flush completes the current cue, dropping it silently when sanitization
// left no text.
func (b *cueBuilder) flush() {
	if b.collecting && len(b.textLines) > 0 {
		text := normalizeText(strings.Join(b.textLines, " "))
		if text != "" {
			b.entries = append(b.entries, Entry{Start: b.start, End: b.end, Text: text})
		}
	}
	b.collecting = false
	b.textLines = b.textLines[:0]
}

func (b *cueBuilder) finish() []Entry {
	b.flush()
	return b.entries
}

// matchTimestamps recognizes the long H+:MM:SS.fraction form first, then the
// short MM:SS.fraction form, which is normalized by prefixing "00:".
func matchTimestamps(line string) (string, string, bool) {
	if m := timestampLong.FindStringSubmatch(line); m != nil {
		return m[1], m[2], true
	}
	if m := timestampShort.FindStringSubmatch(line); m != nil {
		return "00:" + m[1], "00:" + m[2], true
	}
	return "", "", false
}

func normalizeText(text string) string {
	return strings.TrimSpace(whitespaceRuns.ReplaceAllString(text, " "))
}
