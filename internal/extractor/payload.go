package extractor

import (
	"fmt"
	"strings"

	"subserve/internal/vtt"
)

// Format selects the caption rendering the caller receives.
type Format string

const (
	FormatJSON Format = "json"
	FormatVTT  Format = "vtt"
	FormatText Format = "text"
)

// ParseFormat validates a requested format string. Empty input defaults to
// json.
func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatVTT:
		return FormatVTT, nil
	case FormatText:
		return FormatText, nil
	}
	return "", fmt.Errorf("unsupported caption format %q", raw)
}

// Payload is the closed set of caption renderings. Exactly one concrete type
// exists per Format; consumers dispatch with a type switch and the unexported
// method keeps the set closed.
type Payload interface {
	Format() Format
	payload()
}

// EntriesPayload carries parsed cues for the json rendering.
type EntriesPayload struct {
	Entries []vtt.Entry
}

func (EntriesPayload) Format() Format { return FormatJSON }
func (EntriesPayload) payload()       {}

// DocumentPayload carries the sanitized caption document for the vtt
// rendering.
type DocumentPayload struct {
	Document string
}

func (DocumentPayload) Format() Format { return FormatVTT }
func (DocumentPayload) payload()       {}

// TextPayload carries cue text flattened into one plain string.
type TextPayload struct {
	Text string
}

func (TextPayload) Format() Format { return FormatText }
func (TextPayload) payload()       {}
