package language

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Descriptor identifies one available caption track.
type Descriptor struct {
	Code          string   `json:"code"`
	Name          string   `json:"name"`
	AutoGenerated bool     `json:"auto_generated"`
	Formats       []string `json:"formats"`
}

var englishNames = display.English.Languages()

// DisplayName returns a human-readable English name for a language code.
// Returns "Unknown" for empty input and the uppercased code for input the
// tag parser cannot interpret.
func DisplayName(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return "Unknown"
	}
	tag, err := language.Parse(code)
	if err != nil {
		return strings.ToUpper(code)
	}
	if name := englishNames.Name(tag); name != "" {
		return name
	}
	return strings.ToUpper(code)
}

// NormalizeCode lowercases the primary subtag while leaving any region
// suffix untouched, so "EN" becomes "en" and "en-US" stays "en-US".
func NormalizeCode(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	parts := strings.SplitN(code, "-", 2)
	parts[0] = strings.ToLower(parts[0])
	return strings.Join(parts, "-")
}
