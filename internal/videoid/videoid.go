// Package videoid resolves user-supplied video references to canonical ids.
//
// Validation and extraction are separate concerns: a URL is only considered
// at all once its scheme and exact authority pass the allow-list check, so a
// trusted host embedded elsewhere in a hostile URL never validates. Only then
// is the id segment located in the recognized path shapes.
package videoid

import (
	"net/url"
	"regexp"
	"strings"
)

// idPattern matches a bare canonical video identifier.
var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// allowedHosts is the exact authority allow-list: canonical domain, bare
// domain, mobile subdomain, and the short-link domain. Comparison is
// case-sensitive exact equality.
var allowedHosts = map[string]struct{}{
	"www.youtube.com": {},
	"youtube.com":     {},
	"m.youtube.com":   {},
	"youtu.be":        {},
}

// Resolve canonicalizes a raw id or supported URL shape into an 11-character
// video id. The second return is false when the reference is not resolvable;
// callers decide the consequence.
func Resolve(input string) (string, bool) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", false
	}
	if idPattern.MatchString(input) {
		return input, true
	}

	parsed, err := url.Parse(input)
	if err != nil {
		return "", false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", false
	}
	if _, ok := allowedHosts[parsed.Host]; !ok {
		return "", false
	}

	if parsed.Host == "youtu.be" {
		return matchID(firstPathSegment(parsed.Path))
	}

	switch {
	case parsed.Path == "/watch":
		return matchID(parsed.Query().Get("v"))
	case strings.HasPrefix(parsed.Path, "/embed/"):
		return matchID(firstPathSegment(strings.TrimPrefix(parsed.Path, "/embed/")))
	case strings.HasPrefix(parsed.Path, "/shorts/"):
		return matchID(firstPathSegment(strings.TrimPrefix(parsed.Path, "/shorts/")))
	}
	return "", false
}

// Valid reports whether the input resolves to a video id.
func Valid(input string) bool {
	_, ok := Resolve(input)
	return ok
}

func firstPathSegment(path string) string {
	path = strings.TrimPrefix(path, "/")
	if idx := strings.IndexByte(path, '/'); idx >= 0 {
		path = path[:idx]
	}
	return path
}

func matchID(candidate string) (string, bool) {
	if idPattern.MatchString(candidate) {
		return candidate, true
	}
	return "", false
}
