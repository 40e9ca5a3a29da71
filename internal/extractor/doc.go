// Package extractor coordinates caption retrieval from the upstream video
// service.
//
// The Service owns the retry schedule, per-attempt working directories, the
// failure taxonomy, and the language directory cache. The actual download is
// behind the Capability interface so the yt-dlp wrapper stays swappable in
// tests.
//
// Every attempt runs inside its own temporary directory that is removed
// before the attempt returns, success or failure. Only failures classified as
// transient upstream conditions are retried; reference, caption, and parse
// failures surface immediately.
package extractor
