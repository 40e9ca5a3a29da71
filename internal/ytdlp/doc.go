// Package ytdlp wraps the yt-dlp command-line downloader behind the
// extractor's capability surface.
//
// Download attempts write caption files and the metadata record into a
// caller-owned working directory; this package never manages directory
// lifecycle. Upstream failure text is preserved in returned errors so the
// extractor can classify transient conditions.
package ytdlp
