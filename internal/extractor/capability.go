package extractor

import "context"

// Options tune the upstream downloader per request. The defaults lean
// conservative because the upstream aggressively rate-limits caption
// endpoints.
type Options struct {
	// ImpersonateTarget is the browser whose TLS fingerprint the downloader
	// presents, e.g. "chrome".
	ImpersonateTarget string
	// SleepSeconds is the pause the downloader inserts before caption
	// requests.
	SleepSeconds int
	// PlayerClient selects the upstream player client list, e.g.
	// "default,-web" to skip the token-gated web client.
	PlayerClient string
	// SocketTimeout bounds individual network operations, in seconds.
	SocketTimeout int
}

// MediaInfo is the raw metadata record the downloader emits alongside caption
// files. Field names mirror the downloader's JSON output.
type MediaInfo struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Duration    int64    `json:"duration"`
	Thumbnail   string   `json:"thumbnail"`
	Channel     string   `json:"channel"`
	ChannelID   string   `json:"channel_id"`
	Uploader    string   `json:"uploader"`
	UploadDate  string   `json:"upload_date"`
	ViewCount   int64    `json:"view_count"`
	LikeCount   int64    `json:"like_count"`
	Tags        []string `json:"tags"`
	Categories  []string `json:"categories"`
	WebpageURL  string   `json:"webpage_url"`
	Extractor   string   `json:"extractor"`
}

// Track is one downloadable caption rendition for a language.
type Track struct {
	Ext string `json:"ext"`
}

// TrackListing separates authored caption tracks from speech-recognition
// output, keyed by language code.
type TrackListing struct {
	Manual    map[string][]Track
	Automatic map[string][]Track
}

// Capability is the upstream surface the Service drives. The production
// implementation shells out to yt-dlp; tests substitute fakes.
type Capability interface {
	// DownloadCaptions fetches caption files for one language into workDir
	// and returns the video's metadata record.
	DownloadCaptions(ctx context.Context, videoURL, lang, workDir string, opts Options) (*MediaInfo, error)
	// ListTracks enumerates available caption tracks without downloading.
	ListTracks(ctx context.Context, videoURL string) (*TrackListing, error)
}
