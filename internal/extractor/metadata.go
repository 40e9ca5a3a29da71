package extractor

import "fmt"

// maxDescriptionLength bounds the description served to clients. Longer
// descriptions are cut and marked with an ellipsis.
const maxDescriptionLength = 5000

// Metadata is the video metadata record served alongside extracted captions.
type Metadata struct {
	VideoID           string   `json:"video_id"`
	Title             string   `json:"title"`
	Description       string   `json:"description,omitempty"`
	Duration          int64    `json:"duration,omitempty"`
	DurationFormatted string   `json:"duration_formatted,omitempty"`
	Thumbnail         string   `json:"thumbnail,omitempty"`
	Channel           string   `json:"channel,omitempty"`
	ChannelID         string   `json:"channel_id,omitempty"`
	UploadDate        string   `json:"upload_date,omitempty"`
	ViewCount         int64    `json:"view_count,omitempty"`
	LikeCount         int64    `json:"like_count,omitempty"`
	Tags              []string `json:"tags,omitempty"`
	Categories        []string `json:"categories,omitempty"`
	WebpageURL        string   `json:"webpage_url,omitempty"`
	Extractor         string   `json:"extractor,omitempty"`
}

// FromMediaInfo shapes a raw downloader record for serving. The uploader name
// wins over the channel name when both are present.
func FromMediaInfo(info *MediaInfo) Metadata {
	if info == nil {
		return Metadata{}
	}
	channel := info.Uploader
	if channel == "" {
		channel = info.Channel
	}
	return Metadata{
		VideoID:           info.ID,
		Title:             info.Title,
		Description:       truncateDescription(info.Description),
		Duration:          info.Duration,
		DurationFormatted: FormatDuration(info.Duration),
		Thumbnail:         info.Thumbnail,
		Channel:           channel,
		ChannelID:         info.ChannelID,
		UploadDate:        info.UploadDate,
		ViewCount:         info.ViewCount,
		LikeCount:         info.LikeCount,
		Tags:              info.Tags,
		Categories:        info.Categories,
		WebpageURL:        info.WebpageURL,
		Extractor:         info.Extractor,
	}
}

// FormatDuration renders seconds as HH:MM:SS, or MM:SS under an hour.
// Non-positive durations render as empty.
func FormatDuration(seconds int64) string {
	if seconds <= 0 {
		return ""
	}
	hours := seconds / 3600
	minutes := seconds % 3600 / 60
	secs := seconds % 60
	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%02d:%02d", minutes, secs)
}

func truncateDescription(description string) string {
	if len(description) <= maxDescriptionLength {
		return description
	}
	return description[:maxDescriptionLength] + "..."
}
