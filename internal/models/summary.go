package models

import "time"

// Summary is a persisted video summary. Records are immutable once stored.
type Summary struct {
	ID           int64     `json:"id"`
	YouTubeURL   string    `json:"youtube_url"`
	Title        string    `json:"title"`
	ChannelTitle string    `json:"channel_title"`
	ThumbnailURL string    `json:"thumbnail_url"`
	Summary      string    `json:"summary"`
	Timestamp    time.Time `json:"timestamp"`
}

// NewSummary holds the caller-supplied fields of a summary; the store assigns ID and Timestamp.
type NewSummary struct {
	YouTubeURL   string
	Title        string
	ChannelTitle string
	ThumbnailURL string
	Summary      string
}

type VideoInfo struct {
	Title        string `json:"title"`
	ChannelTitle string `json:"channel_title"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// TranscriptSegment is one timed caption line. Start and Duration are in seconds.
type TranscriptSegment struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}
