package youtube

import (
	"context"
	"errors"
	"fmt"

	"video-summarizer/internal/models"
	"video-summarizer/shared/config"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

var (
	// ErrVideoNotFound is returned when the Data API has no item for the requested ID.
	ErrVideoNotFound = errors.New("video not found")
	// ErrAPI wraps any failure talking to the Data API (network, quota, auth).
	ErrAPI = errors.New("youtube data api error")
)

// Client fetches video metadata from the YouTube Data API v3.
type Client struct {
	service *youtube.Service
}

// NewClient authenticates with the configured API key. Extra options are appended
// after the key, which lets tests point the service at a fake endpoint.
func NewClient(ctx context.Context, cfg *config.YouTubeConfig, opts ...option.ClientOption) (*Client, error) {
	clientOpts := append([]option.ClientOption{option.WithAPIKey(cfg.APIKey)}, opts...)

	service, err := youtube.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	return &Client{service: service}, nil
}

// GetVideoInfo issues one videos.list call with the snippet part. Every call is a
// fresh round trip.
func (c *Client) GetVideoInfo(ctx context.Context, videoID string) (*models.VideoInfo, error) {
	resp, err := c.service.Videos.List([]string{"snippet"}).
		Id(videoID).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("%w: videos.list %s: %w", ErrAPI, videoID, err)
	}

	if len(resp.Items) == 0 || resp.Items[0].Snippet == nil {
		return nil, fmt.Errorf("%w: %s", ErrVideoNotFound, videoID)
	}

	snippet := resp.Items[0].Snippet
	info := &models.VideoInfo{
		Title:        snippet.Title,
		ChannelTitle: snippet.ChannelTitle,
	}
	if snippet.Thumbnails != nil && snippet.Thumbnails.High != nil {
		info.ThumbnailURL = snippet.Thumbnails.High.Url
	}

	return info, nil
}
