package transcript

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"video-summarizer/internal/models"
	"video-summarizer/shared/logger"
)

// Provider fetches the ordered caption segments of a video over the given HTTP client.
type Provider interface {
	Segments(ctx context.Context, httpClient *http.Client, videoID string) ([]models.TranscriptSegment, error)
}

type Options struct {
	// Proxy is used for the first attempt. Nil skips straight to Direct.
	Proxy *http.Client
	// Direct is used when no proxy is configured and as the one fallback when the
	// proxied attempt fails.
	Direct *http.Client
	Logger logger.Logger
	// OnFallback is called with the proxy error before the direct retry.
	OnFallback func(err error)
}

// Client fetches transcripts, preferring the proxy when one is configured.
type Client struct {
	provider   Provider
	proxy      *http.Client
	direct     *http.Client
	log        logger.Logger
	onFallback func(error)
}

func NewClient(provider Provider, opts Options) *Client {
	direct := opts.Direct
	if direct == nil {
		direct = http.DefaultClient
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}
	return &Client{
		provider:   provider,
		proxy:      opts.Proxy,
		direct:     direct,
		log:        log,
		onFallback: opts.OnFallback,
	}
}

// Fetch returns the transcript as plain text, segment texts joined by single spaces.
// Failures are always *Error.
func (c *Client) Fetch(ctx context.Context, videoID string) (string, error) {
	segments, err := c.fetchSegments(ctx, videoID)
	if err != nil {
		return "", err
	}
	return Join(segments), nil
}

func (c *Client) fetchSegments(ctx context.Context, videoID string) ([]models.TranscriptSegment, error) {
	if c.proxy != nil {
		segments, err := c.attempt(ctx, c.proxy, videoID)
		if err == nil {
			return segments, nil
		}

		c.log.Warn("Proxy transcript fetch failed, retrying with direct connection",
			logger.String("video_id", videoID),
			logger.String("kind", KindOf(err).String()),
			logger.Error(err),
		)
		if c.onFallback != nil {
			c.onFallback(err)
		}
	}

	return c.attempt(ctx, c.direct, videoID)
}

func (c *Client) attempt(ctx context.Context, httpClient *http.Client, videoID string) ([]models.TranscriptSegment, error) {
	segments, err := c.provider.Segments(ctx, httpClient, videoID)
	if err != nil {
		var te *Error
		if errors.As(err, &te) {
			if te.VideoID == "" {
				te.VideoID = videoID
			}
			return nil, te
		}
		return nil, newError(KindGeneric, videoID, err)
	}
	if len(segments) == 0 {
		return nil, newError(KindNoTranscript, videoID, errors.New("transcript has no segments"))
	}
	return segments, nil
}

// Join concatenates segment texts with single spaces.
func Join(segments []models.TranscriptSegment) string {
	texts := make([]string, len(segments))
	for i, s := range segments {
		texts[i] = s.Text
	}
	return strings.Join(texts, " ")
}
