package transcript

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"video-summarizer/internal/models"
)

const (
	DefaultBaseURL = "https://www.youtube.com"

	userAgent            = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	maxWatchPage         = 4 << 20
	maxTimedText         = 2 << 20
	playerResponseMarker = "ytInitialPlayerResponse = "
)

var tagRE = regexp.MustCompile(`<[^>]*>`)

// WatchPageProvider reads caption tracks from the public watch page and
// downloads the chosen track as timedtext XML.
type WatchPageProvider struct {
	// BaseURL defaults to DefaultBaseURL.
	BaseURL string
	// Languages in order of preference. Defaults to English.
	Languages []string
}

type playerResponse struct {
	Captions *struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
	PlayabilityStatus *struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"`
}

type timedText struct {
	Lines []struct {
		Start    float64 `xml:"start,attr"`
		Duration float64 `xml:"dur,attr"`
		Text     string  `xml:",chardata"`
	} `xml:"text"`
}

func (p *WatchPageProvider) Segments(ctx context.Context, httpClient *http.Client, videoID string) ([]models.TranscriptSegment, error) {
	base := p.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}

	page, err := get(ctx, httpClient, base+"/watch?v="+url.QueryEscape(videoID)+"&hl=en", maxWatchPage)
	if err != nil {
		return nil, classify(videoID, fmt.Errorf("watch page: %w", err))
	}
	if isBotCheck(page) {
		return nil, newError(KindBlocked, videoID, errors.New("watch page returned a bot check"))
	}

	player, err := parsePlayerResponse(page)
	if err != nil {
		return nil, newError(KindGeneric, videoID, err)
	}
	if status := player.PlayabilityStatus; status != nil && status.Status == "LOGIN_REQUIRED" {
		// Age and membership gates also report LOGIN_REQUIRED; only the bot check means blocked.
		kind := KindGeneric
		if isBotCheckReason(status.Reason) {
			kind = KindBlocked
		}
		return nil, newError(kind, videoID, fmt.Errorf("playability: %s", status.Reason))
	}
	if player.Captions == nil || len(player.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks) == 0 {
		return nil, newError(KindNoTranscript, videoID, errors.New("no caption tracks"))
	}

	track, ok := pickTrack(player.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks, p.languages())
	if !ok {
		return nil, newError(KindNoTranscript, videoID, errors.New("all caption tracks require a PoToken"))
	}
	trackURL, err := resolve(base, track.BaseURL)
	if err != nil {
		return nil, newError(KindGeneric, videoID, err)
	}

	body, err := get(ctx, httpClient, trackURL, maxTimedText)
	if err != nil {
		return nil, classify(videoID, fmt.Errorf("timedtext: %w", err))
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, newError(KindNoTranscript, videoID, errors.New("timedtext response is empty"))
	}

	segments, err := parseTimedText(body)
	if err != nil {
		return nil, newError(KindGeneric, videoID, err)
	}
	if len(segments) == 0 {
		return nil, newError(KindNoTranscript, videoID, errors.New("caption track is empty"))
	}
	return segments, nil
}

func (p *WatchPageProvider) languages() []string {
	if len(p.Languages) == 0 {
		return []string{"en"}
	}
	return p.Languages
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.code)
}

func get(ctx context.Context, httpClient *http.Client, rawURL string, limit int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &statusError{code: resp.StatusCode}
	}
	return io.ReadAll(io.LimitReader(resp.Body, limit))
}

// classify maps transport failures to a Kind. Rate limiting counts as blocked.
func classify(videoID string, err error) *Error {
	var se *statusError
	if errors.As(err, &se) && (se.code == http.StatusTooManyRequests || se.code == http.StatusForbidden) {
		return newError(KindBlocked, videoID, err)
	}
	return newError(KindGeneric, videoID, err)
}

func isBotCheck(page []byte) bool {
	return bytes.Contains(page, []byte("g-recaptcha")) ||
		bytes.Contains(page, []byte("confirm you’re not a bot")) ||
		bytes.Contains(page, []byte("confirm you're not a bot"))
}

func isBotCheckReason(reason string) bool {
	r := strings.ToLower(strings.ReplaceAll(reason, "’", "'"))
	return strings.Contains(r, "not a bot")
}

// parsePlayerResponse decodes the JSON object assigned to ytInitialPlayerResponse.
// The decoder stops at the end of the first value, so trailing script is ignored.
func parsePlayerResponse(page []byte) (*playerResponse, error) {
	idx := bytes.Index(page, []byte(playerResponseMarker))
	if idx < 0 {
		return nil, errors.New("player response not found in watch page")
	}

	var player playerResponse
	dec := json.NewDecoder(bytes.NewReader(page[idx+len(playerResponseMarker):]))
	if err := dec.Decode(&player); err != nil {
		return nil, fmt.Errorf("decode player response: %w", err)
	}
	return &player, nil
}

// needsPoToken reports whether a track URL only works with a browser PoToken.
// YouTube answers server-side fetches of these with an empty body.
func needsPoToken(baseURL string) bool {
	return strings.Contains(baseURL, "&exp=xpe")
}

// pickTrack ranks the fetchable tracks: a manual track in a preferred language,
// then an auto-generated one, then any English track, then the first.
// It reports false when every track needs a PoToken.
func pickTrack(tracks []captionTrack, langs []string) (captionTrack, bool) {
	usable := make([]captionTrack, 0, len(tracks))
	for _, t := range tracks {
		if !needsPoToken(t.BaseURL) {
			usable = append(usable, t)
		}
	}
	if len(usable) == 0 {
		return captionTrack{}, false
	}

	for _, lang := range langs {
		for _, t := range usable {
			if t.LanguageCode == lang && t.Kind != "asr" {
				return t, true
			}
		}
	}
	for _, lang := range langs {
		for _, t := range usable {
			if t.LanguageCode == lang {
				return t, true
			}
		}
	}
	for _, t := range usable {
		if strings.HasPrefix(t.LanguageCode, "en") {
			return t, true
		}
	}
	return usable[0], true
}

func resolve(base, ref string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	r, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parse track url: %w", err)
	}
	return b.ResolveReference(r).String(), nil
}

func parseTimedText(body []byte) ([]models.TranscriptSegment, error) {
	var tt timedText
	if err := xml.Unmarshal(body, &tt); err != nil {
		return nil, fmt.Errorf("parse timedtext XML: %w", err)
	}

	segments := make([]models.TranscriptSegment, 0, len(tt.Lines))
	for _, line := range tt.Lines {
		text := strings.TrimSpace(tagRE.ReplaceAllString(html.UnescapeString(line.Text), ""))
		if text == "" {
			continue
		}
		segments = append(segments, models.TranscriptSegment{
			Text:     strings.Join(strings.Fields(text), " "),
			Start:    line.Start,
			Duration: line.Duration,
		})
	}
	return segments, nil
}
