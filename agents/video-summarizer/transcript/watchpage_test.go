package transcript

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

const watchPageTemplate = `<!DOCTYPE html><html><head><script>var ytInitialPlayerResponse = %s;var meta = {"a": "}"};</script></head><body></body></html>`

const timedTextXML = `<?xml version="1.0" encoding="utf-8" ?><transcript>
<text start="0.0" dur="1.5">Hello &amp;amp; welcome</text>
<text start="1.5" dur="2.0">it&amp;#39;s a
&lt;font color=&quot;#E5E5E5&quot;&gt;test&lt;/font&gt;</text>
<text start="3.5" dur="1.0">   </text>
<text start="4.5" dur="1.0">bye</text>
</transcript>`

func newWatchServer(t *testing.T, player string, timedText string, timedStatus int) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("v") != "dQw4w9WgXcQ" {
			t.Errorf("unexpected video id %q", r.URL.Query().Get("v"))
		}
		fmt.Fprintf(w, watchPageTemplate, player)
	})
	mux.HandleFunc("/api/timedtext", func(w http.ResponseWriter, r *http.Request) {
		if timedStatus != http.StatusOK {
			w.WriteHeader(timedStatus)
			return
		}
		if got := r.URL.Query().Get("lang"); got != "en" {
			t.Errorf("lang = %q, want the manual English track", got)
		}
		w.Write([]byte(timedText))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

const playerWithTracks = `{
	"playabilityStatus": {"status": "OK"},
	"captions": {"playerCaptionsTracklistRenderer": {"captionTracks": [
		{"baseUrl": "/api/timedtext?v=dQw4w9WgXcQ&lang=de", "languageCode": "de"},
		{"baseUrl": "/api/timedtext?v=dQw4w9WgXcQ&lang=en-asr", "languageCode": "en", "kind": "asr"},
		{"baseUrl": "/api/timedtext?v=dQw4w9WgXcQ&lang=en", "languageCode": "en"}
	]}}
}`

func TestWatchPageProviderSegments(t *testing.T) {
	srv := newWatchServer(t, playerWithTracks, timedTextXML, http.StatusOK)
	p := &WatchPageProvider{BaseURL: srv.URL}

	got, err := p.Segments(context.Background(), srv.Client(), "dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("Segments() error = %v", err)
	}

	want := []string{"Hello & welcome", "it's a test", "bye"}
	if len(got) != len(want) {
		t.Fatalf("got %d segments, want %d: %+v", len(got), len(want), got)
	}
	for i, w := range want {
		if got[i].Text != w {
			t.Errorf("segment %d = %q, want %q", i, got[i].Text, w)
		}
	}
	if got[1].Start != 1.5 || got[1].Duration != 2.0 {
		t.Errorf("segment 1 timing = %v/%v", got[1].Start, got[1].Duration)
	}
}

func TestWatchPageProviderErrors(t *testing.T) {
	tests := []struct {
		name        string
		player      string
		timedText   string
		timedStatus int
		want        Kind
	}{
		{
			name:        "NoCaptions",
			player:      `{"playabilityStatus": {"status": "OK"}}`,
			timedStatus: http.StatusOK,
			want:        KindNoTranscript,
		},
		{
			name:        "EmptyTrackList",
			player:      `{"captions": {"playerCaptionsTracklistRenderer": {"captionTracks": []}}}`,
			timedStatus: http.StatusOK,
			want:        KindNoTranscript,
		},
		{
			name:        "EmptyTrack",
			player:      playerWithTracks,
			timedText:   `<transcript></transcript>`,
			timedStatus: http.StatusOK,
			want:        KindNoTranscript,
		},
		{
			name:        "RateLimited",
			player:      playerWithTracks,
			timedStatus: http.StatusTooManyRequests,
			want:        KindBlocked,
		},
		{
			name:        "LoginRequired",
			player:      `{"playabilityStatus": {"status": "LOGIN_REQUIRED", "reason": "Sign in to confirm you're not a bot"}}`,
			timedStatus: http.StatusOK,
			want:        KindBlocked,
		},
		{
			name:        "AgeRestricted",
			player:      `{"playabilityStatus": {"status": "LOGIN_REQUIRED", "reason": "Sign in to confirm your age"}}`,
			timedStatus: http.StatusOK,
			want:        KindGeneric,
		},
		{
			name:        "EmptyTimedTextBody",
			player:      playerWithTracks,
			timedText:   "",
			timedStatus: http.StatusOK,
			want:        KindNoTranscript,
		},
		{
			name: "OnlyPoTokenTracks",
			player: `{"captions": {"playerCaptionsTracklistRenderer": {"captionTracks": [
				{"baseUrl": "/api/timedtext?v=dQw4w9WgXcQ&lang=en&exp=xpe", "languageCode": "en"}
			]}}}`,
			timedStatus: http.StatusOK,
			want:        KindNoTranscript,
		},
		{
			name:        "ServerError",
			player:      playerWithTracks,
			timedStatus: http.StatusInternalServerError,
			want:        KindGeneric,
		},
		{
			name:        "BadXML",
			player:      playerWithTracks,
			timedText:   `<transcript><text>unterminated`,
			timedStatus: http.StatusOK,
			want:        KindGeneric,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newWatchServer(t, tt.player, tt.timedText, tt.timedStatus)
			p := &WatchPageProvider{BaseURL: srv.URL}

			_, err := p.Segments(context.Background(), srv.Client(), "dQw4w9WgXcQ")
			if err == nil {
				t.Fatal("expected error")
			}
			if got := KindOf(err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v (err: %v)", got, tt.want, err)
			}
		})
	}
}

func TestWatchPageSkipsPoTokenTracks(t *testing.T) {
	const player = `{"captions": {"playerCaptionsTracklistRenderer": {"captionTracks": [
		{"baseUrl": "/api/timedtext?v=dQw4w9WgXcQ&lang=en&exp=xpe", "languageCode": "en"},
		{"baseUrl": "/api/timedtext?v=dQw4w9WgXcQ&lang=en&kind=asr", "languageCode": "en", "kind": "asr"}
	]}}}`

	mux := http.NewServeMux()
	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, watchPageTemplate, player)
	})
	mux.HandleFunc("/api/timedtext", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("exp") == "xpe" {
			t.Error("fetched a track that requires a PoToken")
			return // empty 200, as YouTube does
		}
		w.Write([]byte(timedTextXML))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	p := &WatchPageProvider{BaseURL: srv.URL}
	got, err := p.Segments(context.Background(), srv.Client(), "dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("Segments() error = %v", err)
	}
	if len(got) != 3 || got[0].Text != "Hello & welcome" {
		t.Errorf("Segments() = %+v, want the auto-generated track", got)
	}
}

func TestWatchPageBotCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><form id="captcha-form"><div class="g-recaptcha"></div></form></html>`))
	}))
	defer srv.Close()

	p := &WatchPageProvider{BaseURL: srv.URL}
	_, err := p.Segments(context.Background(), srv.Client(), "dQw4w9WgXcQ")
	if KindOf(err) != KindBlocked {
		t.Errorf("KindOf() = %v, want %v", KindOf(err), KindBlocked)
	}
}

func TestWatchPageMissingPlayerResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>nothing here</body></html>`))
	}))
	defer srv.Close()

	p := &WatchPageProvider{BaseURL: srv.URL}
	_, err := p.Segments(context.Background(), srv.Client(), "dQw4w9WgXcQ")
	if KindOf(err) != KindGeneric {
		t.Errorf("KindOf() = %v, want %v", KindOf(err), KindGeneric)
	}
}

func TestPickTrack(t *testing.T) {
	tracks := []captionTrack{
		{BaseURL: "fr", LanguageCode: "fr"},
		{BaseURL: "en-gb", LanguageCode: "en-GB"},
		{BaseURL: "es-asr", LanguageCode: "es", Kind: "asr"},
	}

	tests := []struct {
		name  string
		langs []string
		want  string
	}{
		{"PreferredAutoGenerated", []string{"es"}, "es-asr"},
		{"EnglishVariant", []string{"de"}, "en-gb"},
		{"PreferredManual", []string{"fr"}, "fr"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := pickTrack(tracks, tt.langs)
			if !ok || got.BaseURL != tt.want {
				t.Errorf("pickTrack() = %s, %v, want %s", got.BaseURL, ok, tt.want)
			}
		})
	}

	if got, _ := pickTrack([]captionTrack{{BaseURL: "ja", LanguageCode: "ja"}}, []string{"en"}); got.BaseURL != "ja" {
		t.Errorf("pickTrack() fallback = %s, want first track", got.BaseURL)
	}

	poToken := []captionTrack{
		{BaseURL: "/t?lang=en&exp=xpe", LanguageCode: "en"},
		{BaseURL: "/t?lang=en&kind=asr", LanguageCode: "en", Kind: "asr"},
	}
	if got, ok := pickTrack(poToken, []string{"en"}); !ok || got.Kind != "asr" {
		t.Errorf("pickTrack() = %+v, %v, want the fetchable asr track", got, ok)
	}
	if _, ok := pickTrack(poToken[:1], []string{"en"}); ok {
		t.Error("pickTrack() should report no usable track when all need a PoToken")
	}
}
