package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"video-summarizer/shared/config"
)

const (
	webshareHost = "p.webshare.io:80"

	DefaultIPEchoURL  = "https://api.ipify.org?format=json"
	DefaultYouTubeURL = "https://www.youtube.com"
)

var ErrNotConfigured = errors.New("proxy not configured")

// URL returns the proxy URL described by cfg, or nil when no proxy is configured.
// An explicit URL wins over Webshare rotating-residential credentials.
func URL(cfg *config.ProxyConfig) (*url.URL, error) {
	if cfg == nil {
		return nil, nil
	}

	if cfg.URL != "" {
		u, err := url.Parse(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL: %w", err)
		}
		switch u.Scheme {
		case "http", "https", "socks5", "socks5h":
		default:
			return nil, fmt.Errorf("unsupported proxy scheme %q", u.Scheme)
		}
		if u.Host == "" {
			return nil, fmt.Errorf("proxy URL %q has no host", u.Redacted())
		}
		return u, nil
	}

	if !cfg.Enabled() {
		return nil, nil
	}

	user := cfg.Username
	if !strings.HasSuffix(user, "-rotate") {
		user += "-rotate"
	}
	return &url.URL{
		Scheme: "http",
		User:   url.UserPassword(user, cfg.Password),
		Host:   webshareHost,
	}, nil
}

// NewHTTPClient builds a client routed through proxyURL, or a direct client when it is nil.
func NewHTTPClient(proxyURL *url.URL, timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if proxyURL != nil {
		transport.Proxy = http.ProxyURL(proxyURL)
	} else {
		transport.Proxy = nil
	}
	return &http.Client{Transport: transport, Timeout: timeout}
}

// Diagnosis is the outcome of one proxy check.
type Diagnosis struct {
	ProxyIP           string `json:"proxy_ip"`
	YouTubeAccessible bool   `json:"youtube_accessible"`
	Status            string `json:"status"`
}

// Tester checks that the proxy is reachable and that YouTube answers through it.
type Tester struct {
	client     *http.Client
	ipEchoURL  string
	youtubeURL string
}

// NewTester returns nil when cfg describes no proxy.
func NewTester(cfg *config.ProxyConfig, timeout time.Duration) (*Tester, error) {
	u, err := URL(cfg)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, nil
	}
	return newTester(NewHTTPClient(u, timeout), DefaultIPEchoURL, DefaultYouTubeURL), nil
}

func newTester(client *http.Client, ipEchoURL, youtubeURL string) *Tester {
	return &Tester{client: client, ipEchoURL: ipEchoURL, youtubeURL: youtubeURL}
}

// Check reports the proxy's egress IP and whether YouTube responds through it.
// A nil Tester returns ErrNotConfigured.
func (t *Tester) Check(ctx context.Context) (*Diagnosis, error) {
	if t == nil {
		return nil, ErrNotConfigured
	}

	ip, err := t.egressIP(ctx)
	if err != nil {
		return nil, fmt.Errorf("egress ip lookup: %w", err)
	}

	accessible, err := t.reachable(ctx)
	if err != nil {
		return nil, fmt.Errorf("youtube reachability: %w", err)
	}

	return &Diagnosis{ProxyIP: ip, YouTubeAccessible: accessible, Status: "success"}, nil
}

func (t *Tester) egressIP(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.ipEchoURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body struct {
		IP string `json:"ip"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return body.IP, nil
}

func (t *Tester) reachable(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.youtubeURL, nil)
	if err != nil {
		return false, err
	}

	// Redirects count as reachable; do not follow them.
	client := *t.client
	client.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	resp, err := client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	return resp.StatusCode >= 200 && resp.StatusCode < 400, nil
}

// GetSummary describes the diagnosis in one line.
func (d *Diagnosis) GetSummary() string {
	return fmt.Sprintf("egress %s, youtube accessible: %t", d.ProxyIP, d.YouTubeAccessible)
}
