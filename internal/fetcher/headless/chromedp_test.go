package headless

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/chromedp/cdproto/network"

	"github.com/JakeFAU/roster-crawler/internal/crawler"
)

func TestNewChromedpValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewChromedp(Config{MinDelay: 2 * time.Second, MaxDelay: time.Second}, nil); err == nil {
		t.Fatal("expected error for inverted delay range")
	}
	if _, err := NewChromedp(Config{RatePerSecond: -1}, nil); err == nil {
		t.Fatal("expected error for negative rate")
	}
	fetcher, err := NewChromedp(Config{RatePerSecond: 0.5}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fetcher.limiter == nil {
		t.Fatal("expected limiter to be configured")
	}
	if fetcher.cfg.UserAgent != DefaultUserAgent {
		t.Fatalf("expected default user agent, got %q", fetcher.cfg.UserAgent)
	}
	if fetcher.cfg.Headers.Get("Accept-Language") == "" {
		t.Fatal("expected default headers")
	}
	if fetcher.cfg.Width != 1920 || fetcher.cfg.Height != 1080 {
		t.Fatalf("expected default viewport, got %dx%d", fetcher.cfg.Width, fetcher.cfg.Height)
	}
}

func TestNavTimeoutDefault(t *testing.T) {
	t.Parallel()

	if got := navTimeout(crawler.PageProfile{}); got != 45*time.Second {
		t.Fatalf("expected default nav timeout, got %v", got)
	}
	if got := navTimeout(crawler.DefaultDetailProfile()); got != time.Minute {
		t.Fatalf("expected profile timeout, got %v", got)
	}
}

func TestAllocatorOptionsIncludeExecPath(t *testing.T) {
	t.Parallel()

	base, err := NewChromedp(DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	withPath, err := NewChromedp(Config{Headless: true, ExecPath: "/opt/chrome", MaxDelay: time.Second}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(withPath.allocatorOptions()) != len(base.allocatorOptions())+1 {
		t.Fatal("expected exec path to add an allocator option")
	}
}

func TestCloneHeaderAndNetworkHeaders(t *testing.T) {
	t.Parallel()

	src := http.Header{"X-Test": {"a", "b"}, "Accept": {"text/html"}}
	cloned := cloneHeader(src)
	cloned.Add("X-Test", "c")
	if len(src["X-Test"]) != 2 {
		t.Fatalf("source header mutated: %+v", src)
	}

	netHeaders := toNetworkHeaders(src)
	switch v := netHeaders["X-Test"].(type) {
	case []string:
		if len(v) != 2 {
			t.Fatalf("expected two entries, got %v", v)
		}
	default:
		t.Fatalf("expected []string, got %T", v)
	}
	if netHeaders["Accept"] != "text/html" {
		t.Fatalf("expected single value to be flattened, got %v", netHeaders["Accept"])
	}
}

func TestResponseMetaCapture(t *testing.T) {
	t.Parallel()

	meta := newResponseMeta()
	meta.captureEvent(&network.EventResponseReceived{
		Type:     network.ResourceTypeScript,
		Response: &network.Response{Status: 500, URL: "https://example.com/app.js"},
	})
	if status, _ := meta.snapshot(); status != 0 {
		t.Fatalf("expected non-document responses to be ignored, got %d", status)
	}

	meta.captureEvent(&network.EventResponseReceived{
		Type:     network.ResourceTypeDocument,
		Response: &network.Response{Status: 301, URL: "https://example.com/teams/boston"},
	})
	meta.captureEvent(&network.EventResponseReceived{
		Type:     network.ResourceTypeDocument,
		Response: &network.Response{Status: 403, URL: "https://example.com/teams/boston-celtics"},
	})
	status, url := meta.snapshot()
	if status != 403 || url != "https://example.com/teams/boston-celtics" {
		t.Fatalf("expected last document response to win: status=%d url=%s", status, url)
	}
	if err := crawler.CheckStatus(url, status); err == nil {
		t.Fatal("expected 403 to be rejected")
	}
}

func TestRedirected(t *testing.T) {
	t.Parallel()

	cases := []struct {
		requested, final string
		want             bool
	}{
		{"https://example.com/teams/boston", "https://example.com/teams/boston-celtics", true},
		{"https://example.com/teams/boston-celtics", "https://example.com/teams/boston-celtics", false},
		{"https://example.com/teams/boston-celtics", "", false},
	}
	for _, tc := range cases {
		if got := redirected(tc.requested, tc.final); got != tc.want {
			t.Fatalf("redirected(%q, %q) = %v, want %v", tc.requested, tc.final, got, tc.want)
		}
	}
}

func TestFetchHonorsCanceledContextBeforeLaunch(t *testing.T) {
	t.Parallel()

	fetcher, err := NewChromedp(Config{MinDelay: time.Hour, MaxDelay: time.Hour}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = fetcher.Fetch(ctx, "https://example.com", crawler.DefaultRosterProfile())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
}

func chromeAvailable() bool {
	for _, name := range []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "headless-shell"} {
		if _, err := exec.LookPath(name); err == nil {
			return true
		}
	}
	return false
}

func TestFetchRendersPage(t *testing.T) {
	if testing.Short() || !chromeAvailable() {
		t.Skip("chrome not available")
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body><table><tbody><tr class="entry-font"><td><a href="/p">P</a></td></tr></tbody></table></body></html>`)
	}))
	defer srv.Close()

	fetcher, err := NewChromedp(DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fetcher.sleep = func(context.Context, time.Duration) error { return nil }

	html, err := fetcher.Fetch(context.Background(), srv.URL+"/teams/x", crawler.DefaultRosterProfile())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if !strings.Contains(html, "entry-font") {
		t.Fatalf("expected rendered roster table, got %q", html)
	}

	_, err = fetcher.Fetch(context.Background(), srv.URL+"/missing", crawler.DefaultRosterProfile())
	var navErr *crawler.NavigationError
	if !errors.As(err, &navErr) || navErr.Status != http.StatusNotFound {
		t.Fatalf("expected 404 navigation error, got %v", err)
	}
}
