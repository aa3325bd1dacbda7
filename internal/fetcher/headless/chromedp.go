// Package headless fetches pages by driving a real Chrome through chromedp.
package headless

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/JakeFAU/roster-crawler/internal/crawler"
	"github.com/JakeFAU/roster-crawler/internal/policy/ratelimit"
)

// DefaultUserAgent is a current desktop Chrome user agent.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// DefaultHeaders are sent with every navigation.
var DefaultHeaders = http.Header{
	"Accept":                    {"text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8"},
	"Accept-Language":           {"en-US,en;q=0.9"},
	"Cache-Control":             {"no-cache"},
	"Upgrade-Insecure-Requests": {"1"},
}

// Config controls the browser identity and pacing.
type Config struct {
	// ExecPath overrides the Chrome binary; empty uses chromedp's lookup.
	ExecPath  string        `mapstructure:"exec_path"`
	Headless  bool          `mapstructure:"headless"`
	UserAgent string        `mapstructure:"user_agent"`
	Headers   http.Header   `mapstructure:"-"`
	Width     int64         `mapstructure:"viewport_width"`
	Height    int64         `mapstructure:"viewport_height"`
	MinDelay  time.Duration `mapstructure:"min_delay"`
	MaxDelay  time.Duration `mapstructure:"max_delay"`
	// RatePerSecond caps navigations across all sessions; zero disables it.
	RatePerSecond float64 `mapstructure:"rate_per_second"`
}

// DefaultConfig returns the identity used against the roster site.
func DefaultConfig() Config {
	return Config{
		Headless:  true,
		UserAgent: DefaultUserAgent,
		Headers:   cloneHeader(DefaultHeaders),
		Width:     1920,
		Height:    1080,
		MinDelay:  time.Second,
		MaxDelay:  4 * time.Second,
	}
}

// Fetcher implements crawler.Fetcher. Every call launches its own browser
// process and tears it down before returning, so concurrent calls never
// share cookies or tabs.
type Fetcher struct {
	cfg     Config
	limiter *ratelimit.Limiter
	logger  *zap.Logger
	sleep   func(context.Context, time.Duration) error
}

var _ crawler.Fetcher = (*Fetcher)(nil)

// NewChromedp creates a headless fetcher backed by chromedp.
func NewChromedp(cfg Config, logger *zap.Logger) (*Fetcher, error) {
	if cfg.MinDelay < 0 || cfg.MaxDelay < cfg.MinDelay {
		return nil, fmt.Errorf("invalid pre-navigation delay range [%s, %s]", cfg.MinDelay, cfg.MaxDelay)
	}
	if cfg.RatePerSecond < 0 {
		return nil, fmt.Errorf("rate per second must be >= 0")
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Headers == nil {
		cfg.Headers = cloneHeader(DefaultHeaders)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = 1920, 1080
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	var limiter *ratelimit.Limiter
	if cfg.RatePerSecond > 0 {
		limiter = ratelimit.New(ratelimit.Config{DefaultRPS: cfg.RatePerSecond, DefaultBurst: 1})
	}
	return &Fetcher{
		cfg:     cfg,
		limiter: limiter,
		logger:  logger,
		sleep:   sleepContext,
	}, nil
}

// Fetch navigates to rawURL in a fresh browser, waits for the profile's
// ready selector to become visible, and returns the document HTML.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, profile crawler.PageProfile) (string, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, rawURL); err != nil {
			return "", fmt.Errorf("navigation rate limit: %w", err)
		}
	}
	delay := crawler.RandomDuration(f.cfg.MinDelay, f.cfg.MaxDelay)
	if err := f.sleep(ctx, delay); err != nil {
		return "", fmt.Errorf("pre-navigation delay: %w", err)
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, f.allocatorOptions()...)
	defer allocCancel()
	taskCtx, taskCancel := chromedp.NewContext(allocCtx)
	defer taskCancel()

	meta := newResponseMeta()
	chromedp.ListenTarget(taskCtx, meta.captureEvent)

	// Starts the browser and applies identity before the navigation clock runs.
	if err := chromedp.Run(taskCtx, f.identityAction()); err != nil {
		return "", fmt.Errorf("start browser: %w", err)
	}

	navCtx, cancel := context.WithTimeout(taskCtx, navTimeout(profile))
	defer cancel()

	start := time.Now()
	if err := chromedp.Run(navCtx, chromedp.Navigate(rawURL)); err != nil {
		return "", &crawler.NavigationError{URL: rawURL, Err: err}
	}
	status, finalURL := meta.snapshot()
	if err := crawler.CheckStatus(rawURL, status); err != nil {
		return "", err
	}

	var html string
	actions := []chromedp.Action{
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	}
	if profile.ReadySelector != "" {
		actions = append([]chromedp.Action{chromedp.WaitVisible(profile.ReadySelector, chromedp.ByQuery)}, actions...)
	}
	if err := chromedp.Run(navCtx, actions...); err != nil {
		return "", &crawler.NavigationError{
			URL:    rawURL,
			Status: status,
			Err:    fmt.Errorf("await %q: %w", profile.ReadySelector, err),
		}
	}
	f.logger.Debug("page rendered",
		zap.String("url", rawURL),
		zap.String("profile", profile.Name),
		zap.Int("status", status),
		zap.String("final_url", finalURL),
		zap.Bool("redirected", redirected(rawURL, finalURL)),
		zap.Int("bytes", len(html)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return html, nil
}

func (f *Fetcher) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption(nil), chromedp.DefaultExecAllocatorOptions[:]...)
	if f.cfg.Headless {
		opts = append(opts, chromedp.Flag("headless", "new"))
	} else {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	opts = append(opts,
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("enable-automation", false),
		chromedp.UserAgent(f.cfg.UserAgent),
		chromedp.WindowSize(int(f.cfg.Width), int(f.cfg.Height)),
	)
	if f.cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(f.cfg.ExecPath))
	}
	return opts
}

func (f *Fetcher) identityAction() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if err := network.Enable().Do(ctx); err != nil {
			return fmt.Errorf("enable network domain: %w", err)
		}
		if err := emulation.SetUserAgentOverride(f.cfg.UserAgent).
			WithAcceptLanguage(f.cfg.Headers.Get("Accept-Language")).
			Do(ctx); err != nil {
			return fmt.Errorf("set user-agent: %w", err)
		}
		if len(f.cfg.Headers) > 0 {
			if err := network.SetExtraHTTPHeaders(toNetworkHeaders(f.cfg.Headers)).Do(ctx); err != nil {
				return fmt.Errorf("set extra headers: %w", err)
			}
		}
		if err := emulation.SetDeviceMetricsOverride(f.cfg.Width, f.cfg.Height, 1, false).Do(ctx); err != nil {
			return fmt.Errorf("set viewport: %w", err)
		}
		return nil
	})
}

type responseMeta struct {
	mu     sync.RWMutex
	status int
	url    string
}

func newResponseMeta() *responseMeta {
	return &responseMeta{}
}

// capture keeps the last document response, which after redirects is the
// page that was actually rendered.
func (m *responseMeta) capture(event *network.EventResponseReceived) {
	if event.Type != network.ResourceTypeDocument || event.Response == nil {
		return
	}
	m.mu.Lock()
	m.status = int(event.Response.Status)
	m.url = event.Response.URL
	m.mu.Unlock()
}

func (m *responseMeta) captureEvent(ev any) {
	if resp, ok := ev.(*network.EventResponseReceived); ok {
		m.capture(resp)
	}
}

func (m *responseMeta) snapshot() (int, string) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status, m.url
}

// redirected reports whether the rendered document came from somewhere other
// than the requested URL.
func redirected(requested, final string) bool {
	return final != "" && final != requested
}

func navTimeout(profile crawler.PageProfile) time.Duration {
	if profile.NavigationTimeout > 0 {
		return profile.NavigationTimeout
	}
	return 45 * time.Second
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func cloneHeader(src http.Header) http.Header {
	if src == nil {
		return nil
	}
	dst := make(http.Header, len(src))
	for k, values := range src {
		for _, v := range values {
			dst.Add(k, v)
		}
	}
	return dst
}

func toNetworkHeaders(h http.Header) network.Headers {
	headers := network.Headers{}
	for key, values := range h {
		if len(values) == 0 {
			continue
		}
		if len(values) == 1 {
			headers[key] = values[0]
		} else {
			headers[key] = append([]string(nil), values...)
		}
	}
	return headers
}
