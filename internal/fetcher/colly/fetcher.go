// Package collyfetcher implements a static crawler.Fetcher using gocolly. It
// suits pages whose roster markup is served without client-side rendering.
package collyfetcher

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"github.com/JakeFAU/roster-crawler/internal/crawler"
	"github.com/JakeFAU/roster-crawler/internal/policy/ratelimit"
)

// Config controls collector behavior.
type Config struct {
	UserAgent string
	Headers   http.Header
	// Limiter paces requests per host; nil disables pacing.
	Limiter *ratelimit.Limiter
}

// Fetcher implements crawler.Fetcher using the Colly collector.
type Fetcher struct {
	cfg           Config
	baseCollector *colly.Collector
}

var _ crawler.Fetcher = (*Fetcher)(nil)

type collectorHooks interface {
	OnRequest(colly.RequestCallback)
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

type result struct {
	status int
	body   []byte
	err    error
}

// New builds a Fetcher.
func New(cfg Config) *Fetcher {
	c := colly.NewCollector(colly.Async(false), colly.AllowURLRevisit())
	c.IgnoreRobotsTxt = true
	c.WithTransport(newHTTPTransport())
	return &Fetcher{
		cfg:           cfg,
		baseCollector: c,
	}
}

// Fetch performs a GET, rejects non-2xx statuses, and requires the profile's
// ready selector to be present in the returned document.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, profile crawler.PageProfile) (string, error) {
	if f.cfg.Limiter != nil {
		if err := f.cfg.Limiter.Wait(ctx, rawURL); err != nil {
			return "", err
		}
	}
	var res result
	collector := f.buildCollector(profile, &res)
	visitErr, canceled := runCollector(ctx, collector, rawURL)
	if canceled != nil {
		return "", canceled
	}
	if err := crawler.CheckStatus(rawURL, res.status); err != nil {
		return "", err
	}
	if res.err == nil {
		res.err = visitErr
	}
	if res.err != nil {
		return "", &crawler.NavigationError{URL: rawURL, Status: res.status, Err: res.err}
	}
	if err := checkReady(res.body, profile.ReadySelector); err != nil {
		return "", &crawler.NavigationError{URL: rawURL, Status: res.status, Err: err}
	}
	return string(res.body), nil
}

func (f *Fetcher) buildCollector(profile crawler.PageProfile, res *result) *colly.Collector {
	collector := f.baseCollector.Clone()
	if f.cfg.UserAgent != "" {
		collector.UserAgent = f.cfg.UserAgent
	}
	timeout := profile.NavigationTimeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	collector.SetRequestTimeout(timeout)
	f.configureCollectorHooks(collector, res)
	return collector
}

func (f *Fetcher) configureCollectorHooks(hooks collectorHooks, res *result) {
	hooks.OnRequest(func(r *colly.Request) {
		f.copyHeaders(r)
	})

	hooks.OnResponse(func(r *colly.Response) {
		res.status = r.StatusCode
		res.body = append([]byte(nil), r.Body...)
	})

	hooks.OnError(func(r *colly.Response, err error) {
		if r != nil {
			res.status = r.StatusCode
		}
		res.err = err
	})
}

// runCollector visits url. canceled is set when ctx ends first; the
// collector's callbacks may still be running in that case.
func runCollector(ctx context.Context, collector *colly.Collector, url string) (visitErr, canceled error) {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("colly fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("colly visit failed: %w", err), nil
		}
		return nil, nil
	}
}

func (f *Fetcher) copyHeaders(r *colly.Request) {
	for key, values := range f.cfg.Headers {
		for _, v := range values {
			r.Headers.Add(key, v)
		}
	}
}

func checkReady(body []byte, selector string) error {
	if selector == "" {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("parse document: %w", err)
	}
	if doc.Find(selector).Length() == 0 {
		return fmt.Errorf("ready selector %q not found", selector)
	}
	return nil
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
