// Package metrics exposes Prometheus collectors for the roster crawler.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	rosterFetchTotal           *prometheus.CounterVec
	playersTotal               *prometheus.CounterVec
	fetchAttemptsTotal         *prometheus.CounterVec
	fetchRetryDelaySeconds     *prometheus.HistogramVec
	fieldDefectsTotal          *prometheus.CounterVec
	snapshotWritesTotal        *prometheus.CounterVec
	rateLimitDelaySeconds      *prometheus.HistogramVec
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init registers the collectors with the default registry. It is safe to
// call multiple times; every Observe helper calls it.
func Init() {
	once.Do(func() {
		rosterFetchTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roster_team_fetches_total",
				Help: "Team roster fetches, labeled by result (loaded, failed).",
			},
			[]string{"result"},
		)

		playersTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roster_players_total",
				Help: "Players processed, labeled by terminal state (fetched, skipped, failed).",
			},
			[]string{"state"},
		)

		fetchAttemptsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roster_fetch_attempts_total",
				Help: "Browser fetch attempts, labeled by page profile.",
			},
			[]string{"profile"},
		)

		fetchRetryDelaySeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "roster_fetch_retry_delay_seconds",
				Help:    "Backoff waited before a retry, labeled by page profile.",
				Buckets: []float64{1, 5, 10, 20, 40, 80, 160},
			},
			[]string{"profile"},
		)

		fieldDefectsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roster_field_defects_total",
				Help: "Numeric fields that could not be parsed, labeled by field.",
			},
			[]string{"field"},
		)

		snapshotWritesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roster_snapshot_writes_total",
				Help: "Snapshot writes, labeled by view and result.",
			},
			[]string{"view", "result"},
		)

		rateLimitDelaySeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "roster_rate_limit_delay_seconds",
				Help:    "Time spent waiting on the per-host navigation limiter.",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"host"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveRoster counts a finished team roster fetch.
func ObserveRoster(result string) {
	Init()
	rosterFetchTotal.WithLabelValues(result).Inc()
}

// ObservePlayer counts a player reaching a terminal state.
func ObservePlayer(state string) {
	Init()
	playersTotal.WithLabelValues(state).Inc()
}

// ObserveFetchAttempt counts one fetch attempt.
func ObserveFetchAttempt(profile string) {
	Init()
	fetchAttemptsTotal.WithLabelValues(profile).Inc()
}

// ObserveRetry records the backoff chosen before a retry.
func ObserveRetry(profile string, delay time.Duration) {
	Init()
	fetchRetryDelaySeconds.WithLabelValues(profile).Observe(delay.Seconds())
}

// ObserveFieldDefect counts a numeric field that failed to parse.
func ObserveFieldDefect(field string) {
	Init()
	fieldDefectsTotal.WithLabelValues(field).Inc()
}

// ObserveSnapshotWrite counts a snapshot write attempt.
func ObserveSnapshotWrite(view string, ok bool) {
	Init()
	result := "ok"
	if !ok {
		result = "error"
	}
	snapshotWritesTotal.WithLabelValues(view, result).Inc()
}

// ObserveRateLimitDelay records how long a navigation waited for its host's
// limiter.
func ObserveRateLimitDelay(host string, delay time.Duration) {
	Init()
	rateLimitDelaySeconds.WithLabelValues(host).Observe(delay.Seconds())
}

// Middleware is a chi middleware that records HTTP request metrics.
func Middleware(next http.Handler) http.Handler {
	Init()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)

		route := "unknown"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		httpRequestsTotal.WithLabelValues(r.Method, strconv.Itoa(ww.status)).Inc()
		httpRequestDurationSeconds.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
