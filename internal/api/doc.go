// Package api hosts the status HTTP server that runs alongside a crawl.
// Routes:
//   - GET /healthz and /readyz for probes.
//   - GET /metrics for Prometheus scraping.
//   - GET /progress for run counters.
//   - GET /progress/players?state=&team=&limit=&offset= for per-player outcomes.
package api
