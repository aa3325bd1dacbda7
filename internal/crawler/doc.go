// Package crawler implements the two-stage roster crawl: the per-page retry
// policy, the retrying fetch loop, the run-wide crawl state, and the engine
// that walks team rosters and player detail pages.
package crawler
