package crawler

import (
	"time"

	"github.com/JakeFAU/roster-crawler/internal/roster"
)

// PageProfile bundles the knobs that differ between roster and detail pages.
type PageProfile struct {
	// Name labels logs and metrics ("roster" or "detail").
	Name string
	// NavigationTimeout bounds a single navigation plus readiness wait.
	NavigationTimeout time.Duration
	// ReadySelector is awaited before the document is captured.
	ReadySelector string
	// Retry governs how failed attempts are retried.
	Retry RetryPolicy
}

// Profile names used in logs and metric labels.
const (
	ProfileRoster = "roster"
	ProfileDetail = "detail"
)

// DefaultRosterProfile mirrors the roster-page behavior: 30s navigation,
// wait for the results table, five attempts with 2^n*5s backoff.
func DefaultRosterProfile() PageProfile {
	return PageProfile{
		Name:              ProfileRoster,
		NavigationTimeout: 30 * time.Second,
		ReadySelector:     "tbody",
		Retry: RetryPolicy{
			MaxAttempts: 5,
			BaseDelay:   5 * time.Second,
		},
	}
}

// DefaultDetailProfile mirrors the detail-page behavior: 60s navigation,
// wait for the content block, three attempts with jittered backoff.
func DefaultDetailProfile() PageProfile {
	return PageProfile{
		Name:              ProfileDetail,
		NavigationTimeout: 60 * time.Second,
		ReadySelector:     ".content",
		Retry: RetryPolicy{
			MaxAttempts: 3,
			BaseDelay:   5 * time.Second,
			Jitter:      5 * time.Second,
		},
	}
}

// PlayerState is a node in the per-player lifecycle:
// Pending -> (Skipped | Fetching -> Fetched | Failed).
type PlayerState string

// Player lifecycle states.
const (
	StatePending  PlayerState = "pending"
	StateSkipped  PlayerState = "skipped"
	StateFetching PlayerState = "fetching"
	StateFetched  PlayerState = "fetched"
	StateFailed   PlayerState = "failed"
)

// PlayerOutcome tracks one player URL through a run.
type PlayerOutcome struct {
	TeamID string      `json:"team_id"`
	URL    string      `json:"url"`
	Name   string      `json:"name"`
	State  PlayerState `json:"state"`
	Error  string      `json:"error,omitempty"`
}

// Progress is a point-in-time count of the crawl state.
type Progress struct {
	TeamsTotal   int `json:"teams_total"`
	TeamsLoaded  int `json:"teams_loaded"`
	TeamsFailed  int `json:"teams_failed"`
	Pending      int `json:"pending"`
	Fetching     int `json:"fetching"`
	Skipped      int `json:"skipped"`
	Fetched      int `json:"fetched"`
	Failed       int `json:"failed"`
	RecordsTotal int `json:"records_total"`
}

// Summary describes a finished run. It is logged and optionally published.
type Summary struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	TeamFile   string    `json:"team_file"`
	LeagueFile string    `json:"league_file"`
	Progress   Progress  `json:"progress"`
}

// Config holds the engine settings that come from configuration.
type Config struct {
	BaseURL           string
	Teams             []roster.Team
	Roster            PageProfile
	Detail            PageProfile
	RosterConcurrency int
	NotifyTopic       string
}
