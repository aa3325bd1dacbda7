package crawler

import (
	"sync"

	"github.com/JakeFAU/roster-crawler/internal/roster"
)

// CrawlState is the run-wide mutable state owned by the Engine: the roster
// map, per-player outcomes, and the ordered result list. Readers get copies.
type CrawlState struct {
	mu         sync.RWMutex
	teamsTotal int
	rosters    map[string][]string
	rosterErrs map[string]error
	outcomes   map[string]*PlayerOutcome
	order      []string
	records    []roster.Player
}

// NewCrawlState creates an empty state for a run over teamsTotal teams.
func NewCrawlState(teamsTotal int) *CrawlState {
	return &CrawlState{
		teamsTotal: teamsTotal,
		rosters:    make(map[string][]string),
		rosterErrs: make(map[string]error),
		outcomes:   make(map[string]*PlayerOutcome),
	}
}

// SetRoster records the player URLs found for a team.
func (s *CrawlState) SetRoster(teamID string, urls []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rosters[teamID] = append([]string(nil), urls...)
	delete(s.rosterErrs, teamID)
}

// FailRoster records that a team's roster could not be fetched.
func (s *CrawlState) FailRoster(teamID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rosterErrs[teamID] = err
	delete(s.rosters, teamID)
}

// Roster returns the URLs recorded for a team.
func (s *CrawlState) Roster(teamID string) ([]string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	urls, ok := s.rosters[teamID]
	if !ok {
		return nil, false
	}
	return append([]string(nil), urls...), true
}

// RosterErr returns the failure recorded for a team, if any.
func (s *CrawlState) RosterErr(teamID string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rosterErrs[teamID]
}

// Track registers a player URL in the Pending state. Tracking the same URL
// twice keeps the first entry.
func (s *CrawlState) Track(teamID, rawURL, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.outcomes[rawURL]; ok {
		return
	}
	s.outcomes[rawURL] = &PlayerOutcome{TeamID: teamID, URL: rawURL, Name: name, State: StatePending}
	s.order = append(s.order, rawURL)
}

// Transition moves a tracked player to state. err is recorded for Failed.
func (s *CrawlState) Transition(rawURL string, state PlayerState, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out, ok := s.outcomes[rawURL]
	if !ok {
		return
	}
	out.State = state
	if err != nil {
		out.Error = err.Error()
	}
}

// Append adds a record to the result list.
func (s *CrawlState) Append(p roster.Player) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, p)
}

// Records returns a copy of the result list in insertion order.
func (s *CrawlState) Records() []roster.Player {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]roster.Player(nil), s.records...)
}

// Outcomes returns every tracked player in the order first seen.
func (s *CrawlState) Outcomes() []PlayerOutcome {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]PlayerOutcome, 0, len(s.order))
	for _, u := range s.order {
		out = append(out, *s.outcomes[u])
	}
	return out
}

// Progress returns the current counts.
func (s *CrawlState) Progress() Progress {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p := Progress{
		TeamsTotal:   s.teamsTotal,
		TeamsLoaded:  len(s.rosters),
		TeamsFailed:  len(s.rosterErrs),
		RecordsTotal: len(s.records),
	}
	for _, out := range s.outcomes {
		switch out.State {
		case StatePending:
			p.Pending++
		case StateFetching:
			p.Fetching++
		case StateSkipped:
			p.Skipped++
		case StateFetched:
			p.Fetched++
		case StateFailed:
			p.Failed++
		}
	}
	return p
}
