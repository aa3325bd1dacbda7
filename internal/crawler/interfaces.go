package crawler

import (
	"context"

	"github.com/JakeFAU/roster-crawler/internal/extract"
	"github.com/JakeFAU/roster-crawler/internal/roster"
)

// Fetcher renders a page and returns its document HTML. Implementations own
// one browser (or HTTP) session per call.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, profile PageProfile) (string, error)
}

// Extractor maps rendered documents onto domain values.
type Extractor interface {
	RosterLinks(document string) ([]string, error)
	PlayerDetail(document string, team string) (roster.Player, []extract.FieldDefect, error)
}

// FreshnessCache answers whether a player needs to be re-fetched.
type FreshnessCache interface {
	IsStale(name, team string) bool
	Lookup(name string) (roster.Player, bool)
}

// SnapshotWriter checkpoints the in-progress result set.
type SnapshotWriter interface {
	Persist(ctx context.Context, records []roster.Player)
	TeamFile() string
	LeagueFile() string
}

// Publisher pushes completion events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}
