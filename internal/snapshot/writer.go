package snapshot

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/roster-crawler/internal/metrics"
	"github.com/JakeFAU/roster-crawler/internal/roster"
	"github.com/JakeFAU/roster-crawler/internal/storage"
)

// File naming. The cache reads the newest team view back in.
const (
	TeamPrefix   = "2kroster_team_"
	LeaguePrefix = "2kroster_league_"
	Suffix       = ".json"

	// TimestampLayout is the ISO-8601 UTC instant embedded in file names,
	// before ':' and '.' are replaced with '-'.
	TimestampLayout = "2006-01-02T15:04:05.000Z"
)

var timestampReplacer = strings.NewReplacer(":", "-", ".", "-")

// Writer rewrites both snapshot views on every checkpoint. File names are
// fixed for the lifetime of the writer, so one run produces one pair.
type Writer struct {
	store      storage.SnapshotStore
	logger     *zap.Logger
	teamFile   string
	leagueFile string
}

// NewWriter returns a writer whose file names carry runTime.
func NewWriter(store storage.SnapshotStore, runTime time.Time, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	ts := FormatTimestamp(runTime)
	return &Writer{
		store:      store,
		logger:     logger,
		teamFile:   TeamPrefix + ts + Suffix,
		leagueFile: LeaguePrefix + ts + Suffix,
	}
}

// FormatTimestamp renders t in the file-name timestamp layout.
func FormatTimestamp(t time.Time) string {
	return timestampReplacer.Replace(t.UTC().Format(TimestampLayout))
}

// TeamFile is the name of the team-grouped view.
func (w *Writer) TeamFile() string { return w.teamFile }

// LeagueFile is the name of the league-wide view.
func (w *Writer) LeagueFile() string { return w.leagueFile }

// Persist writes both views of players. Failures are logged and counted but
// never returned; a failed checkpoint is retried by the next one.
func (w *Writer) Persist(ctx context.Context, players []roster.Player) {
	w.write(ctx, "team", w.teamFile, ByTeam(players))
	w.write(ctx, "league", w.leagueFile, ByLeague(players))
}

func (w *Writer) write(ctx context.Context, view, name string, players []roster.Player) {
	data, err := Encode(players)
	if err == nil {
		err = w.store.Write(ctx, name, data)
	}
	metrics.ObserveSnapshotWrite(view, err == nil)
	if err != nil {
		w.logger.Error("snapshot write failed",
			zap.String("view", view),
			zap.String("file", name),
			zap.Int("records", len(players)),
			zap.Error(err),
		)
		return
	}
	w.logger.Debug("snapshot written", zap.String("view", view), zap.String("file", name), zap.Int("records", len(players)))
}
