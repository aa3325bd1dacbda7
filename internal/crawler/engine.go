package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/JakeFAU/roster-crawler/internal/metrics"
	"github.com/JakeFAU/roster-crawler/internal/roster"
)

// Engine drives the two-stage crawl: every team roster concurrently, then
// every player detail page sequentially.
type Engine struct {
	cfg       Config
	fetcher   Fetcher
	extractor Extractor
	cache     FreshnessCache
	writer    SnapshotWriter
	retrier   *Retrier
	publisher Publisher
	logger    *zap.Logger
	state     *CrawlState
	now       func() time.Time
}

// NewEngine wires the crawl components. cache and publisher may be nil.
func NewEngine(
	cfg Config,
	fetcher Fetcher,
	extractor Extractor,
	cache FreshnessCache,
	writer SnapshotWriter,
	retrier *Retrier,
	publisher Publisher,
	logger *zap.Logger,
) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if retrier == nil {
		retrier = NewRetrier(logger)
	}
	return &Engine{
		cfg:       cfg,
		fetcher:   fetcher,
		extractor: extractor,
		cache:     cache,
		writer:    writer,
		retrier:   retrier,
		publisher: publisher,
		logger:    logger,
		state:     NewCrawlState(len(cfg.Teams)),
		now:       time.Now,
	}
}

// State exposes the run state for read-only consumers such as the status API.
func (e *Engine) State() *CrawlState {
	return e.state
}

// Run executes the crawl. Team and player failures are logged and contained;
// the only error returned is context cancellation.
func (e *Engine) Run(ctx context.Context) (Summary, error) {
	summary := Summary{StartedAt: e.now().UTC()}
	if id, err := uuid.NewV7(); err == nil {
		summary.RunID = id.String()
	}
	logger := e.logger.With(zap.String("run_id", summary.RunID))

	logger.Info("fetching team rosters", zap.Int("teams", len(e.cfg.Teams)))
	e.fetchRosters(ctx, logger)
	if err := ctx.Err(); err != nil {
		return e.finish(ctx, summary, logger), fmt.Errorf("roster stage: %w", err)
	}

	logger.Info("fetching player details")
	for _, team := range e.cfg.Teams {
		urls, ok := e.state.Roster(team.ID)
		if !ok {
			logger.Warn("skipping team without roster",
				zap.String("team", team.ID),
				zap.Error(e.state.RosterErr(team.ID)),
			)
			continue
		}
		logger.Info("crawling team", zap.String("team", team.DisplayName()), zap.Int("players", len(urls)))
		for _, playerURL := range urls {
			if err := ctx.Err(); err != nil {
				return e.finish(ctx, summary, logger), fmt.Errorf("detail stage: %w", err)
			}
			e.crawlPlayer(ctx, team, playerURL, logger)
		}
	}

	return e.finish(ctx, summary, logger), nil
}

func (e *Engine) fetchRosters(ctx context.Context, logger *zap.Logger) {
	var g errgroup.Group
	if e.cfg.RosterConcurrency > 0 {
		g.SetLimit(e.cfg.RosterConcurrency)
	}
	for _, team := range e.cfg.Teams {
		g.Go(func() error {
			urls, err := e.fetchRoster(ctx, team)
			if err != nil {
				metrics.ObserveRoster("failed")
				e.state.FailRoster(team.ID, err)
				logger.Error("roster fetch failed", zap.String("team", team.ID), zap.Error(err))
				return nil
			}
			metrics.ObserveRoster("loaded")
			e.state.SetRoster(team.ID, urls)
			logger.Info("roster loaded", zap.String("team", team.ID), zap.Int("players", len(urls)))
			return nil
		})
	}
	// Per-team failures are recorded in state; the group never returns one.
	_ = g.Wait()
}

func (e *Engine) fetchRoster(ctx context.Context, team roster.Team) ([]string, error) {
	teamURL, err := url.JoinPath(e.cfg.BaseURL, "teams", team.ID)
	if err != nil {
		return nil, fmt.Errorf("build team url: %w", err)
	}
	var links []string
	err = e.retrier.Do(ctx, teamURL, e.cfg.Roster, func(ctx context.Context, _ int) error {
		document, err := e.fetcher.Fetch(ctx, teamURL, e.cfg.Roster)
		if err != nil {
			return err
		}
		found, err := e.extractor.RosterLinks(document)
		if err != nil {
			return err
		}
		links = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	resolved := make([]string, 0, len(links))
	for _, href := range links {
		abs, err := ResolveURL(e.cfg.BaseURL, href)
		if err != nil {
			e.logger.Warn("dropping unparseable player link", zap.String("href", href), zap.Error(err))
			continue
		}
		resolved = append(resolved, abs)
	}
	return resolved, nil
}

func (e *Engine) crawlPlayer(ctx context.Context, team roster.Team, playerURL string, logger *zap.Logger) {
	teamName := team.DisplayName()
	name := PlayerNameFromURL(playerURL)
	e.state.Track(team.ID, playerURL, name)

	if cached, ok := e.freshCached(name, teamName); ok {
		logger.Info("skipping up-to-date player", zap.String("player", name), zap.String("team", teamName))
		e.state.Append(cached)
		e.state.Transition(playerURL, StateSkipped, nil)
		metrics.ObservePlayer(string(StateSkipped))
		e.checkpoint(ctx)
		return
	}

	e.state.Transition(playerURL, StateFetching, nil)
	var player roster.Player
	err := e.retrier.Do(ctx, playerURL, e.cfg.Detail, func(ctx context.Context, _ int) error {
		document, err := e.fetcher.Fetch(ctx, playerURL, e.cfg.Detail)
		if err != nil {
			return err
		}
		p, defects, err := e.extractor.PlayerDetail(document, teamName)
		if err != nil {
			return err
		}
		for _, d := range defects {
			metrics.ObserveFieldDefect(d.Field)
			logger.Warn("unparseable field",
				zap.String("player", p.Name),
				zap.String("field", d.Field),
				zap.String("raw", d.Raw),
			)
		}
		player = p
		return nil
	})
	if err != nil {
		e.state.Transition(playerURL, StateFailed, err)
		metrics.ObservePlayer(string(StateFailed))
		var exhausted *FetchExhausted
		if errors.As(err, &exhausted) {
			logger.Error("player fetch exhausted",
				zap.String("url", playerURL),
				zap.Int("attempts", exhausted.Attempts),
				zap.Error(exhausted.Last),
			)
		} else {
			logger.Error("player fetch failed", zap.String("url", playerURL), zap.Error(err))
		}
		return
	}

	e.state.Append(player)
	e.state.Transition(playerURL, StateFetched, nil)
	metrics.ObservePlayer(string(StateFetched))
	logger.Info("fetched player", zap.String("player", player.Name), zap.String("team", teamName))
	e.checkpoint(ctx)
}

func (e *Engine) freshCached(name, teamName string) (roster.Player, bool) {
	if e.cache == nil || e.cache.IsStale(name, teamName) {
		return roster.Player{}, false
	}
	return e.cache.Lookup(name)
}

func (e *Engine) checkpoint(ctx context.Context) {
	if e.writer == nil {
		return
	}
	e.writer.Persist(ctx, e.state.Records())
}

func (e *Engine) finish(ctx context.Context, summary Summary, logger *zap.Logger) Summary {
	summary.FinishedAt = e.now().UTC()
	summary.Progress = e.state.Progress()
	if e.writer != nil {
		summary.TeamFile = e.writer.TeamFile()
		summary.LeagueFile = e.writer.LeagueFile()
	}
	logger.Info("crawl finished",
		zap.Int("fetched", summary.Progress.Fetched),
		zap.Int("skipped", summary.Progress.Skipped),
		zap.Int("failed", summary.Progress.Failed),
		zap.Int("teams_failed", summary.Progress.TeamsFailed),
		zap.String("team_file", summary.TeamFile),
		zap.String("league_file", summary.LeagueFile),
		zap.Duration("elapsed", summary.FinishedAt.Sub(summary.StartedAt)),
	)
	e.notify(ctx, summary, logger)
	return summary
}

func (e *Engine) notify(ctx context.Context, summary Summary, logger *zap.Logger) {
	if e.publisher == nil || e.cfg.NotifyTopic == "" {
		return
	}
	// The run context may already be canceled; the summary is still worth sending.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	id, err := e.publisher.Publish(pubCtx, e.cfg.NotifyTopic, summary)
	if err != nil {
		logger.Warn("publish run summary failed", zap.Error(err))
		return
	}
	logger.Info("published run summary", zap.String("message_id", id))
}

// PlayerNameFromURL derives the lookup name from a player URL's last path
// segment: "/players/lebron-james" yields "lebron james".
func PlayerNameFromURL(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	seg := path.Base(strings.TrimRight(p, "/"))
	if unescaped, err := url.PathUnescape(seg); err == nil {
		seg = unescaped
	}
	if seg == "." || seg == "/" {
		return ""
	}
	return strings.ReplaceAll(seg, "-", " ")
}

// ResolveURL resolves href against base.
func ResolveURL(base, href string) (string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", fmt.Errorf("parse href: %w", err)
	}
	return baseURL.ResolveReference(ref).String(), nil
}
