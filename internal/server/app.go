// Package server assembles the roster crawler from configuration and runs it.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	gcstorage "cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/JakeFAU/roster-crawler/internal/api"
	"github.com/JakeFAU/roster-crawler/internal/cache"
	"github.com/JakeFAU/roster-crawler/internal/config"
	"github.com/JakeFAU/roster-crawler/internal/crawler"
	"github.com/JakeFAU/roster-crawler/internal/extract"
	collyfetcher "github.com/JakeFAU/roster-crawler/internal/fetcher/colly"
	headlessfetcher "github.com/JakeFAU/roster-crawler/internal/fetcher/headless"
	"github.com/JakeFAU/roster-crawler/internal/policy/ratelimit"
	gcppublisher "github.com/JakeFAU/roster-crawler/internal/publisher/pubsub"
	"github.com/JakeFAU/roster-crawler/internal/snapshot"
	"github.com/JakeFAU/roster-crawler/internal/storage"
	gcsstorage "github.com/JakeFAU/roster-crawler/internal/storage/gcs"
	localstorage "github.com/JakeFAU/roster-crawler/internal/storage/local"
	memorystorage "github.com/JakeFAU/roster-crawler/internal/storage/memory"
	pgstore "github.com/JakeFAU/roster-crawler/internal/storage/postgres"
)

// App contains the application's dependencies.
type App struct {
	cfg       config.Config
	logger    *zap.Logger
	store     storage.SnapshotStore
	cache     *cache.Cache
	engine    *crawler.Engine
	apiServer *api.Server

	gcsClient       *gcstorage.Client
	pgStore         *pgstore.Store
	pubsubClient    *pubsub.Client
	pubsubPublisher *gcppublisher.Publisher
}

// Build creates the application's dependencies. The returned App must be
// closed by the caller.
func Build(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	app := &App{cfg: cfg, logger: logger}
	app.logger.Info("building application dependencies",
		zap.String("fetch_mode", cfg.Fetch.Mode),
		zap.String("storage_backend", cfg.Storage.Backend),
		zap.Int("teams", len(cfg.Site.Teams)),
	)

	var err error
	if app.store, err = setupStorage(ctx, app); err != nil {
		app.closeInfrastructure()
		return nil, err
	}

	fetcher, err := setupFetcher(app)
	if err != nil {
		app.closeInfrastructure()
		return nil, err
	}

	var freshness crawler.FreshnessCache
	if cfg.Cache.Enabled {
		app.cache = cache.Load(ctx, app.store, cfg.Cache.MaxAge, logger.Named("cache"))
		freshness = app.cache
	} else {
		app.logger.Info("freshness cache disabled, every player will be fetched")
	}

	publisher, err := setupPublisher(ctx, app)
	if err != nil {
		app.closeInfrastructure()
		return nil, err
	}

	writer := snapshot.NewWriter(app.store, time.Now(), logger.Named("snapshot"))
	app.engine = crawler.NewEngine(
		cfg.Engine(),
		fetcher,
		extract.New(),
		freshness,
		writer,
		crawler.NewRetrier(logger.Named("retry")),
		publisher,
		logger.Named("crawler"),
	)

	if cfg.Server.Enabled {
		app.apiServer = api.NewServer(app.engine.State(), logger.Named("api"))
	}
	return app, nil
}

// Run crawls every configured team once and blocks until the crawl ends or
// SIGINT/SIGTERM arrives. Snapshots checkpointed before an interrupt remain.
func (a *App) Run(ctx context.Context) (crawler.Summary, error) {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var srv *http.Server
	if a.apiServer != nil {
		srv = &http.Server{
			Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
			Handler:           a.apiServer.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			a.logger.Info("http server started", zap.Int("port", a.cfg.Server.Port))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("http server error", zap.Error(err))
				stop()
			}
		}()
	}

	summary, err := a.engine.Run(ctx)
	if err != nil {
		a.logger.Warn("crawl interrupted", zap.Error(err))
	}

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if serr := srv.Shutdown(shutdownCtx); serr != nil {
			a.logger.Error("server shutdown error", zap.Error(serr))
		}
	}
	return summary, err
}

// Engine exposes the crawl engine.
func (a *App) Engine() *crawler.Engine {
	return a.engine
}

// Store exposes the snapshot store selected by configuration.
func (a *App) Store() storage.SnapshotStore {
	return a.store
}

// CacheEntries returns the records of the newest team snapshot. The cache
// is loaded on demand when it is disabled for crawling.
func (a *App) CacheEntries(ctx context.Context) ([]cache.Entry, error) {
	c := a.cache
	if c == nil {
		c = cache.Load(ctx, a.store, a.cfg.Cache.MaxAge, a.logger.Named("cache"))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.Entries(), nil
}

// Close releases clients and flushes the logger.
func (a *App) Close() error {
	a.closeInfrastructure()
	if err := a.logger.Sync(); err != nil {
		a.logger.Debug("logger sync failed", zap.Error(err))
	}
	a.logger.Info("shutdown complete")
	return nil
}

func (a *App) closeInfrastructure() {
	if a.pubsubPublisher != nil {
		a.pubsubPublisher.Stop()
	}
	if a.pubsubClient != nil {
		if err := a.pubsubClient.Close(); err != nil {
			a.logger.Warn("pubsub client close failed", zap.Error(err))
		}
	}
	if a.gcsClient != nil {
		if err := a.gcsClient.Close(); err != nil {
			a.logger.Warn("gcs client close failed", zap.Error(err))
		}
	}
	if a.pgStore != nil {
		a.pgStore.Close()
	}
}

func setupStorage(ctx context.Context, app *App) (storage.SnapshotStore, error) {
	cfg := app.cfg.Storage
	switch cfg.Backend {
	case config.BackendGCS:
		app.logger.Info("using GCS storage backend", zap.String("bucket", cfg.GCS.Bucket))
		client, err := gcstorage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("gcs client init failed: %w", err)
		}
		app.gcsClient = client
		store, err := gcsstorage.New(client, gcsstorage.Config{Bucket: cfg.GCS.Bucket, Prefix: cfg.GCS.Prefix})
		if err != nil {
			return nil, fmt.Errorf("gcs snapshot store init failed: %w", err)
		}
		return store, nil
	case config.BackendPostgres:
		app.logger.Info("using postgres storage backend", zap.String("table", cfg.Postgres.Table))
		store, err := pgstore.New(ctx, pgstore.Config{
			DSN:      cfg.Postgres.DSN,
			Table:    cfg.Postgres.Table,
			MaxConns: cfg.Postgres.MaxConns,
			MinConns: cfg.Postgres.MinConns,
		})
		if err != nil {
			return nil, fmt.Errorf("postgres snapshot store init failed: %w", err)
		}
		app.pgStore = store
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("postgres schema init failed: %w", err)
		}
		return store, nil
	case config.BackendLocal:
		app.logger.Info("using local storage backend", zap.String("dir", cfg.Local.Dir))
		store, err := localstorage.New(localstorage.Config{BaseDir: cfg.Local.Dir})
		if err != nil {
			return nil, fmt.Errorf("local snapshot store init failed: %w", err)
		}
		return store, nil
	case config.BackendNone:
		app.logger.Warn("snapshot writes disabled (dry run)")
		return storage.Discard{}, nil
	default:
		app.logger.Info("using in-memory storage backend")
		return memorystorage.NewStore(), nil
	}
}

func setupFetcher(app *App) (crawler.Fetcher, error) {
	browser := app.cfg.Browser
	headers := headlessfetcher.DefaultHeaders.Clone()
	if browser.AcceptLanguage != "" {
		headers.Set("Accept-Language", browser.AcceptLanguage)
	}
	userAgent := browser.UserAgent
	if userAgent == "" {
		userAgent = headlessfetcher.DefaultUserAgent
	}

	if app.cfg.Fetch.Mode == config.ModeStatic {
		app.logger.Info("using colly static fetcher", zap.String("user_agent", userAgent))
		var limiter *ratelimit.Limiter
		if browser.RatePerSecond > 0 {
			limiter = ratelimit.New(ratelimit.Config{DefaultRPS: browser.RatePerSecond, DefaultBurst: 1})
		}
		return collyfetcher.New(collyfetcher.Config{UserAgent: userAgent, Headers: headers, Limiter: limiter}), nil
	}

	fetcher, err := headlessfetcher.NewChromedp(headlessfetcher.Config{
		ExecPath:      browser.ExecPath,
		Headless:      browser.Headless,
		UserAgent:     userAgent,
		Headers:       headers,
		Width:         int64(browser.ViewportWidth),
		Height:        int64(browser.ViewportHeight),
		MinDelay:      browser.MinDelay,
		MaxDelay:      browser.MaxDelay,
		RatePerSecond: browser.RatePerSecond,
	}, app.logger.Named("browser"))
	if err != nil {
		return nil, fmt.Errorf("headless fetcher init failed: %w", err)
	}
	app.logger.Info("using chromedp browser fetcher",
		zap.Bool("headless", browser.Headless),
		zap.Duration("min_delay", browser.MinDelay),
		zap.Duration("max_delay", browser.MaxDelay),
	)
	return fetcher, nil
}

func setupPublisher(ctx context.Context, app *App) (crawler.Publisher, error) {
	if app.cfg.PubSub.TopicID == "" || app.cfg.PubSub.ProjectID == "" {
		app.logger.Debug("no Pub/Sub topic configured, run summary will only be logged")
		return nil, nil
	}
	client, err := pubsub.NewClient(ctx, app.cfg.PubSub.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("pubsub client init failed: %w", err)
	}
	app.pubsubClient = client
	app.pubsubPublisher = gcppublisher.New(client, map[string]string{"source": "roster-crawler"})
	app.logger.Info("Pub/Sub publisher initialized",
		zap.String("project", app.cfg.PubSub.ProjectID),
		zap.String("topic", app.cfg.PubSub.TopicID),
	)
	return app.pubsubPublisher, nil
}
