// Package cmd defines the CLI commands for the roster crawler.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/roster-crawler/internal/cache"
	"github.com/JakeFAU/roster-crawler/internal/config"
	"github.com/JakeFAU/roster-crawler/internal/crawler"
	"github.com/JakeFAU/roster-crawler/internal/logging"
	"github.com/JakeFAU/roster-crawler/internal/server"
)

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// App is what the commands need from the assembled application. Tests
// inject a fake through newApp.
type App interface {
	Run(ctx context.Context) (crawler.Summary, error)
	CacheEntries(ctx context.Context) ([]cache.Entry, error)
	Close() error
}

// overrides are flag values applied on top of the loaded configuration.
type overrides struct {
	teams   []string
	dryRun  bool
	static  bool
	noCache bool
}

// newApp is the application factory. It is a variable so tests can replace it.
var newApp = func(ctx context.Context, cfg config.Config) (App, error) {
	logger, err := logging.New(cfg.Logging.Development, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("logger init failed: %w", err)
	}
	zap.ReplaceGlobals(logger)
	app, err := server.Build(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return app, nil
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	var cfgFile string
	var opts overrides

	cmd := &cobra.Command{
		Use:   "roster-crawler",
		Short: "Harvests NBA 2K player ratings into JSON snapshots.",
		Long: `roster-crawler walks every team roster on the ratings site, fetches
each player's detail page with a real browser, and writes two JSON
snapshots: players grouped by team and a league-wide ranking. Players
present in a recent snapshot are reused instead of re-fetched.`,
		SilenceUsage: true,

		// Runs after flags are parsed but before the subcommand's RunE.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			if err := opts.apply(&cfg); err != nil {
				return err
			}
			appInstance, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, appInstance))
			return nil
		},

		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if appInstance, ok := cmd.Context().Value(appKey).(App); ok && appInstance != nil {
				return appInstance.Close()
			}
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (YAML, JSON or TOML)")
	flags.StringSliceVar(&opts.teams, "teams", nil, "comma-separated team ids to crawl instead of the configured list")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "crawl without writing snapshots")
	flags.BoolVar(&opts.static, "static", false, "fetch pages over plain HTTP instead of a browser")
	flags.BoolVar(&opts.noCache, "no-cache", false, "ignore the previous snapshot and fetch every player")

	cmd.AddCommand(newCrawlCmd())
	cmd.AddCommand(newCacheCmd())
	return cmd
}

func (o overrides) apply(cfg *config.Config) error {
	if len(o.teams) > 0 {
		cfg.Site.Teams = o.teams
	}
	if o.dryRun {
		cfg.Storage.Backend = config.BackendNone
	}
	if o.static {
		cfg.Fetch.Mode = config.ModeStatic
	}
	if o.noCache {
		cfg.Cache.Enabled = false
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	return nil
}

func resolveApp(ctx context.Context) (App, error) {
	appInstance, ok := ctx.Value(appKey).(App)
	if !ok || appInstance == nil {
		return nil, errors.New("application services not initialized")
	}
	return appInstance, nil
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
