package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// newCrawlCmd creates the 'crawl' subcommand, which runs one full harvest.
func newCrawlCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "crawl",
		Short: "Crawl every configured team and write roster snapshots",
		Long: `Fetches every team roster concurrently, then each player's detail page
in roster order. Both snapshot files are rewritten after every player, so
an interrupted run still leaves a usable partial snapshot.`,
		Args: cobra.NoArgs,
		RunE: runCrawlCommand,
	}
}

func runCrawlCommand(cmd *cobra.Command, _ []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}

	summary, err := appInstance.Run(cmd.Context())
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("run crawler: %w", err)
	}

	out := cmd.OutOrStdout()
	p := summary.Progress
	fmt.Fprintf(out, "teams: %d loaded, %d failed\n", p.TeamsLoaded, p.TeamsFailed)
	fmt.Fprintf(out, "players: %d fetched, %d skipped, %d failed\n", p.Fetched, p.Skipped, p.Failed)
	if summary.TeamFile != "" {
		fmt.Fprintf(out, "team snapshot: %s\n", summary.TeamFile)
		fmt.Fprintf(out, "league snapshot: %s\n", summary.LeagueFile)
	}
	return nil
}
