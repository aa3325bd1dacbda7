package cmd

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/JakeFAU/roster-crawler/internal/cache"
)

func newCacheCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cache",
		Short: "List the players in the newest team snapshot and whether they are fresh",
		Args:  cobra.NoArgs,
		RunE:  runCacheCommand,
	}
}

func runCacheCommand(cmd *cobra.Command, _ []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	entries, err := appInstance.CacheEntries(cmd.Context())
	if err != nil {
		return fmt.Errorf("load cache: %w", err)
	}
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no cached players")
		return nil
	}

	now := time.Now()
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"Team", "Player", "Overall", "Age"})
	for _, e := range entries {
		t.AppendRow(table.Row{e.Player.Team, e.Player.Name, overall(e), age(now, e)})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
	return nil
}

func overall(e cache.Entry) string {
	if e.Player.Overall == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *e.Player.Overall)
}

func age(now time.Time, e cache.Entry) string {
	if e.LastUpdated.IsZero() {
		return "-"
	}
	return now.Sub(e.LastUpdated).Truncate(time.Minute).String()
}
