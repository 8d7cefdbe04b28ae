package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dohadev/visaingest/internal/config"
	"github.com/dohadev/visaingest/internal/database"
	"github.com/dohadev/visaingest/internal/report"
)

// NewStatsCmd creates the stats command.
func NewStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show statistics for the local dataset",
		Long: `Stats reports how many sources, pages, visa types and change records
the local database holds, and when content was last fetched.

Examples:
  # Show dataset statistics
  visaingest stats

  # As Markdown
  visaingest stats --markdown`,
		RunE: runStatsCmd,
	}

	cmd.Flags().BoolP("markdown", "m", false, "Output statistics as Markdown")
	cmd.Flags().String("db-dir", "", "Database directory (default: XDG data directory)")

	return cmd
}

// runStatsCmd executes the stats command.
func runStatsCmd(cmd *cobra.Command, _ []string) error {
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	// Stats never creates a database; an empty dataset is reported as
	// such rather than materialized.
	store, err := database.Open(dbDir, database.Options{CreateIfNotExists: false, EnableWAL: false})
	if err != nil {
		return fmt.Errorf("no dataset found (run 'visaingest run' first): %w", err)
	}
	defer store.Close()

	stats, err := store.GetStats(cmd.Context())
	if err != nil {
		return err
	}

	markdown, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	if markdown {
		_, err = report.NewMarkdownWriter(os.Stdout).WriteStats(stats)
		return err
	}
	_, err = report.NewSimpleWriter(os.Stdout).WriteStats(stats)
	return err
}
