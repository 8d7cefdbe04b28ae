// Package main provides the entry point for the visaingest CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for visaingest.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "visaingest",
		Short: "Ingest visa information from a government portal",
		Long: `visaingest crawls a single government visa portal, scores each page
for relevance, extracts structured visa-type records (eligibility,
documents, fees, processing times, application steps) and stores them
in a local SQLite database with change tracking across runs.`,
		Version:       buildVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewStatsCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
