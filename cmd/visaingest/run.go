package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dohadev/visaingest/internal/config"
	"github.com/dohadev/visaingest/internal/crawler"
	"github.com/dohadev/visaingest/internal/database"
	"github.com/dohadev/visaingest/internal/loader"
	"github.com/dohadev/visaingest/internal/log"
	"github.com/dohadev/visaingest/internal/pipeline"
	"github.com/dohadev/visaingest/internal/report"
)

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [seed-urls...]",
		Short: "Run one ingestion pass over the configured portal",
		Long: `Run crawls the configured visa portal once: it follows same-origin
links from the seed URLs, scores each page for relevance, extracts
visa-type records from accepted pages and stores them in the local
SQLite database. Pages whose content did not change since the previous
run are detected by hash and left untouched; changed pages are
regenerated and logged in the change history.

Examples:
  # Crawl a portal's visa section
  visaingest run --base-url https://portal.example.gov --seed https://portal.example.gov/visas

  # Tune politeness and crawl bounds
  visaingest run --base-url https://portal.example.gov --max-depth 2 --min-delay 1s --max-delay 3s

  # Use a custom configuration file and write a Markdown summary
  visaingest run -c portal.yaml --markdown -o summary.md

Configuration file (.visaingest) example:
  baseURL: https://portal.example.gov
  seeds:
    - https://portal.example.gov/visas
  maxDepth: 2
  threshold: 50`,
		RunE: runRunCmd,
	}

	cmd.Flags().StringP("base-url", "u", "", "Portal origin; only same-origin URLs are crawled")
	cmd.Flags().StringSliceP("seed", "s", nil, "Starting URL(s), defaults to the base URL")
	cmd.Flags().IntP("max-depth", "d", config.DefaultMaxDepth, "Maximum link depth from the seeds")
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages, "Maximum number of pages to visit")
	cmd.Flags().Duration("min-delay", config.DefaultMinDelay, "Minimum politeness delay between requests")
	cmd.Flags().Duration("max-delay", config.DefaultMaxDelay, "Maximum politeness delay between requests")
	cmd.Flags().IntP("retries", "r", config.DefaultMaxRetries, "Retry ceiling for transient fetch failures")
	cmd.Flags().DurationP("timeout", "t", config.DefaultFetchTimeout, "Per-request fetch timeout")
	cmd.Flags().IntP("workers", "w", config.DefaultWorkers, "Number of concurrent crawl workers")
	cmd.Flags().Int("threshold", config.DefaultThreshold, "Content relevance acceptance score (0-100)")
	cmd.Flags().Bool("no-robots", false, "Skip robots.txt (fixture-backed testing only)")
	cmd.Flags().String("user-agent", config.DefaultUserAgent, "User-Agent header for all requests")

	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .visaingest in current or home directory)")
	cmd.Flags().String("db-dir", "", "Database directory (default: XDG data directory)")

	cmd.Flags().BoolP("markdown", "m", false, "Output the run summary as Markdown")
	cmd.Flags().BoolP("json-log", "j", false, "Emit logs as JSON instead of text")
	cmd.Flags().StringP("output", "o", "",
		"Write the run summary to the specified file path (creates directories if needed)")

	return cmd
}

// runRunCmd executes the run command.
func runRunCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	// Positional arguments are seed URLs and take precedence over both
	// the config file and the --seed flag.
	if len(args) > 0 {
		cfg.Seeds = args
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runIngestion(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from defaults, the optional config file
// and command flags, in that precedence order.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error
	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Overlay the config file before flags so explicit flags win.
	// An explicitly named file that doesn't exist is an error; a
	// missing default file is not.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	if configPath != "" {
		cf, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cf.Apply(cfg)
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	flagSetters := []func() error{
		func() error { return overrideString(cmd, "base-url", &cfg.BaseURL) },
		func() error { return overrideStringSlice(cmd, "seed", &cfg.Seeds) },
		func() error { return overrideInt(cmd, "max-depth", &cfg.MaxDepth) },
		func() error { return overrideInt(cmd, "max-pages", &cfg.MaxPages) },
		func() error { return overrideDuration(cmd, "min-delay", &cfg.MinDelay) },
		func() error { return overrideDuration(cmd, "max-delay", &cfg.MaxDelay) },
		func() error { return overrideInt(cmd, "retries", &cfg.MaxRetries) },
		func() error { return overrideDuration(cmd, "timeout", &cfg.FetchTimeout) },
		func() error { return overrideInt(cmd, "workers", &cfg.Workers) },
		func() error { return overrideInt(cmd, "threshold", &cfg.Threshold) },
		func() error { return overrideString(cmd, "user-agent", &cfg.UserAgent) },
		func() error { return overrideString(cmd, "db-dir", &cfg.DBDir) },
	}
	for _, set := range flagSetters {
		if err := set(); err != nil {
			return nil, err
		}
	}

	noRobots, err := cmd.Flags().GetBool("no-robots")
	if err != nil {
		return nil, err
	}
	if noRobots {
		cfg.HonorRobots = false
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}
	cfg.JSONLog, err = cmd.Flags().GetBool("json-log")
	if err != nil {
		return nil, err
	}
	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	cfg.Verbose = getVerboseFlag(cmd)
	return cfg, nil
}

// overrideString applies a string flag when the user set it, so config
// file values survive unset flags.
func overrideString(cmd *cobra.Command, name string, dst *string) error {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func overrideStringSlice(cmd *cobra.Command, name string, dst *[]string) error {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := cmd.Flags().GetStringSlice(name)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func overrideInt(cmd *cobra.Command, name string, dst *int) error {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := cmd.Flags().GetInt(name)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func overrideDuration(cmd *cobra.Command, name string, dst *time.Duration) error {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := cmd.Flags().GetDuration(name)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

// setupLogger creates the structured logger for the run.
func setupLogger(cfg *config.Config) *slog.Logger {
	if cfg.JSONLog {
		return log.NewJSONLogger(os.Stderr, cfg.Verbose)
	}
	return log.NewLogger(os.Stderr, cfg.Verbose)
}

// runIngestion wires the store, guard, fetcher, loader and pipeline
// together and executes one run.
func runIngestion(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	store, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()
	logger.Info("database opened", "dir", cfg.DBDir)

	client := &http.Client{Timeout: cfg.FetchTimeout}
	guard := crawler.NewGuard(ctx, client, cfg.BaseURL, cfg.UserAgent, cfg.HonorRobots,
		crawler.WithDelayRange(cfg.MinDelay, cfg.MaxDelay),
		crawler.WithGuardLogger(logger),
	)
	fetcher := crawler.NewHTTPFetcher(client,
		crawler.WithUserAgent(cfg.UserAgent),
		crawler.WithMaxBodySize(cfg.MaxBodySize),
		crawler.WithTimeout(cfg.FetchTimeout),
	)
	ldr := loader.New(store, logger)

	p, err := pipeline.New(cfg, guard, fetcher, ldr, logger)
	if err != nil {
		return err
	}

	fmt.Printf("Ingesting %s...\n", cfg.BaseURL)
	summary, err := p.Run(ctx)
	if err != nil {
		return err
	}

	return outputSummary(cfg, summary)
}

// outputSummary writes the run summary in the requested format and
// destination.
func outputSummary(cfg *config.Config, summary *pipeline.Summary) error {
	output, closeOutput, err := summaryOutput(cfg.ReportFile)
	if err != nil {
		return err
	}
	defer closeOutput()

	if cfg.MarkdownReport {
		_, err := report.NewMarkdownWriter(output).WriteSummary(summary)
		return err
	}
	_, err = report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose)).WriteSummary(summary)
	return err
}

// summaryOutput resolves the summary destination: a file when one was
// requested, stdout otherwise.
func summaryOutput(path string) (*os.File, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // user-provided output path is intentional
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}
