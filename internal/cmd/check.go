package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/daniel/sitecheck/internal/checker"
	"github.com/daniel/sitecheck/internal/collector"
	"github.com/daniel/sitecheck/internal/config"
	"github.com/daniel/sitecheck/internal/history"
	"github.com/daniel/sitecheck/internal/report"
	"github.com/daniel/sitecheck/internal/watcher"
)

// NewCheckCommand creates the check command
func NewCheckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check every declared URL against a running site",
		Long: `Check collects the canonical and alias URLs declared by the content tree
and requests each one against the base URL with bounded concurrency.

Configuration is loaded from .sitecheck/config.yaml if present.
CLI flags override configuration file settings.

Examples:
  # Check a local hugo server with the defaults
  sitecheck check

  # Check a staging deploy with a short timeout
  sitecheck check --url https://staging.example.com --timeout 10s

  # Keep checking while editing content
  sitecheck check --watch

  # Record the run for later comparison
  sitecheck check --history`,
		Args: cobra.NoArgs,
		RunE: checkCommand,
	}

	cmd.Flags().String("config", "", "Path to config file (default: .sitecheck/config.yaml)")
	cmd.Flags().String("url", "http://localhost:1313", "Base URL to test")
	cmd.Flags().String("content", "content", "Content directory")
	cmd.Flags().Int("workers", 100, "Max concurrent requests")
	cmd.Flags().Duration("timeout", 5*time.Minute, "Per-request timeout")
	cmd.Flags().Float64("rate", 0, "Max requests per second (0 = unlimited)")
	cmd.Flags().Bool("no-color", false, "Disable colored output")
	cmd.Flags().Bool("history", false, "Record the run to the history database")
	cmd.Flags().Bool("watch", false, "Re-run the check when content changes")

	return cmd
}

// checkCommand implements the check command logic
func checkCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadCheckConfig(cmd)
	if err != nil {
		return err
	}

	noColor, _ := cmd.Flags().GetBool("no-color")
	watch, _ := cmd.Flags().GetBool("watch")

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer cancel()

	chk := checker.New(checker.Options{
		Workers:    cfg.Workers,
		Timeout:    cfg.Timeout,
		RatePerSec: cfg.RatePerSec,
		Client:     &http.Client{},
	})
	printer := report.NewPrinter(cmd.OutOrStdout(), noColor)

	var store *history.Store
	if cfg.History.Enabled {
		store, err = history.Open(cfg.History.DBPath)
		if err != nil {
			return fmt.Errorf("failed to open history database: %w", err)
		}
		defer store.Close()
	}

	if watch {
		return watchLoop(ctx, cmd, cfg, chk, printer, store)
	}

	summary, err := runCheck(ctx, cmd, cfg, chk, printer, store)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d URL(s) failed", summary.Failed)
	}
	return nil
}

// runCheck executes one collect-check-report cycle.
func runCheck(ctx context.Context, cmd *cobra.Command, cfg *config.Config, chk *checker.Checker, printer *report.Printer, store *history.Store) (report.Summary, error) {
	startedAt := time.Now()

	urls, err := collector.Collect(cfg.ContentDir)
	if err != nil {
		return report.Summary{}, fmt.Errorf("failed to collect URLs: %w", err)
	}

	printer.Header(cfg.BaseURL, len(urls))

	results := chk.Check(ctx, cfg.BaseURL, urls)

	summary := printer.Results(results)
	printer.Summary(summary)

	if store != nil {
		if err := recordRun(ctx, store, cfg.BaseURL, startedAt, summary, results); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: failed to record run: %v\n", err)
		}
	}

	return summary, nil
}

// recordRun writes a finished run to the history store. History failures
// never change the check outcome.
func recordRun(ctx context.Context, store *history.Store, baseURL string, startedAt time.Time, summary report.Summary, results []checker.Result) error {
	run := history.Run{
		ID:        history.NewRunID(),
		StartedAt: startedAt,
		BaseURL:   baseURL,
		Total:     summary.Total,
		Passed:    summary.Passed,
		Failed:    summary.Failed,
	}

	urlResults := make([]history.URLResult, len(results))
	for i, r := range results {
		errMsg := ""
		if r.Err != nil {
			errMsg = r.Err.Error()
		}
		urlResults[i] = history.URLResult{URL: r.URL, Status: r.Status, Error: errMsg}
	}

	// The run context may already be cancelled on interrupt; record anyway.
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	return store.RecordRun(recordCtx, run, urlResults)
}

// watchLoop runs one check, then re-runs on every content change until
// interrupted. Failures are reported per run; the loop itself exits clean.
func watchLoop(ctx context.Context, cmd *cobra.Command, cfg *config.Config, chk *checker.Checker, printer *report.Printer, store *history.Store) error {
	w, err := watcher.New(cfg.ContentDir)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", cfg.ContentDir, err)
	}
	defer w.Close()

	if _, err := runCheck(ctx, cmd, cfg, chk, printer, store); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintf(cmd.OutOrStdout(), "\nWatch stopped.\n")
			return nil
		case <-w.Changes():
			fmt.Fprintf(cmd.OutOrStdout(), "\nContent changed, re-checking...\n\n")
			if _, err := runCheck(ctx, cmd, cfg, chk, printer, store); err != nil {
				return err
			}
		}
	}
}

// loadCheckConfig loads the config file and overlays explicitly-set flags.
func loadCheckConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
		}
	} else {
		cfg, err = config.LoadConfigFromDir(".")
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	// Build flag pointers for merge (only explicitly set values)
	var baseURLPtr, contentPtr *string
	var workersPtr *int
	var timeoutPtr *time.Duration
	var ratePtr *float64
	var historyPtr *bool

	if cmd.Flags().Changed("url") {
		v, _ := cmd.Flags().GetString("url")
		baseURLPtr = &v
	}
	if cmd.Flags().Changed("content") {
		v, _ := cmd.Flags().GetString("content")
		contentPtr = &v
	}
	if cmd.Flags().Changed("workers") {
		v, _ := cmd.Flags().GetInt("workers")
		workersPtr = &v
	}
	if cmd.Flags().Changed("timeout") {
		v, _ := cmd.Flags().GetDuration("timeout")
		timeoutPtr = &v
	}
	if cmd.Flags().Changed("rate") {
		v, _ := cmd.Flags().GetFloat64("rate")
		ratePtr = &v
	}
	if cmd.Flags().Changed("history") {
		v, _ := cmd.Flags().GetBool("history")
		historyPtr = &v
	}

	cfg.MergeWithFlags(baseURLPtr, contentPtr, workersPtr, timeoutPtr, ratePtr, historyPtr)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
