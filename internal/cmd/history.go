package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/daniel/sitecheck/internal/history"
)

// NewHistoryCommand creates the history command
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded check runs",
		Long: `History lists runs previously recorded with 'check --history',
newest first, with their pass/fail counts.`,
		Args: cobra.NoArgs,
		RunE: historyCommand,
	}

	cmd.Flags().String("db", ".sitecheck/history.db", "Path to the history database")
	cmd.Flags().Int("limit", 10, "Maximum number of runs to list")
	cmd.Flags().Bool("no-color", false, "Disable colored output")

	return cmd
}

// historyCommand implements the history command logic
func historyCommand(cmd *cobra.Command, args []string) error {
	dbPath, _ := cmd.Flags().GetString("db")
	limit, _ := cmd.Flags().GetInt("limit")
	noColor, _ := cmd.Flags().GetBool("no-color")

	if noColor {
		color.NoColor = true
	}

	store, err := history.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer store.Close()

	runs, err := store.ListRuns(cmd.Context(), limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No recorded runs.")
		return nil
	}

	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	for _, r := range runs {
		failed := green.Sprintf("%d failed", r.Failed)
		if r.Failed > 0 {
			failed = red.Sprintf("%d failed", r.Failed)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s  %d checked, %s\n",
			r.ID[:8],
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.BaseURL,
			r.Total,
			failed)
	}

	return nil
}
