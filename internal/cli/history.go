package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/modcheck/internal/storage"
)

var (
	historyLimitFlag int
	historyPruneFlag int
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded runs",
	Long: `History lists runs stored by 'modcheck run --record' (or every run when
history.enabled is set), newest first.

Examples:
  # Show the last 10 runs
  modcheck history --limit 10

  # Keep only the 50 newest runs
  modcheck history --prune 50
`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVarP(&historyLimitFlag, "limit", "n", 20, "Maximum number of runs to list (0 lists all)")
	historyCmd.Flags().IntVar(&historyPruneFlag, "prune", 0, "Delete all but the newest N runs before listing")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	prune := -1
	if cmd.Flags().Changed("prune") {
		prune = historyPruneFlag
	}
	return showHistory(cmd.Context(), cfg.History.Path, historyLimitFlag, prune, cmd.OutOrStdout())
}

// showHistory lists stored runs. A non-negative prune first deletes all but
// the newest prune runs.
func showHistory(ctx context.Context, path string, limit, prune int, out io.Writer) error {
	if limit < 0 {
		return usageError(fmt.Errorf("--limit must not be negative, got %d", limit))
	}
	if path == "" {
		return usageError(fmt.Errorf("history.path is not set"))
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprintln(out, "No runs recorded")
		return nil
	}

	history, err := storage.OpenHistory(path)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer history.Close()

	if prune >= 0 {
		removed, err := history.Prune(ctx, prune)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ Pruned %d run(s)\n", removed)
	}

	runs, err := history.ListRuns(ctx, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded")
		return nil
	}

	for _, run := range runs {
		status := "PASS"
		if run.Failed > 0 {
			status = "FAIL"
		}
		fmt.Fprintf(out, "%s  %s  %s  %d passed, %d failed",
			run.StartedAt.Local().Format("2006-01-02 15:04:05"), status, run.RunID, run.Passed, run.Failed)
		if run.Skipped > 0 {
			fmt.Fprintf(out, ", %d skipped", run.Skipped)
		}
		fmt.Fprintf(out, " (%s)\n", run.Duration)
	}
	return nil
}
