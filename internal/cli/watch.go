package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/modcheck/internal/config"
	"github.com/mvp-joe/modcheck/internal/watcher"
)

var watchFlags runFlagValues

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch <fixture-file>...",
	Short: "Re-run fixtures whenever a fixture file changes",
	Long: `Watch runs the fixture files once, then watches them and re-runs every
fixture after each change. Rapid edits are coalesced using watch.debounce.

Malformed fixtures are reported and watching continues, so a file can be
fixed in place. Press Ctrl+C to stop.

Example:
  modcheck watch testdata/fixtures/mixed_source_framework.yaml
`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	addRunFlags(watchCmd, &watchFlags)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyRunFlags(cmd, cfg, &watchFlags); err != nil {
		return err
	}

	log := newLogger(cmd.ErrOrStderr(), verbose)
	settings := runSettings{
		filter:  watchFlags.filter,
		record:  cfg.History.Enabled,
		verbose: verbose,
	}

	files, err := watcher.NewFileWatcher(args,
		watcher.WithDebounce(cfg.Watch.Debounce),
		watcher.WithLogger(log),
	)
	if err != nil {
		return usageError(err)
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	handler := newRerunHandler(cfg, args, settings, out, log)

	// Initial run before any change
	if err := handler.HandleChange(ctx, nil); err != nil {
		log.Warn("initial run failed", "error", err)
	}

	fmt.Fprintf(out, "\nWatching %d file(s) for changes. Press Ctrl+C to stop.\n", len(args))
	coordinator := watcher.NewWatchCoordinator(files, handler, log)
	if err := coordinator.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// newRerunHandler returns a change handler that re-runs every fixture file.
// Fixture failures are part of the report, not handler errors.
func newRerunHandler(cfg *config.Config, paths []string, s runSettings, out io.Writer, log *slog.Logger) watcher.ChangeHandler {
	return watcher.ChangeHandlerFunc(func(ctx context.Context, changed []string) error {
		if len(changed) > 0 {
			fmt.Fprintf(out, "\n%s changed, re-running\n\n", strings.Join(changed, ", "))
		}

		_, err := executeRun(ctx, cfg, paths, s, out, log)
		if errors.Is(err, errFixturesFailed) {
			// Already in the report
			return nil
		}
		return err
	})
}
