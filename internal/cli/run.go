package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/modcheck/internal/config"
	"github.com/mvp-joe/modcheck/internal/fixture"
	"github.com/mvp-joe/modcheck/internal/runner"
	"github.com/mvp-joe/modcheck/internal/storage"
)

// runFlagValues holds the flags shared by run and watch.
type runFlagValues struct {
	policy   string
	workers  int
	timeout  time.Duration
	filter   string
	progress bool
	record   bool
}

var runFlags runFlagValues

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <fixture-file>...",
	Short: "Run fixture files and report pass/fail per fixture",
	Long: `Run loads every fixture file, checks each target against the header
synthesized from its declared dependencies, and compares the outcome with
the fixture's expectation.

Exit status is 0 when every fixture passes, 1 when any fixture fails and 2
when a fixture file is malformed or the configuration is invalid.

Examples:
  # Run the bundled fixtures
  modcheck run testdata/fixtures/*.yaml

  # Show synthesized headers and only run matching fixtures
  modcheck run -v --filter 'mixed-*' fixtures.yaml

  # Record the run in the history database
  modcheck run --record fixtures.yaml
`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	addRunFlags(runCmd, &runFlags)
	runCmd.Flags().BoolVar(&runFlags.progress, "progress", false, "Show a progress bar on stderr")
	runCmd.Flags().BoolVar(&runFlags.record, "record", false, "Store the run in the history database")
}

// addRunFlags registers the fixture-selection and runner flags on cmd.
func addRunFlags(cmd *cobra.Command, v *runFlagValues) {
	cmd.Flags().StringVar(&v.policy, "policy", "", "Unknown dependency policy: strict or permissive (default from config)")
	cmd.Flags().IntVar(&v.workers, "workers", 0, "Fixtures checked concurrently (default from config)")
	cmd.Flags().DurationVar(&v.timeout, "timeout", 0, "Per-fixture timeout (default from config)")
	cmd.Flags().StringVar(&v.filter, "filter", "", "Only run fixtures whose name matches this glob")
}

// applyRunFlags overrides configuration with explicitly set flags and
// revalidates the result.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config, v *runFlagValues) error {
	flags := cmd.Flags()
	if flags.Changed("policy") {
		cfg.Policy = v.policy
	}
	if flags.Changed("workers") {
		cfg.Workers = v.workers
	}
	if flags.Changed("timeout") {
		cfg.Timeout = v.timeout
	}
	if err := config.Validate(cfg); err != nil {
		return usageError(fmt.Errorf("invalid flags: %w", err))
	}
	return nil
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyRunFlags(cmd, cfg, &runFlags); err != nil {
		return err
	}

	log := newLogger(cmd.ErrOrStderr(), verbose)
	settings := runSettings{
		filter:   runFlags.filter,
		progress: runFlags.progress,
		record:   runFlags.record || cfg.History.Enabled,
		verbose:  verbose,
	}

	_, err = executeRun(cmd.Context(), cfg, args, settings, cmd.OutOrStdout(), log)
	return err
}

// runSettings are per-invocation choices that are not configuration.
type runSettings struct {
	filter   string
	progress bool
	record   bool
	verbose  bool
}

// executeRun loads fixtures, runs them and writes the report to out. The
// returned error carries the exit code: usage for malformed input, failure
// when any fixture failed.
func executeRun(ctx context.Context, cfg *config.Config, paths []string, s runSettings, out io.Writer, log *slog.Logger) (*runner.Summary, error) {
	fixtures, err := fixture.LoadAll(paths, loadOptions(cfg)...)
	if err != nil {
		return nil, usageError(err)
	}
	log.Debug("loaded fixtures", "files", len(paths), "fixtures", len(fixtures))

	opts, err := cfg.ToRunnerOptions()
	if err != nil {
		return nil, usageError(err)
	}
	opts.Filter = s.filter
	opts.Logger = log
	if s.progress {
		opts.Reporter = newProgressReporter(os.Stderr)
	}

	r, err := runner.New(opts)
	if err != nil {
		return nil, usageError(err)
	}

	summary := r.Run(ctx, fixtures)
	runner.WriteReport(out, summary, s.verbose)

	if s.record {
		if cfg.History.Path == "" {
			return summary, usageError(fmt.Errorf("cannot record run: history.path is not set"))
		}
		if err := recordRun(ctx, cfg.History.Path, summary); err != nil {
			return summary, err
		}
		log.Debug("recorded run", "run_id", summary.RunID, "path", cfg.History.Path)
	}

	if !summary.OK() {
		return summary, failureError(fmt.Errorf("%d of %d %w", summary.Failed(), len(summary.Results), errFixturesFailed))
	}
	return summary, nil
}

// recordRun appends a summary to the history database at path.
func recordRun(ctx context.Context, path string, summary *runner.Summary) error {
	history, err := storage.OpenHistory(path)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer history.Close()

	if err := history.RecordRun(ctx, storage.NewRunRecord(summary)); err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}
