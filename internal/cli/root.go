package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/modcheck/internal/config"
	"github.com/mvp-joe/modcheck/internal/fixture"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "modcheck",
	Short: "Verify module dependency declarations against fixtures",
	Long: `modcheck checks that every symbol a target references is reachable
through the target's declared module dependencies.

Fixtures describe modules (exports, dependencies, imports) and targets whose
code fragments reference symbols. For each target, modcheck synthesizes the
header its module would see, checks the fragments against it, and compares
the outcome with the fixture's expectation.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and returns the process exit code.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute(ctx context.Context) int {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return exitCode(err)
	}
	return 0
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .modcheck/config.yml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// newLogger creates the CLI logger. Verbose output enables debug records.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// loadConfig loads configuration for the current directory, honoring --config.
func loadConfig() (*config.Config, error) {
	projectPath, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}

	var opts []config.LoaderOption
	if cfgFile != "" {
		opts = append(opts, config.WithConfigFile(cfgFile))
	}

	cfg, err := config.NewLoader(projectPath, opts...).Load()
	if err != nil {
		return nil, usageError(fmt.Errorf("failed to load configuration: %w", err))
	}
	return cfg, nil
}

// loadOptions converts scan settings to fixture decoding options.
func loadOptions(cfg *config.Config) []fixture.Option {
	if cfg.Scan.DefaultLanguage == "" {
		return nil
	}
	return []fixture.Option{fixture.WithDefaultLanguage(cfg.Scan.DefaultLanguage)}
}
