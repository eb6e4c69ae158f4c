package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/modcheck/internal/mcp"
	"github.com/mvp-joe/modcheck/internal/storage"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for running fixtures",
	Long: `Start the Model Context Protocol (MCP) server so coding assistants can
run modcheck fixtures and inspect the outcome.

The MCP server:
- Provides the modcheck_run tool (run fixture files, JSON outcome)
- Provides the modcheck_history tool when history.enabled is set
- Communicates via stdio (standard MCP transport)

Logs go to stderr; stdout carries the protocol.

Example:
  modcheck mcp`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	opts, err := cfg.ToRunnerOptions()
	if err != nil {
		return usageError(err)
	}
	log := newLogger(cmd.ErrOrStderr(), verbose)
	opts.Logger = log

	serverCfg := mcp.ServerConfig{
		Name:    "modcheck",
		Version: Version,
		Run: mcp.RunToolConfig{
			Runner: opts,
			Load:   loadOptions(cfg),
		},
		Logger: log,
	}

	if cfg.History.Enabled {
		history, err := storage.OpenHistory(cfg.History.Path)
		if err != nil {
			return fmt.Errorf("failed to open history: %w", err)
		}
		defer history.Close()
		serverCfg.History = history
		log.Info("recording runs", "path", cfg.History.Path)
	}

	// Serve (blocks until shutdown)
	if err := mcp.NewMCPServer(serverCfg).Serve(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
