package mcp

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	"github.com/mvp-joe/modcheck/internal/storage"
)

// ServerConfig configures the modcheck MCP server.
type ServerConfig struct {
	Name    string
	Version string
	Run     RunToolConfig
	History *storage.History // Optional; enables run recording and modcheck_history
	Logger  *slog.Logger
}

// MCPServer manages the MCP server lifecycle.
type MCPServer struct {
	mcp *server.MCPServer
	log *slog.Logger
}

// NewMCPServer creates a server with modcheck's tools registered.
func NewMCPServer(cfg ServerConfig) *MCPServer {
	if cfg.Name == "" {
		cfg.Name = "modcheck-mcp"
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	mcpServer := server.NewMCPServer(
		cfg.Name,
		cfg.Version,
		server.WithToolCapabilities(true),
	)

	if cfg.History != nil {
		cfg.Run.Recorder = cfg.History
		AddModcheckHistoryTool(mcpServer, cfg.History)
	}
	AddModcheckRunTool(mcpServer, cfg.Run)

	return &MCPServer{mcp: mcpServer, log: log}
}

// Serve starts the MCP server on stdio and blocks until shutdown.
func (s *MCPServer) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("starting MCP server on stdio")
		if err := server.ServeStdio(s.mcp); err != nil {
			errCh <- fmt.Errorf("MCP server error: %w", err)
		}
	}()

	select {
	case <-sigCh:
		s.log.Info("received shutdown signal, stopping")
		return nil
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
