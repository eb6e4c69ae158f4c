package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mvp-joe/modcheck/internal/storage"
)

// RunLister lists stored runs, newest first. *storage.History satisfies it.
type RunLister interface {
	ListRuns(ctx context.Context, limit int) ([]storage.RunRecord, error)
}

// AddModcheckHistoryTool registers the modcheck_history tool with an MCP server.
func AddModcheckHistoryTool(s *server.MCPServer, lister RunLister) {
	tool := mcp.NewTool(
		"modcheck_history",
		mcp.WithDescription("List recorded modcheck runs, newest first, with pass/fail counts."),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of runs to return (1-500, default: 20)")),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	s.AddTool(tool, createModcheckHistoryHandler(lister))
}

func createModcheckHistoryHandler(lister RunLister) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := argsOf(request)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		runs, err := lister.ListRuns(ctx, args.clampedInt("limit", 20, 1, 500))
		if err != nil {
			return nil, fmt.Errorf("failed to list runs: %w", err)
		}

		resp := HistoryResponse{Runs: make([]HistoryRun, 0, len(runs))}
		for _, rec := range runs {
			resp.Runs = append(resp.Runs, newHistoryRun(rec))
		}

		jsonData, err := json.Marshal(resp)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response: %w", err)
		}
		return mcp.NewToolResultText(string(jsonData)), nil
	}
}
