package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mvp-joe/modcheck/internal/fixture"
	"github.com/mvp-joe/modcheck/internal/runner"
	"github.com/mvp-joe/modcheck/internal/storage"
)

// RunRecorder stores completed runs. *storage.History satisfies it.
type RunRecorder interface {
	RecordRun(ctx context.Context, rec *storage.RunRecord) error
}

// RunToolConfig configures the modcheck_run tool.
type RunToolConfig struct {
	Runner   runner.Options   // Base runner options; filter and workers may be overridden per call
	Load     []fixture.Option // Fixture decoding options
	Recorder RunRecorder      // Optional; every run is recorded when set
}

// AddModcheckRunTool registers the modcheck_run tool with an MCP server.
func AddModcheckRunTool(s *server.MCPServer, cfg RunToolConfig) {
	tool := mcp.NewTool(
		"modcheck_run",
		mcp.WithDescription("Run module-dependency fixtures. Each fixture declares modules with exports and dependencies plus targets whose code fragments reference symbols; the harness synthesizes each target's header from its declared dependency closure and reports references that are not covered. Returns per-fixture pass/fail with expected-vs-actual diffs."),
		mcp.WithArray("paths",
			mcp.Required(),
			mcp.Description("Fixture files to run (YAML or JSON), e.g. ['testdata/fixtures/framework.yaml']")),
		mcp.WithString("filter",
			mcp.Description("Glob over fixture names; only matching fixtures run (e.g. 'mixed-*')")),
		mcp.WithNumber("workers",
			mcp.Description("Fixtures checked concurrently (1-64, default: configured value)")),
		mcp.WithBoolean("verbose",
			mcp.Description("Include each target's synthesized header in the result (default: false)")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, createModcheckRunHandler(cfg))
}

// createModcheckRunHandler creates the handler function for modcheck_run tool.
func createModcheckRunHandler(cfg RunToolConfig) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := argsOf(request)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		paths, err := args.strings("paths", true)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		filter, err := args.str("filter", false)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		verbose := args.boolean("verbose", false)

		opts := cfg.Runner
		opts.Filter = filter
		opts.Workers = args.clampedInt("workers", opts.Workers, 1, 64)

		// Malformed fixtures are the caller's problem, not a server failure
		fixtures, err := fixture.LoadAll(paths, cfg.Load...)
		if err != nil {
			var malformed *fixture.MalformedFixtureError
			if errors.As(err, &malformed) {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return nil, fmt.Errorf("failed to load fixtures: %w", err)
		}

		r, err := runner.New(opts)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		summary := r.Run(ctx, fixtures)

		if cfg.Recorder != nil {
			if err := cfg.Recorder.RecordRun(ctx, storage.NewRunRecord(summary)); err != nil {
				return nil, fmt.Errorf("failed to record run: %w", err)
			}
		}

		jsonData, err := json.Marshal(newRunResponse(summary, verbose))
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response: %w", err)
		}

		return mcp.NewToolResultText(string(jsonData)), nil
	}
}
