package main

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/sandrundev/sandrun/sandbox"
)

type runCodeInput struct {
	Code string `json:"code" jsonschema:"the snippet to execute in the sandbox"`
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Expose the sandbox as an MCP server over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			registry, cleanup, err := buildRegistry(cmd, cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			runner, err := buildRunner(cfg, registry, nil)
			if err != nil {
				return err
			}

			server := mcp.NewServer(&mcp.Implementation{Name: "sandrun", Version: "1.0.0"}, nil)
			mcp.AddTool(server, &mcp.Tool{
				Name:        "run_code",
				Description: "Execute a sandboxed snippet and report status, result, and timing.",
			}, func(ctx context.Context, req *mcp.CallToolRequest, in runCodeInput) (*mcp.CallToolResult, sandbox.ExecutionResult, error) {
				return nil, runner.Run(ctx, in.Code), nil
			})

			return server.Run(cmd.Context(), &mcp.StdioTransport{})
		},
	}
}
