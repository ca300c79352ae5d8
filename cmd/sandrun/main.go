// Command sandrun executes sandboxed snippets against configured tool
// sources, runs the agent loop, and can serve the sandbox as an MCP tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sandrundev/sandrun"
	"github.com/sandrundev/sandrun/config"
	"github.com/sandrundev/sandrun/sandbox"
	"github.com/sandrundev/sandrun/telemetry"
	"github.com/sandrundev/sandrun/tool"
	"github.com/sandrundev/sandrun/tool/mcp"
)

var (
	configPath string
	logger     *zap.Logger
)

func main() {
	root := &cobra.Command{
		Use:           "sandrun",
		Short:         "Sandboxed executor for LLM-generated code",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			logger, err = zap.NewProduction()
			if err != nil {
				return fmt.Errorf("initializing logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to the YAML config file")

	root.AddCommand(newRunCmd(), newToolsCmd(), newAgentCmd(), newServeCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig reads the configured file; no file means defaults.
func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}

// buildRegistry connects the configured MCP servers. The returned cleanup
// is always safe to call.
func buildRegistry(cmd *cobra.Command, cfg *config.Config) (tool.Registry, func(), error) {
	if len(cfg.MCP.Servers) == 0 {
		return nil, func() {}, nil
	}
	reg := mcp.NewRegistry(sandbox.NewZapLogger(logger))
	if err := reg.Start(cmd.Context(), cfg.MCP.Servers); err != nil {
		_ = reg.Stop()
		return nil, func() {}, err
	}
	return reg, func() { _ = reg.Stop() }, nil
}

// buildRunner assembles a sandbox runner from the app config.
func buildRunner(cfg *config.Config, registry tool.Registry, metrics *telemetry.Metrics) (*sandrun.Runner, error) {
	timeout, err := cfg.SandboxTimeout()
	if err != nil {
		return nil, err
	}

	opts := []sandrun.Option{
		sandrun.WithLogger(sandbox.NewZapLogger(logger)),
	}
	if cfg.Sandbox.MaxToolCalls != 0 {
		opts = append(opts, sandrun.WithMaxToolCalls(cfg.Sandbox.MaxToolCalls))
	}
	if timeout > 0 {
		opts = append(opts, sandrun.WithTimeout(timeout))
	}
	if cfg.Sandbox.AllowedModules != nil {
		opts = append(opts, sandrun.WithAllowedModules(cfg.Sandbox.AllowedModules))
	}
	if cfg.Sandbox.AllowedBuiltins != nil {
		opts = append(opts, sandrun.WithAllowedBuiltins(cfg.Sandbox.AllowedBuiltins))
	}
	if metrics != nil {
		opts = append(opts, sandrun.WithMetrics(metrics))
	}
	return sandrun.New(registry, opts...)
}
