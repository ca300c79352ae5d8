package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sandrundev/sandrun/telemetry"
)

func newRunCmd() *cobra.Command {
	var codeFlag string

	cmd := &cobra.Command{
		Use:   "run [file]",
		Short: "Execute a snippet from a file, --code, or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := readCode(codeFlag, args)
			if err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			registry, cleanup, err := buildRegistry(cmd, cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			var metrics *telemetry.Metrics
			if cfg.Metrics.Listen != "" {
				metrics = telemetry.New()
				go serveMetrics(cfg.Metrics.Listen, metrics)
			}

			runner, err := buildRunner(cfg, registry, metrics)
			if err != nil {
				return err
			}

			result := runner.Run(cmd.Context(), code)
			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return fmt.Errorf("encoding result: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	cmd.Flags().StringVar(&codeFlag, "code", "", "snippet text to execute")
	return cmd
}

func readCode(codeFlag string, args []string) (string, error) {
	if codeFlag != "" {
		return codeFlag, nil
	}
	if len(args) == 1 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("reading snippet: %w", err)
		}
		return string(data), nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return string(data), nil
}

func serveMetrics(listen string, metrics *telemetry.Metrics) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	if err := http.ListenAndServe(listen, mux); err != nil {
		logger.Warn("metrics endpoint stopped", zap.Error(err))
	}
}
