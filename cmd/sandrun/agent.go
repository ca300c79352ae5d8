package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sandrundev/sandrun/agent"
)

func newAgentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "agent <query>",
		Short: "Answer a query by looping snippets through the sandbox",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			apiKey := cfg.APIKey()
			if apiKey == "" {
				return fmt.Errorf("set %s to use the agent", cfg.Agent.APIKeyEnv)
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

			planner, err := agent.NewGeminiPlanner(apiKey, agent.WithModel(cfg.Agent.Model))
			if err != nil {
				return err
			}

			loop, err := agent.NewLoop(planner, runner, registry, cfg.Agent.MaxSteps, logger)
			if err != nil {
				return err
			}

			session, err := loop.Run(cmd.Context(), query)
			for _, step := range session.Steps {
				if step.Result == nil {
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "step %d: %s\n", step.Index+1, step.Result.Status)
			}
			if err != nil {
				if errors.Is(err, agent.ErrMaxSteps) {
					fmt.Fprintln(cmd.OutOrStdout(), "no conclusion reached")
				}
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), session.Answer)
			return nil
		},
	}
}
