package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

func newToolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the tools snippets can call",
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

			if registry == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "No tool sources configured; snippets get builtins and modules only.")
				return nil
			}

			specs, err := registry.List(cmd.Context())
			if err != nil {
				return err
			}

			title := cases.Title(language.Und)
			for _, spec := range specs {
				params := make([]string, len(spec.Params))
				for i, p := range spec.Params {
					params[i] = p.Name
					if !p.Required {
						params[i] += "?"
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s(%s)\n",
					title.String(strings.ReplaceAll(spec.Name, "_", " ")),
					spec.Name, strings.Join(params, ", "))
				if spec.Description != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "    %s\n", spec.Description)
				}
			}
			return nil
		},
	}
}
