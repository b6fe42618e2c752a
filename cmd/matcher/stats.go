package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/jonathan/provider-matcher/internal/observability"
)

func newStatsCmd(root *rootOptions) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show pool sizes and LLM configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), root)
			if err != nil {
				return err
			}
			defer a.Close()

			stats, err := a.matcher.Stats(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(stats)
			}
			observability.NewPrinter(cmd.OutOrStdout()).PrintStats(stats)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print stats as JSON")
	return cmd
}
