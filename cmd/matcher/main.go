// Package main provides the matcher CLI: interactive matching between medical
// directors and nurses, and the HTTP API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	model      string
}

func newRootCmd() *cobra.Command {
	root := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "matcher",
		Short:         "Medical director and nurse matching assistant",
		Long:          "matcher pairs medical directors with nurse practitioners and registered nurses by asking an LLM to rank a pre-filtered candidate list.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&root.configPath, "config", "c", "", "Path to a JSON config file (overrides environment)")
	rootCmd.PersistentFlags().StringVar(&root.model, "model", "", "LLM model name (overrides config)")

	rootCmd.AddCommand(
		newMatchCmd(root),
		newStatsCmd(root),
		newServeCmd(root),
		newHashSecretCmd(),
	)
	return rootCmd
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
