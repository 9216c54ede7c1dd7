package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"meridian-hq/meridian/pkg/cli"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "meridian",
	Short: "Meridian - OpenAI-compatible AI gateway",
	Long: `Meridian is an OpenAI-compatible gateway that routes chat completion
requests across multiple upstream AI providers.

It provides:
  - Weighted provider selection with health-aware fallback
  - Model alias mapping per provider
  - Streaming relay with buffered and direct transports
  - API key authentication with daily quotas
  - A per-request usage ledger with retention pruning`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.CompletionOptions.DisableDefaultCmd = false
}
