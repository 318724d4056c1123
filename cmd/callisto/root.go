package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "callisto",
	Short: "Callisto - routing reverse proxy for JSON-RPC backends",
	Long: `Callisto is a routing reverse proxy that sits in front of a weighted
pool of JSON-RPC backends.

It authenticates clients with a shared-secret api-key query parameter,
spreads traffic across the pool by configured weights, and pins selected
JSON-RPC methods to dedicated endpoints:
  - Weighted-random backend selection
  - Per-method routing overrides
  - Background backend health monitoring
  - Request audit trails and Prometheus metrics
  - Hot configuration reload`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.CompletionOptions.DisableDefaultCmd = false
}
