package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"mercator-hq/callisto/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Load and validate a configuration file without starting the server.

Validation collects every problem in one pass instead of stopping at the
first, so a broken file can be fixed in a single round trip. Checks include:
  - At least one API key, none empty
  - At least one backend, each with a valid absolute URL and weight >= 1
  - Unique, non-empty backend labels
  - Method route targets that parse as absolute URLs
  - A positive upstream timeout

Examples:
  # Validate the default config
  callisto validate

  # Validate a specific file
  callisto validate --config /etc/callisto/config.yaml`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		var verr config.ValidationError
		if errors.As(err, &verr) {
			fmt.Printf("✗ Configuration invalid (%d problems):\n", len(verr.Errors))
			for _, fe := range verr.Errors {
				fmt.Printf("  - %s: %s\n", fe.Field, fe.Message)
			}
			return fmt.Errorf("configuration invalid")
		}
		return fmt.Errorf("failed to load config: %w", err)
	}

	fmt.Println("✓ Configuration valid")
	fmt.Printf("  API keys:       %d\n", len(cfg.APIKeys))
	fmt.Printf("  Backends:       %d\n", len(cfg.Backends))
	for _, b := range cfg.Backends {
		fmt.Printf("    - %s (weight %d)\n", b.Label, b.Weight)
	}
	fmt.Printf("  Method routes:  %d\n", len(cfg.MethodRoutes))
	fmt.Printf("  Upstream timeout: %s\n", cfg.Proxy.UpstreamTimeout)
	if cfg.HealthCheck.Enabled {
		fmt.Printf("  Health checks:  every %s\n", cfg.HealthCheck.Interval)
	}
	if cfg.Audit.Enabled {
		fmt.Printf("  Audit backend:  %s\n", cfg.Audit.Backend)
	}
	return nil
}
