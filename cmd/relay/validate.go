package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"aurora-ml/relay/pkg/cli"
	"aurora-ml/relay/pkg/config"
	"aurora-ml/relay/pkg/providers"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Validate a configuration file without starting the server.

The validate command loads the configuration, applies defaults and
environment overrides, and reports every validation error it finds. On
success it prints a short summary of the effective configuration.

Examples:
  # Validate the default config.yaml
  relay validate

  # Validate a specific file
  relay validate --config /etc/relay/config.yaml`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithEnvOverrides(cfgFile)
	if err != nil {
		var verr config.ValidationError
		if errors.As(err, &verr) {
			fmt.Fprintf(os.Stderr, "✗ %s is invalid:\n", cfgFile)
			for _, fe := range verr.Errors {
				fmt.Fprintf(os.Stderr, "  - %s\n", fe.Error())
			}
			return cli.NewConfigError(cfgFile, fmt.Sprintf("%d validation error(s)", len(verr.Errors)))
		}
		return cli.NewConfigError(cfgFile, err.Error())
	}

	fmt.Printf("✓ Configuration valid: %s\n\n", cfgFile)
	fmt.Printf("Server:     %s\n", cfg.Server.ListenAddress)
	fmt.Printf("Providers:  %d override(s), %d known kinds\n", len(cfg.Providers), len(providers.Kinds()))
	fmt.Printf("Failover:   breaker trips after %d failures, recovery %s\n",
		cfg.Failover.FailureThreshold, cfg.Failover.RecoveryTimeout())
	if cfg.Usage.IsEnabled() {
		fmt.Printf("Usage:      %s (driver %s)\n", cfg.Usage.Path, cfg.Usage.Driver)
	} else {
		fmt.Println("Usage:      disabled")
	}
	if cfg.Telemetry.Tracing.Enabled {
		fmt.Printf("Tracing:    %s\n", cfg.Telemetry.Tracing.Endpoint)
	}
	if cfg.Watch {
		fmt.Println("Watch:      enabled")
	}

	return nil
}
