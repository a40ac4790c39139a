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
	Use:   "relay",
	Short: "Relay - resilient gateway for LLM text generation",
	Long: `Relay is a resilient gateway for LLM text generation across interchangeable
providers (OpenAI, Anthropic, Together, Mistral, Hugging Face).

It serves one generation API backed by a priority-ordered provider chain:
  - Automatic failover when a provider errors, times out, or is rate limited
  - Per-provider circuit breakers with half-open recovery probes
  - Retry with exponential backoff and jitter
  - Usage ledger with token and cost accounting
  - Health, circuit, and usage endpoints for operators

For more information, visit: https://github.com/aurora-ml/relay`,
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
}
