package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"aurora-ml/relay/pkg/cli"
	"aurora-ml/relay/pkg/usage"
)

var usageFlags struct {
	since  string
	format string
}

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Summarize recorded provider usage",
	Long: `Summarize recorded provider usage from the usage ledger.

The summary covers requests, success rates, token counts, and estimated
cost per provider within the window. The window defaults to the last 24
hours and accepts either a duration or an RFC 3339 timestamp.

Examples:
  # Usage over the last 24 hours
  relay usage

  # Usage over the last week
  relay usage --since 168h

  # Usage since a fixed point in time
  relay usage --since 2026-08-01T00:00:00Z

  # Structured output for scripting
  relay usage --format json`,
	RunE: runUsage,
}

func init() {
	rootCmd.AddCommand(usageCmd)

	usageCmd.Flags().StringVar(&usageFlags.since, "since", "24h", "window start: duration or RFC 3339 timestamp")
	usageCmd.Flags().StringVarP(&usageFlags.format, "format", "f", "text", "output format: text, json")
}

func runUsage(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(usageFlags.format)
	if err != nil {
		return err
	}

	since, err := parseSinceFlag(usageFlags.since)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return cli.NewConfigError(cfgFile, err.Error())
	}
	if !cfg.Usage.IsEnabled() {
		return fmt.Errorf("usage tracking is disabled in the configuration")
	}

	log, err := newLogger(cfg.Telemetry.Logging, "warn", os.Stderr)
	if err != nil {
		return cli.NewConfigError(cfgFile, err.Error())
	}

	store, err := openUsageStorage(cfg, log.Logger)
	if err != nil {
		return cli.NewCommandError("usage", fmt.Errorf("failed to open usage storage: %w", err))
	}
	defer store.Close()

	ctx, stop := cli.SignalContext()
	defer stop()

	summary, err := store.Summarize(ctx, since)
	if err != nil {
		return cli.NewCommandError("usage", err)
	}

	if format == cli.FormatJSON {
		return cli.NewFormatter(format).FormatTo(os.Stdout, summary)
	}

	renderUsageSummary(os.Stdout, summary)
	return nil
}

// parseSinceFlag accepts a duration ("24h") or an RFC 3339 timestamp.
func parseSinceFlag(raw string) (time.Time, error) {
	if d, err := time.ParseDuration(raw); err == nil {
		if d < 0 {
			return time.Time{}, fmt.Errorf("--since duration must be positive, got %q", raw)
		}
		return time.Now().Add(-d), nil
	}

	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("--since must be a duration or an RFC 3339 timestamp, got %q", raw)
	}
	return t, nil
}

func renderUsageSummary(w io.Writer, summary *usage.Summary) {
	fmt.Fprintf(w, "Usage since %s\n\n", summary.Since.Format(time.RFC3339))

	if len(summary.Providers) == 0 {
		fmt.Fprintln(w, "No usage recorded in this window.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PROVIDER\tREQUESTS\tSUCCESS\tTOKENS\tCOST (USD)")
	for _, p := range summary.Providers {
		fmt.Fprintf(tw, "%s\t%d\t%.1f%%\t%d\t%.4f\n",
			p.Provider, p.Requests, p.SuccessRate*100, p.TotalTokens, p.EstimatedCost)
	}
	tw.Flush()

	fmt.Fprintf(w, "\nTotal: %d requests, %d tokens, $%.4f\n",
		summary.TotalRequests, summary.TotalTokens, summary.TotalCost)
}
