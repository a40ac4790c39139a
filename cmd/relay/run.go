package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"aurora-ml/relay/pkg/cli"
	"aurora-ml/relay/pkg/config"
	"aurora-ml/relay/pkg/failover"
	"aurora-ml/relay/pkg/server"
	"aurora-ml/relay/pkg/telemetry/logging"
	"aurora-ml/relay/pkg/telemetry/metrics"
	"aurora-ml/relay/pkg/telemetry/tracing"
	"aurora-ml/relay/pkg/usage"
	"aurora-ml/relay/pkg/usage/costs"
	"aurora-ml/relay/pkg/usage/recorder"
	"aurora-ml/relay/pkg/usage/retention"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Relay gateway server",
	Long: `Start the Relay gateway server with the specified configuration.

The server listens on the configured address and serves generation requests
through the provider failover chain, recording usage and exposing health,
circuit, and admin endpoints.

Examples:
  # Start with default config
  relay run

  # Start with custom config
  relay run --config /etc/relay/config.yaml

  # Override listen address
  relay run --listen 0.0.0.0:8080

  # Validate config without starting server
  relay run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting server")
}

func runServer(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		return cli.NewConfigError(cfgFile, err.Error())
	}

	// Apply flag overrides
	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}

	log, err := newLogger(cfg.Telemetry.Logging, runFlags.logLevel, os.Stdout)
	if err != nil {
		return cli.NewConfigError(cfgFile, err.Error())
	}

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	// Print startup banner
	fmt.Printf("Relay v%s\n", Version)
	fmt.Printf("Loading configuration from: %s\n", cfgFile)
	fmt.Println("✓ Configuration loaded")

	ctx, stop := cli.SignalContext()
	defer stop()

	// Initialize trace export
	tracer, err := tracing.New(ctx, cfg.Telemetry.Tracing, log.Logger)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracer.Shutdown(shutdownCtx); err != nil {
			log.Warn("tracing shutdown failed", "error", err)
		}
	}()

	calculator := costs.NewCalculator(cfg.Usage.Pricing)

	// Metrics collection (if enabled)
	var observers []failover.Observer
	var metricsHandler http.Handler
	if cfg.Telemetry.Metrics.IsEnabled() {
		collector := metrics.NewCollector(cfg.Telemetry.Metrics, calculator, nil)
		metricsHandler = collector.Handler()
		observers = append(observers, collector)
	}

	// Usage ledger (if enabled)
	var store usage.Storage
	if cfg.Usage.IsEnabled() {
		slog.Info("initializing usage ledger",
			"driver", cfg.Usage.Driver,
			"path", cfg.Usage.Path,
		)

		store, err = openUsageStorage(cfg, log.Logger)
		if err != nil {
			return cli.NewCommandError("run", fmt.Errorf("failed to open usage storage: %w", err))
		}
		defer store.Close()

		rec := recorder.NewRecorder(store, calculator, &recorder.Config{
			Enabled:      true,
			AsyncBuffer:  cfg.Usage.AsyncBuffer,
			WriteTimeout: cfg.Usage.WriteTimeout(),
		}, log.Logger)
		defer rec.Close()
		observers = append(observers, rec)

		pruner := retention.NewPruner(store, &retention.Config{
			RetentionDays: cfg.Usage.Retention.Days,
			Schedule:      cfg.Usage.Retention.Schedule,
		}, log.Logger)
		if err := pruner.Start(ctx); err != nil {
			log.Warn("failed to start retention scheduler", "error", err)
		} else {
			defer pruner.Stop()
			if next := pruner.NextPruning(); next != nil {
				slog.Debug("usage retention scheduler started", "next_pruning", next)
			}
		}

		fmt.Println("✓ Usage ledger initialized")
	}

	// Provider chain and failover orchestrator
	orch, err := buildOrchestrator(cfg, log.Logger, observers...)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer orch.Close()

	fmt.Printf("✓ Providers initialized (%s)\n", joinKinds(orch.Chain()))

	// Create HTTP server
	srv := server.New(cfg.Server, orch, server.Options{
		UsageStorage: store,
		Metrics:      metricsHandler,
		MetricsPath:  cfg.Telemetry.Metrics.Path,
		Logger:       log.Logger,
	})

	// Watch the config file for runtime-safe changes (if enabled)
	if cfg.Watch {
		watcher, err := config.NewWatcher(cfgFile, 0, log.Logger)
		if err != nil {
			log.Warn("config watcher unavailable", "error", err)
		} else {
			defer watcher.Stop()
			go func() {
				if err := watcher.Watch(ctx, func() error {
					return applyReload(cfgFile, log, calculator, orch)
				}); err != nil && ctx.Err() == nil {
					log.Warn("config watcher stopped", "error", err)
				}
			}()
			fmt.Println("✓ Watching configuration for changes")
		}
	}

	fmt.Println()
	fmt.Printf("✓ Server listening on %s\n", cfg.Server.ListenAddress)
	fmt.Printf("✓ Health endpoint: http://%s/v1/health\n", cfg.Server.ListenAddress)
	if metricsHandler != nil {
		fmt.Printf("✓ Metrics endpoint: http://%s%s\n", cfg.Server.ListenAddress, cfg.Telemetry.Metrics.Path)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// Start blocks until a signal cancels ctx or the listener fails.
	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}

	fmt.Println("✓ Server stopped")
	return nil
}

// applyReload re-reads the config file and applies the runtime-safe
// subset: log level, pricing table, and health thresholds. Everything
// else keeps its boot-time value until restart.
func applyReload(path string, log *logging.Logger, calculator *costs.Calculator, orch *relayOrchestrator) error {
	cfg, err := config.LoadWithEnvOverrides(path)
	if err != nil {
		return err
	}

	if err := log.SetLevel(cfg.Telemetry.Logging.Level); err != nil {
		log.Warn("reload: invalid log level", "level", cfg.Telemetry.Logging.Level, "error", err)
	}
	calculator.UpdatePricing(cfg.Usage.Pricing)

	_, _, health := failoverSettings(cfg.Failover)
	orch.UpdateHealthThresholds(health)

	log.Info("configuration reloaded",
		"path", path,
		"log_level", cfg.Telemetry.Logging.Level,
	)
	return nil
}
