package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"

	"aurora-ml/relay/pkg/config"
	"aurora-ml/relay/pkg/failover"
	"aurora-ml/relay/pkg/providerfactory"
	"aurora-ml/relay/pkg/providers"
	"aurora-ml/relay/pkg/telemetry/logging"
	"aurora-ml/relay/pkg/usage"
	"aurora-ml/relay/pkg/usage/storage"
)

// loadConfig reads the configured file with environment overrides applied.
// When the default config.yaml is absent and the user did not name a file
// explicitly, configuration comes from defaults and environment alone.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadWithEnvOverrides(cfgFile)
	if err == nil {
		return cfg, nil
	}
	if errors.Is(err, os.ErrNotExist) && !rootCmd.PersistentFlags().Changed("config") {
		return config.FromEnv()
	}
	return nil, err
}

// newLogger builds the process logger, honoring the level override and the
// global --verbose flag, and installs it as the slog default. A nil writer
// defaults to stdout.
func newLogger(cfg config.LoggingConfig, levelOverride string, w io.Writer) (*logging.Logger, error) {
	if levelOverride != "" {
		cfg.Level = levelOverride
	}
	if verbose {
		cfg.Level = "debug"
	}

	log, err := logging.New(cfg, w)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(log.Logger)
	return log, nil
}

// failoverSettings converts the file-level failover section into the
// orchestrator's configuration types.
func failoverSettings(fc config.FailoverConfig) (failover.BreakerConfig, failover.RetryPolicy, failover.HealthConfig) {
	breaker := failover.BreakerConfig{
		FailureThreshold: fc.FailureThreshold,
		RecoveryTimeout:  fc.RecoveryTimeout(),
		HalfOpenMaxCalls: fc.HalfOpenMaxCalls,
	}
	retry := failover.RetryPolicy{
		MaxAttempts: fc.RetryMaxAttempts,
		BaseDelay:   fc.RetryBaseDelay(),
		MaxDelay:    fc.RetryMaxDelay(),
		Multiplier:  fc.RetryBackoffMultiplier,
	}
	health := failover.HealthConfig{
		FailureRateThreshold: fc.FailureRateThreshold,
		SlowCallThreshold:    fc.SlowCallThreshold(),
	}
	return breaker, retry, health
}

// buildOrchestrator assembles provider adapters and the failover
// orchestrator from configuration. The returned orchestrator applies the
// config-level generation defaults to every request.
func buildOrchestrator(cfg *config.Config, logger *slog.Logger, observers ...failover.Observer) (*relayOrchestrator, error) {
	descriptors, invokers, err := providerfactory.Build(cfg, logger)
	if err != nil {
		return nil, err
	}

	breaker, retry, health := failoverSettings(cfg.Failover)
	orch, err := failover.New(failover.Config{
		Descriptors: descriptors,
		Invokers:    invokers,
		Breaker:     breaker,
		Retry:       retry,
		Health:      health,
		Observers:   observers,
	}, logger)
	if err != nil {
		for _, inv := range invokers {
			inv.Close()
		}
		return nil, err
	}

	return &relayOrchestrator{Orchestrator: orch, generation: cfg.Generation}, nil
}

// relayOrchestrator fills generation defaults from configuration before
// the failover walk, so the server and the one-shot generate command share
// the same request semantics.
type relayOrchestrator struct {
	*failover.Orchestrator
	generation config.GenerationConfig
}

func (r *relayOrchestrator) Generate(ctx context.Context, req *providers.GenerationRequest) (*providers.GenerationResponse, error) {
	if req != nil {
		if req.MaxTokens == 0 {
			req.MaxTokens = r.generation.MaxTokens
		}
		if req.Temperature == 0 {
			req.Temperature = r.generation.Temperature
		}
	}
	return r.Orchestrator.Generate(ctx, req)
}

// openUsageStorage opens the configured usage ledger database.
func openUsageStorage(cfg *config.Config, logger *slog.Logger) (usage.Storage, error) {
	storeCfg := storage.DefaultConfig()
	storeCfg.Driver = cfg.Usage.Driver
	storeCfg.Path = cfg.Usage.Path
	return storage.NewSQLiteStorage(storeCfg, logger)
}

// joinKinds renders a fallback chain for startup output.
func joinKinds(kinds []providers.Kind) string {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return strings.Join(names, " -> ")
}
