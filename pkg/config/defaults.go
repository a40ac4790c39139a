package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 0 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultRequestTimeout  = 120 * time.Second
	DefaultMaxHeaderBytes  = 1048576 // 1MB

	// Provider defaults
	DefaultProviderTimeoutSeconds = 30.0
	DefaultProviderMaxRetries     = 3

	// Failover defaults
	DefaultFailureThreshold         = 5
	DefaultRecoveryTimeoutSeconds   = 60
	DefaultHalfOpenMaxCalls         = 3
	DefaultRetryMaxAttempts         = 3
	DefaultRetryBaseDelaySeconds    = 1.0
	DefaultRetryMaxDelaySeconds     = 60.0
	DefaultRetryBackoffMultiplier   = 2.0
	DefaultFailureRateThreshold     = 0.5
	DefaultSlowCallThresholdSeconds = 5.0

	// Generation defaults
	DefaultGenerationMaxTokens   = 1024
	DefaultGenerationTemperature = 0.7

	// Usage defaults
	DefaultUsageDriver              = "sqlite3"
	DefaultUsagePath                = "data/usage.db"
	DefaultUsageAsyncBuffer         = 1024
	DefaultUsageWriteTimeoutSeconds = 5.0
	DefaultUsageRetentionDays       = 30
	DefaultUsageRetentionSchedule   = "0 3 * * *"

	// Telemetry defaults
	DefaultLoggingLevel       = "info"
	DefaultLoggingFormat      = "json"
	DefaultMetricsPath        = "/metrics"
	DefaultTracingSampleRatio = 1.0
	DefaultTracingServiceName = "relay"
)

// ApplyDefaults applies default values to a Config struct. It sets defaults
// for any fields that have zero values. This function is idempotent and safe
// to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = DefaultMaxHeaderBytes
	}

	// Provider defaults - applied to each configured provider. Providers
	// without an entry get these same defaults from the factory.
	for name, provider := range cfg.Providers {
		if provider.TimeoutSeconds == 0 {
			provider.TimeoutSeconds = DefaultProviderTimeoutSeconds
		}
		if provider.MaxRetries == 0 {
			provider.MaxRetries = DefaultProviderMaxRetries
		}
		cfg.Providers[name] = provider
	}

	// Failover defaults
	if cfg.Failover.FailureThreshold == 0 {
		cfg.Failover.FailureThreshold = DefaultFailureThreshold
	}
	if cfg.Failover.RecoveryTimeoutSeconds == 0 {
		cfg.Failover.RecoveryTimeoutSeconds = DefaultRecoveryTimeoutSeconds
	}
	if cfg.Failover.HalfOpenMaxCalls == 0 {
		cfg.Failover.HalfOpenMaxCalls = DefaultHalfOpenMaxCalls
	}
	if cfg.Failover.RetryMaxAttempts == 0 {
		cfg.Failover.RetryMaxAttempts = DefaultRetryMaxAttempts
	}
	if cfg.Failover.RetryBaseDelaySeconds == 0 {
		cfg.Failover.RetryBaseDelaySeconds = DefaultRetryBaseDelaySeconds
	}
	if cfg.Failover.RetryMaxDelaySeconds == 0 {
		cfg.Failover.RetryMaxDelaySeconds = DefaultRetryMaxDelaySeconds
	}
	if cfg.Failover.RetryBackoffMultiplier == 0 {
		cfg.Failover.RetryBackoffMultiplier = DefaultRetryBackoffMultiplier
	}
	if cfg.Failover.FailureRateThreshold == 0 {
		cfg.Failover.FailureRateThreshold = DefaultFailureRateThreshold
	}
	if cfg.Failover.SlowCallThresholdSeconds == 0 {
		cfg.Failover.SlowCallThresholdSeconds = DefaultSlowCallThresholdSeconds
	}

	// Generation defaults
	if cfg.Generation.MaxTokens == 0 {
		cfg.Generation.MaxTokens = DefaultGenerationMaxTokens
	}
	if cfg.Generation.Temperature == 0 {
		cfg.Generation.Temperature = DefaultGenerationTemperature
	}

	// Usage defaults
	if cfg.Usage.Driver == "" {
		cfg.Usage.Driver = DefaultUsageDriver
	}
	if cfg.Usage.Path == "" {
		cfg.Usage.Path = DefaultUsagePath
	}
	if cfg.Usage.AsyncBuffer == 0 {
		cfg.Usage.AsyncBuffer = DefaultUsageAsyncBuffer
	}
	if cfg.Usage.WriteTimeoutSeconds == 0 {
		cfg.Usage.WriteTimeoutSeconds = DefaultUsageWriteTimeoutSeconds
	}
	if cfg.Usage.Retention.Days == 0 {
		cfg.Usage.Retention.Days = DefaultUsageRetentionDays
	}
	if cfg.Usage.Retention.Schedule == "" {
		cfg.Usage.Retention.Schedule = DefaultUsageRetentionSchedule
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Tracing.SampleRatio == 0 {
		cfg.Telemetry.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingServiceName
	}
}

// Default returns a configuration with every default applied, equivalent to
// loading an empty file.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
