package config

import "time"

// Config is the root configuration structure for the relay. It contains all
// configuration sections for the HTTP server, providers, failover behavior,
// generation defaults, the usage ledger, and telemetry.
type Config struct {
	// Server contains HTTP server configuration including listen address
	// and timeouts.
	Server ServerConfig `yaml:"server"`

	// Providers contains per-provider overrides keyed by provider name
	// (e.g., "openai", "anthropic"). Every known provider participates in
	// failover even without an entry here; an entry overrides its
	// credentials, model, priority, or budgets.
	Providers map[string]ProviderConfig `yaml:"providers"`

	// Failover contains circuit breaker, retry, and health classification
	// settings shared by all providers.
	Failover FailoverConfig `yaml:"failover"`

	// Generation contains defaults applied to generation requests that
	// leave the corresponding fields unset.
	Generation GenerationConfig `yaml:"generation"`

	// Usage contains configuration for the usage ledger including storage
	// driver, async recording, and retention.
	Usage UsageConfig `yaml:"usage"`

	// Telemetry contains observability configuration including logging,
	// metrics, and distributed tracing.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Watch enables automatic reloading when the configuration file
	// changes. Provider credentials and priorities take effect without a
	// restart.
	// Default: false
	Watch bool `yaml:"watch"`
}

// ServerConfig contains configuration for the HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Format: "host:port" (e.g., "127.0.0.1:8080", "0.0.0.0:8080").
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body. A zero or negative value means no timeout.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response. Zero means no timeout; generation responses can outlive
	// any fixed write deadline, so the per-request timeout governs
	// handler time instead.
	// Default: 0
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next
	// request when keep-alives are enabled.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful
	// shutdown before in-flight requests are abandoned.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// RequestTimeout bounds a single request's handler time, covering the
	// full failover walk across providers.
	// Default: 120s
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// MaxHeaderBytes controls the maximum number of bytes the server will
	// read parsing request headers.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`
}

// ProviderConfig contains per-provider overrides. All fields are optional;
// unset fields fall back to the provider's built-in defaults.
type ProviderConfig struct {
	// APIKey is the authentication key for the provider. Keys left empty
	// or holding a placeholder (a "your_" prefix or "_here" suffix) are
	// treated as absent: the environment and APIKeyFile are consulted,
	// and a provider without a usable key is excluded from failover.
	APIKey string `yaml:"api_key"`

	// APIKeyFile is a path to a file whose trimmed contents are used as
	// the API key when no usable key is found elsewhere.
	APIKeyFile string `yaml:"api_key_file"`

	// BaseURL overrides the provider's API endpoint, for proxies and
	// compatible self-hosted deployments.
	BaseURL string `yaml:"base_url"`

	// Model overrides the provider's default model.
	Model string `yaml:"model"`

	// Priority is the provider's position in the failover chain; lower
	// values are tried first. Zero keeps the provider's built-in priority.
	Priority int `yaml:"priority"`

	// TimeoutSeconds is the per-request timeout for this provider.
	// Default: 30
	TimeoutSeconds float64 `yaml:"timeout_seconds"`

	// MaxRetries is the maximum number of attempts per generation call
	// against this provider, capped by failover.retry_max_attempts.
	// Default: 3
	MaxRetries int `yaml:"max_retries"`

	// Disabled excludes the provider from failover entirely.
	// Default: false
	Disabled bool `yaml:"disabled"`
}

// RequestTimeout returns the per-request timeout as a duration.
func (c ProviderConfig) RequestTimeout() time.Duration {
	return secondsToDuration(c.TimeoutSeconds)
}

// FailoverConfig contains circuit breaker, retry, and health settings.
// The breaker and retry fields apply identically to every provider.
type FailoverConfig struct {
	// FailureThreshold is the number of consecutive failures that trips a
	// provider's circuit breaker.
	// Default: 5
	FailureThreshold int `yaml:"failure_threshold"`

	// RecoveryTimeoutSeconds is how long a tripped breaker rejects calls
	// before admitting recovery probes.
	// Default: 60
	RecoveryTimeoutSeconds int `yaml:"recovery_timeout_seconds"`

	// HalfOpenMaxCalls is the probe budget while a breaker is recovering:
	// at most this many calls are admitted, and this many consecutive
	// successes restore the provider.
	// Default: 3
	HalfOpenMaxCalls int `yaml:"half_open_max_calls"`

	// RetryMaxAttempts caps attempts per provider per generation call.
	// Default: 3
	RetryMaxAttempts int `yaml:"retry_max_attempts"`

	// RetryBaseDelaySeconds is the backoff before the second attempt.
	// Default: 1.0
	RetryBaseDelaySeconds float64 `yaml:"retry_base_delay_seconds"`

	// RetryMaxDelaySeconds caps the exponential backoff growth.
	// Default: 60.0
	RetryMaxDelaySeconds float64 `yaml:"retry_max_delay_seconds"`

	// RetryBackoffMultiplier is the exponential backoff growth factor.
	// Default: 2.0
	RetryBackoffMultiplier float64 `yaml:"retry_backoff_multiplier"`

	// FailureRateThreshold is the windowed failure rate above which a
	// provider is reported degraded. The rate never gates admission.
	// Default: 0.5
	FailureRateThreshold float64 `yaml:"failure_rate_threshold"`

	// SlowCallThresholdSeconds is the average latency above which a
	// provider is reported degraded. Capped at 10 seconds.
	// Default: 5.0
	SlowCallThresholdSeconds float64 `yaml:"slow_call_threshold_seconds"`
}

// RecoveryTimeout returns the breaker recovery timeout as a duration.
func (c FailoverConfig) RecoveryTimeout() time.Duration {
	return time.Duration(c.RecoveryTimeoutSeconds) * time.Second
}

// RetryBaseDelay returns the base backoff delay as a duration.
func (c FailoverConfig) RetryBaseDelay() time.Duration {
	return secondsToDuration(c.RetryBaseDelaySeconds)
}

// RetryMaxDelay returns the backoff delay cap as a duration.
func (c FailoverConfig) RetryMaxDelay() time.Duration {
	return secondsToDuration(c.RetryMaxDelaySeconds)
}

// SlowCallThreshold returns the slow-call latency threshold as a duration.
func (c FailoverConfig) SlowCallThreshold() time.Duration {
	return secondsToDuration(c.SlowCallThresholdSeconds)
}

// GenerationConfig contains defaults for generation requests.
type GenerationConfig struct {
	// MaxTokens is applied to requests that do not set a token limit.
	// Default: 1024
	MaxTokens int `yaml:"max_tokens"`

	// Temperature is applied to requests that do not set one.
	// Default: 0.7
	Temperature float64 `yaml:"temperature"`
}

// UsageConfig contains configuration for the usage ledger.
type UsageConfig struct {
	// Enabled controls whether usage records are written at all.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// Driver selects the SQLite driver: "sqlite3" (cgo) or "sqlite"
	// (pure Go). The pure Go driver suits cross-compiled builds.
	// Default: "sqlite3"
	Driver string `yaml:"driver"`

	// Path is the SQLite database file path.
	// Default: "data/usage.db"
	Path string `yaml:"path"`

	// AsyncBuffer is the size of the in-memory record queue. Records are
	// dropped, with a warning, when the queue is full.
	// Default: 1024
	AsyncBuffer int `yaml:"async_buffer"`

	// WriteTimeoutSeconds bounds each storage write made by the
	// recorder's background worker.
	// Default: 5.0
	WriteTimeoutSeconds float64 `yaml:"write_timeout_seconds"`

	// Retention controls periodic pruning of old usage records.
	Retention RetentionConfig `yaml:"retention"`

	// Pricing overrides the built-in cost table. Keys are provider name,
	// then model name; "default" is accepted at either level.
	Pricing map[string]map[string]PricingConfig `yaml:"pricing"`
}

// PricingConfig overrides the cost of one model, in USD per 1000 tokens.
type PricingConfig struct {
	// Prompt is the cost per 1000 prompt tokens.
	Prompt float64 `yaml:"prompt"`

	// Completion is the cost per 1000 completion tokens.
	Completion float64 `yaml:"completion"`
}

// IsEnabled reports whether the usage ledger is active.
func (c UsageConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// WriteTimeout returns the storage write timeout as a duration.
func (c UsageConfig) WriteTimeout() time.Duration {
	return secondsToDuration(c.WriteTimeoutSeconds)
}

// RetentionConfig controls pruning of old usage records.
type RetentionConfig struct {
	// Days is the age limit for usage records. A negative value disables
	// pruning entirely.
	// Default: 30
	Days int `yaml:"days"`

	// Schedule is the cron expression for the pruning job, in standard
	// five-field cron syntax.
	// Default: "0 3 * * *" (daily at 03:00)
	Schedule string `yaml:"schedule"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	// Logging configures structured log output.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics configures the Prometheus endpoint.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing configures OpenTelemetry trace export.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig configures structured log output.
type LoggingConfig struct {
	// Level is the minimum level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format selects the output encoding.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes the file and line of the logging call in each
	// record.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected and served.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// Path is the HTTP path for the metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`
}

// IsEnabled reports whether metrics collection is active.
func (c MetricsConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// TracingConfig configures OpenTelemetry trace export over OTLP/gRPC.
type TracingConfig struct {
	// Enabled controls whether spans are exported. When false, tracing
	// calls are no-ops.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Endpoint is the OTLP gRPC collector endpoint.
	// Example: "localhost:4317"
	// Required when Enabled.
	Endpoint string `yaml:"endpoint"`

	// Insecure disables transport security for the collector connection.
	// Default: false
	Insecure bool `yaml:"insecure"`

	// SampleRatio is the fraction of traces to sample, from 0.0 to 1.0.
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// ServiceName identifies this process in exported traces.
	// Default: "relay"
	ServiceName string `yaml:"service_name"`
}

// secondsToDuration converts a fractional seconds value to a duration.
func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
