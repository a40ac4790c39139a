package config

import (
	"fmt"
	"net/url"
	"strings"

	"aurora-ml/relay/pkg/providers"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g.,
	// "server.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a
// configuration. It implements the error interface and provides access to
// all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is
// valid. All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateProviders(cfg.Providers)...)
	errs = append(errs, validateFailover(&cfg.Failover)...)
	errs = append(errs, validateGeneration(&cfg.Generation)...)
	errs = append(errs, validateUsage(&cfg.Usage)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validateServer validates HTTP server configuration.
func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: "listen address is required",
		})
	}

	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.read_timeout",
			Message: "read timeout must not be negative",
		})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.write_timeout",
			Message: "write timeout must not be negative",
		})
	}
	if cfg.IdleTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.idle_timeout",
			Message: "idle timeout must not be negative",
		})
	}
	if cfg.RequestTimeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "server.request_timeout",
			Message: "request timeout must be positive",
		})
	}

	if cfg.MaxHeaderBytes < 0 {
		errs = append(errs, FieldError{
			Field:   "server.max_header_bytes",
			Message: "max header bytes must be non-negative",
		})
	}
	if cfg.MaxHeaderBytes > 10*1024*1024 {
		errs = append(errs, FieldError{
			Field:   "server.max_header_bytes",
			Message: "max header bytes exceeds reasonable limit (10MB)",
		})
	}

	return errs
}

// validateProviders validates per-provider overrides. An empty map is valid:
// every known provider participates with built-in defaults and environment
// credentials.
func validateProviders(overrides map[string]ProviderConfig) []FieldError {
	var errs []FieldError

	for name, provider := range overrides {
		prefix := fmt.Sprintf("providers.%s", name)

		if !providers.Kind(name).Valid() {
			errs = append(errs, FieldError{
				Field:   prefix,
				Message: fmt.Sprintf("unknown provider %q", name),
			})
			continue
		}

		if provider.BaseURL != "" {
			if u, err := url.Parse(provider.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
				errs = append(errs, FieldError{
					Field:   prefix + ".base_url",
					Message: fmt.Sprintf("invalid URL %q: must include scheme and host", provider.BaseURL),
				})
			}
		}

		if provider.Priority < 0 {
			errs = append(errs, FieldError{
				Field:   prefix + ".priority",
				Message: "priority must be non-negative",
			})
		}
		if provider.TimeoutSeconds < 0 {
			errs = append(errs, FieldError{
				Field:   prefix + ".timeout_seconds",
				Message: "timeout must not be negative",
			})
		}
		if provider.MaxRetries < 0 {
			errs = append(errs, FieldError{
				Field:   prefix + ".max_retries",
				Message: "max retries must be non-negative",
			})
		}
	}

	return errs
}

// validateFailover validates circuit breaker and retry configuration.
func validateFailover(cfg *FailoverConfig) []FieldError {
	var errs []FieldError

	if cfg.FailureThreshold < 1 {
		errs = append(errs, FieldError{
			Field:   "failover.failure_threshold",
			Message: "failure threshold must be at least 1",
		})
	}
	if cfg.RecoveryTimeoutSeconds < 1 {
		errs = append(errs, FieldError{
			Field:   "failover.recovery_timeout_seconds",
			Message: "recovery timeout must be at least 1 second",
		})
	}
	if cfg.HalfOpenMaxCalls < 1 {
		errs = append(errs, FieldError{
			Field:   "failover.half_open_max_calls",
			Message: "half-open call budget must be at least 1",
		})
	}
	if cfg.RetryMaxAttempts < 1 {
		errs = append(errs, FieldError{
			Field:   "failover.retry_max_attempts",
			Message: "retry attempts must be at least 1",
		})
	}
	if cfg.RetryBaseDelaySeconds <= 0 {
		errs = append(errs, FieldError{
			Field:   "failover.retry_base_delay_seconds",
			Message: "retry base delay must be positive",
		})
	}
	if cfg.RetryMaxDelaySeconds < cfg.RetryBaseDelaySeconds {
		errs = append(errs, FieldError{
			Field:   "failover.retry_max_delay_seconds",
			Message: "retry max delay must not be below the base delay",
		})
	}
	if cfg.RetryBackoffMultiplier < 1 {
		errs = append(errs, FieldError{
			Field:   "failover.retry_backoff_multiplier",
			Message: "retry backoff multiplier must be at least 1.0",
		})
	}
	if cfg.FailureRateThreshold <= 0 || cfg.FailureRateThreshold > 1 {
		errs = append(errs, FieldError{
			Field:   "failover.failure_rate_threshold",
			Message: "failure rate threshold must be between 0.0 and 1.0",
		})
	}
	if cfg.SlowCallThresholdSeconds <= 0 {
		errs = append(errs, FieldError{
			Field:   "failover.slow_call_threshold_seconds",
			Message: "slow call threshold must be positive",
		})
	}

	return errs
}

// validateGeneration validates generation request defaults.
func validateGeneration(cfg *GenerationConfig) []FieldError {
	var errs []FieldError

	if cfg.MaxTokens < 1 {
		errs = append(errs, FieldError{
			Field:   "generation.max_tokens",
			Message: "max tokens must be at least 1",
		})
	}
	if cfg.Temperature < 0 || cfg.Temperature > 2 {
		errs = append(errs, FieldError{
			Field:   "generation.temperature",
			Message: "temperature must be between 0.0 and 2.0",
		})
	}

	return errs
}

// validateUsage validates usage ledger configuration.
func validateUsage(cfg *UsageConfig) []FieldError {
	var errs []FieldError

	validDrivers := map[string]bool{"sqlite3": true, "sqlite": true}
	if !validDrivers[cfg.Driver] {
		errs = append(errs, FieldError{
			Field:   "usage.driver",
			Message: fmt.Sprintf("invalid driver %q: must be 'sqlite3' or 'sqlite'", cfg.Driver),
		})
	}

	if cfg.IsEnabled() && cfg.Path == "" {
		errs = append(errs, FieldError{
			Field:   "usage.path",
			Message: "database path is required when usage recording is enabled",
		})
	}

	if cfg.AsyncBuffer < 1 {
		errs = append(errs, FieldError{
			Field:   "usage.async_buffer",
			Message: "async buffer must be at least 1",
		})
	}
	if cfg.WriteTimeoutSeconds <= 0 {
		errs = append(errs, FieldError{
			Field:   "usage.write_timeout_seconds",
			Message: "write timeout must be positive",
		})
	}

	if cfg.Retention.Days > 3650 {
		errs = append(errs, FieldError{
			Field:   "usage.retention.days",
			Message: "retention days exceeds reasonable limit (3650 days / 10 years)",
		})
	}
	if cfg.Retention.Schedule == "" {
		errs = append(errs, FieldError{
			Field:   "usage.retention.schedule",
			Message: "retention schedule is required",
		})
	}

	for providerName, models := range cfg.Pricing {
		for modelName, pricing := range models {
			if pricing.Prompt < 0 || pricing.Completion < 0 {
				errs = append(errs, FieldError{
					Field:   fmt.Sprintf("usage.pricing.%s.%s", providerName, modelName),
					Message: "pricing must be non-negative",
				})
			}
		}
	}

	return errs
}

// validateTelemetry validates telemetry configuration.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if cfg.Logging.Level == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: "logging level is required",
		})
	} else if !validLevels[cfg.Logging.Level] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid logging level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.Logging.Level),
		})
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if cfg.Logging.Format == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: "logging format is required",
		})
	} else if !validFormats[cfg.Logging.Format] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid logging format %q: must be 'json' or 'text'", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.IsEnabled() {
		if cfg.Metrics.Path == "" {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.path",
				Message: "metrics path is required when metrics are enabled",
			})
		} else if cfg.Metrics.Path[0] != '/' {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.path",
				Message: "metrics path must start with /",
			})
		}
	}

	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.endpoint",
			Message: "tracing endpoint is required when tracing is enabled",
		})
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1.0 {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sample_ratio",
			Message: "sample ratio must be between 0.0 and 1.0",
		})
	}

	return errs
}
