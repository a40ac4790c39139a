package config

import (
	"errors"
	"strings"
	"testing"
)

// hasFieldError reports whether err is a ValidationError containing an error
// for the given field.
func hasFieldError(t *testing.T, err error, field string) bool {
	t.Helper()

	var validationErr ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %T: %v", err, err)
	}
	for _, fe := range validationErr.Errors {
		if fe.Field == field {
			return true
		}
	}
	return false
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := MinimalConfig()

	if err := Validate(cfg); err != nil {
		t.Errorf("expected valid config to pass validation, got error: %v", err)
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	cfg := &Config{}

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation to fail for zero config")
	}

	validationErr, ok := err.(ValidationError)
	if !ok {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if len(validationErr.Errors) < 2 {
		t.Errorf("expected multiple errors, got %d", len(validationErr.Errors))
	}
	if !strings.Contains(validationErr.Error(), "validation failed with") {
		t.Errorf("error message should mention multiple errors: %s", validationErr.Error())
	}
}

func TestValidate_Server(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*ServerConfig)
		errorField string
	}{
		{
			name:   "valid server config",
			mutate: func(c *ServerConfig) {},
		},
		{
			name:       "empty listen address",
			mutate:     func(c *ServerConfig) { c.ListenAddress = "" },
			errorField: "server.listen_address",
		},
		{
			name:       "negative read timeout",
			mutate:     func(c *ServerConfig) { c.ReadTimeout = -1 },
			errorField: "server.read_timeout",
		},
		{
			name:       "zero request timeout",
			mutate:     func(c *ServerConfig) { c.RequestTimeout = 0 },
			errorField: "server.request_timeout",
		},
		{
			name:       "excessive max header bytes",
			mutate:     func(c *ServerConfig) { c.MaxHeaderBytes = 20 * 1024 * 1024 },
			errorField: "server.max_header_bytes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := MinimalConfig()
			tt.mutate(&cfg.Server)

			err := Validate(cfg)
			if tt.errorField == "" {
				if err != nil {
					t.Errorf("expected no error, got: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !hasFieldError(t, err, tt.errorField) {
				t.Errorf("expected error for field %q, got: %v", tt.errorField, err)
			}
		})
	}
}

func TestValidate_Providers(t *testing.T) {
	tests := []struct {
		name       string
		providers  map[string]ProviderConfig
		errorField string
	}{
		{
			name:      "empty provider map is valid",
			providers: map[string]ProviderConfig{},
		},
		{
			name: "valid override",
			providers: map[string]ProviderConfig{
				"openai": {APIKey: "sk-test", BaseURL: "https://api.openai.com/v1", Priority: 1},
			},
		},
		{
			name: "unknown provider name",
			providers: map[string]ProviderConfig{
				"replicate": {APIKey: "r8-test"},
			},
			errorField: "providers.replicate",
		},
		{
			name: "base url without scheme",
			providers: map[string]ProviderConfig{
				"openai": {BaseURL: "api.openai.com/v1"},
			},
			errorField: "providers.openai.base_url",
		},
		{
			name: "negative priority",
			providers: map[string]ProviderConfig{
				"mistral": {Priority: -1},
			},
			errorField: "providers.mistral.priority",
		},
		{
			name: "negative timeout",
			providers: map[string]ProviderConfig{
				"together": {TimeoutSeconds: -5},
			},
			errorField: "providers.together.timeout_seconds",
		},
		{
			name: "negative max retries",
			providers: map[string]ProviderConfig{
				"huggingface": {MaxRetries: -1},
			},
			errorField: "providers.huggingface.max_retries",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := MinimalConfig()
			cfg.Providers = tt.providers

			err := Validate(cfg)
			if tt.errorField == "" {
				if err != nil {
					t.Errorf("expected no error, got: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !hasFieldError(t, err, tt.errorField) {
				t.Errorf("expected error for field %q, got: %v", tt.errorField, err)
			}
		})
	}
}

func TestValidate_Failover(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*FailoverConfig)
		errorField string
	}{
		{
			name:   "valid failover config",
			mutate: func(c *FailoverConfig) {},
		},
		{
			name:       "zero failure threshold",
			mutate:     func(c *FailoverConfig) { c.FailureThreshold = 0 },
			errorField: "failover.failure_threshold",
		},
		{
			name:       "zero recovery timeout",
			mutate:     func(c *FailoverConfig) { c.RecoveryTimeoutSeconds = 0 },
			errorField: "failover.recovery_timeout_seconds",
		},
		{
			name:       "zero half-open budget",
			mutate:     func(c *FailoverConfig) { c.HalfOpenMaxCalls = 0 },
			errorField: "failover.half_open_max_calls",
		},
		{
			name:       "zero retry attempts",
			mutate:     func(c *FailoverConfig) { c.RetryMaxAttempts = 0 },
			errorField: "failover.retry_max_attempts",
		},
		{
			name:       "zero base delay",
			mutate:     func(c *FailoverConfig) { c.RetryBaseDelaySeconds = 0 },
			errorField: "failover.retry_base_delay_seconds",
		},
		{
			name: "max delay below base delay",
			mutate: func(c *FailoverConfig) {
				c.RetryBaseDelaySeconds = 10
				c.RetryMaxDelaySeconds = 5
			},
			errorField: "failover.retry_max_delay_seconds",
		},
		{
			name:       "multiplier below one",
			mutate:     func(c *FailoverConfig) { c.RetryBackoffMultiplier = 0.5 },
			errorField: "failover.retry_backoff_multiplier",
		},
		{
			name:       "failure rate above one",
			mutate:     func(c *FailoverConfig) { c.FailureRateThreshold = 1.5 },
			errorField: "failover.failure_rate_threshold",
		},
		{
			name:       "zero slow call threshold",
			mutate:     func(c *FailoverConfig) { c.SlowCallThresholdSeconds = 0 },
			errorField: "failover.slow_call_threshold_seconds",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := MinimalConfig()
			tt.mutate(&cfg.Failover)

			err := Validate(cfg)
			if tt.errorField == "" {
				if err != nil {
					t.Errorf("expected no error, got: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !hasFieldError(t, err, tt.errorField) {
				t.Errorf("expected error for field %q, got: %v", tt.errorField, err)
			}
		})
	}
}

func TestValidate_Generation(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*GenerationConfig)
		errorField string
	}{
		{
			name:   "temperature at upper bound",
			mutate: func(c *GenerationConfig) { c.Temperature = 2.0 },
		},
		{
			name:       "zero max tokens",
			mutate:     func(c *GenerationConfig) { c.MaxTokens = 0 },
			errorField: "generation.max_tokens",
		},
		{
			name:       "temperature above range",
			mutate:     func(c *GenerationConfig) { c.Temperature = 2.5 },
			errorField: "generation.temperature",
		},
		{
			name:       "negative temperature",
			mutate:     func(c *GenerationConfig) { c.Temperature = -0.1 },
			errorField: "generation.temperature",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := MinimalConfig()
			tt.mutate(&cfg.Generation)

			err := Validate(cfg)
			if tt.errorField == "" {
				if err != nil {
					t.Errorf("expected no error, got: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !hasFieldError(t, err, tt.errorField) {
				t.Errorf("expected error for field %q, got: %v", tt.errorField, err)
			}
		})
	}
}

func TestValidate_Usage(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*UsageConfig)
		errorField string
	}{
		{
			name:   "alternate sqlite driver",
			mutate: func(c *UsageConfig) { c.Driver = "sqlite" },
		},
		{
			name: "empty path allowed when disabled",
			mutate: func(c *UsageConfig) {
				disabled := false
				c.Enabled = &disabled
				c.Path = ""
			},
		},
		{
			name:   "negative retention days disables pruning",
			mutate: func(c *UsageConfig) { c.Retention.Days = -1 },
		},
		{
			name:       "invalid driver",
			mutate:     func(c *UsageConfig) { c.Driver = "postgres" },
			errorField: "usage.driver",
		},
		{
			name:       "empty path while enabled",
			mutate:     func(c *UsageConfig) { c.Path = "" },
			errorField: "usage.path",
		},
		{
			name:       "zero async buffer",
			mutate:     func(c *UsageConfig) { c.AsyncBuffer = 0 },
			errorField: "usage.async_buffer",
		},
		{
			name:       "zero write timeout",
			mutate:     func(c *UsageConfig) { c.WriteTimeoutSeconds = 0 },
			errorField: "usage.write_timeout_seconds",
		},
		{
			name:       "excessive retention",
			mutate:     func(c *UsageConfig) { c.Retention.Days = 4000 },
			errorField: "usage.retention.days",
		},
		{
			name:       "empty retention schedule",
			mutate:     func(c *UsageConfig) { c.Retention.Schedule = "" },
			errorField: "usage.retention.schedule",
		},
		{
			name: "pricing override",
			mutate: func(c *UsageConfig) {
				c.Pricing = map[string]map[string]PricingConfig{
					"openai": {"gpt-4o-mini": {Prompt: 0.00015, Completion: 0.0006}},
				}
			},
		},
		{
			name: "negative pricing",
			mutate: func(c *UsageConfig) {
				c.Pricing = map[string]map[string]PricingConfig{
					"openai": {"gpt-4o-mini": {Prompt: -1}},
				}
			},
			errorField: "usage.pricing.openai.gpt-4o-mini",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := MinimalConfig()
			tt.mutate(&cfg.Usage)

			err := Validate(cfg)
			if tt.errorField == "" {
				if err != nil {
					t.Errorf("expected no error, got: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !hasFieldError(t, err, tt.errorField) {
				t.Errorf("expected error for field %q, got: %v", tt.errorField, err)
			}
		})
	}
}

func TestValidate_Telemetry(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*TelemetryConfig)
		errorField string
	}{
		{
			name:   "text format",
			mutate: func(c *TelemetryConfig) { c.Logging.Format = "text" },
		},
		{
			name: "metrics disabled skips path check",
			mutate: func(c *TelemetryConfig) {
				disabled := false
				c.Metrics.Enabled = &disabled
				c.Metrics.Path = ""
			},
		},
		{
			name:       "invalid logging level",
			mutate:     func(c *TelemetryConfig) { c.Logging.Level = "trace" },
			errorField: "telemetry.logging.level",
		},
		{
			name:       "invalid logging format",
			mutate:     func(c *TelemetryConfig) { c.Logging.Format = "xml" },
			errorField: "telemetry.logging.format",
		},
		{
			name:       "metrics path missing slash",
			mutate:     func(c *TelemetryConfig) { c.Metrics.Path = "metrics" },
			errorField: "telemetry.metrics.path",
		},
		{
			name:       "tracing enabled without endpoint",
			mutate:     func(c *TelemetryConfig) { c.Tracing.Enabled = true },
			errorField: "telemetry.tracing.endpoint",
		},
		{
			name:       "sample ratio above one",
			mutate:     func(c *TelemetryConfig) { c.Tracing.SampleRatio = 1.5 },
			errorField: "telemetry.tracing.sample_ratio",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := MinimalConfig()
			tt.mutate(&cfg.Telemetry)

			err := Validate(cfg)
			if tt.errorField == "" {
				if err != nil {
					t.Errorf("expected no error, got: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !hasFieldError(t, err, tt.errorField) {
				t.Errorf("expected error for field %q, got: %v", tt.errorField, err)
			}
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	single := ValidationError{Errors: []FieldError{
		{Field: "server.listen_address", Message: "listen address is required"},
	}}
	want := "configuration validation failed: server.listen_address: listen address is required"
	if got := single.Error(); got != want {
		t.Errorf("single error message = %q, want %q", got, want)
	}

	multi := ValidationError{Errors: []FieldError{
		{Field: "a", Message: "first"},
		{Field: "b", Message: "second"},
	}}
	msg := multi.Error()
	if !strings.Contains(msg, "validation failed with 2 errors") {
		t.Errorf("multi error message should count errors: %q", msg)
	}
	if !strings.Contains(msg, "- a: first") || !strings.Contains(msg, "- b: second") {
		t.Errorf("multi error message should list all errors: %q", msg)
	}
}
