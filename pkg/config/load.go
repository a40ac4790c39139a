package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"aurora-ml/relay/pkg/providers"
)

// EnvPrefix is the prefix shared by all configuration environment variables.
const EnvPrefix = "RELAY_"

// Load loads configuration from a YAML file at the specified path. It
// applies default values, validates the configuration, and returns any
// errors. Environment variables are not consulted; use LoadWithEnvOverrides
// for that behavior.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Variables follow the naming convention
// RELAY_SECTION_FIELD (e.g., RELAY_SERVER_LISTEN_ADDRESS) and always take
// precedence over file-based configuration.
//
// The loading sequence is:
//  1. Load YAML from file
//  2. Apply default values
//  3. Apply environment variable overrides
//  4. Validate the final configuration
func LoadWithEnvOverrides(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	ApplyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// FromEnv returns a configuration built from defaults and environment
// variables alone, for running without a configuration file.
func FromEnv() (*Config, error) {
	cfg := Default()
	ApplyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// ApplyEnvOverrides applies environment variable overrides to the
// configuration. Unparseable values are ignored, leaving the existing value
// in place.
func ApplyEnvOverrides(cfg *Config) {
	// Server overrides
	if val := os.Getenv(EnvPrefix + "SERVER_LISTEN_ADDRESS"); val != "" {
		cfg.Server.ListenAddress = val
	}
	if val := os.Getenv(EnvPrefix + "SERVER_READ_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if val := os.Getenv(EnvPrefix + "SERVER_WRITE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}
	if val := os.Getenv(EnvPrefix + "SERVER_IDLE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.IdleTimeout = d
		}
	}
	if val := os.Getenv(EnvPrefix + "SERVER_REQUEST_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.RequestTimeout = d
		}
	}
	if val := os.Getenv(EnvPrefix + "SERVER_MAX_HEADER_BYTES"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Server.MaxHeaderBytes = i
		}
	}

	if val := os.Getenv(EnvPrefix + "WATCH"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Watch = b
		}
	}

	// Provider overrides, one set per known provider.
	for _, kind := range providers.Kinds() {
		applyProviderEnvOverrides(cfg, kind)
	}

	// Failover overrides
	if val := os.Getenv(EnvPrefix + "FAILOVER_FAILURE_THRESHOLD"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Failover.FailureThreshold = i
		}
	}
	if val := os.Getenv(EnvPrefix + "FAILOVER_RECOVERY_TIMEOUT_SECONDS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Failover.RecoveryTimeoutSeconds = i
		}
	}
	if val := os.Getenv(EnvPrefix + "FAILOVER_HALF_OPEN_MAX_CALLS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Failover.HalfOpenMaxCalls = i
		}
	}
	if val := os.Getenv(EnvPrefix + "FAILOVER_RETRY_MAX_ATTEMPTS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Failover.RetryMaxAttempts = i
		}
	}
	if val := os.Getenv(EnvPrefix + "FAILOVER_RETRY_BASE_DELAY_SECONDS"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Failover.RetryBaseDelaySeconds = f
		}
	}
	if val := os.Getenv(EnvPrefix + "FAILOVER_RETRY_MAX_DELAY_SECONDS"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Failover.RetryMaxDelaySeconds = f
		}
	}
	if val := os.Getenv(EnvPrefix + "FAILOVER_RETRY_BACKOFF_MULTIPLIER"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Failover.RetryBackoffMultiplier = f
		}
	}

	// Generation overrides
	if val := os.Getenv(EnvPrefix + "GENERATION_MAX_TOKENS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Generation.MaxTokens = i
		}
	}
	if val := os.Getenv(EnvPrefix + "GENERATION_TEMPERATURE"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Generation.Temperature = f
		}
	}

	// Usage overrides
	if val := os.Getenv(EnvPrefix + "USAGE_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Usage.Enabled = &b
		}
	}
	if val := os.Getenv(EnvPrefix + "USAGE_DRIVER"); val != "" {
		cfg.Usage.Driver = val
	}
	if val := os.Getenv(EnvPrefix + "USAGE_PATH"); val != "" {
		cfg.Usage.Path = val
	}
	if val := os.Getenv(EnvPrefix + "USAGE_RETENTION_DAYS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Usage.Retention.Days = i
		}
	}
	if val := os.Getenv(EnvPrefix + "USAGE_RETENTION_SCHEDULE"); val != "" {
		cfg.Usage.Retention.Schedule = val
	}

	// Telemetry overrides
	if val := os.Getenv(EnvPrefix + "TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv(EnvPrefix + "TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv(EnvPrefix + "TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = &b
		}
	}
	if val := os.Getenv(EnvPrefix + "TELEMETRY_METRICS_PATH"); val != "" {
		cfg.Telemetry.Metrics.Path = val
	}
	if val := os.Getenv(EnvPrefix + "TELEMETRY_TRACING_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Tracing.Enabled = b
		}
	}
	if val := os.Getenv(EnvPrefix + "TELEMETRY_TRACING_ENDPOINT"); val != "" {
		cfg.Telemetry.Tracing.Endpoint = val
	}
	if val := os.Getenv(EnvPrefix + "TELEMETRY_TRACING_SAMPLE_RATIO"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Telemetry.Tracing.SampleRatio = f
		}
	}
}

// applyProviderEnvOverrides applies environment variable overrides for a
// single provider. Provider variables follow the format
// RELAY_PROVIDERS_<NAME>_<FIELD> where NAME is the uppercase provider name.
func applyProviderEnvOverrides(cfg *Config, kind providers.Kind) {
	if cfg.Providers == nil {
		cfg.Providers = make(map[string]ProviderConfig)
	}

	name := string(kind)
	provider, exists := cfg.Providers[name]

	prefix := fmt.Sprintf("%sPROVIDERS_%s_", EnvPrefix, strings.ToUpper(name))

	modified := false
	if val := os.Getenv(prefix + "API_KEY"); val != "" {
		provider.APIKey = val
		modified = true
	}
	if val := os.Getenv(prefix + "BASE_URL"); val != "" {
		provider.BaseURL = val
		modified = true
	}
	if val := os.Getenv(prefix + "MODEL"); val != "" {
		provider.Model = val
		modified = true
	}
	if val := os.Getenv(prefix + "PRIORITY"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			provider.Priority = i
			modified = true
		}
	}
	if val := os.Getenv(prefix + "TIMEOUT_SECONDS"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			provider.TimeoutSeconds = f
			modified = true
		}
	}
	if val := os.Getenv(prefix + "MAX_RETRIES"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			provider.MaxRetries = i
			modified = true
		}
	}
	if val := os.Getenv(prefix + "DISABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			provider.Disabled = b
			modified = true
		}
	}

	// Only touch the map when the provider was already configured or an
	// override introduced it.
	if modified || exists {
		cfg.Providers[name] = provider
	}
}
