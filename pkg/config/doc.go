// Package config provides configuration management for Relay.
//
// This package handles loading, validating, and managing configuration from
// YAML files with environment variable overrides. It provides a type-safe
// configuration system with validation and sensible defaults for every
// section.
//
// # Configuration Loading
//
// Configuration can be loaded in three ways:
//
//  1. From a YAML file only:
//     cfg, err := config.Load("config.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadWithEnvOverrides("config.yaml")
//
//  3. From defaults and environment variables alone (no file):
//     cfg, err := config.FromEnv()
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention RELAY_SECTION_FIELD.
// For example:
//
//   - RELAY_SERVER_LISTEN_ADDRESS overrides server.listen_address
//   - RELAY_PROVIDERS_OPENAI_API_KEY overrides providers.openai.api_key
//   - RELAY_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// Environment variables always take precedence over file-based
// configuration. Provider API keys have one further fallback: when neither
// the file nor a RELAY_ variable supplies a usable key, the provider's own
// conventional variable (OPENAI_API_KEY, ANTHROPIC_API_KEY, and so on) and
// finally the api_key_file path are consulted. That resolution happens when
// provider descriptors are built, not here.
//
// # Configuration Precedence
//
// Configuration values are applied in the following order (later overrides
// earlier):
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Validation
//
// All configuration is validated automatically during loading. Validation
// errors include field paths and helpful messages:
//
//	configuration validation failed with 2 errors:
//	  - server.listen_address: field is required
//	  - failover.failure_threshold: must be at least 1
//
// # Example Configuration
//
// Here is a minimal configuration file:
//
//	server:
//	  listen_address: "127.0.0.1:8080"
//
//	providers:
//	  openai:
//	    api_key: "${OPENAI_API_KEY}"
//	  anthropic:
//	    priority: 1
//
//	failover:
//	  failure_threshold: 5
//	  recovery_timeout_seconds: 60
//
//	usage:
//	  path: "data/usage.db"
//
//	telemetry:
//	  logging:
//	    level: "info"
//	    format: "json"
//
// Providers never named in the file still participate with their built-in
// defaults as long as a credential can be resolved; set disabled: true to
// exclude one.
//
// # Hot Reload
//
// Watcher observes the configuration file and invokes a reload callback
// after a debounced change:
//
//	w, err := config.NewWatcher("config.yaml", 0, logger)
//	...
//	go w.Watch(ctx, func() error {
//	    cfg, err := config.LoadWithEnvOverrides("config.yaml")
//	    ...
//	})
package config
