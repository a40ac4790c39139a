// Package providerfactory turns configuration into provider descriptors and
// invokers ready for the failover orchestrator.
//
// Every supported kind participates by default; a configuration entry only
// overrides pieces of a kind's built-in defaults (model, priority, base URL,
// timing) or disables the kind outright. A provider without a usable
// credential after resolution is excluded rather than failing startup, so a
// deployment with a single key still comes up with a one-provider chain.
package providerfactory

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"aurora-ml/relay/pkg/config"
	"aurora-ml/relay/pkg/providers"
	"aurora-ml/relay/pkg/providers/anthropic"
	"aurora-ml/relay/pkg/providers/huggingface"
	"aurora-ml/relay/pkg/providers/openai"
)

// kindDefaults carries the built-in model and chain position for one kind.
// Default base URLs live in the adapter packages.
type kindDefaults struct {
	model    string
	priority int
}

var defaults = map[providers.Kind]kindDefaults{
	providers.KindOpenAI:      {model: "gpt-4o-mini", priority: 1},
	providers.KindAnthropic:   {model: "claude-3-haiku-20240307", priority: 2},
	providers.KindTogether:    {model: "meta-llama/Llama-3-8b-chat-hf", priority: 3},
	providers.KindMistral:     {model: "mistral-small-latest", priority: 4},
	providers.KindHuggingFace: {model: "HuggingFaceH4/zephyr-7b-beta", priority: 5},
}

// DefaultModel returns the built-in default model for kind.
func DefaultModel(kind providers.Kind) string {
	return defaults[kind].model
}

// BuildDescriptors resolves the configured provider set into descriptors.
// Disabled kinds and kinds without a usable credential are skipped; the
// result may be empty, which the orchestrator rejects at construction.
func BuildDescriptors(cfg *config.Config, logger *slog.Logger) []providers.Descriptor {
	if logger == nil {
		logger = slog.Default()
	}

	descriptors := make([]providers.Descriptor, 0, len(defaults))
	for _, kind := range providers.Kinds() {
		pcfg := cfg.Providers[kind.String()]
		if pcfg.Disabled {
			logger.Info("provider disabled by configuration", "provider", kind)
			continue
		}

		key, source := resolveCredential(kind, pcfg, logger)
		if key == "" {
			logger.Debug("provider has no usable credential, excluding from failover",
				"provider", kind)
			continue
		}

		desc := newDescriptor(kind, pcfg)
		desc.APIKey = key

		logger.Info("provider configured",
			"provider", kind,
			"model", desc.DefaultModel,
			"priority", desc.Priority,
			"credential_source", source,
		)
		descriptors = append(descriptors, desc)
	}

	return descriptors
}

// NewInvoker creates the adapter for one descriptor.
func NewInvoker(desc providers.Descriptor, logger *slog.Logger) (providers.Invoker, error) {
	switch desc.Kind {
	case providers.KindOpenAI, providers.KindTogether, providers.KindMistral:
		return openai.New(desc, logger)
	case providers.KindAnthropic:
		return anthropic.New(desc, logger)
	case providers.KindHuggingFace:
		return huggingface.New(desc, logger)
	default:
		return nil, &providers.ConfigError{
			Provider: desc.Kind,
			Field:    "kind",
			Message:  fmt.Sprintf("unsupported provider kind %q", desc.Kind),
		}
	}
}

// Build resolves descriptors and constructs an invoker for each surviving
// kind. On failure it closes any invokers already created.
func Build(cfg *config.Config, logger *slog.Logger) ([]providers.Descriptor, map[providers.Kind]providers.Invoker, error) {
	descriptors := BuildDescriptors(cfg, logger)

	invokers := make(map[providers.Kind]providers.Invoker, len(descriptors))
	for _, desc := range descriptors {
		inv, err := NewInvoker(desc, logger)
		if err != nil {
			for _, made := range invokers {
				made.Close()
			}
			return nil, nil, fmt.Errorf("failed to create provider %q: %w", desc.Kind, err)
		}
		invokers[desc.Kind] = inv
	}

	return descriptors, invokers, nil
}

// newDescriptor merges kind defaults with configuration overrides. The
// credential is resolved separately.
func newDescriptor(kind providers.Kind, pcfg config.ProviderConfig) providers.Descriptor {
	if pcfg.TimeoutSeconds == 0 {
		pcfg.TimeoutSeconds = config.DefaultProviderTimeoutSeconds
	}
	if pcfg.MaxRetries == 0 {
		pcfg.MaxRetries = config.DefaultProviderMaxRetries
	}

	def := defaults[kind]
	desc := providers.Descriptor{
		Kind:         kind,
		BaseURL:      pcfg.BaseURL,
		DefaultModel: def.model,
		Priority:     def.priority,
		Timeout:      pcfg.RequestTimeout(),
		MaxRetries:   pcfg.MaxRetries,
	}
	if pcfg.Model != "" {
		desc.DefaultModel = pcfg.Model
	}
	if pcfg.Priority > 0 {
		desc.Priority = pcfg.Priority
	}
	return desc
}

// resolveCredential returns the first usable credential for kind, trying the
// configured value, the RELAY_PROVIDERS_<KIND>_API_KEY override, the
// vendor's conventional variable, and finally the configured key file.
// Values that are empty or placeholder-shaped do not count. The source
// string feeds logs.
func resolveCredential(kind providers.Kind, pcfg config.ProviderConfig, logger *slog.Logger) (key, source string) {
	if providers.UsableCredential(pcfg.APIKey) {
		return pcfg.APIKey, "config"
	}
	if v := os.Getenv(relayKeyVar(kind)); providers.UsableCredential(v) {
		return v, "environment"
	}
	if v := os.Getenv(providers.CredentialEnvVar(kind)); providers.UsableCredential(v) {
		return v, "environment"
	}
	if pcfg.APIKeyFile != "" {
		data, err := os.ReadFile(pcfg.APIKeyFile)
		if err != nil {
			logger.Warn("failed to read credential file",
				"provider", kind,
				"path", pcfg.APIKeyFile,
				"error", err)
			return "", ""
		}
		if v := strings.TrimSpace(string(data)); providers.UsableCredential(v) {
			return v, "file"
		}
	}
	return "", ""
}

// relayKeyVar is the provider-scoped credential variable, for example
// RELAY_PROVIDERS_OPENAI_API_KEY.
func relayKeyVar(kind providers.Kind) string {
	return fmt.Sprintf("%sPROVIDERS_%s_API_KEY", config.EnvPrefix, strings.ToUpper(kind.String()))
}
