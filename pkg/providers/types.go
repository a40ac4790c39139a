package providers

import (
	"time"
)

// Kind identifies a supported provider implementation.
type Kind string

// Supported provider kinds.
const (
	KindOpenAI      Kind = "openai"
	KindAnthropic   Kind = "anthropic"
	KindTogether    Kind = "together"
	KindMistral     Kind = "mistral"
	KindHuggingFace Kind = "huggingface"
)

// Kinds returns all supported provider kinds in their default priority order.
func Kinds() []Kind {
	return []Kind{KindOpenAI, KindAnthropic, KindTogether, KindMistral, KindHuggingFace}
}

// Valid reports whether k names a supported provider kind.
func (k Kind) Valid() bool {
	switch k {
	case KindOpenAI, KindAnthropic, KindTogether, KindMistral, KindHuggingFace:
		return true
	}
	return false
}

// String returns the kind as a plain string.
func (k Kind) String() string {
	return string(k)
}

// Descriptor is the immutable per-provider configuration. It is created once
// at startup from resolved configuration and never mutated afterwards; a
// provider without a usable credential never becomes a Descriptor.
type Descriptor struct {
	// Kind selects the adapter implementation.
	Kind Kind

	// APIKey is the resolved credential for this provider.
	APIKey string

	// BaseURL is the API root, without a trailing slash.
	BaseURL string

	// DefaultModel is used when a request does not override the model.
	DefaultModel string

	// Priority orders the fallback chain; lower is preferred.
	Priority int

	// Timeout bounds a single network attempt against this provider.
	Timeout time.Duration

	// MaxRetries is this provider's attempt budget within one generation
	// call. The effective budget is min(MaxRetries, global max attempts).
	MaxRetries int
}

// GenerationRequest is the provider-agnostic request accepted by Invoke and
// by the failover orchestrator.
type GenerationRequest struct {
	// Prompt is the text to complete. Required.
	Prompt string `json:"prompt"`

	// Model overrides the provider's default model when set.
	Model string `json:"model,omitempty"`

	// Provider, when set, is moved to the front of the fallback chain for
	// this call only.
	Provider Kind `json:"provider,omitempty"`

	// Temperature controls sampling randomness (0.0-2.0).
	Temperature float64 `json:"temperature,omitempty"`

	// MaxTokens caps the completion length. Adapters apply a vendor default
	// when zero and the vendor requires the field.
	MaxTokens int `json:"max_tokens,omitempty"`

	// TopP is the nucleus sampling parameter (0.0-1.0).
	TopP float64 `json:"top_p,omitempty"`

	// Stop lists sequences that end the completion.
	Stop []string `json:"stop,omitempty"`
}

// GenerationResponse is the canonical result of a successful generation.
type GenerationResponse struct {
	// Text is the generated completion.
	Text string `json:"text"`

	// Model is the model that actually served the request, as reported by
	// the provider when available.
	Model string `json:"model"`

	// Provider is the kind that served the request.
	Provider Kind `json:"provider"`

	// Usage holds token accounting for the call.
	Usage TokenUsage `json:"usage"`

	// Latency is the wall time of the winning attempt. Filled in by the
	// orchestrator.
	Latency time.Duration `json:"-"`
}

// TokenUsage holds token counts for a single generation.
type TokenUsage struct {
	// PromptTokens is the number of tokens in the prompt.
	PromptTokens int `json:"prompt_tokens"`

	// CompletionTokens is the number of tokens in the completion.
	CompletionTokens int `json:"completion_tokens"`

	// TotalTokens is the sum of prompt and completion tokens.
	TotalTokens int `json:"total_tokens"`

	// Estimated is true when the provider did not report usage and the
	// counts were derived from text length.
	Estimated bool `json:"estimated,omitempty"`
}

// Zero reports whether no usage was recorded at all.
func (u TokenUsage) Zero() bool {
	return u.PromptTokens == 0 && u.CompletionTokens == 0 && u.TotalTokens == 0
}
