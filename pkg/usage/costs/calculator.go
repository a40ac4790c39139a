package costs

import (
	"strings"
	"sync"

	"aurora-ml/relay/pkg/config"
	"aurora-ml/relay/pkg/providers"
)

// rate is the internal per-1000-token price pair.
type rate struct {
	prompt     float64
	completion float64
}

// builtinPricing is the default cost table, in USD per 1000 tokens. Keys
// are provider name, then model name or model prefix; "default" matches
// anything at its level. Config overrides replace entries per model.
var builtinPricing = map[string]map[string]rate{
	"openai": {
		"gpt-4o":        {prompt: 0.0025, completion: 0.01},
		"gpt-4o-mini":   {prompt: 0.00015, completion: 0.0006},
		"gpt-4-turbo":   {prompt: 0.01, completion: 0.03},
		"gpt-3.5-turbo": {prompt: 0.0005, completion: 0.0015},
		"default":       {prompt: 0.0025, completion: 0.01},
	},
	"anthropic": {
		"claude-3-opus":   {prompt: 0.015, completion: 0.075},
		"claude-3-sonnet": {prompt: 0.003, completion: 0.015},
		"claude-3-haiku":  {prompt: 0.00025, completion: 0.00125},
		"default":         {prompt: 0.003, completion: 0.015},
	},
	"together": {
		"meta-llama/": {prompt: 0.0002, completion: 0.0002},
		"default":     {prompt: 0.0002, completion: 0.0002},
	},
	"mistral": {
		"mistral-small": {prompt: 0.0002, completion: 0.0006},
		"mistral-large": {prompt: 0.002, completion: 0.006},
		"default":       {prompt: 0.0002, completion: 0.0006},
	},
	"huggingface": {
		// The shared inference API is not metered per token.
		"default": {prompt: 0, completion: 0},
	},
	"default": {
		"default": {prompt: 0.001, completion: 0.002},
	},
}

// Calculator estimates generation costs from token usage. It merges the
// built-in pricing table with configuration overrides and is safe for
// concurrent use, including pricing hot reloads.
type Calculator struct {
	mu      sync.RWMutex
	pricing map[string]map[string]rate
}

// NewCalculator creates a cost calculator. Entries in overrides replace the
// built-in rates for the same provider and model; providers and models not
// overridden keep their built-in rates.
func NewCalculator(overrides map[string]map[string]config.PricingConfig) *Calculator {
	return &Calculator{pricing: mergePricing(overrides)}
}

// EstimateCost calculates the USD cost for one generation from its token
// usage. Unknown provider and model combinations fall back through prefix
// and default rates; the ultimate fallback is the cross-provider default,
// so the estimate is never an error, only an approximation.
func (c *Calculator) EstimateCost(provider providers.Kind, model string, usage providers.TokenUsage) CostEstimate {
	pricing := c.PricingFor(provider, model)

	est := CostEstimate{Currency: "USD"}
	est.PromptCost = tokenCost(usage.PromptTokens, pricing.PromptCostPer1KTokens)
	est.CompletionCost = tokenCost(usage.CompletionTokens, pricing.CompletionCostPer1KTokens)
	est.TotalCost = est.PromptCost + est.CompletionCost
	return est
}

// PricingFor resolves the per-1000-token rates for a provider and model.
// Resolution order: exact model match, model prefix match, the provider's
// "default" entry, then the cross-provider default.
func (c *Calculator) PricingFor(provider providers.Kind, model string) ModelPricing {
	c.mu.RLock()
	defer c.mu.RUnlock()

	resolved := ModelPricing{Model: model, Provider: string(provider)}

	if models, ok := c.pricing[string(provider)]; ok {
		if r, ok := models[model]; ok {
			resolved.PromptCostPer1KTokens = r.prompt
			resolved.CompletionCostPer1KTokens = r.completion
			return resolved
		}
		for pattern, r := range models {
			if pattern != "default" && strings.HasPrefix(model, pattern) {
				resolved.PromptCostPer1KTokens = r.prompt
				resolved.CompletionCostPer1KTokens = r.completion
				return resolved
			}
		}
		if r, ok := models["default"]; ok {
			resolved.PromptCostPer1KTokens = r.prompt
			resolved.CompletionCostPer1KTokens = r.completion
			return resolved
		}
	}

	if r, ok := c.pricing["default"]["default"]; ok {
		resolved.PromptCostPer1KTokens = r.prompt
		resolved.CompletionCostPer1KTokens = r.completion
	}
	return resolved
}

// UpdatePricing replaces the override layer (hot-reload support).
func (c *Calculator) UpdatePricing(overrides map[string]map[string]config.PricingConfig) {
	merged := mergePricing(overrides)

	c.mu.Lock()
	c.pricing = merged
	c.mu.Unlock()
}

// mergePricing layers config overrides on top of the built-in table.
func mergePricing(overrides map[string]map[string]config.PricingConfig) map[string]map[string]rate {
	merged := make(map[string]map[string]rate, len(builtinPricing))
	for providerName, models := range builtinPricing {
		copied := make(map[string]rate, len(models))
		for model, r := range models {
			copied[model] = r
		}
		merged[providerName] = copied
	}

	for providerName, models := range overrides {
		if merged[providerName] == nil {
			merged[providerName] = make(map[string]rate, len(models))
		}
		for model, p := range models {
			merged[providerName][model] = rate{prompt: p.Prompt, completion: p.Completion}
		}
	}

	return merged
}

// tokenCost calculates the cost for a token count at a per-1000-token rate.
func tokenCost(tokens int, costPer1K float64) float64 {
	if tokens <= 0 {
		return 0.0
	}
	return (float64(tokens) / 1000.0) * costPer1K
}
