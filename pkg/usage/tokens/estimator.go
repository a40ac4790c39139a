package tokens

import (
	"strings"
	"sync"
)

// DefaultCharsPerToken is the ratio used when no model-specific ratio
// matches. Roughly accurate for English prose across current models.
const DefaultCharsPerToken = 4.0

// defaultRatios maps model identifiers (exact or prefix) to
// characters-per-token ratios.
var defaultRatios = map[string]float64{
	"gpt-4":         4.0,
	"gpt-3.5-turbo": 4.0,
	"claude-3":      3.5,
	"meta-llama/":   3.8,
	"mistral-":      3.9,
	"default":       DefaultCharsPerToken,
}

// Estimator implements character-based token estimation. It uses
// model-specific characters-per-token ratios to estimate token counts and
// is safe for concurrent use.
type Estimator struct {
	mu     sync.RWMutex
	models map[string]float64
}

// NewEstimator creates an estimator with the built-in ratios. Entries in
// overrides replace or extend the built-ins; a "default" key replaces the
// fallback ratio.
func NewEstimator(overrides map[string]float64) *Estimator {
	models := make(map[string]float64, len(defaultRatios)+len(overrides))
	for k, v := range defaultRatios {
		models[k] = v
	}
	for k, v := range overrides {
		if v > 0 {
			models[k] = v
		}
	}
	return &Estimator{models: models}
}

// EstimateText estimates the token count for a single text string using the
// model-specific ratio. Non-empty text always counts as at least one token.
func (e *Estimator) EstimateText(text, model string) int {
	if text == "" {
		return 0
	}

	charsPerToken := e.charsPerToken(model)
	estimated := float64(len(text)) / charsPerToken
	if estimated < 1.0 {
		estimated = 1.0
	}

	// Round to nearest integer.
	return int(estimated + 0.5)
}

// charsPerToken returns the ratio for a model: exact match first, then
// prefix match, then the default.
func (e *Estimator) charsPerToken(model string) float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if ratio, ok := e.models[model]; ok {
		return ratio
	}

	for pattern, ratio := range e.models {
		if pattern != "default" && strings.HasPrefix(model, pattern) {
			return ratio
		}
	}

	if ratio, ok := e.models["default"]; ok {
		return ratio
	}
	return DefaultCharsPerToken
}

// UpdateRatios replaces the ratio table (hot-reload support). Entries with
// non-positive ratios are ignored.
func (e *Estimator) UpdateRatios(overrides map[string]float64) {
	models := make(map[string]float64, len(defaultRatios)+len(overrides))
	for k, v := range defaultRatios {
		models[k] = v
	}
	for k, v := range overrides {
		if v > 0 {
			models[k] = v
		}
	}

	e.mu.Lock()
	e.models = models
	e.mu.Unlock()
}

// Estimate estimates the token count for text at the default ratio. It is
// the package-level convenience for callers without a model-aware
// estimator, such as adapters backfilling missing usage counters.
func Estimate(text string) int {
	if text == "" {
		return 0
	}

	estimated := float64(len(text)) / DefaultCharsPerToken
	if estimated < 1.0 {
		estimated = 1.0
	}
	return int(estimated + 0.5)
}
