package costs

// CostEstimate contains cost calculations in USD for one generation.
type CostEstimate struct {
	// PromptCost is the cost for prompt tokens in USD.
	PromptCost float64 `json:"prompt_cost"`

	// CompletionCost is the cost for completion tokens in USD.
	CompletionCost float64 `json:"completion_cost"`

	// TotalCost is the total cost in USD.
	TotalCost float64 `json:"total_cost"`

	// Currency is the currency code (always "USD").
	Currency string `json:"currency"`
}

// ModelPricing contains per-1000-token rates resolved for one model.
type ModelPricing struct {
	// Model is the model identifier the rates were resolved for.
	Model string

	// Provider is the provider name.
	Provider string

	// PromptCostPer1KTokens is the cost per 1000 prompt tokens in USD.
	PromptCostPer1KTokens float64

	// CompletionCostPer1KTokens is the cost per 1000 completion tokens in USD.
	CompletionCostPer1KTokens float64
}
