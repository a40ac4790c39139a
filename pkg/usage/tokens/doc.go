// Package tokens provides character-based token estimation.
//
// Some providers report token usage on every response; others (notably the
// Hugging Face inference API) return only generated text. This package
// backfills the missing counts so that usage records and cost estimates
// stay comparable across providers. Estimated counts are flagged as such in
// usage records.
//
// The estimator divides character length by a model-specific
// characters-per-token ratio:
//
//   - GPT family: ~4 characters per token
//   - Claude 3 family: ~3.5 characters per token
//   - Llama and Mistral open models: ~3.8-3.9 characters per token
//
// Ratios are looked up by exact model name first, then by prefix, then the
// default of 4.0. This stays within a few percent of real tokenizer output
// for English prose, which is accurate enough for trend reporting; it is
// not suitable for billing reconciliation.
//
// # Usage
//
//	est := tokens.NewEstimator(nil)
//	prompt := est.EstimateText(req.Prompt, model)
//
// or, without model awareness:
//
//	completion := tokens.Estimate(resp.Text)
package tokens
