package usage

import (
	"context"
	"time"

	"aurora-ml/relay/pkg/providers"
)

// OutcomeSuccess is the Outcome value of a record for a completed
// generation. Failed attempts carry their error classification instead.
const OutcomeSuccess = "success"

// UsageRecord captures one provider call attempt.
type UsageRecord struct {
	// ID uniquely identifies this record.
	ID string `json:"id"`

	// RequestID correlates all attempts made for one generation request.
	RequestID string `json:"request_id"`

	// Timestamp is when the attempt started.
	Timestamp time.Time `json:"timestamp"`

	// Provider and Model identify what was called.
	Provider providers.Kind `json:"provider"`
	Model    string         `json:"model"`

	// Attempt is the zero-based attempt number against this provider.
	Attempt int `json:"attempt"`

	// Outcome is OutcomeSuccess or the failure classification
	// ("retryable", "fatal", "auth").
	Outcome string `json:"outcome"`

	// Token counts for the attempt. Zero on failed attempts that never
	// produced a response.
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`

	// Estimated is true when the token counts were derived from text
	// length rather than reported by the provider.
	Estimated bool `json:"estimated"`

	// EstimatedCost is the attempt's cost in USD per the pricing table.
	EstimatedCost float64 `json:"estimated_cost"`

	// LatencyMS is the attempt's wall-clock duration in milliseconds.
	LatencyMS int64 `json:"latency_ms"`

	// Error is the failure message. Empty for successful attempts.
	Error string `json:"error,omitempty"`
}

// Succeeded reports whether the record describes a completed generation.
func (r *UsageRecord) Succeeded() bool {
	return r.Outcome == OutcomeSuccess
}

// Query filters usage records. Zero-value fields match everything.
type Query struct {
	// Since and Until bound the record timestamp, inclusive on Since and
	// exclusive on Until.
	Since *time.Time `json:"since,omitempty"`
	Until *time.Time `json:"until,omitempty"`

	// Provider restricts results to one provider.
	Provider providers.Kind `json:"provider,omitempty"`

	// Model restricts results to one model.
	Model string `json:"model,omitempty"`

	// Outcome restricts results to one outcome value.
	Outcome string `json:"outcome,omitempty"`

	// RequestID restricts results to the attempts of one request.
	RequestID string `json:"request_id,omitempty"`

	// Limit caps the result size; non-positive values use DefaultLimit.
	Limit int `json:"limit,omitempty"`

	// Offset skips results for pagination.
	Offset int `json:"offset,omitempty"`
}

// DefaultLimit is the result cap applied when a query does not set one.
const DefaultLimit = 100

// EffectiveLimit returns the query's limit, or DefaultLimit when unset.
func (q *Query) EffectiveLimit() int {
	if q == nil || q.Limit <= 0 {
		return DefaultLimit
	}
	return q.Limit
}

// Summary aggregates usage over a time window, grouped by provider.
type Summary struct {
	// Since is the inclusive start of the summarized window.
	Since time.Time `json:"since"`

	// GeneratedAt is when the summary was computed.
	GeneratedAt time.Time `json:"generated_at"`

	// Providers holds one entry per provider with recorded attempts,
	// ordered by provider name.
	Providers []ProviderSummary `json:"providers"`

	// Totals across all providers in the window.
	TotalRequests int64   `json:"total_requests"`
	TotalTokens   int64   `json:"total_tokens"`
	TotalCost     float64 `json:"total_cost"`
}

// ProviderSummary aggregates one provider's attempts within the window.
type ProviderSummary struct {
	Provider providers.Kind `json:"provider"`

	// Requests counts recorded attempts, Successes those with
	// OutcomeSuccess. SuccessRate is their ratio, zero when empty.
	Requests    int64   `json:"requests"`
	Successes   int64   `json:"successes"`
	Failures    int64   `json:"failures"`
	SuccessRate float64 `json:"success_rate"`

	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`

	// EstimatedCost is the summed USD cost of the provider's attempts.
	EstimatedCost float64 `json:"estimated_cost"`
}

// Storage persists usage records. Implementations must be safe for
// concurrent use.
type Storage interface {
	// Store persists a usage record.
	Store(ctx context.Context, record *UsageRecord) error

	// Query retrieves records matching the query, newest first.
	Query(ctx context.Context, query *Query) ([]*UsageRecord, error)

	// Count returns the number of records matching the query.
	Count(ctx context.Context, query *Query) (int64, error)

	// Summarize aggregates records with Timestamp >= since into a
	// per-provider summary.
	Summarize(ctx context.Context, since time.Time) (*Summary, error)

	// DeleteBefore removes records with Timestamp < cutoff and returns
	// the number removed.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// Close releases resources held by the backend.
	Close() error
}
