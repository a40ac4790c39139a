// Package usage defines the usage ledger's record, query, and summary types
// and the Storage interface its backends implement.
//
// The ledger answers two operational questions: what did each provider
// attempt cost, and how reliable has each provider been. Every provider
// call attempt, successful or failed, becomes one UsageRecord carrying the
// request correlation id, provider, model, attempt number, outcome, token
// counts, estimated cost, and latency.
//
// Records are written asynchronously by the recorder subpackage, persisted
// by the storage subpackage, pruned on a schedule by the retention
// subpackage, and aggregated into per-provider summaries for the usage
// endpoint and CLI command.
//
// # Outcomes
//
// A record's Outcome is "success" for a completed generation, or the
// failure classification ("retryable", "fatal", "auth") for a failed
// attempt. Attempts are recorded individually: a request that fails twice
// and then succeeds produces three records sharing one RequestID.
//
// # Querying
//
//	records, err := store.Query(ctx, &usage.Query{
//		Provider: providers.KindOpenAI,
//		Since:    &cutoff,
//		Limit:    50,
//	})
//
// Results are ordered newest first. A zero Query returns the most recent
// records across all providers.
package usage
