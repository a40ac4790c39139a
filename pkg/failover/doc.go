// Package failover implements the resilience core: per-provider circuit
// breakers with sliding-window failure tracking, exponential-backoff retry,
// priority-ordered fallback across providers, and the health view derived
// from breaker state.
//
// # Overview
//
// The Orchestrator is the single entrypoint. Given a generation request it
// walks the fallback chain in priority order, consults each provider's
// circuit breaker, retries transient failures against the same provider with
// backoff, and moves to the next provider when a provider's attempt budget is
// exhausted. The first success wins; if every provider is skipped or
// exhausted the caller receives an ExhaustedError naming the providers that
// were tried.
//
// Breakers trip on consecutive failures, not on the windowed failure rate:
// a slow trickle of failures among many successes should not blind-side a
// generally healthy provider. The sliding window exists only to report a
// failure rate through the health surface.
//
// # Usage
//
//	orch, err := failover.New(failover.Config{
//	    Descriptors: descriptors,
//	    Invokers:    invokers,
//	}, logger)
//	if err != nil {
//	    return err
//	}
//	defer orch.Close()
//
//	resp, err := orch.Generate(ctx, &providers.GenerationRequest{
//	    Prompt: "Explain beta blockers in one paragraph.",
//	})
//
// # Concurrency
//
// Generate is safe for concurrent use. Each breaker serializes its own
// counter updates; the fallback chain is replaced atomically by SwitchPrimary
// so in-flight calls observe either the old or the new order, never a mix.
package failover
