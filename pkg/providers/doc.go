// Package providers defines the provider-agnostic generation contract shared
// by every vendor adapter and by the failover core.
//
// # Overview
//
// The package holds the canonical request/response types, the typed error
// hierarchy, the error classification used for retry and circuit-breaker
// decisions, and the Invoker interface that vendor adapters implement. The
// failover orchestrator is generic over Invoker and never branches on vendor
// identity; everything vendor-specific (URLs, headers, payload shapes) lives
// in the adapter subpackages.
//
// # Basic Usage
//
// Adapters are usually constructed through providerfactory, but can be built
// directly:
//
//	desc := providers.Descriptor{
//	    Kind:         providers.KindOpenAI,
//	    APIKey:       os.Getenv("OPENAI_API_KEY"),
//	    BaseURL:      "https://api.openai.com/v1",
//	    DefaultModel: "gpt-4o-mini",
//	    Timeout:      30 * time.Second,
//	}
//
//	inv := openai.New(desc, logger)
//	defer inv.Close()
//
//	resp, err := inv.Invoke(ctx, &providers.GenerationRequest{
//	    Prompt: "Summarize the cardiovascular system.",
//	})
//
// # Error Handling
//
// Invokers return typed errors (AuthError, RateLimitError, TimeoutError,
// ParseError, ProviderError). Classify maps any of them to a handling class:
//
//	switch providers.Classify(err) {
//	case providers.ClassRetryable:
//	    // transient: back off and retry
//	case providers.ClassAuth:
//	    // credential problem: do not retry, do not trip the breaker
//	case providers.ClassFatal:
//	    // permanent for this request: move to the next provider
//	}
//
// # Thread Safety
//
// Invoker implementations are safe for concurrent use; each adapter owns a
// pooled HTTP client released by Close.
package providers
