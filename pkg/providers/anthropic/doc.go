// Package anthropic implements the Anthropic provider adapter.
//
// This package provides an implementation of the providers.Invoker interface
// for Anthropic's messages API. Anthropic differs from the OpenAI-compatible
// dialect in three ways this adapter absorbs:
//
//   - Authentication uses the x-api-key header plus a pinned
//     anthropic-version header instead of a bearer token
//   - max_tokens is mandatory; requests without one get DefaultMaxTokens
//   - Completions arrive as typed content blocks, and usage reports
//     input_tokens/output_tokens rather than prompt/completion counts
//
// # Basic Usage
//
//	desc := providers.Descriptor{
//	    Kind:         providers.KindAnthropic,
//	    APIKey:       os.Getenv("ANTHROPIC_API_KEY"),
//	    DefaultModel: "claude-3-haiku-20240307",
//	    Timeout:      30 * time.Second,
//	}
//
//	client, err := anthropic.New(desc, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	resp, err := client.Invoke(context.Background(), &providers.GenerationRequest{
//	    Prompt: "Hello!",
//	})
//
// # Error Handling
//
// Failures are translated to the typed errors in the providers package, the
// same mapping every adapter uses: 401/403 to AuthError, 429 to
// RateLimitError, other non-2xx statuses to ProviderError, deadline hits to
// TimeoutError, and malformed bodies to ParseError.
//
// The adapter makes exactly one attempt per Invoke call. Retries, backoff,
// and failover across providers belong to the failover orchestrator.
package anthropic
