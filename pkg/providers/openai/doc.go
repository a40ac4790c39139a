// Package openai implements the OpenAI-compatible provider adapter.
//
// This package provides an implementation of the providers.Invoker interface
// for the chat completions dialect. Three provider kinds speak it:
//
//   - openai (https://api.openai.com/v1)
//   - together (https://api.together.xyz/v1)
//   - mistral (https://api.mistral.ai/v1)
//
// The kinds differ only in base URL, credential, and model catalog; the wire
// format is identical, so one adapter serves all three.
//
// # Basic Usage
//
//	desc := providers.Descriptor{
//	    Kind:         providers.KindOpenAI,
//	    APIKey:       os.Getenv("OPENAI_API_KEY"),
//	    DefaultModel: "gpt-4o-mini",
//	    Timeout:      30 * time.Second,
//	}
//
//	client, err := openai.New(desc, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	resp, err := client.Invoke(context.Background(), &providers.GenerationRequest{
//	    Prompt: "Hello!",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(resp.Text)
//
// # Request Transformation
//
// The adapter maps the canonical GenerationRequest onto the chat wire
// format:
//
//   - The prompt becomes a single user message
//   - The model falls back to the descriptor's default when unset
//   - Temperature, max_tokens, top_p, and stop pass through, omitted when
//     zero-valued
//
// # Error Handling
//
// Failures are translated to the typed errors in the providers package:
//
//   - 401/403 -> AuthError
//   - 429 -> RateLimitError (carries any Retry-After hint)
//   - other non-2xx -> ProviderError with the status code
//   - deadline hit -> TimeoutError
//   - malformed or empty-choice bodies -> ParseError
//
// The adapter makes exactly one attempt per Invoke call. Retries, backoff,
// and failover across providers belong to the failover orchestrator.
package openai
