// Package huggingface implements the Hugging Face provider adapter.
//
// This package provides an implementation of the providers.Invoker interface
// for the hosted inference API's text-generation task. The dialect differs
// from chat-completion APIs in several ways the adapter absorbs:
//
//   - The model is addressed in the URL path (POST /models/{org}/{repo}),
//     not in the request body
//   - The prompt is a bare "inputs" string with generation parameters
//     nested under "parameters" (max_new_tokens, temperature, top_p, stop)
//   - The response is an array of generated_text objects with no token
//     accounting; usage is estimated from text length and marked Estimated
//
// # Cold Models
//
// A model that is not resident returns 503 with a loading message. The
// adapter requests wait_for_model=false so such calls fail fast; the 503
// classifies as retryable, which lets the failover orchestrator back off,
// retry, or move to the next provider while the model warms up.
//
// # Basic Usage
//
//	desc := providers.Descriptor{
//	    Kind:         providers.KindHuggingFace,
//	    APIKey:       os.Getenv("HF_API_KEY"),
//	    DefaultModel: "HuggingFaceH4/zephyr-7b-beta",
//	    Timeout:      30 * time.Second,
//	}
//
//	client, err := huggingface.New(desc, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	resp, err := client.Invoke(context.Background(), &providers.GenerationRequest{
//	    Prompt: "Hello!",
//	})
//
// The adapter makes exactly one attempt per Invoke call. Retries, backoff,
// and failover across providers belong to the failover orchestrator.
package huggingface
