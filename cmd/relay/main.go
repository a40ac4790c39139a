// Relay is a resilient gateway for LLM text generation across
// interchangeable providers.
//
// It fronts OpenAI, Anthropic, Together, Mistral, and Hugging Face behind
// one generation API, providing:
//   - Automatic failover down a priority-ordered provider chain
//   - Per-provider circuit breakers with half-open recovery probes
//   - Retry with exponential backoff and jitter
//   - Usage ledger with token and cost accounting
//   - Health, circuit, and usage endpoints for operators
//
// Usage:
//
//	# Start the server with default configuration
//	relay run
//
//	# Start with a custom configuration file
//	relay run --config /etc/relay/config.yaml
//
//	# Validate a configuration file
//	relay validate --config config.yaml
//
//	# Run one generation from the command line
//	relay generate "Explain circuit breakers in one paragraph"
//
//	# Summarize recorded usage
//	relay usage --since 24h
//
//	# Show version information
//	relay version
//
// For complete documentation, see: https://github.com/aurora-ml/relay
package main

func main() {
	Execute()
}
