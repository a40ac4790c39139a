package providers

import (
	"context"
)

// Invoker performs a single generation attempt against one provider.
//
// Implementations own the vendor-specific request construction, headers, and
// response parsing; callers own retries, circuit breaking, and failover. An
// Invoker must translate every failure into one of the typed errors in this
// package so that Classify can categorize it, and must honor cancellation of
// the passed context.
//
// Implementations must be safe for concurrent use.
type Invoker interface {
	// Invoke sends one generation request and returns the canonical
	// response. The call respects the descriptor's per-attempt timeout in
	// addition to any deadline already on ctx.
	Invoke(ctx context.Context, req *GenerationRequest) (*GenerationResponse, error)

	// Kind reports which provider this invoker talks to.
	Kind() Kind

	// Close releases pooled transport resources. The invoker must not be
	// used after Close returns.
	Close() error
}
