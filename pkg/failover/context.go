package failover

import "context"

type contextKey string

const requestIDContextKey contextKey = "failover.request_id"

// WithRequestID tags ctx so that attempt observations made under it carry
// id. When absent, the orchestrator assigns a fresh ID per Generate call.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, id)
}

// RequestIDFrom returns the request ID carried by ctx, or "" when none
// was set.
func RequestIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDContextKey).(string); ok {
		return id
	}
	return ""
}
