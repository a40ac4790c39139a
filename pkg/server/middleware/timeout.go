package middleware

import (
	"context"
	"net/http"
	"time"
)

// Timeout bounds handler time by shrinking the request context deadline.
// Handlers own the 504 mapping when the deadline expires; the response
// writer never has more than one writer. Non-positive timeouts disable
// the bound.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if timeout <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
