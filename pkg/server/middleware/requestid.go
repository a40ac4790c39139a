package middleware

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"

	"aurora-ml/relay/pkg/failover"
)

// RequestIDHeader is the header carrying the request correlation ID.
const RequestIDHeader = "X-Request-ID"

// RequestID stamps every request with a correlation ID, kept from the
// client's X-Request-ID header when present. The ID travels in the
// request context (readable via failover.RequestIDFrom) and is echoed
// in the response header.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = newRequestID()
		}

		ctx := failover.WithRequestID(r.Context(), requestID)
		w.Header().Set(RequestIDHeader, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// newRequestID returns 16 random bytes as 32 hex characters.
func newRequestID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "unidentified-request"
	}
	return hex.EncodeToString(b)
}
