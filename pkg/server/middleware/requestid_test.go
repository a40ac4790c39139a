package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"aurora-ml/relay/pkg/failover"
)

func TestRequestID_GeneratesWhenAbsent(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = failover.RequestIDFrom(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/health", nil))

	if seen == "" {
		t.Fatal("no request ID in handler context")
	}
	if len(seen) != 32 {
		t.Errorf("request ID %q has length %d, want 32 hex characters", seen, len(seen))
	}
	if got := rec.Header().Get(RequestIDHeader); got != seen {
		t.Errorf("response header %q = %q, want %q", RequestIDHeader, got, seen)
	}
}

func TestRequestID_KeepsClientID(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = failover.RequestIDFrom(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
	req.Header.Set(RequestIDHeader, "client-supplied-id")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if seen != "client-supplied-id" {
		t.Errorf("handler saw request ID %q, want client-supplied-id", seen)
	}
	if got := rec.Header().Get(RequestIDHeader); got != "client-supplied-id" {
		t.Errorf("response header = %q, want client-supplied-id", got)
	}
}

func TestRequestID_UniquePerRequest(t *testing.T) {
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	ids := make(map[string]bool)
	for i := 0; i < 10; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		ids[rec.Header().Get(RequestIDHeader)] = true
	}
	if len(ids) != 10 {
		t.Errorf("got %d distinct IDs across 10 requests, want 10", len(ids))
	}
}
