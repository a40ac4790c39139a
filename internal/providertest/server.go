// Package providertest provides a mock vendor API server and descriptor
// helpers shared by the provider adapter tests.
package providertest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"aurora-ml/relay/pkg/providers"
)

// Server is a mock vendor API server. It serves configured responses by
// request path and records every request it receives so tests can verify
// wire-level details.
type Server struct {
	server    *httptest.Server
	mu        sync.Mutex
	responses map[string]Response
	requests  []RecordedRequest
}

// Response configures what the server returns for one path.
type Response struct {
	StatusCode int
	Body       any
	Delay      time.Duration
	Headers    map[string]string
}

// RecordedRequest captures one request the server received.
type RecordedRequest struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

// NewServer starts a mock server. Callers must Close it.
func NewServer() *Server {
	s := &Server{responses: make(map[string]Response)}
	s.server = httptest.NewServer(http.HandlerFunc(s.handler))
	return s
}

// URL returns the server's base URL.
func (s *Server) URL() string {
	return s.server.URL
}

// Close shuts the server down.
func (s *Server) Close() {
	s.server.Close()
}

// SetResponse configures the response served for path.
func (s *Server) SetResponse(path string, response Response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[path] = response
}

// RequestCount returns how many requests the server has received.
func (s *Server) RequestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// LastRequest returns the most recently received request. The bool is false
// when no request has arrived yet.
func (s *Server) LastRequest() (RecordedRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return RecordedRequest{}, false
	}
	return s.requests[len(s.requests)-1], true
}

func (s *Server) handler(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	s.mu.Lock()
	s.requests = append(s.requests, RecordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Header: r.Header.Clone(),
		Body:   body,
	})
	response, ok := s.responses[r.URL.Path]
	s.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}

	if response.Delay > 0 {
		time.Sleep(response.Delay)
	}

	for key, value := range response.Headers {
		w.Header().Set(key, value)
	}

	status := response.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)

	switch v := response.Body.(type) {
	case nil:
	case string:
		io.WriteString(w, v)
	case []byte:
		w.Write(v)
	default:
		json.NewEncoder(w).Encode(v)
	}
}

// Descriptor returns a descriptor pointed at a test server, with short
// timeouts suitable for tests.
func Descriptor(kind providers.Kind, baseURL string) providers.Descriptor {
	return providers.Descriptor{
		Kind:       kind,
		APIKey:     "test-key",
		BaseURL:    baseURL,
		Priority:   1,
		Timeout:    5 * time.Second,
		MaxRetries: 2,
	}
}

// ChatCompletion builds an OpenAI-style chat completion body.
func ChatCompletion(content, model string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-123",
		"object":  "chat.completion",
		"created": time.Now().Unix(),
		"model":   model,
		"choices": []map[string]any{
			{
				"index": 0,
				"message": map[string]any{
					"role":    "assistant",
					"content": content,
				},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]any{
			"prompt_tokens":     10,
			"completion_tokens": 20,
			"total_tokens":      30,
		},
	}
}

// AnthropicMessage builds an Anthropic messages API response body.
func AnthropicMessage(content, model string) map[string]any {
	return map[string]any{
		"id":   "msg_123",
		"type": "message",
		"role": "assistant",
		"content": []map[string]any{
			{"type": "text", "text": content},
		},
		"model":       model,
		"stop_reason": "end_turn",
		"usage": map[string]any{
			"input_tokens":  10,
			"output_tokens": 20,
		},
	}
}

// TextGeneration builds a Hugging Face inference API response body.
func TextGeneration(content string) []map[string]any {
	return []map[string]any{
		{"generated_text": content},
	}
}

// Error builds a vendor error response with the usual nested envelope.
func Error(status int, message string) Response {
	return Response{
		StatusCode: status,
		Body: map[string]any{
			"error": map[string]any{
				"message": message,
				"type":    "invalid_request_error",
			},
		},
	}
}

// AuthError builds a 401 invalid-key response.
func AuthError() Response {
	return Error(http.StatusUnauthorized, "Invalid API key")
}

// RateLimited builds a 429 response with a Retry-After header.
func RateLimited(retryAfter int) Response {
	response := Error(http.StatusTooManyRequests, "Rate limit exceeded")
	response.Headers = map[string]string{
		"Retry-After": fmt.Sprintf("%d", retryAfter),
	}
	return response
}

// ServerError builds a 500 response.
func ServerError() Response {
	return Error(http.StatusInternalServerError, "Internal server error")
}
