package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Connection pool defaults shared by all adapters.
const (
	DefaultMaxIdleConns        = 100
	DefaultMaxIdleConnsPerHost = 10
	DefaultIdleConnTimeout     = 90 * time.Second
)

// NewHTTPClient builds the pooled HTTP client used by vendor adapters.
// The client carries no overall timeout; adapters bound each attempt with a
// context deadline derived from the descriptor's Timeout so that callers'
// cancellation composes correctly.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        DefaultMaxIdleConns,
			MaxIdleConnsPerHost: DefaultMaxIdleConnsPerHost,
			IdleConnTimeout:     DefaultIdleConnTimeout,
			ForceAttemptHTTP2:   true,
		},
	}
}

// HTTPCaller performs single-attempt JSON calls against one vendor API.
// It owns the wire mechanics every adapter shares: the per-attempt deadline,
// request construction, status handling, and translation of transport
// failures into this package's typed errors. Retries, backoff, and failover
// belong to the caller, so HTTPCaller never retries.
type HTTPCaller struct {
	// Kind labels the typed errors produced by this caller.
	Kind Kind

	// Client is the pooled HTTP client used for every call.
	Client *http.Client

	// Timeout bounds each call in addition to any deadline already on the
	// context. Zero applies no additional bound.
	Timeout time.Duration
}

// PostJSON sends one JSON POST request and decodes a 2xx response into out.
// Non-2xx responses become typed errors via ErrorFromStatus, transport
// failures become a ProviderError with status 0, a deadline hit becomes a
// TimeoutError, and caller cancellation is returned unchanged so it is never
// mistaken for provider instability.
func (c *HTTPCaller) PostJSON(ctx context.Context, url string, headers map[string]string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		switch {
		case errors.Is(err, context.Canceled):
			return err
		case errors.Is(err, context.DeadlineExceeded):
			return &TimeoutError{Provider: c.Kind, Timeout: c.Timeout}
		default:
			return &ProviderError{Provider: c.Kind, Message: err.Error(), Cause: err}
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &ParseError{
			Provider: c.Kind,
			Cause:    fmt.Errorf("failed to read response: %w", err),
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ErrorFromStatus(c.Kind, resp.StatusCode, resp.Header.Get("Retry-After"), errorMessage(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &ParseError{
			Provider:    c.Kind,
			RawResponse: string(body),
			Cause:       fmt.Errorf("failed to unmarshal response: %w", err),
		}
	}

	return nil
}

// Close releases pooled connections held by the underlying client.
func (c *HTTPCaller) Close() error {
	c.Client.CloseIdleConnections()
	return nil
}

// errorMessage pulls a human-readable message out of a vendor error body.
// OpenAI-compatible APIs and Anthropic nest it under an error object while
// Hugging Face returns a bare string; an unrecognized body passes through
// trimmed.
func errorMessage(body []byte) string {
	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Error) > 0 {
		var structured struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(envelope.Error, &structured); err == nil && structured.Message != "" {
			return structured.Message
		}
		var plain string
		if err := json.Unmarshal(envelope.Error, &plain); err == nil && plain != "" {
			return plain
		}
	}
	if msg := strings.TrimSpace(string(body)); msg != "" {
		return msg
	}
	return "no error details"
}

// ParseRetryAfter parses a Retry-After header value. It accepts both the
// delay-seconds and HTTP-date forms and returns 0 when the header is absent
// or unparseable.
func ParseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}

	var seconds int
	if _, err := fmt.Sscanf(header, "%d", &seconds); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}

	if t, err := http.ParseTime(header); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}

	return 0
}

// ErrorFromStatus builds the typed error for a non-2xx provider response.
// The mapping is shared by every adapter: 401/403 are authentication
// failures, 429 is a rate limit carrying any Retry-After hint, everything
// else is a plain provider error classified later by status code.
func ErrorFromStatus(kind Kind, status int, retryAfter, message string) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &AuthError{Provider: kind, StatusCode: status, Message: message}
	case status == http.StatusTooManyRequests:
		return &RateLimitError{
			Provider:   kind,
			RetryAfter: ParseRetryAfter(retryAfter),
			Message:    message,
		}
	default:
		return &ProviderError{Provider: kind, StatusCode: status, Message: message}
	}
}
