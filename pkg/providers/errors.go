package providers

import (
	"fmt"
	"time"
)

// ProviderError represents a general provider failure.
// It includes the provider kind, HTTP status code, and underlying error.
type ProviderError struct {
	// Provider is the kind of the provider that returned the error
	Provider Kind

	// StatusCode is the HTTP status code (0 for network-level failures)
	StatusCode int

	// Message is the error message
	Message string

	// Cause is the underlying error (if any)
	Cause error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider %q error (status %d): %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider %q error: %s", e.Provider, e.Message)
}

// Unwrap returns the underlying error for error chain support.
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// AuthError represents an authentication failure.
// This occurs when the provider rejects the API key (HTTP 401 or 403).
// Authentication failures are a configuration problem, not provider
// instability: they are never retried and never trip the circuit breaker.
type AuthError struct {
	// Provider is the kind of the provider that rejected authentication
	Provider Kind

	// StatusCode is 401 or 403
	StatusCode int

	// Message is the error message from the provider
	Message string
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	return fmt.Sprintf("provider %q authentication failed: %s", e.Provider, e.Message)
}

// RateLimitError represents provider-reported throttling (HTTP 429).
// It includes the retry-after duration if the provider supplied one.
type RateLimitError struct {
	// Provider is the kind of the provider that rate limited the request
	Provider Kind

	// RetryAfter is the duration to wait before retrying (0 if not provided)
	RetryAfter time.Duration

	// Message is the error message from the provider
	Message string
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("provider %q rate limit exceeded (retry after %s): %s",
			e.Provider, e.RetryAfter, e.Message)
	}
	return fmt.Sprintf("provider %q rate limit exceeded: %s", e.Provider, e.Message)
}

// TimeoutError represents a single attempt exceeding the provider's
// configured timeout.
type TimeoutError struct {
	// Provider is the kind of the provider where the timeout occurred
	Provider Kind

	// Timeout is the configured per-attempt timeout
	Timeout time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("provider %q request timeout after %s", e.Provider, e.Timeout)
}

// ParseError represents a malformed provider response.
type ParseError struct {
	// Provider is the kind of the provider that returned the malformed response
	Provider Kind

	// RawResponse is the raw response body that failed to parse
	RawResponse string

	// Cause is the underlying parse error
	Cause error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("provider %q response parse error: %v", e.Provider, e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// ValidationError represents a request that is invalid before it reaches any
// provider.
type ValidationError struct {
	// Field is the name of the invalid field
	Field string

	// Message describes what is invalid about the field
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field %q: %s", e.Field, e.Message)
}

// ConfigError represents an invalid provider configuration.
type ConfigError struct {
	// Provider is the kind of the provider with invalid configuration
	Provider Kind

	// Field is the configuration field that is invalid
	Field string

	// Message describes the configuration error
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("provider %q configuration error for field %q: %s",
		e.Provider, e.Field, e.Message)
}
