package providers

import (
	"errors"
	"strings"
	"time"
)

// Class is the failure-handling category the failover core assigns to an
// error returned by an Invoker. It decouples retry and circuit-breaker
// decisions from concrete error types.
type Class int

const (
	// ClassRetryable marks transient failures: network errors, timeouts,
	// 5xx responses, rate limits, and malformed responses. Retried within
	// the provider's budget; counts toward the circuit breaker when the
	// budget is exhausted.
	ClassRetryable Class = iota

	// ClassFatal marks failures that are permanent for this request
	// (for example a 4xx rejection). Not retried; counts toward the
	// circuit breaker.
	ClassFatal

	// ClassAuth marks rejected credentials. Not retried and never counted
	// toward the circuit breaker; reported through health as a failure.
	ClassAuth
)

// String returns the class name used in logs.
func (c Class) String() string {
	switch c {
	case ClassRetryable:
		return "retryable"
	case ClassFatal:
		return "fatal"
	case ClassAuth:
		return "auth"
	default:
		return "unknown"
	}
}

// Classify maps an error returned by an Invoker to its handling class.
//
// Typed errors from this package classify directly. Untyped errors fall back
// to message-pattern matching so that a provider wrapped by third-party
// transport code still classifies sensibly; anything unrecognized is treated
// as transient, matching the bias that unknown provider trouble is worth one
// more attempt elsewhere.
func Classify(err error) Class {
	if err == nil {
		return ClassRetryable
	}

	var authErr *AuthError
	if errors.As(err, &authErr) {
		return ClassAuth
	}

	var rateErr *RateLimitError
	if errors.As(err, &rateErr) {
		return ClassRetryable
	}

	var timeoutErr *TimeoutError
	if errors.As(err, &timeoutErr) {
		return ClassRetryable
	}

	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return ClassRetryable
	}

	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return ClassFatal
	}

	var provErr *ProviderError
	if errors.As(err, &provErr) {
		switch {
		case provErr.StatusCode == 0:
			// Network-level failure.
			return ClassRetryable
		case provErr.StatusCode == 401 || provErr.StatusCode == 403:
			return ClassAuth
		case provErr.StatusCode == 429:
			return ClassRetryable
		case provErr.StatusCode >= 500:
			return ClassRetryable
		default:
			return ClassFatal
		}
	}

	return classifyMessage(err.Error())
}

// classifyMessage categorizes an untyped error by its message. Auth patterns
// are the only ones that change the handling class; everything else is
// transient.
func classifyMessage(msg string) Class {
	if isAuthMessage(strings.ToLower(msg)) {
		return ClassAuth
	}
	return ClassRetryable
}

func isAuthMessage(lower string) bool {
	return strings.Contains(lower, "401") ||
		strings.Contains(lower, "403") ||
		strings.Contains(lower, "invalid api key") ||
		strings.Contains(lower, "unauthorized") ||
		strings.Contains(lower, "forbidden")
}

func isRateLimitMessage(lower string) bool {
	return strings.Contains(lower, "429") ||
		strings.Contains(lower, "rate limit") ||
		strings.Contains(lower, "rate_limit") ||
		strings.Contains(lower, "too many requests") ||
		strings.Contains(lower, "quota exceeded")
}

func isTimeoutMessage(lower string) bool {
	return strings.Contains(lower, "timeout") ||
		strings.Contains(lower, "deadline exceeded") ||
		strings.Contains(lower, "connection reset")
}

func isOverloadedMessage(lower string) bool {
	return strings.Contains(lower, "503") ||
		strings.Contains(lower, "overloaded") ||
		strings.Contains(lower, "service unavailable")
}

// RetryAfterHint extracts a provider-supplied retry-after duration from err,
// if one is present. The failover core prefers the hint over its computed
// backoff when the hint is longer.
func RetryAfterHint(err error) (time.Duration, bool) {
	var rateErr *RateLimitError
	if errors.As(err, &rateErr) && rateErr.RetryAfter > 0 {
		return rateErr.RetryAfter, true
	}
	return 0, false
}

// ErrorLabel returns the low-cardinality label used for error metrics.
func ErrorLabel(err error) string {
	if err == nil {
		return ""
	}

	var authErr *AuthError
	if errors.As(err, &authErr) {
		return "auth"
	}
	var rateErr *RateLimitError
	if errors.As(err, &rateErr) {
		return "rate_limit"
	}
	var timeoutErr *TimeoutError
	if errors.As(err, &timeoutErr) {
		return "timeout"
	}
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return "parse"
	}
	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return "validation"
	}
	var provErr *ProviderError
	if errors.As(err, &provErr) {
		switch {
		case provErr.StatusCode == 0:
			return "network"
		case provErr.StatusCode >= 500:
			return "server_error"
		default:
			return "client_error"
		}
	}

	lower := strings.ToLower(err.Error())
	switch {
	case isAuthMessage(lower):
		return "auth"
	case isRateLimitMessage(lower):
		return "rate_limit"
	case isTimeoutMessage(lower):
		return "timeout"
	case isOverloadedMessage(lower):
		return "server_error"
	default:
		return "unknown"
	}
}
