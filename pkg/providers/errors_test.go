package providers

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestProviderError(t *testing.T) {
	t.Run("with status code", func(t *testing.T) {
		err := &ProviderError{
			Provider:   KindOpenAI,
			StatusCode: 500,
			Message:    "internal error",
		}

		expected := `provider "openai" error (status 500): internal error`
		if err.Error() != expected {
			t.Errorf("expected %q, got %q", expected, err.Error())
		}
	})

	t.Run("without status code", func(t *testing.T) {
		err := &ProviderError{
			Provider: KindOpenAI,
			Message:  "connection failed",
		}

		expected := `provider "openai" error: connection failed`
		if err.Error() != expected {
			t.Errorf("expected %q, got %q", expected, err.Error())
		}
	})

	t.Run("with cause", func(t *testing.T) {
		cause := errors.New("network timeout")
		err := &ProviderError{
			Provider: KindOpenAI,
			Message:  "request failed",
			Cause:    cause,
		}

		if !errors.Is(err, cause) {
			t.Error("expected error to wrap cause")
		}

		unwrapped := errors.Unwrap(err)
		if unwrapped != cause {
			t.Errorf("expected unwrapped error to be %v, got %v", cause, unwrapped)
		}
	})
}

func TestAuthError(t *testing.T) {
	err := &AuthError{
		Provider:   KindAnthropic,
		StatusCode: 401,
		Message:    "invalid x-api-key",
	}

	expected := `provider "anthropic" authentication failed: invalid x-api-key`
	if err.Error() != expected {
		t.Errorf("expected %q, got %q", expected, err.Error())
	}
}

func TestRateLimitError(t *testing.T) {
	t.Run("with retry after", func(t *testing.T) {
		err := &RateLimitError{
			Provider:   KindOpenAI,
			RetryAfter: 10 * time.Second,
			Message:    "Too many requests",
		}

		errStr := err.Error()
		if !strings.Contains(errStr, "rate limit exceeded") {
			t.Errorf("expected error to contain 'rate limit exceeded', got %q", errStr)
		}
		if !strings.Contains(errStr, "10s") {
			t.Errorf("expected error to contain retry duration, got %q", errStr)
		}
	})

	t.Run("without retry after", func(t *testing.T) {
		err := &RateLimitError{
			Provider: KindOpenAI,
			Message:  "Too many requests",
		}

		expected := `provider "openai" rate limit exceeded: Too many requests`
		if err.Error() != expected {
			t.Errorf("expected %q, got %q", expected, err.Error())
		}
	})
}

func TestTimeoutError(t *testing.T) {
	err := &TimeoutError{
		Provider: KindMistral,
		Timeout:  30 * time.Second,
	}

	errStr := err.Error()
	if !strings.Contains(errStr, "mistral") {
		t.Errorf("expected error to contain provider name, got %q", errStr)
	}
	if !strings.Contains(errStr, "timeout") {
		t.Errorf("expected error to contain 'timeout', got %q", errStr)
	}
	if !strings.Contains(errStr, "30s") {
		t.Errorf("expected error to contain timeout duration, got %q", errStr)
	}
}

func TestParseError(t *testing.T) {
	cause := errors.New("invalid JSON")
	err := &ParseError{
		Provider:    KindHuggingFace,
		RawResponse: `{"invalid": json}`,
		Cause:       cause,
	}

	errStr := err.Error()
	if !strings.Contains(errStr, "parse error") {
		t.Errorf("expected error to contain 'parse error', got %q", errStr)
	}
	if strings.Contains(errStr, err.RawResponse) {
		t.Errorf("raw response body must not appear in the error string, got %q", errStr)
	}

	unwrapped := errors.Unwrap(err)
	if unwrapped != cause {
		t.Errorf("expected unwrapped error to be %v, got %v", cause, unwrapped)
	}
}

func TestValidationError(t *testing.T) {
	err := &ValidationError{
		Field:   "prompt",
		Message: "prompt is required",
	}

	expected := `validation error for field "prompt": prompt is required`
	if err.Error() != expected {
		t.Errorf("expected %q, got %q", expected, err.Error())
	}
}

func TestConfigError(t *testing.T) {
	err := &ConfigError{
		Provider: KindOpenAI,
		Field:    "api_key",
		Message:  "API key is required",
	}

	errStr := err.Error()
	if !strings.Contains(errStr, "openai") {
		t.Errorf("expected error to contain provider name, got %q", errStr)
	}
	if !strings.Contains(errStr, "api_key") {
		t.Errorf("expected error to contain field name, got %q", errStr)
	}
}

func TestErrorChainTraversal(t *testing.T) {
	root := errors.New("TCP connection refused")
	wrapped := &ProviderError{
		Provider: KindOpenAI,
		Message:  "HTTP request failed",
		Cause:    root,
	}

	if !errors.Is(wrapped, root) {
		t.Error("expected errors.Is to traverse the chain")
	}

	var provErr *ProviderError
	if !errors.As(wrapped, &provErr) {
		t.Error("expected errors.As to find ProviderError in chain")
	}
}
