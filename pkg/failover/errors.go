package failover

import (
	"errors"
	"fmt"
	"strings"

	"aurora-ml/relay/pkg/providers"
)

// ErrClosed is returned by Generate after the orchestrator has been closed.
var ErrClosed = errors.New("orchestrator is closed")

// ExhaustedError is the terminal aggregate error returned when every
// provider in the chain was either skipped (circuit open) or exhausted its
// attempt budget. It carries the ordered list of providers that were
// actually contacted and the last underlying error for diagnostics.
type ExhaustedError struct {
	// Attempted lists the providers that were contacted, in trying order.
	// Providers skipped because their breaker was open do not appear.
	Attempted []providers.Kind

	// LastErr is the final underlying failure, nil when every provider was
	// skipped without a single attempt.
	LastErr error
}

// Error implements the error interface.
func (e *ExhaustedError) Error() string {
	if len(e.Attempted) == 0 {
		return "all providers unavailable: every circuit is open"
	}

	names := make([]string, len(e.Attempted))
	for i, k := range e.Attempted {
		names[i] = string(k)
	}
	msg := fmt.Sprintf("all providers exhausted after trying [%s]", strings.Join(names, ", "))
	if e.LastErr != nil {
		msg += ": " + e.LastErr.Error()
	}
	return msg
}

// Unwrap returns the last underlying provider error.
func (e *ExhaustedError) Unwrap() error {
	return e.LastErr
}

// ConfigurationError is a fatal startup error, raised when the catalog has
// zero providers with usable credentials or the orchestrator is otherwise
// unbuildable. It is never retried.
type ConfigurationError struct {
	// Message describes what is wrong with the configuration.
	Message string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Message
}
