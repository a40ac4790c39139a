package failover

import (
	"time"

	"aurora-ml/relay/pkg/providers"
)

// AttemptObservation describes one completed call attempt against one
// provider, successful or not. Observers receive a copy per attempt, after
// breaker accounting for that attempt has finished.
type AttemptObservation struct {
	// RequestID correlates attempts belonging to one Generate call.
	RequestID string

	Provider providers.Kind
	Model    string

	// Attempt is zero-based within the provider's retry budget.
	Attempt int

	// Err is nil on success. Class is the classification of Err and is
	// meaningful only when Err is non-nil.
	Err   error
	Class providers.Class

	Latency   time.Duration
	Usage     providers.TokenUsage
	Timestamp time.Time
}

// Succeeded reports whether the attempt completed without error.
func (o AttemptObservation) Succeeded() bool { return o.Err == nil }

// Observer receives orchestrator events. Implementations must be safe for
// concurrent use and must not block: slow consumers should buffer or drop.
type Observer interface {
	// AttemptCompleted is called once per provider call attempt.
	AttemptCompleted(obs AttemptObservation)

	// BreakerStateChanged is called on every circuit breaker transition,
	// including operator-forced ones.
	BreakerStateChanged(kind providers.Kind, from, to State)
}

// multiObserver fans events out to a fixed set of observers in order.
type multiObserver []Observer

func (m multiObserver) AttemptCompleted(obs AttemptObservation) {
	for _, o := range m {
		o.AttemptCompleted(obs)
	}
}

func (m multiObserver) BreakerStateChanged(kind providers.Kind, from, to State) {
	for _, o := range m {
		o.BreakerStateChanged(kind, from, to)
	}
}

// combineObservers collapses a slice of observers into a single one,
// returning nil when the slice is empty.
func combineObservers(observers []Observer) Observer {
	filtered := make(multiObserver, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	switch len(filtered) {
	case 0:
		return nil
	case 1:
		return filtered[0]
	default:
		return filtered
	}
}
