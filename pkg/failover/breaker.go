package failover

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// State is the admission-control state of a circuit breaker.
type State int

const (
	// StateClosed admits all calls. Initial state.
	StateClosed State = iota

	// StateOpen rejects all calls until the recovery timeout has elapsed
	// since the last recorded failure.
	StateOpen

	// StateHalfOpen admits a limited number of probe calls to test whether
	// the provider has recovered.
	StateHalfOpen
)

// String returns the state name used in logs, metrics, and JSON.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the state as its string name.
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a state from its string name.
func (s *State) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	switch name {
	case "closed":
		*s = StateClosed
	case "open":
		*s = StateOpen
	case "half_open":
		*s = StateHalfOpen
	default:
		return fmt.Errorf("unknown breaker state %q", name)
	}
	return nil
}

// Breaker defaults. The provider-facing configuration surface expresses the
// timeouts in seconds; these are their duration equivalents.
const (
	DefaultFailureThreshold = 5
	DefaultRecoveryTimeout  = 60 * time.Second
	DefaultHalfOpenMaxCalls = 3
	DefaultWindowSpan       = 5 * time.Minute
)

// BreakerConfig configures a single circuit breaker.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures in Closed
	// state that trips the breaker. Default: 5.
	FailureThreshold int

	// RecoveryTimeout is how long an Open breaker rejects calls before the
	// next admission check moves it to HalfOpen. Default: 60s.
	RecoveryTimeout time.Duration

	// HalfOpenMaxCalls is the probe budget while HalfOpen: at most this
	// many calls are admitted, and this many consecutive successes close
	// the breaker. Default: 3.
	HalfOpenMaxCalls int

	// WindowSpan is the age limit of sliding-window entries used for
	// failure-rate reporting. The window never gates admission. Default: 5m.
	WindowSpan time.Duration

	// OnTransition, when set, is called after every state change with the
	// old and new state. Called outside the breaker's lock.
	OnTransition func(from, to State)
}

func (c BreakerConfig) withDefaults() BreakerConfig {
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = DefaultFailureThreshold
	}
	if c.RecoveryTimeout <= 0 {
		c.RecoveryTimeout = DefaultRecoveryTimeout
	}
	if c.HalfOpenMaxCalls <= 0 {
		c.HalfOpenMaxCalls = DefaultHalfOpenMaxCalls
	}
	if c.WindowSpan <= 0 {
		c.WindowSpan = DefaultWindowSpan
	}
	return c
}

// BreakerSnapshot is a read-only copy of a breaker's state for reporting.
type BreakerSnapshot struct {
	State               State      `json:"state"`
	ConsecutiveFailures int        `json:"consecutive_failures"`
	TotalRequests       uint64     `json:"total_requests"`
	TotalSuccesses      uint64     `json:"total_successes"`
	LastFailureAt       *time.Time `json:"last_failure_at,omitempty"`
	LastSuccessAt       *time.Time `json:"last_success_at,omitempty"`
	HalfOpenProbes      int        `json:"half_open_probes"`
	FailureRate         float64    `json:"failure_rate"`
	WindowSize          int        `json:"window_size"`
}

// CircuitBreaker is the admission-control state machine for one provider.
//
// Tripping is driven by consecutive failures, never by the windowed failure
// rate. A single mutex serializes every counter update together with its
// state transition so concurrent records cannot lose updates or observe a
// half-applied transition.
type CircuitBreaker struct {
	cfg BreakerConfig

	mu                  sync.Mutex
	state               State
	consecutiveFailures int
	totalRequests       uint64
	totalSuccesses      uint64
	lastFailureAt       time.Time
	lastSuccessAt       time.Time
	halfOpenProbes      int
	halfOpenSuccesses   int
	window              *slidingWindow

	// now is replaced in tests.
	now func() time.Time
}

// NewCircuitBreaker returns a Closed breaker with the given configuration.
func NewCircuitBreaker(cfg BreakerConfig) *CircuitBreaker {
	cfg = cfg.withDefaults()
	return &CircuitBreaker{
		cfg:    cfg,
		state:  StateClosed,
		window: newSlidingWindow(cfg.WindowSpan),
		now:    time.Now,
	}
}

// CanExecute reports whether a call may proceed, consuming a probe slot when
// HalfOpen. This is the one read that mutates: an Open breaker whose recovery
// timeout has elapsed transitions to HalfOpen and admits the calling request
// as the first probe.
func (b *CircuitBreaker) CanExecute() bool {
	var admitted, moved bool

	b.mu.Lock()
	switch b.state {
	case StateClosed:
		admitted = true
	case StateOpen:
		if b.now().Sub(b.lastFailureAt) >= b.cfg.RecoveryTimeout {
			b.enterHalfOpenLocked()
			b.halfOpenProbes = 1
			admitted, moved = true, true
		}
	case StateHalfOpen:
		if b.halfOpenProbes < b.cfg.HalfOpenMaxCalls {
			b.halfOpenProbes++
			admitted = true
		}
	}
	b.mu.Unlock()

	if moved {
		b.notify(StateOpen, StateHalfOpen)
	}
	return admitted
}

// Admits reports whether a call would currently be admitted, without
// consuming a probe slot or performing the Open to HalfOpen transition.
// Status reporting uses this so that reads never mutate breaker state.
func (b *CircuitBreaker) Admits() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return true
	case StateOpen:
		return b.now().Sub(b.lastFailureAt) >= b.cfg.RecoveryTimeout
	case StateHalfOpen:
		return b.halfOpenProbes < b.cfg.HalfOpenMaxCalls
	default:
		return false
	}
}

// RecordSuccess records a completed successful call.
func (b *CircuitBreaker) RecordSuccess() {
	var from, to State
	var moved bool

	b.mu.Lock()
	now := b.now()
	b.totalRequests++
	b.totalSuccesses++
	b.lastSuccessAt = now
	b.window.add(now, false)

	switch b.state {
	case StateClosed:
		b.consecutiveFailures = 0
	case StateHalfOpen:
		b.halfOpenSuccesses++
		if b.halfOpenSuccesses >= b.cfg.HalfOpenMaxCalls {
			from, to, moved = StateHalfOpen, StateClosed, true
			b.state = StateClosed
			b.consecutiveFailures = 0
			b.halfOpenProbes = 0
			b.halfOpenSuccesses = 0
		}
	case StateOpen:
		// A call admitted before the trip may complete after it; the
		// counters absorb it without a state change.
	}
	b.mu.Unlock()

	if moved {
		b.notify(from, to)
	}
}

// RecordFailure records a completed failed call.
func (b *CircuitBreaker) RecordFailure() {
	var from, to State
	var moved bool

	b.mu.Lock()
	now := b.now()
	b.totalRequests++
	b.lastFailureAt = now
	b.consecutiveFailures++
	b.window.add(now, true)

	switch b.state {
	case StateClosed:
		if b.consecutiveFailures >= b.cfg.FailureThreshold {
			from, to, moved = StateClosed, StateOpen, true
			b.state = StateOpen
		}
	case StateHalfOpen:
		// Any probe failure reopens immediately, discarding the remaining
		// probe budget.
		from, to, moved = StateHalfOpen, StateOpen, true
		b.state = StateOpen
	case StateOpen:
	}
	b.mu.Unlock()

	if moved {
		b.notify(from, to)
	}
}

// FailureRate returns failures divided by total entries in the sliding
// window, or 0.0 when the window is empty.
func (b *CircuitBreaker) FailureRate() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.window.rate(b.now())
}

// State returns the current admission state.
func (b *CircuitBreaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Snapshot returns a read-only copy of the breaker's counters for reporting.
func (b *CircuitBreaker) Snapshot() BreakerSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	snap := BreakerSnapshot{
		State:               b.state,
		ConsecutiveFailures: b.consecutiveFailures,
		TotalRequests:       b.totalRequests,
		TotalSuccesses:      b.totalSuccesses,
		HalfOpenProbes:      b.halfOpenProbes,
		FailureRate:         b.window.rate(now),
		WindowSize:          b.window.size(now),
	}
	if !b.lastFailureAt.IsZero() {
		at := b.lastFailureAt
		snap.LastFailureAt = &at
	}
	if !b.lastSuccessAt.IsZero() {
		at := b.lastSuccessAt
		snap.LastSuccessAt = &at
	}
	return snap
}

// Reset returns the breaker to Closed and clears failure tracking. Lifetime
// totals are preserved. Used by the operator reset action.
func (b *CircuitBreaker) Reset() {
	var from State
	var moved bool

	b.mu.Lock()
	if b.state != StateClosed {
		from, moved = b.state, true
	}
	b.state = StateClosed
	b.consecutiveFailures = 0
	b.halfOpenProbes = 0
	b.halfOpenSuccesses = 0
	b.window.reset()
	b.mu.Unlock()

	if moved {
		b.notify(from, StateClosed)
	}
}

// ForceHalfOpen moves the breaker to HalfOpen regardless of the recovery
// timer, resetting the probe budget. Used by the operator recovery action to
// let one validation call through immediately.
func (b *CircuitBreaker) ForceHalfOpen() {
	var from State
	var moved bool

	b.mu.Lock()
	if b.state != StateHalfOpen {
		from, moved = b.state, true
	}
	b.enterHalfOpenLocked()
	b.mu.Unlock()

	if moved {
		b.notify(from, StateHalfOpen)
	}
}

func (b *CircuitBreaker) enterHalfOpenLocked() {
	b.state = StateHalfOpen
	b.halfOpenProbes = 0
	b.halfOpenSuccesses = 0
}

func (b *CircuitBreaker) notify(from, to State) {
	if b.cfg.OnTransition != nil {
		b.cfg.OnTransition(from, to)
	}
}
