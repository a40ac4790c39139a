package failover

import (
	"fmt"
	"sync"
	"time"

	"aurora-ml/relay/pkg/providers"
)

// Status is the coarse health classification of a provider.
type Status string

const (
	// StatusHealthy: breaker closed, failure rate and latency under their
	// thresholds.
	StatusHealthy Status = "healthy"

	// StatusDegraded: reachable but performing poorly, or isolated by an
	// open breaker. The record's Reason explains which.
	StatusDegraded Status = "degraded"

	// StatusFailed: the most recent call failed outright.
	StatusFailed Status = "failed"
)

// Health defaults.
const (
	DefaultFailureRateThreshold = 0.5
	DefaultSlowCallThreshold    = 5 * time.Second

	// MaxSlowCallThreshold bounds how far the slow-call threshold can be
	// configured upward.
	MaxSlowCallThreshold = 10 * time.Second
)

// Weight of the newest sample in the latency moving average.
const latencyEWMAWeight = 0.3

// HealthConfig configures health classification thresholds.
type HealthConfig struct {
	// FailureRateThreshold is the windowed failure rate above which a
	// provider is Degraded. Default: 0.5.
	FailureRateThreshold float64

	// SlowCallThreshold is the average latency above which a provider is
	// Degraded. Default: 5s, capped at 10s.
	SlowCallThreshold time.Duration
}

func (c HealthConfig) withDefaults() HealthConfig {
	if c.FailureRateThreshold <= 0 {
		c.FailureRateThreshold = DefaultFailureRateThreshold
	}
	if c.SlowCallThreshold <= 0 {
		c.SlowCallThreshold = DefaultSlowCallThreshold
	}
	if c.SlowCallThreshold > MaxSlowCallThreshold {
		c.SlowCallThreshold = MaxSlowCallThreshold
	}
	return c
}

// HealthRecord is the externally reportable health of one provider. It is
// derived on demand from the breaker snapshot plus the registry's outcome
// tracking, and is always a copy: readers never hold live references.
type HealthRecord struct {
	Provider     providers.Kind  `json:"provider"`
	Status       Status          `json:"status"`
	Reason       string          `json:"reason,omitempty"`
	Circuit      BreakerSnapshot `json:"circuit"`
	FailureRate  float64         `json:"failure_rate"`
	LastError    string          `json:"last_error,omitempty"`
	LastErrorAt  *time.Time      `json:"last_error_at,omitempty"`
	AvgLatencyMS int64           `json:"avg_latency_ms"`
}

// healthEntry is the registry's mutable per-provider tracking.
type healthEntry struct {
	lastCallFailed bool
	lastError      string
	lastErrorAt    time.Time
	avgLatency     time.Duration
	sampled        bool
}

// HealthRegistry aggregates per-call outcomes into reportable health
// records. Reads never mutate breaker state; classification happens at read
// time from a breaker snapshot passed in by the orchestrator.
type HealthRegistry struct {
	cfg HealthConfig

	mu      sync.RWMutex
	entries map[providers.Kind]*healthEntry

	now func() time.Time
}

// NewHealthRegistry returns an empty registry.
func NewHealthRegistry(cfg HealthConfig) *HealthRegistry {
	return &HealthRegistry{
		cfg:     cfg.withDefaults(),
		entries: make(map[providers.Kind]*healthEntry),
		now:     time.Now,
	}
}

// RecordSuccess notes a successful call and folds its latency into the
// moving average.
func (r *HealthRegistry) RecordSuccess(kind providers.Kind, latency time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e := r.entry(kind)
	e.lastCallFailed = false
	e.lastError = ""
	r.observeLatency(e, latency)
}

// RecordFailure notes a failed call. Authentication failures flow through
// here as well; the breaker distinction is the orchestrator's concern, not
// the health registry's.
func (r *HealthRegistry) RecordFailure(kind providers.Kind, err error, latency time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e := r.entry(kind)
	e.lastCallFailed = true
	if err != nil {
		e.lastError = err.Error()
	}
	e.lastErrorAt = r.now()
	r.observeLatency(e, latency)
}

// Clear forgets outcome tracking for kind. Used by the operator breaker
// reset so a reset provider reports a clean slate.
func (r *HealthRegistry) Clear(kind providers.Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, kind)
}

// UpdateThresholds replaces the classification thresholds. Takes effect on
// the next health read; recorded outcomes are unaffected.
func (r *HealthRegistry) UpdateThresholds(cfg HealthConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cfg = cfg.withDefaults()
}

// RecordFor derives the reportable health record for kind from a breaker
// snapshot. Degradation conditions are checked before the failed-last-call
// condition so an isolated provider reports "circuit breaker open" rather
// than just its last error.
func (r *HealthRegistry) RecordFor(kind providers.Kind, snap BreakerSnapshot) HealthRecord {
	r.mu.RLock()
	cfg := r.cfg
	var e healthEntry
	if stored, ok := r.entries[kind]; ok {
		e = *stored
	}
	r.mu.RUnlock()

	rec := HealthRecord{
		Provider:     kind,
		Circuit:      snap,
		FailureRate:  snap.FailureRate,
		LastError:    e.lastError,
		AvgLatencyMS: e.avgLatency.Milliseconds(),
	}
	if !e.lastErrorAt.IsZero() {
		at := e.lastErrorAt
		rec.LastErrorAt = &at
	}

	switch {
	case snap.State == StateOpen:
		rec.Status = StatusDegraded
		rec.Reason = "circuit breaker open"
	case snap.FailureRate > cfg.FailureRateThreshold:
		rec.Status = StatusDegraded
		rec.Reason = fmt.Sprintf("high failure rate: %.0f%%", snap.FailureRate*100)
	case e.sampled && e.avgLatency > cfg.SlowCallThreshold:
		rec.Status = StatusDegraded
		rec.Reason = fmt.Sprintf("slow response: %dms", e.avgLatency.Milliseconds())
	case e.lastCallFailed:
		rec.Status = StatusFailed
	default:
		rec.Status = StatusHealthy
	}
	return rec
}

// entry returns the tracking entry for kind, creating it if needed. Caller
// holds the write lock.
func (r *HealthRegistry) entry(kind providers.Kind) *healthEntry {
	e, ok := r.entries[kind]
	if !ok {
		e = &healthEntry{}
		r.entries[kind] = e
	}
	return e
}

// observeLatency folds one latency sample into the moving average. Caller
// holds the write lock.
func (r *HealthRegistry) observeLatency(e *healthEntry, latency time.Duration) {
	if latency <= 0 {
		return
	}
	if !e.sampled {
		e.avgLatency = latency
		e.sampled = true
		return
	}
	e.avgLatency = time.Duration(
		latencyEWMAWeight*float64(latency) + (1-latencyEWMAWeight)*float64(e.avgLatency))
}
