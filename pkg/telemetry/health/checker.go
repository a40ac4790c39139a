// Package health implements the liveness and readiness probes.
//
// Liveness reports only that the process is running. Readiness runs the
// registered component checks (provider availability, usage storage)
// concurrently with a per-check timeout and aggregates them: one failing
// check degrades the whole probe. Both are exposed as HTTP handlers for
// /healthz and /readyz.
package health

import (
	"context"
	"sync"
	"time"
)

// Probe status values.
const (
	StatusOK        = "ok"
	StatusReady     = "ready"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// DefaultCheckTimeout bounds a single component check.
const DefaultCheckTimeout = 5 * time.Second

// CheckFunc probes one component. A nil return means healthy.
type CheckFunc func(ctx context.Context) error

// CheckResult is the outcome of one component check.
type CheckResult struct {
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
}

// Status is a probe response.
type Status struct {
	Status    string                 `json:"status"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Checker runs named component checks for the readiness probe.
type Checker struct {
	mu      sync.RWMutex
	checks  map[string]CheckFunc
	timeout time.Duration
}

// New creates a checker. Non-positive timeouts fall back to
// DefaultCheckTimeout.
func New(timeout time.Duration) *Checker {
	if timeout <= 0 {
		timeout = DefaultCheckTimeout
	}
	return &Checker{
		checks:  make(map[string]CheckFunc),
		timeout: timeout,
	}
}

// RegisterCheck adds a named component check, replacing any previous
// check under the same name.
func (c *Checker) RegisterCheck(name string, check CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// Liveness reports that the process is alive. It never fails and runs
// no component checks.
func (c *Checker) Liveness() Status {
	return Status{
		Status:    StatusOK,
		Timestamp: time.Now(),
	}
}

// Readiness runs every registered check concurrently and aggregates the
// results. Any unhealthy component degrades the overall status.
func (c *Checker) Readiness(ctx context.Context) Status {
	c.mu.RLock()
	checks := make(map[string]CheckFunc, len(c.checks))
	for name, check := range c.checks {
		checks[name] = check
	}
	c.mu.RUnlock()

	results := make(map[string]CheckResult, len(checks))
	if len(checks) > 0 {
		var (
			wg       sync.WaitGroup
			resultMu sync.Mutex
		)
		for name, check := range checks {
			wg.Add(1)
			go func(name string, check CheckFunc) {
				defer wg.Done()
				result := c.runCheck(ctx, check)
				resultMu.Lock()
				results[name] = result
				resultMu.Unlock()
			}(name, check)
		}
		wg.Wait()
	}

	overall := StatusReady
	for _, result := range results {
		if result.Status != StatusOK {
			overall = StatusDegraded
		}
	}

	return Status{
		Status:    overall,
		Checks:    results,
		Timestamp: time.Now(),
	}
}

// runCheck executes one check under the configured timeout. The check
// runs in its own goroutine so a wedged component cannot stall the
// probe past the deadline.
func (c *Checker) runCheck(ctx context.Context, check CheckFunc) CheckResult {
	checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	errCh := make(chan error, 1)
	go func() {
		errCh <- check(checkCtx)
	}()

	select {
	case err := <-errCh:
		latency := time.Since(start).Milliseconds()
		if err != nil {
			return CheckResult{Status: StatusUnhealthy, Message: err.Error(), LatencyMS: latency}
		}
		return CheckResult{Status: StatusOK, LatencyMS: latency}
	case <-checkCtx.Done():
		return CheckResult{
			Status:    StatusUnhealthy,
			Message:   "health check timed out",
			LatencyMS: time.Since(start).Milliseconds(),
		}
	}
}
