package failover

import (
	"errors"
	"testing"
	"time"

	"aurora-ml/relay/pkg/providers"
)

func TestHealthHealthyByDefault(t *testing.T) {
	reg := NewHealthRegistry(HealthConfig{})

	rec := reg.RecordFor(providers.KindOpenAI, BreakerSnapshot{State: StateClosed})

	if rec.Status != StatusHealthy {
		t.Errorf("Status = %v, want %v", rec.Status, StatusHealthy)
	}
	if rec.Reason != "" {
		t.Errorf("Reason = %q, want empty", rec.Reason)
	}
	if rec.LastError != "" {
		t.Errorf("LastError = %q, want empty", rec.LastError)
	}
	if rec.LastErrorAt != nil {
		t.Errorf("LastErrorAt = %v, want nil", rec.LastErrorAt)
	}
}

func TestHealthDegradedWhenBreakerOpen(t *testing.T) {
	reg := NewHealthRegistry(HealthConfig{})

	// Opening the breaker outranks the failed-last-call condition.
	reg.RecordFailure(providers.KindOpenAI, errors.New("status 500"), 100*time.Millisecond)

	rec := reg.RecordFor(providers.KindOpenAI, BreakerSnapshot{State: StateOpen, FailureRate: 1})

	if rec.Status != StatusDegraded {
		t.Errorf("Status = %v, want %v", rec.Status, StatusDegraded)
	}
	if rec.Reason != "circuit breaker open" {
		t.Errorf("Reason = %q, want %q", rec.Reason, "circuit breaker open")
	}
	if rec.LastError != "status 500" {
		t.Errorf("LastError = %q, want %q", rec.LastError, "status 500")
	}
}

func TestHealthDegradedOnHighFailureRate(t *testing.T) {
	reg := NewHealthRegistry(HealthConfig{})

	rec := reg.RecordFor(providers.KindAnthropic, BreakerSnapshot{
		State:       StateClosed,
		FailureRate: 0.62,
	})

	if rec.Status != StatusDegraded {
		t.Errorf("Status = %v, want %v", rec.Status, StatusDegraded)
	}
	if rec.Reason != "high failure rate: 62%" {
		t.Errorf("Reason = %q, want %q", rec.Reason, "high failure rate: 62%")
	}
}

func TestHealthFailureRateAtThresholdIsNotDegraded(t *testing.T) {
	reg := NewHealthRegistry(HealthConfig{})

	rec := reg.RecordFor(providers.KindAnthropic, BreakerSnapshot{
		State:       StateClosed,
		FailureRate: 0.5,
	})

	if rec.Status != StatusHealthy {
		t.Errorf("Status at exactly 50%% = %v, want %v", rec.Status, StatusHealthy)
	}
}

func TestHealthDegradedOnSlowResponses(t *testing.T) {
	reg := NewHealthRegistry(HealthConfig{})

	reg.RecordSuccess(providers.KindMistral, 6400*time.Millisecond)

	rec := reg.RecordFor(providers.KindMistral, BreakerSnapshot{State: StateClosed})

	if rec.Status != StatusDegraded {
		t.Errorf("Status = %v, want %v", rec.Status, StatusDegraded)
	}
	if rec.Reason != "slow response: 6400ms" {
		t.Errorf("Reason = %q, want %q", rec.Reason, "slow response: 6400ms")
	}
	if rec.AvgLatencyMS != 6400 {
		t.Errorf("AvgLatencyMS = %d, want 6400", rec.AvgLatencyMS)
	}
}

func TestHealthSlowThresholdIsCapped(t *testing.T) {
	// Requests above 30s would never be tolerated; the threshold caps
	// at 10s regardless of configuration.
	reg := NewHealthRegistry(HealthConfig{SlowCallThreshold: 30 * time.Second})

	reg.RecordSuccess(providers.KindOpenAI, 11*time.Second)
	rec := reg.RecordFor(providers.KindOpenAI, BreakerSnapshot{State: StateClosed})
	if rec.Status != StatusDegraded {
		t.Errorf("Status with 11s average = %v, want %v", rec.Status, StatusDegraded)
	}

	reg.RecordSuccess(providers.KindAnthropic, 9*time.Second)
	rec = reg.RecordFor(providers.KindAnthropic, BreakerSnapshot{State: StateClosed})
	if rec.Status != StatusHealthy {
		t.Errorf("Status with 9s average = %v, want %v", rec.Status, StatusHealthy)
	}
}

func TestHealthFailedAfterFailedCall(t *testing.T) {
	reg := NewHealthRegistry(HealthConfig{})

	reg.RecordFailure(providers.KindOpenAI, errors.New("invalid api key"), 80*time.Millisecond)

	rec := reg.RecordFor(providers.KindOpenAI, BreakerSnapshot{State: StateClosed})

	if rec.Status != StatusFailed {
		t.Errorf("Status = %v, want %v", rec.Status, StatusFailed)
	}
	if rec.LastError != "invalid api key" {
		t.Errorf("LastError = %q, want %q", rec.LastError, "invalid api key")
	}
	if rec.LastErrorAt == nil {
		t.Error("LastErrorAt = nil, want set")
	}
}

func TestHealthRecoversAfterSuccess(t *testing.T) {
	reg := NewHealthRegistry(HealthConfig{})

	reg.RecordFailure(providers.KindOpenAI, errors.New("status 502"), 100*time.Millisecond)
	reg.RecordSuccess(providers.KindOpenAI, 200*time.Millisecond)

	rec := reg.RecordFor(providers.KindOpenAI, BreakerSnapshot{State: StateClosed})

	if rec.Status != StatusHealthy {
		t.Errorf("Status = %v, want %v", rec.Status, StatusHealthy)
	}
	if rec.LastError != "" {
		t.Errorf("LastError = %q, want cleared after success", rec.LastError)
	}
}

func TestHealthClear(t *testing.T) {
	reg := NewHealthRegistry(HealthConfig{})

	reg.RecordFailure(providers.KindOpenAI, errors.New("status 500"), 7*time.Second)
	reg.Clear(providers.KindOpenAI)

	rec := reg.RecordFor(providers.KindOpenAI, BreakerSnapshot{State: StateClosed})

	if rec.Status != StatusHealthy {
		t.Errorf("Status after clear = %v, want %v", rec.Status, StatusHealthy)
	}
	if rec.AvgLatencyMS != 0 {
		t.Errorf("AvgLatencyMS after clear = %d, want 0", rec.AvgLatencyMS)
	}
}

func TestHealthUpdateThresholds(t *testing.T) {
	reg := NewHealthRegistry(HealthConfig{SlowCallThreshold: 8 * time.Second})

	reg.RecordSuccess(providers.KindOpenAI, 4*time.Second)
	rec := reg.RecordFor(providers.KindOpenAI, BreakerSnapshot{State: StateClosed})
	if rec.Status != StatusHealthy {
		t.Fatalf("Status before update = %v, want %v", rec.Status, StatusHealthy)
	}

	reg.UpdateThresholds(HealthConfig{SlowCallThreshold: 2 * time.Second})

	rec = reg.RecordFor(providers.KindOpenAI, BreakerSnapshot{State: StateClosed})
	if rec.Status != StatusDegraded {
		t.Errorf("Status after tightening = %v, want %v", rec.Status, StatusDegraded)
	}
}

func TestHealthLatencyMovingAverage(t *testing.T) {
	reg := NewHealthRegistry(HealthConfig{})

	reg.RecordSuccess(providers.KindOpenAI, 1000*time.Millisecond)
	reg.RecordSuccess(providers.KindOpenAI, 2000*time.Millisecond)

	rec := reg.RecordFor(providers.KindOpenAI, BreakerSnapshot{State: StateClosed})

	// 0.3*2000 + 0.7*1000
	if rec.AvgLatencyMS != 1300 {
		t.Errorf("AvgLatencyMS = %d, want 1300", rec.AvgLatencyMS)
	}
}

func TestHealthZeroLatencyIgnored(t *testing.T) {
	reg := NewHealthRegistry(HealthConfig{})

	reg.RecordSuccess(providers.KindOpenAI, 1500*time.Millisecond)
	reg.RecordFailure(providers.KindOpenAI, errors.New("connection reset"), 0)

	rec := reg.RecordFor(providers.KindOpenAI, BreakerSnapshot{State: StateClosed})

	if rec.AvgLatencyMS != 1500 {
		t.Errorf("AvgLatencyMS = %d, want 1500 (zero samples ignored)", rec.AvgLatencyMS)
	}
}
