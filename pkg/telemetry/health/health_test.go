package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNew_DefaultTimeout(t *testing.T) {
	checker := New(0)
	if checker.timeout != DefaultCheckTimeout {
		t.Errorf("timeout = %v, want %v", checker.timeout, DefaultCheckTimeout)
	}

	checker = New(10 * time.Second)
	if checker.timeout != 10*time.Second {
		t.Errorf("timeout = %v, want 10s", checker.timeout)
	}
}

func TestChecker_Liveness(t *testing.T) {
	checker := New(0)
	checker.RegisterCheck("failing", func(ctx context.Context) error {
		return errors.New("down")
	})

	status := checker.Liveness()
	if status.Status != StatusOK {
		t.Errorf("liveness status = %q, want %q", status.Status, StatusOK)
	}
	if status.Timestamp.IsZero() {
		t.Error("liveness timestamp is zero")
	}
}

func TestChecker_ReadinessWithoutChecks(t *testing.T) {
	checker := New(0)

	status := checker.Readiness(context.Background())
	if status.Status != StatusReady {
		t.Errorf("status = %q, want %q", status.Status, StatusReady)
	}
	if len(status.Checks) != 0 {
		t.Errorf("checks = %v, want none", status.Checks)
	}
}

func TestChecker_ReadinessAllHealthy(t *testing.T) {
	checker := New(0)
	checker.RegisterCheck("providers", func(ctx context.Context) error { return nil })
	checker.RegisterCheck("usage_storage", func(ctx context.Context) error { return nil })

	status := checker.Readiness(context.Background())
	if status.Status != StatusReady {
		t.Errorf("status = %q, want %q", status.Status, StatusReady)
	}
	if len(status.Checks) != 2 {
		t.Fatalf("got %d check results, want 2", len(status.Checks))
	}
	for name, result := range status.Checks {
		if result.Status != StatusOK {
			t.Errorf("check %s status = %q, want %q", name, result.Status, StatusOK)
		}
	}
}

func TestChecker_ReadinessFailingCheck(t *testing.T) {
	checker := New(0)
	checker.RegisterCheck("providers", func(ctx context.Context) error { return nil })
	checker.RegisterCheck("usage_storage", func(ctx context.Context) error {
		return errors.New("database is locked")
	})

	status := checker.Readiness(context.Background())
	if status.Status != StatusDegraded {
		t.Errorf("status = %q, want %q", status.Status, StatusDegraded)
	}

	result := status.Checks["usage_storage"]
	if result.Status != StatusUnhealthy {
		t.Errorf("failing check status = %q, want %q", result.Status, StatusUnhealthy)
	}
	if result.Message != "database is locked" {
		t.Errorf("failing check message = %q", result.Message)
	}
}

func TestChecker_ReadinessTimesOutSlowCheck(t *testing.T) {
	checker := New(20 * time.Millisecond)
	checker.RegisterCheck("slow", func(ctx context.Context) error {
		time.Sleep(200 * time.Millisecond)
		return nil
	})

	status := checker.Readiness(context.Background())
	if status.Status != StatusDegraded {
		t.Errorf("status = %q, want %q", status.Status, StatusDegraded)
	}
	if status.Checks["slow"].Message != "health check timed out" {
		t.Errorf("message = %q, want timeout message", status.Checks["slow"].Message)
	}
}

func TestLivenessHandler(t *testing.T) {
	checker := New(0)
	handler := checker.LivenessHandler()

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var status Status
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if status.Status != StatusOK {
		t.Errorf("body status = %q, want %q", status.Status, StatusOK)
	}

	rec = httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/healthz", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST status = %d, want 405", rec.Code)
	}
}

func TestReadinessHandler(t *testing.T) {
	checker := New(0)
	handler := checker.ReadinessHandler()

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status without checks = %d, want 200", rec.Code)
	}

	checker.RegisterCheck("providers", func(ctx context.Context) error {
		return errors.New("no providers available")
	})

	rec = httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("degraded status = %d, want 503", rec.Code)
	}

	var status Status
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if status.Status != StatusDegraded {
		t.Errorf("body status = %q, want %q", status.Status, StatusDegraded)
	}
	if status.Checks["providers"].Message != "no providers available" {
		t.Errorf("check message = %q", status.Checks["providers"].Message)
	}

	rec = httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodHead, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("HEAD status = %d, want 503", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("HEAD body = %q, want empty", rec.Body.String())
	}
}
