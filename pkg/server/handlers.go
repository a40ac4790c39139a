package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"aurora-ml/relay/pkg/failover"
	"aurora-ml/relay/pkg/providers"
)

// maxBodyBytes caps request bodies on the generate and admin endpoints.
const maxBodyBytes = 1 << 20

// defaultSummaryWindow is the usage summary lookback when ?since= is
// absent.
const defaultSummaryWindow = 24 * time.Hour

// generateResponse is the wire shape of a successful generation.
type generateResponse struct {
	Text      string               `json:"text"`
	Model     string               `json:"model"`
	Provider  providers.Kind       `json:"provider"`
	Usage     providers.TokenUsage `json:"usage"`
	LatencyMS int64                `json:"latency_ms"`
	RequestID string               `json:"request_id,omitempty"`
}

// healthSummary is the rollup returned by GET /v1/health.
type healthSummary struct {
	Status    string                  `json:"status"`
	Providers []failover.HealthRecord `json:"providers"`
	Counts    healthCounts            `json:"counts"`
	Timestamp time.Time               `json:"timestamp"`
}

type healthCounts struct {
	Healthy  int `json:"healthy"`
	Degraded int `json:"degraded"`
	Failed   int `json:"failed"`
}

// adminRequest is the body of the three admin endpoints.
type adminRequest struct {
	Provider providers.Kind `json:"provider"`
}

// adminResponse reports what an admin action did. Chain is present only
// on primary switches.
type adminResponse struct {
	Provider providers.Kind   `json:"provider"`
	Applied  bool             `json:"applied"`
	Chain    []providers.Kind `json:"chain,omitempty"`
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req providers.GenerationRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	resp, err := s.orchestrator.Generate(ctx, &req)
	if err != nil {
		s.writeGenerateError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, generateResponse{
		Text:      resp.Text,
		Model:     resp.Model,
		Provider:  resp.Provider,
		Usage:     resp.Usage,
		LatencyMS: resp.Latency.Milliseconds(),
		RequestID: failover.RequestIDFrom(ctx),
	})
}

// writeGenerateError maps orchestrator failures onto HTTP status codes.
func (s *Server) writeGenerateError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	var (
		validationErr *providers.ValidationError
		exhaustedErr  *failover.ExhaustedError
		configErr     *failover.ConfigurationError
	)
	switch {
	case errors.As(err, &validationErr):
		s.writeError(w, r, http.StatusBadRequest, validationErr.Error())
	case errors.As(err, &exhaustedErr):
		s.logger.ErrorContext(ctx, "all providers exhausted",
			"attempted", len(exhaustedErr.Attempted),
			"error", exhaustedErr.LastErr,
		)
		s.writeError(w, r, http.StatusServiceUnavailable, exhaustedErr.Error())
	case errors.As(err, &configErr):
		s.logger.ErrorContext(ctx, "generation rejected by configuration", "error", err)
		s.writeError(w, r, http.StatusInternalServerError, configErr.Error())
	case errors.Is(err, failover.ErrClosed):
		s.writeError(w, r, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		s.writeError(w, r, http.StatusGatewayTimeout, "request timed out")
	case errors.Is(err, context.Canceled):
		// Client went away; there is nobody left to answer.
	default:
		s.logger.ErrorContext(ctx, "generation failed", "error", err)
		s.writeError(w, r, http.StatusInternalServerError, "generation failed")
	}
}

func (s *Server) handleHealthRollup(w http.ResponseWriter, r *http.Request) {
	records := s.orchestrator.Health()

	var counts healthCounts
	for _, rec := range records {
		switch rec.Status {
		case failover.StatusHealthy:
			counts.Healthy++
		case failover.StatusDegraded:
			counts.Degraded++
		default:
			counts.Failed++
		}
	}

	// Degraded providers still serve traffic, so the rollup only reads
	// unhealthy when nothing can.
	status := "unhealthy"
	switch {
	case len(records) == 0:
	case counts.Healthy == len(records):
		status = "healthy"
	case counts.Healthy > 0 || counts.Degraded > 0:
		status = "degraded"
	}

	s.writeJSON(w, http.StatusOK, healthSummary{
		Status:    status,
		Providers: records,
		Counts:    counts,
		Timestamp: time.Now().UTC(),
	})
}

func (s *Server) handleProviderHealth(w http.ResponseWriter, r *http.Request) {
	kind := providers.Kind(r.PathValue("provider"))
	record, ok := s.orchestrator.HealthFor(kind)
	if !ok {
		s.writeError(w, r, http.StatusNotFound, fmt.Sprintf("unknown provider %q", kind))
		return
	}
	s.writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleCircuits(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.orchestrator.CircuitMetrics())
}

func (s *Server) handleSwitchPrimary(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeAdminRequest(w, r)
	if !ok {
		return
	}

	if !s.orchestrator.SwitchPrimary(req.Provider) {
		s.writeError(w, r, http.StatusNotFound, fmt.Sprintf("unknown provider %q", req.Provider))
		return
	}

	s.logger.InfoContext(r.Context(), "primary switched", "provider", req.Provider)
	s.writeJSON(w, http.StatusOK, adminResponse{
		Provider: req.Provider,
		Applied:  true,
		Chain:    s.orchestrator.Chain(),
	})
}

func (s *Server) handleForceRecovery(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeAdminRequest(w, r)
	if !ok {
		return
	}

	// ForceRecovery folds "unknown provider" and "probe failed" into one
	// false, so check existence first to keep 404 distinct.
	if _, known := s.orchestrator.HealthFor(req.Provider); !known {
		s.writeError(w, r, http.StatusNotFound, fmt.Sprintf("unknown provider %q", req.Provider))
		return
	}

	applied := s.orchestrator.ForceRecovery(r.Context(), req.Provider)
	s.logger.InfoContext(r.Context(), "recovery probe finished",
		"provider", req.Provider,
		"recovered", applied,
	)
	s.writeJSON(w, http.StatusOK, adminResponse{Provider: req.Provider, Applied: applied})
}

func (s *Server) handleResetBreaker(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeAdminRequest(w, r)
	if !ok {
		return
	}

	if !s.orchestrator.ResetBreaker(req.Provider) {
		s.writeError(w, r, http.StatusNotFound, fmt.Sprintf("unknown provider %q", req.Provider))
		return
	}

	s.logger.InfoContext(r.Context(), "breaker reset", "provider", req.Provider)
	s.writeJSON(w, http.StatusOK, adminResponse{Provider: req.Provider, Applied: true})
}

func (s *Server) handleUsageSummary(w http.ResponseWriter, r *http.Request) {
	if s.storage == nil {
		s.writeError(w, r, http.StatusNotFound, "usage tracking is not enabled")
		return
	}

	since := time.Now().Add(-defaultSummaryWindow)
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := parseSince(raw)
		if err != nil {
			s.writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		since = parsed
	}

	summary, err := s.storage.Summarize(r.Context(), since)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "usage summary failed", "error", err)
		s.writeError(w, r, http.StatusInternalServerError, "usage summary failed")
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

// parseSince accepts either an RFC 3339 timestamp or a lookback duration
// such as 24h.
func parseSince(raw string) (time.Time, error) {
	if d, err := time.ParseDuration(raw); err == nil {
		if d < 0 {
			return time.Time{}, fmt.Errorf("since duration must be positive, got %q", raw)
		}
		return time.Now().Add(-d), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("since must be an RFC 3339 timestamp or a duration, got %q", raw)
	}
	return t, nil
}

func (s *Server) decodeAdminRequest(w http.ResponseWriter, r *http.Request) (adminRequest, bool) {
	var req adminRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid request body: "+err.Error())
		return req, false
	}
	if req.Provider == "" {
		s.writeError(w, r, http.StatusBadRequest, "provider is required")
		return req, false
	}
	return req, true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	s.writeJSON(w, status, errorResponse{
		Error:     message,
		RequestID: failover.RequestIDFrom(r.Context()),
	})
}
