package storage

import (
	"context"
	"io"
	"log/slog"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"aurora-ml/relay/pkg/providers"
	"aurora-ml/relay/pkg/usage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()

	cfg := DefaultConfig()
	cfg.Path = filepath.Join(t.TempDir(), "usage.db")

	s, err := NewSQLiteStorage(cfg, testLogger())
	if err != nil {
		t.Fatalf("NewSQLiteStorage() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })

	return s
}

func testRecord(id string, ts time.Time) *usage.UsageRecord {
	return &usage.UsageRecord{
		ID:               id,
		RequestID:        "req-" + id,
		Timestamp:        ts,
		Provider:         providers.KindOpenAI,
		Model:            "gpt-4o-mini",
		Attempt:          0,
		Outcome:          usage.OutcomeSuccess,
		PromptTokens:     10,
		CompletionTokens: 20,
		TotalTokens:      30,
		EstimatedCost:    0.001,
		LatencyMS:        150,
	}
}

func mustStore(t *testing.T, s usage.Storage, records ...*usage.UsageRecord) {
	t.Helper()
	for _, record := range records {
		if err := s.Store(context.Background(), record); err != nil {
			t.Fatalf("Store(%s) error = %v", record.ID, err)
		}
	}
}

func TestSQLiteStorage_StoreAndQuery(t *testing.T) {
	s := newTestStorage(t)

	want := testRecord("rec-1", time.Now())
	mustStore(t, s, want)

	records, err := s.Query(context.Background(), &usage.Query{})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Query() returned %d records, want 1", len(records))
	}

	got := records[0]
	if got.ID != want.ID {
		t.Errorf("ID = %q, want %q", got.ID, want.ID)
	}
	if got.RequestID != want.RequestID {
		t.Errorf("RequestID = %q, want %q", got.RequestID, want.RequestID)
	}
	if !got.Timestamp.Equal(want.Timestamp) {
		t.Errorf("Timestamp = %v, want %v", got.Timestamp, want.Timestamp)
	}
	if got.Provider != want.Provider {
		t.Errorf("Provider = %q, want %q", got.Provider, want.Provider)
	}
	if got.Model != want.Model {
		t.Errorf("Model = %q, want %q", got.Model, want.Model)
	}
	if got.Outcome != usage.OutcomeSuccess {
		t.Errorf("Outcome = %q, want %q", got.Outcome, usage.OutcomeSuccess)
	}
	if got.PromptTokens != 10 || got.CompletionTokens != 20 || got.TotalTokens != 30 {
		t.Errorf("tokens = %d/%d/%d, want 10/20/30",
			got.PromptTokens, got.CompletionTokens, got.TotalTokens)
	}
	if got.Estimated {
		t.Error("Estimated = true, want false")
	}
	if got.EstimatedCost != 0.001 {
		t.Errorf("EstimatedCost = %v, want 0.001", got.EstimatedCost)
	}
	if got.LatencyMS != 150 {
		t.Errorf("LatencyMS = %d, want 150", got.LatencyMS)
	}
	if got.Error != "" {
		t.Errorf("Error = %q, want empty", got.Error)
	}
}

func TestSQLiteStorage_StoresFailureFields(t *testing.T) {
	s := newTestStorage(t)

	record := testRecord("rec-fail", time.Now())
	record.Outcome = "retryable"
	record.Error = "provider error [provider=openai, status=500]: upstream down"
	record.Estimated = true
	mustStore(t, s, record)

	records, err := s.Query(context.Background(), &usage.Query{Outcome: "retryable"})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Query() returned %d records, want 1", len(records))
	}

	got := records[0]
	if got.Succeeded() {
		t.Error("Succeeded() = true for a failed attempt")
	}
	if got.Error != record.Error {
		t.Errorf("Error = %q, want %q", got.Error, record.Error)
	}
	if !got.Estimated {
		t.Error("Estimated = false, want true")
	}
}

func TestSQLiteStorage_QueryFilters(t *testing.T) {
	s := newTestStorage(t)
	base := time.Now().Add(-time.Hour)

	openaiOld := testRecord("rec-1", base)
	openaiNew := testRecord("rec-2", base.Add(30*time.Minute))

	anthropicFail := testRecord("rec-3", base.Add(10*time.Minute))
	anthropicFail.Provider = providers.KindAnthropic
	anthropicFail.Model = "claude-3-haiku-20240307"
	anthropicFail.Outcome = "auth"
	anthropicFail.Error = "invalid key"
	anthropicFail.RequestID = "req-shared"

	mustStore(t, s, openaiOld, openaiNew, anthropicFail)

	tests := []struct {
		name    string
		query   *usage.Query
		wantIDs []string
	}{
		{
			name:    "by provider",
			query:   &usage.Query{Provider: providers.KindAnthropic},
			wantIDs: []string{"rec-3"},
		},
		{
			name:    "by model",
			query:   &usage.Query{Model: "gpt-4o-mini"},
			wantIDs: []string{"rec-2", "rec-1"},
		},
		{
			name:    "by outcome",
			query:   &usage.Query{Outcome: usage.OutcomeSuccess},
			wantIDs: []string{"rec-2", "rec-1"},
		},
		{
			name:    "by request id",
			query:   &usage.Query{RequestID: "req-shared"},
			wantIDs: []string{"rec-3"},
		},
		{
			name: "by time window",
			query: func() *usage.Query {
				since := base.Add(5 * time.Minute)
				until := base.Add(20 * time.Minute)
				return &usage.Query{Since: &since, Until: &until}
			}(),
			wantIDs: []string{"rec-3"},
		},
		{
			name:    "no filters returns newest first",
			query:   &usage.Query{},
			wantIDs: []string{"rec-2", "rec-3", "rec-1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := s.Query(context.Background(), tt.query)
			if err != nil {
				t.Fatalf("Query() error = %v", err)
			}

			gotIDs := make([]string, len(records))
			for i, record := range records {
				gotIDs[i] = record.ID
			}

			if len(gotIDs) != len(tt.wantIDs) {
				t.Fatalf("Query() returned ids %v, want %v", gotIDs, tt.wantIDs)
			}
			for i := range gotIDs {
				if gotIDs[i] != tt.wantIDs[i] {
					t.Fatalf("Query() returned ids %v, want %v", gotIDs, tt.wantIDs)
				}
			}
		})
	}
}

func TestSQLiteStorage_QueryPagination(t *testing.T) {
	s := newTestStorage(t)
	base := time.Now().Add(-time.Hour)

	for i := 0; i < 5; i++ {
		record := testRecord(string(rune('a'+i)), base.Add(time.Duration(i)*time.Minute))
		mustStore(t, s, record)
	}

	first, err := s.Query(context.Background(), &usage.Query{Limit: 2})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(first) != 2 || first[0].ID != "e" || first[1].ID != "d" {
		t.Fatalf("first page = %v, want [e d]", recordIDs(first))
	}

	second, err := s.Query(context.Background(), &usage.Query{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(second) != 2 || second[0].ID != "c" || second[1].ID != "b" {
		t.Fatalf("second page = %v, want [c b]", recordIDs(second))
	}
}

func recordIDs(records []*usage.UsageRecord) []string {
	ids := make([]string, len(records))
	for i, record := range records {
		ids[i] = record.ID
	}
	return ids
}

func TestSQLiteStorage_Count(t *testing.T) {
	s := newTestStorage(t)
	now := time.Now()

	failed := testRecord("rec-f", now)
	failed.Outcome = "fatal"
	mustStore(t, s, testRecord("rec-1", now), testRecord("rec-2", now.Add(time.Second)), failed)

	total, err := s.Count(context.Background(), nil)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if total != 3 {
		t.Errorf("Count(nil) = %d, want 3", total)
	}

	successes, err := s.Count(context.Background(), &usage.Query{Outcome: usage.OutcomeSuccess})
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if successes != 2 {
		t.Errorf("Count(success) = %d, want 2", successes)
	}
}

func TestSQLiteStorage_Summarize(t *testing.T) {
	s := newTestStorage(t)
	since := time.Now().Add(-time.Hour)

	// Two openai successes and one failure inside the window.
	ok1 := testRecord("rec-1", since.Add(time.Minute))
	ok2 := testRecord("rec-2", since.Add(2*time.Minute))
	fail := testRecord("rec-3", since.Add(3*time.Minute))
	fail.Outcome = "retryable"
	fail.Error = "boom"
	fail.PromptTokens, fail.CompletionTokens, fail.TotalTokens = 0, 0, 0
	fail.EstimatedCost = 0

	// One anthropic success inside the window.
	anth := testRecord("rec-4", since.Add(4*time.Minute))
	anth.Provider = providers.KindAnthropic
	anth.Model = "claude-3-haiku-20240307"
	anth.PromptTokens, anth.CompletionTokens, anth.TotalTokens = 100, 50, 150
	anth.EstimatedCost = 0.01

	// Outside the window, must not be counted.
	old := testRecord("rec-5", since.Add(-time.Minute))

	mustStore(t, s, ok1, ok2, fail, anth, old)

	summary, err := s.Summarize(context.Background(), since)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}

	if len(summary.Providers) != 2 {
		t.Fatalf("Summarize() returned %d providers, want 2", len(summary.Providers))
	}
	if summary.Providers[0].Provider != providers.KindAnthropic {
		t.Errorf("providers[0] = %q, want %q (sorted by name)",
			summary.Providers[0].Provider, providers.KindAnthropic)
	}

	anthSummary := summary.Providers[0]
	if anthSummary.Requests != 1 || anthSummary.Successes != 1 || anthSummary.Failures != 0 {
		t.Errorf("anthropic counts = %d/%d/%d, want 1/1/0",
			anthSummary.Requests, anthSummary.Successes, anthSummary.Failures)
	}
	if anthSummary.SuccessRate != 1.0 {
		t.Errorf("anthropic SuccessRate = %v, want 1.0", anthSummary.SuccessRate)
	}
	if anthSummary.TotalTokens != 150 {
		t.Errorf("anthropic TotalTokens = %d, want 150", anthSummary.TotalTokens)
	}

	openaiSummary := summary.Providers[1]
	if openaiSummary.Requests != 3 || openaiSummary.Successes != 2 || openaiSummary.Failures != 1 {
		t.Errorf("openai counts = %d/%d/%d, want 3/2/1",
			openaiSummary.Requests, openaiSummary.Successes, openaiSummary.Failures)
	}
	wantRate := float64(2) / float64(3)
	if openaiSummary.SuccessRate != wantRate {
		t.Errorf("openai SuccessRate = %v, want %v", openaiSummary.SuccessRate, wantRate)
	}
	if openaiSummary.PromptTokens != 20 || openaiSummary.CompletionTokens != 40 {
		t.Errorf("openai tokens = %d/%d, want 20/40",
			openaiSummary.PromptTokens, openaiSummary.CompletionTokens)
	}

	if summary.TotalRequests != 4 {
		t.Errorf("TotalRequests = %d, want 4", summary.TotalRequests)
	}
	if summary.TotalTokens != 210 {
		t.Errorf("TotalTokens = %d, want 210", summary.TotalTokens)
	}
	wantCost := 0.001 + 0.001 + 0.01
	if math.Abs(summary.TotalCost-wantCost) > 1e-9 {
		t.Errorf("TotalCost = %v, want %v", summary.TotalCost, wantCost)
	}
	if !summary.Since.Equal(since) {
		t.Errorf("Since = %v, want %v", summary.Since, since)
	}
}

func TestSQLiteStorage_DeleteBefore(t *testing.T) {
	s := newTestStorage(t)
	cutoff := time.Now()

	mustStore(t, s,
		testRecord("old-1", cutoff.Add(-2*time.Hour)),
		testRecord("old-2", cutoff.Add(-time.Hour)),
		testRecord("new-1", cutoff.Add(time.Hour)),
	)

	deleted, err := s.DeleteBefore(context.Background(), cutoff)
	if err != nil {
		t.Fatalf("DeleteBefore() error = %v", err)
	}
	if deleted != 2 {
		t.Errorf("DeleteBefore() = %d, want 2", deleted)
	}

	remaining, err := s.Count(context.Background(), nil)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if remaining != 1 {
		t.Errorf("Count() after delete = %d, want 1", remaining)
	}
}

func TestSQLiteStorage_PersistsAcrossReopen(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Path = filepath.Join(t.TempDir(), "usage.db")

	s, err := NewSQLiteStorage(cfg, testLogger())
	if err != nil {
		t.Fatalf("NewSQLiteStorage() error = %v", err)
	}
	mustStore(t, s, testRecord("rec-1", time.Now()))
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := NewSQLiteStorage(cfg, testLogger())
	if err != nil {
		t.Fatalf("NewSQLiteStorage() reopen error = %v", err)
	}
	defer reopened.Close()

	count, err := reopened.Count(context.Background(), nil)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 1 {
		t.Errorf("Count() after reopen = %d, want 1", count)
	}

	var version int
	if err := reopened.db.QueryRow(GetSchemaVersion).Scan(&version); err != nil {
		t.Fatalf("schema version query error = %v", err)
	}
	if version != SchemaVersion {
		t.Errorf("schema version = %d, want %d", version, SchemaVersion)
	}
}

func TestSQLiteStorage_PureGoDriver(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Driver = "sqlite"
	cfg.Path = filepath.Join(t.TempDir(), "usage.db")

	s, err := NewSQLiteStorage(cfg, testLogger())
	if err != nil {
		t.Fatalf("NewSQLiteStorage() error = %v", err)
	}
	defer s.Close()

	record := testRecord("rec-1", time.Now())
	record.Error = "transient failure"
	record.Outcome = "retryable"
	mustStore(t, s, record)

	records, err := s.Query(context.Background(), &usage.Query{})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Query() returned %d records, want 1", len(records))
	}
	if records[0].Error != "transient failure" {
		t.Errorf("Error = %q, want %q", records[0].Error, "transient failure")
	}
	if !records[0].Timestamp.Equal(record.Timestamp) {
		t.Errorf("Timestamp = %v, want %v", records[0].Timestamp, record.Timestamp)
	}
}

func TestSQLiteStorage_UnknownDriver(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Driver = "postgres"
	cfg.Path = filepath.Join(t.TempDir(), "usage.db")

	_, err := NewSQLiteStorage(cfg, testLogger())
	if err == nil {
		t.Fatal("NewSQLiteStorage() with unknown driver succeeded, want error")
	}
	if !strings.Contains(err.Error(), "unknown sqlite driver") {
		t.Errorf("error = %v, want mention of unknown sqlite driver", err)
	}
}

func TestSQLiteStorage_CreatesParentDirectory(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Path = filepath.Join(t.TempDir(), "nested", "dir", "usage.db")

	s, err := NewSQLiteStorage(cfg, testLogger())
	if err != nil {
		t.Fatalf("NewSQLiteStorage() error = %v", err)
	}
	defer s.Close()

	mustStore(t, s, testRecord("rec-1", time.Now()))
}
