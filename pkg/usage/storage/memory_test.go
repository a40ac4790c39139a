package storage

import (
	"context"
	"testing"
	"time"

	"aurora-ml/relay/pkg/providers"
	"aurora-ml/relay/pkg/usage"
)

func TestMemoryStorage_StoreAndQuery(t *testing.T) {
	s := NewMemoryStorage()
	defer s.Close()

	record := testRecord("rec-1", time.Now())
	mustStore(t, s, record)

	records, err := s.Query(context.Background(), &usage.Query{})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Query() returned %d records, want 1", len(records))
	}
	if records[0].ID != "rec-1" {
		t.Errorf("ID = %q, want %q", records[0].ID, "rec-1")
	}
}

func TestMemoryStorage_CopiesRecords(t *testing.T) {
	s := NewMemoryStorage()
	defer s.Close()

	record := testRecord("rec-1", time.Now())
	mustStore(t, s, record)

	// Mutation after Store must not affect what was persisted.
	record.Model = "changed"

	records, err := s.Query(context.Background(), nil)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if records[0].Model != "gpt-4o-mini" {
		t.Errorf("Model = %q, want %q", records[0].Model, "gpt-4o-mini")
	}

	// Mutation of a query result must not affect the stored record.
	records[0].Model = "also-changed"

	again, err := s.Query(context.Background(), nil)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if again[0].Model != "gpt-4o-mini" {
		t.Errorf("Model after result mutation = %q, want %q", again[0].Model, "gpt-4o-mini")
	}
}

func TestMemoryStorage_QueryOrderAndPagination(t *testing.T) {
	s := NewMemoryStorage()
	defer s.Close()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 4; i++ {
		mustStore(t, s, testRecord(string(rune('a'+i)), base.Add(time.Duration(i)*time.Minute)))
	}

	records, err := s.Query(context.Background(), &usage.Query{Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(records) != 2 || records[0].ID != "c" || records[1].ID != "b" {
		t.Fatalf("Query() = %v, want [c b]", recordIDs(records))
	}

	empty, err := s.Query(context.Background(), &usage.Query{Offset: 10})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("Query() past the end returned %d records, want 0", len(empty))
	}
}

func TestMemoryStorage_Filters(t *testing.T) {
	s := NewMemoryStorage()
	defer s.Close()

	now := time.Now()
	openai := testRecord("rec-1", now)
	anthropic := testRecord("rec-2", now.Add(time.Second))
	anthropic.Provider = providers.KindAnthropic
	anthropic.Outcome = "fatal"
	mustStore(t, s, openai, anthropic)

	records, err := s.Query(context.Background(), &usage.Query{Provider: providers.KindAnthropic})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(records) != 1 || records[0].ID != "rec-2" {
		t.Fatalf("Query(provider) = %v, want [rec-2]", recordIDs(records))
	}

	count, err := s.Count(context.Background(), &usage.Query{Outcome: usage.OutcomeSuccess})
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 1 {
		t.Errorf("Count(success) = %d, want 1", count)
	}
}

func TestMemoryStorage_Summarize(t *testing.T) {
	s := NewMemoryStorage()
	defer s.Close()

	since := time.Now().Add(-time.Hour)

	ok := testRecord("rec-1", since.Add(time.Minute))
	fail := testRecord("rec-2", since.Add(2*time.Minute))
	fail.Outcome = "retryable"
	old := testRecord("rec-3", since.Add(-time.Minute))
	mustStore(t, s, ok, fail, old)

	summary, err := s.Summarize(context.Background(), since)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}

	if len(summary.Providers) != 1 {
		t.Fatalf("Summarize() returned %d providers, want 1", len(summary.Providers))
	}
	ps := summary.Providers[0]
	if ps.Requests != 2 || ps.Successes != 1 || ps.Failures != 1 {
		t.Errorf("counts = %d/%d/%d, want 2/1/1", ps.Requests, ps.Successes, ps.Failures)
	}
	if ps.SuccessRate != 0.5 {
		t.Errorf("SuccessRate = %v, want 0.5", ps.SuccessRate)
	}
	if summary.TotalRequests != 2 {
		t.Errorf("TotalRequests = %d, want 2", summary.TotalRequests)
	}
}

func TestMemoryStorage_DeleteBefore(t *testing.T) {
	s := NewMemoryStorage()
	defer s.Close()

	cutoff := time.Now()
	mustStore(t, s,
		testRecord("old", cutoff.Add(-time.Hour)),
		testRecord("new", cutoff.Add(time.Hour)),
	)

	deleted, err := s.DeleteBefore(context.Background(), cutoff)
	if err != nil {
		t.Fatalf("DeleteBefore() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("DeleteBefore() = %d, want 1", deleted)
	}

	count, err := s.Count(context.Background(), nil)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 1 {
		t.Errorf("Count() = %d, want 1", count)
	}
}
