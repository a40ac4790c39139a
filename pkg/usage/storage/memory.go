package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"aurora-ml/relay/pkg/providers"
	"aurora-ml/relay/pkg/usage"
)

// MemoryStorage implements the usage.Storage interface with an in-memory
// map. It backs tests; records are lost on restart.
type MemoryStorage struct {
	mu      sync.RWMutex
	records map[string]*usage.UsageRecord
}

// NewMemoryStorage creates an empty in-memory storage backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		records: make(map[string]*usage.UsageRecord),
	}
}

// Store persists a usage record. The record is copied so later caller
// mutation does not leak in.
func (s *MemoryStorage) Store(ctx context.Context, record *usage.UsageRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	recordCopy := *record
	s.records[record.ID] = &recordCopy

	return nil
}

// Query retrieves records matching the query, newest first.
func (s *MemoryStorage) Query(ctx context.Context, query *usage.Query) ([]*usage.UsageRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := []*usage.UsageRecord{}
	for _, record := range s.records {
		if matchesQuery(record, query) {
			recordCopy := *record
			results = append(results, &recordCopy)
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if !results[i].Timestamp.Equal(results[j].Timestamp) {
			return results[i].Timestamp.After(results[j].Timestamp)
		}
		return results[i].ID < results[j].ID
	})

	offset := 0
	if query != nil && query.Offset > 0 {
		offset = query.Offset
	}
	if offset >= len(results) {
		return []*usage.UsageRecord{}, nil
	}
	results = results[offset:]

	if limit := query.EffectiveLimit(); len(results) > limit {
		results = results[:limit]
	}

	return results, nil
}

// Count returns the number of records matching the query.
func (s *MemoryStorage) Count(ctx context.Context, query *usage.Query) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, record := range s.records {
		if matchesQuery(record, query) {
			count++
		}
	}

	return count, nil
}

// Summarize aggregates records with Timestamp >= since, grouped by
// provider and ordered by provider name.
func (s *MemoryStorage) Summarize(ctx context.Context, since time.Time) (*usage.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byProvider := make(map[providers.Kind]*usage.ProviderSummary)
	for _, record := range s.records {
		if record.Timestamp.Before(since) {
			continue
		}

		ps, ok := byProvider[record.Provider]
		if !ok {
			ps = &usage.ProviderSummary{Provider: record.Provider}
			byProvider[record.Provider] = ps
		}

		ps.Requests++
		if record.Succeeded() {
			ps.Successes++
		} else {
			ps.Failures++
		}
		ps.PromptTokens += int64(record.PromptTokens)
		ps.CompletionTokens += int64(record.CompletionTokens)
		ps.TotalTokens += int64(record.TotalTokens)
		ps.EstimatedCost += record.EstimatedCost
	}

	kinds := make([]providers.Kind, 0, len(byProvider))
	for kind := range byProvider {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	summary := &usage.Summary{
		Since:       since,
		GeneratedAt: time.Now(),
	}
	for _, kind := range kinds {
		ps := byProvider[kind]
		if ps.Requests > 0 {
			ps.SuccessRate = float64(ps.Successes) / float64(ps.Requests)
		}
		summary.Providers = append(summary.Providers, *ps)
		summary.TotalRequests += ps.Requests
		summary.TotalTokens += ps.TotalTokens
		summary.TotalCost += ps.EstimatedCost
	}

	return summary, nil
}

// DeleteBefore removes records older than cutoff and returns the number
// removed.
func (s *MemoryStorage) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, record := range s.records {
		if record.Timestamp.Before(cutoff) {
			delete(s.records, id)
			deleted++
		}
	}

	return deleted, nil
}

// Close releases no resources; it exists to satisfy the interface.
func (s *MemoryStorage) Close() error {
	return nil
}

// matchesQuery reports whether a record passes every filter set on the
// query.
func matchesQuery(record *usage.UsageRecord, query *usage.Query) bool {
	if query == nil {
		return true
	}
	if query.Since != nil && record.Timestamp.Before(*query.Since) {
		return false
	}
	if query.Until != nil && !record.Timestamp.Before(*query.Until) {
		return false
	}
	if query.Provider != "" && record.Provider != query.Provider {
		return false
	}
	if query.Model != "" && record.Model != query.Model {
		return false
	}
	if query.Outcome != "" && record.Outcome != query.Outcome {
		return false
	}
	if query.RequestID != "" && record.RequestID != query.RequestID {
		return false
	}
	return true
}
