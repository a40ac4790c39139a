// Package recorder turns orchestrator attempt events into persisted usage
// records.
//
// Recorder implements failover.Observer. Each completed attempt is
// converted to a usage.UsageRecord, priced through the cost calculator,
// and handed to a background worker over a bounded channel. The observer
// callback never blocks: when the queue is full the record is dropped and
// a warning logged, so a wedged database cannot stall generations.
//
// Close stops intake, drains records already accepted, and waits for the
// worker to finish writing them.
package recorder

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"aurora-ml/relay/pkg/failover"
	"aurora-ml/relay/pkg/providers"
	"aurora-ml/relay/pkg/usage"
	"aurora-ml/relay/pkg/usage/costs"
)

// Config contains configuration for the usage recorder.
type Config struct {
	// Enabled turns recording on. A disabled recorder discards every
	// event.
	// Default: true
	Enabled bool

	// AsyncBuffer is the record queue capacity between the observer
	// callback and the storage worker.
	// Default: 1024
	AsyncBuffer int

	// WriteTimeout bounds each storage write.
	// Default: 5s
	WriteTimeout time.Duration
}

// DefaultConfig returns the default recorder configuration.
func DefaultConfig() *Config {
	return &Config{
		Enabled:      true,
		AsyncBuffer:  1024,
		WriteTimeout: 5 * time.Second,
	}
}

// Recorder converts attempt observations into usage records and writes
// them to storage from a background worker.
type Recorder struct {
	storage usage.Storage
	costs   *costs.Calculator
	config  *Config
	logger  *slog.Logger

	recordChan chan *usage.UsageRecord
	done       chan struct{}
	wg         sync.WaitGroup
	closeOnce  sync.Once
}

// NewRecorder creates a usage recorder and starts its storage worker.
// A nil calculator prices records with the built-in table; a nil config
// uses defaults.
func NewRecorder(storage usage.Storage, calculator *costs.Calculator, config *Config, logger *slog.Logger) *Recorder {
	if config == nil {
		config = DefaultConfig()
	}
	cfg := *config
	if cfg.AsyncBuffer <= 0 {
		cfg.AsyncBuffer = 1024
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	if calculator == nil {
		calculator = costs.NewCalculator(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}

	r := &Recorder{
		storage:    storage,
		costs:      calculator,
		config:     &cfg,
		logger:     logger.With("component", "usage.recorder"),
		recordChan: make(chan *usage.UsageRecord, cfg.AsyncBuffer),
		done:       make(chan struct{}),
	}

	r.wg.Add(1)
	go r.worker()

	r.logger.Info("usage recorder started",
		"enabled", cfg.Enabled,
		"async_buffer", cfg.AsyncBuffer,
		"write_timeout", cfg.WriteTimeout,
	)

	return r
}

// AttemptCompleted converts one attempt observation into a usage record
// and enqueues it for writing. The call never blocks.
func (r *Recorder) AttemptCompleted(obs failover.AttemptObservation) {
	if !r.config.Enabled {
		return
	}

	record := r.buildRecord(obs)

	select {
	case r.recordChan <- record:
	case <-r.done:
		r.logger.Warn("recorder shutting down, dropping usage record",
			"record_id", record.ID,
			"request_id", record.RequestID,
		)
	default:
		r.logger.Warn("usage queue full, dropping record",
			"record_id", record.ID,
			"request_id", record.RequestID,
			"queue_capacity", r.config.AsyncBuffer,
		)
	}
}

// BreakerStateChanged is part of the failover.Observer interface. Breaker
// transitions carry no usage, so nothing is recorded.
func (r *Recorder) BreakerStateChanged(kind providers.Kind, from, to failover.State) {}

// Close stops intake, drains the queue, and waits for the worker to
// finish. Records observed after Close are dropped.
func (r *Recorder) Close() error {
	r.closeOnce.Do(func() {
		close(r.done)
		r.wg.Wait()
		r.logger.Info("usage recorder stopped")
	})
	return nil
}

// buildRecord maps an observation onto a usage record and prices it.
func (r *Recorder) buildRecord(obs failover.AttemptObservation) *usage.UsageRecord {
	record := &usage.UsageRecord{
		ID:               uuid.New().String(),
		RequestID:        obs.RequestID,
		Timestamp:        obs.Timestamp,
		Provider:         obs.Provider,
		Model:            obs.Model,
		Attempt:          obs.Attempt,
		Outcome:          usage.OutcomeSuccess,
		PromptTokens:     obs.Usage.PromptTokens,
		CompletionTokens: obs.Usage.CompletionTokens,
		TotalTokens:      obs.Usage.TotalTokens,
		Estimated:        obs.Usage.Estimated,
		LatencyMS:        obs.Latency.Milliseconds(),
	}

	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}

	if !obs.Succeeded() {
		record.Outcome = obs.Class.String()
		record.Error = obs.Err.Error()
	}

	record.EstimatedCost = r.costs.EstimateCost(obs.Provider, obs.Model, obs.Usage).TotalCost

	return record
}

// worker drains the record channel and writes to storage.
func (r *Recorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case record := <-r.recordChan:
			r.writeRecord(record)

		case <-r.done:
			// Drain whatever was accepted before shutdown.
			for {
				select {
				case record := <-r.recordChan:
					r.writeRecord(record)
				default:
					return
				}
			}
		}
	}
}

// writeRecord writes one record with the configured write timeout.
func (r *Recorder) writeRecord(record *usage.UsageRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
	defer cancel()

	start := time.Now()
	if err := r.storage.Store(ctx, record); err != nil {
		r.logger.Error("failed to store usage record",
			"record_id", record.ID,
			"request_id", record.RequestID,
			"error", err,
		)
		return
	}

	elapsed := time.Since(start)
	r.logger.Debug("usage recorded",
		"record_id", record.ID,
		"request_id", record.RequestID,
		"provider", record.Provider,
		"outcome", record.Outcome,
		"duration_ms", elapsed.Milliseconds(),
	)

	if elapsed > r.config.WriteTimeout/2 {
		r.logger.Warn("slow usage write",
			"record_id", record.ID,
			"duration_ms", elapsed.Milliseconds(),
			"threshold_ms", (r.config.WriteTimeout / 2).Milliseconds(),
		)
	}
}
