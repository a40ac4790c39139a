package failover

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"aurora-ml/relay/pkg/providers"
)

const tracerName = "aurora-ml/relay/pkg/failover"

// Recovery probe parameters. The probe is a real generation call, kept as
// small as the provider APIs allow.
const (
	recoveryProbePrompt    = "ping"
	recoveryProbeMaxTokens = 8
	recoveryProbeTimeout   = 10 * time.Second
)

// Config assembles an Orchestrator. Descriptors supply ordering, credentials
// and per-provider budgets; Invokers supplies the transport for each kind
// that survives credential filtering.
type Config struct {
	// Descriptors lists the configured providers. Entries with unusable
	// credentials are filtered out; at least one must survive.
	Descriptors []providers.Descriptor

	// Invokers maps provider kind to its client. Every kind that survives
	// filtering must have one.
	Invokers map[providers.Kind]providers.Invoker

	// Breaker applies to every provider's circuit breaker. Zero fields
	// take package defaults.
	Breaker BreakerConfig

	// Retry is the per-provider backoff policy. The zero value means
	// NewRetryPolicy().
	Retry RetryPolicy

	// Health configures classification thresholds.
	Health HealthConfig

	// Observers receive attempt and breaker transition events.
	Observers []Observer
}

// Orchestrator walks the provider chain for each generation call, retrying
// within a provider and failing over across providers. Safe for concurrent
// use.
type Orchestrator struct {
	catalog  *Catalog
	invokers map[providers.Kind]providers.Invoker
	breakers map[providers.Kind]*CircuitBreaker
	retry    RetryPolicy
	health   *HealthRegistry
	observer Observer
	logger   *slog.Logger

	chainMu sync.Mutex
	chain   atomic.Pointer[[]providers.Kind]

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error

	// Test seams.
	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

// New builds an orchestrator from cfg. It returns a *ConfigurationError
// when no provider survives credential filtering or a surviving provider
// has no invoker.
func New(cfg Config, logger *slog.Logger) (*Orchestrator, error) {
	if logger == nil {
		logger = slog.Default()
	}

	catalog, err := NewCatalog(cfg.Descriptors)
	if err != nil {
		return nil, err
	}

	o := &Orchestrator{
		catalog:  catalog,
		invokers: make(map[providers.Kind]providers.Invoker, catalog.Len()),
		breakers: make(map[providers.Kind]*CircuitBreaker, catalog.Len()),
		retry:    cfg.Retry.withDefaults(),
		health:   NewHealthRegistry(cfg.Health),
		observer: combineObservers(cfg.Observers),
		logger:   logger.With("component", "failover"),
		sleep:    sleepContext,
		now:      time.Now,
	}

	for _, kind := range catalog.Chain() {
		inv, ok := cfg.Invokers[kind]
		if !ok || inv == nil {
			return nil, &ConfigurationError{
				Message: fmt.Sprintf("no invoker configured for provider %q", kind),
			}
		}
		o.invokers[kind] = inv

		bcfg := cfg.Breaker
		userCB := bcfg.OnTransition
		bcfg.OnTransition = func(from, to State) {
			o.onBreakerTransition(kind, from, to)
			if userCB != nil {
				userCB(from, to)
			}
		}
		o.breakers[kind] = NewCircuitBreaker(bcfg)
	}

	chain := catalog.Chain()
	o.chain.Store(&chain)
	return o, nil
}

// Generate produces a completion for req, trying providers in chain order.
// Providers whose breakers reject are skipped without any accounting. The
// error is *ExhaustedError when every provider was tried or skipped,
// *ConfigurationError for an unknown requested provider, ErrClosed after
// Close, or the context's error on cancellation.
func (o *Orchestrator) Generate(ctx context.Context, req *providers.GenerationRequest) (*providers.GenerationResponse, error) {
	if o.closed.Load() {
		return nil, ErrClosed
	}
	if req == nil || strings.TrimSpace(req.Prompt) == "" {
		return nil, &providers.ValidationError{Field: "prompt", Message: "prompt must not be empty"}
	}
	if req.Provider != "" && !o.catalog.Contains(req.Provider) {
		return nil, &ConfigurationError{
			Message: fmt.Sprintf("requested provider %q is not configured", req.Provider),
		}
	}

	requestID := RequestIDFrom(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	chain := *o.chain.Load()
	if req.Provider != "" {
		chain = reorder(chain, req.Provider)
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "failover.generate",
		trace.WithAttributes(attribute.String("request.id", requestID)))
	defer span.End()

	var (
		attempted []providers.Kind
		lastErr   error
	)
	for _, kind := range chain {
		if err := ctx.Err(); err != nil {
			span.SetStatus(codes.Error, "canceled")
			return nil, err
		}

		br := o.breakers[kind]
		if !br.CanExecute() {
			o.logger.DebugContext(ctx, "skipping provider, circuit not admitting calls",
				"provider", kind,
				"request_id", requestID)
			continue
		}
		attempted = append(attempted, kind)

		resp, err := o.tryProvider(ctx, kind, req, requestID)
		if err == nil {
			span.SetAttributes(
				attribute.String("llm.provider", string(kind)),
				attribute.Int("llm.attempted_providers", len(attempted)),
			)
			return resp, nil
		}
		if ctx.Err() != nil {
			span.SetStatus(codes.Error, "canceled")
			return nil, ctx.Err()
		}
		lastErr = err
	}

	span.SetStatus(codes.Error, "all providers exhausted")
	exhausted := &ExhaustedError{Attempted: attempted, LastErr: lastErr}
	o.logger.ErrorContext(ctx, "generation failed on every provider",
		"request_id", requestID,
		"attempted", len(attempted),
		"error", exhausted)
	return nil, exhausted
}

// tryProvider runs req against a single provider through its retry budget.
// It owns all breaker and health accounting for the provider: at most one
// breaker failure is recorded per call, at the point the provider is given
// up on. Cancellation records nothing.
func (o *Orchestrator) tryProvider(ctx context.Context, kind providers.Kind, req *providers.GenerationRequest, requestID string) (*providers.GenerationResponse, error) {
	desc, _ := o.catalog.Descriptor(kind)
	inv := o.invokers[kind]
	br := o.breakers[kind]
	budget := o.retry.AttemptBudget(desc.MaxRetries)

	model := req.Model
	if model == "" {
		model = desc.DefaultModel
	}

	var lastErr error
	for attempt := 0; attempt < budget; attempt++ {
		if attempt > 0 {
			delay := o.retry.DelayForAttempt(attempt - 1)
			if hint, ok := providers.RetryAfterHint(lastErr); ok && hint > delay {
				delay = hint
			}
			o.logger.DebugContext(ctx, "backing off before retry",
				"provider", kind,
				"attempt", attempt,
				"delay", delay,
				"request_id", requestID)
			if err := o.sleep(ctx, delay); err != nil {
				return nil, err
			}
		}

		start := o.now()
		resp, err := o.invokeOnce(ctx, inv, desc, req, model, attempt)
		latency := o.now().Sub(start)

		if err == nil {
			br.RecordSuccess()
			o.health.RecordSuccess(kind, latency)
			o.observe(AttemptObservation{
				RequestID: requestID,
				Provider:  kind,
				Model:     resp.Model,
				Attempt:   attempt,
				Latency:   latency,
				Usage:     resp.Usage,
				Timestamp: start,
			})
			resp.Provider = kind
			resp.Latency = latency
			return resp, nil
		}

		// The caller has gone away. Nothing is recorded against the
		// provider for an attempt the caller abandoned.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		lastErr = err
		class := providers.Classify(err)
		o.health.RecordFailure(kind, err, latency)
		o.observe(AttemptObservation{
			RequestID: requestID,
			Provider:  kind,
			Model:     model,
			Attempt:   attempt,
			Err:       err,
			Class:     class,
			Latency:   latency,
			Timestamp: start,
		})

		switch class {
		case providers.ClassAuth:
			// A bad credential is a configuration problem. Tripping
			// the breaker would hide it behind "circuit open".
			o.logger.WarnContext(ctx, "authentication failed, moving to next provider",
				"provider", kind,
				"request_id", requestID,
				"error", err)
			return nil, err
		case providers.ClassFatal:
			br.RecordFailure()
			o.logger.WarnContext(ctx, "provider returned non-retryable error",
				"provider", kind,
				"request_id", requestID,
				"error", err)
			return nil, err
		}

		o.logger.WarnContext(ctx, "provider attempt failed",
			"provider", kind,
			"attempt", attempt,
			"remaining", budget-attempt-1,
			"request_id", requestID,
			"error", err)
	}

	br.RecordFailure()
	o.logger.WarnContext(ctx, "provider retry budget exhausted",
		"provider", kind,
		"attempts", budget,
		"request_id", requestID,
		"error", lastErr)
	return nil, lastErr
}

// invokeOnce performs a single provider call with the per-provider timeout
// applied and a client span around it.
func (o *Orchestrator) invokeOnce(ctx context.Context, inv providers.Invoker, desc providers.Descriptor, req *providers.GenerationRequest, model string, attempt int) (*providers.GenerationResponse, error) {
	if desc.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, desc.Timeout)
		defer cancel()
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "provider.generate",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("llm.provider", string(desc.Kind)),
			attribute.String("llm.model", model),
			attribute.Int("llm.attempt", attempt),
		))
	defer span.End()

	call := *req
	call.Model = model

	resp, err := inv.Invoke(ctx, &call)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		return nil, err
	}
	if resp.Model == "" {
		resp.Model = model
	}
	span.SetAttributes(attribute.Int("llm.usage.total_tokens", resp.Usage.TotalTokens))
	return resp, nil
}

// Chain returns a copy of the current provider order.
func (o *Orchestrator) Chain() []providers.Kind {
	chain := *o.chain.Load()
	out := make([]providers.Kind, len(chain))
	copy(out, chain)
	return out
}

// AvailableProviders returns the providers whose breakers would admit a
// call right now, in chain order. Pure read: no breaker transitions.
func (o *Orchestrator) AvailableProviders() []providers.Kind {
	chain := *o.chain.Load()
	out := make([]providers.Kind, 0, len(chain))
	for _, kind := range chain {
		if o.breakers[kind].Admits() {
			out = append(out, kind)
		}
	}
	return out
}

// Health returns a record per configured provider, in chain order.
func (o *Orchestrator) Health() []HealthRecord {
	chain := *o.chain.Load()
	out := make([]HealthRecord, 0, len(chain))
	for _, kind := range chain {
		out = append(out, o.health.RecordFor(kind, o.breakers[kind].Snapshot()))
	}
	return out
}

// HealthFor returns the record for one provider. ok is false for a kind
// that is not in the catalog.
func (o *Orchestrator) HealthFor(kind providers.Kind) (HealthRecord, bool) {
	br, ok := o.breakers[kind]
	if !ok {
		return HealthRecord{}, false
	}
	return o.health.RecordFor(kind, br.Snapshot()), true
}

// CircuitMetrics returns breaker snapshots keyed by provider.
func (o *Orchestrator) CircuitMetrics() map[providers.Kind]BreakerSnapshot {
	out := make(map[providers.Kind]BreakerSnapshot, len(o.breakers))
	for kind, br := range o.breakers {
		out[kind] = br.Snapshot()
	}
	return out
}

// SwitchPrimary moves kind to the front of the chain for subsequent calls.
// In-flight calls keep the order they started with. Returns false for a
// kind that is not in the catalog.
func (o *Orchestrator) SwitchPrimary(kind providers.Kind) bool {
	if !o.catalog.Contains(kind) {
		return false
	}

	o.chainMu.Lock()
	defer o.chainMu.Unlock()

	next := reorder(*o.chain.Load(), kind)
	o.chain.Store(&next)
	o.logger.Info("primary provider switched", "provider", kind, "chain", next)
	return true
}

// ResetBreaker returns kind's breaker to closed and clears its health
// tracking. Returns false for a kind that is not in the catalog.
func (o *Orchestrator) ResetBreaker(kind providers.Kind) bool {
	br, ok := o.breakers[kind]
	if !ok {
		return false
	}
	br.Reset()
	o.health.Clear(kind)
	o.logger.Info("circuit breaker reset", "provider", kind)
	return true
}

// UpdateHealthThresholds replaces the health classification thresholds at
// runtime. Configuration reload applies changed thresholds through here.
func (o *Orchestrator) UpdateHealthThresholds(cfg HealthConfig) {
	eff := cfg.withDefaults()
	o.health.UpdateThresholds(cfg)
	o.logger.Info("health thresholds updated",
		"failure_rate_threshold", eff.FailureRateThreshold,
		"slow_call_threshold", eff.SlowCallThreshold.String(),
	)
}

// ForceRecovery forces kind's breaker half-open and issues one small
// validation call, bypassing the recovery timer. It returns true when the
// probe succeeds. A failed probe reopens the breaker. Returns false for a
// kind that is not in the catalog.
func (o *Orchestrator) ForceRecovery(ctx context.Context, kind providers.Kind) bool {
	br, ok := o.breakers[kind]
	if !ok {
		return false
	}
	desc, _ := o.catalog.Descriptor(kind)

	br.ForceHalfOpen()
	if !br.CanExecute() {
		return false
	}

	probeCtx, cancel := context.WithTimeout(ctx, recoveryProbeTimeout)
	defer cancel()

	req := &providers.GenerationRequest{
		Prompt:    recoveryProbePrompt,
		MaxTokens: recoveryProbeMaxTokens,
	}
	start := o.now()
	resp, err := o.invokeOnce(probeCtx, o.invokers[kind], desc, req, desc.DefaultModel, 0)
	latency := o.now().Sub(start)

	obs := AttemptObservation{
		RequestID: uuid.NewString(),
		Provider:  kind,
		Model:     desc.DefaultModel,
		Attempt:   0,
		Latency:   latency,
		Timestamp: start,
	}
	if err != nil {
		br.RecordFailure()
		o.health.RecordFailure(kind, err, latency)
		obs.Err = err
		obs.Class = providers.Classify(err)
		o.observe(obs)
		o.logger.Warn("recovery probe failed", "provider", kind, "error", err)
		return false
	}

	br.RecordSuccess()
	o.health.RecordSuccess(kind, latency)
	obs.Usage = resp.Usage
	o.observe(obs)
	o.logger.Info("recovery probe succeeded", "provider", kind, "latency", latency)
	return true
}

// Close releases every provider client. Generate returns ErrClosed
// afterwards. Close is idempotent.
func (o *Orchestrator) Close() error {
	o.closeOnce.Do(func() {
		o.closed.Store(true)
		for kind, inv := range o.invokers {
			if err := inv.Close(); err != nil {
				o.logger.Warn("closing provider client failed", "provider", kind, "error", err)
				if o.closeErr == nil {
					o.closeErr = fmt.Errorf("close %s client: %w", kind, err)
				}
			}
		}
	})
	return o.closeErr
}

func (o *Orchestrator) onBreakerTransition(kind providers.Kind, from, to State) {
	o.logger.Info("circuit breaker state changed",
		"provider", kind,
		"from", from.String(),
		"to", to.String())
	if o.observer != nil {
		o.observer.BreakerStateChanged(kind, from, to)
	}
}

func (o *Orchestrator) observe(obs AttemptObservation) {
	if o.observer != nil {
		o.observer.AttemptCompleted(obs)
	}
}

// sleepContext blocks for d or until ctx is done, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
