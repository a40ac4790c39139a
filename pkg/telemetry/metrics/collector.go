// Package metrics exposes Prometheus metrics for the failover pipeline.
//
// Collector implements failover.Observer: every provider call attempt and
// every circuit breaker transition lands in a metric. The exported series
// (all under the "relay" namespace):
//
//   - relay_provider_attempts_total{provider,model,outcome}
//   - relay_provider_errors_total{provider,error_type}
//   - relay_provider_retries_total{provider}
//   - relay_provider_latency_seconds{provider,model}
//   - relay_tokens_total{provider,model,type}
//   - relay_estimated_cost_usd_total{provider,model}
//   - relay_breaker_state{provider}
//   - relay_breaker_transitions_total{provider,from,to}
//
// Handler serves the registry in Prometheus exposition format for the
// /metrics endpoint.
package metrics

import (
	"aurora-ml/relay/pkg/config"
	"aurora-ml/relay/pkg/failover"
	"aurora-ml/relay/pkg/providers"
	"aurora-ml/relay/pkg/usage/costs"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "relay"

// latencyBuckets covers LLM completion latencies from fast cache-warm
// calls to slow long-context generations.
var latencyBuckets = []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0}

// Collector records failover events as Prometheus metrics. It implements
// failover.Observer; all record methods are cheap and never block.
type Collector struct {
	enabled  bool
	registry *prometheus.Registry
	costs    *costs.Calculator

	attemptsTotal  *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	retriesTotal   *prometheus.CounterVec
	latencySeconds *prometheus.HistogramVec
	tokensTotal    *prometheus.CounterVec
	costTotal      *prometheus.CounterVec

	breakerState       *prometheus.GaugeVec
	breakerTransitions *prometheus.CounterVec
}

// NewCollector creates a collector and registers its metrics. A nil
// registry gets a fresh private one; a nil calculator falls back to
// built-in pricing.
func NewCollector(cfg config.MetricsConfig, calculator *costs.Calculator, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if calculator == nil {
		calculator = costs.NewCalculator(nil)
	}

	c := &Collector{
		enabled:  cfg.IsEnabled(),
		registry: registry,
		costs:    calculator,

		attemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_attempts_total",
				Help:      "Provider call attempts by outcome (success or error class)",
			},
			[]string{"provider", "model", "outcome"},
		),

		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_errors_total",
				Help:      "Failed provider call attempts by error classification",
			},
			[]string{"provider", "error_type"},
		),

		retriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_retries_total",
				Help:      "Retry attempts, excluding the first attempt per provider",
			},
			[]string{"provider"},
		),

		latencySeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "provider_latency_seconds",
				Help:      "Provider call latency in seconds",
				Buckets:   latencyBuckets,
			},
			[]string{"provider", "model"},
		),

		tokensTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tokens_total",
				Help:      "Tokens processed on successful attempts, by type (prompt or completion)",
			},
			[]string{"provider", "model", "type"},
		),

		costTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "estimated_cost_usd_total",
				Help:      "Estimated spend in USD on successful attempts",
			},
			[]string{"provider", "model"},
		),

		breakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "breaker_state",
				Help:      "Circuit breaker state per provider (0=closed, 1=open, 2=half_open)",
			},
			[]string{"provider"},
		),

		breakerTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "breaker_transitions_total",
				Help:      "Circuit breaker state transitions, including operator-forced ones",
			},
			[]string{"provider", "from", "to"},
		),
	}

	registry.MustRegister(
		c.attemptsTotal,
		c.errorsTotal,
		c.retriesTotal,
		c.latencySeconds,
		c.tokensTotal,
		c.costTotal,
		c.breakerState,
		c.breakerTransitions,
	)

	return c
}

// AttemptCompleted records one provider call attempt.
func (c *Collector) AttemptCompleted(obs failover.AttemptObservation) {
	if !c.enabled {
		return
	}

	provider := string(obs.Provider)
	c.attemptsTotal.WithLabelValues(provider, obs.Model, outcomeLabel(obs)).Inc()
	c.latencySeconds.WithLabelValues(provider, obs.Model).Observe(obs.Latency.Seconds())
	if obs.Attempt > 0 {
		c.retriesTotal.WithLabelValues(provider).Inc()
	}

	if !obs.Succeeded() {
		c.errorsTotal.WithLabelValues(provider, obs.Class.String()).Inc()
		return
	}

	if obs.Usage.PromptTokens > 0 {
		c.tokensTotal.WithLabelValues(provider, obs.Model, "prompt").Add(float64(obs.Usage.PromptTokens))
	}
	if obs.Usage.CompletionTokens > 0 {
		c.tokensTotal.WithLabelValues(provider, obs.Model, "completion").Add(float64(obs.Usage.CompletionTokens))
	}
	if cost := c.costs.EstimateCost(obs.Provider, obs.Model, obs.Usage).TotalCost; cost > 0 {
		c.costTotal.WithLabelValues(provider, obs.Model).Add(cost)
	}
}

// BreakerStateChanged records a circuit breaker transition.
func (c *Collector) BreakerStateChanged(kind providers.Kind, from, to failover.State) {
	if !c.enabled {
		return
	}

	provider := string(kind)
	c.breakerState.WithLabelValues(provider).Set(stateValue(to))
	c.breakerTransitions.WithLabelValues(provider, from.String(), to.String()).Inc()
}

// Registry returns the Prometheus registry holding the collector's
// metrics.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func outcomeLabel(obs failover.AttemptObservation) string {
	if obs.Succeeded() {
		return "success"
	}
	return obs.Class.String()
}

func stateValue(s failover.State) float64 {
	switch s {
	case failover.StateOpen:
		return 1
	case failover.StateHalfOpen:
		return 2
	default:
		return 0
	}
}
