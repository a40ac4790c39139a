package failover

import (
	"math"
	"math/rand"
	"time"
)

// Retry defaults, mirroring the provider-facing configuration surface.
const (
	DefaultRetryMaxAttempts = 3
	DefaultRetryBaseDelay   = 1 * time.Second
	DefaultRetryMaxDelay    = 60 * time.Second
	DefaultRetryMultiplier  = 2.0
)

// Jitter bounds: a uniform fraction in [0.1, 0.3) of the computed delay is
// added so that concurrent callers spread their retries.
const (
	jitterMinFraction = 0.1
	jitterMaxFraction = 0.3
)

// RetryPolicy computes backoff delays for repeated attempts against a single
// provider within one generation call. Fallback across providers is the
// orchestrator's job, not the policy's.
type RetryPolicy struct {
	// MaxAttempts is the global cap on attempts per provider. The
	// effective budget for a provider is min(MaxAttempts, the provider's
	// MaxRetries). Default: 3.
	MaxAttempts int

	// BaseDelay is the delay before the second attempt. Default: 1s.
	BaseDelay time.Duration

	// MaxDelay caps the exponential growth. Default: 60s.
	MaxDelay time.Duration

	// Multiplier is the exponential growth factor. Default: 2.0.
	Multiplier float64

	// NoJitter disables the uniform 10-30% fraction added to each delay.
	// The zero value keeps jitter on.
	NoJitter bool

	// randFloat is replaced in tests.
	randFloat func() float64
}

// NewRetryPolicy returns a policy with the default backoff schedule and
// jitter enabled.
func NewRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: DefaultRetryMaxAttempts,
		BaseDelay:   DefaultRetryBaseDelay,
		MaxDelay:    DefaultRetryMaxDelay,
		Multiplier:  DefaultRetryMultiplier,
	}
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultRetryMaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultRetryBaseDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = DefaultRetryMaxDelay
	}
	if p.Multiplier < 1 {
		p.Multiplier = DefaultRetryMultiplier
	}
	return p
}

// DelayForAttempt returns the sleep before retrying after attemptIndex
// failed, counting from zero:
//
//	delay = min(BaseDelay * Multiplier^attemptIndex, MaxDelay)
//
// with the jitter fraction added on top when enabled.
func (p RetryPolicy) DelayForAttempt(attemptIndex int) time.Duration {
	if attemptIndex < 0 {
		attemptIndex = 0
	}

	delay := time.Duration(float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(attemptIndex)))
	if delay > p.MaxDelay || delay <= 0 {
		delay = p.MaxDelay
	}

	if !p.NoJitter {
		rf := p.randFloat
		if rf == nil {
			rf = rand.Float64
		}
		fraction := jitterMinFraction + (jitterMaxFraction-jitterMinFraction)*rf()
		delay += time.Duration(fraction * float64(delay))
	}
	return delay
}

// AttemptBudget returns the number of attempts allowed against a provider
// with the given per-provider retry budget.
func (p RetryPolicy) AttemptBudget(providerMaxRetries int) int {
	budget := p.MaxAttempts
	if providerMaxRetries > 0 && providerMaxRetries < budget {
		budget = providerMaxRetries
	}
	if budget < 1 {
		budget = 1
	}
	return budget
}
