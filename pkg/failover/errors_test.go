package failover

import (
	"errors"
	"testing"

	"aurora-ml/relay/pkg/providers"
)

func TestExhaustedErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *ExhaustedError
		want string
	}{
		{
			name: "all skipped",
			err:  &ExhaustedError{},
			want: "all providers unavailable: every circuit is open",
		},
		{
			name: "single provider",
			err: &ExhaustedError{
				Attempted: []providers.Kind{providers.KindOpenAI},
				LastErr:   errors.New("connection refused"),
			},
			want: "all providers exhausted after trying [openai]: connection refused",
		},
		{
			name: "multiple providers",
			err: &ExhaustedError{
				Attempted: []providers.Kind{providers.KindOpenAI, providers.KindAnthropic},
				LastErr:   errors.New("status 503"),
			},
			want: "all providers exhausted after trying [openai, anthropic]: status 503",
		},
		{
			name: "attempted without last error",
			err: &ExhaustedError{
				Attempted: []providers.Kind{providers.KindMistral},
			},
			want: "all providers exhausted after trying [mistral]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExhaustedErrorUnwrap(t *testing.T) {
	cause := &providers.RateLimitError{Provider: providers.KindOpenAI, Message: "slow down"}
	err := &ExhaustedError{
		Attempted: []providers.Kind{providers.KindOpenAI},
		LastErr:   cause,
	}

	var rateErr *providers.RateLimitError
	if !errors.As(err, &rateErr) {
		t.Fatal("errors.As() = false, want the last provider error reachable")
	}
	if rateErr.Provider != providers.KindOpenAI {
		t.Errorf("Provider = %v, want openai", rateErr.Provider)
	}
}

func TestConfigurationErrorMessage(t *testing.T) {
	err := &ConfigurationError{Message: "no providers with usable credentials configured"}
	want := "configuration error: no providers with usable credentials configured"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
