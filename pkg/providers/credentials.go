package providers

import (
	"strings"
)

// Placeholder markers commonly left behind by configuration templates.
// A key of the shape "your_openai_key" or "sk-xxxx_here" is a template
// value, not a credential.
const (
	placeholderPrefix = "your_"
	placeholderSuffix = "_here"
)

// UsableCredential reports whether key looks like a real credential. Empty
// and placeholder-looking keys are unusable; a provider with an unusable
// credential is excluded from the catalog entirely and never gets a circuit
// breaker.
func UsableCredential(key string) bool {
	key = strings.TrimSpace(key)
	if key == "" {
		return false
	}

	lower := strings.ToLower(key)
	if strings.HasPrefix(lower, placeholderPrefix) {
		return false
	}
	if strings.HasSuffix(lower, placeholderSuffix) {
		return false
	}
	return true
}

// CredentialEnvVar returns the conventional vendor environment variable for
// a provider kind, checked as a fallback when configuration supplies no key.
func CredentialEnvVar(kind Kind) string {
	switch kind {
	case KindOpenAI:
		return "OPENAI_API_KEY"
	case KindAnthropic:
		return "ANTHROPIC_API_KEY"
	case KindTogether:
		return "TOGETHER_API_KEY"
	case KindMistral:
		return "MISTRAL_API_KEY"
	case KindHuggingFace:
		return "HF_API_KEY"
	default:
		return ""
	}
}
