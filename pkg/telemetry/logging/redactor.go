package logging

import (
	"log/slog"
	"regexp"
	"strings"
)

// Redactor scrubs credentials from log output. Secrets are caught two
// ways: attribute keys that name a credential ("api_key", "secret", ...)
// have their values masked wholesale, and string values anywhere are
// checked against patterns for common key shapes (sk-/pk-/hf_ prefixes,
// bearer tokens, credential assignments).
type Redactor struct {
	patterns []redactPattern
}

type redactPattern struct {
	regex       *regexp.Regexp
	replacement string
}

// sensitiveKeySubstrings flags attribute keys whose values are masked
// outright. Deliberately narrower than a bare "token", which would also
// catch token count attributes.
var sensitiveKeySubstrings = []string{
	"api_key", "apikey", "api-key",
	"secret", "password", "credential",
	"authorization", "access_token", "auth_token", "bearer_token",
}

// NewRedactor creates a redactor with the built-in credential patterns.
func NewRedactor() *Redactor {
	return &Redactor{
		patterns: []redactPattern{
			// Vendor API keys with recognizable prefixes.
			{regex: regexp.MustCompile(`\b(sk|pk)-[A-Za-z0-9][A-Za-z0-9_\-]{7,}`), replacement: "$1-***"},
			{regex: regexp.MustCompile(`\bhf_[A-Za-z0-9]{8,}`), replacement: "hf_***"},
			// Bearer tokens in header dumps.
			{regex: regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9\-._~+/]+=*`), replacement: "Bearer ***"},
			// Credential assignments in free-form text.
			{regex: regexp.MustCompile(`(?i)(api[-_]?key|secret|password)[=:]\s*\S+`), replacement: "$1=***"},
		},
	}
}

// RedactString scrubs credential patterns from a string.
func (r *Redactor) RedactString(value string) string {
	if value == "" {
		return value
	}

	redacted := value
	for _, pattern := range r.patterns {
		redacted = pattern.regex.ReplaceAllString(redacted, pattern.replacement)
	}
	return redacted
}

// RedactAttr returns the attribute with any credential content masked.
// Group attributes are redacted recursively.
func (r *Redactor) RedactAttr(attr slog.Attr) slog.Attr {
	attr.Value = attr.Value.Resolve()

	if isSensitiveKey(attr.Key) {
		return slog.String(attr.Key, maskValue(attr.Value.String()))
	}

	switch attr.Value.Kind() {
	case slog.KindString:
		if value := attr.Value.String(); value != "" {
			if clean := r.RedactString(value); clean != value {
				return slog.String(attr.Key, clean)
			}
		}
	case slog.KindGroup:
		group := attr.Value.Group()
		redacted := make([]slog.Attr, len(group))
		for i, member := range group {
			redacted[i] = r.RedactAttr(member)
		}
		return slog.Attr{Key: attr.Key, Value: slog.GroupValue(redacted...)}
	}

	return attr
}

// isSensitiveKey reports whether an attribute key names a credential.
func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, sensitive := range sensitiveKeySubstrings {
		if strings.Contains(lower, sensitive) {
			return true
		}
	}
	return false
}

// maskValue keeps a short prefix of the secret for identification.
func maskValue(value string) string {
	if len(value) <= 4 {
		return "***"
	}
	return value[:4] + "***"
}
