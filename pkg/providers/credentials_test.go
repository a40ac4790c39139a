package providers

import (
	"testing"
)

func TestUsableCredential(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want bool
	}{
		{name: "real key", key: "sk-proj-abcdef1234567890", want: true},
		{name: "empty", key: "", want: false},
		{name: "whitespace only", key: "   ", want: false},
		{name: "placeholder prefix", key: "your_openai_api_key", want: false},
		{name: "placeholder prefix uppercase", key: "YOUR_OPENAI_API_KEY", want: false},
		{name: "placeholder suffix", key: "put_key_here", want: false},
		{name: "placeholder suffix mixed case", key: "insert-key_HERE", want: false},
		{name: "contains your_ mid-string", key: "sk-your_thing", want: true},
		{name: "anthropic key shape", key: "sk-ant-api03-xxxx", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UsableCredential(tt.key); got != tt.want {
				t.Errorf("UsableCredential(%q) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}

func TestCredentialEnvVar(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{kind: KindOpenAI, want: "OPENAI_API_KEY"},
		{kind: KindAnthropic, want: "ANTHROPIC_API_KEY"},
		{kind: KindTogether, want: "TOGETHER_API_KEY"},
		{kind: KindMistral, want: "MISTRAL_API_KEY"},
		{kind: KindHuggingFace, want: "HF_API_KEY"},
		{kind: Kind("bogus"), want: ""},
	}

	for _, tt := range tests {
		if got := CredentialEnvVar(tt.kind); got != tt.want {
			t.Errorf("CredentialEnvVar(%q) = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestKindValid(t *testing.T) {
	for _, k := range Kinds() {
		if !k.Valid() {
			t.Errorf("expected %q to be valid", k)
		}
	}
	if Kind("gpt").Valid() {
		t.Error("expected unknown kind to be invalid")
	}
}
