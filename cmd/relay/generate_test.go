package main

import (
	"strings"
	"testing"
)

func TestResolvePromptFromArgs(t *testing.T) {
	got, err := resolvePrompt([]string{"Explain", "circuit", "breakers"}, strings.NewReader(""))
	if err != nil {
		t.Fatalf("resolvePrompt() error = %v", err)
	}
	if got != "Explain circuit breakers" {
		t.Errorf("resolvePrompt() = %q, want %q", got, "Explain circuit breakers")
	}
}

func TestResolvePromptFromStdin(t *testing.T) {
	got, err := resolvePrompt(nil, strings.NewReader("  a prompt from a pipe\n"))
	if err != nil {
		t.Fatalf("resolvePrompt() error = %v", err)
	}
	if got != "a prompt from a pipe" {
		t.Errorf("resolvePrompt() = %q, want %q", got, "a prompt from a pipe")
	}
}

func TestResolvePromptEmpty(t *testing.T) {
	if _, err := resolvePrompt(nil, strings.NewReader("   \n")); err == nil {
		t.Error("resolvePrompt() with no prompt should return error")
	}
}

func TestGenerateCommandFlags(t *testing.T) {
	for _, name := range []string{"model", "provider", "max-tokens", "temperature", "top-p", "stop", "timeout", "format"} {
		if generateCmd.Flags().Lookup(name) == nil {
			t.Errorf("--%s flag not registered", name)
		}
	}

	timeoutFlag := generateCmd.Flags().Lookup("timeout")
	if timeoutFlag.DefValue != "2m0s" {
		t.Errorf("--timeout default = %q, want %q", timeoutFlag.DefValue, "2m0s")
	}
}
