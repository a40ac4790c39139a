package huggingface

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"aurora-ml/relay/internal/providertest"
	"aurora-ml/relay/pkg/providers"
)

const testModel = "HuggingFaceH4/zephyr-7b-beta"

func TestClient_Invoke(t *testing.T) {
	mock := providertest.NewServer()
	defer mock.Close()

	mock.SetResponse("/models/"+testModel, providertest.Response{
		StatusCode: http.StatusOK,
		Body:       providertest.TextGeneration("This is a generated reply of forty chars"),
	})

	desc := providertest.Descriptor(providers.KindHuggingFace, mock.URL())
	desc.DefaultModel = testModel
	client, err := New(desc, nil)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	defer client.Close()

	resp, err := client.Invoke(context.Background(), &providers.GenerationRequest{
		Prompt:    "Hello world, friend!",
		MaxTokens: 64,
	})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}

	if resp.Text != "This is a generated reply of forty chars" {
		t.Errorf("unexpected text: %q", resp.Text)
	}
	if resp.Model != testModel {
		t.Errorf("expected model %s, got %s", testModel, resp.Model)
	}
	if resp.Provider != providers.KindHuggingFace {
		t.Errorf("expected provider huggingface, got %s", resp.Provider)
	}

	// 20 prompt chars and 40 completion chars at 4 chars per token.
	if !resp.Usage.Estimated {
		t.Error("usage must be marked estimated")
	}
	if resp.Usage.PromptTokens != 5 || resp.Usage.CompletionTokens != 10 || resp.Usage.TotalTokens != 15 {
		t.Errorf("unexpected estimated usage: %+v", resp.Usage)
	}

	// Verify the wire request.
	recorded, ok := mock.LastRequest()
	if !ok {
		t.Fatal("no request recorded")
	}
	if recorded.Path != "/models/"+testModel {
		t.Errorf("expected model in the URL path, got %s", recorded.Path)
	}
	if auth := recorded.Header.Get("Authorization"); auth != "Bearer test-key" {
		t.Errorf("expected bearer auth header, got %q", auth)
	}

	var sent map[string]any
	if err := json.Unmarshal(recorded.Body, &sent); err != nil {
		t.Fatalf("failed to decode recorded request: %v", err)
	}
	if sent["inputs"] != "Hello world, friend!" {
		t.Errorf("expected prompt as inputs, got %v", sent["inputs"])
	}
	params, ok := sent["parameters"].(map[string]any)
	if !ok {
		t.Fatalf("expected parameters object, got %v", sent["parameters"])
	}
	if params["max_new_tokens"] != float64(64) {
		t.Errorf("expected max_new_tokens 64, got %v", params["max_new_tokens"])
	}
	if params["return_full_text"] != false {
		t.Errorf("expected return_full_text false to be sent, got %v", params["return_full_text"])
	}
	options, ok := sent["options"].(map[string]any)
	if !ok {
		t.Fatalf("expected options object, got %v", sent["options"])
	}
	if options["use_cache"] != true || options["wait_for_model"] != false {
		t.Errorf("unexpected options: %v", options)
	}
}

func TestClient_Invoke_ColdModelIsRetryable(t *testing.T) {
	mock := providertest.NewServer()
	defer mock.Close()

	mock.SetResponse("/models/"+testModel, providertest.Response{
		StatusCode: http.StatusServiceUnavailable,
		Body: map[string]any{
			"error":          "Model " + testModel + " is currently loading",
			"estimated_time": 20.0,
		},
	})

	desc := providertest.Descriptor(providers.KindHuggingFace, mock.URL())
	desc.DefaultModel = testModel
	client, err := New(desc, nil)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	defer client.Close()

	_, err = client.Invoke(context.Background(), &providers.GenerationRequest{Prompt: "Hello"})
	var provErr *providers.ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("expected ProviderError, got %T: %v", err, err)
	}
	if provErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", provErr.StatusCode)
	}
	if got := providers.Classify(err); got != providers.ClassRetryable {
		t.Errorf("loading model must classify retryable, got %s", got)
	}
}

func TestClient_Invoke_AuthError(t *testing.T) {
	mock := providertest.NewServer()
	defer mock.Close()

	mock.SetResponse("/models/"+testModel, providertest.AuthError())

	desc := providertest.Descriptor(providers.KindHuggingFace, mock.URL())
	desc.DefaultModel = testModel
	client, err := New(desc, nil)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	defer client.Close()

	_, err = client.Invoke(context.Background(), &providers.GenerationRequest{Prompt: "Hello"})
	var authErr *providers.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %T: %v", err, err)
	}
}

func TestClient_Invoke_EmptyResults(t *testing.T) {
	mock := providertest.NewServer()
	defer mock.Close()

	mock.SetResponse("/models/"+testModel, providertest.Response{Body: "[]"})

	desc := providertest.Descriptor(providers.KindHuggingFace, mock.URL())
	desc.DefaultModel = testModel
	client, err := New(desc, nil)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	defer client.Close()

	_, err = client.Invoke(context.Background(), &providers.GenerationRequest{Prompt: "Hello"})
	var parseErr *providers.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %T: %v", err, err)
	}
}

func TestNew_RejectsOtherKinds(t *testing.T) {
	_, err := New(providertest.Descriptor(providers.KindMistral, "http://localhost:0"), nil)
	var cfgErr *providers.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %T: %v", err, err)
	}
	if cfgErr.Field != "kind" {
		t.Errorf("expected field kind, got %q", cfgErr.Field)
	}
}

func TestNew_RequiresAPIKey(t *testing.T) {
	desc := providertest.Descriptor(providers.KindHuggingFace, "http://localhost:0")
	desc.APIKey = ""
	_, err := New(desc, nil)
	var cfgErr *providers.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %T: %v", err, err)
	}
	if cfgErr.Field != "api_key" {
		t.Errorf("expected field api_key, got %q", cfgErr.Field)
	}
}
