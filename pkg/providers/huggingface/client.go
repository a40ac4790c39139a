package huggingface

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"aurora-ml/relay/pkg/providers"
	"aurora-ml/relay/pkg/usage/tokens"
)

// DefaultBaseURL is the hosted inference API root.
const DefaultBaseURL = "https://api-inference.huggingface.co"

// Client invokes the Hugging Face inference API. The API does not report
// token usage, so the client backfills estimated counts from text length.
type Client struct {
	desc   providers.Descriptor
	caller *providers.HTTPCaller
	est    *tokens.Estimator
	logger *slog.Logger
}

// New creates a client for the huggingface provider.
func New(desc providers.Descriptor, logger *slog.Logger) (*Client, error) {
	if desc.Kind != providers.KindHuggingFace {
		return nil, &providers.ConfigError{
			Provider: desc.Kind,
			Field:    "kind",
			Message:  "kind is not served by the Hugging Face adapter",
		}
	}
	if desc.APIKey == "" {
		return nil, &providers.ConfigError{
			Provider: desc.Kind,
			Field:    "api_key",
			Message:  "API key is required",
		}
	}
	if desc.BaseURL == "" {
		desc.BaseURL = DefaultBaseURL
	}
	desc.BaseURL = strings.TrimSuffix(desc.BaseURL, "/")

	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		desc: desc,
		caller: &providers.HTTPCaller{
			Kind:    desc.Kind,
			Client:  providers.NewHTTPClient(),
			Timeout: desc.Timeout,
		},
		est:    tokens.NewEstimator(nil),
		logger: logger.With("provider", desc.Kind),
	}, nil
}

// Invoke sends one inference request. The model is part of the URL path, so
// it must be resolved before the call.
func (c *Client) Invoke(ctx context.Context, req *providers.GenerationRequest) (*providers.GenerationResponse, error) {
	if err := validateRequest(c.desc, req); err != nil {
		return nil, err
	}

	model := req.Model
	if model == "" {
		model = c.desc.DefaultModel
	}

	// Model identifiers contain slashes (org/repo) that belong in the path.
	url := c.desc.BaseURL + "/models/" + model
	headers := map[string]string{
		"Authorization": "Bearer " + c.desc.APIKey,
	}

	var results []GeneratedText
	if err := c.caller.PostJSON(ctx, url, headers, buildRequest(req), &results); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, &providers.ParseError{
			Provider: c.desc.Kind,
			Cause:    errors.New("response contains no generations"),
		}
	}

	text := results[0].GeneratedText
	promptTokens := c.est.EstimateText(req.Prompt, model)
	completionTokens := c.est.EstimateText(text, model)

	c.logger.DebugContext(ctx, "generation succeeded",
		"model", model,
		"estimated_tokens", promptTokens+completionTokens,
	)

	return &providers.GenerationResponse{
		Text:     text,
		Model:    model,
		Provider: c.desc.Kind,
		Usage: providers.TokenUsage{
			PromptTokens:     promptTokens,
			CompletionTokens: completionTokens,
			TotalTokens:      promptTokens + completionTokens,
			Estimated:        true,
		},
	}, nil
}

// Kind reports which provider kind this client serves.
func (c *Client) Kind() providers.Kind {
	return c.desc.Kind
}

// Close releases pooled connections. The client must not be used afterwards.
func (c *Client) Close() error {
	return c.caller.Close()
}

// validateRequest rejects requests this adapter cannot send.
func validateRequest(desc providers.Descriptor, req *providers.GenerationRequest) error {
	if req == nil {
		return &providers.ValidationError{Field: "request", Message: "request cannot be nil"}
	}
	if req.Prompt == "" {
		return &providers.ValidationError{Field: "prompt", Message: "prompt must not be empty"}
	}
	if req.Model == "" && desc.DefaultModel == "" {
		return &providers.ValidationError{Field: "model", Message: "no model requested and no default model configured"}
	}
	return nil
}
