package openai

import (
	"context"
	"log/slog"
	"strings"

	"aurora-ml/relay/pkg/providers"
)

// defaultBaseURLs maps each kind served by this adapter to its API root.
var defaultBaseURLs = map[providers.Kind]string{
	providers.KindOpenAI:   "https://api.openai.com/v1",
	providers.KindTogether: "https://api.together.xyz/v1",
	providers.KindMistral:  "https://api.mistral.ai/v1",
}

// Client invokes OpenAI-compatible chat completion APIs. One adapter serves
// the openai, together, and mistral kinds, which differ only in base URL and
// model catalog.
type Client struct {
	desc   providers.Descriptor
	caller *providers.HTTPCaller
	logger *slog.Logger
}

// New creates a client for one OpenAI-compatible provider.
func New(desc providers.Descriptor, logger *slog.Logger) (*Client, error) {
	defaultURL, ok := defaultBaseURLs[desc.Kind]
	if !ok {
		return nil, &providers.ConfigError{
			Provider: desc.Kind,
			Field:    "kind",
			Message:  "kind is not served by the OpenAI-compatible adapter",
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
		desc.BaseURL = defaultURL
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
		logger: logger.With("provider", desc.Kind),
	}, nil
}

// Invoke sends one chat completion request.
func (c *Client) Invoke(ctx context.Context, req *providers.GenerationRequest) (*providers.GenerationResponse, error) {
	if err := validateRequest(c.desc, req); err != nil {
		return nil, err
	}

	url := c.desc.BaseURL + "/chat/completions"
	headers := map[string]string{
		"Authorization": "Bearer " + c.desc.APIKey,
	}

	var chatResp ChatResponse
	if err := c.caller.PostJSON(ctx, url, headers, buildRequest(c.desc, req), &chatResp); err != nil {
		return nil, err
	}

	resp, err := parseResponse(c.desc.Kind, &chatResp)
	if err != nil {
		return nil, err
	}

	c.logger.DebugContext(ctx, "generation succeeded",
		"model", resp.Model,
		"total_tokens", resp.Usage.TotalTokens,
	)

	return resp, nil
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
