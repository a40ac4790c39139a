package anthropic

import (
	"context"
	"log/slog"
	"strings"

	"aurora-ml/relay/pkg/providers"
)

const (
	// DefaultBaseURL is the messages API root.
	DefaultBaseURL = "https://api.anthropic.com"

	// APIVersion is sent in the anthropic-version header.
	APIVersion = "2023-06-01"
)

// Client invokes the Anthropic messages API.
type Client struct {
	desc   providers.Descriptor
	caller *providers.HTTPCaller
	logger *slog.Logger
}

// New creates a client for the anthropic provider.
func New(desc providers.Descriptor, logger *slog.Logger) (*Client, error) {
	if desc.Kind != providers.KindAnthropic {
		return nil, &providers.ConfigError{
			Provider: desc.Kind,
			Field:    "kind",
			Message:  "kind is not served by the Anthropic adapter",
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
		logger: logger.With("provider", desc.Kind),
	}, nil
}

// Invoke sends one messages request.
func (c *Client) Invoke(ctx context.Context, req *providers.GenerationRequest) (*providers.GenerationResponse, error) {
	if err := validateRequest(c.desc, req); err != nil {
		return nil, err
	}

	url := c.desc.BaseURL + "/v1/messages"
	headers := map[string]string{
		"x-api-key":         c.desc.APIKey,
		"anthropic-version": APIVersion,
	}

	var msgResp MessageResponse
	if err := c.caller.PostJSON(ctx, url, headers, buildRequest(c.desc, req), &msgResp); err != nil {
		return nil, err
	}

	resp, err := parseResponse(c.desc.Kind, &msgResp)
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
