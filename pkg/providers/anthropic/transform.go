package anthropic

import (
	"errors"

	"aurora-ml/relay/pkg/providers"
)

// DefaultMaxTokens is applied when a request does not set max_tokens. The
// messages API rejects requests without the field.
const DefaultMaxTokens = 4096

// Messages API wire types.

// MessageRequest is a messages API request body.
type MessageRequest struct {
	Model         string    `json:"model"`
	Messages      []Message `json:"messages"`
	MaxTokens     int       `json:"max_tokens"`
	Temperature   float64   `json:"temperature,omitempty"`
	TopP          float64   `json:"top_p,omitempty"`
	StopSequences []string  `json:"stop_sequences,omitempty"`
}

// Message is a single conversation turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// MessageResponse is a messages API response body.
type MessageResponse struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Role       string         `json:"role"`
	Content    []ContentBlock `json:"content"`
	Model      string         `json:"model"`
	StopReason string         `json:"stop_reason"`
	Usage      Usage          `json:"usage"`
}

// ContentBlock is one block of response content.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Usage is the token accounting reported with a message.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// buildRequest maps a canonical generation request onto the messages wire
// format. The prompt becomes a single user message, and max_tokens falls
// back to DefaultMaxTokens because the API requires it.
func buildRequest(desc providers.Descriptor, req *providers.GenerationRequest) *MessageRequest {
	model := req.Model
	if model == "" {
		model = desc.DefaultModel
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &MessageRequest{
		Model:         model,
		Messages:      []Message{{Role: "user", Content: req.Prompt}},
		MaxTokens:     maxTokens,
		Temperature:   req.Temperature,
		TopP:          req.TopP,
		StopSequences: req.Stop,
	}
}

// parseResponse maps a messages response onto the canonical response. Text
// blocks are concatenated; other block types are ignored.
func parseResponse(kind providers.Kind, resp *MessageResponse) (*providers.GenerationResponse, error) {
	var text string
	var found bool
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
			found = true
		}
	}
	if !found {
		return nil, &providers.ParseError{
			Provider: kind,
			Cause:    errors.New("response contains no text content"),
		}
	}

	return &providers.GenerationResponse{
		Text:     text,
		Model:    resp.Model,
		Provider: kind,
		Usage: providers.TokenUsage{
			PromptTokens:     resp.Usage.InputTokens,
			CompletionTokens: resp.Usage.OutputTokens,
			TotalTokens:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
		},
	}, nil
}
