package openai

import (
	"errors"

	"aurora-ml/relay/pkg/providers"
)

// Chat completions wire types. The OpenAI, Together, and Mistral dialects
// share these shapes.

// ChatRequest is a chat completion request body.
type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	TopP        float64       `json:"top_p,omitempty"`
	Stop        []string      `json:"stop,omitempty"`
}

// ChatMessage is a single message in a chat completion conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatResponse is a chat completion response body.
type ChatResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []ChatChoice `json:"choices"`
	Usage   ChatUsage    `json:"usage"`
}

// ChatChoice is one completion choice.
type ChatChoice struct {
	Index        int         `json:"index"`
	Message      ChatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

// ChatUsage is the token accounting reported with a completion.
type ChatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// buildRequest maps a canonical generation request onto the chat wire
// format. The prompt becomes a single user message.
func buildRequest(desc providers.Descriptor, req *providers.GenerationRequest) *ChatRequest {
	model := req.Model
	if model == "" {
		model = desc.DefaultModel
	}
	return &ChatRequest{
		Model:       model,
		Messages:    []ChatMessage{{Role: "user", Content: req.Prompt}},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		TopP:        req.TopP,
		Stop:        req.Stop,
	}
}

// parseResponse maps a chat completion onto the canonical response.
func parseResponse(kind providers.Kind, resp *ChatResponse) (*providers.GenerationResponse, error) {
	if len(resp.Choices) == 0 {
		return nil, &providers.ParseError{
			Provider: kind,
			Cause:    errors.New("response contains no choices"),
		}
	}

	usage := providers.TokenUsage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}
	if usage.TotalTokens == 0 {
		usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
	}

	return &providers.GenerationResponse{
		Text:     resp.Choices[0].Message.Content,
		Model:    resp.Model,
		Provider: kind,
		Usage:    usage,
	}, nil
}
