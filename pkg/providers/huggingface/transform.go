package huggingface

import (
	"aurora-ml/relay/pkg/providers"
)

// Inference API wire types.

// InferenceRequest is a text-generation inference request body.
type InferenceRequest struct {
	Inputs     string     `json:"inputs"`
	Parameters Parameters `json:"parameters"`
	Options    Options    `json:"options"`
}

// Parameters holds the generation parameters. ReturnFullText is always sent
// so the response carries only the completion, not the prompt echoed back.
type Parameters struct {
	MaxNewTokens   int      `json:"max_new_tokens,omitempty"`
	Temperature    float64  `json:"temperature,omitempty"`
	TopP           float64  `json:"top_p,omitempty"`
	ReturnFullText bool     `json:"return_full_text"`
	Stop           []string `json:"stop,omitempty"`
}

// Options controls inference API scheduling. WaitForModel stays false so a
// cold model fails fast with a 503 instead of blocking the attempt; the
// orchestrator's retry and failover handle the warmup window.
type Options struct {
	UseCache     bool `json:"use_cache"`
	WaitForModel bool `json:"wait_for_model"`
}

// GeneratedText is one element of the inference response array.
type GeneratedText struct {
	GeneratedText string `json:"generated_text"`
}

// buildRequest maps a canonical generation request onto the inference wire
// format.
func buildRequest(req *providers.GenerationRequest) *InferenceRequest {
	return &InferenceRequest{
		Inputs: req.Prompt,
		Parameters: Parameters{
			MaxNewTokens:   req.MaxTokens,
			Temperature:    req.Temperature,
			TopP:           req.TopP,
			ReturnFullText: false,
			Stop:           req.Stop,
		},
		Options: Options{
			UseCache:     true,
			WaitForModel: false,
		},
	}
}
