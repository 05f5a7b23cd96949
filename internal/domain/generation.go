package domain

import "context"

// GenerationRequest is one call to the generative model.
type GenerationRequest struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float32
	// JSONMode asks the provider to constrain output to a JSON object when supported.
	JSONMode bool
}

// GenerationResult is the raw generated text. It is untrusted until parsed and validated.
type GenerationResult struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
}

// Generator is the generative model contract.
type Generator interface {
	Generate(ctx context.Context, req GenerationRequest) (GenerationResult, error)
}
