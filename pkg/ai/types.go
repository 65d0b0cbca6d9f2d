package ai

import (
	"context"
	"errors"
)

// ErrEmptyPrompt is returned when a generation request carries no prompt.
var ErrEmptyPrompt = errors.New("prompt is required")

// GenerationInput is a single text generation request.
type GenerationInput struct {
	Prompt       string
	SystemPrompt string
	MaxTokens    int
	Temperature  float32
}

// GenerationResult is the text returned by a generator.
type GenerationResult struct {
	Text             string `json:"generated_text"`
	Model            string `json:"model"`
	Provider         string `json:"provider"`
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
}

// Generator produces text for a learner's prompt.
type Generator interface {
	Generate(ctx context.Context, input GenerationInput) (GenerationResult, error)
}

// Embedder turns texts into dense vectors, one per input, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
