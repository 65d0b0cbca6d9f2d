package dto

// GenerationRequest asks the text backend to run a learner's prompt.
type GenerationRequest struct {
	Prompt       string  `json:"prompt" validate:"required,max=8000"`
	SystemPrompt string  `json:"system_prompt,omitempty" validate:"max=4000"`
	MaxTokens    int     `json:"max_tokens,omitempty" validate:"omitempty,gte=1,lte=4096"`
	Temperature  float32 `json:"temperature,omitempty" validate:"omitempty,gte=0,lte=2"`
}

// GenerationResponse is the generated text plus provider metadata.
type GenerationResponse struct {
	GeneratedText    string `json:"generated_text"`
	Model            string `json:"model"`
	Provider         string `json:"provider"`
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
}
