package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/promptarena-go-api/internal/dto"
	"github.com/noah-isme/promptarena-go-api/pkg/ai"
)

// ErrGeneratorUnavailable indicates no text generation backend is configured.
var ErrGeneratorUnavailable = errors.New("generator unavailable")

// GenerationService proxies learner prompts to the configured text backends.
type GenerationService interface {
	Generate(ctx context.Context, payload dto.GenerationRequest) (dto.GenerationResponse, error)
}

type generationService struct {
	generators []ai.Generator
	validator  *validator.Validate
	logger     zerolog.Logger
}

// NewGenerationService constructs a generation service. Generators are tried in
// order and the first success wins. Nil generators are skipped.
func NewGenerationService(generators []ai.Generator, validate *validator.Validate, logger zerolog.Logger) GenerationService {
	usable := make([]ai.Generator, 0, len(generators))
	for _, generator := range generators {
		if generator != nil {
			usable = append(usable, generator)
		}
	}
	return &generationService{
		generators: usable,
		validator:  validate,
		logger:     logger.With().Str("component", "generation_service").Logger(),
	}
}

func (s *generationService) Generate(ctx context.Context, payload dto.GenerationRequest) (dto.GenerationResponse, error) {
	payload.Prompt = strings.TrimSpace(payload.Prompt)
	if err := s.validator.Struct(payload); err != nil {
		return dto.GenerationResponse{}, err
	}
	if len(s.generators) == 0 {
		return dto.GenerationResponse{}, ErrGeneratorUnavailable
	}

	input := ai.GenerationInput{
		Prompt:       payload.Prompt,
		SystemPrompt: payload.SystemPrompt,
		MaxTokens:    payload.MaxTokens,
		Temperature:  payload.Temperature,
	}

	var lastErr error
	for i, generator := range s.generators {
		result, err := generator.Generate(ctx, input)
		if err == nil {
			return dto.GenerationResponse{
				GeneratedText:    result.Text,
				Model:            result.Model,
				Provider:         result.Provider,
				PromptTokens:     result.PromptTokens,
				CompletionTokens: result.CompletionTokens,
			}, nil
		}
		if ctx.Err() != nil {
			return dto.GenerationResponse{}, ctx.Err()
		}
		s.logger.Warn().Err(err).Int("attempt", i+1).Msg("text generation attempt failed")
		lastErr = err
	}

	return dto.GenerationResponse{}, fmt.Errorf("generation failed: %w", lastErr)
}
