package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ProviderAnthropic names the Anthropic backend in results and metrics.
const ProviderAnthropic = "anthropic"

// AnthropicConfig configures the Anthropic generator.
type AnthropicConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
	Logger      zerolog.Logger
}

// AnthropicGenerator implements Generator against the Messages API.
type AnthropicGenerator struct {
	client *anthropic.Client
	cfg    AnthropicConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewAnthropicGenerator constructs a generator using the provided configuration.
func NewAnthropicGenerator(cfg AnthropicConfig) (*AnthropicGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "claude-3-5-haiku-latest"
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 512
	}

	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := anthropic.NewClient(opts...)

	return &AnthropicGenerator{
		client: &client,
		cfg:    cfg,
		tracer: otel.Tracer("github.com/noah-isme/promptarena-go-api/pkg/ai/anthropic"),
		logger: logger.With().Str("component", "anthropic_generator").Logger(),
	}, nil
}

// Generate sends the prompt to Anthropic and returns the first text block.
func (a *AnthropicGenerator) Generate(parent context.Context, input GenerationInput) (GenerationResult, error) {
	prompt := strings.TrimSpace(input.Prompt)
	if prompt == "" {
		return GenerationResult{}, ErrEmptyPrompt
	}

	model := a.cfg.Model
	ctx, span := a.tracer.Start(parent, "anthropic.generate", trace.WithAttributes(
		attribute.String("model", model),
	))
	defer span.End()

	system := input.SystemPrompt
	if system == "" {
		system = defaultSystemPrompt
	}
	maxTokens := input.MaxTokens
	if maxTokens <= 0 {
		maxTokens = a.cfg.MaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens),
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	temperature := input.Temperature
	if temperature == 0 {
		temperature = a.cfg.Temperature
	}
	if temperature > 0 {
		params.Temperature = param.NewOpt(float64(temperature))
	}

	start := time.Now()
	message, err := a.client.Messages.New(ctx, params)
	aiDuration.WithLabelValues(ProviderAnthropic, "generate", model).Observe(time.Since(start).Seconds())
	if err != nil {
		return GenerationResult{}, a.fail(span, model, fmt.Errorf("anthropic generate: %w", err))
	}

	var text string
	for _, block := range message.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}
	if text == "" {
		return GenerationResult{}, a.fail(span, model, errors.New("no text content in anthropic response"))
	}

	return GenerationResult{
		Text:             strings.TrimSpace(text),
		Model:            model,
		Provider:         ProviderAnthropic,
		PromptTokens:     int(message.Usage.InputTokens),
		CompletionTokens: int(message.Usage.OutputTokens),
	}, nil
}

func (a *AnthropicGenerator) fail(span trace.Span, model string, err error) error {
	aiFailures.WithLabelValues(ProviderAnthropic, "generate", model).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	a.logger.Warn().Err(err).Str("model", model).Msg("anthropic generation failed")
	return err
}
