package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ProviderOpenAI names the OpenAI backend in results and metrics.
const ProviderOpenAI = "openai"

const defaultSystemPrompt = "You are a helpful assistant. Follow the user's instructions exactly and answer with the requested content only."

var (
	aiDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "promptarena",
		Subsystem: "ai",
		Name:      "request_duration_seconds",
		Help:      "Duration of AI backend requests",
	}, []string{"provider", "operation", "model"})

	aiFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "promptarena",
		Subsystem: "ai",
		Name:      "request_failures_total",
		Help:      "Number of failed AI backend requests",
	}, []string{"provider", "operation", "model"})
)

// OpenAIConfig defines configuration options for the OpenAI backends.
type OpenAIConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	EmbeddingModel string
	MaxTokens      int
	Temperature    float32
	Logger         zerolog.Logger
}

type openAIBackend struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

func newOpenAIBackend(cfg OpenAIConfig, component string) (openAIBackend, error) {
	if cfg.APIKey == "" {
		return openAIBackend{}, fmt.Errorf("openai api key is required")
	}

	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	return openAIBackend{
		client: openai.NewClientWithConfig(config),
		cfg:    cfg,
		tracer: otel.Tracer("github.com/noah-isme/promptarena-go-api/pkg/ai/openai"),
		logger: logger.With().Str("component", component).Logger(),
	}, nil
}

func (b openAIBackend) fail(span trace.Span, operation, model string, err error) error {
	aiFailures.WithLabelValues(ProviderOpenAI, operation, model).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// OpenAIGenerator implements Generator against the chat completion API.
type OpenAIGenerator struct {
	openAIBackend
}

// NewOpenAIGenerator builds a generator using the provided configuration.
func NewOpenAIGenerator(cfg OpenAIConfig) (*OpenAIGenerator, error) {
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 512
	}

	backend, err := newOpenAIBackend(cfg, "openai_generator")
	if err != nil {
		return nil, err
	}
	return &OpenAIGenerator{openAIBackend: backend}, nil
}

// Generate sends the prompt to OpenAI and returns the first choice.
func (g *OpenAIGenerator) Generate(parent context.Context, input GenerationInput) (GenerationResult, error) {
	prompt := strings.TrimSpace(input.Prompt)
	if prompt == "" {
		return GenerationResult{}, ErrEmptyPrompt
	}

	model := g.cfg.Model
	ctx, span := g.tracer.Start(parent, "openai.generate", trace.WithAttributes(
		attribute.String("model", model),
	))
	defer span.End()

	system := input.SystemPrompt
	if system == "" {
		system = defaultSystemPrompt
	}
	maxTokens := input.MaxTokens
	if maxTokens <= 0 {
		maxTokens = g.cfg.MaxTokens
	}
	temperature := input.Temperature
	if temperature == 0 {
		temperature = g.cfg.Temperature
	}

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	aiDuration.WithLabelValues(ProviderOpenAI, "generate", model).Observe(time.Since(start).Seconds())
	if err != nil {
		return GenerationResult{}, g.fail(span, "generate", model, fmt.Errorf("openai generate: %w", err))
	}

	if len(resp.Choices) == 0 {
		return GenerationResult{}, g.fail(span, "generate", model, errors.New("no choices returned from openai"))
	}

	return GenerationResult{
		Text:             strings.TrimSpace(resp.Choices[0].Message.Content),
		Model:            model,
		Provider:         ProviderOpenAI,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}

// OpenAIEmbedder implements Embedder against the embeddings API.
type OpenAIEmbedder struct {
	openAIBackend
}

// NewOpenAIEmbedder builds an embedder. The model defaults to text-embedding-3-small.
func NewOpenAIEmbedder(cfg OpenAIConfig) (*OpenAIEmbedder, error) {
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = string(openai.SmallEmbedding3)
	}

	backend, err := newOpenAIBackend(cfg, "openai_embedder")
	if err != nil {
		return nil, err
	}
	return &OpenAIEmbedder{openAIBackend: backend}, nil
}

// Model returns the embedding model name.
func (e *OpenAIEmbedder) Model() string {
	return e.cfg.EmbeddingModel
}

// Embed returns one vector per input text, ordered like the input.
func (e *OpenAIEmbedder) Embed(parent context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	model := e.cfg.EmbeddingModel
	ctx, span := e.tracer.Start(parent, "openai.embed", trace.WithAttributes(
		attribute.String("model", model),
		attribute.Int("inputs", len(texts)),
	))
	defer span.End()

	start := time.Now()
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: texts,
		Model: openai.EmbeddingModel(model),
	})
	aiDuration.WithLabelValues(ProviderOpenAI, "embed", model).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, e.fail(span, "embed", model, fmt.Errorf("openai embed: %w", err))
	}

	if len(resp.Data) != len(texts) {
		return nil, e.fail(span, "embed", model, fmt.Errorf("openai embed: expected %d vectors, got %d", len(texts), len(resp.Data)))
	}

	vectors := make([][]float32, len(texts))
	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= len(vectors) {
			return nil, e.fail(span, "embed", model, fmt.Errorf("openai embed: index %d out of range", item.Index))
		}
		vectors[item.Index] = item.Embedding
	}

	return vectors, nil
}
