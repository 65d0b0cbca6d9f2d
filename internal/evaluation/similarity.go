package evaluation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// NeutralScore is returned when there is nothing to compare.
const NeutralScore = 5.0

// DefaultEmbedTimeout bounds a single embedding call.
const DefaultEmbedTimeout = 10 * time.Second

// SimilarityBackend names the path that produced a similarity score.
type SimilarityBackend string

const (
	BackendEmbedding SimilarityBackend = "embedding"
	BackendLexical   SimilarityBackend = "lexical"
	BackendNeutral   SimilarityBackend = "neutral"
	BackendHarness   SimilarityBackend = "harness"
)

var errInvalidVector = errors.New("invalid embedding vector")

// SimilarityResult is a 0-10 score plus the backend that produced it. When the
// lexical fallback was used, Cause holds the backend error that triggered it.
type SimilarityResult struct {
	Score   float64
	Backend SimilarityBackend
	Cause   error
}

// SimilarityConfig tunes the similarity scorer.
type SimilarityConfig struct {
	EmbedTimeout     time.Duration
	ExcludeStopWords bool
}

// DefaultSimilarityConfig returns the canonical similarity settings.
func DefaultSimilarityConfig() SimilarityConfig {
	return SimilarityConfig{EmbedTimeout: DefaultEmbedTimeout, ExcludeStopWords: true}
}

// SimilarityScorer compares generated output with expected output.
type SimilarityScorer struct {
	backend  *LazyBackend
	cfg      SimilarityConfig
	logger   zerolog.Logger
	observer Observer
}

// NewSimilarityScorer builds a scorer around an embedding backend. A nil
// backend means every comparison uses the lexical fallback.
func NewSimilarityScorer(backend *LazyBackend, cfg SimilarityConfig, logger zerolog.Logger, observer Observer) *SimilarityScorer {
	if cfg.EmbedTimeout <= 0 {
		cfg.EmbedTimeout = DefaultEmbedTimeout
	}
	if observer == nil {
		observer = NopObserver{}
	}
	return &SimilarityScorer{
		backend:  backend,
		cfg:      cfg,
		logger:   logger.With().Str("component", "similarity_scorer").Logger(),
		observer: observer,
	}
}

// Score returns the similarity of generated to expected on a 0-10 scale.
// Backend failures are never returned; they switch the call to Jaccard overlap.
func (s *SimilarityScorer) Score(ctx context.Context, generated, expected string) SimilarityResult {
	if strings.TrimSpace(generated) == "" || strings.TrimSpace(expected) == "" {
		return SimilarityResult{Score: NeutralScore, Backend: BackendNeutral}
	}

	score, err := s.embeddingScore(ctx, generated, expected)
	if err == nil {
		return SimilarityResult{Score: round2(score), Backend: BackendEmbedding}
	}

	reason := fallbackReason(err)
	event := s.logger.Warn()
	if reason == "unavailable" {
		event = s.logger.Debug()
	}
	event.Err(err).Str("reason", reason).Msg("embedding similarity failed, using lexical fallback")
	s.observer.ObserveFallback(reason)

	return SimilarityResult{
		Score:   round2(JaccardScore(generated, expected, s.cfg.ExcludeStopWords)),
		Backend: BackendLexical,
		Cause:   err,
	}
}

func (s *SimilarityScorer) embeddingScore(ctx context.Context, generated, expected string) (float64, error) {
	embedder, err := s.backend.Get()
	if err != nil {
		return 0, err
	}

	embedCtx, cancel := context.WithTimeout(ctx, s.cfg.EmbedTimeout)
	defer cancel()

	vectors, err := embedder.Embed(embedCtx, []string{generated, expected})
	if err != nil {
		return 0, fmt.Errorf("embed: %w", err)
	}
	if len(vectors) != 2 {
		return 0, fmt.Errorf("%w: expected 2 vectors, got %d", errInvalidVector, len(vectors))
	}

	cosine, err := CosineSimilarity(vectors[0], vectors[1])
	if err != nil {
		return 0, err
	}
	return clampScore(cosine * MaxScore), nil
}

// CosineSimilarity returns (u·v)/(‖u‖‖v‖). Vectors must share a non-zero length
// and have non-zero norms.
func CosineSimilarity(u, v []float32) (float64, error) {
	if len(u) == 0 || len(u) != len(v) {
		return 0, fmt.Errorf("%w: dimensions %d and %d", errInvalidVector, len(u), len(v))
	}

	var dot, normU, normV float64
	for i := range u {
		a, b := float64(u[i]), float64(v[i])
		dot += a * b
		normU += a * a
		normV += b * b
	}
	if normU == 0 || normV == 0 {
		return 0, fmt.Errorf("%w: zero norm", errInvalidVector)
	}

	cosine := dot / (math.Sqrt(normU) * math.Sqrt(normV))
	if math.IsNaN(cosine) || math.IsInf(cosine, 0) {
		return 0, fmt.Errorf("%w: not a number", errInvalidVector)
	}
	return cosine, nil
}

func fallbackReason(err error) string {
	switch {
	case errors.Is(err, ErrBackendUnavailable):
		return "unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, errInvalidVector):
		return "invalid_vector"
	default:
		return "inference"
	}
}

func clampScore(score float64) float64 {
	switch {
	case math.IsNaN(score) || score < 0:
		return 0
	case score > MaxScore:
		return MaxScore
	default:
		return score
	}
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
