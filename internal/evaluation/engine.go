package evaluation

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/promptarena-go-api/internal/harness"
)

const (
	// RuleWeight is the share of the rule score in the final score.
	RuleWeight = 0.4
	// SimilarityWeight is the share of the similarity (or pass rate) score.
	SimilarityWeight = 0.6
)

// Config groups the engine settings.
type Config struct {
	Rules             RuleConfig
	Similarity        SimilarityConfig
	LowScoreThreshold float64
}

// DefaultConfig returns the canonical engine settings.
func DefaultConfig() Config {
	return Config{
		Rules:             DefaultRuleConfig(),
		Similarity:        DefaultSimilarityConfig(),
		LowScoreThreshold: DefaultLowScoreThreshold,
	}
}

// Engine evaluates prompt submissions. It is safe for concurrent use and
// never returns an error: every failure degrades to a fallback score.
type Engine struct {
	cfg        Config
	rules      *RuleScorer
	similarity *SimilarityScorer
	runner     harness.Runner
	observer   Observer
	logger     zerolog.Logger
	tracer     trace.Tracer
}

// NewEngine wires the scorers. backend and runner may be nil, in which case
// similarity always uses the lexical fallback and code challenges are scored
// on their output text. A zero LowScoreThreshold disables auto-help; a
// negative one selects the default.
func NewEngine(cfg Config, backend *LazyBackend, runner harness.Runner, logger zerolog.Logger, observer Observer) *Engine {
	if cfg.LowScoreThreshold < 0 {
		cfg.LowScoreThreshold = DefaultLowScoreThreshold
	}
	if observer == nil {
		observer = NopObserver{}
	}

	return &Engine{
		cfg:        cfg,
		rules:      NewRuleScorer(cfg.Rules),
		similarity: NewSimilarityScorer(backend, cfg.Similarity, logger, observer),
		runner:     runner,
		observer:   observer,
		logger:     logger.With().Str("component", "evaluation_engine").Logger(),
		tracer:     otel.Tracer("github.com/noah-isme/promptarena-go-api/internal/evaluation"),
	}
}

// Config returns the effective engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// ScoreRules scores the prompt structure only.
func (e *Engine) ScoreRules(prompt string) RuleScoreResult {
	return e.rules.Score(prompt)
}

// ScoreSimilarity compares generated with expected output only.
func (e *Engine) ScoreSimilarity(ctx context.Context, generated, expected string) SimilarityResult {
	return e.similarity.Score(ctx, generated, expected)
}

// AutoHelp returns the missing elements of the prompt and the module's sample template.
func (e *Engine) AutoHelp(prompt string, module ModuleType) AutoHelp {
	return BuildAutoHelp(e.rules, prompt, module, "")
}

// Evaluate scores a submission. Rule and output scoring run concurrently.
func (e *Engine) Evaluate(ctx context.Context, req Request) Result {
	start := time.Now()

	module := req.Challenge.ModuleType
	if !module.Valid() {
		module = ModuleScript
	}

	ctx, span := e.tracer.Start(ctx, "evaluation.evaluate", trace.WithAttributes(
		attribute.Int64("challenge.id", int64(req.Challenge.ID)),
		attribute.String("challenge.module_type", string(module)),
	))
	defer span.End()

	var (
		rules  RuleScoreResult
		output SimilarityResult
		report *harness.Report
	)

	var group errgroup.Group
	group.Go(func() error {
		rules = e.rules.Score(req.Prompt)
		return nil
	})
	group.Go(func() error {
		output, report = e.scoreOutput(ctx, req, module)
		return nil
	})
	_ = group.Wait()

	final := Combine(rules.Score, output.Score)
	tier := TierFor(final)

	result := Result{
		FinalScore:        final,
		RuleScore:         rules.Score,
		SimilarityScore:   output.Score,
		Tier:              tier,
		SimilarityBackend: output.Backend,
		Suggestions:       rules.Suggestions,
		Satisfied:         rules.Satisfied,
		Missing:           rules.Missing,
		CodeReport:        report,
	}
	result.Feedback = RenderFeedback(final, rules.Score, output.Score, output.Backend, rules.Suggestions)

	if final < e.cfg.LowScoreThreshold {
		help := BuildAutoHelp(e.rules, req.Prompt, module, req.Challenge.SamplePrompt)
		result.AutoHelp = &help
		e.observer.ObserveAutoHelp(module)
	}

	result.Duration = time.Since(start)
	e.observer.ObserveEvaluation(module, tier, output.Backend, result.Duration)

	span.SetAttributes(
		attribute.Float64("evaluation.final_score", final),
		attribute.Int("evaluation.rule_score", rules.Score),
		attribute.String("evaluation.similarity_backend", string(output.Backend)),
	)

	e.logger.Debug().
		Uint("challenge_id", req.Challenge.ID).
		Str("module_type", string(module)).
		Float64("final_score", final).
		Str("tier", string(tier)).
		Str("similarity_backend", string(output.Backend)).
		Dur("duration", result.Duration).
		Msg("evaluation completed")

	return result
}

// Combine applies the fixed weights, rounds to two decimals and clamps to [0, 10].
func Combine(rule int, similarity float64) float64 {
	return clampScore(round2(RuleWeight*float64(rule) + SimilarityWeight*similarity))
}

func (e *Engine) scoreOutput(ctx context.Context, req Request, module ModuleType) (SimilarityResult, *harness.Report) {
	if e.useHarness(req, module) {
		report, err := e.runner.Run(ctx, harness.Submission{
			Code:       req.GeneratedCode,
			Entrypoint: req.Challenge.Entrypoint,
			Cases:      req.Challenge.TestCases,
		})
		if err == nil && report.Total > 0 {
			return SimilarityResult{Score: report.Score(), Backend: BackendHarness}, &report
		}
		e.logger.Warn().Err(err).Uint("challenge_id", req.Challenge.ID).Msg("code harness unavailable, scoring output text")
	}

	return e.similarity.Score(ctx, req.GeneratedOutput, req.Challenge.ExpectedOutput), nil
}

func (e *Engine) useHarness(req Request, module ModuleType) bool {
	return module == ModuleCode &&
		e.runner != nil &&
		len(req.Challenge.TestCases) > 0 &&
		strings.TrimSpace(req.GeneratedCode) != ""
}
