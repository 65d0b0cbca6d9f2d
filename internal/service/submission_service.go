package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/promptarena-go-api/internal/dto"
	"github.com/noah-isme/promptarena-go-api/internal/evaluation"
	"github.com/noah-isme/promptarena-go-api/internal/events"
	"github.com/noah-isme/promptarena-go-api/internal/middleware"
	"github.com/noah-isme/promptarena-go-api/internal/models"
	"github.com/noah-isme/promptarena-go-api/internal/repository"
)

// SubmissionService scores learner submissions. Nothing is persisted.
type SubmissionService interface {
	Score(ctx context.Context, payload dto.SubmissionRequest) (dto.EvaluationResponse, error)
}

type submissionService struct {
	challenges repository.ChallengeRepository
	engine     *evaluation.Engine
	publisher  events.Publisher
	validator  *validator.Validate
	logger     zerolog.Logger
	now        func() time.Time
}

// NewSubmissionService constructs a submission service. A nil publisher drops events.
func NewSubmissionService(challengeRepo repository.ChallengeRepository, engine *evaluation.Engine, publisher events.Publisher, validate *validator.Validate, logger zerolog.Logger) SubmissionService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &submissionService{
		challenges: challengeRepo,
		engine:     engine,
		publisher:  publisher,
		validator:  validate,
		logger:     logger.With().Str("component", "submission_service").Logger(),
		now:        time.Now,
	}
}

func (s *submissionService) Score(ctx context.Context, payload dto.SubmissionRequest) (dto.EvaluationResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.EvaluationResponse{}, err
	}

	challenge, err := s.lookup(ctx, payload.ChallengeID)
	if err != nil {
		return dto.EvaluationResponse{}, err
	}

	output := evaluation.ComparisonText(challenge.ModuleType, payload.GeneratedOutput, payload.GeneratedImageDescription, payload.UserPrompt)
	result := s.engine.Evaluate(ctx, evaluation.Request{
		Prompt:          payload.UserPrompt,
		GeneratedOutput: output,
		GeneratedCode:   payload.GeneratedCode,
		Challenge:       challenge,
	})

	evaluationID := uuid.NewString()
	s.publish(ctx, evaluationID, challenge, result)

	s.logger.Info().
		Str("evaluation_id", evaluationID).
		Uint("challenge_id", payload.ChallengeID).
		Str("module_type", string(challenge.ModuleType)).
		Float64("final_score", result.FinalScore).
		Str("similarity_backend", string(result.SimilarityBackend)).
		Dur("duration", result.Duration).
		Msg("submission scored")

	return dto.NewEvaluationResponse(evaluationID, payload.ChallengeID, challenge.ModuleType, result), nil
}

// lookup resolves the evaluation view of a challenge. Unknown ids degrade to
// an empty script challenge so the submission still receives a neutral score.
func (s *submissionService) lookup(ctx context.Context, id uint) (evaluation.Challenge, error) {
	row, err := s.challenges.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn().Uint("challenge_id", id).Msg("scoring against unknown challenge")
			return evaluation.Challenge{ID: id, ModuleType: evaluation.ModuleScript}, nil
		}
		return evaluation.Challenge{}, err
	}
	return s.toEvaluation(row), nil
}

func (s *submissionService) toEvaluation(row models.Challenge) evaluation.Challenge {
	cases, err := row.DecodeTestCases()
	if err != nil {
		s.logger.Warn().Err(err).Uint("challenge_id", row.ID).Msg("ignoring malformed test cases")
		cases = nil
	}
	return evaluation.Challenge{
		ID:             row.ID,
		ExpectedOutput: row.ExpectedOutput,
		ModuleType:     evaluation.ParseModuleType(row.ModuleType),
		Hint:           row.Hint,
		SamplePrompt:   row.SamplePrompt,
		Entrypoint:     row.Entrypoint,
		TestCases:      cases,
	}
}

func (s *submissionService) publish(ctx context.Context, evaluationID string, challenge evaluation.Challenge, result evaluation.Result) {
	event := events.EvaluationCompleted{
		EvaluationID:  evaluationID,
		ChallengeID:   challenge.ID,
		ModuleType:    string(challenge.ModuleType),
		FinalScore:    result.FinalScore,
		Tier:          string(result.Tier),
		CorrelationID: middleware.CorrelationIDFromContext(ctx),
		EvaluatedAt:   s.now().UTC(),
	}
	if err := s.publisher.PublishEvaluation(context.WithoutCancel(ctx), event); err != nil {
		s.logger.Warn().Err(err).Str("evaluation_id", evaluationID).Msg("failed to publish evaluation event")
	}
}
