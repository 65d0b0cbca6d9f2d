package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/promptarena-go-api/internal/dto"
	"github.com/noah-isme/promptarena-go-api/internal/models"
	"github.com/noah-isme/promptarena-go-api/internal/repository"
)

const (
	defaultChallengePageSize = 20
	maxChallengePageSize     = 100
)

// ErrChallengeNotFound indicates the challenge cannot be located.
var ErrChallengeNotFound = errors.New("challenge not found")

// ChallengeService exposes read operations on the challenge catalog.
type ChallengeService interface {
	List(ctx context.Context, filter dto.ChallengeFilter) (dto.ChallengeListResponse, error)
	ByLevel(ctx context.Context, level string) ([]dto.ChallengeSummary, error)
	Next(ctx context.Context, level string) (dto.ChallengeSummary, error)
	Get(ctx context.Context, id uint) (dto.ChallengeDetail, error)
	Hint(ctx context.Context, id uint) (dto.ChallengeHint, error)
}

type challengeService struct {
	repo      repository.ChallengeRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewChallengeService constructs a challenge service.
func NewChallengeService(repo repository.ChallengeRepository, validate *validator.Validate, logger zerolog.Logger) ChallengeService {
	return &challengeService{
		repo:      repo,
		validator: validate,
		logger:    logger.With().Str("component", "challenge_service").Logger(),
	}
}

func (s *challengeService) List(ctx context.Context, filter dto.ChallengeFilter) (dto.ChallengeListResponse, error) {
	filter.Level = strings.ToLower(strings.TrimSpace(filter.Level))
	filter.ModuleType = strings.ToLower(strings.TrimSpace(filter.ModuleType))
	if err := s.validator.Struct(filter); err != nil {
		return dto.ChallengeListResponse{}, err
	}

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = defaultChallengePageSize
	}
	if pageSize > maxChallengePageSize {
		pageSize = maxChallengePageSize
	}

	challenges, total, err := s.repo.List(ctx, repository.ChallengeQuery{
		Level:      filter.Level,
		ModuleType: filter.ModuleType,
		Offset:     (page - 1) * pageSize,
		Limit:      pageSize,
	})
	if err != nil {
		return dto.ChallengeListResponse{}, err
	}

	return dto.ChallengeListResponse{
		Items: dto.NewChallengeSummaries(challenges),
		Pagination: dto.Pagination{
			Page:       page,
			PageSize:   pageSize,
			TotalItems: int(total),
		},
	}, nil
}

func (s *challengeService) ByLevel(ctx context.Context, level string) ([]dto.ChallengeSummary, error) {
	level = strings.ToLower(strings.TrimSpace(level))
	if !validLevel(level) {
		return []dto.ChallengeSummary{}, nil
	}

	challenges, _, err := s.repo.List(ctx, repository.ChallengeQuery{Level: level})
	if err != nil {
		return nil, err
	}
	return dto.NewChallengeSummaries(challenges), nil
}

func (s *challengeService) Next(ctx context.Context, level string) (dto.ChallengeSummary, error) {
	level = strings.ToLower(strings.TrimSpace(level))
	if !validLevel(level) {
		return dto.ChallengeSummary{}, ErrChallengeNotFound
	}

	challenge, err := s.repo.FirstByLevel(ctx, level)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ChallengeSummary{}, ErrChallengeNotFound
		}
		return dto.ChallengeSummary{}, err
	}
	return dto.NewChallengeSummary(challenge), nil
}

func (s *challengeService) Get(ctx context.Context, id uint) (dto.ChallengeDetail, error) {
	challenge, err := s.find(ctx, id)
	if err != nil {
		return dto.ChallengeDetail{}, err
	}

	cases, err := challenge.DecodeTestCases()
	if err != nil {
		s.logger.Warn().Err(err).Uint("challenge_id", id).Msg("stored test cases are malformed")
		cases = nil
	}
	return dto.NewChallengeDetail(challenge, cases), nil
}

func (s *challengeService) Hint(ctx context.Context, id uint) (dto.ChallengeHint, error) {
	challenge, err := s.find(ctx, id)
	if err != nil {
		return dto.ChallengeHint{}, err
	}
	return dto.ChallengeHint{
		ChallengeID:       challenge.ID,
		Hint:              challenge.Hint,
		TeachingObjective: challenge.TeachingObjective,
	}, nil
}

func (s *challengeService) find(ctx context.Context, id uint) (models.Challenge, error) {
	if id == 0 {
		return models.Challenge{}, ErrChallengeNotFound
	}
	challenge, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Challenge{}, ErrChallengeNotFound
		}
		return models.Challenge{}, err
	}
	return challenge, nil
}

func validLevel(level string) bool {
	switch level {
	case models.LevelBeginner, models.LevelIntermediate, models.LevelAdvanced:
		return true
	default:
		return false
	}
}
