package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/promptarena-go-api/internal/catalog"
	"github.com/noah-isme/promptarena-go-api/internal/models"
	"github.com/noah-isme/promptarena-go-api/internal/repository"
)

var (
	// ErrSeedDisabled indicates the seeding tools are disabled by configuration.
	ErrSeedDisabled = errors.New("seeding is disabled")
	// ErrSeedUnauthorized indicates the provided token is invalid.
	ErrSeedUnauthorized = errors.New("invalid seed token")
)

// SeedService loads catalog entries into the challenge store.
type SeedService interface {
	SeedChallenges(ctx context.Context, token string, entries []catalog.Entry) (int64, error)
	EnsureCatalog(ctx context.Context) (int64, error)
}

type seedService struct {
	repo     repository.ChallengeRepository
	defaults []catalog.Entry
	enabled  bool
	token    string
	logger   zerolog.Logger
}

// NewSeedService constructs a seeding service. defaults are used when a seed
// request carries no entries and when the store is found empty at startup.
func NewSeedService(repo repository.ChallengeRepository, defaults []catalog.Entry, enabled bool, token string, logger zerolog.Logger) SeedService {
	return &seedService{
		repo:     repo,
		defaults: defaults,
		enabled:  enabled,
		token:    token,
		logger:   logger.With().Str("component", "seed_service").Logger(),
	}
}

func (s *seedService) SeedChallenges(ctx context.Context, token string, entries []catalog.Entry) (int64, error) {
	if !s.enabled {
		return 0, ErrSeedDisabled
	}
	if !s.validateToken(token) {
		return 0, ErrSeedUnauthorized
	}
	if len(entries) == 0 {
		entries = s.defaults
	}

	affected, err := s.upsert(ctx, entries)
	if err != nil {
		return 0, err
	}
	s.logger.Info().Int64("affected", affected).Int("entries", len(entries)).Msg("challenges seeded")
	return affected, nil
}

func (s *seedService) EnsureCatalog(ctx context.Context) (int64, error) {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	affected, err := s.upsert(ctx, s.defaults)
	if err != nil {
		return 0, err
	}
	s.logger.Info().Int64("affected", affected).Msg("empty challenge store populated from built-in catalog")
	return affected, nil
}

func (s *seedService) upsert(ctx context.Context, entries []catalog.Entry) (int64, error) {
	rows := make([]models.Challenge, 0, len(entries))
	for _, entry := range entries {
		row, err := entry.Model()
		if err != nil {
			return 0, fmt.Errorf("challenge %d: %w", entry.ID, err)
		}
		rows = append(rows, row)
	}
	return s.repo.UpsertBatch(ctx, rows)
}

func (s *seedService) validateToken(token string) bool {
	expected := strings.TrimSpace(s.token)
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(strings.TrimSpace(token))) == 1
}
