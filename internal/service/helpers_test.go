package service

import (
	"context"
	"io"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/promptarena-go-api/internal/models"
	"github.com/noah-isme/promptarena-go-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

type stubChallengeRepo struct {
	items    map[uint]models.Challenge
	err      error
	upserted []models.Challenge
	queries  []repository.ChallengeQuery
}

func newStubChallengeRepo(items ...models.Challenge) *stubChallengeRepo {
	repo := &stubChallengeRepo{items: map[uint]models.Challenge{}}
	for _, item := range items {
		repo.items[item.ID] = item
	}
	return repo
}

func (s *stubChallengeRepo) sorted() []models.Challenge {
	out := make([]models.Challenge, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *stubChallengeRepo) List(ctx context.Context, query repository.ChallengeQuery) ([]models.Challenge, int64, error) {
	s.queries = append(s.queries, query)
	if s.err != nil {
		return nil, 0, s.err
	}
	var filtered []models.Challenge
	for _, item := range s.sorted() {
		if query.Level != "" && item.Level != strings.ToLower(query.Level) {
			continue
		}
		if query.ModuleType != "" && item.ModuleType != query.ModuleType {
			continue
		}
		filtered = append(filtered, item)
	}
	total := int64(len(filtered))
	if query.Offset < len(filtered) {
		filtered = filtered[query.Offset:]
	} else {
		filtered = nil
	}
	if query.Limit > 0 && len(filtered) > query.Limit {
		filtered = filtered[:query.Limit]
	}
	return filtered, total, nil
}

func (s *stubChallengeRepo) GetByID(ctx context.Context, id uint) (models.Challenge, error) {
	if s.err != nil {
		return models.Challenge{}, s.err
	}
	item, ok := s.items[id]
	if !ok {
		return models.Challenge{}, gorm.ErrRecordNotFound
	}
	return item, nil
}

func (s *stubChallengeRepo) FirstByLevel(ctx context.Context, level string) (models.Challenge, error) {
	items, _, err := s.List(ctx, repository.ChallengeQuery{Level: level})
	if err != nil {
		return models.Challenge{}, err
	}
	if len(items) == 0 {
		return models.Challenge{}, gorm.ErrRecordNotFound
	}
	return items[0], nil
}

func (s *stubChallengeRepo) UpsertBatch(ctx context.Context, challenges []models.Challenge) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.upserted = append(s.upserted, challenges...)
	for _, item := range challenges {
		s.items[item.ID] = item
	}
	return int64(len(challenges)), nil
}

func (s *stubChallengeRepo) Count(ctx context.Context) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	return int64(len(s.items)), nil
}
