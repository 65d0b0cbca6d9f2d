package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/promptarena-go-api/internal/models"
)

// ChallengeQuery filters the challenge listing.
type ChallengeQuery struct {
	Level      string
	ModuleType string
	Offset     int
	Limit      int
}

// ChallengeRepository exposes persistence operations for the challenge catalog.
type ChallengeRepository interface {
	List(ctx context.Context, query ChallengeQuery) ([]models.Challenge, int64, error)
	GetByID(ctx context.Context, id uint) (models.Challenge, error)
	FirstByLevel(ctx context.Context, level string) (models.Challenge, error)
	UpsertBatch(ctx context.Context, challenges []models.Challenge) (int64, error)
	Count(ctx context.Context) (int64, error)
}

// NewChallengeRepository constructs a challenge repository.
func NewChallengeRepository(db *gorm.DB) ChallengeRepository {
	return &challengeRepository{db: db}
}

type challengeRepository struct {
	db *gorm.DB
}

func (r *challengeRepository) List(ctx context.Context, query ChallengeQuery) ([]models.Challenge, int64, error) {
	db := r.db.WithContext(ctx).Model(&models.Challenge{})

	if query.Level != "" {
		db = db.Where("level = ?", strings.ToLower(query.Level))
	}
	if query.ModuleType != "" {
		db = db.Where("module_type = ?", strings.ToLower(query.ModuleType))
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if query.Offset > 0 {
		db = db.Offset(query.Offset)
	}
	if query.Limit > 0 {
		db = db.Limit(query.Limit)
	}

	var challenges []models.Challenge
	if err := db.Order("id ASC").Find(&challenges).Error; err != nil {
		return nil, 0, err
	}

	return challenges, total, nil
}

func (r *challengeRepository) GetByID(ctx context.Context, id uint) (models.Challenge, error) {
	var challenge models.Challenge
	if err := r.db.WithContext(ctx).First(&challenge, id).Error; err != nil {
		return models.Challenge{}, err
	}
	return challenge, nil
}

func (r *challengeRepository) FirstByLevel(ctx context.Context, level string) (models.Challenge, error) {
	var challenge models.Challenge
	err := r.db.WithContext(ctx).
		Where("level = ?", strings.ToLower(level)).
		Order("id ASC").
		First(&challenge).Error
	if err != nil {
		return models.Challenge{}, err
	}
	return challenge, nil
}

// UpsertBatch inserts or updates challenges keyed by id.
func (r *challengeRepository) UpsertBatch(ctx context.Context, challenges []models.Challenge) (int64, error) {
	if len(challenges) == 0 {
		return 0, nil
	}

	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title", "description", "level", "module_type", "image_url", "expected_output",
			"hint", "teaching_objective", "sample_prompt", "entrypoint", "test_cases", "updated_at",
		}),
	})

	result := tx.Create(&challenges)
	return result.RowsAffected, result.Error
}

func (r *challengeRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Challenge{}).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}
