package dto

import (
	"github.com/noah-isme/promptarena-go-api/internal/harness"
	"github.com/noah-isme/promptarena-go-api/internal/models"
)

// ChallengeFilter defines query parameters for listing challenges.
type ChallengeFilter struct {
	Level      string `query:"level" validate:"omitempty,oneof=beginner intermediate advanced"`
	ModuleType string `query:"module_type" validate:"omitempty,oneof=image script code"`
	Page       int    `query:"page" validate:"gte=0"`
	PageSize   int    `query:"page_size" validate:"gte=0"`
}

// Pagination describes pagination metadata for list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalItems int `json:"total_items"`
}

// ChallengeSummary is the public listing view of a challenge. It never carries
// the expected output.
type ChallengeSummary struct {
	ID          uint   `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Level       string `json:"level"`
	ModuleType  string `json:"module_type"`
	ImageURL    string `json:"image_url"`
}

// ChallengeDetail adds the hint and declared test cases.
type ChallengeDetail struct {
	ChallengeSummary
	Hint       string             `json:"hint"`
	Entrypoint string             `json:"entrypoint,omitempty"`
	TestCases  []harness.TestCase `json:"test_cases"`
}

// ChallengeListResponse wraps challenges and pagination metadata.
type ChallengeListResponse struct {
	Items      []ChallengeSummary `json:"items"`
	Pagination Pagination         `json:"pagination"`
}

// ChallengeHint is the hint payload for a challenge.
type ChallengeHint struct {
	ChallengeID       uint   `json:"challenge_id"`
	Hint              string `json:"hint"`
	TeachingObjective string `json:"teaching_objective"`
}

// NewChallengeSummary builds a summary DTO from the model.
func NewChallengeSummary(challenge models.Challenge) ChallengeSummary {
	return ChallengeSummary{
		ID:          challenge.ID,
		Title:       challenge.Title,
		Description: challenge.Description,
		Level:       challenge.Level,
		ModuleType:  challenge.ModuleType,
		ImageURL:    challenge.ImageURL,
	}
}

// NewChallengeDetail builds a detail DTO from the model and its decoded cases.
func NewChallengeDetail(challenge models.Challenge, cases []harness.TestCase) ChallengeDetail {
	if cases == nil {
		cases = []harness.TestCase{}
	}
	return ChallengeDetail{
		ChallengeSummary: NewChallengeSummary(challenge),
		Hint:             challenge.Hint,
		Entrypoint:       challenge.Entrypoint,
		TestCases:        cases,
	}
}

// NewChallengeSummaries maps models to summaries, preserving order.
func NewChallengeSummaries(challenges []models.Challenge) []ChallengeSummary {
	items := make([]ChallengeSummary, 0, len(challenges))
	for _, challenge := range challenges {
		items = append(items, NewChallengeSummary(challenge))
	}
	return items
}
