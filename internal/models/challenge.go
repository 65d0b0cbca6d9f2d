package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/noah-isme/promptarena-go-api/internal/harness"
)

// Challenge levels.
const (
	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"
)

// Challenge is a prompt engineering exercise from the catalog.
type Challenge struct {
	ID                uint           `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Title             string         `gorm:"size:255;not null" json:"title"`
	Description       string         `gorm:"type:text;not null" json:"description"`
	Level             string         `gorm:"size:32;not null;index" json:"level"`
	ModuleType        string         `gorm:"size:16;not null" json:"module_type"`
	ImageURL          string         `gorm:"type:text" json:"image_url"`
	ExpectedOutput    string         `gorm:"type:text" json:"expected_output"`
	Hint              string         `gorm:"type:text" json:"hint"`
	TeachingObjective string         `gorm:"type:text" json:"teaching_objective"`
	SamplePrompt      string         `gorm:"type:text" json:"sample_prompt"`
	Entrypoint        string         `gorm:"size:128" json:"entrypoint"`
	TestCases         datatypes.JSON `json:"test_cases"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// DecodeTestCases parses the stored test cases. An empty column yields nil.
func (c Challenge) DecodeTestCases() ([]harness.TestCase, error) {
	if len(c.TestCases) == 0 || string(c.TestCases) == "null" {
		return nil, nil
	}

	var cases []harness.TestCase
	if err := json.Unmarshal(c.TestCases, &cases); err != nil {
		return nil, fmt.Errorf("decode test cases for challenge %d: %w", c.ID, err)
	}
	return cases, nil
}

// EncodeTestCases serialises cases into the JSON column value.
func EncodeTestCases(cases []harness.TestCase) (datatypes.JSON, error) {
	if len(cases) == 0 {
		return datatypes.JSON("[]"), nil
	}
	payload, err := json.Marshal(cases)
	if err != nil {
		return nil, fmt.Errorf("encode test cases: %w", err)
	}
	return datatypes.JSON(payload), nil
}
