// Package catalog holds the built-in challenge set and converts entries into
// their persistence and evaluation forms.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/noah-isme/promptarena-go-api/internal/evaluation"
	"github.com/noah-isme/promptarena-go-api/internal/harness"
	"github.com/noah-isme/promptarena-go-api/internal/models"
)

//go:embed challenges.yaml
var embeddedCatalog []byte

// ErrInvalidCatalog is returned when a catalog document fails validation.
var ErrInvalidCatalog = errors.New("invalid challenge catalog")

// Entry is a single challenge as written in the catalog file.
type Entry struct {
	ID                uint               `yaml:"id"`
	Title             string             `yaml:"title"`
	Description       string             `yaml:"description"`
	Level             string             `yaml:"level"`
	ModuleType        string             `yaml:"module_type"`
	ImageURL          string             `yaml:"image_url"`
	ExpectedOutput    string             `yaml:"expected_output"`
	Hint              string             `yaml:"hint"`
	TeachingObjective string             `yaml:"teaching_objective"`
	SamplePrompt      string             `yaml:"sample_prompt"`
	Entrypoint        string             `yaml:"entrypoint"`
	TestCases         []harness.TestCase `yaml:"test_cases"`
}

type document struct {
	Version    int     `yaml:"version"`
	Challenges []Entry `yaml:"challenges"`
}

// Load parses the catalog compiled into the binary.
func Load() ([]Entry, error) {
	return Parse(embeddedCatalog)
}

// LoadFile parses a catalog from disk.
func LoadFile(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a catalog document. Entries are returned sorted by id.
func Parse(data []byte) ([]Entry, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}

	seen := make(map[uint]struct{}, len(doc.Challenges))
	for i := range doc.Challenges {
		entry := &doc.Challenges[i]
		entry.Level = strings.ToLower(strings.TrimSpace(entry.Level))
		entry.ModuleType = strings.ToLower(strings.TrimSpace(entry.ModuleType))

		if err := entry.validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[entry.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate challenge id %d", ErrInvalidCatalog, entry.ID)
		}
		seen[entry.ID] = struct{}{}
	}

	sort.Slice(doc.Challenges, func(i, j int) bool {
		return doc.Challenges[i].ID < doc.Challenges[j].ID
	})
	return doc.Challenges, nil
}

func (e Entry) validate() error {
	switch {
	case e.ID == 0:
		return fmt.Errorf("%w: challenge id is required", ErrInvalidCatalog)
	case strings.TrimSpace(e.Title) == "":
		return fmt.Errorf("%w: challenge %d has no title", ErrInvalidCatalog, e.ID)
	case !evaluation.ModuleType(e.ModuleType).Valid():
		return fmt.Errorf("%w: challenge %d has unknown module type %q", ErrInvalidCatalog, e.ID, e.ModuleType)
	case e.Level != models.LevelBeginner && e.Level != models.LevelIntermediate && e.Level != models.LevelAdvanced:
		return fmt.Errorf("%w: challenge %d has unknown level %q", ErrInvalidCatalog, e.ID, e.Level)
	case len(e.TestCases) > 0 && evaluation.ModuleType(e.ModuleType) != evaluation.ModuleCode:
		return fmt.Errorf("%w: challenge %d declares test cases but is not a code challenge", ErrInvalidCatalog, e.ID)
	}
	return nil
}

// Model converts the entry into its database row.
func (e Entry) Model() (models.Challenge, error) {
	cases, err := models.EncodeTestCases(e.TestCases)
	if err != nil {
		return models.Challenge{}, err
	}
	return models.Challenge{
		ID:                e.ID,
		Title:             e.Title,
		Description:       e.Description,
		Level:             e.Level,
		ModuleType:        e.ModuleType,
		ImageURL:          e.ImageURL,
		ExpectedOutput:    e.ExpectedOutput,
		Hint:              e.Hint,
		TeachingObjective: e.TeachingObjective,
		SamplePrompt:      e.SamplePrompt,
		Entrypoint:        e.Entrypoint,
		TestCases:         cases,
	}, nil
}

// Evaluation converts the entry into the engine's challenge view.
func (e Entry) Evaluation() evaluation.Challenge {
	return evaluation.Challenge{
		ID:             e.ID,
		ExpectedOutput: e.ExpectedOutput,
		ModuleType:     evaluation.ParseModuleType(e.ModuleType),
		Hint:           e.Hint,
		SamplePrompt:   e.SamplePrompt,
		Entrypoint:     e.Entrypoint,
		TestCases:      e.TestCases,
	}
}

// Find returns the entry with the given id.
func Find(entries []Entry, id uint) (Entry, bool) {
	idx := sort.Search(len(entries), func(i int) bool { return entries[i].ID >= id })
	if idx < len(entries) && entries[idx].ID == id {
		return entries[idx], true
	}
	return Entry{}, false
}
