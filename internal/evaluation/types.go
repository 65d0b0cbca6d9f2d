// Package evaluation scores learner prompts. A prompt is checked for five
// structural signals, the output it produced is compared with the challenge's
// expected output, and both are combined into a single 0-10 score with
// feedback and, for weak submissions, auto-help.
package evaluation

import (
	"strings"
	"time"

	"github.com/noah-isme/promptarena-go-api/internal/harness"
)

// MaxScore is the upper bound of every score produced by the engine.
const MaxScore = 10.0

// ModuleType identifies the kind of challenge a prompt targets.
type ModuleType string

const (
	ModuleImage  ModuleType = "image"
	ModuleScript ModuleType = "script"
	ModuleCode   ModuleType = "code"
)

// ParseModuleType normalises a module name. Unknown values become script.
func ParseModuleType(value string) ModuleType {
	switch ModuleType(strings.ToLower(strings.TrimSpace(value))) {
	case ModuleImage:
		return ModuleImage
	case ModuleCode:
		return ModuleCode
	default:
		return ModuleScript
	}
}

// Valid reports whether m is one of the known module types.
func (m ModuleType) Valid() bool {
	return m == ModuleImage || m == ModuleScript || m == ModuleCode
}

// Challenge is the read-only view of a catalog entry the engine needs.
type Challenge struct {
	ID             uint
	ExpectedOutput string
	ModuleType     ModuleType
	Hint           string
	SamplePrompt   string
	Entrypoint     string
	TestCases      []harness.TestCase
}

// Request is a single evaluation input.
type Request struct {
	Prompt          string
	GeneratedOutput string
	GeneratedCode   string
	Challenge       Challenge
}

// AutoHelp is extra guidance attached to low scoring submissions.
type AutoHelp struct {
	MissingElements []string `json:"missing_elements"`
	SamplePrompt    string   `json:"sample_prompt"`
}

// Result is the outcome of an evaluation.
type Result struct {
	FinalScore        float64
	RuleScore         int
	SimilarityScore   float64
	Tier              FeedbackTier
	SimilarityBackend SimilarityBackend
	Feedback          string
	Suggestions       []string
	Satisfied         []SignalKind
	Missing           []SignalKind
	AutoHelp          *AutoHelp
	CodeReport        *harness.Report
	Duration          time.Duration
}
