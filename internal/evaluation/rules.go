package evaluation

import (
	"fmt"
	"strings"
)

// KeywordSetVersion identifies the canonical keyword lists below. Bump it
// whenever a list changes so stored scores can be compared meaningfully.
const KeywordSetVersion = "2025-01"

// PointsPerSignal is awarded for every satisfied signal.
const PointsPerSignal = 2

// SignalKind is one of the structural markers a good prompt carries.
type SignalKind string

const (
	SignalRole        SignalKind = "role"
	SignalFormat      SignalKind = "format"
	SignalConstraints SignalKind = "constraints"
	SignalTaskClarity SignalKind = "task_clarity"
	SignalAudience    SignalKind = "audience"
)

// SignalOrder is the order signals are evaluated and suggestions emitted in.
var SignalOrder = []SignalKind{
	SignalRole,
	SignalFormat,
	SignalConstraints,
	SignalTaskClarity,
	SignalAudience,
}

var (
	roleKeywords = []string{
		"act as", "you are", "as a", "as an", "role:", "persona:", "you will be",
		"imagine you", "pretend", "assume you are", "behave as",
	}

	formatKeywords = []string{
		"format:", "output:", "write as", "write in", "in the form of", "structure:",
		"json", "list", "bullet points", "table", "paragraph", "markdown",
		"step by step", "numbered", "essay", "email",
	}

	constraintKeywords = []string{
		"length:", "words", "characters", "sentences", "tone:", "style:",
		"formal", "informal", "casual", "professional", "brief", "concise",
		"detailed", "maximum", "minimum", "at least", "no more than", "keep it",
		"under", "within", "exactly", "limit",
	}

	audienceKeywords = []string{
		"audience:", "for beginners", "for students", "for experts", "for professionals",
		"for developers", "for children", "targeted at", "context:", "background:",
		"scenario:", "situation:", "beginners", "experts", "students", "professionals",
		"developers", "children", "customers", "readers",
	}

	actionVerbs = []string{
		"create", "write", "generate", "describe", "explain", "make", "list",
		"summarize", "draft", "design", "build", "compose", "analyze",
	}
)

// RuleConfig tunes the task clarity signal.
type RuleConfig struct {
	MinTaskWords      int
	RequireActionVerb bool
}

// DefaultRuleConfig returns the canonical rule settings.
func DefaultRuleConfig() RuleConfig {
	return RuleConfig{MinTaskWords: 10}
}

// RuleScoreResult holds the outcome of rule scoring. Score is always
// PointsPerSignal times the number of satisfied signals.
type RuleScoreResult struct {
	Score       int          `json:"score"`
	Satisfied   []SignalKind `json:"satisfied"`
	Missing     []SignalKind `json:"missing"`
	Suggestions []string     `json:"suggestions"`
}

// Has reports whether the signal was detected.
func (r RuleScoreResult) Has(kind SignalKind) bool {
	for _, s := range r.Satisfied {
		if s == kind {
			return true
		}
	}
	return false
}

// RuleScorer detects prompt signals with keyword heuristics.
type RuleScorer struct {
	cfg RuleConfig
}

// NewRuleScorer builds a scorer, filling unset values from DefaultRuleConfig.
func NewRuleScorer(cfg RuleConfig) *RuleScorer {
	if cfg.MinTaskWords <= 0 {
		cfg.MinTaskWords = DefaultRuleConfig().MinTaskWords
	}
	return &RuleScorer{cfg: cfg}
}

// Config returns the effective configuration.
func (s *RuleScorer) Config() RuleConfig {
	return s.cfg
}

// Score inspects the prompt for every signal. It never fails.
func (s *RuleScorer) Score(prompt string) RuleScoreResult {
	result := RuleScoreResult{
		Satisfied:   make([]SignalKind, 0, len(SignalOrder)),
		Missing:     make([]SignalKind, 0, len(SignalOrder)),
		Suggestions: make([]string, 0, len(SignalOrder)),
	}

	for _, kind := range SignalOrder {
		if s.detect(kind, prompt) {
			result.Satisfied = append(result.Satisfied, kind)
			continue
		}
		result.Missing = append(result.Missing, kind)
		result.Suggestions = append(result.Suggestions, s.suggestion(kind))
	}

	result.Score = len(result.Satisfied) * PointsPerSignal
	if result.Score > int(MaxScore) {
		result.Score = int(MaxScore)
	}
	return result
}

func (s *RuleScorer) detect(kind SignalKind, prompt string) bool {
	switch kind {
	case SignalRole:
		return ContainsAny(prompt, roleKeywords)
	case SignalFormat:
		return ContainsAny(prompt, formatKeywords)
	case SignalConstraints:
		return ContainsAny(prompt, constraintKeywords)
	case SignalTaskClarity:
		return s.clearTask(prompt)
	case SignalAudience:
		return ContainsAny(prompt, audienceKeywords)
	default:
		return false
	}
}

func (s *RuleScorer) clearTask(prompt string) bool {
	if WordCount(prompt) < s.cfg.MinTaskWords {
		return false
	}
	if !s.cfg.RequireActionVerb {
		return true
	}
	return strings.Contains(prompt, "?") || ContainsAny(prompt, actionVerbs)
}

func (s *RuleScorer) suggestion(kind SignalKind) string {
	switch kind {
	case SignalRole:
		return "Assign a role to the model (e.g. 'Act as a travel guide' or 'You are a professional photographer')"
	case SignalFormat:
		return "Specify the desired output format (e.g. 'Format: bullet points' or 'Write as a numbered list')"
	case SignalConstraints:
		return "Add constraints on length or tone (e.g. 'Keep it under 200 words' or 'Tone: professional')"
	case SignalTaskClarity:
		if s.cfg.RequireActionVerb {
			return fmt.Sprintf("Describe the task clearly with an action verb such as 'write' or 'explain' (aim for at least %d words)", s.cfg.MinTaskWords)
		}
		return fmt.Sprintf("Describe the task more clearly with more detail (aim for at least %d words)", s.cfg.MinTaskWords)
	case SignalAudience:
		return "Mention the target audience or context (e.g. 'for beginner developers' or 'Context: business meeting')"
	default:
		return ""
	}
}
