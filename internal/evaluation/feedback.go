package evaluation

import (
	"fmt"
	"strconv"
	"strings"
)

// FeedbackTier buckets a final score for feedback rendering.
type FeedbackTier string

const (
	TierExcellent      FeedbackTier = "excellent"
	TierGood           FeedbackTier = "good"
	TierFair           FeedbackTier = "fair"
	TierKeepPracticing FeedbackTier = "keep_practicing"
)

// TierFor maps a final score to its tier.
func TierFor(score float64) FeedbackTier {
	switch {
	case score >= 8:
		return TierExcellent
	case score >= 6:
		return TierGood
	case score >= 4:
		return TierFair
	default:
		return TierKeepPracticing
	}
}

// Headline returns the opening sentence used for the tier.
func (t FeedbackTier) Headline() string {
	switch t {
	case TierExcellent:
		return "Excellent work! Your prompt is well-structured and effective."
	case TierGood:
		return "Good job! Your prompt shows solid understanding."
	case TierFair:
		return "Fair attempt. There's room for improvement."
	default:
		return "Keep practicing! Let's work on improving your prompt."
	}
}

// RenderFeedback builds the human readable report for a result.
func RenderFeedback(final float64, rule int, similarity float64, backend SimilarityBackend, suggestions []string) string {
	var b strings.Builder

	b.WriteString(TierFor(final).Headline())
	b.WriteString("\n\nBreakdown:\n")
	fmt.Fprintf(&b, "- Prompt Structure Score: %d/10\n", rule)
	fmt.Fprintf(&b, "- %s Score: %s/10\n", similarityLabel(backend), formatScore(similarity))
	fmt.Fprintf(&b, "- Final Score: %s/10", formatScore(final))

	if len(suggestions) > 0 {
		b.WriteString("\n\nSuggestions for improvement:")
		for i, suggestion := range suggestions {
			fmt.Fprintf(&b, "\n%d. %s", i+1, suggestion)
		}
	}

	return b.String()
}

func similarityLabel(backend SimilarityBackend) string {
	if backend == BackendHarness {
		return "Test Pass Rate"
	}
	return "Output Quality"
}

func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64)
}
