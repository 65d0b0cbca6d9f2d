package evaluation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContainsAnyIsCaseInsensitive(t *testing.T) {
	require.True(t, ContainsAny("Act As a pirate", []string{"act as"}))
	require.True(t, ContainsAny("Return JSON", []string{"json"}))
	require.False(t, ContainsAny("", []string{"json"}))
	require.False(t, ContainsAny("plain text", nil))
}

func TestWordCountSplitsOnWhitespaceRuns(t *testing.T) {
	require.Equal(t, 0, WordCount("   "))
	require.Equal(t, 3, WordCount("one  two\tthree\n"))
	require.Equal(t, []string{"hello,", "world"}, Words("Hello,   WORLD"))
}

func TestRuleScorerFullMarks(t *testing.T) {
	scorer := NewRuleScorer(DefaultRuleConfig())

	result := scorer.Score("You are a chef. Write a list of 5 dinner recipes for beginners, keep it under 100 words.")
	require.Equal(t, 10, result.Score)
	require.Equal(t, SignalOrder, result.Satisfied)
	require.Empty(t, result.Missing)
	require.Empty(t, result.Suggestions)
}

func TestRuleScorerEmptyPrompt(t *testing.T) {
	scorer := NewRuleScorer(DefaultRuleConfig())

	result := scorer.Score("")
	require.Equal(t, 0, result.Score)
	require.Empty(t, result.Satisfied)
	require.Equal(t, SignalOrder, result.Missing)
	require.Len(t, result.Suggestions, 5)
	require.Contains(t, result.Suggestions[0], "role")
	require.Contains(t, result.Suggestions[1], "format")
	require.Contains(t, result.Suggestions[3], "10 words")
	require.Contains(t, result.Suggestions[4], "audience")
}

func TestRuleScorerShortPrompt(t *testing.T) {
	scorer := NewRuleScorer(DefaultRuleConfig())

	result := scorer.Score("write something")
	require.Equal(t, 0, result.Score)
	require.Len(t, result.Suggestions, 5)
}

func TestRuleScorerScoreIsEvenAndBounded(t *testing.T) {
	scorer := NewRuleScorer(DefaultRuleConfig())
	prompts := []string{
		"",
		"json",
		"Act as a tutor",
		"Act as a tutor and reply in a table",
		"Explain recursion for beginners in under 50 words using a numbered list please, you are a teacher",
		"Context: onboarding. Persona: support agent. Format: email. Tone: formal. Describe the refund policy to new customers in detail.",
	}

	for _, prompt := range prompts {
		result := scorer.Score(prompt)
		require.GreaterOrEqual(t, result.Score, 0)
		require.LessOrEqual(t, result.Score, 10)
		require.Zero(t, result.Score%2, prompt)
		require.Equal(t, PointsPerSignal*len(result.Satisfied), result.Score)
		require.Len(t, result.Missing, len(SignalOrder)-len(result.Satisfied))
		require.Len(t, result.Suggestions, len(result.Missing))
	}
}

func TestRuleScorerTaskClarityActionVerb(t *testing.T) {
	prompt := "my grandmother once had a garden with roses tulips and daisies"

	relaxed := NewRuleScorer(RuleConfig{MinTaskWords: 10})
	require.True(t, relaxed.Score(prompt).Has(SignalTaskClarity))

	strict := NewRuleScorer(RuleConfig{MinTaskWords: 10, RequireActionVerb: true})
	require.False(t, strict.Score(prompt).Has(SignalTaskClarity))
	require.True(t, strict.Score(prompt+"?").Has(SignalTaskClarity))
	require.True(t, strict.Score("describe "+prompt).Has(SignalTaskClarity))
}

func TestNewRuleScorerAppliesDefaults(t *testing.T) {
	scorer := NewRuleScorer(RuleConfig{})
	require.Equal(t, 10, scorer.Config().MinTaskWords)
	require.False(t, scorer.Config().RequireActionVerb)
}
