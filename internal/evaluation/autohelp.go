package evaluation

import "strings"

// DefaultLowScoreThreshold is the final score below which auto-help is attached.
const DefaultLowScoreThreshold = 4.0

const genericMissingElement = "Compare your output with the challenge goal and make the prompt more specific about what you expect"

var sampleTemplates = map[ModuleType]string{
	ModuleImage: "You are a professional digital artist. Create a highly detailed image of [describe scene]. " +
		"The style should be [style]. Include [specific elements]. The lighting should be [lighting type]. The mood is [mood].",
	ModuleCode: "You are an expert Python developer. Write a clean, well-documented function called [name] that [does what]. " +
		"It should accept [parameters] and return [return type]. Handle edge cases like [cases]. Include type hints and a docstring.",
	ModuleScript: "You are a [role] with expertise in [domain]. Write a [format] about [topic] for [audience]. " +
		"The tone should be [tone]. Include [sections/elements]. Keep it [length constraint].",
}

// SampleTemplate returns the example prompt for a module type, defaulting to
// the script template.
func SampleTemplate(module ModuleType) string {
	if tpl, ok := sampleTemplates[module]; ok {
		return tpl
	}
	return sampleTemplates[ModuleScript]
}

// BuildAutoHelp lists what the prompt is missing and pairs it with an example
// prompt. A non-empty challengeSample replaces the generic template.
func BuildAutoHelp(rules *RuleScorer, prompt string, module ModuleType, challengeSample string) AutoHelp {
	missing := rules.Score(prompt).Suggestions
	if len(missing) == 0 {
		missing = []string{genericMissingElement}
	}

	sample := strings.TrimSpace(challengeSample)
	if sample == "" {
		sample = SampleTemplate(module)
	}

	return AutoHelp{MissingElements: missing, SamplePrompt: sample}
}
