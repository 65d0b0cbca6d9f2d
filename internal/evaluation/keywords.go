package evaluation

import "strings"

// ContainsAny reports whether text contains any of the keywords, ignoring case.
// Keywords are matched as substrings, so "list" also matches "listing".
func ContainsAny(text string, keywords []string) bool {
	if text == "" || len(keywords) == 0 {
		return false
	}
	lowered := strings.ToLower(text)
	for _, keyword := range keywords {
		if keyword == "" {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}

// WordCount counts whitespace separated words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// Words returns the lowercased whitespace separated words of text.
func Words(text string) []string {
	fields := strings.Fields(text)
	for i, field := range fields {
		fields[i] = strings.ToLower(field)
	}
	return fields
}
