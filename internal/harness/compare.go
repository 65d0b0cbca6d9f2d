package harness

import (
	"encoding/json"
	"reflect"
	"strings"
	"unicode"
)

// Matches reports whether the produced output satisfies the expected value.
// Values match when their trimmed text is equal, when both decode to the same
// JSON value, when one is the JSON encoding of the other string, or when they
// are equal once all whitespace is removed.
func Matches(actual, expected string) bool {
	a := strings.TrimSpace(actual)
	e := strings.TrimSpace(expected)
	if a == e {
		return true
	}

	av, aErr := decodeJSON(a)
	ev, eErr := decodeJSON(e)
	if aErr == nil && eErr == nil && reflect.DeepEqual(av, ev) {
		return true
	}
	if s, ok := av.(string); ok && aErr == nil && strings.TrimSpace(s) == e {
		return true
	}
	if s, ok := ev.(string); ok && eErr == nil && strings.TrimSpace(s) == a {
		return true
	}

	return stripSpace(a) == stripSpace(e)
}

func decodeJSON(text string) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, err
	}
	return v, nil
}

func stripSpace(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if !unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
