package evaluation

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "is": {}, "are": {}, "was": {}, "were": {},
	"in": {}, "on": {}, "at": {}, "to": {}, "for": {}, "of": {}, "with": {},
	"and": {}, "or": {}, "but": {}, "not": {}, "this": {}, "that": {}, "it": {},
	"be": {}, "as": {}, "by": {},
}

// IsStopWord reports whether the lowercased word is ignored by lexical scoring.
func IsStopWord(word string) bool {
	_, ok := stopWords[word]
	return ok
}

// JaccardScore returns 10 * |A∩B| / |A∪B| over the lowercased word sets of a
// and b. With excludeStopWords, stop words are dropped first unless that
// leaves either side empty, in which case the raw sets are used.
func JaccardScore(a, b string, excludeStopWords bool) float64 {
	setA := wordSet(a, false)
	setB := wordSet(b, false)

	if excludeStopWords {
		filteredA := wordSet(a, true)
		filteredB := wordSet(b, true)
		if len(filteredA) > 0 && len(filteredB) > 0 {
			setA, setB = filteredA, filteredB
		}
	}

	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for word := range setA {
		if _, ok := setB[word]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection

	return clampScore(MaxScore * float64(intersection) / float64(union))
}

func wordSet(text string, excludeStopWords bool) map[string]struct{} {
	words := Words(text)
	set := make(map[string]struct{}, len(words))
	for _, word := range words {
		if excludeStopWords && IsStopWord(word) {
			continue
		}
		set[word] = struct{}{}
	}
	return set
}
