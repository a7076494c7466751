package answer

// Threshold is the similarity at or above which a near-match is accepted.
const Threshold = 0.8

// Similarity is 1 - dist/maxLen over normalized-length runes, clamped to [0,1].
// Two empty strings are identical by definition.
func Similarity(a, b string) float64 {
	la, lb := len([]rune(a)), len([]rune(b))
	maxLen := la
	if lb > maxLen {
		maxLen = lb
	}
	if maxLen == 0 {
		return 1.0
	}
	s := 1.0 - float64(Levenshtein(a, b))/float64(maxLen)
	if s < 0 {
		return 0
	}
	return s
}

// Evaluate decides whether a free-text submission matches the correct answer or
// any accepted alternate. Exact normalized equality wins outright; otherwise the
// similarity against the canonical answer decides. Pure function, never errors.
func Evaluate(submitted, correct string, alternates []string) (bool, float64) {
	sub := Normalize(submitted)
	want := Normalize(correct)

	if sub == want {
		return true, 1.0
	}
	for _, alt := range alternates {
		if sub == Normalize(alt) {
			return true, 1.0
		}
	}
	score := Similarity(sub, want)
	return score >= Threshold, score
}
