package answer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("", ""))
	assert.Equal(t, 1.0, Similarity("tokyo", "tokyo"))
	assert.Equal(t, 0.0, Similarity("", "abc"))
	// one edit over three runes
	assert.InDelta(t, 2.0/3.0, Similarity("東京", "東京都"), 1e-9)
	// symmetric
	assert.Equal(t, Similarity("abcde", "abxde"), Similarity("abxde", "abcde"))
}

func TestEvaluate(t *testing.T) {
	cases := []struct {
		name       string
		submitted  string
		correct    string
		alternates []string
		wantOK     bool
		wantScore  float64
	}{
		{"case-insensitive exact", "Tokyo", "tokyo", nil, true, 1.0},
		{"reading annotation stripped", "東京（とうきょう）", "東京", nil, true, 1.0},
		{"both empty", "", "", nil, true, 1.0},
		{"near miss below threshold", "東京", "東京都", nil, false, 2.0 / 3.0},
		{"alternate accepted", "NYC", "New York", []string{"nyc"}, true, 1.0},
		{"one edit in five at threshold", "abcde", "abcdx", nil, true, 0.8},
		{"unrelated", "apple", "orange", nil, false, 1.0 / 6.0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, score := Evaluate(tc.submitted, tc.correct, tc.alternates)
			assert.Equal(t, tc.wantOK, ok)
			assert.InDelta(t, tc.wantScore, score, 1e-9)
		})
	}
}
