package answer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGraderFreeText(t *testing.T) {
	g := NewGrader()

	v := g.Grade(Key{Type: "free_text", Answer: "tokyo"}, "Tokyo")
	assert.True(t, v.Correct)
	assert.Equal(t, "exact", v.Method)

	v = g.Grade(Key{Type: "free_text", Answer: "New York", Alternates: []string{"NYC"}}, "nyc")
	assert.True(t, v.Correct)
	assert.Equal(t, "alternate", v.Method)

	v = g.Grade(Key{Type: "free_text", Answer: "abcde"}, "abcdx")
	assert.True(t, v.Correct)
	assert.Equal(t, "fuzzy", v.Method)
	assert.InDelta(t, 0.8, v.Score, 1e-9)

	v = g.Grade(Key{Type: "free_text", Answer: "東京都"}, "東京")
	assert.False(t, v.Correct)
	assert.Equal(t, "none", v.Method)
}

func TestGraderUnknownTypeFallsBackToFreeText(t *testing.T) {
	g := NewGrader()
	v := g.Grade(Key{Type: "essay", Answer: "hello"}, "HELLO")
	assert.True(t, v.Correct)
	assert.Equal(t, "exact", v.Method)
}

func TestGraderChoiceRejectsNearMiss(t *testing.T) {
	g := NewGrader()

	v := g.Grade(Key{Type: "choice", Answer: "ammonia"}, "Ammonia")
	assert.True(t, v.Correct)

	// a one-letter miss on a choice label is a different option, never fuzzy
	v = g.Grade(Key{Type: "choice", Answer: "ammonia"}, "ammonib")
	assert.False(t, v.Correct)

	v = g.Grade(Key{Type: "choice", Answer: "a"}, "")
	assert.False(t, v.Correct)
}

func TestGraderNumeric(t *testing.T) {
	g := NewGrader()

	assert.True(t, g.Grade(Key{Type: "numeric", Answer: "3"}, "3.0").Correct)
	assert.True(t, g.Grade(Key{Type: "numeric", Answer: "2.5"}, " 2.5 ").Correct)
	assert.False(t, g.Grade(Key{Type: "numeric", Answer: "3"}, "3.01").Correct)
	assert.True(t, g.Grade(Key{Type: "numeric", Answer: "3", Alternates: []string{"tol=0.05"}}, "3.01").Correct)
	assert.False(t, g.Grade(Key{Type: "numeric", Answer: "3"}, "three").Correct)
}

func TestGraderThresholdOverride(t *testing.T) {
	g := NewGrader(WithThreshold(0.5))
	v := g.Grade(Key{Type: "free_text", Answer: "東京都"}, "東京")
	assert.True(t, v.Correct)
	assert.Equal(t, "fuzzy", v.Method)
}
