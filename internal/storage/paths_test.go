package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyLayout(t *testing.T) {
	assert.Equal(t, "textbooks/suugaku-1/", TextbookPrefix("suugaku-1"))
	assert.Equal(t, "textbooks/suugaku-1/unit-3/", UnitImagePrefix("suugaku-1", 3))
	assert.Equal(t, "textbooks/suugaku-1/unit-3/q42/fig.png",
		QuestionImageKey("suugaku-1", 3, "q42", "fig.png"))
}

func TestKeySanitization(t *testing.T) {
	assert.Equal(t, "textbooks/a-b/", TextbookPrefix("a/b"))
	assert.Equal(t, "textbooks/s/unit-1/q1/--etc-passwd",
		QuestionImageKey("s", 1, "q1", "../etc/passwd"))
}
