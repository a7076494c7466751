package answer

import (
	"regexp"
	"strings"
)

var (
	spaceRun = regexp.MustCompile(`\s+`)
	// Full-width period/comma variants common in Japanese answer text.
	fwPunct = regexp.MustCompile(`[、。，．]`)
	// Parenthesized annotations (furigana readings etc.), half- or full-width.
	// Non-greedy and non-recursive: nested parentheses are not handled.
	parenthetical = regexp.MustCompile(`[（(].*?[）)]`)
)

// Normalize reduces an answer to its comparable form: lower-cased, whitespace
// collapsed, full-width punctuation removed, parenthesized content stripped.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	out := strings.ToLower(s)
	out = parenthetical.ReplaceAllString(out, "")
	out = fwPunct.ReplaceAllString(out, "")
	out = spaceRun.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}
