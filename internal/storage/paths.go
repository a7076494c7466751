package storage

import (
	"fmt"
	"path"
	"strings"
)

// Key prefixes follow the bucket layout the question images are uploaded under:
//
//	textbooks/<source>/          textbook-level assets
//	textbooks/<source>/unit-<n>/ per-unit question images
//
// Stores only deal in keys; the prefix convention is the single place that
// knows the folder structure.

func TextbookPrefix(source string) string {
	return path.Join("textbooks", sanitizeSegment(source)) + "/"
}

func UnitImagePrefix(source string, unitNumber int) string {
	return path.Join("textbooks", sanitizeSegment(source), fmt.Sprintf("unit-%d", unitNumber)) + "/"
}

func QuestionImageKey(source string, unitNumber int, questionID, filename string) string {
	return path.Join("textbooks", sanitizeSegment(source), fmt.Sprintf("unit-%d", unitNumber),
		sanitizeSegment(questionID), sanitizeSegment(filename))
}

// sanitizeSegment keeps keys flat: no separators or traversal inside a segment.
func sanitizeSegment(s string) string {
	s = strings.ReplaceAll(s, "/", "-")
	s = strings.ReplaceAll(s, "\\", "-")
	s = strings.ReplaceAll(s, "..", "-")
	return strings.TrimSpace(s)
}
