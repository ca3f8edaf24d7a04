package commands

import (
	"strings"

	"golang.org/x/text/cases"
)

// Fold returns the case-folded form of s, used wherever names are matched
// without regard to case. A cases.Caser is not safe for concurrent use, so
// each call gets its own.
func Fold(s string) string {
	return cases.Fold().String(s)
}

// HasFoldedPrefix reports whether s starts with prefix, ignoring case.
func HasFoldedPrefix(s, prefix string) bool {
	return strings.HasPrefix(Fold(s), Fold(prefix))
}
