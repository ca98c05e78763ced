package domain

import (
	"strings"

	"golang.org/x/text/cases"
)

// Fold normalizes a string for case-insensitive comparison.
// Trims surrounding whitespace and applies Unicode case folding, so owner
// and username matching behaves for non-ASCII names too.
func Fold(s string) string {
	// cases.Caser is stateful, so build one per call rather than sharing.
	return cases.Fold().String(strings.TrimSpace(s))
}

// FoldEqual reports whether two strings are equal under Fold.
func FoldEqual(a, b string) bool {
	return Fold(a) == Fold(b)
}
