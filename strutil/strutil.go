// Package strutil holds small string helpers shared by the config, report
// and viewer packages.
package strutil

import "strings"

// NormalizeLower trims surrounding whitespace and converts to lower case.
// Use for mode names and search queries where case is not significant.
func NormalizeLower(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// TruncateRunes cuts s to at most width runes. A width of zero or less
// leaves s untouched.
func TruncateRunes(s string, width int) string {
	if width <= 0 {
		return s
	}
	n := 0
	for i := range s {
		if n == width {
			return s[:i]
		}
		n++
	}
	return s
}
