package utils

import "strings"

// Truncate is a simple string truncate
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// Oneline collapses newlines so a poem excerpt fits on a single output line.
func Oneline(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
