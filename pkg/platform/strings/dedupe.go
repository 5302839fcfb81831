// Package strings provides string list helpers for configuration parsing.
package strings

import (
	"strings"
)

// SplitList splits a comma-separated value into trimmed, non-empty, unique
// elements. Order of first occurrence is preserved.
//
// Example:
//
//	SplitList(" SP1, SP2,,SP1 ")
//	// Returns: []string{"SP1", "SP2"}
func SplitList(raw string) []string {
	return DedupeAndTrim(strings.Split(raw, ","))
}

// DedupeAndTrim removes duplicates and empty strings from a slice, trimming
// whitespace from each element. Comparison is case-sensitive since
// principals are.
func DedupeAndTrim(values []string) []string {
	var result []string
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; !ok {
			seen[trimmed] = struct{}{}
			result = append(result, trimmed)
		}
	}
	return result
}
