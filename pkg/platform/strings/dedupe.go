// Package strings holds small helpers for identifier lists.
package strings

import (
	"slices"
	"strings"
)

// SortedSet trims each value, drops empties and duplicates, and returns the
// rest in ascending order. A nil or empty input yields an empty, non-nil slice.
//
//	SortedSet([]string{" moderator", "admin", "moderator", ""})
//	// []string{"admin", "moderator"}
func SortedSet(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
