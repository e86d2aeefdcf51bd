// Package utils provides small, generic helpers shared across layers.
package utils

import "strconv"

// AtoiDefault converts s to an int, falling back to def when s is empty
// or not a valid integer.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}
