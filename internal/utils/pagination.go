// Package utils holds tiny helpers with no domain knowledge.
package utils

import "strconv"

// AtoiDefault parses query parameters like page, page_size and limit,
// returning def when the value is empty or not a plain integer. Input is
// not trimmed; " 42" is rejected like any other malformed value.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}
