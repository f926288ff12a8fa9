// Package utils holds small helpers shared by the HTTP and service layers.
package utils

import "strings"

// ParseCSV splits a comma-separated list, trimming each entry and dropping empty
// ones. It returns nil when nothing is left.
func ParseCSV(s string) []string {
	var result []string
	for _, v := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
