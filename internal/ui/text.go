package ui

import (
	"fmt"
	"strings"
)

// JoinOrNone joins items with ", " or returns "-" for an empty list.
func JoinOrNone(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}

// Pluralize returns singular if count is 1, otherwise plural.
func Pluralize(count int, singular, plural string) string {
	if count == 1 {
		return singular
	}
	return plural
}

// matchTitle heads the pickers: `"web" matches 2 devices`.
func matchTitle(query string, n int) string {
	return fmt.Sprintf("%q matches %d %s", query, n, Pluralize(n, "device", "devices"))
}
