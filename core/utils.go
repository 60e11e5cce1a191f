package core

import (
	"strings"
	"time"
)

// CleanString trims surrounding whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// SchoolYear returns the school year the given time falls in. School years
// start in March; January and February still belong to the previous one.
func SchoolYear(t time.Time) int {
	if t.Month() < time.March {
		return t.Year() - 1
	}
	return t.Year()
}
