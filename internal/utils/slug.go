package utils

import (
	"regexp"
	"strings"
)

const maxSlugLen = 96

var (
	slugReplacer = strings.NewReplacer("'", "", "&", " and ", "/", " ", " ", "-")
	nonSlugRun   = regexp.MustCompile(`[^a-z0-9]+`)
)

// Slugify lowercases input and collapses every run of non-alphanumerics into a
// single dash, so "AI & Data" becomes "ai-and-data".
func Slugify(input string) string {
	s := slugReplacer.Replace(strings.ToLower(strings.TrimSpace(input)))
	s = nonSlugRun.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// IsSlug reports whether s is already in the form Slugify produces.
func IsSlug(s string) bool {
	return s != "" && len(s) <= maxSlugLen && Slugify(s) == s
}
