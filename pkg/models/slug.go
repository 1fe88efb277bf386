package models

import (
	"regexp"
	"strings"
)

var nonSlugRE = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// GenerateSlug lowercases s and collapses every run of characters that aren't
// ASCII letters or digits into a single hyphen.
func GenerateSlug(s string) string {
	s = nonSlugRE.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	return strings.ToLower(s)
}

// NormalizeISBN strips hyphens and surrounding whitespace. Empty input yields
// nil.
func NormalizeISBN(isbn string) *string {
	isbn = strings.TrimSpace(strings.ReplaceAll(isbn, "-", ""))
	if isbn == "" {
		return nil
	}
	return &isbn
}
