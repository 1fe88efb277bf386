package search

import (
	"strings"
	"unicode/utf8"
)

// maxQueryLength is counted in characters, matching the request validators.
const maxQueryLength = 100

// PhraseQuery turns free text into a single quoted FTS5 phrase so that FTS5
// operators typed by a user (AND, NEAR, *, column filters) match literally.
func PhraseQuery(input string) string {
	input = strings.TrimSpace(input)
	if utf8.RuneCountInString(input) > maxQueryLength {
		input = string([]rune(input)[:maxQueryLength])
	}
	if input == "" {
		return ""
	}
	return `"` + strings.ReplaceAll(input, `"`, `""`) + `"`
}

// PrefixQuery is PhraseQuery with a trailing prefix wildcard, for typeahead.
func PrefixQuery(input string) string {
	phrase := PhraseQuery(input)
	if phrase == "" {
		return ""
	}
	return phrase + "*"
}
