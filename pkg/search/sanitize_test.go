package search

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestPhraseQuery(t *testing.T) {
	assert.Equal(t, `"overlord"`, PhraseQuery("  overlord "))
	assert.Equal(t, `"a ""quoted"" title"`, PhraseQuery(`a "quoted" title`))
	assert.Equal(t, `"NOT AND OR"`, PhraseQuery("NOT AND OR"))
	assert.Equal(t, "", PhraseQuery("   "))

	long := strings.Repeat("x", 150)
	assert.Len(t, PhraseQuery(long), maxQueryLength+2)

	// truncation counts characters and never splits one
	accented := PhraseQuery(strings.Repeat("a", 99) + "é")
	assert.True(t, utf8.ValidString(accented))
	assert.Equal(t, `"`+strings.Repeat("a", 99)+`é"`, accented)

	title := strings.Repeat("本好きの下剋上", 20)
	phrase := PhraseQuery(title)
	assert.True(t, utf8.ValidString(phrase))
	assert.Equal(t, maxQueryLength+2, utf8.RuneCountInString(phrase))
	assert.Equal(t, `"`+string([]rune(title)[:maxQueryLength])+`"`, phrase)
}

func TestPrefixQuery(t *testing.T) {
	assert.Equal(t, `"sword art"*`, PrefixQuery("sword art"))
	assert.Equal(t, "", PrefixQuery(""))
}
