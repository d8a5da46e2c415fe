package usecase

import (
	"strings"
	"unicode"
)

// sanitizeLexicalQuery strips every rune that is not a word character or
// whitespace before the text reaches the lexical engine. This removes the
// characters the FTS query syntax treats as operators, so user input can
// never reach the engine as syntax; the store additionally binds the result
// as a query parameter. Stripping operator punctuation is a deliberate
// policy, kept for parity with how the corpus was indexed.
func sanitizeLexicalQuery(query string) string {
	var b strings.Builder
	b.Grow(len(query))
	for _, r := range query {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
