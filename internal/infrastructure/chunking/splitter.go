// Package chunking splits extracted page text into paragraph-level
// fragments, the unit the retrieval engine indexes and returns.
package chunking

import (
	"regexp"
	"strings"
)

var (
	blankLine   = regexp.MustCompile(`\n\s*\n`)
	whitespace  = regexp.MustCompile(`\s+`)
	hyphenBreak = regexp.MustCompile(`-\s+`)
)

// Splitter turns page text into cleaned paragraph fragments.
type Splitter struct {
	minWords int
}

// NewSplitter creates a splitter that drops fragments with minWords words or
// fewer. Short fragments are headings and page furniture with no standalone
// meaning.
func NewSplitter(minWords int) *Splitter {
	if minWords < 0 {
		minWords = 0
	}
	return &Splitter{minWords: minWords}
}

// Paragraphs splits one page's text on blank lines, collapses internal
// whitespace, rejoins words hyphenated across line breaks, and filters out
// fragments at or below the word floor.
func (s *Splitter) Paragraphs(pageText string) []string {
	var out []string
	for _, block := range blankLine.Split(pageText, -1) {
		cleaned := whitespace.ReplaceAllString(strings.TrimSpace(block), " ")
		if cleaned == "" {
			continue
		}
		cleaned = hyphenBreak.ReplaceAllString(cleaned, "")
		if len(strings.Fields(cleaned)) <= s.minWords {
			continue
		}
		out = append(out, cleaned)
	}
	return out
}
