package usecase

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// VariantKind names the spelling a PhraseVariant tolerates
type VariantKind int

const (
	// VariantExact matches the term as written, internal single spaces included
	VariantExact VariantKind = iota
	// VariantConcatenated matches the phrase with its whitespace removed ("aguamineral")
	VariantConcatenated
	// VariantFlexible matches the phrase words separated by any run of whitespace
	VariantFlexible
)

// PhraseVariant is one candidate spelling of a keyword.
// Parts are literal segments; a flexible variant requires one or more
// whitespace runes between consecutive parts.
type PhraseVariant struct {
	Kind  VariantKind
	Parts []string
}

// PhraseVariants returns the candidate spellings for a term.
// Single words yield one exact variant; phrases yield exact, concatenated
// and flexible variants. A blank term yields nil.
func PhraseVariants(term string) []PhraseVariant {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil
	}

	words := strings.Fields(term)
	if len(words) == 1 {
		return []PhraseVariant{{Kind: VariantExact, Parts: []string{term}}}
	}

	return []PhraseVariant{
		{Kind: VariantExact, Parts: []string{term}},
		{Kind: VariantConcatenated, Parts: []string{strings.Join(words, "")}},
		{Kind: VariantFlexible, Parts: words},
	}
}

// Count returns the number of non-overlapping, word-boundary delimited
// occurrences of the variant in text, scanning left to right.
func (v PhraseVariant) Count(text string) int {
	return len(v.Spans(text, -1))
}

// In reports whether the variant occurs at least once in text
func (v PhraseVariant) In(text string) bool {
	return len(v.Spans(text, 1)) > 0
}

// Spans returns the byte offsets [start, end) of the first limit
// non-overlapping matches; limit < 0 returns all of them.
func (v PhraseVariant) Spans(text string, limit int) [][2]int {
	if len(v.Parts) == 0 || v.Parts[0] == "" || limit == 0 {
		return nil
	}

	first := v.Parts[0]
	var spans [][2]int
	pos := 0
	for pos < len(text) {
		idx := strings.Index(text[pos:], first)
		if idx < 0 {
			break
		}
		start := pos + idx

		if end, ok := v.matchAt(text, start); ok && isBoundary(text, start) && isBoundary(text, end) {
			spans = append(spans, [2]int{start, end})
			if limit > 0 && len(spans) == limit {
				break
			}
			pos = end
			continue
		}

		// Retry one rune further on
		_, size := utf8.DecodeRuneInString(text[start:])
		pos = start + size
	}
	return spans
}

// matchAt tries to match every part starting at byte offset start and
// returns the end offset of the match.
func (v PhraseVariant) matchAt(text string, start int) (int, bool) {
	pos := start
	for i, part := range v.Parts {
		if i > 0 {
			ws := 0
			for pos < len(text) {
				r, size := utf8.DecodeRuneInString(text[pos:])
				if !unicode.IsSpace(r) {
					break
				}
				pos += size
				ws++
			}
			if ws == 0 {
				return 0, false
			}
		}
		if !strings.HasPrefix(text[pos:], part) {
			return 0, false
		}
		pos += len(part)
	}
	return pos, true
}

// isBoundary reports a word boundary at byte offset pos: exactly one of the
// runes on either side is a word rune.
func isBoundary(text string, pos int) bool {
	before, after := false, false
	if pos > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:pos])
		before = isWordRune(r)
	}
	if pos < len(text) {
		r, _ := utf8.DecodeRuneInString(text[pos:])
		after = isWordRune(r)
	}
	return before != after
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

// CountTerm counts one term. Phrases take the maximum across their variants
// so one mention is never counted once per spelling.
func CountTerm(normalizedText, term string) int {
	best := 0
	for _, variant := range PhraseVariants(term) {
		if n := variant.Count(normalizedText); n > best {
			best = n
		}
	}
	return best
}

// ContainsTerm reports whether any variant of term occurs in normalizedText
func ContainsTerm(normalizedText, term string) bool {
	for _, variant := range PhraseVariants(term) {
		if variant.In(normalizedText) {
			return true
		}
	}
	return false
}

// CountOccurrences sums CountTerm over every term in the list.
// Blank terms are skipped; duplicates are counted each time they appear.
func CountOccurrences(normalizedText string, terms []string) int {
	total := 0
	for _, term := range terms {
		total += CountTerm(normalizedText, term)
	}
	return total
}

// ParseKeywords splits a comma-separated keyword list into trimmed,
// lower-cased terms, dropping empty entries.
func ParseKeywords(raw string) []string {
	var terms []string
	for _, part := range strings.Split(raw, ",") {
		term := strings.ToLower(strings.TrimSpace(part))
		if term != "" {
			terms = append(terms, term)
		}
	}
	return terms
}
