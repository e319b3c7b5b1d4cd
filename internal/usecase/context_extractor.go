package usecase

import (
	"strings"
	"unicode/utf8"
)

const (
	// DefaultContextWords is the window parameter used when none is given
	DefaultContextWords = 10
	// MaxContexts caps the number of snippets per product
	MaxContexts = 3

	ellipsis = "..."
)

// ExtractContext returns up to MaxContexts snippets of normalized text
// around whole-word mentions of productName, in document order.
//
// Each snippet spans contextWords*10 characters before the mention and
// after it, clipped to the text. A clipped side is marked with "...".
// A zero window yields the mention alone; a negative one uses
// DefaultContextWords.
// NOTE: the window is measured in characters, not words, for compatibility
// with existing consumers.
func ExtractContext(text, productName string, contextWords int) []string {
	if contextWords < 0 {
		contextWords = DefaultContextWords
	}

	normalized := Normalize(text)
	name := Normalize(productName)
	if normalized == "" || name == "" {
		return []string{}
	}

	mention := PhraseVariant{Kind: VariantExact, Parts: []string{name}}
	spans := mention.Spans(normalized, MaxContexts)
	if len(spans) == 0 {
		return []string{}
	}

	runes := []rune(normalized)
	window := contextWords * 10
	contexts := make([]string, 0, len(spans))

	for _, span := range spans {
		// Byte offsets to rune offsets so the window counts characters
		matchStart := utf8.RuneCountInString(normalized[:span[0]])
		matchEnd := matchStart + utf8.RuneCountInString(normalized[span[0]:span[1]])

		start := max(0, matchStart-window)
		end := min(len(runes), matchEnd+window)

		var b strings.Builder
		if start > 0 {
			b.WriteString(ellipsis)
		}
		b.WriteString(string(runes[start:end]))
		if end < len(runes) {
			b.WriteString(ellipsis)
		}
		contexts = append(contexts, b.String())
	}

	return contexts
}
