package usecase

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Package-level compiled regex patterns for performance
var (
	specialCharsRegex   = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
	multipleSpacesRegex = regexp.MustCompile(`\s+`)
)

// Normalize canonicalizes text for matching: lower-case, every rune that is
// not a letter, digit or whitespace becomes a space, whitespace runs collapse
// to a single space, and the result is trimmed.
//
// Input is NFC-composed first so a decomposed "e" + U+0301 stays one letter.
// Normalize(Normalize(s)) == Normalize(s) for every s.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	result := strings.ToLower(norm.NFC.String(text))
	result = specialCharsRegex.ReplaceAllString(result, " ")
	result = multipleSpacesRegex.ReplaceAllString(result, " ")
	return strings.TrimSpace(result)
}
