package textutil

import (
	"strings"
	"unicode"
)

// NormalizeSpace trims text and collapses internal whitespace runs to a single space.
func NormalizeSpace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Fold lower-cases text and collapses whitespace, producing a comparison key.
func Fold(text string) string {
	return strings.ToLower(NormalizeSpace(text))
}

// SameText reports whether a and b are equal ignoring case and whitespace differences.
func SameText(a, b string) bool {
	return Fold(a) == Fold(b)
}

// ContainsAnyFold reports whether text contains any of the needles, ignoring case.
func ContainsAnyFold(text string, needles ...string) bool {
	lowered := strings.ToLower(text)
	for _, needle := range needles {
		if needle == "" {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(needle)) {
			return true
		}
	}
	return false
}

// HasWord reports whether word appears in text as a whole word, ignoring case.
func HasWord(text, word string) bool {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return false
	}
	for _, w := range Words(text) {
		if w == word {
			return true
		}
	}
	return false
}

// Words splits text into lower-cased words on anything that is not a letter,
// digit, or apostrophe.
func Words(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}
