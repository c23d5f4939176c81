package textutil

import "strings"

// StopWords is a lookup set of words ignored during comparisons.
type StopWords map[string]struct{}

// NewStopWords builds a StopWords set from the given lower-case words.
func NewStopWords(words ...string) StopWords {
	set := make(StopWords, len(words))
	for _, w := range words {
		set[strings.ToLower(w)] = struct{}{}
	}
	return set
}

// Has reports whether word is a stop word.
func (s StopWords) Has(word string) bool {
	_, ok := s[strings.ToLower(word)]
	return ok
}

// DropStopWords removes stop words from the whitespace-separated words of text,
// keeping at most limit words (limit <= 0 keeps all). Words are lower-cased.
func DropStopWords(text string, stop StopWords, limit int) []string {
	fields := strings.Fields(strings.ToLower(text))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if stop.Has(f) {
			continue
		}
		out = append(out, f)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// LeadingWordSet returns the set of the first window words of text (after
// lower-casing), minus stop words.
func LeadingWordSet(text string, window int, stop StopWords) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(text))
	if window > 0 && len(fields) > window {
		fields = fields[:window]
	}
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if stop.Has(f) {
			continue
		}
		set[f] = struct{}{}
	}
	return set
}

// Intersects reports whether the two sets share at least one member.
func Intersects(a, b map[string]struct{}) bool {
	if len(b) < len(a) {
		a, b = b, a
	}
	for k := range a {
		if _, ok := b[k]; ok {
			return true
		}
	}
	return false
}
