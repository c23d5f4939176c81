package classify

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var knownNames = []struct {
	needle string
	name   string
}{
	{"statham", "Jason Statham"},
	{"brad pitt", "Brad Pitt"},
	{"brad pit", "Brad Pitt"},
	{"tom hanks", "Tom Hanks"},
	{"dicaprio", "Leonardo DiCaprio"},
	{"leonardo", "Leonardo DiCaprio"},
}

var nameTemplates = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bfilms?\s+(?:with|wth)\s+([a-z\s]+?)(?:\s+as\s+an?\s+actor\b|\s+actor\b|\s+films?\b|\s+movies?\b|\s+for\b|\s*$)`),
	regexp.MustCompile(`(?i)\bfilms?\s+starring\s+([a-z\s]+?)(?:\s+films?\b|\s+movies?\b|\s+for\b|\s*$)`),
	regexp.MustCompile(`\b[Ff]ilms?\s+([A-Z][a-z]+\s+[A-Z][a-z]+)(?:\s+[Ff]ilms?\b|\s+[Mm]ovies?\b|\s+for\b|\s*$)`),
	regexp.MustCompile(`\b([A-Z][a-z]+\s+[A-Z][a-z]+)\s+[Ff]ilms?\b`),
	regexp.MustCompile(`\b([A-Z][a-z]+\s+[A-Z][a-z]+)\s+[Mm]ovies?\b`),
}

var nameStopWords = map[string]struct{}{
	"find": {}, "films": {}, "film": {}, "movies": {}, "movie": {},
	"with": {}, "starring": {}, "featuring": {}, "actor": {}, "actress": {},
	"directed": {}, "director": {}, "by": {}, "as": {}, "an": {}, "a": {},
	"the": {}, "for": {}, "me": {}, "wth": {}, "give": {}, "suggest": {},
	"show": {}, "some": {}, "good": {}, "best": {},
}

var titleCaser = cases.Title(language.English)

// ExtractName pulls a person name out of a request. It tries a table of
// well-known names, then phrase templates, then a trailing-word heuristic.
// An empty result means no name could be resolved.
func ExtractName(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	lowered := strings.ToLower(text)
	for _, known := range knownNames {
		if strings.Contains(lowered, known.needle) {
			return known.name
		}
	}
	for _, pattern := range nameTemplates {
		match := pattern.FindStringSubmatch(text)
		if len(match) < 2 {
			continue
		}
		name := strings.Join(strings.Fields(match[1]), " ")
		if len(name) <= 2 || allStopWords(name) {
			continue
		}
		return titleName(name)
	}
	return heuristicName(text)
}

// heuristicName prefers the last one or two words that are capitalized or
// longer than four letters once stop words are gone, then any last two words.
func heuristicName(text string) string {
	var clean []string
	for _, word := range strings.Fields(text) {
		word = strings.Trim(word, ".,!?;:\"'()")
		if word == "" {
			continue
		}
		if _, stop := nameStopWords[strings.ToLower(word)]; stop {
			continue
		}
		clean = append(clean, word)
	}

	var picked []string
	for _, word := range clean {
		if startsUpper(word) || (len(word) > 4 && isAlpha(word)) {
			picked = append(picked, word)
		}
	}
	switch {
	case len(picked) >= 2:
		return titleName(strings.Join(picked[len(picked)-2:], " "))
	case len(picked) == 1:
		return titleName(picked[0])
	case len(clean) >= 2:
		return titleName(strings.Join(clean[len(clean)-2:], " "))
	}
	return ""
}

// titleName title-cases lower-case words and leaves already capitalized ones
// alone so names like "McAvoy" survive.
func titleName(name string) string {
	words := strings.Fields(name)
	for i, word := range words {
		if !startsUpper(word) {
			words[i] = titleCaser.String(word)
		}
	}
	return strings.Join(words, " ")
}

func allStopWords(name string) bool {
	for _, word := range strings.Fields(strings.ToLower(name)) {
		if _, stop := nameStopWords[word]; !stop {
			return false
		}
	}
	return true
}

func startsUpper(word string) bool {
	for _, r := range word {
		return unicode.IsUpper(r)
	}
	return false
}

func isAlpha(word string) bool {
	for _, r := range word {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return word != ""
}
