package classify

import (
	"regexp"
	"strings"

	"cinepick/internal/textutil"
)

// Kind is the retrieval-relevant category of a request.
type Kind string

const (
	KindPerson   Kind = "person"
	KindHoliday  Kind = "holiday"
	KindGenre    Kind = "genre"
	KindFreeText Kind = "free_text"
)

// Department selects which side of a person's filmography to use.
type Department string

const (
	DepartmentCast Department = "cast"
	DepartmentCrew Department = "crew"
)

// Classification is the result of Classify.
type Classification struct {
	Kind Kind
	// Name is the extracted person name for person queries. Empty means the
	// request looked like a person query but no name was resolved.
	Name       string
	Department Department
	// Genres holds up to MaxGenres ids detected in the request regardless of
	// Kind, so later fallbacks can still use them.
	Genres  []int
	Holiday bool
}

// IsPerson reports whether the request is a person query with a usable name.
func (c Classification) IsPerson() bool {
	return c.Kind == KindPerson && c.Name != ""
}

var personKeywords = []string{"with", "wth", "starring", "featuring", "actor", "actress", "by"}

var crewKeywords = []string{"directed", "director", "by"}

var holidayKeywords = []string{"christmas", "xmas", "holiday"}

var knownSurnames = []string{
	"pitt", "statham", "stathem", "hanks", "dicaprio", "cruise", "damon",
	"affleck", "smith", "reeves", "jolie", "depp", "bale", "hiddleston",
}

var capitalizedPairNearFilm = []*regexp.Regexp{
	regexp.MustCompile(`\b[Ff]ilms?\s+(?:[a-z]+\s+)?([A-Z][a-z]+)\s+([A-Z][a-z]+)`),
	regexp.MustCompile(`\b[Mm]ovies?\s+(?:[a-z]+\s+)?([A-Z][a-z]+)\s+([A-Z][a-z]+)`),
	regexp.MustCompile(`\b([A-Z][a-z]+)\s+([A-Z][a-z]+)\s+(?:[Ff]ilms?|[Mm]ovies?)\b`),
}

// Words that commonly start a capitalized request and never begin a name.
// Single-word genre keywords are added at init.
var pairStopWords = textutil.NewStopWords(
	"find", "give", "show", "suggest", "recommend", "some", "good", "best",
	"new", "old", "classic", "the", "a", "an",
)

func init() {
	for _, entry := range genreKeywords {
		if !strings.Contains(entry.keyword, " ") {
			pairStopWords[entry.keyword] = struct{}{}
		}
	}
}

// Classify categorizes a request. Precedence is person, holiday, genre, then
// free text; genres and the holiday flag are filled in for every kind.
func Classify(text string) Classification {
	c := Classification{
		Genres:     DetectGenres(text),
		Holiday:    IsHoliday(text),
		Department: DepartmentCast,
	}
	switch {
	case IsPersonQuery(text):
		c.Kind = KindPerson
		c.Name = ExtractName(text)
		if wantsCrew(text) {
			c.Department = DepartmentCrew
		}
	case c.Holiday:
		c.Kind = KindHoliday
	case len(c.Genres) > 0:
		c.Kind = KindGenre
	default:
		c.Kind = KindFreeText
	}
	return c
}

// IsHoliday reports whether the request is holiday themed.
func IsHoliday(text string) bool {
	return textutil.ContainsAnyFold(text, holidayKeywords...)
}

// IsPersonQuery reports whether the request seems to name an actor or director.
func IsPersonQuery(text string) bool {
	for _, keyword := range personKeywords {
		if textutil.HasWord(text, keyword) {
			return true
		}
	}
	mentionsFilms := textutil.ContainsAnyFold(text, "film", "movie")
	if !mentionsFilms {
		return false
	}
	if hasCapitalizedPair(text) {
		return true
	}
	lowered := strings.ToLower(text)
	if !strings.Contains(lowered, "films") && !strings.Contains(lowered, "movies") {
		return false
	}
	return textutil.ContainsAnyFold(text, knownSurnames...)
}

func hasCapitalizedPair(text string) bool {
	for _, pattern := range capitalizedPairNearFilm {
		for _, match := range pattern.FindAllStringSubmatch(text, -1) {
			if !pairStopWords.Has(match[1]) && !pairStopWords.Has(match[2]) {
				return true
			}
		}
	}
	return false
}

func wantsCrew(text string) bool {
	for _, keyword := range crewKeywords {
		if textutil.HasWord(text, keyword) {
			return true
		}
	}
	return false
}
