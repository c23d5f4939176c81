// Package movie defines the candidate record passed between the catalog
// gateway, the recommendation pipeline, the session state machine, and the
// delivery backends.
package movie

import (
	"strconv"
	"strings"
	"time"
)

// Candidate is one movie under consideration. Identity is ID.
type Candidate struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Overview    string     `json:"overview,omitempty"`
	ReleaseDate *time.Time `json:"release_date,omitempty"`
	Rating      float64    `json:"rating"`
	VoteCount   int64      `json:"vote_count"`
	Popularity  float64    `json:"popularity"`
	GenreIDs    []int      `json:"genre_ids,omitempty"`
	Genres      []string   `json:"genres,omitempty"`
	PosterPath  string     `json:"-"`
	PosterURL   string     `json:"poster_url,omitempty"`
	TrailerURL  string     `json:"trailer_url,omitempty"`
	// RuntimeMinutes is zero when unknown.
	RuntimeMinutes int  `json:"runtime_minutes,omitempty"`
	FromPerson     bool `json:"from_person,omitempty"`
	// Verified is set once the detail record for ID confirmed the title.
	Verified bool `json:"verified,omitempty"`
}

// Year returns the release year, or 0 when the date is unknown.
func (c Candidate) Year() int {
	if c.ReleaseDate == nil || c.ReleaseDate.IsZero() {
		return 0
	}
	return c.ReleaseDate.Year()
}

// GenreList renders genre names for memory and delivery text.
func (c Candidate) GenreList() string {
	return strings.Join(c.Genres, ", ")
}

// Label returns "Title (Year)" or just the title when the year is unknown.
func (c Candidate) Label() string {
	if y := c.Year(); y > 0 {
		return c.Title + " (" + strconv.Itoa(y) + ")"
	}
	return c.Title
}

// Clone returns a deep copy so cached records cannot be mutated by callers.
func (c Candidate) Clone() Candidate {
	out := c
	if c.ReleaseDate != nil {
		d := *c.ReleaseDate
		out.ReleaseDate = &d
	}
	if c.GenreIDs != nil {
		out.GenreIDs = append([]int(nil), c.GenreIDs...)
	}
	if c.Genres != nil {
		out.Genres = append([]string(nil), c.Genres...)
	}
	return out
}

// ParseReleaseDate parses TMDB's YYYY-MM-DD form. It returns nil for empty or
// malformed values.
func ParseReleaseDate(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil
	}
	return &parsed
}

// IDs returns the identifiers of the candidates in order.
func IDs(candidates []Candidate) []int64 {
	ids := make([]int64, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.ID)
	}
	return ids
}
