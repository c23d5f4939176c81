package classify

import (
	"sort"
	"strings"
)

// TMDB genre ids used by discovery.
const (
	GenreAction      = 28
	GenreAdventure   = 12
	GenreAnimation   = 16
	GenreComedy      = 35
	GenreCrime       = 80
	GenreDocumentary = 99
	GenreDrama       = 18
	GenreFamily      = 10751
	GenreFantasy     = 14
	GenreHorror      = 27
	GenreMystery     = 9648
	GenreRomance     = 10749
	GenreSciFi       = 878
	GenreThriller    = 53
	GenreWar         = 10752
	GenreWestern     = 37
)

// MaxGenres caps how many distinct genre ids a prompt contributes.
const MaxGenres = 2

type genreKeyword struct {
	keyword string
	id      int
}

var genreKeywords = buildGenreKeywords(map[string]int{
	"detective":       GenreCrime,
	"crime":           GenreCrime,
	"noir":            GenreCrime,
	"mystery":         GenreMystery,
	"thriller":        GenreThriller,
	"horror":          GenreHorror,
	"comedy":          GenreComedy,
	"action":          GenreAction,
	"romance":         GenreRomance,
	"drama":           GenreDrama,
	"sci-fi":          GenreSciFi,
	"science fiction": GenreSciFi,
	"fantasy":         GenreFantasy,
	"christmas":       GenreFamily,
	"xmas":            GenreFamily,
	"holiday":         GenreFamily,
	"western":         GenreWestern,
	"adventure":       GenreAdventure,
	"war":             GenreWar,
	"animation":       GenreAnimation,
	"documentary":     GenreDocumentary,
})

var genreNames = map[int]string{
	GenreAction:      "Action",
	GenreAdventure:   "Adventure",
	GenreAnimation:   "Animation",
	GenreComedy:      "Comedy",
	GenreCrime:       "Crime",
	GenreDocumentary: "Documentary",
	GenreDrama:       "Drama",
	GenreFamily:      "Family",
	GenreFantasy:     "Fantasy",
	GenreHorror:      "Horror",
	GenreMystery:     "Mystery",
	GenreRomance:     "Romance",
	GenreSciFi:       "Science Fiction",
	GenreThriller:    "Thriller",
	GenreWar:         "War",
	GenreWestern:     "Western",
}

// Longest keywords first so "science fiction" is consulted before shorter
// overlapping entries; ties are alphabetical for a stable scan order.
func buildGenreKeywords(table map[string]int) []genreKeyword {
	out := make([]genreKeyword, 0, len(table))
	for k, id := range table {
		out = append(out, genreKeyword{keyword: k, id: id})
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i].keyword) != len(out[j].keyword) {
			return len(out[i].keyword) > len(out[j].keyword)
		}
		return out[i].keyword < out[j].keyword
	})
	return out
}

// DetectGenres returns up to MaxGenres distinct genre ids whose keywords occur
// in text, scanning keywords longest-first.
func DetectGenres(text string) []int {
	lowered := strings.ToLower(text)
	var ids []int
	for _, entry := range genreKeywords {
		if !strings.Contains(lowered, entry.keyword) {
			continue
		}
		if containsID(ids, entry.id) {
			continue
		}
		ids = append(ids, entry.id)
		if len(ids) == MaxGenres {
			break
		}
	}
	return ids
}

// GenreName returns the display name for a genre id, or "" when unknown.
func GenreName(id int) string {
	return genreNames[id]
}

func containsID(ids []int, id int) bool {
	for _, existing := range ids {
		if existing == id {
			return true
		}
	}
	return false
}
