package tmdb

import (
	"strings"

	"cinepick/internal/movie"
)

// Movie is a single movie entry as returned by search, discover, and credit endpoints.
type Movie struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	ReleaseDate string  `json:"release_date"`
	PosterPath  string  `json:"poster_path"`
	VoteAverage float64 `json:"vote_average"`
	VoteCount   int64   `json:"vote_count"`
	Popularity  float64 `json:"popularity"`
	GenreIDs    []int   `json:"genre_ids"`
}

// MoviePage models the TMDB paginated movie response.
type MoviePage struct {
	Page         int     `json:"page"`
	Results      []Movie `json:"results"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
}

// Genre is a TMDB genre entry.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// MovieDetails is the full /movie/{id} payload.
type MovieDetails struct {
	Movie
	Genres  []Genre `json:"genres"`
	Runtime int     `json:"runtime"`
}

// Person is a single /search/person match.
type Person struct {
	ID                 int64   `json:"id"`
	Name               string  `json:"name"`
	KnownForDepartment string  `json:"known_for_department"`
	Popularity         float64 `json:"popularity"`
}

// PersonPage models the TMDB paginated person response.
type PersonPage struct {
	Page    int      `json:"page"`
	Results []Person `json:"results"`
}

// Credit is a movie entry in a person's filmography.
type Credit struct {
	Movie
	Character  string `json:"character"`
	Job        string `json:"job"`
	Department string `json:"department"`
}

// Credits is the /person/{id}/movie_credits payload.
type Credits struct {
	ID   int64    `json:"id"`
	Cast []Credit `json:"cast"`
	Crew []Credit `json:"crew"`
}

// Video is a single entry from /movie/{id}/videos.
type Video struct {
	Key      string `json:"key"`
	Name     string `json:"name"`
	Site     string `json:"site"`
	Type     string `json:"type"`
	Official bool   `json:"official"`
}

// VideoList is the /movie/{id}/videos payload.
type VideoList struct {
	ID      int64   `json:"id"`
	Results []Video `json:"results"`
}

// TrailerURL returns the first YouTube trailer as a watch URL, or "".
func (v *VideoList) TrailerURL() string {
	if v == nil {
		return ""
	}
	for _, video := range v.Results {
		if video.Site == "YouTube" && video.Type == "Trailer" && strings.TrimSpace(video.Key) != "" {
			return "https://www.youtube.com/watch?v=" + video.Key
		}
	}
	return ""
}

// Candidate converts a list entry into a pipeline candidate. The poster path is
// carried raw; rendering and validation happen downstream.
func (m Movie) Candidate() movie.Candidate {
	c := movie.Candidate{
		ID:          m.ID,
		Title:       strings.TrimSpace(m.Title),
		Overview:    strings.TrimSpace(m.Overview),
		ReleaseDate: movie.ParseReleaseDate(m.ReleaseDate),
		Rating:      m.VoteAverage,
		VoteCount:   m.VoteCount,
		Popularity:  m.Popularity,
		PosterPath:  m.PosterPath,
	}
	if len(m.GenreIDs) > 0 {
		c.GenreIDs = append([]int(nil), m.GenreIDs...)
	}
	if c.VoteCount < 0 {
		c.VoteCount = 0
	}
	return c
}

// Candidate converts the detail record into a candidate with genre names and runtime.
func (d MovieDetails) Candidate() movie.Candidate {
	c := d.Movie.Candidate()
	c.RuntimeMinutes = d.Runtime
	if len(d.Genres) > 0 {
		c.Genres = make([]string, 0, len(d.Genres))
		c.GenreIDs = make([]int, 0, len(d.Genres))
		for _, g := range d.Genres {
			c.Genres = append(c.Genres, g.Name)
			c.GenreIDs = append(c.GenreIDs, g.ID)
		}
	}
	return c
}

// Candidates converts a slice of list entries.
func Candidates(movies []Movie) []movie.Candidate {
	out := make([]movie.Candidate, 0, len(movies))
	for _, m := range movies {
		out = append(out, m.Candidate())
	}
	return out
}
