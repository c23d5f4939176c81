package testsupport

import (
	"context"
	"errors"
	"strings"
	"sync"

	"cinepick/internal/tmdb"
)

// ErrNotFound is returned by FakeCatalog for unknown ids.
var ErrNotFound = errors.New("fake catalog: not found")

// FakeCatalog is an in-memory tmdb.Catalog. Fields are read under the lock,
// so tests may adjust them between calls through the helper methods.
type FakeCatalog struct {
	mu sync.Mutex

	Search   map[string][]tmdb.Movie
	People   map[string][]tmdb.Person
	Credits  map[int64]*tmdb.Credits
	Details  map[int64]*tmdb.MovieDetails
	Videos   map[int64]*tmdb.VideoList
	Discover []tmdb.Movie

	SearchErr   error
	DiscoverErr error
	VideosErr   error
	PersonErr   error

	calls        []string
	searchTerms  []string
	discoverOpts []tmdb.DiscoverOptions
}

var _ tmdb.Catalog = (*FakeCatalog)(nil)

// Movie builds a catalog list entry with a valid poster path.
func Movie(id int64, title string, rating float64, votes int64, popularity float64, releaseDate string) tmdb.Movie {
	return tmdb.Movie{
		ID:          id,
		Title:       title,
		ReleaseDate: releaseDate,
		PosterPath:  "/" + posterSlug(title) + ".jpg",
		VoteAverage: rating,
		VoteCount:   votes,
		Popularity:  popularity,
	}
}

func posterSlug(title string) string {
	slug := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return '_'
	}, strings.ToLower(title))
	return "poster_" + slug
}

// NewFakeCatalog returns an empty catalog.
func NewFakeCatalog() *FakeCatalog {
	return &FakeCatalog{
		Search:  make(map[string][]tmdb.Movie),
		People:  make(map[string][]tmdb.Person),
		Credits: make(map[int64]*tmdb.Credits),
		Details: make(map[int64]*tmdb.MovieDetails),
		Videos:  make(map[int64]*tmdb.VideoList),
	}
}

// AddMovie registers m for detail lookups with the given genres and runtime.
func (f *FakeCatalog) AddMovie(m tmdb.Movie, runtime int, genres ...tmdb.Genre) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Details[m.ID] = &tmdb.MovieDetails{Movie: m, Genres: genres, Runtime: runtime}
}

// SetDiscover replaces the discovery results.
func (f *FakeCatalog) SetDiscover(movies ...tmdb.Movie) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Discover = movies
}

// SetSearch replaces the results for a search term.
func (f *FakeCatalog) SetSearch(term string, movies ...tmdb.Movie) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Search[term] = movies
}

// Calls returns the endpoint names called so far, in order.
func (f *FakeCatalog) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// Called reports whether endpoint was called at least once.
func (f *FakeCatalog) Called(endpoint string) bool {
	for _, c := range f.Calls() {
		if c == endpoint {
			return true
		}
	}
	return false
}

// SearchTerms returns the title-search terms received.
func (f *FakeCatalog) SearchTerms() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.searchTerms...)
}

// DiscoverOptions returns the discovery options received.
func (f *FakeCatalog) DiscoverOptions() []tmdb.DiscoverOptions {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]tmdb.DiscoverOptions(nil), f.discoverOpts...)
}

func (f *FakeCatalog) record(endpoint string) {
	f.calls = append(f.calls, endpoint)
}

// SearchMovies implements tmdb.Catalog.
func (f *FakeCatalog) SearchMovies(ctx context.Context, query string) (*tmdb.MoviePage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("search_movie")
	f.searchTerms = append(f.searchTerms, query)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.SearchErr != nil {
		return nil, f.SearchErr
	}
	return &tmdb.MoviePage{Page: 1, Results: append([]tmdb.Movie(nil), f.Search[query]...)}, nil
}

// SearchPerson implements tmdb.Catalog. Names match case-insensitively.
func (f *FakeCatalog) SearchPerson(ctx context.Context, name string) (*tmdb.PersonPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("search_person")
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.PersonErr != nil {
		return nil, f.PersonErr
	}
	for key, people := range f.People {
		if strings.EqualFold(key, name) {
			return &tmdb.PersonPage{Page: 1, Results: append([]tmdb.Person(nil), people...)}, nil
		}
	}
	return &tmdb.PersonPage{Page: 1}, nil
}

// PersonMovieCredits implements tmdb.Catalog.
func (f *FakeCatalog) PersonMovieCredits(ctx context.Context, personID int64) (*tmdb.Credits, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("person_credits")
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	credits, ok := f.Credits[personID]
	if !ok {
		return nil, ErrNotFound
	}
	return credits, nil
}

// MovieDetails implements tmdb.Catalog.
func (f *FakeCatalog) MovieDetails(ctx context.Context, movieID int64) (*tmdb.MovieDetails, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("movie_details")
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	details, ok := f.Details[movieID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *details
	return &copied, nil
}

// MovieVideos implements tmdb.Catalog.
func (f *FakeCatalog) MovieVideos(ctx context.Context, movieID int64) (*tmdb.VideoList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("movie_videos")
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.VideosErr != nil {
		return nil, f.VideosErr
	}
	if videos, ok := f.Videos[movieID]; ok {
		return videos, nil
	}
	return &tmdb.VideoList{ID: movieID}, nil
}

// DiscoverMovies implements tmdb.Catalog.
func (f *FakeCatalog) DiscoverMovies(ctx context.Context, opts tmdb.DiscoverOptions) (*tmdb.MoviePage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("discover_movie")
	f.discoverOpts = append(f.discoverOpts, opts)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.DiscoverErr != nil {
		return nil, f.DiscoverErr
	}
	return &tmdb.MoviePage{Page: 1, Results: append([]tmdb.Movie(nil), f.Discover...)}, nil
}
