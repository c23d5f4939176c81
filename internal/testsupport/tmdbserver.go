package testsupport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"cinepick/internal/tmdb"
)

// NewTMDBServer serves catalog over the TMDB REST paths used by tmdb.Client
// and registers cleanup. Unknown ids answer 404.
func NewTMDBServer(t testing.TB, catalog *FakeCatalog) *httptest.Server {
	t.Helper()

	r := chi.NewRouter()
	r.Get("/configuration", func(w http.ResponseWriter, req *http.Request) {
		writeCatalogJSON(w, map[string]any{"images": map[string]any{"secure_base_url": "https://image.tmdb.org/t/p/"}}, nil)
	})
	r.Get("/search/movie", func(w http.ResponseWriter, req *http.Request) {
		page, err := catalog.SearchMovies(req.Context(), req.URL.Query().Get("query"))
		writeCatalogJSON(w, page, err)
	})
	r.Get("/search/person", func(w http.ResponseWriter, req *http.Request) {
		page, err := catalog.SearchPerson(req.Context(), req.URL.Query().Get("query"))
		writeCatalogJSON(w, page, err)
	})
	r.Get("/person/{id}/movie_credits", func(w http.ResponseWriter, req *http.Request) {
		credits, err := catalog.PersonMovieCredits(req.Context(), pathID(req))
		writeCatalogJSON(w, credits, err)
	})
	r.Get("/movie/{id}", func(w http.ResponseWriter, req *http.Request) {
		details, err := catalog.MovieDetails(req.Context(), pathID(req))
		writeCatalogJSON(w, details, err)
	})
	r.Get("/movie/{id}/videos", func(w http.ResponseWriter, req *http.Request) {
		videos, err := catalog.MovieVideos(req.Context(), pathID(req))
		writeCatalogJSON(w, videos, err)
	})
	r.Get("/discover/movie", func(w http.ResponseWriter, req *http.Request) {
		page, err := catalog.DiscoverMovies(req.Context(), discoverOptions(req))
		writeCatalogJSON(w, page, err)
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func pathID(req *http.Request) int64 {
	id, _ := strconv.ParseInt(chi.URLParam(req, "id"), 10, 64)
	return id
}

func discoverOptions(req *http.Request) tmdb.DiscoverOptions {
	q := req.URL.Query()
	opts := tmdb.DiscoverOptions{SortBy: q.Get("sort_by")}
	for _, raw := range strings.Split(q.Get("with_genres"), ",") {
		if id, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil {
			opts.GenreIDs = append(opts.GenreIDs, id)
		}
	}
	if v, err := strconv.ParseFloat(q.Get("vote_average.gte"), 64); err == nil {
		opts.MinRating = v
	}
	if v, err := strconv.ParseInt(q.Get("vote_count.gte"), 10, 64); err == nil {
		opts.MinVotes = v
	}
	if v, err := time.Parse("2006-01-02", q.Get("primary_release_date.gte")); err == nil {
		opts.ReleasedAfter = v
	}
	if v, err := strconv.Atoi(q.Get("page")); err == nil {
		opts.Page = v
	}
	return opts
}

func writeCatalogJSON(w http.ResponseWriter, payload any, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		http.Error(w, `{"status_code":34}`, http.StatusNotFound)
		return
	case errors.Is(err, context.Canceled):
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}
