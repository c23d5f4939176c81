package tmdb_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"cinepick/internal/tmdb"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...tmdb.Option) *tmdb.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := tmdb.New("key", server.URL, "en-US", opts...)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return client
}

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := tmdb.New("", "https://example.com", "en-US"); err == nil {
		t.Fatal("expected error when api key missing")
	}
}

func TestSearchMoviesSendsKeyAndLanguage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/movie" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("api_key") != "key" || q.Get("language") != "en-US" || q.Get("query") != "heat" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"page":1,"results":[{"id":949,"title":"Heat","release_date":"1995-12-15","vote_average":7.9,"vote_count":7000,"genre_ids":[80,18]}]}`))
	})

	page, err := client.SearchMovies(context.Background(), " heat ")
	if err != nil {
		t.Fatalf("SearchMovies returned error: %v", err)
	}
	if len(page.Results) != 1 || page.Results[0].Title != "Heat" {
		t.Fatalf("unexpected response: %#v", page)
	}
	cand := page.Results[0].Candidate()
	if cand.Year() != 1995 || cand.VoteCount != 7000 || len(cand.GenreIDs) != 2 {
		t.Fatalf("unexpected candidate: %#v", cand)
	}
}

func TestSearchMoviesEmptyQuery(t *testing.T) {
	client, err := tmdb.New("key", "https://example.com", "")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := client.SearchMovies(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty query")
	}
}

func TestDiscoverMoviesBuildsFilters(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		checks := map[string]string{
			"sort_by":                  "popularity.desc",
			"vote_average.gte":         "7",
			"vote_count.gte":           "500",
			"primary_release_date.gte": "2020-01-01",
			"with_genres":              "80,9648",
			"page":                     "1",
		}
		for key, want := range checks {
			if got := q.Get(key); got != want {
				t.Errorf("%s = %q, want %q", key, got, want)
			}
		}
		_, _ = w.Write([]byte(`{"page":1,"results":[]}`))
	})

	_, err := client.DiscoverMovies(context.Background(), tmdb.DiscoverOptions{
		GenreIDs:      []int{80, 9648},
		MinRating:     7.0,
		MinVotes:      500,
		ReleasedAfter: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("DiscoverMovies returned error: %v", err)
	}
}

func TestMovieDetailsAndVideos(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/movie/603":
			_, _ = w.Write([]byte(`{"id":603,"title":"The Matrix","poster_path":"/abc.jpg","runtime":136,"genres":[{"id":28,"name":"Action"},{"id":878,"name":"Science Fiction"}]}`))
		case "/movie/603/videos":
			_, _ = w.Write([]byte(`{"id":603,"results":[{"key":"teaser","site":"YouTube","type":"Teaser"},{"key":"vimeo1","site":"Vimeo","type":"Trailer"},{"key":"m8e-FF8MsqU","site":"YouTube","type":"Trailer"}]}`))
		default:
			http.NotFound(w, r)
		}
	})

	details, err := client.MovieDetails(context.Background(), 603)
	if err != nil {
		t.Fatalf("MovieDetails returned error: %v", err)
	}
	cand := details.Candidate()
	if cand.RuntimeMinutes != 136 || cand.GenreList() != "Action, Science Fiction" {
		t.Fatalf("unexpected candidate: %#v", cand)
	}

	videos, err := client.MovieVideos(context.Background(), 603)
	if err != nil {
		t.Fatalf("MovieVideos returned error: %v", err)
	}
	if got := videos.TrailerURL(); got != "https://www.youtube.com/watch?v=m8e-FF8MsqU" {
		t.Fatalf("unexpected trailer url %q", got)
	}
}

func TestPersonCredits(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search/person":
			_, _ = w.Write([]byte(`{"page":1,"results":[{"id":287,"name":"Brad Pitt","known_for_department":"Acting"}]}`))
		case "/person/287/movie_credits":
			_, _ = w.Write([]byte(`{"id":287,"cast":[{"id":550,"title":"Fight Club","character":"Tyler Durden"}],"crew":[{"id":1,"title":"Produced","job":"Producer","department":"Production"}]}`))
		default:
			http.NotFound(w, r)
		}
	})

	people, err := client.SearchPerson(context.Background(), "Brad Pitt")
	if err != nil {
		t.Fatalf("SearchPerson returned error: %v", err)
	}
	if len(people.Results) != 1 || people.Results[0].ID != 287 {
		t.Fatalf("unexpected people: %#v", people)
	}
	credits, err := client.PersonMovieCredits(context.Background(), 287)
	if err != nil {
		t.Fatalf("PersonMovieCredits returned error: %v", err)
	}
	if len(credits.Cast) != 1 || credits.Cast[0].Title != "Fight Club" || credits.Crew[0].Job != "Producer" {
		t.Fatalf("unexpected credits: %#v", credits)
	}
}

func TestHTTPErrorReturnsStatusError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.MovieDetails(context.Background(), 42)
	var se *tmdb.StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusNotFound {
		t.Fatalf("expected StatusError 404, got %v", err)
	}
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}, tmdb.WithBreaker(tmdb.BreakerSettings{FailureThreshold: 2, Cooldown: time.Minute}))

	for i := 0; i < 2; i++ {
		if _, err := client.SearchMovies(context.Background(), "x"); err == nil {
			t.Fatal("expected upstream error")
		}
	}
	_, err := client.SearchMovies(context.Background(), "x")
	if !errors.Is(err, tmdb.ErrBreakerOpen) {
		t.Fatalf("expected ErrBreakerOpen, got %v", err)
	}
	if got := hits.Load(); got != 2 {
		t.Fatalf("expected breaker to stop upstream calls after 2, got %d", got)
	}
}

func TestNotFoundDoesNotTripBreaker(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}, tmdb.WithBreaker(tmdb.BreakerSettings{FailureThreshold: 1, Cooldown: time.Minute}))

	for i := 0; i < 3; i++ {
		_, err := client.MovieDetails(context.Background(), 7)
		if errors.Is(err, tmdb.ErrBreakerOpen) {
			t.Fatalf("404 responses must not open the breaker (attempt %d)", i)
		}
	}
}

func TestCallerCancellationDoesNotTripBreaker(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) <= 3 {
			select {
			case <-r.Context().Done():
			case <-time.After(time.Second):
			}
			return
		}
		_, _ = w.Write([]byte(`{"page":1,"results":[]}`))
	}, tmdb.WithBreaker(tmdb.BreakerSettings{FailureThreshold: 2, Cooldown: time.Minute}))

	for i := 0; i < 3; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), time.Hour)
		time.AfterFunc(10*time.Millisecond, cancel)
		if _, err := client.SearchMovies(ctx, "x"); err == nil {
			t.Fatalf("expected cancellation error (attempt %d)", i)
		}
		cancel()
	}
	if _, err := client.SearchMovies(context.Background(), "x"); err != nil {
		t.Fatalf("SearchMovies returned error after cancelled calls: %v", err)
	}
}

func TestPerEndpointTimeout(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(500 * time.Millisecond):
		}
		_, _ = w.Write([]byte(`{"id":1,"results":[]}`))
	}, tmdb.WithTimeouts(tmdb.Timeouts{Videos: 20 * time.Millisecond}))

	start := time.Now()
	if _, err := client.MovieVideos(context.Background(), 1); err == nil {
		t.Fatal("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > 400*time.Millisecond {
		t.Fatalf("videos timeout not applied, took %v", elapsed)
	}
}
