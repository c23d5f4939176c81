package main

import (
	"context"
	"errors"
	"testing"

	"github.com/goccy/go-json"

	"cinepick/internal/memory"
	"cinepick/internal/recommend"
	"cinepick/internal/testsupport"
	"cinepick/internal/tmdb"
)

func TestRecommendPrintsPick(t *testing.T) {
	env := setupCLITestEnv(t)
	m := env.addInception()
	env.catalog.Videos[m.ID] = &tmdb.VideoList{ID: m.ID, Results: []tmdb.Video{
		{Key: "YoHD9XEInc0", Site: "YouTube", Type: "Trailer"},
	}}

	out, _, err := runCLI(t, []string{"recommend", "inception"}, env.configPath)
	if err != nil {
		t.Fatalf("recommend returned error: %v", err)
	}
	requireContains(t, out, "Pick: Inception (2010)")
	requireContains(t, out, "Rating: 8.4/10 (35000 votes)")
	requireContains(t, out, "Genres: Action, Science Fiction")
	requireContains(t, out, "Runtime: 148 min")
	requireContains(t, out, "Poster: https://image.tmdb.org/t/p/w500/poster_inception.jpg")
	requireContains(t, out, "Trailer: https://www.youtube.com/watch?v=YoHD9XEInc0")
	requireContains(t, out, "Strategy: search")
}

func TestRecommendJSON(t *testing.T) {
	env := setupCLITestEnv(t)
	env.addInception()

	out, _, err := runCLI(t, []string{"recommend", "--json", "inception"}, env.configPath)
	if err != nil {
		t.Fatalf("recommend --json returned error: %v", err)
	}
	var view struct {
		Query    string `json:"query"`
		Strategy string `json:"strategy"`
		Pick     struct {
			ID    int64  `json:"id"`
			Title string `json:"title"`
		} `json:"pick"`
		Queue []json.RawMessage `json:"queue"`
	}
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("decode output %q: %v", out, err)
	}
	if view.Query != "inception" || view.Strategy != "search" {
		t.Fatalf("unexpected view header: %+v", view)
	}
	if view.Pick.ID != 27205 || view.Pick.Title != "Inception" {
		t.Fatalf("unexpected pick: %+v", view.Pick)
	}
	if view.Queue == nil || len(view.Queue) != 0 {
		t.Fatalf("expected empty queue array, got %v", view.Queue)
	}
}

func TestRecommendExcludedPickFails(t *testing.T) {
	env := setupCLITestEnv(t)
	env.addInception()

	_, _, err := runCLI(t, []string{"recommend", "--exclude", "27205", "inception"}, env.configPath)
	if !errors.Is(err, recommend.ErrNoResult) {
		t.Fatalf("expected ErrNoResult, got %v", err)
	}
	if !env.catalog.Called("discover_movie") {
		t.Fatal("expected the discovery fallback to run")
	}
}

func TestRecommendRequiresText(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"recommend"}, env.configPath); err == nil {
		t.Fatal("expected error without request text")
	}
}

func TestRecommendSkipsWatchedFromSQLiteMemory(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithSQLiteMemory(), testsupport.WithQueueSize(1))

	interstellar := testsupport.Movie(157336, "Interstellar", 8.4, 30000, 90, "2014-11-05")
	gravity := testsupport.Movie(49047, "Gravity", 7.2, 14000, 40, "2013-10-03")
	martian := testsupport.Movie(286217, "The Martian", 7.7, 19000, 50, "2015-09-30")
	env.catalog.SetSearch("orbit", interstellar, gravity, martian)
	for _, m := range []tmdb.Movie{interstellar, gravity, martian} {
		env.catalog.AddMovie(m, 130, tmdb.Genre{ID: 878, Name: "Science Fiction"})
	}

	store := testsupport.MustOpenMemory(t, env.cfg)
	if err := store.Add(context.Background(), memory.WatchedText("Interstellar", 157336), "alice"); err != nil {
		t.Fatalf("seed memory: %v", err)
	}

	out, _, err := runCLI(t, []string{"recommend", "--json", "--user", "alice", "orbit"}, env.configPath)
	if err != nil {
		t.Fatalf("recommend returned error: %v", err)
	}
	var view struct {
		Pick struct {
			ID int64 `json:"id"`
		} `json:"pick"`
		Queue []struct {
			ID int64 `json:"id"`
		} `json:"queue"`
	}
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("decode output %q: %v", out, err)
	}
	if view.Pick.ID == 157336 {
		t.Fatal("watched film was recommended")
	}
	if len(view.Queue) != 1 || view.Queue[0].ID == 157336 || view.Queue[0].ID == view.Pick.ID {
		t.Fatalf("unexpected queue: %+v", view.Queue)
	}
}
