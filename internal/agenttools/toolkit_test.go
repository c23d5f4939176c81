package agenttools

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"cinepick/internal/detailcache"
	"cinepick/internal/memory"
	"cinepick/internal/recommend"
	"cinepick/internal/testsupport"
	"cinepick/internal/tmdb"
	"cinepick/internal/verify"
)

type fixture struct {
	catalog  *testsupport.FakeCatalog
	recorder *testsupport.MemoryRecorder
	toolkit  *Toolkit
}

func newFixture(t *testing.T, withMemory bool) *fixture {
	t.Helper()
	catalog := testsupport.NewFakeCatalog()
	recorder := testsupport.NewMemoryRecorder()

	var mem *memory.Client
	var history recommend.HistorySource
	if withMemory {
		mem = memory.NewClient(recorder, time.Second, time.Second, nil)
		history = mem
	}
	details := recommend.NewDetailFetcher(catalog, detailcache.New(20, nil), nil, verify.IdentityChecker{}, time.Second, nil)
	pipeline := recommend.New(catalog, history, details, recommend.DefaultOptions(), nil)

	return &fixture{
		catalog:  catalog,
		recorder: recorder,
		toolkit: New(Deps{
			Catalog:  catalog,
			Pipeline: pipeline,
			Memory:   mem,
			UserID:   "viewer-1",
		}),
	}
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func toolText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil || len(result.Content) == 0 {
		t.Fatal("no content in result")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Content[0])
	}
	return tc.Text
}

func TestSearchMovies(t *testing.T) {
	f := newFixture(t, false)
	f.catalog.SetSearch("heat", testsupport.Movie(949, "Heat", 8.3, 7000, 50, "1995-12-15"))

	result, err := f.toolkit.handleSearchMovies(context.Background(), callRequest(ToolSearchMovies, map[string]any{"query": " heat "}))
	if err != nil {
		t.Fatalf("handleSearchMovies returned error: %v", err)
	}
	text := toolText(t, result)
	if result.IsError {
		t.Fatalf("unexpected error result %q", text)
	}
	if !strings.HasPrefix(text, "Found 1 movies:") || !strings.Contains(text, `"id": 949`) || !strings.Contains(text, `"year": 1995`) {
		t.Fatalf("unexpected search output %q", text)
	}

	empty, _ := f.toolkit.handleSearchMovies(context.Background(), callRequest(ToolSearchMovies, map[string]any{"query": "nothing"}))
	if got := toolText(t, empty); got != "No movies found." {
		t.Fatalf("unexpected empty output %q", got)
	}

	missing, _ := f.toolkit.handleSearchMovies(context.Background(), callRequest(ToolSearchMovies, map[string]any{}))
	if !missing.IsError {
		t.Fatal("expected error result without query")
	}
}

func TestSearchMoviesUpstreamFailure(t *testing.T) {
	f := newFixture(t, false)
	f.catalog.SearchErr = errors.New("tmdb down")

	result, err := f.toolkit.handleSearchMovies(context.Background(), callRequest(ToolSearchMovies, map[string]any{"query": "heat"}))
	if err != nil {
		t.Fatalf("handleSearchMovies returned error: %v", err)
	}
	if !result.IsError || !strings.Contains(toolText(t, result), "tmdb down") {
		t.Fatalf("expected upstream error result, got %+v", result)
	}
}

func TestSearchPersonCapsResults(t *testing.T) {
	f := newFixture(t, false)
	var people []tmdb.Person
	for i := 1; i <= 8; i++ {
		people = append(people, tmdb.Person{ID: int64(i), Name: fmt.Sprintf("Person %d", i), KnownForDepartment: "Acting"})
	}
	f.catalog.People["brad pitt"] = people

	result, _ := f.toolkit.handleSearchPerson(context.Background(), callRequest(ToolSearchPerson, map[string]any{"name": "Brad Pitt"}))
	text := toolText(t, result)
	if !strings.HasPrefix(text, "Found 5 people:") {
		t.Fatalf("expected five people, got %q", text)
	}
	if strings.Contains(text, "Person 6") {
		t.Fatalf("expected cap at five people, got %q", text)
	}

	none, _ := f.toolkit.handleSearchPerson(context.Background(), callRequest(ToolSearchPerson, map[string]any{"name": "Nobody"}))
	if got := toolText(t, none); got != "No people found matching 'Nobody'." {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestGetPersonMoviesFiltersAndSorts(t *testing.T) {
	f := newFixture(t, false)
	credit := func(m tmdb.Movie) tmdb.Credit { return tmdb.Credit{Movie: m} }
	f.catalog.Credits[287] = &tmdb.Credits{
		ID: 287,
		Cast: []tmdb.Credit{
			credit(testsupport.Movie(550, "Fight Club", 8.4, 28000, 60, "1999-10-15")),
			credit(testsupport.Movie(807, "Se7en", 8.4, 20000, 80, "1995-09-22")),
			credit(testsupport.Movie(807, "Se7en", 8.4, 20000, 80, "1995-09-22")),
			credit(testsupport.Movie(1, "Low Rated", 5.9, 9000, 99, "2001-01-01")),
			credit(testsupport.Movie(2, "Few Votes", 8.9, 120, 99, "2001-01-01")),
			credit(testsupport.Movie(3, "Tie Breaker", 7.2, 800, 60, "2012-01-01")),
		},
		Crew: []tmdb.Credit{
			credit(testsupport.Movie(4, "Produced", 7.5, 900, 10, "2015-01-01")),
		},
	}

	result, err := f.toolkit.handleGetPersonMovies(context.Background(), callRequest(ToolGetPersonMovies, map[string]any{"person_id": float64(287)}))
	if err != nil {
		t.Fatalf("handleGetPersonMovies returned error: %v", err)
	}
	text := toolText(t, result)
	if !strings.HasPrefix(text, "Found 3 movies (cast).") {
		t.Fatalf("unexpected header %q", text)
	}
	se7en := strings.Index(text, `"id": 807`)
	fight := strings.Index(text, `"id": 550`)
	tie := strings.Index(text, `"id": 3,`)
	if se7en < 0 || fight < 0 || tie < 0 || !(se7en < fight && fight < tie) {
		t.Fatalf("expected popularity then rating order, got %q", text)
	}
	if strings.Contains(text, "Low Rated") || strings.Contains(text, "Few Votes") || strings.Contains(text, "Produced") {
		t.Fatalf("unexpected entries in %q", text)
	}

	crew, _ := f.toolkit.handleGetPersonMovies(context.Background(), callRequest(ToolGetPersonMovies, map[string]any{"person_id": float64(287), "department": "crew"}))
	if !strings.Contains(toolText(t, crew), "Produced") {
		t.Fatalf("expected crew credits, got %q", toolText(t, crew))
	}

	bad, _ := f.toolkit.handleGetPersonMovies(context.Background(), callRequest(ToolGetPersonMovies, map[string]any{"person_id": float64(287), "department": "writers"}))
	if !bad.IsError {
		t.Fatal("expected error for unknown department")
	}
}

func TestGetPersonMoviesCapsAtFifteen(t *testing.T) {
	f := newFixture(t, false)
	credits := &tmdb.Credits{ID: 9}
	for i := 1; i <= 20; i++ {
		credits.Cast = append(credits.Cast, tmdb.Credit{Movie: testsupport.Movie(int64(100+i), fmt.Sprintf("Film %02d", i), 7.5, 1000, float64(i), "2018-01-01")})
	}
	f.catalog.Credits[9] = credits

	result, _ := f.toolkit.handleGetPersonMovies(context.Background(), callRequest(ToolGetPersonMovies, map[string]any{"person_id": float64(9)}))
	text := toolText(t, result)
	if !strings.HasPrefix(text, "Found 15 movies (cast).") {
		t.Fatalf("expected cap at 15, got %q", text)
	}
	if strings.Contains(text, "Film 05") {
		t.Fatalf("least popular entries should be cut, got %q", text)
	}
}

func TestDiscoverByGenreUsesTwoIDs(t *testing.T) {
	f := newFixture(t, false)
	f.catalog.SetDiscover(testsupport.Movie(1001, "Night Courier", 8.6, 6000, 60, "2021-05-01"))

	args := map[string]any{"genre_ids": []any{float64(28), float64(53), float64(18)}}
	result, err := f.toolkit.handleDiscoverByGenre(context.Background(), callRequest(ToolDiscoverByGenre, args))
	if err != nil {
		t.Fatalf("handleDiscoverByGenre returned error: %v", err)
	}
	text := toolText(t, result)
	if !strings.Contains(text, "Night Courier") || !strings.Contains(text, "(genres: Action, Thriller)") {
		t.Fatalf("unexpected output %q", text)
	}
	opts := f.catalog.DiscoverOptions()
	if len(opts) != 1 || !reflect.DeepEqual(opts[0].GenreIDs, []int{28, 53}) {
		t.Fatalf("expected two genre ids, got %+v", opts)
	}
	if opts[0].MinRating != 7.0 || opts[0].MinVotes != 500 {
		t.Fatalf("expected quality floor on discovery, got %+v", opts[0])
	}

	missing, _ := f.toolkit.handleDiscoverByGenre(context.Background(), callRequest(ToolDiscoverByGenre, map[string]any{}))
	if !missing.IsError {
		t.Fatal("expected error without genre ids")
	}
}

func TestGetMovieDetailsIsCacheFirst(t *testing.T) {
	f := newFixture(t, false)
	f.catalog.AddMovie(testsupport.Movie(27205, "Inception", 8.4, 35000, 90, "2010-07-15"), 148, tmdb.Genre{ID: 28, Name: "Action"})
	f.catalog.Videos[27205] = &tmdb.VideoList{ID: 27205, Results: []tmdb.Video{{Key: "YoHD9XEInc0", Site: "YouTube", Type: "Trailer"}}}

	req := callRequest(ToolGetMovieDetails, map[string]any{"movie_id": float64(27205)})
	result, err := f.toolkit.handleGetMovieDetails(context.Background(), req)
	if err != nil {
		t.Fatalf("handleGetMovieDetails returned error: %v", err)
	}
	text := toolText(t, result)
	for _, want := range []string{
		`"runtime": 148`,
		`"trailer_url": "https://www.youtube.com/watch?v=YoHD9XEInc0"`,
		`"poster_url": "https://image.tmdb.org/t/p/w500/poster_inception.jpg"`,
		`"Action"`,
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %s in %q", want, text)
		}
	}

	if _, err := f.toolkit.handleGetMovieDetails(context.Background(), req); err != nil {
		t.Fatalf("second handleGetMovieDetails returned error: %v", err)
	}
	count := 0
	for _, call := range f.catalog.Calls() {
		if call == "movie_details" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected one details call, got %d", count)
	}

	missing, _ := f.toolkit.handleGetMovieDetails(context.Background(), callRequest(ToolGetMovieDetails, map[string]any{"movie_id": float64(42)}))
	if !missing.IsError {
		t.Fatal("expected error for unknown movie")
	}
}

func TestMemoryTools(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	saved, err := f.toolkit.handleSaveWatchedFilm(ctx, callRequest(ToolSaveWatchedFilm, map[string]any{
		"film_title": "Heat",
		"film_id":    float64(949),
		"rating":     float64(9),
		"notes":      "rewatch soon",
	}))
	if err != nil {
		t.Fatalf("handleSaveWatchedFilm returned error: %v", err)
	}
	if got := toolText(t, saved); got != "Saved: Heat" {
		t.Fatalf("unexpected save output %q", got)
	}
	if _, err := f.toolkit.handleSaveUserPreference(ctx, callRequest(ToolSaveUserPreference, map[string]any{"preference": "loves heist films"})); err != nil {
		t.Fatalf("handleSaveUserPreference returned error: %v", err)
	}

	want := []string{
		"User already watched film: Heat (TMDb ID: 949). User rating: 9/10. Notes: rewatch soon",
		"User preference: loves heist films",
	}
	if got := f.recorder.Texts("viewer-1"); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected memory writes %v", got)
	}

	recalled, _ := f.toolkit.handleGetUserMemories(ctx, callRequest(ToolGetUserMemories, map[string]any{}))
	text := toolText(t, recalled)
	if !strings.HasPrefix(text, "User memories:") || !strings.Contains(text, "- User preference: loves heist films") {
		t.Fatalf("unexpected recall output %q", text)
	}

	bad, _ := f.toolkit.handleSaveWatchedFilm(ctx, callRequest(ToolSaveWatchedFilm, map[string]any{"film_title": "Heat", "rating": float64(11)}))
	if !bad.IsError {
		t.Fatal("expected error for out-of-range rating")
	}
}

func TestMemoryToolsWithoutMemory(t *testing.T) {
	f := newFixture(t, false)
	result, err := f.toolkit.handleGetUserMemories(context.Background(), callRequest(ToolGetUserMemories, map[string]any{}))
	if err != nil {
		t.Fatalf("handleGetUserMemories returned error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected error result without memory backend")
	}
}

func TestInstrumentMarksErrors(t *testing.T) {
	f := newFixture(t, false)
	handler := f.toolkit.instrument(ToolSearchMovies, f.toolkit.handleSearchMovies)
	result, err := handler(context.Background(), callRequest(ToolSearchMovies, map[string]any{}))
	if err != nil {
		t.Fatalf("instrumented handler returned error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected error result to pass through")
	}
}

func TestNewServerRegistersTools(t *testing.T) {
	f := newFixture(t, true)
	if s := NewServer(f.toolkit, "test"); s == nil {
		t.Fatal("expected server")
	}
}
