package recommend_test

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"cinepick/internal/detailcache"
	"cinepick/internal/memory"
	"cinepick/internal/movie"
	"cinepick/internal/recommend"
	"cinepick/internal/testsupport"
	"cinepick/internal/tmdb"
	"cinepick/internal/verify"
)

var fixedNow = time.Date(2026, time.October, 18, 12, 0, 0, 0, time.UTC)

type staticHistory struct {
	history memory.History
}

func (s staticHistory) History(context.Context, string) memory.History {
	if s.history.WatchedIDs == nil {
		return memory.NewHistory()
	}
	return s.history
}

func newRecommender(catalog tmdb.Catalog, history recommend.HistorySource) *recommend.Recommender {
	opts := recommend.DefaultOptions()
	opts.Scorer.Now = func() time.Time { return fixedNow }
	details := recommend.NewDetailFetcher(catalog, detailcache.New(10, nil), nil, verify.IdentityChecker{}, time.Second, nil)
	return recommend.New(catalog, history, details, opts, nil)
}

func register(catalog *testsupport.FakeCatalog, movies ...tmdb.Movie) {
	for _, m := range movies {
		catalog.AddMovie(m, 120, tmdb.Genre{ID: 18, Name: "Drama"})
	}
}

func TestPersonQueryUsesCredits(t *testing.T) {
	catalog := testsupport.NewFakeCatalog()
	fightClub := testsupport.Movie(550, "Fight Club", 8.4, 27000, 60, "1999-10-15")
	hollywood := testsupport.Movie(466272, "Once Upon a Time in Hollywood", 7.4, 12000, 120, "2019-07-26")
	weak := testsupport.Movie(1, "Forgettable", 5.0, 100, 10, "2015-01-01")
	catalog.People["Brad Pitt"] = []tmdb.Person{{ID: 287, Name: "Brad Pitt", KnownForDepartment: "Acting"}}
	catalog.Credits[287] = &tmdb.Credits{ID: 287, Cast: []tmdb.Credit{
		{Movie: fightClub}, {Movie: weak}, {Movie: hollywood}, {Movie: fightClub},
	}}
	register(catalog, fightClub, hollywood, weak)

	rec := newRecommender(catalog, staticHistory{})
	result, err := rec.Recommend(context.Background(), recommend.Request{Query: "films with Brad Pitt", UserID: "u"})
	if err != nil {
		t.Fatalf("Recommend returned error: %v", err)
	}
	if result.Strategy != recommend.StrategyPerson {
		t.Fatalf("expected person strategy, got %q", result.Strategy)
	}
	if catalog.Called("discover_movie") || catalog.Called("search_movie") {
		t.Fatalf("person query should not use discovery or search, calls=%v", catalog.Calls())
	}
	if result.Head.ID != 466272 || !result.Head.FromPerson || !result.Head.Verified {
		t.Fatalf("unexpected head %+v", result.Head)
	}
	if result.Head.PosterURL == "" || result.Head.RuntimeMinutes != 120 {
		t.Fatalf("expected enriched head, got %+v", result.Head)
	}
	if got := movie.IDs(result.Queue); !reflect.DeepEqual(got, []int64{550}) {
		t.Fatalf("unexpected queue %v", got)
	}
}

func TestDirectorUsesCrewCredits(t *testing.T) {
	catalog := testsupport.NewFakeCatalog()
	inception := testsupport.Movie(27205, "Inception", 8.4, 35000, 90, "2010-07-15")
	catalog.People["Christopher Nolan"] = []tmdb.Person{{ID: 525, Name: "Christopher Nolan", KnownForDepartment: "Directing"}}
	catalog.Credits[525] = &tmdb.Credits{ID: 525, Crew: []tmdb.Credit{{Movie: inception, Job: "Director", Department: "Directing"}}}
	register(catalog, inception)

	rec := newRecommender(catalog, staticHistory{})
	result, err := rec.Recommend(context.Background(), recommend.Request{Query: "films directed by Christopher Nolan"})
	if err != nil {
		t.Fatalf("Recommend returned error: %v", err)
	}
	if result.Head.ID != 27205 || result.Strategy != recommend.StrategyPerson {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestUnresolvedPersonFallsThroughToSearch(t *testing.T) {
	catalog := testsupport.NewFakeCatalog()
	arrival := testsupport.Movie(329865, "Arrival", 7.6, 18000, 40, "2016-11-10")
	catalog.SetSearch("films with nobody known", arrival)
	register(catalog, arrival)

	rec := newRecommender(catalog, staticHistory{})
	result, err := rec.Recommend(context.Background(), recommend.Request{Query: "films with nobody known"})
	if err != nil {
		t.Fatalf("Recommend returned error: %v", err)
	}
	if result.Strategy != recommend.StrategySearch || result.Head.ID != 329865 {
		t.Fatalf("unexpected result strategy=%q head=%d", result.Strategy, result.Head.ID)
	}
	if !catalog.Called("search_person") {
		t.Fatal("expected the person strategy to be attempted first")
	}
}

func TestHolidayQuerySkipsDiscovery(t *testing.T) {
	catalog := testsupport.NewFakeCatalog()
	elf := testsupport.Movie(10719, "Elf", 7.0, 3500, 40, "2003-10-09")
	other := testsupport.Movie(2, "Quiet Evening", 7.5, 1000, 20, "2021-01-01")
	catalog.SetSearch("christmas", other, elf)
	register(catalog, elf, other)

	rec := newRecommender(catalog, staticHistory{})
	result, err := rec.Recommend(context.Background(), recommend.Request{Query: "christmas movie"})
	if err != nil {
		t.Fatalf("Recommend returned error: %v", err)
	}
	if catalog.Called("discover_movie") {
		t.Fatal("holiday query must not use genre discovery")
	}
	if got := catalog.SearchTerms(); !reflect.DeepEqual(got, []string{"christmas"}) {
		t.Fatalf("expected forced christmas term, got %v", got)
	}
	if result.Head.ID != 10719 {
		t.Fatalf("expected holiday-marked title, got %+v", result.Head)
	}
	if len(result.Queue) != 0 {
		t.Fatalf("holiday filter should drop unmarked titles, queue=%v", movie.IDs(result.Queue))
	}
}

func TestGenreQueryUsesDiscovery(t *testing.T) {
	catalog := testsupport.NewFakeCatalog()
	a := testsupport.Movie(100, "Talk to Me", 7.2, 2500, 70, "2023-07-28")
	b := testsupport.Movie(101, "Barbarian", 7.0, 3000, 30, "2022-09-08")
	catalog.SetDiscover(a, b)
	register(catalog, a, b)

	rec := newRecommender(catalog, staticHistory{})
	result, err := rec.Recommend(context.Background(), recommend.Request{
		Query:    "horror movies",
		Excluded: recommend.ExcludedSet(100),
	})
	if err != nil {
		t.Fatalf("Recommend returned error: %v", err)
	}
	if result.Strategy != recommend.StrategyDiscover || result.Head.ID != 101 {
		t.Fatalf("unexpected result strategy=%q head=%d", result.Strategy, result.Head.ID)
	}
	opts := catalog.DiscoverOptions()
	if len(opts) != 1 {
		t.Fatalf("expected one discover call, got %d", len(opts))
	}
	got := opts[0]
	if !reflect.DeepEqual(got.GenreIDs, []int{27}) || got.MinRating != 7.0 || got.MinVotes != 500 ||
		got.SortBy != "popularity.desc" || got.Page != 1 ||
		!got.ReleasedAfter.Equal(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected discover options %+v", got)
	}
}

func TestHistoryFilterEmptiesToNoResult(t *testing.T) {
	catalog := testsupport.NewFakeCatalog()
	heat := testsupport.Movie(949, "Heat", 7.9, 7000, 40, "1995-12-15")
	catalog.SetSearch("heat", heat)
	register(catalog, heat)

	history := memory.NewHistory()
	history.WatchedTitles = []string{"Heat"}
	rec := newRecommender(catalog, staticHistory{history: history})

	_, err := rec.Recommend(context.Background(), recommend.Request{Query: "heat"})
	if !errors.Is(err, recommend.ErrNoResult) {
		t.Fatalf("expected ErrNoResult, got %v", err)
	}
}

func TestIdentityMismatchDropsHead(t *testing.T) {
	catalog := testsupport.NewFakeCatalog()
	first := testsupport.Movie(1, "Alpha Station", 8.0, 9000, 150, "2024-01-01")
	second := testsupport.Movie(2, "Beta Harbor", 7.5, 9000, 80, "2023-01-01")
	catalog.SetSearch("station harbor", first, second)
	catalog.AddMovie(tmdb.Movie{ID: 1, Title: "Completely Different", PosterPath: "/x_1.jpg"}, 90)
	register(catalog, second)

	rec := newRecommender(catalog, staticHistory{})
	result, err := rec.Recommend(context.Background(), recommend.Request{Query: "station harbor"})
	if err != nil {
		t.Fatalf("Recommend returned error: %v", err)
	}
	if result.Head.ID != 2 {
		t.Fatalf("expected second candidate after mismatch, got %d", result.Head.ID)
	}
	if !reflect.DeepEqual(result.Dropped, []int64{1}) {
		t.Fatalf("expected mismatched id reported, got %v", result.Dropped)
	}
	for _, q := range result.Queue {
		if q.ID == 1 {
			t.Fatal("dropped candidate must not be queued")
		}
	}
}

func TestFallbackIgnoresClassifier(t *testing.T) {
	catalog := testsupport.NewFakeCatalog()
	film := testsupport.Movie(7, "Past Lives", 7.8, 2200, 30, "2023-06-02")
	catalog.SetDiscover(film)
	register(catalog, film)

	rec := newRecommender(catalog, staticHistory{})
	result, err := rec.Recommend(context.Background(), recommend.Request{Query: "christmas drama"})
	if !errors.Is(err, recommend.ErrNoResult) {
		t.Fatalf("expected no result from search, got %+v, %v", result, err)
	}

	result, err = rec.Fallback(context.Background(), recommend.Request{Query: "christmas drama"})
	if err != nil {
		t.Fatalf("Fallback returned error: %v", err)
	}
	if result.Strategy != recommend.StrategyFallback || result.Head.ID != 7 {
		t.Fatalf("unexpected fallback result %+v", result)
	}
	opts := catalog.DiscoverOptions()
	if len(opts) != 1 || !reflect.DeepEqual(opts[0].GenreIDs, []int{10751, 18}) {
		t.Fatalf("expected keyword genres in fallback discovery, got %+v", opts)
	}
}

func TestSearchTerm(t *testing.T) {
	tests := []struct {
		query   string
		holiday bool
		want    string
	}{
		{"Find me a movie about the ocean", false, "movie about ocean"},
		{"give me one two three four five six", false, "one two three four five"},
		{"a holiday classic", true, "christmas"},
		{"the a an", false, ""},
	}
	for _, tt := range tests {
		if got := recommend.SearchTerm(tt.query, tt.holiday); got != tt.want {
			t.Errorf("SearchTerm(%q) = %q, want %q", tt.query, got, tt.want)
		}
	}
}

func TestVerifyProposals(t *testing.T) {
	catalog := testsupport.NewFakeCatalog()
	good := testsupport.Movie(1, "Good One", 8.0, 5000, 50, "2020-01-01")
	weak := testsupport.Movie(2, "Weak One", 6.0, 5000, 50, "2020-01-01")
	noPoster := testsupport.Movie(3, "No Poster", 8.0, 5000, 50, "2020-01-01")
	noPoster.PosterPath = ""
	register(catalog, good, weak, noPoster)

	rec := newRecommender(catalog, staticHistory{})
	accepted, dropped := rec.VerifyProposals(context.Background(), []recommend.Proposal{
		{ID: 2, Title: "Weak One"},
		{ID: 1, Title: "Wrong Title Entirely"},
		{ID: 3, Title: "No Poster"},
		{ID: 1, Title: "Good One"},
		{ID: 4, Title: "Excluded"},
	}, recommend.ExcludedSet(4))

	if len(accepted) != 0 {
		t.Fatalf("expected duplicates after a mismatch to be skipped, got %v", movie.IDs(accepted))
	}
	if !reflect.DeepEqual(dropped, []int64{1}) {
		t.Fatalf("unexpected dropped %v", dropped)
	}

	accepted, _ = rec.VerifyProposals(context.Background(), []recommend.Proposal{{ID: 1, Title: "Good One"}}, nil)
	if len(accepted) != 1 || accepted[0].ID != 1 {
		t.Fatalf("expected good proposal accepted, got %v", movie.IDs(accepted))
	}
}
