package recommend

import (
	"context"
	"sort"
	"strings"

	"cinepick/internal/classify"
	"cinepick/internal/logging"
	"cinepick/internal/movie"
	"cinepick/internal/textutil"
	"cinepick/internal/tmdb"
)

// Strategy names the retrieval path that produced a result.
type Strategy string

const (
	StrategyPerson   Strategy = "person"
	StrategyDiscover Strategy = "discover"
	StrategySearch   Strategy = "search"
	StrategyFallback Strategy = "fallback_discover"
	StrategyNone     Strategy = "none"
)

const (
	maxPersonCandidates   = 30
	maxDiscoverCandidates = 20
	maxSearchCandidates   = 10
	maxSearchWords        = 5
	holidaySearchTerm     = "christmas"
)

var searchStopWords = textutil.NewStopWords("find", "a", "the", "an", "for", "me", "give")

// SearchTerm builds the title-search query: "christmas" for holiday requests,
// otherwise the first five lower-cased words that are not stop words.
func SearchTerm(query string, holiday bool) string {
	if holiday {
		return holidaySearchTerm
	}
	return strings.Join(textutil.DropStopWords(query, searchStopWords, maxSearchWords), " ")
}

// retrieve runs the strategies in order and returns the first non-empty
// candidate list: person credits, genre discovery, then title search.
func (r *Recommender) retrieve(ctx context.Context, c classify.Classification, query string, excluded map[int64]struct{}) ([]movie.Candidate, Strategy) {
	if c.IsPerson() {
		if got := r.personCandidates(ctx, c.Name, c.Department, excluded); len(got) > 0 {
			return got, StrategyPerson
		}
		r.logger.Info("person strategy yielded nothing, falling through",
			logging.Args(logging.DecisionAttrs("retrieval_strategy", "fallthrough", "person_empty")...)...)
	}
	if len(c.Genres) > 0 && !c.Holiday {
		if got := r.discover(ctx, c.Genres, excluded); len(got) > 0 {
			return got, StrategyDiscover
		}
	}
	if got := r.search(ctx, SearchTerm(query, c.Holiday)); len(got) > 0 {
		return got, StrategySearch
	}
	return nil, StrategyNone
}

// personCandidates resolves name to the first person hit and returns that
// person's credits in the requested department. When the request did not ask
// for crew explicitly, people known for something other than acting use their
// crew credits.
func (r *Recommender) personCandidates(ctx context.Context, name string, dept classify.Department, excluded map[int64]struct{}) []movie.Candidate {
	people, err := r.catalog.SearchPerson(ctx, name)
	if err != nil {
		r.upstreamFailed("person search failed", "person_search_failed", err, logging.String("person", name))
		return nil
	}
	if people == nil || len(people.Results) == 0 {
		r.logger.Debug("no person matched", logging.String("person", name))
		return nil
	}
	person := people.Results[0]

	credits, err := r.catalog.PersonMovieCredits(ctx, person.ID)
	if err != nil {
		r.upstreamFailed("person credits failed", "person_credits_failed", err,
			logging.String("person", person.Name),
			logging.Int64("person_id", person.ID),
		)
		return nil
	}
	if credits == nil {
		return nil
	}

	useCrew := dept == classify.DepartmentCrew ||
		(person.KnownForDepartment != "" && person.KnownForDepartment != "Acting")
	list := credits.Cast
	if useCrew {
		list = credits.Crew
	}

	seen := make(map[int64]struct{}, len(list))
	var out []movie.Candidate
	for _, credit := range list {
		if credit.ID <= 0 {
			continue
		}
		if _, dup := seen[credit.ID]; dup {
			continue
		}
		seen[credit.ID] = struct{}{}
		if _, skip := excluded[credit.ID]; skip {
			continue
		}
		candidate := credit.Movie.Candidate()
		candidate.FromPerson = true
		if candidate.Rating < r.rules.FallbackMinRating || candidate.VoteCount < r.rules.FallbackMinVotes {
			continue
		}
		out = append(out, candidate)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Popularity != out[j].Popularity {
			return out[i].Popularity > out[j].Popularity
		}
		return out[i].Rating > out[j].Rating
	})
	if len(out) > maxPersonCandidates {
		out = out[:maxPersonCandidates]
	}
	r.logger.Info("person credits retrieved",
		logging.String("person", person.Name),
		logging.Bool("crew", useCrew),
		logging.Int("candidates", len(out)),
	)
	return out
}

// discover queries popular recent titles for up to two genres, dropping
// excluded ids and capping the list at 20.
func (r *Recommender) discover(ctx context.Context, genres []int, excluded map[int64]struct{}) []movie.Candidate {
	ids := uniqueGenres(genres, classify.MaxGenres)
	page, err := r.catalog.DiscoverMovies(ctx, tmdb.DiscoverOptions{
		GenreIDs:      ids,
		MinRating:     r.rules.MinRating,
		MinVotes:      r.rules.MinVotes,
		ReleasedAfter: r.discoverSince,
		SortBy:        "popularity.desc",
		Page:          1,
	})
	if err != nil {
		r.upstreamFailed("discover failed", "discover_failed", err, logging.Any("genres", ids))
		return nil
	}
	if page == nil {
		return nil
	}
	out := DropExcluded(tmdb.Candidates(page.Results), excluded)
	if len(out) > maxDiscoverCandidates {
		out = out[:maxDiscoverCandidates]
	}
	return out
}

func (r *Recommender) search(ctx context.Context, term string) []movie.Candidate {
	if term == "" {
		return nil
	}
	page, err := r.catalog.SearchMovies(ctx, term)
	if err != nil {
		r.upstreamFailed("title search failed", "search_failed", err, logging.String("term", term))
		return nil
	}
	if page == nil {
		return nil
	}
	out := tmdb.Candidates(page.Results)
	if len(out) > maxSearchCandidates {
		out = out[:maxSearchCandidates]
	}
	return out
}

func (r *Recommender) upstreamFailed(msg, eventType string, err error, attrs ...logging.Attr) {
	attrs = append(attrs,
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check TMDB connectivity and API key"),
		logging.String(logging.FieldImpact, "falling back to the next retrieval strategy"),
	)
	logging.WarnWithContext(r.logger, msg, eventType, attrs...)
}

func uniqueGenres(genres []int, limit int) []int {
	var out []int
	for _, id := range genres {
		dup := false
		for _, existing := range out {
			if existing == id {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		out = append(out, id)
		if len(out) == limit {
			break
		}
	}
	return out
}
