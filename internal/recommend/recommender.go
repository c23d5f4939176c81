package recommend

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"cinepick/internal/classify"
	"cinepick/internal/config"
	"cinepick/internal/logging"
	"cinepick/internal/memory"
	"cinepick/internal/metrics"
	"cinepick/internal/movie"
	"cinepick/internal/tmdb"
	"cinepick/internal/verify"
)

// ErrNoResult reports that no acceptable candidate was found.
var ErrNoResult = errors.New("no recommendation found")

const (
	defaultQueueSize = 10
	maxHeadAttempts  = 3
)

// Options tunes the pipeline.
type Options struct {
	Quality QualityRules
	Scorer  Scorer
	// QueueSize caps the alternates returned after the head.
	QueueSize int
	// DiscoverSince is the earliest primary release date for discovery.
	DiscoverSince time.Time
}

// DefaultOptions returns the standard pipeline settings.
func DefaultOptions() Options {
	return Options{
		Quality:       DefaultQualityRules(),
		Scorer:        Scorer{DislikedGenrePenalty: 4},
		QueueSize:     defaultQueueSize,
		DiscoverSince: time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
}

// OptionsFromConfig maps the [quality] and [session] sections to Options.
func OptionsFromConfig(cfg *config.Config) Options {
	opts := DefaultOptions()
	if cfg == nil {
		return opts
	}
	q := cfg.Quality
	opts.Quality = QualityRules{
		MinRating:         q.MinRating,
		MinVotes:          q.MinVotes,
		FallbackMinRating: q.FallbackMinRating,
		FallbackMinVotes:  q.FallbackMinVotes,
		ClassicCutoffYear: q.ClassicCutoffYear,
		ClassicMinRating:  q.ClassicMinRating,
		ClassicMinVotes:   q.ClassicMinVotes,
	}
	opts.Scorer.DislikedGenrePenalty = q.DislikedGenrePenalty
	if cfg.Session.QueueSize > 0 {
		opts.QueueSize = cfg.Session.QueueSize
	}
	if q.DiscoverSinceYear > 0 {
		opts.DiscoverSince = time.Date(q.DiscoverSinceYear, time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	return opts
}

// Request is one recommendation query.
type Request struct {
	Query  string
	UserID string
	// Excluded ids are never returned.
	Excluded map[int64]struct{}
}

// Result is the outcome of a successful pipeline run.
type Result struct {
	// Head is the verified best candidate.
	Head movie.Candidate
	// Queue holds ranked alternates after Head, unverified.
	Queue          []movie.Candidate
	Strategy       Strategy
	Classification classify.Classification
	// Dropped lists ids rejected by identity verification; callers should
	// exclude them.
	Dropped []int64
}

// Candidates returns Head followed by Queue.
func (r Result) Candidates() []movie.Candidate {
	out := make([]movie.Candidate, 0, 1+len(r.Queue))
	out = append(out, r.Head)
	return append(out, r.Queue...)
}

// Recommender runs the retrieval, filtering, ranking, and verification
// pipeline.
type Recommender struct {
	catalog       tmdb.Catalog
	history       HistorySource
	details       *DetailFetcher
	rules         QualityRules
	scorer        Scorer
	queueSize     int
	discoverSince time.Time
	logger        *slog.Logger
}

// New builds a Recommender. A nil history source means no history.
func New(catalog tmdb.Catalog, history HistorySource, details *DetailFetcher, opts Options, logger *slog.Logger) *Recommender {
	if history == nil {
		history = memory.NewClient(nil, 0, 0, logger)
	}
	if details == nil {
		details = NewDetailFetcher(catalog, nil, nil, verify.IdentityChecker{}, 0, logger)
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	return &Recommender{
		catalog:       catalog,
		history:       history,
		details:       details,
		rules:         opts.Quality,
		scorer:        opts.Scorer,
		queueSize:     opts.QueueSize,
		discoverSince: opts.DiscoverSince,
		logger:        logging.NewComponentLogger(logger, "recommend"),
	}
}

// Details exposes the detail fetcher shared with sessions and agent tools.
func (r *Recommender) Details() *DetailFetcher {
	return r.details
}

// Rules returns the quality thresholds in use.
func (r *Recommender) Rules() QualityRules {
	return r.rules
}

// Recommend classifies req.Query and runs the full pipeline.
func (r *Recommender) Recommend(ctx context.Context, req Request) (Result, error) {
	start := time.Now()
	c := classify.Classify(req.Query)
	logger := logging.WithContext(ctx, r.logger)
	logger.Info("request classified",
		logging.String("query", req.Query),
		logging.String("kind", string(c.Kind)),
		logging.String("person", c.Name),
		logging.Any("genres", c.Genres),
		logging.Int("excluded", len(req.Excluded)),
	)

	raw, strategy := r.retrieve(ctx, c, req.Query, req.Excluded)
	result, err := r.finish(ctx, req, c, raw, strategy)
	r.record(strategy, err, time.Since(start))
	return result, err
}

// Fallback ignores the classifier and runs discovery with whatever genre
// keywords the request contains, then filters, ranks, and verifies as usual.
func (r *Recommender) Fallback(ctx context.Context, req Request) (Result, error) {
	start := time.Now()
	c := classify.Classify(req.Query)
	raw := r.discover(ctx, classify.DetectGenres(req.Query), req.Excluded)
	result, err := r.finish(ctx, req, c, raw, StrategyFallback)
	r.record(StrategyFallback, err, time.Since(start))
	return result, err
}

// Discover returns popular recent titles for genres without verification.
// Excluded ids are dropped and at most 20 candidates are returned.
func (r *Recommender) Discover(ctx context.Context, genres []int, excluded map[int64]struct{}) []movie.Candidate {
	out := r.discover(ctx, genres, excluded)
	for i := range out {
		out[i].PosterURL = r.details.Posters().URL(out[i].PosterPath)
	}
	return out
}

func (r *Recommender) finish(ctx context.Context, req Request, c classify.Classification, raw []movie.Candidate, strategy Strategy) (Result, error) {
	logger := logging.WithContext(ctx, r.logger)
	if len(raw) == 0 {
		logger.Info("no candidates retrieved", logging.String("strategy", string(strategy)))
		return Result{}, ErrNoResult
	}

	history := r.history.History(ctx, req.UserID)
	candidates := ExcludeHistory(raw, req.Excluded, history)
	if len(candidates) == 0 {
		logger.Info("history filter removed every candidate",
			logging.Int("retrieved", len(raw)),
			logging.Int("watched_ids", len(history.WatchedIDs)),
		)
		return Result{}, ErrNoResult
	}

	candidates = r.rules.Filter(candidates, c.Holiday)
	if len(candidates) == 0 {
		logger.Info("quality filter removed every candidate", logging.Int("retrieved", len(raw)))
		return Result{}, ErrNoResult
	}
	if c.Holiday {
		candidates = HolidayFilter(candidates)
	}
	candidates = r.scorer.Rank(candidates, req.Query, history)

	result := Result{Strategy: strategy, Classification: c}
	headIndex := -1
	for i := 0; i < len(candidates) && i < maxHeadAttempts; i++ {
		cand := candidates[i]
		verified, err := r.details.Fetch(ctx, cand.ID, cand.Title)
		if err != nil {
			if IsIdentityMismatch(err) {
				result.Dropped = append(result.Dropped, cand.ID)
			}
			logging.WarnWithContext(logger, "candidate verification failed", "candidate_unverified",
				logging.Int64(logging.FieldMovieID, cand.ID),
				logging.String("title", cand.Title),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "catalog details unavailable or inconsistent"),
				logging.String(logging.FieldImpact, "trying the next ranked candidate"),
			)
			continue
		}
		verified.FromPerson = cand.FromPerson
		result.Head = verified
		headIndex = i
		break
	}
	if headIndex < 0 {
		return Result{}, ErrNoResult
	}

	for _, alt := range candidates[headIndex+1:] {
		if len(result.Queue) >= r.queueSize {
			break
		}
		alt.PosterURL = r.details.Posters().URL(alt.PosterPath)
		result.Queue = append(result.Queue, alt)
	}

	attrs := append(logging.DecisionAttrs("recommendation", string(strategy), string(c.Kind)),
		logging.Int64(logging.FieldMovieID, result.Head.ID),
		logging.String("title", result.Head.Title),
		logging.Int("queue", len(result.Queue)),
	)
	logger.Info("recommendation selected", logging.Args(attrs...)...)
	return result, nil
}

func (r *Recommender) record(strategy Strategy, err error, elapsed time.Duration) {
	outcome := "ok"
	if err != nil {
		outcome = "no_result"
	}
	metrics.RecordRecommendation(string(strategy), outcome, elapsed)
}

// ExcludedSet builds an exclusion set from ids.
func ExcludedSet(ids ...int64) map[int64]struct{} {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
