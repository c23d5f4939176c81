package recommend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"cinepick/internal/detailcache"
	"cinepick/internal/logging"
	"cinepick/internal/movie"
	"cinepick/internal/tmdb"
	"cinepick/internal/verify"
)

const defaultDetailTimeout = 3 * time.Second

// DetailFetcher loads verified detail records, consulting the cache first.
type DetailFetcher struct {
	catalog  tmdb.Catalog
	cache    *detailcache.Cache
	posters  *verify.PosterValidator
	identity verify.IdentityChecker
	timeout  time.Duration
	logger   *slog.Logger
}

// NewDetailFetcher wires a fetcher. A nil cache gets a default-sized one, a
// nil poster validator renders w500, and a non-positive timeout uses 3s as the
// joint deadline for the details and videos calls.
func NewDetailFetcher(catalog tmdb.Catalog, cache *detailcache.Cache, posters *verify.PosterValidator, identity verify.IdentityChecker, timeout time.Duration, logger *slog.Logger) *DetailFetcher {
	if cache == nil {
		cache = detailcache.New(detailcache.DefaultMaxEntries, logger)
	}
	if posters == nil {
		posters = verify.NewPosterValidator(verify.DefaultPosterSize, logger)
	}
	if timeout <= 0 {
		timeout = defaultDetailTimeout
	}
	return &DetailFetcher{
		catalog:  catalog,
		cache:    cache,
		posters:  posters,
		identity: identity,
		timeout:  timeout,
		logger:   logging.NewComponentLogger(logger, "details"),
	}
}

// Cache exposes the underlying detail cache.
func (f *DetailFetcher) Cache() *detailcache.Cache {
	return f.cache
}

// Posters exposes the poster validator.
func (f *DetailFetcher) Posters() *verify.PosterValidator {
	return f.posters
}

// Fetch returns the verified detail record for id. expectedTitle, when set,
// must be compatible with the catalog title or verify.ErrIdentityMismatch is
// returned. Details and videos are requested concurrently; a videos failure
// only leaves the trailer empty.
func (f *DetailFetcher) Fetch(ctx context.Context, id int64, expectedTitle string) (movie.Candidate, error) {
	if id <= 0 {
		return movie.Candidate{}, fmt.Errorf("%w: invalid id %d", verify.ErrIdentityMismatch, id)
	}
	if cached, ok := f.cache.Lookup(id); ok {
		if err := f.identity.Check(id, expectedTitle, cached.ID, cached.Title); err == nil {
			return cached, nil
		}
		f.cache.Remove(id)
		f.logger.Debug("cached record title differs, evicted and refetching",
			logging.Int64(logging.FieldMovieID, id),
			logging.String("expected_title", expectedTitle),
			logging.String("cached_title", cached.Title),
		)
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	var (
		details *tmdb.MovieDetails
		videos  *tmdb.VideoList
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d, err := f.catalog.MovieDetails(gCtx, id)
		if err != nil {
			return fmt.Errorf("movie details %d: %w", id, err)
		}
		details = d
		return nil
	})
	g.Go(func() error {
		v, err := f.catalog.MovieVideos(gCtx, id)
		if err != nil {
			f.logger.Debug("movie videos unavailable",
				logging.Int64(logging.FieldMovieID, id),
				logging.Error(err),
			)
			return nil
		}
		videos = v
		return nil
	})
	if err := g.Wait(); err != nil {
		return movie.Candidate{}, err
	}
	if details == nil {
		return movie.Candidate{}, fmt.Errorf("movie details %d: empty response", id)
	}

	if err := f.identity.Check(id, expectedTitle, details.ID, details.Title); err != nil {
		logging.WarnWithContext(f.logger, "catalog record does not match candidate", "identity_mismatch",
			logging.Int64(logging.FieldMovieID, id),
			logging.String("expected_title", expectedTitle),
			logging.String("catalog_title", details.Title),
			logging.Int64("catalog_id", details.ID),
			logging.String(logging.FieldErrorHint, "candidate list and detail record disagree"),
			logging.String(logging.FieldImpact, "candidate dropped and excluded"),
		)
		return movie.Candidate{}, err
	}

	candidate := details.Candidate()
	candidate.PosterURL = f.posters.URL(candidate.PosterPath)
	candidate.TrailerURL = videos.TrailerURL()
	candidate.Verified = true
	f.cache.Store(candidate)
	return candidate.Clone(), nil
}

// Runtime returns the runtime in minutes for id, from the cache when present
// and otherwise from a detail fetch. Zero means unknown.
func (f *DetailFetcher) Runtime(ctx context.Context, id int64) int {
	if cached, ok := f.cache.Lookup(id); ok && cached.RuntimeMinutes > 0 {
		return cached.RuntimeMinutes
	}
	details, err := f.Fetch(ctx, id, "")
	if err != nil {
		return 0
	}
	return details.RuntimeMinutes
}

// IsIdentityMismatch reports whether err came from a failed identity check.
func IsIdentityMismatch(err error) bool {
	return errors.Is(err, verify.ErrIdentityMismatch)
}
