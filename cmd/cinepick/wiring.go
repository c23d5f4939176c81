package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cinepick/internal/config"
	"cinepick/internal/delivery"
	"cinepick/internal/detailcache"
	"cinepick/internal/logging"
	"cinepick/internal/memory"
	"cinepick/internal/recommend"
	"cinepick/internal/session"
	"cinepick/internal/tmdb"
	"cinepick/internal/verify"
)

// application holds the collaborators shared by every command.
type application struct {
	cfg      *config.Config
	logger   *slog.Logger
	catalog  *tmdb.Client
	memory   *memory.Client
	pipeline *recommend.Recommender
	sessions *session.Manager

	closers []func() error
}

// newApplication wires the catalog gateway, detail cache, memory backend,
// pipeline, and session manager from cfg. A nil out uses the configured
// delivery backend.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, out delivery.Service) (*application, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	catalog, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language,
		tmdb.WithTimeouts(tmdb.Timeouts{
			Search:   cfg.Timeouts.SearchTimeout(),
			Discover: cfg.Timeouts.DiscoverTimeout(),
			Person:   cfg.Timeouts.PersonTimeout(),
			Details:  cfg.Timeouts.DetailsTimeout(),
			Videos:   cfg.Timeouts.VideosTimeout(),
		}),
		tmdb.WithRateLimit(cfg.TMDB.RequestsPerSecond, cfg.TMDB.Burst),
		tmdb.WithBreaker(tmdb.BreakerSettings{
			FailureThreshold: uint32(cfg.TMDB.BreakerFailureThreshold),
			Cooldown:         cfg.TMDB.BreakerCooldown(),
		}),
		tmdb.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("create tmdb client: %w", err)
	}

	app := &application{cfg: cfg, logger: logger, catalog: catalog}

	store, err := app.openMemoryStore(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.memory = memory.NewClient(store, cfg.Timeouts.MemoryQueryTimeout(), cfg.Timeouts.MemoryWriteTimeout(), logger)

	details := recommend.NewDetailFetcher(
		catalog,
		detailcache.New(cfg.Cache.MaxEntries, logger),
		verify.NewPosterValidator(cfg.TMDB.PosterSize, logger),
		verify.IdentityChecker{TitleWindow: cfg.Quality.TitleMatchWords},
		cfg.Timeouts.DetailsTimeout(),
		logger,
	)
	app.pipeline = recommend.New(catalog, app.memory, details, recommend.OptionsFromConfig(cfg), logger)

	if out == nil {
		out = delivery.NewService(cfg, logger)
	}
	app.sessions = session.New(app.pipeline, app.memory, out, session.OptionsFromConfig(cfg), logger)
	app.closers = append(app.closers, func() error {
		app.sessions.Close()
		return nil
	})
	return app, nil
}

func (a *application) openMemoryStore(ctx context.Context) (memory.Store, error) {
	switch a.cfg.Memory.Backend {
	case "sqlite":
		store, err := memory.OpenSQLite(ctx, a.cfg.Memory.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open memory store: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		a.logger.Debug("memory backend ready",
			logging.String("backend", "sqlite"),
			logging.String("path", store.Path()),
		)
		return store, nil
	case "mem0":
		store, err := memory.NewMem0Store(a.cfg.Memory.APIKey, a.cfg.Memory.BaseURL, nil)
		if err != nil {
			return nil, fmt.Errorf("create mem0 client: %w", err)
		}
		return store, nil
	default:
		return nil, nil
	}
}

// Close releases sessions and the memory store in reverse order of creation.
func (a *application) Close() {
	if a == nil {
		return
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close failed", logging.Error(err))
		}
	}
	a.closers = nil
}

// newApplicationFromContext loads config and logger through ctx and wires the
// application.
func newApplicationFromContext(cmdCtx context.Context, ctx *commandContext, out delivery.Service) (*application, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return newApplication(cmdCtx, cfg, logger, out)
}
