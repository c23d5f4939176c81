package preflight

import (
	"context"

	"cinepick/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
	}
	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}

	results = append(results, CheckTMDB(ctx, cfg.TMDB.BaseURL, cfg.TMDB.APIKey))

	switch cfg.Memory.Backend {
	case "sqlite":
		results = append(results, CheckSQLite(ctx, cfg.Memory.SQLitePath))
	case "mem0":
		results = append(results, CheckMem0(ctx, cfg.Memory.BaseURL, cfg.Memory.APIKey))
	}

	if cfg.Delivery.Backend == "ntfy" {
		results = append(results, CheckNtfy(ctx, cfg.Delivery.NtfyTopic))
	}

	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
