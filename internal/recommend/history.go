package recommend

import (
	"context"
	"strings"

	"cinepick/internal/memory"
	"cinepick/internal/movie"
)

// HistorySource supplies what the memory service knows about a user.
type HistorySource interface {
	History(ctx context.Context, userID string) memory.History
}

// ExcludeHistory drops candidates whose id is excluded or watched, or whose
// title contains (or is contained in) a watched title, ignoring case.
func ExcludeHistory(candidates []movie.Candidate, excluded map[int64]struct{}, history memory.History) []movie.Candidate {
	if history.Empty() {
		return DropExcluded(candidates, excluded)
	}
	watched := make([]string, 0, len(history.WatchedTitles))
	for _, title := range history.WatchedTitles {
		if t := strings.ToLower(strings.TrimSpace(title)); t != "" {
			watched = append(watched, t)
		}
	}

	var out []movie.Candidate
	for _, c := range candidates {
		if _, skip := excluded[c.ID]; skip {
			continue
		}
		if history.Watched(c.ID) {
			continue
		}
		if titleWatched(strings.ToLower(strings.TrimSpace(c.Title)), watched) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func titleWatched(title string, watched []string) bool {
	if title == "" {
		return false
	}
	for _, w := range watched {
		if strings.Contains(title, w) || strings.Contains(w, title) {
			return true
		}
	}
	return false
}

// DropExcluded removes candidates whose id is in excluded, keeping order.
func DropExcluded(candidates []movie.Candidate, excluded map[int64]struct{}) []movie.Candidate {
	if len(excluded) == 0 {
		return candidates
	}
	out := make([]movie.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if _, skip := excluded[c.ID]; !skip {
			out = append(out, c)
		}
	}
	return out
}
