package recommend

import (
	"math"
	"sort"
	"strings"
	"time"

	"cinepick/internal/memory"
	"cinepick/internal/movie"
)

// Scorer computes the composite relevance score.
type Scorer struct {
	// Now anchors the recency bonus; nil uses time.Now.
	Now func() time.Time
	// DislikedGenrePenalty is subtracted per candidate genre the user dislikes.
	DislikedGenrePenalty float64
}

// Score rates one candidate for query. Higher is better.
func (s Scorer) Score(c movie.Candidate, query string, history memory.History) float64 {
	var score float64
	if c.FromPerson {
		score += 50
	}
	score += 6 * c.Rating

	switch {
	case c.VoteCount >= 10000:
		score += 15
	case c.VoteCount >= 5000:
		score += 10
	case c.VoteCount >= 2000:
		score += 6
	case c.VoteCount < 1000:
		score -= 5
	}

	switch {
	case c.Popularity >= 100:
		score += 12
	case c.Popularity >= 50:
		score += 8
	case c.Popularity < 5:
		score -= 3
	}

	if year := c.Year(); year > 0 {
		if year < 2010 {
			score -= 15
		} else if year >= 2020 {
			score += math.Min(float64(year-2020)*2, 10)
		}
		if year >= s.now().Year()-2 {
			score += 8
		}
	}

	title := strings.ToLower(c.Title)
	overview := strings.ToLower(c.Overview)
	for _, word := range queryWords(query) {
		if strings.Contains(title, word) {
			score += 10
		}
		if strings.Contains(overview, word) {
			score += 3
		}
	}

	if s.DislikedGenrePenalty > 0 {
		for _, genre := range c.Genres {
			if history.Dislikes(genre) {
				score -= s.DislikedGenrePenalty
			}
		}
	}
	return score
}

// Rank orders candidates by descending score. Ties keep retrieval order and a
// single candidate is returned as is.
func (s Scorer) Rank(candidates []movie.Candidate, query string, history memory.History) []movie.Candidate {
	if len(candidates) <= 1 {
		return candidates
	}
	type scored struct {
		candidate movie.Candidate
		score     float64
	}
	items := make([]scored, len(candidates))
	for i, c := range candidates {
		items[i] = scored{candidate: c, score: s.Score(c, query, history)}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].score > items[j].score
	})
	out := make([]movie.Candidate, len(items))
	for i, item := range items {
		out[i] = item.candidate
	}
	return out
}

func (s Scorer) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// queryWords returns the distinct lower-cased words of query longer than two
// characters, in first-seen order.
func queryWords(query string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, word := range strings.Fields(strings.ToLower(query)) {
		if len(word) <= 2 {
			continue
		}
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		out = append(out, word)
	}
	return out
}
