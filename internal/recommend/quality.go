package recommend

import (
	"strings"

	"cinepick/internal/movie"
)

// QualityRules holds the rating and vote thresholds for both tiers.
type QualityRules struct {
	MinRating         float64
	MinVotes          int64
	FallbackMinRating float64
	FallbackMinVotes  int64
	// Titles released before ClassicCutoffYear must also reach
	// ClassicMinRating or ClassicMinVotes in the primary tier.
	ClassicCutoffYear int
	ClassicMinRating  float64
	ClassicMinVotes   int64
}

// DefaultQualityRules returns the standard thresholds.
func DefaultQualityRules() QualityRules {
	return QualityRules{
		MinRating:         7.0,
		MinVotes:          500,
		FallbackMinRating: 6.5,
		FallbackMinVotes:  300,
		ClassicCutoffYear: 2010,
		ClassicMinRating:  8.5,
		ClassicMinVotes:   10000,
	}
}

// Filter applies the primary tier and falls back to the relaxed tier only when
// the primary tier keeps nothing.
func (q QualityRules) Filter(candidates []movie.Candidate, holiday bool) []movie.Candidate {
	if primary := q.Primary(candidates, holiday); len(primary) > 0 {
		return primary
	}
	return q.Relaxed(candidates)
}

// Primary keeps candidates meeting the main thresholds. Older titles must also
// meet the classic exception unless the request is holiday themed.
func (q QualityRules) Primary(candidates []movie.Candidate, holiday bool) []movie.Candidate {
	var out []movie.Candidate
	for _, c := range candidates {
		if c.Rating < q.MinRating || c.VoteCount < q.MinVotes {
			continue
		}
		if !holiday {
			if year := c.Year(); year > 0 && year < q.ClassicCutoffYear &&
				c.Rating < q.ClassicMinRating && c.VoteCount < q.ClassicMinVotes {
				continue
			}
		}
		out = append(out, c)
	}
	return out
}

// Relaxed keeps candidates meeting the fallback thresholds, with no age rule.
func (q QualityRules) Relaxed(candidates []movie.Candidate) []movie.Candidate {
	var out []movie.Candidate
	for _, c := range candidates {
		if c.Rating >= q.FallbackMinRating && c.VoteCount >= q.FallbackMinVotes {
			out = append(out, c)
		}
	}
	return out
}

// Acceptable reports whether a single candidate meets the primary thresholds
// without the age rule.
func (q QualityRules) Acceptable(c movie.Candidate) bool {
	return c.Rating >= q.MinRating && c.VoteCount >= q.MinVotes
}

var holidayMarkers = []string{
	"christmas", "xmas", "holiday", "santa", "elf", "scrooge",
	"home alone", "miracle on", "wonderful life",
}

// HolidayFilter keeps candidates whose title or overview mentions a holiday
// marker. When nothing matches the input is returned unchanged.
func HolidayFilter(candidates []movie.Candidate) []movie.Candidate {
	var out []movie.Candidate
	for _, c := range candidates {
		text := strings.ToLower(c.Title + " " + c.Overview)
		for _, marker := range holidayMarkers {
			if strings.Contains(text, marker) {
				out = append(out, c)
				break
			}
		}
	}
	if len(out) == 0 {
		return candidates
	}
	return out
}
