package recommend

import (
	"context"
	"fmt"

	"cinepick/internal/logging"
	"cinepick/internal/movie"
)

// Proposal is a candidate suggested outside the pipeline, typically by the
// conversational agent.
type Proposal struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// VerifyProposals checks proposals in order and returns those whose detail
// record matches, carries a poster, and meets the primary rating and vote
// thresholds. Excluded ids are skipped without a fetch. Mismatched ids are
// returned in dropped.
func (r *Recommender) VerifyProposals(ctx context.Context, proposals []Proposal, excluded map[int64]struct{}) (accepted []movie.Candidate, dropped []int64) {
	seen := make(map[int64]struct{}, len(proposals))
	for _, p := range proposals {
		if p.ID <= 0 {
			continue
		}
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}
		if _, skip := excluded[p.ID]; skip {
			continue
		}
		candidate, err := r.verifyProposal(ctx, p)
		if err != nil {
			if IsIdentityMismatch(err) {
				dropped = append(dropped, p.ID)
			}
			r.logger.Debug("proposal rejected",
				logging.Int64(logging.FieldMovieID, p.ID),
				logging.String("title", p.Title),
				logging.Error(err),
			)
			continue
		}
		accepted = append(accepted, candidate)
	}
	return accepted, dropped
}

func (r *Recommender) verifyProposal(ctx context.Context, p Proposal) (movie.Candidate, error) {
	candidate, err := r.details.Fetch(ctx, p.ID, p.Title)
	if err != nil {
		return movie.Candidate{}, err
	}
	if candidate.PosterURL == "" {
		return movie.Candidate{}, fmt.Errorf("proposal %d has no valid poster", p.ID)
	}
	if !r.rules.Acceptable(candidate) {
		return movie.Candidate{}, fmt.Errorf("proposal %d below quality threshold (rating %.1f, votes %d)", p.ID, candidate.Rating, candidate.VoteCount)
	}
	return candidate, nil
}
