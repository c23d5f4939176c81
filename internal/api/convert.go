package api

import (
	"cinepick/internal/delivery"
	"cinepick/internal/movie"
	"cinepick/internal/session"
)

// FromCandidate converts a movie candidate. The overview is truncated the same
// way delivery renders it.
func FromCandidate(c movie.Candidate) Candidate {
	out := Candidate{
		ID:             c.ID,
		Title:          c.Title,
		Year:           c.Year(),
		Overview:       delivery.Overview(c),
		Rating:         c.Rating,
		VoteCount:      c.VoteCount,
		PosterURL:      c.PosterURL,
		TrailerURL:     c.TrailerURL,
		RuntimeMinutes: c.RuntimeMinutes,
	}
	if len(c.Genres) > 0 {
		out.Genres = append([]string(nil), c.Genres...)
	}
	return out
}

func candidatePtr(c *movie.Candidate) *Candidate {
	if c == nil {
		return nil
	}
	out := FromCandidate(*c)
	return &out
}

// FromReply converts a session transition result.
func FromReply(r session.Reply) ReplyResponse {
	return ReplyResponse{
		Outcome:   string(r.Outcome),
		Message:   r.Message,
		Source:    r.Source,
		Candidate: candidatePtr(r.Candidate),
	}
}

// FromSnapshot converts a conversation snapshot.
func FromSnapshot(s session.Snapshot) ConversationResponse {
	out := ConversationResponse{
		ID:         s.ConversationID,
		UserID:     s.UserID,
		Prompt:     s.Prompt,
		Current:    candidatePtr(s.Current),
		Queue:      make([]Candidate, 0, len(s.Queue)),
		Excluded:   append([]int64{}, s.Excluded...),
		Prefetched: candidatePtr(s.Prefetched),
		Watching:   make([]WatchingItem, 0, len(s.Watching)),
	}
	if !s.LastActive.IsZero() {
		out.LastActive = s.LastActive.UTC().Format(dateTimeFormat)
	}
	for _, c := range s.Queue {
		out.Queue = append(out.Queue, FromCandidate(c))
	}
	for _, w := range s.Watching {
		out.Watching = append(out.Watching, WatchingItem{
			MovieID: w.MovieID,
			Title:   w.Title,
			Since:   w.Since.UTC().Format(dateTimeFormat),
		})
	}
	return out
}
