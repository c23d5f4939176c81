package session

import (
	"context"
	"slices"
	"sync"
	"time"

	"cinepick/internal/movie"
)

type prefetchSlot struct {
	prompt     string
	generation uint64
	candidate  movie.Candidate
}

type watchMarker struct {
	candidate movie.Candidate
	since     time.Time
	job       string
}

// conversation is guarded by mu. The Manager map lock is always taken before
// mu, never after.
type conversation struct {
	id     string
	userID string

	prompt     string
	generation uint64
	queue      []movie.Candidate
	excluded   map[int64]struct{}
	offered    map[int64]movie.Candidate
	current    int64

	prefetched     *prefetchSlot
	cancelPrefetch context.CancelFunc

	watching   map[int64]watchMarker
	lastActive time.Time

	mu sync.Mutex
}

func newConversation(id, userID string, now time.Time) *conversation {
	if userID == "" {
		userID = id
	}
	return &conversation{
		id:         id,
		userID:     userID,
		excluded:   make(map[int64]struct{}),
		offered:    make(map[int64]movie.Candidate),
		watching:   make(map[int64]watchMarker),
		lastActive: now,
	}
}

// reset starts a new prompt. Watching markers survive.
func (c *conversation) reset(prompt string) {
	c.stopPrefetch()
	c.prompt = prompt
	c.generation++
	c.queue = nil
	c.excluded = make(map[int64]struct{})
	c.offered = make(map[int64]movie.Candidate)
	c.current = 0
	c.prefetched = nil
}

func (c *conversation) stopPrefetch() {
	if c.cancelPrefetch != nil {
		c.cancelPrefetch()
		c.cancelPrefetch = nil
	}
}

func (c *conversation) exclude(ids ...int64) {
	for _, id := range ids {
		c.excluded[id] = struct{}{}
	}
}

func (c *conversation) isExcluded(id int64) bool {
	_, ok := c.excluded[id]
	return ok
}

func (c *conversation) excludedCopy() map[int64]struct{} {
	out := make(map[int64]struct{}, len(c.excluded))
	for id := range c.excluded {
		out[id] = struct{}{}
	}
	return out
}

func (c *conversation) excludedIDs() []int64 {
	ids := make([]int64, 0, len(c.excluded))
	for id := range c.excluded {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (c *conversation) dropFromQueue(id int64) {
	c.queue = slices.DeleteFunc(c.queue, func(m movie.Candidate) bool { return m.ID == id })
}

func (c *conversation) snapshot() Snapshot {
	snap := Snapshot{
		ConversationID: c.id,
		UserID:         c.userID,
		Prompt:         c.prompt,
		Queue:          make([]movie.Candidate, 0, len(c.queue)),
		Excluded:       c.excludedIDs(),
		Watching:       make([]Watching, 0, len(c.watching)),
		LastActive:     c.lastActive,
	}
	if cur, ok := c.offered[c.current]; ok {
		clone := cur.Clone()
		snap.Current = &clone
	}
	for _, q := range c.queue {
		snap.Queue = append(snap.Queue, q.Clone())
	}
	if c.prefetched != nil {
		clone := c.prefetched.candidate.Clone()
		snap.Prefetched = &clone
	}
	for id, marker := range c.watching {
		snap.Watching = append(snap.Watching, Watching{MovieID: id, Title: marker.candidate.Title, Since: marker.since})
	}
	slices.SortFunc(snap.Watching, func(a, b Watching) int {
		switch {
		case a.MovieID < b.MovieID:
			return -1
		case a.MovieID > b.MovieID:
			return 1
		}
		return 0
	})
	return snap
}
