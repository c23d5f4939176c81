package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"cinepick/internal/movie"
)

var (
	// ErrUnknownConversation reports an action on a conversation that has no
	// state, either never created or swept after idling.
	ErrUnknownConversation = errors.New("unknown conversation")
	// ErrUnknownCandidate reports an action on a movie that was not offered
	// for the active prompt.
	ErrUnknownCandidate = errors.New("candidate was not offered in this conversation")
	// ErrUnknownAction reports an unsupported candidate action.
	ErrUnknownAction = errors.New("unknown candidate action")
	// ErrInvalidRating reports a rating outside 1-10.
	ErrInvalidRating = errors.New("rating must be between 1 and 10")
	// ErrEmptyPrompt reports a blank message.
	ErrEmptyPrompt = errors.New("prompt is empty")
)

// Action is a user response to an offered candidate.
type Action string

const (
	ActionWatch   Action = "watch"
	ActionDislike Action = "dislike"
	ActionWatched Action = "watched"
)

// ParseAction maps a case-insensitive action name to an Action.
func ParseAction(value string) (Action, error) {
	action := Action(strings.ToLower(strings.TrimSpace(value)))
	switch action {
	case ActionWatch, ActionDislike, ActionWatched:
		return action, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, value)
	}
}

// Outcome describes what a transition produced.
type Outcome string

const (
	// OutcomeOffered means Reply.Candidate was delivered.
	OutcomeOffered Outcome = "offered"
	// OutcomeWatching means a rating prompt was scheduled.
	OutcomeWatching Outcome = "watching"
	// OutcomeRated means a rating was stored.
	OutcomeRated Outcome = "rated"
	// OutcomeNoResult means a new prompt produced nothing.
	OutcomeNoResult Outcome = "no_result"
	// OutcomeExhausted means every source ran dry after a rejection.
	OutcomeExhausted Outcome = "exhausted"
)

// Sources of an offered candidate besides the pipeline strategies.
const (
	SourceAgent    = "agent"
	SourcePrefetch = "prefetch"
	SourceQueue    = "queue"
)

// Reply is the result of a session transition.
type Reply struct {
	Outcome   Outcome
	Message   string
	Candidate *movie.Candidate
	// Source names where an offered candidate came from: a pipeline strategy,
	// the agent, the prefetch slot, or the queue.
	Source string
}

// Watching describes a pending rating prompt.
type Watching struct {
	MovieID int64
	Title   string
	Since   time.Time
}

// Snapshot is a read-only copy of one conversation.
type Snapshot struct {
	ConversationID string
	UserID         string
	Prompt         string
	Current        *movie.Candidate
	Queue          []movie.Candidate
	Excluded       []int64
	Prefetched     *movie.Candidate
	Watching       []Watching
	LastActive     time.Time
}
