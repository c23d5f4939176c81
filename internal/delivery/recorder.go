package delivery

import (
	"context"
	"sync"

	"cinepick/internal/movie"
)

// Kind labels a recorded message.
type Kind string

const (
	KindOffer  Kind = "offer"
	KindRating Kind = "rating"
	KindNotify Kind = "notify"
)

// Message is one recorded delivery.
type Message struct {
	Kind           Kind
	ConversationID string
	Candidate      movie.Candidate
	Text           string
}

// Recorder keeps delivered messages in memory. OnMessage, when set, is called
// for every message after it is recorded.
type Recorder struct {
	mu       sync.Mutex
	messages []Message

	OnMessage func(Message)
}

var _ Service = (*Recorder)(nil)

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Offer(_ context.Context, conversationID string, c movie.Candidate) error {
	r.record(Message{Kind: KindOffer, ConversationID: conversationID, Candidate: c.Clone(), Text: OfferText(c)})
	return nil
}

func (r *Recorder) AskRating(_ context.Context, conversationID string, c movie.Candidate) error {
	r.record(Message{Kind: KindRating, ConversationID: conversationID, Candidate: c.Clone(), Text: RatingPromptText(c)})
	return nil
}

func (r *Recorder) Notify(_ context.Context, conversationID, text string) error {
	r.record(Message{Kind: KindNotify, ConversationID: conversationID, Text: text})
	return nil
}

func (r *Recorder) record(m Message) {
	r.mu.Lock()
	r.messages = append(r.messages, m)
	hook := r.OnMessage
	r.mu.Unlock()
	if hook != nil {
		hook(m)
	}
}

// Messages returns every recorded message in order.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}

// Offers returns the ids offered to conversationID in order.
func (r *Recorder) Offers(conversationID string) []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []int64
	for _, m := range r.messages {
		if m.Kind == KindOffer && m.ConversationID == conversationID {
			ids = append(ids, m.Candidate.ID)
		}
	}
	return ids
}

// Count returns how many messages of kind were recorded.
func (r *Recorder) Count(kind Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range r.messages {
		if m.Kind == kind {
			n++
		}
	}
	return n
}
