package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"cinepick/internal/config"
	"cinepick/internal/logging"
	"cinepick/internal/movie"
)

const (
	userAgent          = "cinepick/0.1.0"
	maxOverviewRunes   = 200
	noOverviewFallback = "No description available."
)

// Service defines the delivery surface used by conversation sessions.
type Service interface {
	// Offer presents a verified candidate with watch, dislike, and watched
	// choices.
	Offer(ctx context.Context, conversationID string, c movie.Candidate) error
	// AskRating asks for a 1-10 rating of a movie the user set out to watch.
	AskRating(ctx context.Context, conversationID string, c movie.Candidate) error
	// Notify sends a plain text reply.
	Notify(ctx context.Context, conversationID, text string) error
}

// NewService builds the delivery service selected by cfg.Delivery.Backend.
// The ntfy backend requires a topic; anything else yields a noop service.
func NewService(cfg *config.Config, logger *slog.Logger) Service {
	if cfg == nil || cfg.Delivery.Backend != "ntfy" {
		return Noop{}
	}
	topic := strings.TrimSpace(cfg.Delivery.NtfyTopic)
	if topic == "" {
		return Noop{}
	}

	timeout := time.Duration(cfg.Delivery.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return NewNtfy(topic, cfg.Delivery.PublicBaseURL, &http.Client{Timeout: timeout}, logger)
}

// Overview returns the candidate overview truncated for display.
func Overview(c movie.Candidate) string {
	text := strings.TrimSpace(c.Overview)
	if text == "" {
		return noOverviewFallback
	}
	if utf8.RuneCountInString(text) <= maxOverviewRunes {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:maxOverviewRunes])) + "..."
}

// OfferText renders the message body for an offer.
func OfferText(c movie.Candidate) string {
	var b strings.Builder
	b.WriteString("🎬 ")
	b.WriteString(c.Label())
	fmt.Fprintf(&b, "\n⭐ %.1f/10", c.Rating)
	if genres := c.GenreList(); genres != "" {
		b.WriteString(" · ")
		b.WriteString(genres)
	}
	b.WriteString("\n\n")
	b.WriteString(Overview(c))
	if c.TrailerURL != "" {
		b.WriteString("\n\nTrailer: ")
		b.WriteString(c.TrailerURL)
	}
	return b.String()
}

// RatingPromptText renders the message body asking for a rating.
func RatingPromptText(c movie.Candidate) string {
	return fmt.Sprintf("How was %s? Rate it from 1 to 10 so I can tune your next picks.", c.Title)
}

// Noop discards every message.
type Noop struct{}

func (Noop) Offer(context.Context, string, movie.Candidate) error     { return nil }
func (Noop) AskRating(context.Context, string, movie.Candidate) error { return nil }
func (Noop) Notify(context.Context, string, string) error             { return nil }

func deliveryFailed(logger *slog.Logger, kind, conversationID string, err error) {
	logging.WarnWithContext(logger, "delivery failed", "delivery_failed",
		logging.String("kind", kind),
		logging.String(logging.FieldConversationID, conversationID),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check delivery.ntfy_topic and network reachability"),
		logging.String(logging.FieldImpact, "the user does not see this message on the push channel"),
	)
}
