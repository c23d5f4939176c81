package delivery

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"cinepick/internal/logging"
	"cinepick/internal/movie"
)

// ntfy allows at most three action buttons per message.
const maxActions = 3

// ratingChoices are the quick-rating buttons attached to a rating prompt.
var ratingChoices = []int{3, 7, 10}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
	click    string
	attach   string
	actions  []string
}

// Ntfy publishes messages to an ntfy topic.
type Ntfy struct {
	endpoint   string
	publicBase string
	client     *http.Client
	logger     *slog.Logger
}

// NewNtfy builds an ntfy publisher for the topic URL. publicBase is the API
// address action buttons post back to; empty disables buttons.
func NewNtfy(endpoint, publicBase string, client *http.Client, logger *slog.Logger) *Ntfy {
	if client == nil {
		client = http.DefaultClient
	}
	return &Ntfy{
		endpoint:   endpoint,
		publicBase: strings.TrimRight(strings.TrimSpace(publicBase), "/"),
		client:     client,
		logger:     logging.NewComponentLogger(logger, "delivery"),
	}
}

// Offer publishes a candidate with poster attachment and choice buttons.
func (n *Ntfy) Offer(ctx context.Context, conversationID string, c movie.Candidate) error {
	data := payload{
		title:   "cinepick - " + c.Label(),
		message: OfferText(c),
		tags:    []string{"cinepick", "movie_camera", "offer"},
		click:   c.TrailerURL,
		attach:  c.PosterURL,
	}
	for _, action := range []string{"watch", "dislike", "watched"} {
		if button := n.candidateAction(conversationID, c.ID, action); button != "" {
			data.actions = append(data.actions, button)
		}
	}
	return n.publish(ctx, "offer", conversationID, data)
}

// AskRating publishes a rating prompt with quick-rating buttons.
func (n *Ntfy) AskRating(ctx context.Context, conversationID string, c movie.Candidate) error {
	data := payload{
		title:    "cinepick - How was " + c.Title + "?",
		message:  RatingPromptText(c),
		tags:     []string{"cinepick", "star", "rating"},
		priority: "high",
	}
	for _, value := range ratingChoices {
		if button := n.ratingAction(conversationID, c.ID, value); button != "" {
			data.actions = append(data.actions, button)
		}
	}
	return n.publish(ctx, "rating", conversationID, data)
}

// Notify publishes a plain text reply.
func (n *Ntfy) Notify(ctx context.Context, conversationID, text string) error {
	data := payload{
		title:   "cinepick",
		message: strings.TrimSpace(text),
		tags:    []string{"cinepick"},
	}
	return n.publish(ctx, "notify", conversationID, data)
}

func (n *Ntfy) candidateAction(conversationID string, movieID int64, action string) string {
	if n.publicBase == "" {
		return ""
	}
	target := fmt.Sprintf("%s/v1/conversations/%s/candidates/%d/%s",
		n.publicBase, url.PathEscape(conversationID), movieID, action)
	return fmt.Sprintf("http, %s, %s, method=POST, clear=true", actionLabels[action], target)
}

func (n *Ntfy) ratingAction(conversationID string, movieID int64, value int) string {
	if n.publicBase == "" {
		return ""
	}
	target := fmt.Sprintf("%s/v1/conversations/%s/ratings", n.publicBase, url.PathEscape(conversationID))
	body := fmt.Sprintf(`{"movieId": %d, "rating": %d}`, movieID, value)
	return fmt.Sprintf("http, %d/10, %s, method=POST, headers.Content-Type=application/json, body='%s', clear=true",
		value, target, body)
}

var actionLabels = map[string]string{
	"watch":   "Watch",
	"dislike": "Not for me",
	"watched": "Seen it",
}

func (n *Ntfy) publish(ctx context.Context, kind, conversationID string, data payload) error {
	if err := n.send(ctx, conversationID, data); err != nil {
		deliveryFailed(n.logger, kind, conversationID, err)
		return err
	}
	n.logger.Debug("delivery sent",
		logging.String("kind", kind),
		logging.String(logging.FieldConversationID, conversationID),
	)
	return nil
}

func (n *Ntfy) send(ctx context.Context, conversationID string, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	tags := data.tags
	if conversationID != "" {
		tags = append(append([]string(nil), tags...), "conversation-"+conversationID)
	}
	if len(tags) > 0 {
		req.Header.Set("Tags", strings.Join(tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}
	if data.click != "" {
		req.Header.Set("Click", data.click)
	}
	if data.attach != "" {
		req.Header.Set("Attach", data.attach)
	}
	if len(data.actions) > 0 {
		actions := data.actions
		if len(actions) > maxActions {
			actions = actions[:maxActions]
		}
		req.Header.Set("Actions", strings.Join(actions, "; "))
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
