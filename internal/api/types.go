package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// MessageRequest carries a free-text prompt.
type MessageRequest struct {
	Text   string `json:"text" validate:"required,max=500"`
	UserID string `json:"userId" validate:"omitempty,max=128"`
}

// RatingRequest carries a rating for a watched movie. ntfy rating buttons
// post this body.
type RatingRequest struct {
	MovieID int64 `json:"movieId" validate:"required,gt=0"`
	Rating  int   `json:"rating" validate:"required,min=1,max=10"`
}

// Candidate describes an offered movie.
type Candidate struct {
	ID             int64    `json:"id"`
	Title          string   `json:"title"`
	Year           int      `json:"year,omitempty"`
	Overview       string   `json:"overview"`
	Rating         float64  `json:"rating"`
	VoteCount      int64    `json:"voteCount"`
	Genres         []string `json:"genres,omitempty"`
	PosterURL      string   `json:"posterUrl,omitempty"`
	TrailerURL     string   `json:"trailerUrl,omitempty"`
	RuntimeMinutes int      `json:"runtimeMinutes,omitempty"`
}

// ReplyResponse is returned by every conversation transition.
type ReplyResponse struct {
	Outcome   string     `json:"outcome"`
	Message   string     `json:"message,omitempty"`
	Source    string     `json:"source,omitempty"`
	Candidate *Candidate `json:"candidate,omitempty"`
}

// WatchingItem describes a pending rating prompt.
type WatchingItem struct {
	MovieID int64  `json:"movieId"`
	Title   string `json:"title"`
	Since   string `json:"since"`
}

// ConversationResponse is a snapshot of one conversation.
type ConversationResponse struct {
	ID         string         `json:"id"`
	UserID     string         `json:"userId"`
	Prompt     string         `json:"prompt"`
	Current    *Candidate     `json:"current,omitempty"`
	Queue      []Candidate    `json:"queue"`
	Excluded   []int64        `json:"excluded"`
	Prefetched *Candidate     `json:"prefetched,omitempty"`
	Watching   []WatchingItem `json:"watching"`
	LastActive string         `json:"lastActive"`
}

// HealthResponse reports liveness.
type HealthResponse struct {
	Status        string `json:"status"`
	Conversations int    `json:"conversations"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error   string         `json:"error"`
	Code    string         `json:"code,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}
