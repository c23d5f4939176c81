package api_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"cinepick/internal/api"
	"cinepick/internal/logging"
	"cinepick/internal/movie"
	"cinepick/internal/session"
)

type actCall struct {
	conversationID string
	movieID        int64
	action         session.Action
}

type fakeConversations struct {
	mu        sync.Mutex
	prompts   []string
	users     []string
	acts      []actCall
	ratings   map[int64]int
	snapshots map[string]session.Snapshot
	reply     session.Reply
	err       error
}

func newFakeConversations() *fakeConversations {
	return &fakeConversations{
		ratings:   make(map[int64]int),
		snapshots: make(map[string]session.Snapshot),
		reply: session.Reply{
			Outcome:   session.OutcomeOffered,
			Source:    "discover",
			Candidate: &movie.Candidate{ID: 27205, Title: "Inception", ReleaseDate: movie.ParseReleaseDate("2010-07-15"), Rating: 8.4, VoteCount: 35000, Genres: []string{"Action"}},
		},
	}
}

func (f *fakeConversations) HandlePrompt(_ context.Context, _, userID, text string) (session.Reply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, text)
	f.users = append(f.users, userID)
	return f.reply, f.err
}

func (f *fakeConversations) Act(_ context.Context, conversationID string, movieID int64, action session.Action) (session.Reply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acts = append(f.acts, actCall{conversationID: conversationID, movieID: movieID, action: action})
	return f.reply, f.err
}

func (f *fakeConversations) Rate(_ context.Context, _ string, movieID int64, rating int) (session.Reply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ratings[movieID] = rating
	return session.Reply{Outcome: session.OutcomeRated, Message: "thanks"}, f.err
}

func (f *fakeConversations) Snapshot(conversationID string) (session.Snapshot, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap, ok := f.snapshots[conversationID]
	return snap, ok
}

func (f *fakeConversations) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.snapshots)
}

func newServer(conv api.Conversations) *api.Server {
	return api.NewServer(conv, api.Options{}, logging.NewNop())
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestMessageReturnsOfferedCandidate(t *testing.T) {
	conv := newFakeConversations()
	srv := newServer(conv)

	rec := do(t, srv, http.MethodPost, "/v1/conversations/c1/messages", `{"text":"mind-bending thriller","userId":"u1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected generated request id header")
	}
	resp := decodeBody[api.ReplyResponse](t, rec)
	if resp.Outcome != "offered" || resp.Source != "discover" {
		t.Fatalf("unexpected reply %+v", resp)
	}
	if resp.Candidate == nil || resp.Candidate.ID != 27205 || resp.Candidate.Year != 2010 {
		t.Fatalf("unexpected candidate %+v", resp.Candidate)
	}
	if resp.Candidate.Overview != "No description available." {
		t.Fatalf("expected placeholder overview, got %q", resp.Candidate.Overview)
	}
	if len(conv.prompts) != 1 || conv.prompts[0] != "mind-bending thriller" || conv.users[0] != "u1" {
		t.Fatalf("prompt not forwarded: %v %v", conv.prompts, conv.users)
	}
}

func TestRequestIDIsEchoed(t *testing.T) {
	srv := newServer(newFakeConversations())
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "req-42" {
		t.Fatalf("expected echoed request id, got %q", got)
	}
}

func TestMessageValidation(t *testing.T) {
	srv := newServer(newFakeConversations())

	tests := []struct {
		name string
		body string
		code string
	}{
		{"missing text", `{"userId":"u1"}`, "validation_error"},
		{"too long", `{"text":"` + strings.Repeat("a", 501) + `"}`, "validation_error"},
		{"not json", `{text`, "invalid_body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodPost, "/v1/conversations/c1/messages", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			resp := decodeBody[api.ErrorResponse](t, rec)
			if resp.Code != tt.code {
				t.Fatalf("expected code %q, got %+v", tt.code, resp)
			}
		})
	}
}

func TestValidationErrorNamesJSONField(t *testing.T) {
	srv := newServer(newFakeConversations())
	rec := do(t, srv, http.MethodPost, "/v1/conversations/c1/ratings", `{"movieId":27205,"rating":11}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	resp := decodeBody[api.ErrorResponse](t, rec)
	if !strings.Contains(resp.Error, "rating must be at most 10") {
		t.Fatalf("unexpected error message %q", resp.Error)
	}
	if resp.Details == nil || resp.Details["fields"] == nil {
		t.Fatalf("expected field details, got %+v", resp.Details)
	}
}

func TestCandidateActionRoutes(t *testing.T) {
	conv := newFakeConversations()
	srv := newServer(conv)

	rec := do(t, srv, http.MethodPost, "/v1/conversations/c1/candidates/27205/Watched", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(conv.acts) != 1 {
		t.Fatalf("expected one action, got %d", len(conv.acts))
	}
	got := conv.acts[0]
	if got.conversationID != "c1" || got.movieID != 27205 || got.action != session.ActionWatched {
		t.Fatalf("unexpected action call %+v", got)
	}

	if rec := do(t, srv, http.MethodPost, "/v1/conversations/c1/candidates/27205/love", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown action, got %d", rec.Code)
	}
	if rec := do(t, srv, http.MethodPost, "/v1/conversations/c1/candidates/abc/watch", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad movie id, got %d", rec.Code)
	}
	if len(conv.acts) != 1 {
		t.Fatalf("invalid requests must not reach the session, got %d calls", len(conv.acts))
	}
}

func TestRatingForwarded(t *testing.T) {
	conv := newFakeConversations()
	srv := newServer(conv)

	rec := do(t, srv, http.MethodPost, "/v1/conversations/c1/ratings", `{"movieId": 27205, "rating": 7}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if conv.ratings[27205] != 7 {
		t.Fatalf("expected rating forwarded, got %v", conv.ratings)
	}
	resp := decodeBody[api.ReplyResponse](t, rec)
	if resp.Outcome != "rated" || resp.Candidate != nil {
		t.Fatalf("unexpected reply %+v", resp)
	}
}

func TestSessionErrorsMapToStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"unknown conversation", session.ErrUnknownConversation, http.StatusNotFound, "conversation_not_found"},
		{"unknown candidate", session.ErrUnknownCandidate, http.StatusNotFound, "candidate_not_found"},
		{"empty prompt", session.ErrEmptyPrompt, http.StatusBadRequest, "invalid_request"},
		{"wrapped rating", errors.Join(errors.New("ctx"), session.ErrInvalidRating), http.StatusBadRequest, "invalid_request"},
		{"internal", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conv := newFakeConversations()
			conv.err = tt.err
			srv := newServer(conv)
			rec := do(t, srv, http.MethodPost, "/v1/conversations/c1/candidates/27205/watch", "")
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}
			resp := decodeBody[api.ErrorResponse](t, rec)
			if resp.Code != tt.code {
				t.Fatalf("expected code %q, got %q", tt.code, resp.Code)
			}
			if tt.code == "internal_error" && strings.Contains(resp.Error, "boom") {
				t.Fatal("internal error details leaked to client")
			}
		})
	}
}

func TestConversationSnapshot(t *testing.T) {
	conv := newFakeConversations()
	since := time.Date(2026, 10, 18, 20, 0, 0, 0, time.UTC)
	conv.snapshots["c1"] = session.Snapshot{
		ConversationID: "c1",
		UserID:         "u1",
		Prompt:         "thriller",
		Current:        &movie.Candidate{ID: 1, Title: "Night Courier"},
		Queue:          []movie.Candidate{{ID: 2, Title: "Glass Harbor"}},
		Excluded:       []int64{1},
		Watching:       []session.Watching{{MovieID: 3, Title: "Silent Ledger", Since: since}},
		LastActive:     since,
	}
	srv := newServer(conv)

	rec := do(t, srv, http.MethodGet, "/v1/conversations/c1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeBody[api.ConversationResponse](t, rec)
	if resp.ID != "c1" || resp.Prompt != "thriller" || resp.Current == nil || resp.Current.ID != 1 {
		t.Fatalf("unexpected snapshot %+v", resp)
	}
	if len(resp.Queue) != 1 || resp.Queue[0].ID != 2 {
		t.Fatalf("unexpected queue %+v", resp.Queue)
	}
	if len(resp.Watching) != 1 || resp.Watching[0].Since != "2026-10-18T20:00:00.000Z" {
		t.Fatalf("unexpected watching %+v", resp.Watching)
	}
	if resp.LastActive != "2026-10-18T20:00:00.000Z" {
		t.Fatalf("unexpected lastActive %q", resp.LastActive)
	}

	if rec := do(t, srv, http.MethodGet, "/v1/conversations/missing", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing conversation, got %d", rec.Code)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	conv := newFakeConversations()
	conv.snapshots["a"] = session.Snapshot{}

	srv := newServer(conv)
	rec := do(t, srv, http.MethodGet, "/healthz", "")
	resp := decodeBody[api.HealthResponse](t, rec)
	if resp.Status != "ok" || resp.Conversations != 1 {
		t.Fatalf("unexpected health %+v", resp)
	}
	if rec := do(t, srv, http.MethodGet, "/metrics", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected metrics disabled, got %d", rec.Code)
	}

	withMetrics := api.NewServer(conv, api.Options{Metrics: true}, logging.NewNop())
	rec = do(t, withMetrics, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected metrics endpoint, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "cinepick_http_requests_total") {
		t.Fatal("expected http request counter in metrics output")
	}
}
