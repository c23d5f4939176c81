package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cinepick/internal/logging"
	"cinepick/internal/metrics"
	"cinepick/internal/session"
)

const (
	requestIDHeader = "X-Request-ID"
	maxBodyBytes    = 64 << 10
)

// Conversations is the session surface the API drives.
type Conversations interface {
	HandlePrompt(ctx context.Context, conversationID, userID, text string) (session.Reply, error)
	Act(ctx context.Context, conversationID string, movieID int64, action session.Action) (session.Reply, error)
	Rate(ctx context.Context, conversationID string, movieID int64, rating int) (session.Reply, error)
	Snapshot(conversationID string) (session.Snapshot, bool)
	Len() int
}

// Options tunes the HTTP surface.
type Options struct {
	// Metrics mounts the Prometheus handler at /metrics.
	Metrics bool
}

// Server routes API requests to the session manager.
type Server struct {
	conversations Conversations
	logger        *slog.Logger
	router        chi.Router
}

// NewServer builds the API router.
func NewServer(conversations Conversations, opts Options, logger *slog.Logger) *Server {
	s := &Server{
		conversations: conversations,
		logger:        logging.NewComponentLogger(logger, "api"),
	}

	r := chi.NewRouter()
	r.Use(s.requestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.instrument)

	r.Get("/healthz", s.handleHealth)
	if opts.Metrics {
		r.Handle("/metrics", promhttp.Handler())
	}
	r.Route("/v1/conversations/{id}", func(r chi.Router) {
		r.Get("/", s.handleConversation)
		r.Post("/messages", s.handleMessage)
		r.Post("/candidates/{movieID}/{action}", s.handleCandidateAction)
		r.Post("/ratings", s.handleRating)
	})

	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logging.WithRequestID(r.Context(), id)))
	})
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		metrics.RecordHTTPRequest(route, r.Method, status, elapsed)
		logging.WithContext(r.Context(), s.logger).Debug("http request",
			logging.String("method", r.Method),
			logging.String("route", route),
			logging.Int("status", status),
			logging.Duration("elapsed", elapsed),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Conversations: s.conversations.Len()})
}

func (s *Server) handleConversation(w http.ResponseWriter, r *http.Request) {
	id, ok := s.conversationID(w, r)
	if !ok {
		return
	}
	snap, found := s.conversations.Snapshot(id)
	if !found {
		s.writeError(w, http.StatusNotFound, "conversation_not_found", "conversation not found", nil)
		return
	}
	s.writeJSON(w, http.StatusOK, FromSnapshot(snap))
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := s.conversationID(w, r)
	if !ok {
		return
	}
	var req MessageRequest
	if !s.decode(w, r, &req) {
		return
	}
	ctx := logging.WithConversationID(r.Context(), id)
	reply, err := s.conversations.HandlePrompt(ctx, id, req.UserID, req.Text)
	s.writeReply(w, r, reply, err)
}

func (s *Server) handleCandidateAction(w http.ResponseWriter, r *http.Request) {
	id, ok := s.conversationID(w, r)
	if !ok {
		return
	}
	movieID, err := strconv.ParseInt(chi.URLParam(r, "movieID"), 10, 64)
	if err != nil || movieID <= 0 {
		s.writeError(w, http.StatusBadRequest, "invalid_movie_id", "invalid movie id", nil)
		return
	}
	action, err := session.ParseAction(chi.URLParam(r, "action"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_action", err.Error(), nil)
		return
	}
	ctx := logging.WithConversationID(r.Context(), id)
	reply, err := s.conversations.Act(ctx, id, movieID, action)
	s.writeReply(w, r, reply, err)
}

func (s *Server) handleRating(w http.ResponseWriter, r *http.Request) {
	id, ok := s.conversationID(w, r)
	if !ok {
		return
	}
	var req RatingRequest
	if !s.decode(w, r, &req) {
		return
	}
	ctx := logging.WithConversationID(r.Context(), id)
	reply, err := s.conversations.Rate(ctx, id, req.MovieID, req.Rating)
	s.writeReply(w, r, reply, err)
}

func (s *Server) conversationID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if err := getValidator().Var(id, "required,max=128,printascii"); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_conversation_id", "invalid conversation id", nil)
		return "", false
	}
	return id, true
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_body", "request body must be valid JSON", nil)
		return false
	}
	if err := validateStruct(dst); err != nil {
		var verr *validationError
		var details map[string]any
		if errors.As(err, &verr) {
			details = verr.details()
		}
		s.writeError(w, http.StatusBadRequest, "validation_error", err.Error(), details)
		return false
	}
	return true
}

func (s *Server) writeReply(w http.ResponseWriter, r *http.Request, reply session.Reply, err error) {
	if err == nil {
		s.writeJSON(w, http.StatusOK, FromReply(reply))
		return
	}
	switch {
	case errors.Is(err, session.ErrUnknownConversation):
		s.writeError(w, http.StatusNotFound, "conversation_not_found", err.Error(), nil)
	case errors.Is(err, session.ErrUnknownCandidate):
		s.writeError(w, http.StatusNotFound, "candidate_not_found", err.Error(), nil)
	case errors.Is(err, session.ErrUnknownAction),
		errors.Is(err, session.ErrInvalidRating),
		errors.Is(err, session.ErrEmptyPrompt):
		s.writeError(w, http.StatusBadRequest, "invalid_request", err.Error(), nil)
	default:
		logging.ErrorWithContext(logging.WithContext(r.Context(), s.logger), "conversation transition failed", "api_internal_error",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "inspect the session logs for this request id"),
		)
		s.writeError(w, http.StatusInternalServerError, "internal_error", "internal error", nil)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, message string, details map[string]any) {
	s.writeJSON(w, status, ErrorResponse{Error: message, Code: code, Details: details})
}
