package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"cinepick/internal/logging"
)

const apiShutdownTimeout = 5 * time.Second

// apiServer runs the HTTP API as a supervised service. The listener is opened
// by listen so bind errors surface from Daemon.Start; a restart after a crash
// opens a fresh one.
type apiServer struct {
	bind    string
	handler http.Handler
	logger  *slog.Logger

	mu       sync.Mutex
	listener net.Listener
	addr     string
}

func newAPIServer(bind string, handler http.Handler, logger *slog.Logger) (*apiServer, error) {
	bind = strings.TrimSpace(bind)
	if bind == "" {
		return nil, errors.New("api bind address is empty")
	}
	if handler == nil {
		return nil, errors.New("api handler is nil")
	}
	return &apiServer{
		bind:    bind,
		handler: handler,
		logger:  logging.NewComponentLogger(logger, "api-server"),
	}, nil
}

func (s *apiServer) listen() (net.Listener, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener, nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return nil, fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener
	s.addr = listener.Addr().String()
	s.logger.Info("api server listening", logging.String("address", s.addr))
	return listener, nil
}

func (s *apiServer) release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
	s.addr = ""
}

// Addr returns the bound address while the listener is open.
func (s *apiServer) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Serve implements suture.Service.
func (s *apiServer) Serve(ctx context.Context) error {
	listener, err := s.listen()
	if err != nil {
		return err
	}
	defer s.release()

	server := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			s.logger.Error("api server error", logging.Error(err))
			return fmt.Errorf("api server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), apiShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("api server shutdown: %w", err)
		}
		<-errCh
		return ctx.Err()
	}
}

func (s *apiServer) String() string {
	return "api-server"
}
