package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"

	"cinepick/internal/config"
	"cinepick/internal/logging"
)

// Sessions is the conversation store supervised by the daemon.
type Sessions interface {
	suture.Service
	Len() int
	Close()
}

// Daemon supervises the API server and the session sweeper and enforces
// single-instance execution.
type Daemon struct {
	logger   *slog.Logger
	sessions Sessions
	api      *apiServer

	lockPath string
	lock     *flock.Flock

	shutdownTimeout time.Duration

	running atomic.Bool
	cancel  context.CancelFunc
	done    <-chan error
}

// Status represents daemon runtime information.
type Status struct {
	Running       bool
	Address       string
	Conversations int
	LockFilePath  string
}

// New constructs a daemon serving handler on cfg.Server.Bind.
func New(cfg *config.Config, sessions Sessions, handler http.Handler, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || sessions == nil || handler == nil {
		return nil, errors.New("daemon requires config, sessions, and an api handler")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	api, err := newAPIServer(cfg.Server.Bind, handler, logger)
	if err != nil {
		return nil, err
	}
	lockPath := cfg.LockPath()
	return &Daemon{
		logger:          logging.NewComponentLogger(logger, "daemon"),
		sessions:        sessions,
		api:             api,
		lockPath:        lockPath,
		lock:            flock.New(lockPath),
		shutdownTimeout: 10 * time.Second,
	}, nil
}

// Start acquires the daemon lock, opens the API listener, and launches the
// supervisor tree in the background.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	if err := os.MkdirAll(filepath.Dir(d.lockPath), 0o755); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another cinepick daemon instance is already running")
	}

	if _, err := d.api.listen(); err != nil {
		_ = d.lock.Unlock()
		return err
	}

	handler := &sutureslog.Handler{Logger: d.logger}
	root := suture.New("cinepick", suture.Spec{
		EventHook: handler.MustHook(),
		Timeout:   d.shutdownTimeout,
	})
	root.Add(d.api)
	root.Add(d.sessions)

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.done = root.ServeBackground(runCtx)

	d.running.Store(true)
	d.logger.Info("cinepick daemon started",
		logging.String("lock", d.lockPath),
		logging.String("address", d.api.Addr()),
	)
	return nil
}

// Stop shuts the supervisor tree down and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.done != nil {
		select {
		case err := <-d.done:
			if err != nil && !errors.Is(err, context.Canceled) {
				d.logger.Warn("supervisor stopped with error", logging.Error(err))
			}
		case <-time.After(d.shutdownTimeout + time.Second):
			d.logger.Warn("supervisor did not stop in time")
		}
		d.done = nil
	}
	d.api.release()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("cinepick daemon stopped")
}

// Close stops the daemon and releases conversation resources.
func (d *Daemon) Close() error {
	d.Stop()
	d.sessions.Close()
	return nil
}

// Run starts the daemon and blocks until ctx is cancelled.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	d.Stop()
	return nil
}

// Addr returns the API listen address while running.
func (d *Daemon) Addr() string {
	return d.api.Addr()
}

// Status reports current daemon state.
func (d *Daemon) Status() Status {
	return Status{
		Running:       d.running.Load(),
		Address:       d.api.Addr(),
		Conversations: d.sessions.Len(),
		LockFilePath:  d.lockPath,
	}
}
