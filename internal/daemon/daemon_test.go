package daemon_test

import (
	"context"
	"io"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"cinepick/internal/daemon"
	"cinepick/internal/logging"
	"cinepick/internal/testsupport"
)

type fakeSessions struct {
	serving atomic.Int32
	closed  atomic.Bool
}

func (f *fakeSessions) Serve(ctx context.Context) error {
	f.serving.Add(1)
	<-ctx.Done()
	return ctx.Err()
}

func (f *fakeSessions) String() string { return "fake-sessions" }

func (f *fakeSessions) Len() int { return 2 }

func (f *fakeSessions) Close() { f.closed.Store(true) }

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "ok")
	})
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	sessions := &fakeSessions{}
	d, err := daemon.New(cfg, sessions, okHandler(), logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		_ = d.Close()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	status := d.Status()
	if !status.Running || status.Address == "" || status.Conversations != 2 {
		t.Fatalf("unexpected status %+v", status)
	}
	if status.LockFilePath != cfg.LockPath() {
		t.Fatalf("unexpected lock path %q", status.LockFilePath)
	}

	resp, err := http.Get("http://" + status.Address + "/")
	if err != nil {
		t.Fatalf("GET returned error: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if string(body) != "ok" {
		t.Fatalf("unexpected body %q", body)
	}
	waitFor(t, func() bool { return sessions.serving.Load() == 1 })

	// Second start should fail
	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	d.Stop()
	if d.Status().Running {
		t.Fatal("expected daemon to be stopped")
	}
	if d.Addr() != "" {
		t.Fatalf("expected listener released, got %q", d.Addr())
	}
	if sessions.closed.Load() {
		t.Fatal("Stop must not close sessions")
	}
	if err := d.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if !sessions.closed.Load() {
		t.Fatal("expected Close to close sessions")
	}
}

func TestDaemonSingleInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	first, err := daemon.New(cfg, &fakeSessions{}, okHandler(), nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	second, err := daemon.New(cfg, &fakeSessions{}, okHandler(), nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		_ = first.Close()
		_ = second.Close()
	})

	ctx := context.Background()
	if err := first.Start(ctx); err != nil {
		t.Fatalf("first Start failed: %v", err)
	}
	if err := second.Start(ctx); err == nil {
		t.Fatal("expected second instance to be rejected by the lock")
	}

	first.Stop()
	if err := second.Start(ctx); err != nil {
		t.Fatalf("expected start after lock release, got %v", err)
	}
	second.Stop()
}

func TestDaemonRunStopsOnCancel(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d, err := daemon.New(cfg, &fakeSessions{}, okHandler(), nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	waitFor(t, func() bool { return d.Status().Running })
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if d.Status().Running {
		t.Fatal("expected daemon to be stopped")
	}
}

func TestDaemonRejectsBadBind(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Server.Bind = "256.0.0.1:bad"
	d, err := daemon.New(cfg, &fakeSessions{}, okHandler(), nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := d.Start(context.Background()); err == nil {
		d.Stop()
		t.Fatal("expected listen error")
	}
	// The lock is released after a failed start.
	cfg.Server.Bind = "127.0.0.1:0"
	other, err := daemon.New(cfg, &fakeSessions{}, okHandler(), nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := other.Start(context.Background()); err != nil {
		t.Fatalf("expected start after failed start, got %v", err)
	}
	other.Stop()
}

func TestNewRequiresDependencies(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if _, err := daemon.New(nil, &fakeSessions{}, okHandler(), nil); err == nil {
		t.Fatal("expected error without config")
	}
	if _, err := daemon.New(cfg, nil, okHandler(), nil); err == nil {
		t.Fatal("expected error without sessions")
	}
	if _, err := daemon.New(cfg, &fakeSessions{}, nil, nil); err == nil {
		t.Fatal("expected error without handler")
	}
}
