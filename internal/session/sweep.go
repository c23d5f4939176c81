package session

import (
	"context"
	"time"

	"cinepick/internal/logging"
	"cinepick/internal/metrics"
)

// Sweep drops conversations idle for longer than the idle timeout, cancelling
// their prefetches and rating jobs. Conversations busy with a transition are
// skipped. It returns how many were dropped.
func (m *Manager) Sweep(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	dropped := 0
	for id, conv := range m.sessions {
		if !conv.mu.TryLock() {
			continue
		}
		if now.Sub(conv.lastActive) > m.opts.IdleTimeout {
			conv.stopPrefetch()
			for _, marker := range conv.watching {
				m.scheduler.Cancel(marker.job)
			}
			delete(m.sessions, id)
			dropped++
			metrics.RecordSessionEvent("expired")
		}
		conv.mu.Unlock()
	}
	metrics.SetActiveSessions(len(m.sessions))
	if dropped > 0 {
		m.logger.Info("idle conversations swept",
			logging.Int("dropped", dropped),
			logging.Int("remaining", len(m.sessions)),
		)
	}
	return dropped
}

// Serve sweeps idle conversations every SweepInterval until ctx is done.
func (m *Manager) Serve(ctx context.Context) error {
	ticker := time.NewTicker(m.opts.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.Sweep(m.now())
		}
	}
}

func (m *Manager) String() string {
	return "session-sweeper"
}
