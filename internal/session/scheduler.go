package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Timer is the handle returned by an AfterFunc.
type Timer interface {
	Stop() bool
}

// AfterFunc runs f once after d. Implementations must not call f
// synchronously.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfter(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Scheduler runs cancellable one-shot jobs.
type Scheduler struct {
	mu    sync.Mutex
	after AfterFunc
	jobs  map[string]Timer
}

// NewScheduler builds a scheduler. A nil after uses time.AfterFunc.
func NewScheduler(after AfterFunc) *Scheduler {
	if after == nil {
		after = realAfter
	}
	return &Scheduler{after: after, jobs: make(map[string]Timer)}
}

// Schedule runs fn after d and returns a job id for Cancel.
func (s *Scheduler) Schedule(d time.Duration, fn func()) string {
	id := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[id] = s.after(d, func() {
		s.mu.Lock()
		_, pending := s.jobs[id]
		delete(s.jobs, id)
		s.mu.Unlock()
		if pending {
			fn()
		}
	})
	return id
}

// Cancel stops job id. It reports whether the job was still pending.
func (s *Scheduler) Cancel(id string) bool {
	if id == "" {
		return false
	}
	s.mu.Lock()
	timer, ok := s.jobs[id]
	delete(s.jobs, id)
	s.mu.Unlock()
	if ok {
		timer.Stop()
	}
	return ok
}

// Pending returns the number of jobs that have not fired or been cancelled.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Stop cancels every pending job.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	jobs := s.jobs
	s.jobs = make(map[string]Timer)
	s.mu.Unlock()
	for _, timer := range jobs {
		timer.Stop()
	}
}
