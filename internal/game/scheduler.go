package game

import (
	"sync"
	"time"
)

// Scheduler manages the deferred callbacks games use for time-boxed phases.
// Games persist an absolute next-fire timestamp; the in-memory handle here is
// never persisted and is recomputed from that timestamp after a restart. A
// deadline the process slept through fires immediately on re-arm.
type Scheduler struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
}

// NewScheduler returns a scheduler with no pending callbacks.
func NewScheduler() *Scheduler {
	return &Scheduler{timers: make(map[string]*time.Timer)}
}

// Arm schedules fire for the given absolute time under key, replacing any
// pending callback for the same key. A zero or negative delay fires
// immediately.
func (s *Scheduler) Arm(key string, at time.Time, fire func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.timers[key]; ok {
		prev.Stop()
	}

	delay := time.Until(at)
	if delay < 0 {
		delay = 0
	}

	var t *time.Timer
	t = time.AfterFunc(delay, func() {
		s.mu.Lock()
		if s.timers[key] == t {
			delete(s.timers, key)
		}
		s.mu.Unlock()
		fire()
	})
	s.timers[key] = t
}

// Disarm cancels the pending callback for key without touching any persisted
// timestamp, so re-arming after a resume recomputes from the unchanged
// target.
func (s *Scheduler) Disarm(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[key]; ok {
		t.Stop()
		delete(s.timers, key)
	}
}

// Pending reports whether a callback is armed for key.
func (s *Scheduler) Pending(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[key]
	return ok
}
