package testutil

import (
	"sync"
	"time"
)

// ManualScheduler records deferred callbacks until Fire runs them.
type ManualScheduler struct {
	mu      sync.Mutex
	pending []func()
	delays  []time.Duration
}

// AfterFunc records fn; d is kept for inspection only.
func (s *ManualScheduler) AfterFunc(d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, fn)
	s.delays = append(s.delays, d)
}

// Len reports the number of callbacks waiting to fire.
func (s *ManualScheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Delays returns every delay requested so far.
func (s *ManualScheduler) Delays() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}

// Fire runs the callbacks recorded so far. Callbacks they schedule wait for
// the next Fire. It reports how many ran.
func (s *ManualScheduler) Fire() int {
	s.mu.Lock()
	batch := s.pending
	s.pending = nil
	s.mu.Unlock()
	for _, fn := range batch {
		fn()
	}
	return len(batch)
}
