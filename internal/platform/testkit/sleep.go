package testkit

import (
	"context"
	"sync"
	"time"
)

// Sleeper records requested sleeps without blocking
// drop its Sleep method into clients that expose a ctx aware sleep seam
type Sleeper struct {
	mu    sync.Mutex
	calls []time.Duration
}

// Sleep records d and returns ctx.Err() so cancellation still short circuits loops
func (s *Sleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.calls = append(s.calls, d)
	s.mu.Unlock()
	return ctx.Err()
}

// Calls returns a copy of every recorded duration in order
func (s *Sleeper) Calls() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.calls...)
}

// Count returns the number of recorded sleeps
func (s *Sleeper) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}
