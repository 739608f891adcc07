// Package stopwatch provides a start/stop/reset elapsed-time accumulator that
// is safe to read from other goroutines while it runs.
//
// A Stopwatch has exactly one writer (the goroutine that calls Start, Stop,
// Reset and Restart) and any number of readers calling Elapsed or Running.
// Readers always observe a consistent value; a running stopwatch reports its
// live elapsed time.
package stopwatch

import (
	"sync"
	"time"
)

// Clock returns the current time. It is injected for deterministic tests.
type Clock func() time.Time

// Option configures a Stopwatch.
type Option func(*Stopwatch)

// WithClock overrides the time source. A nil clock is ignored.
func WithClock(clock Clock) Option {
	return func(s *Stopwatch) {
		if clock != nil {
			s.now = clock
		}
	}
}

// Stopwatch accumulates elapsed time across Start/Stop intervals.
type Stopwatch struct {
	mu        sync.RWMutex
	now       Clock
	elapsed   time.Duration // accumulated from completed intervals
	startedAt time.Time     // start of the current interval when running
	running   bool
}

// New returns a stopped Stopwatch with zero elapsed time.
func New(opts ...Option) *Stopwatch {
	s := &Stopwatch{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins or resumes timing. Calling Start on a running stopwatch is a
// no-op.
func (s *Stopwatch) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.startedAt = s.now()
	s.running = true
}

// Stop pauses timing and folds the current interval into the accumulated
// value. Calling Stop on a stopped stopwatch is a no-op.
func (s *Stopwatch) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.elapsed += s.since(s.startedAt)
	s.running = false
}

// Reset stops the stopwatch and clears the accumulated time.
func (s *Stopwatch) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.elapsed = 0
	s.running = false
}

// Restart clears the accumulated time and starts timing again.
func (s *Stopwatch) Restart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.elapsed = 0
	s.startedAt = s.now()
	s.running = true
}

// Elapsed returns the total accumulated time, including the in-progress
// interval when running.
func (s *Stopwatch) Elapsed() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.running {
		return s.elapsed
	}
	return s.elapsed + s.since(s.startedAt)
}

// Running reports whether the stopwatch is currently timing.
func (s *Stopwatch) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// since never returns a negative interval, even if the injected clock goes
// backwards.
func (s *Stopwatch) since(t time.Time) time.Duration {
	d := s.now().Sub(t)
	if d < 0 {
		return 0
	}
	return d
}
