// Package sampler implements a periodic ticker that reads a live value and
// republishes it to an observer without blocking the code being measured.
package sampler

import (
	"sync"
	"time"
)

// DefaultInterval is the sampling period used when none is configured.
const DefaultInterval = 100 * time.Millisecond

// ReadFunc returns the current value of the sampled source. It must be safe to
// call from the sampler goroutine and must not mutate the source.
type ReadFunc func() time.Duration

// PublishFunc receives each sampled value on the sampler goroutine.
type PublishFunc func(time.Duration)

// Option configures a Sampler.
type Option func(*Sampler)

// WithInterval sets the sampling period. Non-positive values are ignored.
func WithInterval(d time.Duration) Option {
	return func(s *Sampler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithDedupe suppresses publication of a value identical to the previously
// published one. The first sample after each Start is always published.
func WithDedupe() Option {
	return func(s *Sampler) { s.dedupe = true }
}

// Sampler calls its ReadFunc every interval and passes the result to its
// PublishFunc. It is started and stopped explicitly and may be restarted.
type Sampler struct {
	read     ReadFunc
	publish  PublishFunc
	interval time.Duration
	dedupe   bool

	mu   sync.Mutex
	stop chan struct{} // nil when not running
	done chan struct{} // closed when the last started loop exits
}

// New creates a stopped Sampler. read and publish must be non-nil.
func New(read ReadFunc, publish PublishFunc, opts ...Option) *Sampler {
	s := &Sampler{
		read:     read,
		publish:  publish,
		interval: DefaultInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Interval returns the configured sampling period.
func (s *Sampler) Interval() time.Duration {
	return s.interval
}

// Running reports whether the sampling goroutine is active.
func (s *Sampler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stop != nil
}

// Start launches the sampling goroutine. It is a no-op when already running.
func (s *Sampler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.loop(s.stop, s.done)
}

// Stop cancels the sampling goroutine and waits for it to exit, so no publish
// happens after Stop returns. Concurrent callers all wait for the same exit.
// It is a no-op when not running.
//
// Stop must not be called from inside the PublishFunc.
func (s *Sampler) Stop() {
	s.mu.Lock()
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
	done := s.done
	s.mu.Unlock()

	if done != nil {
		<-done
	}
}

func (s *Sampler) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	var (
		last      time.Duration
		published bool
	)
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			// A stop racing the tick wins so nothing is published late.
			select {
			case <-stop:
				return
			default:
			}
			v := s.read()
			if s.dedupe && published && v == last {
				continue
			}
			s.publish(v)
			last, published = v, true
		}
	}
}
