package workflow

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

// fakeClock is a manually advanced clock shared by step and run stopwatches.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// advanceWorkload returns a workload that moves the fake clock forward by d.
func advanceWorkload(clock *fakeClock, d time.Duration) Workload {
	return func(context.Context) error {
		clock.Advance(d)
		return nil
	}
}

// sleepWorkload returns a workload that blocks for d of real time.
func sleepWorkload(d time.Duration) Workload {
	return func(ctx context.Context) error {
		select {
		case <-time.After(d):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// noopWorkload returns immediately.
func noopWorkload(context.Context) error { return nil }

// eventRecorder is a concurrency-safe WithObserver sink.
type eventRecorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *eventRecorder) observe(ev Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *eventRecorder) all() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

func (r *eventRecorder) ofType(typ string) []Event {
	var out []Event
	for _, ev := range r.all() {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

func (r *eventRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// lifecycle returns the event types excluding property notifications.
func (r *eventRecorder) lifecycle() []string {
	var out []string
	for _, ev := range r.all() {
		switch ev.Type {
		case EventStepElapsed, EventTotalElapsed, EventCurrentStepIndex, EventRunningChanged:
			continue
		}
		out = append(out, ev.Type)
	}
	return out
}

// stepSpec is a name/workload pair for building test definitions.
type stepSpec struct {
	name string
	work Workload
}

// defs builds definitions from specs, failing the test on invalid input.
func defs(t *testing.T, specs ...stepSpec) []*StepDefinition {
	t.Helper()
	out := make([]*StepDefinition, 0, len(specs))
	for _, sp := range specs {
		def, err := NewStepDefinition(sp.name, sp.work)
		require.NoError(t, err)
		out = append(out, def)
	}
	return out
}

// blocker is a workload that signals when it starts and blocks until released.
type blocker struct {
	started  chan struct{}
	release  chan struct{}
	startOne sync.Once
}

func newBlocker() *blocker {
	return &blocker{started: make(chan struct{}), release: make(chan struct{})}
}

func (b *blocker) workload(context.Context) error {
	b.startOne.Do(func() { close(b.started) })
	<-b.release
	return nil
}

func (b *blocker) waitStarted(t *testing.T) {
	t.Helper()
	select {
	case <-b.started:
	case <-time.After(2 * time.Second):
		t.Fatal("workload never started")
	}
}
