package workflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/AbdelazizMoustafa10m/StepBar/internal/sampler"
	"github.com/AbdelazizMoustafa10m/StepBar/internal/stopwatch"
)

// StepProgress pairs a StepDefinition with its runtime timing state. While the
// step runs, a sampler publishes the stopwatch value every sample interval;
// the final value is published exactly when the workload returns.
//
// Reset and RunAsync are called by a single owner and never concurrently.
// ElapsedTime, Running and Name are safe from any goroutine.
type StepProgress struct {
	def    *StepDefinition
	index  int
	watch  *stopwatch.Stopwatch
	sample *sampler.Sampler
	notify func(Event)

	mu       sync.RWMutex
	elapsed  time.Duration
	disposed bool
}

// NewStepProgress creates a standalone StepProgress for def. Elapsed-time
// changes are delivered to the WithObserver callback, if any. It fails with
// ErrInvalidArgument when def is nil.
func NewStepProgress(def *StepDefinition, opts ...Option) (*StepProgress, error) {
	if def == nil {
		return nil, fmt.Errorf("%w: step definition is nil", ErrInvalidArgument)
	}
	o := buildOptions(opts)
	return newStepProgress(def, 0, o, o.observer), nil
}

func newStepProgress(def *StepDefinition, index int, o options, notify func(Event)) *StepProgress {
	p := &StepProgress{
		def:    def,
		index:  index,
		watch:  o.newStopwatch(),
		notify: notify,
	}
	p.sample = sampler.New(p.watch.Elapsed, p.publish, sampler.WithInterval(o.interval))
	return p
}

// Name returns the underlying definition's name.
func (p *StepProgress) Name() string { return p.def.Name() }

// Index returns the step's 0-based position within its controller.
func (p *StepProgress) Index() int { return p.index }

// Definition returns the borrowed step definition.
func (p *StepProgress) Definition() *StepDefinition { return p.def }

// ElapsedTime returns the most recently published elapsed time.
func (p *StepProgress) ElapsedTime() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.elapsed
}

// Running reports whether the step's stopwatch is timing a workload.
func (p *StepProgress) Running() bool {
	return p.watch.Running()
}

// Reset stops sampling and timing, clears the stopwatch and publishes zero.
// It never fails and may be called at any time by the owner.
func (p *StepProgress) Reset() {
	p.sample.Stop()
	p.watch.Reset()
	p.publish(0)
}

// RunAsync times the step's workload. It starts the stopwatch and the sampler,
// waits for the workload, then stops both on every exit path and publishes
// the final elapsed time. A workload error is returned unchanged; a workload
// panic is returned as an error.
//
// Calling RunAsync again without Reset continues from the accumulated time.
func (p *StepProgress) RunAsync(ctx context.Context) (err error) {
	p.mu.Lock()
	if p.disposed {
		p.mu.Unlock()
		return ErrDisposed
	}
	p.watch.Start()
	p.sample.Start()
	p.mu.Unlock()

	defer func() {
		p.watch.Stop()
		p.sample.Stop()
		p.publish(p.watch.Elapsed())
	}()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("workflow: step %q panicked: %v", p.def.Name(), r)
		}
	}()

	return p.def.workload(ctx)
}

// Dispose stops sampling and timing. After Dispose no further elapsed-time
// notifications are delivered and RunAsync returns ErrDisposed. Idempotent.
func (p *StepProgress) Dispose() {
	p.mu.Lock()
	p.disposed = true
	p.mu.Unlock()

	p.sample.Stop()
	p.watch.Stop()
}

// publish stores v and notifies when it differs from the previous value.
// A disposed step still stores the value but stays silent.
func (p *StepProgress) publish(v time.Duration) {
	p.mu.Lock()
	changed := v != p.elapsed
	p.elapsed = v
	silent := p.disposed
	p.mu.Unlock()

	if changed && !silent && p.notify != nil {
		p.notify(Event{
			Type:      EventStepElapsed,
			Step:      p.def.Name(),
			Index:     p.index,
			Elapsed:   v,
			Timestamp: time.Now(),
		})
	}
}
