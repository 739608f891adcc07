package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/AbdelazizMoustafa10m/StepBar/internal/sampler"
	"github.com/AbdelazizMoustafa10m/StepBar/internal/stopwatch"
)

// RunController owns an ordered list of StepProgress values and executes them
// strictly in order, one run at a time. While a run is active a sampler
// publishes the aggregate elapsed time; each step publishes its own.
//
// Observers either Subscribe to an event channel or register a WithObserver
// callback, and may read current state through the getters at any time.
type RunController struct {
	logger   *log.Logger
	observer func(Event)
	events   *broadcaster
	watch    *stopwatch.Stopwatch
	sample   *sampler.Sampler

	mu           sync.RWMutex
	steps        []*StepProgress
	currentIndex int
	total        time.Duration
	running      bool
	disposed     bool
	lastErr      error
}

// NewRunController builds one StepProgress per definition, preserving order.
// It fails with ErrInvalidArgument when defs is nil or contains a nil entry.
// An empty, non-nil slice is valid; running it completes immediately.
func NewRunController(defs []*StepDefinition, opts ...Option) (*RunController, error) {
	if defs == nil {
		return nil, fmt.Errorf("%w: step definitions are nil", ErrInvalidArgument)
	}
	for i, def := range defs {
		if def == nil {
			return nil, fmt.Errorf("%w: step definition %d is nil", ErrInvalidArgument, i)
		}
	}

	o := buildOptions(opts)
	c := &RunController{
		logger:   o.logger,
		observer: o.observer,
		events:   newBroadcaster(),
		watch:    o.newStopwatch(),
	}
	c.sample = sampler.New(c.watch.Elapsed, c.setTotal,
		sampler.WithInterval(o.interval),
		sampler.WithDedupe(),
	)

	c.steps = make([]*StepProgress, len(defs))
	for i, def := range defs {
		c.steps[i] = newStepProgress(def, i, o, c.emit)
	}
	return c, nil
}

// Steps returns the step list in execution order. The slice is a copy; the
// StepProgress values are shared. It is empty after Dispose.
func (c *RunController) Steps() []*StepProgress {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*StepProgress, len(c.steps))
	copy(out, c.steps)
	return out
}

// CurrentStepIndex returns the number of steps completed in the current or
// most recent run. It equals len(Steps()) only after a fully successful run.
func (c *RunController) CurrentStepIndex() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.currentIndex
}

// TotalElapsedTime returns the most recently published aggregate time.
func (c *RunController) TotalElapsedTime() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.total
}

// IsRunning reports whether a run is active.
func (c *RunController) IsRunning() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.running
}

// Subscribe registers an event channel with the given buffer; sizes below 1
// are raised to 1. Delivery never blocks the controller, so a subscriber that
// falls behind misses events. Use WithObserver to see every event.
// The returned function unsubscribes and closes the channel. All channels are
// closed by Dispose.
func (c *RunController) Subscribe(buffer int) (<-chan Event, func()) {
	return c.events.subscribe(buffer)
}

// Run executes every step in order and returns when the run ends. Step i+1
// never starts before step i returns. The first failing step halts the run
// and its error is returned as a *StepError wrapping the workload error.
//
// Run returns ErrRunInProgress without side effects when another run is
// active, and ErrDisposed after Dispose. Cancelling ctx stops the run before
// the next step begins; stopping an in-flight workload is the workload's job.
func (c *RunController) Run(ctx context.Context) error {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return ErrDisposed
	}
	if c.running {
		c.mu.Unlock()
		c.log("run rejected", "reason", "already running")
		return ErrRunInProgress
	}
	c.running = true
	c.lastErr = nil
	steps := c.steps
	c.mu.Unlock()

	for _, s := range steps {
		s.Reset()
	}
	c.setTotal(0)
	c.setIndex(0)
	c.emit(Event{Type: EventRunningChanged, Running: true, Timestamp: time.Now()})

	c.watch.Restart()
	c.sample.Start()

	c.emit(Event{Type: EventRunStarted, Timestamp: time.Now()})
	c.log("run started", "steps", len(steps))

	runErr := c.runSteps(ctx, steps)

	c.watch.Stop()
	c.sample.Stop()
	total := c.watch.Elapsed()
	c.setTotal(total)

	c.mu.Lock()
	c.running = false
	c.lastErr = runErr
	c.mu.Unlock()
	c.emit(Event{Type: EventRunningChanged, Running: false, Timestamp: time.Now()})

	if runErr != nil {
		c.emit(Event{
			Type:      EventRunFailed,
			Index:     c.CurrentStepIndex(),
			Elapsed:   total,
			Error:     runErr.Error(),
			Timestamp: time.Now(),
		})
		c.logError("run failed", "error", runErr, "elapsed", total)
		return runErr
	}

	c.emit(Event{Type: EventRunCompleted, Index: len(steps), Elapsed: total, Timestamp: time.Now()})
	c.log("run completed", "steps", len(steps), "elapsed", total)
	return nil
}

// runSteps awaits each step in order. It is the only suspension point of a run.
func (c *RunController) runSteps(ctx context.Context, steps []*StepProgress) error {
	for i, s := range steps {
		if c.isDisposed() {
			return ErrDisposed
		}
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("workflow: run cancelled before step %q: %w", s.Name(), err)
		}

		c.emit(Event{Type: EventStepStarted, Step: s.Name(), Index: i, Timestamp: time.Now()})
		c.log("step started", "step", s.Name(), "index", i)

		if err := s.RunAsync(ctx); err != nil {
			if errors.Is(err, ErrDisposed) {
				return ErrDisposed
			}
			c.emit(Event{
				Type:      EventStepFailed,
				Step:      s.Name(),
				Index:     i,
				Elapsed:   s.ElapsedTime(),
				Error:     err.Error(),
				Timestamp: time.Now(),
			})
			c.logError("step failed", "step", s.Name(), "error", err)
			return &StepError{Index: i, Step: s.Name(), Err: err}
		}

		c.emit(Event{
			Type:      EventStepCompleted,
			Step:      s.Name(),
			Index:     i,
			Elapsed:   s.ElapsedTime(),
			Timestamp: time.Now(),
		})
		c.log("step completed", "step", s.Name(), "elapsed", s.ElapsedTime())
		c.setIndex(i + 1)
	}
	return nil
}

// Dispose stops the aggregate sampler, disposes every step, releases the
// step list and closes all subscriber channels. It never waits for an
// in-flight workload; an active run returns ErrDisposed before its next step.
// Idempotent.
func (c *RunController) Dispose() {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	c.disposed = true
	steps := c.steps
	c.steps = nil
	c.mu.Unlock()

	c.sample.Stop()
	c.watch.Stop()
	for _, s := range steps {
		s.Dispose()
	}
	c.events.close()
	c.log("controller disposed", "steps", len(steps))
}

func (c *RunController) isDisposed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.disposed
}

func (c *RunController) setTotal(v time.Duration) {
	c.mu.Lock()
	changed := v != c.total
	c.total = v
	c.mu.Unlock()
	if changed {
		c.emit(Event{Type: EventTotalElapsed, Elapsed: v, Timestamp: time.Now()})
	}
}

func (c *RunController) setIndex(i int) {
	c.mu.Lock()
	changed := i != c.currentIndex
	c.currentIndex = i
	c.mu.Unlock()
	if changed {
		c.emit(Event{Type: EventCurrentStepIndex, Index: i, Timestamp: time.Now()})
	}
}

// emit delivers ev to subscribers and the observer callback unless the
// controller has been disposed.
func (c *RunController) emit(ev Event) {
	if c.isDisposed() {
		return
	}
	c.events.emit(ev)
	if c.observer != nil {
		c.observer(ev)
	}
}

// log writes a structured log message when a logger is attached.
func (c *RunController) log(msg string, kvs ...any) {
	if c.logger == nil {
		return
	}
	c.logger.Info(msg, kvs...)
}

func (c *RunController) logError(msg string, kvs ...any) {
	if c.logger == nil {
		return
	}
	c.logger.Error(msg, kvs...)
}
