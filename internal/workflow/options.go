package workflow

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/AbdelazizMoustafa10m/StepBar/internal/sampler"
	"github.com/AbdelazizMoustafa10m/StepBar/internal/stopwatch"
)

// Option configures a RunController or a standalone StepProgress.
type Option func(*options)

type options struct {
	logger   *log.Logger
	interval time.Duration
	clock    stopwatch.Clock
	observer func(Event)
}

func buildOptions(opts []Option) options {
	o := options{interval: sampler.DefaultInterval}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger attaches a charmbracelet/log Logger. When nil the component
// operates silently.
func WithLogger(logger *log.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithSampleInterval overrides the 100ms elapsed-time sampling period.
// Non-positive values are ignored.
func WithSampleInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.interval = d
		}
	}
}

// WithClock overrides the time source used by step and run stopwatches.
func WithClock(clock stopwatch.Clock) Option {
	return func(o *options) { o.clock = clock }
}

// WithObserver registers a callback invoked synchronously for every event,
// on whichever goroutine produced it. The callback must return quickly and
// must not call Reset, Dispose or Run.
func WithObserver(fn func(Event)) Option {
	return func(o *options) { o.observer = fn }
}

func (o options) newStopwatch() *stopwatch.Stopwatch {
	return stopwatch.New(stopwatch.WithClock(o.clock))
}
