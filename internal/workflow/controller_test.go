package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newController(t *testing.T, d []*StepDefinition, opts ...Option) *RunController {
	t.Helper()
	c, err := NewRunController(d, opts...)
	require.NoError(t, err)
	t.Cleanup(c.Dispose)
	return c
}

// ---------------------------------------------------------------------------
// Construction
// ---------------------------------------------------------------------------

func TestNewRunController_InvalidInput(t *testing.T) {
	t.Parallel()

	valid := MustStepDefinition("a", noopWorkload)
	tests := []struct {
		name string
		defs []*StepDefinition
	}{
		{name: "nil slice", defs: nil},
		{name: "nil entry", defs: []*StepDefinition{valid, nil}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c, err := NewRunController(tt.defs)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidArgument))
			assert.Nil(t, c)
		})
	}
}

func TestNewRunController_PreservesOrder(t *testing.T) {
	t.Parallel()

	c := newController(t, defs(t,
		stepSpec{"idle", noopWorkload},
		stepSpec{"scan", noopWorkload},
		stepSpec{"photo", noopWorkload},
	))

	steps := c.Steps()
	require.Len(t, steps, 3)
	for i, want := range []string{"idle", "scan", "photo"} {
		assert.Equal(t, want, steps[i].Name())
		assert.Equal(t, i, steps[i].Index())
	}
	assert.Equal(t, 0, c.CurrentStepIndex())
	assert.False(t, c.IsRunning())
	assert.Equal(t, time.Duration(0), c.TotalElapsedTime())
}

func TestRunController_EmptyRunCompletes(t *testing.T) {
	t.Parallel()

	c := newController(t, []*StepDefinition{})
	require.NoError(t, c.Run(context.Background()))
	assert.Equal(t, 0, c.CurrentStepIndex())
	assert.False(t, c.IsRunning())
}

// ---------------------------------------------------------------------------
// Successful runs
// ---------------------------------------------------------------------------

func TestRunController_SuccessfulRunReachesEnd(t *testing.T) {
	t.Parallel()

	for _, n := range []int{1, 3, 8} {
		t.Run(fmt.Sprintf("%d steps", n), func(t *testing.T) {
			t.Parallel()

			specs := make([]stepSpec, n)
			for i := range specs {
				specs[i] = stepSpec{fmt.Sprintf("step-%d", i), noopWorkload}
			}
			c := newController(t, defs(t, specs...))

			require.NoError(t, c.Run(context.Background()))
			assert.Equal(t, n, c.CurrentStepIndex())
			assert.False(t, c.IsRunning())
		})
	}
}

func TestRunController_StepsRunSequentially(t *testing.T) {
	t.Parallel()

	type span struct{ start, end time.Time }
	var (
		mu     sync.Mutex
		spans  []span
		active atomic.Int32
	)
	work := func(d time.Duration) Workload {
		return func(context.Context) error {
			if active.Add(1) != 1 {
				t.Error("two workloads active at once")
			}
			s := span{start: time.Now()}
			time.Sleep(d)
			s.end = time.Now()
			active.Add(-1)

			mu.Lock()
			spans = append(spans, s)
			mu.Unlock()
			return nil
		}
	}

	c := newController(t, defs(t,
		stepSpec{"a", work(15 * time.Millisecond)},
		stepSpec{"b", work(5 * time.Millisecond)},
		stepSpec{"c", work(10 * time.Millisecond)},
		stepSpec{"d", work(1 * time.Millisecond)},
	))
	require.NoError(t, c.Run(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, spans, 4)
	for i := 1; i < len(spans); i++ {
		assert.False(t, spans[i].start.Before(spans[i-1].end),
			"step %d started before step %d returned", i, i-1)
	}
}

func TestRunController_ScenarioExactTimings(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	c := newController(t, defs(t,
		stepSpec{"A", advanceWorkload(clock, 50*time.Millisecond)},
		stepSpec{"B", advanceWorkload(clock, 100*time.Millisecond)},
		stepSpec{"C", advanceWorkload(clock, 30*time.Millisecond)},
	), WithClock(clock.Now), WithSampleInterval(time.Hour))

	require.NoError(t, c.Run(context.Background()))

	assert.Equal(t, 3, c.CurrentStepIndex())
	assert.Equal(t, 180*time.Millisecond, c.TotalElapsedTime())
	steps := c.Steps()
	assert.Equal(t, 50*time.Millisecond, steps[0].ElapsedTime())
	assert.Equal(t, 100*time.Millisecond, steps[1].ElapsedTime())
	assert.Equal(t, 30*time.Millisecond, steps[2].ElapsedTime())
}

func TestRunController_ScenarioRealTimings(t *testing.T) {
	t.Parallel()

	durations := []time.Duration{50 * time.Millisecond, 100 * time.Millisecond, 30 * time.Millisecond}
	c := newController(t, defs(t,
		stepSpec{"A", sleepWorkload(durations[0])},
		stepSpec{"B", sleepWorkload(durations[1])},
		stepSpec{"C", sleepWorkload(durations[2])},
	))

	start := time.Now()
	require.NoError(t, c.Run(context.Background()))
	wall := time.Since(start)

	assert.Equal(t, 3, c.CurrentStepIndex())
	assert.GreaterOrEqual(t, c.TotalElapsedTime(), 180*time.Millisecond)
	assert.LessOrEqual(t, c.TotalElapsedTime(), wall)

	var sum time.Duration
	for i, s := range c.Steps() {
		assert.GreaterOrEqual(t, s.ElapsedTime(), durations[i], "step %s", s.Name())
		sum += s.ElapsedTime()
	}
	assert.LessOrEqual(t, sum, c.TotalElapsedTime(), "step times fit inside the run time")
}

func TestRunController_RunResetsPreviousState(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	c := newController(t, defs(t,
		stepSpec{"a", advanceWorkload(clock, 40*time.Millisecond)},
		stepSpec{"b", advanceWorkload(clock, 60*time.Millisecond)},
	), WithClock(clock.Now), WithSampleInterval(time.Hour))

	require.NoError(t, c.Run(context.Background()))
	require.NoError(t, c.Run(context.Background()))

	assert.Equal(t, 2, c.CurrentStepIndex())
	assert.Equal(t, 100*time.Millisecond, c.TotalElapsedTime(), "aggregate is zeroed per run")
	assert.Equal(t, 40*time.Millisecond, c.Steps()[0].ElapsedTime(), "steps are reset per run")
}

func TestRunController_LifecycleEventOrder(t *testing.T) {
	t.Parallel()

	rec := &eventRecorder{}
	c := newController(t, defs(t,
		stepSpec{"a", noopWorkload},
		stepSpec{"b", noopWorkload},
	), WithObserver(rec.observe))

	require.NoError(t, c.Run(context.Background()))

	assert.Equal(t, []string{
		EventRunStarted,
		EventStepStarted, EventStepCompleted,
		EventStepStarted, EventStepCompleted,
		EventRunCompleted,
	}, rec.lifecycle())

	var indexes []int
	for _, ev := range rec.ofType(EventCurrentStepIndex) {
		indexes = append(indexes, ev.Index)
	}
	assert.Equal(t, []int{1, 2}, indexes)
}

func TestRunController_TotalElapsedSampling(t *testing.T) {
	t.Parallel()

	rec := &eventRecorder{}
	c := newController(t, defs(t, stepSpec{"slow", sleepWorkload(80 * time.Millisecond)}),
		WithSampleInterval(5*time.Millisecond), WithObserver(rec.observe))

	require.NoError(t, c.Run(context.Background()))

	evs := rec.ofType(EventTotalElapsed)
	require.GreaterOrEqual(t, len(evs), 3)
	for i := 1; i < len(evs); i++ {
		assert.Greater(t, evs[i].Elapsed, evs[i-1].Elapsed,
			"aggregate samples increase and are never republished unchanged")
	}
	assert.Equal(t, c.TotalElapsedTime(), evs[len(evs)-1].Elapsed)
}

// ---------------------------------------------------------------------------
// Failures
// ---------------------------------------------------------------------------

func TestRunController_FailureHaltsRun(t *testing.T) {
	t.Parallel()

	const n = 5
	boom := errors.New("mes rejected")

	for k := 1; k <= n; k++ {
		t.Run(fmt.Sprintf("fail at step %d", k), func(t *testing.T) {
			t.Parallel()

			var ran [n]atomic.Bool
			specs := make([]stepSpec, n)
			for i := range specs {
				i := i
				specs[i] = stepSpec{fmt.Sprintf("s%d", i+1), func(context.Context) error {
					ran[i].Store(true)
					if i == k-1 {
						return boom
					}
					return nil
				}}
			}
			c := newController(t, defs(t, specs...))

			err := c.Run(context.Background())
			require.Error(t, err)
			assert.True(t, errors.Is(err, boom), "workload error is observable by the caller")

			var stepErr *StepError
			require.True(t, errors.As(err, &stepErr))
			assert.Equal(t, k-1, stepErr.Index)
			assert.Equal(t, fmt.Sprintf("s%d", k), stepErr.Step)

			for i := 0; i < n; i++ {
				assert.Equal(t, i < k, ran[i].Load(), "step %d ran", i+1)
			}
			assert.Equal(t, k-1, c.CurrentStepIndex())
			assert.False(t, c.IsRunning())
		})
	}
}

func TestRunController_SingleImmediateFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	rec := &eventRecorder{}
	c := newController(t, defs(t,
		stepSpec{"only", func(context.Context) error { return boom }},
	), WithObserver(rec.observe))

	err := c.Run(context.Background())
	require.ErrorIs(t, err, boom)

	var flags []bool
	for _, ev := range rec.ofType(EventRunningChanged) {
		flags = append(flags, ev.Running)
	}
	assert.Equal(t, []bool{true, false}, flags)
	assert.Equal(t, 0, c.CurrentStepIndex())
	assert.False(t, c.IsRunning())

	failed := rec.ofType(EventRunFailed)
	require.Len(t, failed, 1)
	assert.Contains(t, failed[0].Error, "boom")

	snap := c.Snapshot()
	assert.True(t, snap.Failed())
	assert.Contains(t, snap.Error, "boom")
}

func TestRunController_CleanupBeforeFailureReturns(t *testing.T) {
	t.Parallel()

	var c *RunController
	var runningAtFailure atomic.Bool
	rec := &eventRecorder{}
	c = newController(t, defs(t,
		stepSpec{"bad", func(context.Context) error { return errors.New("bad") }},
	), WithObserver(func(ev Event) {
		rec.observe(ev)
		if ev.Type == EventRunFailed {
			runningAtFailure.Store(c.IsRunning())
		}
	}))

	require.Error(t, c.Run(context.Background()))
	require.Len(t, rec.ofType(EventRunFailed), 1)
	assert.False(t, runningAtFailure.Load(), "running flag is cleared before the failure surfaces")
	assert.False(t, c.Steps()[0].Running(), "step timer is stopped")
}

func TestRunController_ContextCancelledBeforeRun(t *testing.T) {
	t.Parallel()

	var called atomic.Bool
	c := newController(t, defs(t, stepSpec{"a", func(context.Context) error {
		called.Store(true)
		return nil
	}}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, called.Load())
	assert.Equal(t, 0, c.CurrentStepIndex())
	assert.False(t, c.IsRunning())
}

// ---------------------------------------------------------------------------
// Concurrency and disposal
// ---------------------------------------------------------------------------

func TestRunController_ConcurrentRunRejected(t *testing.T) {
	t.Parallel()

	b := newBlocker()
	var calls atomic.Int32
	c := newController(t, defs(t, stepSpec{"wait", func(ctx context.Context) error {
		calls.Add(1)
		return b.workload(ctx)
	}}))

	done := make(chan error, 1)
	go func() { done <- c.Run(context.Background()) }()
	b.waitStarted(t)
	require.True(t, c.IsRunning())

	err := c.Run(context.Background())
	assert.ErrorIs(t, err, ErrRunInProgress)
	assert.True(t, c.IsRunning(), "rejected call does not disturb the active run")

	close(b.release)
	require.NoError(t, <-done)
	assert.Equal(t, int32(1), calls.Load(), "runs never interleave")
	assert.Equal(t, 1, c.CurrentStepIndex())
}

func TestRunController_DisposeMidRun(t *testing.T) {
	t.Parallel()

	b := newBlocker()
	var secondRan atomic.Bool
	c, err := NewRunController(defs(t,
		stepSpec{"first", b.workload},
		stepSpec{"second", func(context.Context) error {
			secondRan.Store(true)
			return nil
		}},
	), WithSampleInterval(time.Millisecond))
	require.NoError(t, err)

	events, _ := c.Subscribe(1024)

	done := make(chan error, 1)
	go func() { done <- c.Run(context.Background()) }()
	b.waitStarted(t)

	disposed := make(chan struct{})
	go func() {
		c.Dispose()
		close(disposed)
	}()
	select {
	case <-disposed:
	case <-time.After(time.Second):
		t.Fatal("Dispose deadlocked on the in-flight workload")
	}

	// The subscriber channel is closed once drained.
	for range events {
	}

	close(b.release)
	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrDisposed)
	case <-time.After(2 * time.Second):
		t.Fatal("run did not finish after release")
	}
	assert.False(t, secondRan.Load(), "no step starts after Dispose")
	assert.Empty(t, c.Steps())
	assert.False(t, c.IsRunning())

	c.Dispose() // idempotent
	assert.ErrorIs(t, c.Run(context.Background()), ErrDisposed)
}

func TestRunController_DisposeStopsSamplingPromptly(t *testing.T) {
	t.Parallel()

	b := newBlocker()
	rec := &eventRecorder{}
	c, err := NewRunController(defs(t, stepSpec{"block", b.workload}),
		WithSampleInterval(time.Millisecond), WithObserver(rec.observe))
	require.NoError(t, err)

	go func() { _ = c.Run(context.Background()) }()
	b.waitStarted(t)
	require.Eventually(t, func() bool {
		return len(rec.ofType(EventStepElapsed)) > 0 && len(rec.ofType(EventTotalElapsed)) > 0
	}, time.Second, time.Millisecond)

	c.Dispose()
	n := rec.count()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, n, rec.count(), "no samples are published after Dispose")
	close(b.release)
}

func TestRunController_Subscribe(t *testing.T) {
	t.Parallel()

	c := newController(t, defs(t, stepSpec{"a", noopWorkload}))

	events, unsubscribe := c.Subscribe(64)
	require.NoError(t, c.Run(context.Background()))
	unsubscribe()
	unsubscribe() // safe twice

	var types []string
	for ev := range events {
		types = append(types, ev.Type)
	}
	assert.Contains(t, types, EventRunStarted)
	assert.Contains(t, types, EventStepCompleted)
	assert.Contains(t, types, EventRunCompleted)
}

func TestRunController_SubscribeAfterDispose(t *testing.T) {
	t.Parallel()

	c := newController(t, []*StepDefinition{})
	c.Dispose()

	events, unsubscribe := c.Subscribe(1)
	defer unsubscribe()
	_, open := <-events
	assert.False(t, open)
}

func TestRunController_SlowSubscriberDoesNotStall(t *testing.T) {
	t.Parallel()

	c := newController(t, defs(t,
		stepSpec{"a", noopWorkload},
		stepSpec{"b", noopWorkload},
		stepSpec{"c", noopWorkload},
	))
	_, unsubscribe := c.Subscribe(0) // never read
	defer unsubscribe()

	done := make(chan error, 1)
	go func() { done <- c.Run(context.Background()) }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("run blocked on an unread subscriber")
	}
}

func TestRunController_WithLogger(t *testing.T) {
	t.Parallel()

	var buf safeBuffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.InfoLevel})

	c := newController(t, defs(t, stepSpec{"scan", noopWorkload}), WithLogger(logger))
	require.NoError(t, c.Run(context.Background()))

	out := buf.String()
	assert.Contains(t, out, "run started")
	assert.Contains(t, out, "step completed")
	assert.Contains(t, out, "run completed")
}

// safeBuffer is a goroutine-safe strings.Builder for log capture.
type safeBuffer struct {
	mu  sync.Mutex
	buf []byte
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, p...)
	return len(p), nil
}

func (b *safeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}
