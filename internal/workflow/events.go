package workflow

import (
	"sync"
	"time"
)

// Event type constants identify what changed. Property events (EventStepElapsed,
// EventTotalElapsed, EventCurrentStepIndex, EventRunningChanged) are emitted
// only when the value actually changes; lifecycle events are emitted once per
// milestone.
const (
	// EventRunStarted is emitted after all steps are reset and timing begins.
	EventRunStarted = "run_started"

	// EventRunCompleted is emitted when every step finished successfully.
	EventRunCompleted = "run_completed"

	// EventRunFailed is emitted when a step failed, the context was cancelled,
	// or the controller was disposed mid-run.
	EventRunFailed = "run_failed"

	// EventStepStarted is emitted immediately before a step's workload runs.
	EventStepStarted = "step_started"

	// EventStepCompleted is emitted when a step's workload returned nil.
	EventStepCompleted = "step_completed"

	// EventStepFailed is emitted when a step's workload returned an error.
	EventStepFailed = "step_failed"

	// EventStepElapsed carries a step's newly published elapsed time.
	EventStepElapsed = "step_elapsed"

	// EventTotalElapsed carries the run's newly published aggregate time.
	EventTotalElapsed = "total_elapsed"

	// EventCurrentStepIndex carries the new current step index.
	EventCurrentStepIndex = "current_step_index"

	// EventRunningChanged carries the new value of the running flag.
	EventRunningChanged = "is_running"
)

// Event is a notification published by StepProgress and RunController. Only
// the fields relevant to Type are populated.
type Event struct {
	// Type is one of the Event* constants.
	Type string `json:"type"`

	// Step is the step name for step-scoped events.
	Step string `json:"step,omitempty"`

	// Index is the step's 0-based position for step-scoped events and the new
	// value for EventCurrentStepIndex.
	Index int `json:"index"`

	// Elapsed is the published time for EventStepElapsed and
	// EventTotalElapsed, and the final time for completion events.
	Elapsed time.Duration `json:"elapsed"`

	// Running is the new flag value for EventRunningChanged.
	Running bool `json:"running"`

	// Error holds the failure text for EventStepFailed and EventRunFailed.
	Error string `json:"error,omitempty"`

	// Timestamp records when the event was emitted.
	Timestamp time.Time `json:"timestamp"`
}

// broadcaster fans events out to subscriber channels. Sends never block: a
// subscriber whose buffer is full misses the event and can re-read current
// state from the controller.
type broadcaster struct {
	mu     sync.RWMutex
	subs   map[int]chan Event
	nextID int
	closed bool
}

func newBroadcaster() *broadcaster {
	return &broadcaster{subs: make(map[int]chan Event)}
}

// minBuffer is the smallest subscriber buffer. Sends never block, so an
// unbuffered channel would only receive events while its reader is parked.
const minBuffer = 1

// subscribe registers a new channel with the given buffer size, raised to
// minBuffer. The returned function unsubscribes and closes the channel; it is
// safe to call more than once. Subscribing to a closed broadcaster yields an
// already-closed channel.
func (b *broadcaster) subscribe(buffer int) (<-chan Event, func()) {
	if buffer < minBuffer {
		buffer = minBuffer
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if c, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(c)
			}
		})
	}
}

func (b *broadcaster) emit(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// close closes every subscriber channel; later emits are dropped.
func (b *broadcaster) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		close(ch)
		delete(b.subs, id)
	}
}
