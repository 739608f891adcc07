package cli

import (
	"sync"

	"github.com/AbdelazizMoustafa10m/StepBar/internal/workflow"
)

// eventQueue is an unbounded FIFO of controller events. It is fed from the
// controller's observer callback, so a slow writer delays output but never
// loses an event, and the controller is never blocked by it.
type eventQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []workflow.Event
	closed bool
}

func newEventQueue() *eventQueue {
	q := &eventQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// push appends ev. Events pushed after close are dropped.
func (q *eventQueue) push(ev workflow.Event) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.items = append(q.items, ev)
	q.cond.Signal()
}

// close marks the end of the stream; next keeps returning queued events
// until the queue is drained.
func (q *eventQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.cond.Broadcast()
}

// next blocks until an event is available. It returns false once the queue
// is closed and empty.
func (q *eventQueue) next() (workflow.Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return workflow.Event{}, false
	}
	ev := q.items[0]
	q.items[0] = workflow.Event{}
	q.items = q.items[1:]
	return ev, true
}
