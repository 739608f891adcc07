package tui

import (
	"github.com/AbdelazizMoustafa10m/StepBar/internal/workflow"
)

// EventMsg carries one controller event into the Bubble Tea update loop.
type EventMsg struct {
	Event workflow.Event
}

// RunFinishedMsg is delivered when a run started from the view returns.
// Err is nil for a successful run.
type RunFinishedMsg struct {
	Err error
}

// eventsClosedMsg signals that the controller's event channel was closed,
// which happens when the controller is disposed.
type eventsClosedMsg struct{}
