package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/AbdelazizMoustafa10m/StepBar/internal/workflow"
)

// Controller is the part of workflow.RunController the watch view needs.
type Controller interface {
	Run(ctx context.Context) error
	Snapshot() workflow.RunSnapshot
}

// WaitForEvent returns a tea.Cmd that reads a single event from ch and wraps
// it in an EventMsg. It yields eventsClosedMsg once ch is closed and nil when
// ctx is done.
//
// Re-issue it from Update after each EventMsg to keep draining the channel:
//
//	case EventMsg:
//	    // handle...
//	    return a, WaitForEvent(ctx, ch)
func WaitForEvent(ctx context.Context, ch <-chan workflow.Event) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-ch:
			if !ok {
				return eventsClosedMsg{}
			}
			return EventMsg{Event: ev}
		}
	}
}

// RunCmd returns a tea.Cmd that executes one run on ctrl and reports the
// outcome as a RunFinishedMsg. Bubble Tea runs it on its own goroutine, so
// the update loop keeps processing events while the run is in flight.
func RunCmd(ctx context.Context, ctrl Controller) tea.Cmd {
	return func() tea.Msg {
		return RunFinishedMsg{Err: ctrl.Run(ctx)}
	}
}
