package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/muesli/termenv"

	"github.com/AbdelazizMoustafa10m/StepBar/internal/workflow"
)

// FormatElapsed renders d with tenth-of-a-second precision: "0.0s", "12.3s",
// "1m05.2s", "1h02m03.0s". Negative values render as zero.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Truncate(100 * time.Millisecond)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := float64(d%time.Minute) / float64(time.Second)
	switch {
	case h > 0:
		return fmt.Sprintf("%dh%02dm%04.1fs", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm%04.1fs", m, s)
	default:
		return fmt.Sprintf("%.1fs", s)
	}
}

// StepStates derives each step's display state from a snapshot. Steps before
// CurrentStepIndex are done; while running, the step at CurrentStepIndex is
// running; after a failed run, FailedIndex marks the failed step.
func StepStates(snap workflow.RunSnapshot) []StepState {
	states := make([]StepState, len(snap.Steps))
	for i, s := range snap.Steps {
		switch {
		case i < snap.CurrentStepIndex:
			states[i] = StepDone
		case s.Running || (snap.Running && i == snap.CurrentStepIndex):
			states[i] = StepRunning
		case !snap.Running && i == snap.FailedIndex:
			states[i] = StepFailed
		default:
			states[i] = StepPending
		}
	}
	return states
}

// NewProgressBar returns the run-level bar used by both the watch view and the
// headless printer. With plain set, the bar renders without ANSI colors.
func NewProgressBar(width int, plain bool) progress.Model {
	opts := []progress.Option{
		progress.WithDefaultGradient(),
		progress.WithWidth(width),
		progress.WithoutPercentage(),
	}
	if plain {
		opts = append(opts, progress.WithColorProfile(termenv.Ascii))
	}
	return progress.New(opts...)
}
