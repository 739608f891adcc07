package workflow

import (
	"errors"
	"time"
)

// RunSnapshot is a point-in-time copy of a controller's observable state.
// It is what a polling observer or a JSON status dump reads.
type RunSnapshot struct {
	Running          bool           `json:"running"`
	CurrentStepIndex int            `json:"current_step_index"`
	TotalElapsed     time.Duration  `json:"total_elapsed"`
	Steps            []StepSnapshot `json:"steps"`
	Error            string         `json:"error,omitempty"`
	// FailedIndex is the 0-based index of the step that failed the last run,
	// or -1.
	FailedIndex int `json:"failed_index"`
}

// StepSnapshot captures one step's published state. Elapsed is serialized as
// nanoseconds, the default for time.Duration.
type StepSnapshot struct {
	Name    string        `json:"name"`
	Elapsed time.Duration `json:"elapsed"`
	Running bool          `json:"running"`
}

// Snapshot returns the controller's current state. Steps is initialized to an
// empty slice (not nil) so JSON output is [] rather than null.
func (c *RunController) Snapshot() RunSnapshot {
	c.mu.RLock()
	snap := RunSnapshot{
		Running:          c.running,
		CurrentStepIndex: c.currentIndex,
		TotalElapsed:     c.total,
		Steps:            make([]StepSnapshot, 0, len(c.steps)),
		FailedIndex:      -1,
	}
	if c.lastErr != nil {
		snap.Error = c.lastErr.Error()
		var stepErr *StepError
		if errors.As(c.lastErr, &stepErr) {
			snap.FailedIndex = stepErr.Index
		}
	}
	steps := c.steps
	c.mu.RUnlock()

	for _, s := range steps {
		snap.Steps = append(snap.Steps, StepSnapshot{
			Name:    s.Name(),
			Elapsed: s.ElapsedTime(),
			Running: s.Running(),
		})
	}
	return snap
}

// Completed returns how many steps finished in the snapshot's run.
func (s RunSnapshot) Completed() int { return s.CurrentStepIndex }

// Failed reports whether the snapshot's run ended with an error.
func (s RunSnapshot) Failed() bool { return !s.Running && s.Error != "" }

// Fraction returns completed steps over total steps in [0, 1]; zero for an
// empty step list.
func (s RunSnapshot) Fraction() float64 {
	if len(s.Steps) == 0 {
		return 0
	}
	return float64(s.CurrentStepIndex) / float64(len(s.Steps))
}
