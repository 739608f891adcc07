package workflow

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned by constructors when a required input
	// (step list, step name, workload, definition) is missing.
	ErrInvalidArgument = errors.New("workflow: invalid argument")

	// ErrRunInProgress is returned by RunController.Run when another run is
	// already active. The rejected call has no side effects.
	ErrRunInProgress = errors.New("workflow: run already in progress")

	// ErrDisposed is returned when a controller or step is used after Dispose.
	ErrDisposed = errors.New("workflow: disposed")
)

// StepError reports the workload failure that halted a run. Err is the error
// returned by the workload, unchanged, so errors.Is and errors.As see through
// StepError to the original cause.
type StepError struct {
	// Index is the 0-based position of the failed step in the run.
	Index int
	// Step is the failed step's name.
	Step string
	// Err is the workload's error.
	Err error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("workflow: step %d (%q) failed: %v", e.Index+1, e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }
