package workflow

import (
	"context"
	"fmt"
)

// Workload is the unit of work behind a step. It returns when the work is
// finished; a non-nil error fails the step and halts the run. The context is
// the one passed to RunController.Run; honouring it is up to the workload.
type Workload func(ctx context.Context) error

// StepDefinition is the immutable description of one step: a display name and
// the workload to execute. A definition may be shared read-only between any
// number of StepProgress values.
type StepDefinition struct {
	name     string
	workload Workload
}

// NewStepDefinition validates its inputs and returns a definition. It fails
// with ErrInvalidArgument when name is empty or workload is nil.
func NewStepDefinition(name string, workload Workload) (*StepDefinition, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: step name is empty", ErrInvalidArgument)
	}
	if workload == nil {
		return nil, fmt.Errorf("%w: step %q has no workload", ErrInvalidArgument, name)
	}
	return &StepDefinition{name: name, workload: workload}, nil
}

// MustStepDefinition is like NewStepDefinition but panics on invalid input.
// It is intended for static step tables.
func MustStepDefinition(name string, workload Workload) *StepDefinition {
	def, err := NewStepDefinition(name, workload)
	if err != nil {
		panic(err)
	}
	return def
}

// Name returns the step's display name.
func (d *StepDefinition) Name() string { return d.name }

// Workload returns the step's workload.
func (d *StepDefinition) Workload() Workload { return d.workload }
