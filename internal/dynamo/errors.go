package dynamo

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidState is returned when the plant state picks up a NaN or Inf.
	ErrInvalidState = errors.New("dynamo: state is not finite")

	// ErrParameterBounds is returned by SetParam for values the plant cannot take.
	ErrParameterBounds = errors.New("dynamo: parameter out of bounds")
)

// SimulationError records where a run stopped. State is the plant state
// after the failing step.
type SimulationError struct {
	Step  int
	Time  float64
	State State
	Err   error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.3fs): %v", e.Step, e.Time, e.Err)
}

func (e *SimulationError) Unwrap() error { return e.Err }
