package sim

import (
	"errors"
	"fmt"

	"github.com/san-kum/hardsim/internal/event"
)

var (
	// ErrParameterBounds indicates a configuration value outside its valid range.
	ErrParameterBounds = errors.New("sim: parameter out of valid bounds")

	// ErrInvalidStore indicates an initial configuration with disks outside
	// the box or overlapping each other.
	ErrInvalidStore = errors.New("sim: invalid initial particle configuration")

	// ErrTerminated is returned by Step once the run has ended.
	ErrTerminated = errors.New("sim: run already terminated")
)

// SimulationError wraps a fatal consistency violation with the position in
// the run where it happened.
type SimulationError struct {
	Resolved int
	Popped   int
	Time     float64
	Event    event.Event
	Wrapped  error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("event %d (popped %d, t=%.6g) %v: %v", e.Resolved, e.Popped, e.Time, e.Event, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
