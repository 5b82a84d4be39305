package sim

import (
	"fmt"

	"github.com/san-kum/hardsim/internal/event"
	"github.com/san-kum/hardsim/internal/particle"
	"github.com/san-kum/hardsim/internal/physics"
)

// Config is the immutable run configuration handed to the driver.
type Config struct {
	Params       physics.Params
	Restitution  float64
	TC           physics.TC
	MaxEvents    int
	EnergyCutoff float64
	T0           float64
}

func DefaultConfig() Config {
	return Config{
		Params:       physics.DefaultParams(),
		Restitution:  1.0,
		TC:           physics.TC{Threshold: DefaultTCThreshold},
		MaxEvents:    1000,
		EnergyCutoff: 0,
	}
}

// DefaultTCThreshold is the free-flight time below which TC mode forces an
// elastic collision.
const DefaultTCThreshold = 1e-8

// Row is one diagnostics sample, taken after each resolved collision.
type Row struct {
	Time          float64
	Energy        float64
	SpeciesEnergy []float64
}

// Metric accumulates a scalar over resolved collisions.
type Metric interface {
	Name() string
	Observe(ev event.Event, s *particle.Store, t float64)
	Value() float64
	Reset()
}

// Starter is implemented by metrics that need the state at the start of the
// run.
type Starter interface {
	Begin(s *particle.Store, t0 float64)
}

// Observer is notified synchronously after each resolved collision.
type Observer interface {
	OnEvent(row Row, ev event.Event)
}

// State of the driver's run.
type State int

const (
	Running State = iota
	Terminated
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "terminated"
}

// StopReason records which condition ended a run.
type StopReason int

const (
	StopNone StopReason = iota
	StopEventBudget
	StopEnergyCutoff
	StopCanceled
	StopFailed
)

func (r StopReason) String() string {
	switch r {
	case StopNone:
		return "none"
	case StopEventBudget:
		return "event budget"
	case StopEnergyCutoff:
		return "energy cutoff"
	case StopCanceled:
		return "canceled"
	case StopFailed:
		return "failed"
	}
	return fmt.Sprintf("StopReason(%d)", int(r))
}

// Result is everything a run hands to its collaborators once it ends.
type Result struct {
	Store         *particle.Store
	Rows          []Row
	Species       []float64
	SpeedsBefore  []float64
	SpeedsAfter   []float64
	InitialEnergy float64
	FinalEnergy   float64
	Time          float64
	Resolved      int
	Popped        int
	Discarded     int
	Generated     int
	TCEvents      int
	StopReason    StopReason
	Metrics       map[string]float64
}

// EnergyFraction is the share of the initial kinetic energy left at the end.
func (r *Result) EnergyFraction() float64 {
	if r.InitialEnergy == 0 {
		return 0
	}
	return r.FinalEnergy / r.InitialEnergy
}
