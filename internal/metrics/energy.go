package metrics

import (
	"math"

	"github.com/san-kum/hardsim/internal/event"
	"github.com/san-kum/hardsim/internal/particle"
)

// Energy is the mean total kinetic energy over resolved collisions.
type Energy struct {
	name        string
	samples     int
	totalEnergy float64
}

func NewEnergy() *Energy {
	return &Energy{name: "energy"}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(ev event.Event, s *particle.Store, t float64) {
	e.totalEnergy += s.KineticEnergy()
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.totalEnergy / float64(e.samples)
}

func (e *Energy) Reset() {
	e.totalEnergy = 0
	e.samples = 0
}

// EnergyDrift tracks the largest relative deviation of the kinetic energy
// from its value at the start of the run. It only makes sense for elastic
// runs.
type EnergyDrift struct {
	name          string
	initialEnergy float64
	maxDrift      float64
}

func NewEnergyDrift() *EnergyDrift {
	return &EnergyDrift{name: "energy_drift"}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Begin(s *particle.Store, t0 float64) {
	e.initialEnergy = s.KineticEnergy()
}

func (e *EnergyDrift) Observe(ev event.Event, s *particle.Store, t float64) {
	if e.initialEnergy == 0 {
		return
	}
	drift := math.Abs(s.KineticEnergy()-e.initialEnergy) / e.initialEnergy
	e.maxDrift = math.Max(e.maxDrift, drift)
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.maxDrift = 0
}
