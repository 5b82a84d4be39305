// Package particle holds the physical state of a fixed population of hard disks.
//
// State is kept as parallel slices (struct-of-arrays) so that free-flight
// propagation is a tight loop and events can refer to particles by index.
package particle

import (
	"fmt"
	"math"
)

// Store is the particle state for one run. The particle count never changes
// after construction.
type Store struct {
	X, Y   []float64
	VX, VY []float64
	R      []float64
	M      []float64
	Count  []uint64
}

// New allocates a store for n particles at rest at the origin with unit mass.
func New(n int) *Store {
	s := &Store{
		X:     make([]float64, n),
		Y:     make([]float64, n),
		VX:    make([]float64, n),
		VY:    make([]float64, n),
		R:     make([]float64, n),
		M:     make([]float64, n),
		Count: make([]uint64, n),
	}
	for i := range s.M {
		s.M[i] = 1.0
	}
	return s
}

// Set writes the full kinematic state of particle i and resets its counter.
func (s *Store) Set(i int, x, y, vx, vy, r, m float64) {
	s.X[i], s.Y[i] = x, y
	s.VX[i], s.VY[i] = vx, vy
	s.R[i], s.M[i] = r, m
	s.Count[i] = 0
}

func (s *Store) Len() int { return len(s.R) }

func (s *Store) Position(i int) (float64, float64) { return s.X[i], s.Y[i] }
func (s *Store) Velocity(i int) (float64, float64) { return s.VX[i], s.VY[i] }
func (s *Store) Radius(i int) float64              { return s.R[i] }
func (s *Store) Mass(i int) float64                { return s.M[i] }
func (s *Store) CountOf(i int) uint64              { return s.Count[i] }

// Propagate moves every particle along its straight line for dt. Velocities
// are constant between events, so all particles advance together.
func (s *Store) Propagate(dt float64) {
	for i := range s.X {
		s.X[i] += s.VX[i] * dt
		s.Y[i] += s.VY[i] * dt
	}
}

func (s *Store) IncrementCount(i int) {
	s.Count[i]++
}

func (s *Store) Speed(i int) float64 {
	return math.Hypot(s.VX[i], s.VY[i])
}

// Speeds returns the speed of every particle.
func (s *Store) Speeds() []float64 {
	out := make([]float64, s.Len())
	for i := range out {
		out[i] = s.Speed(i)
	}
	return out
}

func (s *Store) kinetic(i int) float64 {
	return 0.5 * s.M[i] * (s.VX[i]*s.VX[i] + s.VY[i]*s.VY[i])
}

// KineticEnergy is the total kinetic energy of the system.
func (s *Store) KineticEnergy() float64 {
	e := 0.0
	for i := range s.M {
		e += s.kinetic(i)
	}
	return e
}

// KineticEnergyForMass sums the kinetic energy of particles whose mass equals m.
func (s *Store) KineticEnergyForMass(m float64) float64 {
	e := 0.0
	for i := range s.M {
		if s.M[i] == m {
			e += s.kinetic(i)
		}
	}
	return e
}

// Species lists the distinct masses in order of first appearance.
func (s *Store) Species() []float64 {
	seen := make(map[float64]struct{})
	var out []float64
	for _, m := range s.M {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}

// SpeciesOf returns the index into Species() of particle i's mass.
func (s *Store) SpeciesOf(i int, species []float64) int {
	for k, m := range species {
		if s.M[i] == m {
			return k
		}
	}
	return -1
}

func (s *Store) Clone() *Store {
	c := &Store{
		X:     append([]float64(nil), s.X...),
		Y:     append([]float64(nil), s.Y...),
		VX:    append([]float64(nil), s.VX...),
		VY:    append([]float64(nil), s.VY...),
		R:     append([]float64(nil), s.R...),
		M:     append([]float64(nil), s.M...),
		Count: append([]uint64(nil), s.Count...),
	}
	return c
}

// InBox reports whether particle i lies inside the box with its full disk.
func (s *Store) InBox(i int, xMax, yMax float64) bool {
	r := s.R[i]
	return s.X[i] >= r && s.X[i] <= xMax-r && s.Y[i] >= r && s.Y[i] <= yMax-r
}

// Overlaps reports whether the disks of particles i and j intersect.
func (s *Store) Overlaps(i, j int) bool {
	dx := s.X[j] - s.X[i]
	dy := s.Y[j] - s.Y[i]
	rr := s.R[i] + s.R[j]
	return dx*dx+dy*dy < rr*rr
}

// Validate checks containment and pairwise non-overlap of the whole store.
func (s *Store) Validate(xMax, yMax float64) error {
	for i := 0; i < s.Len(); i++ {
		if s.R[i] < 0 {
			return fmt.Errorf("particle %d: negative radius %g", i, s.R[i])
		}
		if s.M[i] <= 0 {
			return fmt.Errorf("particle %d: non-positive mass %g", i, s.M[i])
		}
		if !s.InBox(i, xMax, yMax) {
			return fmt.Errorf("particle %d at (%g, %g) outside box %gx%g", i, s.X[i], s.Y[i], xMax, yMax)
		}
		for j := i + 1; j < s.Len(); j++ {
			if s.Overlaps(i, j) {
				return fmt.Errorf("particles %d and %d overlap", i, j)
			}
		}
	}
	return nil
}
