// Package placement lays out non-overlapping disks in a box by rejection
// sampling.
package placement

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/san-kum/hardsim/internal/particle"
)

var ErrInfeasible = errors.New("placement: infeasible configuration")

const DefaultMaxAttempts = 100000

// Species describes a group of identical disks. Every disk starts with the
// same speed in a uniformly random direction.
type Species struct {
	Count  int
	Radius float64
	Mass   float64
	Speed  float64
}

type Layout struct {
	XMax, YMax  float64
	Species     []Species
	MaxAttempts int
}

// PackingFraction is the total disk area divided by the box area.
func PackingFraction(species []Species, xMax, yMax float64) float64 {
	area := 0.0
	for _, sp := range species {
		area += float64(sp.Count) * math.Pi * sp.Radius * sp.Radius
	}
	return area / (xMax * yMax)
}

// Total is the number of disks across all species.
func Total(species []Species) int {
	n := 0
	for _, sp := range species {
		n += sp.Count
	}
	return n
}

// Place draws positions and velocities for every disk of the layout. Disks
// are stored species by species in declaration order.
func Place(layout Layout, rng *rand.Rand) (*particle.Store, error) {
	if layout.XMax <= 0 || layout.YMax <= 0 {
		return nil, fmt.Errorf("%w: box %gx%g", ErrInfeasible, layout.XMax, layout.YMax)
	}
	if f := PackingFraction(layout.Species, layout.XMax, layout.YMax); f >= 1 {
		return nil, fmt.Errorf("%w: packing fraction %.3f", ErrInfeasible, f)
	}
	for k, sp := range layout.Species {
		if sp.Count > 0 && (2*sp.Radius > layout.XMax || 2*sp.Radius > layout.YMax) {
			return nil, fmt.Errorf("%w: species %d radius %g does not fit box %gx%g", ErrInfeasible, k, sp.Radius, layout.XMax, layout.YMax)
		}
	}
	attempts := layout.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}

	s := particle.New(Total(layout.Species))
	i := 0
	for k, sp := range layout.Species {
		for n := 0; n < sp.Count; n++ {
			if err := placeOne(s, i, sp, layout, attempts, rng); err != nil {
				return nil, fmt.Errorf("species %d particle %d: %w", k, n, err)
			}
			i++
		}
	}
	return s, nil
}

func placeOne(s *particle.Store, i int, sp Species, layout Layout, attempts int, rng *rand.Rand) error {
	angle := rng.Float64() * 2 * math.Pi
	vx, vy := sp.Speed*math.Cos(angle), sp.Speed*math.Sin(angle)

	for a := 0; a < attempts; a++ {
		x := rng.Float64() * layout.XMax
		y := rng.Float64() * layout.YMax
		s.Set(i, x, y, vx, vy, sp.Radius, sp.Mass)
		if !s.InBox(i, layout.XMax, layout.YMax) {
			continue
		}
		if !overlapsAny(s, i) {
			return nil
		}
	}
	return fmt.Errorf("%w: no free position after %d attempts", ErrInfeasible, attempts)
}

func overlapsAny(s *particle.Store, i int) bool {
	for j := 0; j < i; j++ {
		if s.Overlaps(i, j) {
			return true
		}
	}
	return false
}
