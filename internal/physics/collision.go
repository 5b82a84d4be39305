package physics

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/hardsim/internal/particle"
)

// ErrContainment means a disk is already past a wall by more than the
// numerical tolerance. The simulation state is corrupt when this happens.
var ErrContainment = errors.New("physics: particle outside its container")

// Axis selects one of the two wall pairs.
type Axis int

const (
	AxisX Axis = iota
	AxisY
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	}
	return fmt.Sprintf("Axis(%d)", int(a))
}

// Params is the immutable geometry shared by every physics query of a run.
type Params struct {
	XMax, YMax float64
	// WallTolerance is how far below zero a wall time may fall before it is
	// treated as a containment violation.
	WallTolerance float64
}

// DefaultWallTolerance absorbs rounding at corners and just-resolved walls.
const DefaultWallTolerance = 1e-9

func DefaultParams() Params {
	return Params{XMax: 1, YMax: 1, WallTolerance: DefaultWallTolerance}
}

// TC configures near-collapse regularisation.
type TC struct {
	Enabled   bool
	Threshold float64
}

// WallTime returns the time until a disk at p moving with v meets a wall at
// 0 or at length. Results in [-tol, 0) are clamped to zero.
func WallTime(p, v, r, length, tol float64) (float64, error) {
	var dt float64
	switch {
	case v > 0:
		dt = (length - r - p) / v
	case v < 0:
		dt = (r - p) / v
	default:
		return math.Inf(1), nil
	}

	if dt < -tol {
		return dt, fmt.Errorf("%w: position %g, velocity %g, radius %g, wall time %g", ErrContainment, p, v, r, dt)
	}
	if dt < 0 {
		dt = 0
	}
	return dt, nil
}

// WallTimes returns the times until particle i meets the x walls and the y walls.
func WallTimes(s *particle.Store, i int, params Params) (tx, ty float64, err error) {
	tx, err = WallTime(s.X[i], s.VX[i], s.R[i], params.XMax, params.WallTolerance)
	if err != nil {
		return tx, ty, fmt.Errorf("particle %d, %s wall: %w", i, AxisX, err)
	}
	ty, err = WallTime(s.Y[i], s.VY[i], s.R[i], params.YMax, params.WallTolerance)
	if err != nil {
		return tx, ty, fmt.Errorf("particle %d, %s wall: %w", i, AxisY, err)
	}
	return tx, ty, nil
}

// Impact collects the relative kinematics of two disks.
type Impact struct {
	DX, DY   float64 // posB - posA
	DVX, DVY float64 // velB - velA
	R2       float64 // (rA + rB)^2
	DvDx     float64
	DvDv     float64
	DxDx     float64
	D        float64 // discriminant
}

func ImpactStats(s *particle.Store, a, b int) Impact {
	im := Impact{
		DX:  s.X[b] - s.X[a],
		DY:  s.Y[b] - s.Y[a],
		DVX: s.VX[b] - s.VX[a],
		DVY: s.VY[b] - s.VY[a],
	}
	rr := s.R[a] + s.R[b]
	im.R2 = rr * rr
	im.DvDx = im.DVX*im.DX + im.DVY*im.DY
	im.DvDv = im.DVX*im.DVX + im.DVY*im.DVY
	im.DxDx = im.DX*im.DX + im.DY*im.DY
	im.D = im.DvDx*im.DvDx - im.DvDv*(im.DxDx-im.R2)
	return im
}

// PairTime returns the time until disks a and b touch, or +Inf when their
// current paths never bring them into contact.
func PairTime(s *particle.Store, a, b int) float64 {
	im := ImpactStats(s, a, b)
	if im.DvDx >= 0 || im.D <= 0 {
		return math.Inf(1)
	}
	dt := -(im.DvDx + math.Sqrt(im.D)) / im.DvDv
	if dt < 0 {
		dt = 0
	}
	return dt
}

// ResolveWall applies the wall law to particle i. The normal component is
// reversed and both components are scaled by xi.
func ResolveWall(s *particle.Store, i int, axis Axis, xi float64) error {
	switch axis {
	case AxisX:
		s.VX[i] *= -xi
		s.VY[i] *= xi
	case AxisY:
		s.VX[i] *= xi
		s.VY[i] *= -xi
	default:
		return fmt.Errorf("physics: unknown wall axis %v", axis)
	}
	s.IncrementCount(i)
	return nil
}

// ResolvePair applies the hard-disk collision law to a and b, splitting the
// impulse by reduced-mass fractions.
func ResolvePair(s *particle.Store, a, b int, xi float64) {
	im := ImpactStats(s, a, b)
	ma, mb := s.M[a], s.M[b]
	muA := mb / (ma + mb)
	muB := ma / (ma + mb)

	cA := (1 + xi) * muA * im.DvDx / im.R2
	cB := (1 + xi) * muB * im.DvDx / im.R2

	s.VX[a] += cA * im.DX
	s.VY[a] += cA * im.DY
	s.VX[b] -= cB * im.DX
	s.VY[b] -= cB * im.DY

	s.IncrementCount(a)
	s.IncrementCount(b)
}

// Restitution picks the coefficient for a collision preceded by a free
// flight of dt. It reports true when TC forced an elastic collision.
func Restitution(xi, dt float64, tc TC) (float64, bool) {
	if tc.Enabled && dt < tc.Threshold {
		return 1.0, true
	}
	return xi, false
}
