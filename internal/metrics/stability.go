package metrics

import (
	"github.com/san-kum/hardsim/internal/event"
	"github.com/san-kum/hardsim/internal/particle"
)

// Stability is the share of collisions that follow the previous one after
// more than threshold. It drops towards zero as an inelastic system heads
// into collapse.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
	last       float64
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Begin(_ *particle.Store, t0 float64) {
	s.last = t0
}

func (s *Stability) Observe(ev event.Event, _ *particle.Store, t float64) {
	s.samples++
	if t-s.last <= s.threshold {
		s.violations++
	}
	s.last = t
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
	s.last = 0
}
