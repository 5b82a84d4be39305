package event

import (
	"fmt"

	"github.com/san-kum/hardsim/internal/physics"
)

// Kind tags the variant held by a Partner.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindParticle
	KindHorizontalWall
	KindVerticalWall
)

func (k Kind) String() string {
	switch k {
	case KindParticle:
		return "particle"
	case KindHorizontalWall:
		return "horizontal wall"
	case KindVerticalWall:
		return "vertical wall"
	}
	return "unknown"
}

// Partner is the other party of a collision: another particle or one of the
// two walls. The zero value is KindUnknown and never valid.
type Partner struct {
	kind  Kind
	index int
}

func Particle(j int) Partner   { return Partner{kind: KindParticle, index: j} }
func HorizontalWall() Partner  { return Partner{kind: KindHorizontalWall} }
func VerticalWall() Partner    { return Partner{kind: KindVerticalWall} }
func (p Partner) Kind() Kind   { return p.kind }
func (p Partner) IsWall() bool { return p.kind == KindHorizontalWall || p.kind == KindVerticalWall }

// Index returns the particle index when the partner is a particle.
func (p Partner) Index() (int, bool) {
	if p.kind != KindParticle {
		return 0, false
	}
	return p.index, true
}

// Axis maps a wall partner to the wall pair it stands for. The horizontal
// wall is the one met by horizontal motion.
func (p Partner) Axis() (physics.Axis, bool) {
	switch p.kind {
	case KindHorizontalWall:
		return physics.AxisX, true
	case KindVerticalWall:
		return physics.AxisY, true
	}
	return 0, false
}

func (p Partner) String() string {
	if p.kind == KindParticle {
		return fmt.Sprintf("particle %d", p.index)
	}
	return p.kind.String()
}
