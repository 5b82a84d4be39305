package event

import (
	"errors"
	"fmt"

	"github.com/san-kum/hardsim/internal/particle"
)

var (
	// ErrEmptyQueue is returned when an event is requested from an empty
	// queue. Regeneration guarantees this never happens while particles move.
	ErrEmptyQueue = errors.New("event: collision queue is empty")

	// ErrUnknownPartner marks an event whose partner is neither a wall nor a
	// particle of the store.
	ErrUnknownPartner = errors.New("event: unrecognised collision partner")
)

// Event is a predicted collision. It carries the collision counters of both
// parties as they were when the prediction was made.
type Event struct {
	Time         float64
	I            int
	Partner      Partner
	CountI       uint64
	CountPartner uint64

	seq uint64
}

// Seq is the insertion sequence assigned by the queue; it orders events
// scheduled for the same time.
func (e Event) Seq() uint64 { return e.seq }

// Valid reports whether no party has collided since the event was predicted.
func (e Event) Valid(s *particle.Store) (bool, error) {
	if e.I < 0 || e.I >= s.Len() {
		return false, fmt.Errorf("%w: particle index %d out of range", ErrUnknownPartner, e.I)
	}
	if e.CountI != s.CountOf(e.I) {
		return false, nil
	}

	switch e.Partner.Kind() {
	case KindHorizontalWall, KindVerticalWall:
		return e.CountPartner == 0, nil
	case KindParticle:
		j, _ := e.Partner.Index()
		if j < 0 || j >= s.Len() || j == e.I {
			return false, fmt.Errorf("%w: %v for particle %d", ErrUnknownPartner, e.Partner, e.I)
		}
		return e.CountPartner == s.CountOf(j), nil
	}
	return false, fmt.Errorf("%w: %v", ErrUnknownPartner, e.Partner)
}

func (e Event) String() string {
	return fmt.Sprintf("t=%.6g particle %d with %v (counts %d/%d)", e.Time, e.I, e.Partner, e.CountI, e.CountPartner)
}
