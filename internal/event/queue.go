// Package event schedules hard-disk collisions in time order.
//
// The [Queue] uses lazy invalidation: when a collision is resolved, earlier
// predictions involving the same particles are left in the heap. Each event
// records the collision counters of its parties, and [Event.Valid] detects
// the stale ones when they reach the top. Events with equal times pop in
// insertion order.
package event

import (
	"container/heap"
	"math"

	"github.com/san-kum/hardsim/internal/particle"
	"github.com/san-kum/hardsim/internal/physics"
)

// eventHeap implements heap.Interface ordered by (Time, seq).
type eventHeap []Event

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].Time == h[j].Time {
		return h[i].seq < h[j].seq
	}
	return h[i].Time < h[j].Time
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) { *h = append(*h, x.(Event)) }

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// Queue is a time-ordered multiset of predicted collisions.
type Queue struct {
	params physics.Params
	seq    uint64
	h      eventHeap
}

func NewQueue(params physics.Params) *Queue {
	q := &Queue{params: params, h: eventHeap{}}
	heap.Init(&q.h)
	return q
}

func (q *Queue) Len() int { return q.h.Len() }

// Push adds an event, stamping its insertion sequence.
func (q *Queue) Push(ev Event) {
	q.seq++
	ev.seq = q.seq
	heap.Push(&q.h, ev)
}

// Pop removes and returns the earliest event.
func (q *Queue) Pop() (Event, error) {
	if q.h.Len() == 0 {
		return Event{}, ErrEmptyQueue
	}
	return heap.Pop(&q.h).(Event), nil
}

// Peek returns the earliest event without removing it.
func (q *Queue) Peek() (Event, bool) {
	if q.h.Len() == 0 {
		return Event{}, false
	}
	return q.h[0], true
}

// Events returns a copy of the queued events in heap order.
func (q *Queue) Events() []Event {
	out := make([]Event, len(q.h))
	copy(out, q.h)
	return out
}

func (q *Queue) pushIfFinite(ev Event) bool {
	if math.IsInf(ev.Time, 0) || math.IsNaN(ev.Time) {
		return false
	}
	q.Push(ev)
	return true
}

func (q *Queue) wallEvents(s *particle.Store, i int, t float64) (Event, Event, error) {
	tx, ty, err := physics.WallTimes(s, i, q.params)
	if err != nil {
		return Event{}, Event{}, err
	}
	count := s.CountOf(i)
	h := Event{Time: t + tx, I: i, Partner: HorizontalWall(), CountI: count}
	v := Event{Time: t + ty, I: i, Partner: VerticalWall(), CountI: count}
	return h, v, nil
}

func (q *Queue) pairEvent(s *particle.Store, i, j int, t float64) Event {
	return Event{
		Time:         t + physics.PairTime(s, i, j),
		I:            i,
		Partner:      Particle(j),
		CountI:       s.CountOf(i),
		CountPartner: s.CountOf(j),
	}
}

// Fill seeds the queue at time t0 with, for every particle, its next
// horizontal wall hit, its next vertical wall hit and its nearest particle
// collision.
func (q *Queue) Fill(s *particle.Store, t0 float64) error {
	for i := 0; i < s.Len(); i++ {
		h, v, err := q.wallEvents(s, i, t0)
		if err != nil {
			return err
		}
		q.pushIfFinite(h)
		q.pushIfFinite(v)

		nearest := Event{Time: math.Inf(1)}
		for j := 0; j < s.Len(); j++ {
			if j == i {
				continue
			}
			if ev := q.pairEvent(s, i, j, t0); ev.Time < nearest.Time {
				nearest = ev
			}
		}
		q.pushIfFinite(nearest)
	}
	return nil
}

// AddNewCollisions predicts fresh events for particle i against both walls
// and every other particle, as seen at time t. It returns how many events
// were queued.
func (q *Queue) AddNewCollisions(s *particle.Store, i int, t float64) (int, error) {
	h, v, err := q.wallEvents(s, i, t)
	if err != nil {
		return 0, err
	}

	n := 0
	if q.pushIfFinite(h) {
		n++
	}
	if q.pushIfFinite(v) {
		n++
	}
	for j := 0; j < s.Len(); j++ {
		if j == i {
			continue
		}
		if q.pushIfFinite(q.pairEvent(s, i, j, t)) {
			n++
		}
	}
	return n, nil
}
