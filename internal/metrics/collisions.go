package metrics

import (
	"github.com/san-kum/hardsim/internal/event"
	"github.com/san-kum/hardsim/internal/particle"
)

// CollisionRate is resolved collisions per unit of simulated time.
type CollisionRate struct {
	name    string
	t0, t   float64
	samples int
}

func NewCollisionRate() *CollisionRate {
	return &CollisionRate{name: "collision_rate"}
}

func (c *CollisionRate) Name() string { return c.name }

func (c *CollisionRate) Begin(_ *particle.Store, t0 float64) {
	c.t0, c.t = t0, t0
}

func (c *CollisionRate) Observe(ev event.Event, _ *particle.Store, t float64) {
	c.t = t
	c.samples++
}

func (c *CollisionRate) Value() float64 {
	if c.t <= c.t0 {
		return 0
	}
	return float64(c.samples) / (c.t - c.t0)
}

func (c *CollisionRate) Reset() {
	c.t0, c.t = 0, 0
	c.samples = 0
}

// WallFraction is the share of resolved collisions that involved a wall.
type WallFraction struct {
	name    string
	walls   int
	samples int
}

func NewWallFraction() *WallFraction {
	return &WallFraction{name: "wall_fraction"}
}

func (w *WallFraction) Name() string { return w.name }

func (w *WallFraction) Observe(ev event.Event, _ *particle.Store, t float64) {
	if ev.Partner.IsWall() {
		w.walls++
	}
	w.samples++
}

func (w *WallFraction) Value() float64 {
	if w.samples == 0 {
		return 0
	}
	return float64(w.walls) / float64(w.samples)
}

func (w *WallFraction) Reset() {
	w.walls = 0
	w.samples = 0
}

// MeanFreeTime averages, over every particle, the simulated time between two
// of its consecutive collisions. Wall hits count as collisions.
type MeanFreeTime struct {
	name      string
	last      map[int]float64
	total     float64
	intervals int
}

func NewMeanFreeTime() *MeanFreeTime {
	return &MeanFreeTime{name: "mean_free_time", last: make(map[int]float64)}
}

func (m *MeanFreeTime) Name() string { return m.name }

func (m *MeanFreeTime) Observe(ev event.Event, _ *particle.Store, t float64) {
	m.hit(ev.I, t)
	if j, ok := ev.Partner.Index(); ok {
		m.hit(j, t)
	}
}

func (m *MeanFreeTime) hit(i int, t float64) {
	if prev, ok := m.last[i]; ok {
		m.total += t - prev
		m.intervals++
	}
	m.last[i] = t
}

func (m *MeanFreeTime) Value() float64 {
	if m.intervals == 0 {
		return 0
	}
	return m.total / float64(m.intervals)
}

func (m *MeanFreeTime) Reset() {
	m.last = make(map[int]float64)
	m.total = 0
	m.intervals = 0
}
