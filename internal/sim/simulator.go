// Package sim drives an event-driven hard-disk simulation.
//
// A [Driver] repeatedly pops the earliest predicted collision, discards it if
// any party has collided since it was predicted, and otherwise advances every
// particle to the collision time, applies the collision law and predicts the
// successor collisions of the particles involved.
//
// A run ends after MaxEvents resolved collisions or once the kinetic energy
// falls to EnergyCutoff times its initial value, whichever comes first.
//
// # Thread Safety
//
// A Driver exclusively owns its particle store and queue and is NOT safe for
// concurrent use.
package sim

import (
	"context"
	"fmt"

	"github.com/san-kum/hardsim/internal/event"
	"github.com/san-kum/hardsim/internal/particle"
	"github.com/san-kum/hardsim/internal/physics"
)

type Driver struct {
	store *particle.Store
	queue *event.Queue
	cfg   Config

	t      float64
	state  State
	reason StopReason

	species      []float64
	e0           float64
	speedsBefore []float64
	rows         []Row

	resolved  int
	popped    int
	discarded int
	generated int
	tcEvents  int

	metrics   []Metric
	observers []Observer
}

type Option func(*Driver)

func WithMetric(m Metric) Option     { return func(d *Driver) { d.metrics = append(d.metrics, m) } }
func WithObserver(o Observer) Option { return func(d *Driver) { d.observers = append(d.observers, o) } }

// New takes ownership of store, seeds the collision queue at cfg.T0 and
// returns a driver ready to step.
func New(store *particle.Store, cfg Config, opts ...Option) (*Driver, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	if err := store.Validate(cfg.Params.XMax, cfg.Params.YMax); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStore, err)
	}

	d := &Driver{
		store:        store,
		queue:        event.NewQueue(cfg.Params),
		cfg:          cfg,
		t:            cfg.T0,
		state:        Running,
		species:      store.Species(),
		e0:           store.KineticEnergy(),
		speedsBefore: store.Speeds(),
		rows:         make([]Row, 0, min(cfg.MaxEvents, 1<<16)),
	}
	for _, opt := range opts {
		opt(d)
	}
	for _, m := range d.metrics {
		m.Reset()
		if st, ok := m.(Starter); ok {
			st.Begin(store, cfg.T0)
		}
	}

	if err := d.queue.Fill(store, cfg.T0); err != nil {
		return nil, err
	}
	d.checkStop()
	return d, nil
}

func validateConfig(cfg Config) error {
	if cfg.Params.XMax <= 0 || cfg.Params.YMax <= 0 {
		return fmt.Errorf("%w: box must be positive, got %gx%g", ErrParameterBounds, cfg.Params.XMax, cfg.Params.YMax)
	}
	if cfg.Params.WallTolerance < 0 {
		return fmt.Errorf("%w: wall tolerance must be non-negative, got %g", ErrParameterBounds, cfg.Params.WallTolerance)
	}
	if cfg.Restitution <= 0 || cfg.Restitution > 1 {
		return fmt.Errorf("%w: restitution must be in (0, 1], got %g", ErrParameterBounds, cfg.Restitution)
	}
	if cfg.MaxEvents <= 0 {
		return fmt.Errorf("%w: max events must be positive, got %d", ErrParameterBounds, cfg.MaxEvents)
	}
	if cfg.EnergyCutoff < 0 || cfg.EnergyCutoff >= 1 {
		return fmt.Errorf("%w: energy cutoff must be in [0, 1), got %g", ErrParameterBounds, cfg.EnergyCutoff)
	}
	if cfg.TC.Enabled && cfg.TC.Threshold < 0 {
		return fmt.Errorf("%w: tc threshold must be non-negative, got %g", ErrParameterBounds, cfg.TC.Threshold)
	}
	return nil
}

func (d *Driver) Store() *particle.Store { return d.store }
func (d *Driver) Queue() *event.Queue    { return d.queue }
func (d *Driver) Time() float64          { return d.t }
func (d *Driver) State() State           { return d.state }
func (d *Driver) StopReason() StopReason { return d.reason }
func (d *Driver) Rows() []Row            { return d.rows }
func (d *Driver) Resolved() int          { return d.resolved }
func (d *Driver) Popped() int            { return d.popped }
func (d *Driver) Discarded() int         { return d.discarded }
func (d *Driver) Generated() int         { return d.generated }
func (d *Driver) TCEvents() int          { return d.tcEvents }
func (d *Driver) InitialEnergy() float64 { return d.e0 }
func (d *Driver) Species() []float64     { return d.species }

// Step pops one event. It returns true when the event was valid and has been
// resolved, false when it was stale and discarded.
func (d *Driver) Step() (bool, error) {
	if d.state == Terminated {
		return false, ErrTerminated
	}

	ev, err := d.queue.Pop()
	if err != nil {
		return false, d.fail(ev, err)
	}
	d.popped++

	valid, err := ev.Valid(d.store)
	if err != nil {
		return false, d.fail(ev, err)
	}
	if !valid {
		d.discarded++
		return false, nil
	}

	dt := ev.Time - d.t
	d.store.Propagate(dt)
	d.t = ev.Time

	xi, forced := physics.Restitution(d.cfg.Restitution, dt, d.cfg.TC)
	if forced {
		d.tcEvents++
	}
	if err := d.resolve(ev, xi); err != nil {
		return false, d.fail(ev, err)
	}
	d.resolved++

	row := d.record()
	for _, m := range d.metrics {
		m.Observe(ev, d.store, d.t)
	}
	for _, o := range d.observers {
		o.OnEvent(row, ev)
	}

	if err := d.regenerate(ev); err != nil {
		return true, d.fail(ev, err)
	}

	d.checkStop()
	return true, nil
}

func (d *Driver) resolve(ev event.Event, xi float64) error {
	if axis, ok := ev.Partner.Axis(); ok {
		return physics.ResolveWall(d.store, ev.I, axis, xi)
	}
	j, ok := ev.Partner.Index()
	if !ok {
		return fmt.Errorf("%w: %v", event.ErrUnknownPartner, ev.Partner)
	}
	physics.ResolvePair(d.store, ev.I, j, xi)
	return nil
}

func (d *Driver) regenerate(ev event.Event) error {
	n, err := d.queue.AddNewCollisions(d.store, ev.I, d.t)
	d.generated += n
	if err != nil {
		return err
	}
	if j, ok := ev.Partner.Index(); ok {
		n, err = d.queue.AddNewCollisions(d.store, j, d.t)
		d.generated += n
		if err != nil {
			return err
		}
	}
	return nil
}

func (d *Driver) record() Row {
	row := Row{
		Time:          d.t,
		Energy:        d.store.KineticEnergy(),
		SpeciesEnergy: make([]float64, len(d.species)),
	}
	for k, m := range d.species {
		row.SpeciesEnergy[k] = d.store.KineticEnergyForMass(m)
	}
	d.rows = append(d.rows, row)
	return row
}

func (d *Driver) checkStop() {
	switch {
	case d.resolved >= d.cfg.MaxEvents:
		d.terminate(StopEventBudget)
	case d.store.KineticEnergy() <= d.cfg.EnergyCutoff*d.e0:
		d.terminate(StopEnergyCutoff)
	}
}

func (d *Driver) terminate(reason StopReason) {
	d.state = Terminated
	d.reason = reason
}

func (d *Driver) fail(ev event.Event, err error) error {
	d.terminate(StopFailed)
	return &SimulationError{
		Resolved: d.resolved,
		Popped:   d.popped,
		Time:     d.t,
		Event:    ev,
		Wrapped:  err,
	}
}

// Run steps until the run terminates or ctx is canceled. The result is
// returned even when the run ends with an error.
func (d *Driver) Run(ctx context.Context) (*Result, error) {
	for d.state == Running {
		select {
		case <-ctx.Done():
			d.terminate(StopCanceled)
			return d.Result(), ctx.Err()
		default:
		}

		if _, err := d.Step(); err != nil {
			return d.Result(), err
		}
	}
	return d.Result(), nil
}

// Result snapshots the run so far.
func (d *Driver) Result() *Result {
	r := &Result{
		Store:         d.store,
		Rows:          d.rows,
		Species:       d.species,
		SpeedsBefore:  d.speedsBefore,
		SpeedsAfter:   d.store.Speeds(),
		InitialEnergy: d.e0,
		FinalEnergy:   d.store.KineticEnergy(),
		Time:          d.t,
		Resolved:      d.resolved,
		Popped:        d.popped,
		Discarded:     d.discarded,
		Generated:     d.generated,
		TCEvents:      d.tcEvents,
		StopReason:    d.reason,
		Metrics:       make(map[string]float64, len(d.metrics)),
	}
	for _, m := range d.metrics {
		r.Metrics[m.Name()] = m.Value()
	}
	return r
}
