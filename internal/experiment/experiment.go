// Package experiment turns a configuration into a ready driver: it seeds the
// random source, lays out the particles and attaches metrics and observers.
package experiment

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/san-kum/hardsim/internal/config"
	"github.com/san-kum/hardsim/internal/sim"
)

type Experiment struct {
	cfg        *config.Config
	driver     *sim.Driver
	randSource *rand.Rand
}

func New(cfg *config.Config) *Experiment {
	return &Experiment{
		cfg:        cfg,
		randSource: rand.New(rand.NewSource(cfg.Seed)),
	}
}

// Setup validates the configuration, builds the initial store and creates
// the driver.
func (e *Experiment) Setup(metrics []sim.Metric, observers ...sim.Observer) error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}
	store, err := e.cfg.BuildStore(e.randSource)
	if err != nil {
		return err
	}

	opts := make([]sim.Option, 0, len(metrics)+len(observers))
	for _, m := range metrics {
		opts = append(opts, sim.WithMetric(m))
	}
	for _, o := range observers {
		opts = append(opts, sim.WithObserver(o))
	}

	d, err := sim.New(store, e.cfg.ToSimConfig(), opts...)
	if err != nil {
		return err
	}
	e.driver = d
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.driver == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	return e.driver.Run(ctx)
}

// Driver returns the underlying driver for stepping by hand.
func (e *Experiment) Driver() *sim.Driver {
	return e.driver
}
