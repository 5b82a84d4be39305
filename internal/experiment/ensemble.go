package experiment

import (
	"context"
	"fmt"
	"sync"

	"github.com/san-kum/hardsim/internal/config"
	"github.com/san-kum/hardsim/internal/sim"
)

// Ensemble runs the same configuration under consecutive seeds. Each member
// owns its own store and driver, so members run concurrently.
type Ensemble struct {
	base      *config.Config
	numRuns   int
	seedStart int64
	metrics   func(cfg *config.Config) []sim.Metric
}

// NewEnsemble prepares numRuns copies of cfg seeded seedStart,
// seedStart+1, ... . newMetrics is called once per member since metrics hold
// per-run state; it may be nil.
func NewEnsemble(cfg *config.Config, numRuns int, seedStart int64, newMetrics func(*config.Config) []sim.Metric) *Ensemble {
	return &Ensemble{base: cfg, numRuns: numRuns, seedStart: seedStart, metrics: newMetrics}
}

// Run executes every member and returns the results in seed order. The first
// member error is returned after all members have finished.
func (e *Ensemble) Run(ctx context.Context) ([]*sim.Result, error) {
	if e.numRuns <= 0 {
		return nil, fmt.Errorf("%w: ensemble needs at least one run, got %d", sim.ErrParameterBounds, e.numRuns)
	}

	results := make([]*sim.Result, e.numRuns)
	errs := make([]error, e.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			cfg := e.base.Clone()
			cfg.Seed = e.seedStart + int64(idx)

			var metrics []sim.Metric
			if e.metrics != nil {
				metrics = e.metrics(cfg)
			}
			exp := New(cfg)
			if err := exp.Setup(metrics); err != nil {
				errs[idx] = err
				return
			}
			results[idx], errs[idx] = exp.Run(ctx)
		}(i)
	}

	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return results, fmt.Errorf("seed %d: %w", e.seedStart+int64(i), err)
		}
	}

	return results, nil
}
