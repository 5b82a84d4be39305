package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/hardsim/internal/config"
	"github.com/san-kum/hardsim/internal/metrics"
	"github.com/san-kum/hardsim/internal/sim"
)

// StabilityThreshold is the gap between consecutive collisions below which
// the stability metric counts a near-collapse event.
const StabilityThreshold = 1e-6

type Registry struct {
	metrics map[string]func() sim.Metric
}

func NewRegistry() *Registry {
	r := &Registry{
		metrics: make(map[string]func() sim.Metric),
	}

	r.metrics["energy"] = func() sim.Metric { return metrics.NewEnergy() }
	r.metrics["energy_drift"] = func() sim.Metric { return metrics.NewEnergyDrift() }
	r.metrics["collision_rate"] = func() sim.Metric { return metrics.NewCollisionRate() }
	r.metrics["wall_fraction"] = func() sim.Metric { return metrics.NewWallFraction() }
	r.metrics["mean_free_time"] = func() sim.Metric { return metrics.NewMeanFreeTime() }
	r.metrics["stability"] = func() sim.Metric { return metrics.NewStability(StabilityThreshold) }

	return r
}

func (r *Registry) GetMetric(name string) (sim.Metric, error) {
	fn, ok := r.metrics[name]
	if !ok {
		return nil, fmt.Errorf("unknown metric: %s", name)
	}
	return fn(), nil
}

func (r *Registry) ListMetrics() []string {
	names := make([]string, 0, len(r.metrics))
	for name := range r.metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultMetrics picks the metrics that make sense for cfg: energy drift for
// elastic runs, stability for inelastic ones.
func (r *Registry) DefaultMetrics(cfg *config.Config) []sim.Metric {
	out := []sim.Metric{
		metrics.NewCollisionRate(),
		metrics.NewWallFraction(),
		metrics.NewMeanFreeTime(),
	}
	if cfg.Restitution == 1 {
		out = append(out, metrics.NewEnergyDrift())
	} else {
		out = append(out, metrics.NewStability(StabilityThreshold))
	}
	return out
}
