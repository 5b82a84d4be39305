// Package optim searches configuration parameters on a grid for the point
// that minimizes a run metric.
package optim

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/hardsim/internal/config"
	"github.com/san-kum/hardsim/internal/experiment"
	"github.com/san-kum/hardsim/internal/sim"
)

// EnergyFraction can be passed as the metric name to score runs by their
// final over initial kinetic energy.
const EnergyFraction = "energy_fraction"

var ErrNoCandidate = errors.New("optim: no grid point completed")

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

// Point is one evaluated grid point. Err is set when the run could not be
// built or failed.
type Point struct {
	Params map[string]float64
	Value  float64
	Result *sim.Result
	Err    error
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Size is the number of grid points.
func (g *GridSearch) Size() int {
	if len(g.ranges) == 0 {
		return 0
	}
	n := 1
	for _, r := range g.ranges {
		n *= len(r)
	}
	return n
}

// Search evaluates every grid point in order and returns the parameters with
// the lowest metric value together with all evaluated points.
func (g *GridSearch) Search(
	ctx context.Context,
	buildExperiment func(params map[string]float64) (*experiment.Experiment, error),
	metricName string,
) (map[string]float64, float64, []Point, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, 0, nil, fmt.Errorf("optim: %d parameters but %d ranges", len(g.paramNames), len(g.ranges))
	}

	best := math.Inf(1)
	var bestParams map[string]float64
	points := make([]Point, 0, g.Size())

	err := g.searchRecursive(ctx, 0, make(map[string]float64), buildExperiment, metricName, &points)
	for _, p := range points {
		if p.Err == nil && p.Value < best {
			best = p.Value
			bestParams = p.Params
		}
	}
	if err != nil {
		return bestParams, best, points, err
	}
	if bestParams == nil {
		return nil, best, points, ErrNoCandidate
	}
	return bestParams, best, points, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	buildExperiment func(map[string]float64) (*experiment.Experiment, error),
	metricName string,
	points *[]Point,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth == len(g.paramNames) {
		p := Point{Params: current}
		exp, err := buildExperiment(current)
		if err != nil {
			p.Err = err
			*points = append(*points, p)
			return nil
		}

		p.Result, p.Err = exp.Run(ctx)
		if p.Err == nil {
			p.Value, p.Err = score(p.Result, metricName)
		}
		*points = append(*points, p)
		if errors.Is(p.Err, context.Canceled) {
			return p.Err
		}
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, buildExperiment, metricName, points); err != nil {
			return err
		}
	}
	return nil
}

func score(r *sim.Result, metricName string) (float64, error) {
	if metricName == EnergyFraction {
		return r.EnergyFraction(), nil
	}
	v, ok := r.Metrics[metricName]
	if !ok {
		return 0, fmt.Errorf("metric %s not recorded", metricName)
	}
	return v, nil
}

// ConfigBuilder returns an experiment builder that applies each grid point
// on top of a copy of base and attaches the named metrics.
func ConfigBuilder(base *config.Config, registry *experiment.Registry, metricNames ...string) func(map[string]float64) (*experiment.Experiment, error) {
	return func(params map[string]float64) (*experiment.Experiment, error) {
		cfg := base.Clone()
		for k, v := range params {
			if err := cfg.SetParam(k, v); err != nil {
				return nil, err
			}
		}

		metrics := make([]sim.Metric, 0, len(metricNames))
		for _, name := range metricNames {
			m, err := registry.GetMetric(name)
			if err != nil {
				return nil, err
			}
			metrics = append(metrics, m)
		}

		exp := experiment.New(cfg)
		if err := exp.Setup(metrics); err != nil {
			return nil, err
		}
		return exp, nil
	}
}
