package optim

import (
	"context"
	"errors"
	"testing"

	"github.com/san-kum/hardsim/internal/config"
	"github.com/san-kum/hardsim/internal/experiment"
)

func smallGas() *config.Config {
	cfg := config.GetPreset("gas")
	cfg.MaxEvents = 300
	cfg.Species[0].Count = 30
	return cfg
}

func TestGridSearchEnergyFraction(t *testing.T) {
	g := NewGridSearch([]string{"restitution"}, [][]float64{{1.0, 0.9, 0.7}})
	if g.Size() != 3 {
		t.Fatalf("Size = %d, want 3", g.Size())
	}

	build := ConfigBuilder(smallGas(), experiment.NewRegistry())
	best, val, points, err := g.Search(context.Background(), build, EnergyFraction)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("evaluated %d points, want 3", len(points))
	}
	if best["restitution"] != 0.7 {
		t.Errorf("best restitution = %v, want 0.7", best["restitution"])
	}
	if val >= points[0].Value {
		t.Errorf("best value %v not below elastic value %v", val, points[0].Value)
	}
}

func TestGridSearchTwoParameters(t *testing.T) {
	g := NewGridSearch([]string{"restitution", "speed"}, [][]float64{{1.0, 0.8}, {0.5, 1.0}})
	build := ConfigBuilder(smallGas(), experiment.NewRegistry(), "wall_fraction")

	_, _, points, err := g.Search(context.Background(), build, "wall_fraction")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(points) != 4 {
		t.Fatalf("evaluated %d points, want 4", len(points))
	}
	if points[1].Params["restitution"] != 1.0 || points[1].Params["speed"] != 1.0 {
		t.Errorf("unexpected grid order: %v", points[1].Params)
	}
}

func TestGridSearchErrors(t *testing.T) {
	build := ConfigBuilder(smallGas(), experiment.NewRegistry())

	g := NewGridSearch([]string{"restitution"}, [][]float64{{2.0, 5.0}})
	_, _, points, err := g.Search(context.Background(), build, EnergyFraction)
	if !errors.Is(err, ErrNoCandidate) {
		t.Errorf("err = %v, want ErrNoCandidate", err)
	}
	for _, p := range points {
		if p.Err == nil {
			t.Errorf("point %v should have failed validation", p.Params)
		}
	}

	g = NewGridSearch([]string{"restitution"}, [][]float64{{1.0}})
	if _, _, _, err := g.Search(context.Background(), build, "missing"); !errors.Is(err, ErrNoCandidate) {
		t.Errorf("err = %v, want ErrNoCandidate for unrecorded metric", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, _, err := g.Search(ctx, build, EnergyFraction); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}

	if _, _, _, err := NewGridSearch([]string{"a", "b"}, [][]float64{{1}}).Search(context.Background(), build, EnergyFraction); err == nil {
		t.Error("expected error for mismatched ranges")
	}
}
