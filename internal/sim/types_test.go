package sim

import (
	"errors"
	"strings"
	"testing"

	"github.com/san-kum/hardsim/internal/event"
	"github.com/san-kum/hardsim/internal/physics"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := validateConfig(cfg); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Restitution != 1 {
		t.Errorf("restitution = %v, want 1", cfg.Restitution)
	}
	if cfg.TC.Enabled {
		t.Error("tc should be off by default")
	}
	if cfg.Params.WallTolerance != physics.DefaultWallTolerance {
		t.Errorf("wall tolerance = %v", cfg.Params.WallTolerance)
	}
}

func TestStopReasonString(t *testing.T) {
	tests := []struct {
		reason StopReason
		want   string
	}{
		{StopNone, "none"},
		{StopEventBudget, "event budget"},
		{StopEnergyCutoff, "energy cutoff"},
		{StopCanceled, "canceled"},
		{StopFailed, "failed"},
		{StopReason(42), "StopReason(42)"},
	}

	for _, tt := range tests {
		if got := tt.reason.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestSimulationError(t *testing.T) {
	ev := event.Event{Time: 1.5, I: 3, Partner: event.VerticalWall()}
	err := &SimulationError{Resolved: 7, Popped: 9, Time: 1.5, Event: ev, Wrapped: physics.ErrContainment}

	if !errors.Is(err, physics.ErrContainment) {
		t.Error("SimulationError should unwrap to the cause")
	}
	msg := err.Error()
	for _, want := range []string{"event 7", "popped 9", "t=1.5", physics.ErrContainment.Error()} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, missing %q", msg, want)
		}
	}
}

func TestResultEnergyFraction(t *testing.T) {
	r := &Result{InitialEnergy: 4, FinalEnergy: 1}
	if got := r.EnergyFraction(); got != 0.25 {
		t.Errorf("EnergyFraction = %v, want 0.25", got)
	}
	if got := (&Result{}).EnergyFraction(); got != 0 {
		t.Errorf("EnergyFraction of empty run = %v, want 0", got)
	}
}
