package config

import (
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/hardsim/internal/sim"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Restitution != 1 {
		t.Errorf("expected restitution 1, got %v", cfg.Restitution)
	}
	if cfg.NumParticles() != DefaultCount {
		t.Errorf("expected %d particles, got %d", DefaultCount, cfg.NumParticles())
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	cfg := GetPreset("mixture")
	cfg.Restitution = 0.9
	cfg.TC.Enabled = true

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Restitution != 0.9 || !got.TC.Enabled || len(got.Species) != 2 || got.Species[1].Mass != 4 {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestLoadFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	if err := writeFile(path, "restitution: 0.7\n"); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Restitution != 0.7 {
		t.Errorf("restitution = %v, want 0.7", cfg.Restitution)
	}
	if cfg.MaxEvents != DefaultMaxEvents || cfg.Box.XMax != 1 {
		t.Errorf("defaults not kept: %+v", cfg)
	}
}

func TestLoadOverPreset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "override.yaml")
	if err := writeFile(path, "max_events: 7\n"); err != nil {
		t.Fatal(err)
	}

	base := GetPreset("cooling")
	cfg, err := LoadOver(path, base)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MaxEvents != 7 || cfg.Restitution != 0.8 {
		t.Errorf("unexpected layering: max_events=%d restitution=%v", cfg.MaxEvents, cfg.Restitution)
	}
	if base.MaxEvents == 7 {
		t.Error("LoadOver modified its base")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero box", func(c *Config) { c.Box.XMax = 0 }},
		{"restitution zero", func(c *Config) { c.Restitution = 0 }},
		{"restitution above one", func(c *Config) { c.Restitution = 1.01 }},
		{"no events", func(c *Config) { c.MaxEvents = 0 }},
		{"cutoff one", func(c *Config) { c.EnergyCutoff = 1 }},
		{"negative tolerance", func(c *Config) { c.WallTolerance = -1e-9 }},
		{"negative tc threshold", func(c *Config) { c.TC = TCConfig{Enabled: true, Threshold: -1} }},
		{"negative species count", func(c *Config) { c.Species[0].Count = -1 }},
		{"zero mass", func(c *Config) { c.Species[0].Mass = 0 }},
		{"negative particle radius", func(c *Config) { c.Particles = []ParticleConfig{{Radius: -1, Mass: 1}} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, sim.ErrParameterBounds) {
				t.Errorf("Validate() = %v, want ErrParameterBounds", err)
			}
		})
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("cooling")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Restitution != 0.8 {
		t.Errorf("expected restitution 0.8, got %v", cfg.Restitution)
	}
	if cfg.WallTolerance == 0 || cfg.Seed == 0 {
		t.Error("ambient defaults not filled")
	}

	cfg.Species[0].Count = 1
	if Presets["cooling"].Species[0].Count == 1 {
		t.Error("GetPreset returned shared state")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestPresetsAreValid(t *testing.T) {
	names := ListPresets()
	if len(names) != len(Presets) {
		t.Fatalf("ListPresets returned %d names, want %d", len(names), len(Presets))
	}

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			cfg := GetPreset(name)
			if err := cfg.Validate(); err != nil {
				t.Fatalf("invalid: %v", err)
			}
			s, err := cfg.BuildStore(rand.New(rand.NewSource(cfg.Seed)))
			if err != nil {
				t.Fatalf("build store: %v", err)
			}
			if s.Len() != cfg.NumParticles() {
				t.Errorf("store has %d particles, want %d", s.Len(), cfg.NumParticles())
			}
			if _, err := sim.New(s, cfg.ToSimConfig()); err != nil {
				t.Errorf("driver rejected preset: %v", err)
			}
		})
	}
}

func TestToSimConfig(t *testing.T) {
	cfg := GetPreset("collapse")
	sc := cfg.ToSimConfig()

	if !sc.TC.Enabled || sc.TC.Threshold != 1e-8 {
		t.Errorf("tc not carried: %+v", sc.TC)
	}
	if sc.Params.XMax != 1 || sc.Restitution != 0.5 || sc.EnergyCutoff != 0.001 {
		t.Errorf("unexpected sim config %+v", sc)
	}
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0644)
}

func TestSetParam(t *testing.T) {
	cfg := GetPreset("mixture")
	for _, name := range Tunable {
		if err := cfg.SetParam(name, 0.5); err != nil {
			t.Errorf("SetParam(%q): %v", name, err)
		}
	}
	if cfg.Restitution != 0.5 || cfg.Species[1].Radius != 0.5 || cfg.Species[0].Speed != 0.5 {
		t.Errorf("params not applied: %+v", cfg)
	}
	if err := cfg.SetParam("gravity", 9.81); err == nil {
		t.Error("expected error for unknown parameter")
	}
}

func TestSetParamExplicitParticles(t *testing.T) {
	cfg := GetPreset("head_on")
	if err := cfg.SetParam("speed", 2); err != nil {
		t.Fatal(err)
	}
	if err := cfg.SetParam("radius", 0.1); err != nil {
		t.Fatal(err)
	}
	if err := cfg.SetParam("mass", 3); err != nil {
		t.Fatal(err)
	}
	for i, p := range cfg.Particles {
		if p.VX != 2*Presets["head_on"].Particles[i].VX || p.VY != 0 {
			t.Errorf("particle %d velocity (%v, %v) not rescaled", i, p.VX, p.VY)
		}
		if p.Radius != 0.1 || p.Mass != 3 {
			t.Errorf("particle %d radius %v mass %v", i, p.Radius, p.Mass)
		}
	}
}
