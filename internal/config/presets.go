package config

import (
	"math"
	"sort"
)

var diagonal = math.Sqrt2 / 2

var Presets = map[string]*Config{
	"billiard": {
		Box: BoxConfig{XMax: 1, YMax: 1}, Restitution: 1.0, MaxEvents: 100,
		Particles: []ParticleConfig{{X: 0.5, Y: 0.5, VX: diagonal, VY: diagonal, Radius: 0.1, Mass: 1}},
	},
	"head_on": {
		Box: BoxConfig{XMax: 1, YMax: 1}, Restitution: 1.0, MaxEvents: 20,
		Particles: []ParticleConfig{
			{X: 0.25, Y: 0.5, VX: 1, Radius: 0.125, Mass: 1},
			{X: 0.75, Y: 0.5, VX: -1, Radius: 0.125, Mass: 1},
		},
	},
	"gas": {
		Box: BoxConfig{XMax: 1, YMax: 1}, Restitution: 1.0, MaxEvents: 20000,
		Species: []SpeciesConfig{{Count: 200, Radius: 0.01, Mass: 1, Speed: 1}},
	},
	"mixture": {
		Box: BoxConfig{XMax: 1, YMax: 1}, Restitution: 1.0, MaxEvents: 50000,
		Species: []SpeciesConfig{
			{Count: 100, Radius: 0.01, Mass: 1, Speed: 1},
			{Count: 100, Radius: 0.01, Mass: 4, Speed: 0.5},
		},
	},
	"cooling": {
		Box: BoxConfig{XMax: 1, YMax: 1}, Restitution: 0.8, MaxEvents: 200000, EnergyCutoff: 0.01,
		Species: []SpeciesConfig{{Count: 200, Radius: 0.01, Mass: 1, Speed: 1}},
	},
	"collapse": {
		Box: BoxConfig{XMax: 1, YMax: 1}, Restitution: 0.5, MaxEvents: 100000, EnergyCutoff: 0.001,
		TC:      TCConfig{Enabled: true, Threshold: 1e-8},
		Species: []SpeciesConfig{{Count: 300, Radius: 0.015, Mass: 1, Speed: 1}},
	},
}

// GetPreset returns a copy of the named preset with unset ambient values
// filled from DefaultConfig, or nil when no such preset exists.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := p.Clone()
	def := DefaultConfig()
	if cfg.WallTolerance == 0 {
		cfg.WallTolerance = def.WallTolerance
	}
	if cfg.Seed == 0 {
		cfg.Seed = def.Seed
	}
	if cfg.TC.Threshold == 0 {
		cfg.TC.Threshold = def.TC.Threshold
	}
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
