package config

import (
	"fmt"
	"math"
	"math/rand"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/hardsim/internal/particle"
	"github.com/san-kum/hardsim/internal/physics"
	"github.com/san-kum/hardsim/internal/placement"
	"github.com/san-kum/hardsim/internal/sim"
)

const (
	DefaultMaxEvents = 10000
	DefaultSeed      = 42
	DefaultCount     = 100
	DefaultRadius    = 0.01
	DefaultMass      = 1.0
	DefaultSpeed     = 1.0
)

type Config struct {
	Box           BoxConfig        `yaml:"box"`
	Restitution   float64          `yaml:"restitution"`
	TC            TCConfig         `yaml:"tc"`
	MaxEvents     int              `yaml:"max_events"`
	EnergyCutoff  float64          `yaml:"energy_cutoff"`
	WallTolerance float64          `yaml:"wall_tolerance"`
	Seed          int64            `yaml:"seed"`
	Species       []SpeciesConfig  `yaml:"species,omitempty"`
	Particles     []ParticleConfig `yaml:"particles,omitempty"`
}

type BoxConfig struct {
	XMax float64 `yaml:"x_max"`
	YMax float64 `yaml:"y_max"`
}

type TCConfig struct {
	Enabled   bool    `yaml:"enabled"`
	Threshold float64 `yaml:"threshold"`
}

type SpeciesConfig struct {
	Count  int     `yaml:"count"`
	Radius float64 `yaml:"radius"`
	Mass   float64 `yaml:"mass"`
	Speed  float64 `yaml:"speed"`
}

type ParticleConfig struct {
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	VX     float64 `yaml:"vx"`
	VY     float64 `yaml:"vy"`
	Radius float64 `yaml:"radius"`
	Mass   float64 `yaml:"mass"`
}

func DefaultConfig() *Config {
	return &Config{
		Box:           BoxConfig{XMax: 1, YMax: 1},
		Restitution:   1.0,
		TC:            TCConfig{Threshold: sim.DefaultTCThreshold},
		MaxEvents:     DefaultMaxEvents,
		WallTolerance: physics.DefaultWallTolerance,
		Seed:          DefaultSeed,
		Species: []SpeciesConfig{
			{Count: DefaultCount, Radius: DefaultRadius, Mass: DefaultMass, Speed: DefaultSpeed},
		},
	}
}

func Load(path string) (*Config, error) {
	return LoadOver(path, DefaultConfig())
}

// LoadOver reads path on top of a copy of base, so keys missing from the
// file keep base's values.
func LoadOver(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := base.Clone()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy so presets can be overridden safely.
func (c *Config) Clone() *Config {
	out := *c
	out.Species = append([]SpeciesConfig(nil), c.Species...)
	out.Particles = append([]ParticleConfig(nil), c.Particles...)
	return &out
}

func (c *Config) Validate() error {
	switch {
	case c.Box.XMax <= 0 || c.Box.YMax <= 0:
		return boundsErr("box must be positive, got %gx%g", c.Box.XMax, c.Box.YMax)
	case c.Restitution <= 0 || c.Restitution > 1:
		return boundsErr("restitution must be in (0, 1], got %g", c.Restitution)
	case c.MaxEvents <= 0:
		return boundsErr("max_events must be positive, got %d", c.MaxEvents)
	case c.EnergyCutoff < 0 || c.EnergyCutoff >= 1:
		return boundsErr("energy_cutoff must be in [0, 1), got %g", c.EnergyCutoff)
	case c.WallTolerance < 0:
		return boundsErr("wall_tolerance must be non-negative, got %g", c.WallTolerance)
	case c.TC.Enabled && c.TC.Threshold < 0:
		return boundsErr("tc threshold must be non-negative, got %g", c.TC.Threshold)
	}

	for k, sp := range c.Species {
		if sp.Count < 0 || sp.Radius < 0 || sp.Mass <= 0 {
			return boundsErr("species %d: need count >= 0, radius >= 0, mass > 0, got %+v", k, sp)
		}
	}
	for i, p := range c.Particles {
		if p.Radius < 0 || p.Mass <= 0 {
			return boundsErr("particle %d: need radius >= 0, mass > 0, got %+v", i, p)
		}
	}
	return nil
}

func boundsErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", sim.ErrParameterBounds, fmt.Sprintf(format, args...))
}

func (c *Config) ToParams() physics.Params {
	return physics.Params{XMax: c.Box.XMax, YMax: c.Box.YMax, WallTolerance: c.WallTolerance}
}

func (c *Config) ToSimConfig() sim.Config {
	return sim.Config{
		Params:       c.ToParams(),
		Restitution:  c.Restitution,
		TC:           physics.TC{Enabled: c.TC.Enabled, Threshold: c.TC.Threshold},
		MaxEvents:    c.MaxEvents,
		EnergyCutoff: c.EnergyCutoff,
	}
}

func (c *Config) ToLayout() placement.Layout {
	layout := placement.Layout{XMax: c.Box.XMax, YMax: c.Box.YMax}
	for _, sp := range c.Species {
		layout.Species = append(layout.Species, placement.Species{
			Count: sp.Count, Radius: sp.Radius, Mass: sp.Mass, Speed: sp.Speed,
		})
	}
	return layout
}

// NumParticles is the size of the store BuildStore will return.
func (c *Config) NumParticles() int {
	if len(c.Particles) > 0 {
		return len(c.Particles)
	}
	return placement.Total(c.ToLayout().Species)
}

// BuildStore returns the explicit particle list when one is configured and
// a random species layout otherwise.
func (c *Config) BuildStore(rng *rand.Rand) (*particle.Store, error) {
	if len(c.Particles) == 0 {
		return placement.Place(c.ToLayout(), rng)
	}
	s := particle.New(len(c.Particles))
	for i, p := range c.Particles {
		s.Set(i, p.X, p.Y, p.VX, p.VY, p.Radius, p.Mass)
	}
	return s, nil
}

// Tunable lists the parameter names accepted by SetParam.
var Tunable = []string{"restitution", "energy_cutoff", "tc_threshold", "max_events", "radius", "mass", "speed", "x_max", "y_max"}

// SetParam overrides one scalar parameter by name. Particle parameters apply
// to every species and to every explicit particle; speed rescales explicit
// velocities and leaves particles at rest untouched.
func (c *Config) SetParam(name string, v float64) error {
	switch name {
	case "restitution":
		c.Restitution = v
	case "energy_cutoff":
		c.EnergyCutoff = v
	case "tc_threshold":
		c.TC.Threshold = v
	case "max_events":
		c.MaxEvents = int(v)
	case "radius":
		for k := range c.Species {
			c.Species[k].Radius = v
		}
		for k := range c.Particles {
			c.Particles[k].Radius = v
		}
	case "mass":
		for k := range c.Species {
			c.Species[k].Mass = v
		}
		for k := range c.Particles {
			c.Particles[k].Mass = v
		}
	case "speed":
		for k := range c.Species {
			c.Species[k].Speed = v
		}
		for k := range c.Particles {
			p := &c.Particles[k]
			if cur := math.Hypot(p.VX, p.VY); cur > 0 {
				p.VX, p.VY = p.VX*v/cur, p.VY*v/cur
			}
		}
	case "x_max":
		c.Box.XMax = v
	case "y_max":
		c.Box.YMax = v
	default:
		return fmt.Errorf("unknown parameter: %s (tunable: %v)", name, Tunable)
	}
	return nil
}
