// Package automation runs scripted sequences of simulations described in
// YAML.
package automation

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/hardsim/internal/config"
	"github.com/san-kum/hardsim/internal/experiment"
	"github.com/san-kum/hardsim/internal/sim"
)

// Scenario defines a scripted simulation sequence
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is one run: a preset or config file, then parameter overrides.
type ScenarioStep struct {
	Preset  string             `yaml:"preset"`
	Config  string             `yaml:"config"`
	Seed    int64              `yaml:"seed"`
	Params  map[string]float64 `yaml:"params"`
	Metrics []string           `yaml:"metrics"`
	SaveAs  string             `yaml:"save_as"`
}

// StepResult pairs a finished step with the id it was saved under.
type StepResult struct {
	Name   string
	RunID  string
	Result *sim.Result
}

// SaveFunc persists a finished step and returns its run id.
type SaveFunc func(name string, cfg *config.Config, result *sim.Result) (string, error)

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", scenario.Name)
	}
	return &scenario, nil
}

// Name is the label a step is saved under.
func (s ScenarioStep) Name() string {
	switch {
	case s.SaveAs != "":
		return s.SaveAs
	case s.Preset != "":
		return s.Preset
	}
	return "custom"
}

// Resolve builds the step's configuration.
func (s ScenarioStep) Resolve() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if s.Preset != "" {
		cfg = config.GetPreset(s.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s", s.Preset)
		}
	}
	if s.Config != "" {
		loaded, err := config.LoadOver(s.Config, cfg)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if s.Seed != 0 {
		cfg.Seed = s.Seed
	}
	for k, v := range s.Params {
		if err := cfg.SetParam(k, v); err != nil {
			return nil, err
		}
	}
	return cfg, cfg.Validate()
}

// RunScenario executes all steps in order. save may be nil. It stops at the
// first failing step and returns the results gathered so far.
func RunScenario(ctx context.Context, scenario *Scenario, registry *experiment.Registry, save SaveFunc) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		cfg, err := step.Resolve()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		metrics := registry.DefaultMetrics(cfg)
		if len(step.Metrics) > 0 {
			metrics = metrics[:0]
			for _, name := range step.Metrics {
				m, err := registry.GetMetric(name)
				if err != nil {
					return results, fmt.Errorf("step %d: %w", i+1, err)
				}
				metrics = append(metrics, m)
			}
		}

		exp := experiment.New(cfg)
		if err := exp.Setup(metrics); err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}

		result, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		sr := StepResult{Name: step.Name(), Result: result}
		if save != nil {
			if sr.RunID, err = save(sr.Name, cfg, result); err != nil {
				return results, fmt.Errorf("step %d save: %w", i+1, err)
			}
		}
		results = append(results, sr)
	}

	return results, nil
}
