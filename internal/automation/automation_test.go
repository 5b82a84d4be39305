package automation

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/hardsim/internal/config"
	"github.com/san-kum/hardsim/internal/experiment"
	"github.com/san-kum/hardsim/internal/sim"
)

const scenarioYAML = `name: cooling ladder
description: same gas at two restitutions
steps:
  - preset: gas
    params: {max_events: 200, restitution: 1.0}
    save_as: elastic
  - preset: gas
    seed: 7
    params: {max_events: 200, restitution: 0.8}
    metrics: [stability, wall_fraction]
`

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunScenario(t *testing.T) {
	sc, err := LoadScenario(writeScenario(t, scenarioYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	var saved []string
	save := func(name string, cfg *config.Config, result *sim.Result) (string, error) {
		saved = append(saved, name)
		return name + "_id", nil
	}

	results, err := RunScenario(context.Background(), sc, experiment.NewRegistry(), save)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Name != "elastic" || results[0].RunID != "elastic_id" {
		t.Errorf("unexpected first step %+v", results[0])
	}
	if results[1].Name != "gas" || len(saved) != 2 {
		t.Errorf("unexpected names %v", saved)
	}
	if _, ok := results[1].Result.Metrics["stability"]; !ok {
		t.Error("explicit metrics not attached")
	}
	if results[1].Result.FinalEnergy >= results[1].Result.InitialEnergy {
		t.Error("inelastic step did not lose energy")
	}
}

func TestScenarioErrors(t *testing.T) {
	if _, err := LoadScenario(writeScenario(t, "name: empty\n")); err == nil {
		t.Error("expected error for scenario without steps")
	}

	sc := &Scenario{Steps: []ScenarioStep{{Preset: "gas", Params: map[string]float64{"max_events": 10}}, {Preset: "nope"}}}
	results, err := RunScenario(context.Background(), sc, experiment.NewRegistry(), nil)
	if err == nil {
		t.Fatal("expected error for unknown preset")
	}
	if len(results) != 1 {
		t.Errorf("expected the first step to complete, got %d results", len(results))
	}

	if _, err := (ScenarioStep{Params: map[string]float64{"restitution": 3}}).Resolve(); err == nil {
		t.Error("expected validation error")
	}
}
