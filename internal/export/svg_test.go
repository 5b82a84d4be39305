package export

import (
	"strings"
	"testing"

	"github.com/san-kum/hardsim/internal/particle"
	"github.com/san-kum/hardsim/internal/sim"
)

func TestParticlesToSVG(t *testing.T) {
	s := particle.New(2)
	s.Set(0, 0.25, 0.25, 0, 0, 0.1, 1)
	s.Set(1, 0.75, 0.5, 0, 0, 0.05, 4)

	out := ParticlesToSVG(s, 2, 1, 400)

	if !strings.HasPrefix(out, "<?xml") || !strings.HasSuffix(out, "</svg>") {
		t.Fatalf("not an svg document:\n%s", out)
	}
	if !strings.Contains(out, `width="400" height="200"`) {
		t.Error("box not scaled to the longer side")
	}
	if !strings.Contains(out, `<circle cx="50.00" cy="150.00" r="20.00" fill="#00ff88"/>`) {
		t.Errorf("first disk misplaced:\n%s", out)
	}
	if !strings.Contains(out, `<circle cx="150.00" cy="100.00" r="10.00" fill="#ff00ff"/>`) {
		t.Errorf("second species should use the second colour:\n%s", out)
	}
}

func TestEnergyToSVG(t *testing.T) {
	if EnergyToSVG([]sim.Row{{Time: 1, Energy: 1}}, 100, 50) != "" {
		t.Error("a single row cannot make a line")
	}

	rows := []sim.Row{{Time: 0, Energy: 1}, {Time: 1, Energy: 0.5}, {Time: 2, Energy: 0.25}}
	out := EnergyToSVG(rows, 100, 50)
	if strings.Count(out, " L") != 2 {
		t.Errorf("expected 2 line segments:\n%s", out)
	}
	if !strings.Contains(out, `stroke="#00ccff"`) {
		t.Error("missing stroke colour")
	}
}
