package viz

import (
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/hardsim/internal/sim"
)

// EnergyChart plots total kinetic energy against event number, followed by
// one line per species when there is more than one.
func EnergyChart(rows []sim.Row, width, height int) string {
	if len(rows) == 0 {
		return ""
	}

	total := make([]float64, len(rows))
	species := 0
	if len(rows[0].SpeciesEnergy) > 1 {
		species = len(rows[0].SpeciesEnergy)
	}
	series := make([][]float64, species)
	for k := range series {
		series[k] = make([]float64, len(rows))
	}
	for i, row := range rows {
		total[i] = row.Energy
		for k := 0; k < species && k < len(row.SpeciesEnergy); k++ {
			series[k][i] = row.SpeciesEnergy[k]
		}
	}

	var b strings.Builder
	b.WriteString(asciigraph.Plot(total,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption("kinetic energy vs event"),
	))
	b.WriteString("\n")
	if species > 0 {
		b.WriteString("\n")
		b.WriteString(asciigraph.PlotMany(series,
			asciigraph.Height(height),
			asciigraph.Width(width),
			asciigraph.Caption(fmt.Sprintf("kinetic energy per species (%d)", species)),
		))
		b.WriteString("\n")
	}
	return b.String()
}

// Histogram bins values into n equal bins spanning [0, max].
func Histogram(values []float64, n int, max float64) []float64 {
	bins := make([]float64, n)
	if n == 0 || max <= 0 {
		return bins
	}
	for _, v := range values {
		k := int(v / max * float64(n))
		if k >= n {
			k = n - 1
		}
		if k < 0 {
			k = 0
		}
		bins[k]++
	}
	return bins
}

// SpeedHistogram plots the speed distributions before and after a run on a
// shared axis.
func SpeedHistogram(before, after []float64, bins, width, height int) string {
	max := 0.0
	for _, v := range append(append([]float64(nil), before...), after...) {
		if v > max {
			max = v
		}
	}
	if max == 0 || bins < 2 {
		return ""
	}

	return asciigraph.PlotMany(
		[][]float64{Histogram(before, bins, max), Histogram(after, bins, max)},
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(fmt.Sprintf("speed histogram before/after, 0..%.3g", max)),
	) + "\n"
}
