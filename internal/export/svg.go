package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/hardsim/internal/particle"
	"github.com/san-kum/hardsim/internal/sim"
)

// SpeciesColors fills disks by species index, cycling when there are more
// species than colours.
var SpeciesColors = []string{"#00ff88", "#ff00ff", "#00ccff", "#ffcc00", "#ff4444"}

// ParticlesToSVG draws the box and every disk at its true radius. The longer
// box side is scaled to size pixels.
func ParticlesToSVG(s *particle.Store, xMax, yMax float64, size int) string {
	scale := float64(size) / xMax
	if yMax > xMax {
		scale = float64(size) / yMax
	}
	w, h := xMax*scale, yMax*scale
	species := s.Species()

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a" stroke="#444466" stroke-width="2"/>
`, w, h, w, h))

	for i := 0; i < s.Len(); i++ {
		k := s.SpeciesOf(i, species)
		color := SpeciesColors[k%len(SpeciesColors)]
		// SVG y grows downwards
		cx, cy := s.X[i]*scale, h-s.Y[i]*scale
		sb.WriteString(fmt.Sprintf(`<circle cx="%.2f" cy="%.2f" r="%.2f" fill="%s"/>
`, cx, cy, s.R[i]*scale, color))
	}

	sb.WriteString("</svg>")
	return sb.String()
}

type Point struct {
	X, Y float64
}

// SeriesToSVG draws points as a polyline fitted to the image with 10% padding.
func SeriesToSVG(points []Point, width, height int, strokeColor string) string {
	if len(points) < 2 {
		return ""
	}

	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, strokeColor))

	for i, p := range points {
		x := (p.X - minX) / rangeX * float64(width)
		y := float64(height) - (p.Y-minY)/rangeY*float64(height)

		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}

// EnergyToSVG plots total kinetic energy against simulated time.
func EnergyToSVG(rows []sim.Row, width, height int) string {
	points := make([]Point, len(rows))
	for i, row := range rows {
		points[i] = Point{X: row.Time, Y: row.Energy}
	}
	return SeriesToSVG(points, width, height, "#00ccff")
}
