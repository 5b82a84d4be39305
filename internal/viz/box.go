package viz

import (
	"math"

	"github.com/san-kum/hardsim/internal/particle"
)

// Viewport maps box coordinates onto a canvas, keeping the aspect ratio and
// putting y = 0 at the bottom.
type Viewport struct {
	XMax, YMax float64
	scale      float64
	ox, oy     int
	w, h       int
}

func NewViewport(c *Canvas, xMax, yMax float64) Viewport {
	pw, ph := float64(c.PixelWidth()-1), float64(c.PixelHeight()-1)
	scale := math.Min(pw/xMax, ph/yMax)
	w, h := int(xMax*scale), int(yMax*scale)
	return Viewport{
		XMax: xMax, YMax: yMax,
		scale: scale,
		ox:    (int(pw) - w) / 2,
		oy:    (int(ph) - h) / 2,
		w:     w,
		h:     h,
	}
}

func (v Viewport) Point(x, y float64) (int, int) {
	return v.ox + int(math.Round(x*v.scale)), v.oy + v.h - int(math.Round(y*v.scale))
}

func (v Viewport) Length(l float64) float64 { return l * v.scale }

// DrawBox renders the container walls and every disk of s.
func DrawBox(c *Canvas, s *particle.Store, xMax, yMax float64) {
	v := NewViewport(c, xMax, yMax)
	c.DrawRect(v.ox, v.oy, v.ox+v.w, v.oy+v.h)
	for i := 0; i < s.Len(); i++ {
		x, y := v.Point(s.X[i], s.Y[i])
		c.DrawCircle(x, y, v.Length(s.R[i]))
	}
}
