package game

import (
	"math"

	"github.com/jakecoffman/cp"
)

const (
	zoomMin = 0.25
	zoomMax = 4.0
)

// camera maps world units (one unit per cell) to screen pixels.
type camera struct {
	pos        cp.Vector // world point at the viewport centre
	zoom       float64   // 1.0 = tilePixels per world unit
	tilePixels float64
	vpW, vpH   float64 // viewport size in pixels
}

func newCamera(tilePixels, vpW, vpH int) camera {
	return camera{
		zoom:       1,
		tilePixels: float64(tilePixels),
		vpW:        float64(vpW),
		vpH:        float64(vpH),
	}
}

// scale is screen pixels per world unit.
func (c camera) scale() float64 {
	return c.tilePixels * c.zoom
}

func (c camera) toScreen(p cp.Vector) (float64, float64) {
	s := c.scale()
	return (p.X-c.pos.X)*s + c.vpW/2, (p.Y-c.pos.Y)*s + c.vpH/2
}

func (c camera) toWorld(sx, sy float64) cp.Vector {
	s := c.scale()
	return cp.Vector{X: (sx-c.vpW/2)/s + c.pos.X, Y: (sy-c.vpH/2)/s + c.pos.Y}
}

// pan moves the camera by (dx, dy) screen pixels' worth of world distance,
// so panning feels the same at every zoom.
func (c *camera) pan(dx, dy float64) {
	s := c.scale()
	c.pos.X += dx / s
	c.pos.Y += dy / s
}

// zoomAt scales by factor while keeping the world point under (sx, sy)
// fixed on screen.
func (c *camera) zoomAt(factor, sx, sy float64) {
	before := c.toWorld(sx, sy)
	c.zoom = math.Max(zoomMin, math.Min(zoomMax, c.zoom*factor))
	after := c.toWorld(sx, sy)
	c.pos = c.pos.Add(before.Sub(after))
}

// clamp keeps the camera centre inside the rectangle [lo, hi].
func (c *camera) clamp(lo, hi cp.Vector) {
	c.pos.X = math.Max(lo.X, math.Min(hi.X, c.pos.X))
	c.pos.Y = math.Max(lo.Y, math.Min(hi.Y, c.pos.Y))
}
