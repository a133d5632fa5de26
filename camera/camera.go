// Package camera maps between screen pixels and the field image shown in the
// viewer, with pan and zoom.
package camera

import (
	"math"

	"github.com/pthm-cable/smoke/topology"
)

// Camera controls the viewport into the field image. World units are image
// texels; axes that wrap (periodic domains) pan around, others clamp.
type Camera struct {
	// Position is the camera center in world coordinates
	X, Y float32

	// Zoom level in screen pixels per texel
	Zoom float32

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float32

	// World dimensions (image size in texels)
	WorldW, WorldH float32

	// WrapX and WrapY mark periodic axes
	WrapX, WrapY bool

	// Zoom constraints
	MinZoom, MaxZoom float32
}

// New creates a camera centered on the world, zoomed so the image fills
// the viewport.
func New(viewportW, viewportH, worldW, worldH float32, wrapX, wrapY bool) *Camera {
	c := &Camera{
		ViewportW: viewportW,
		ViewportH: viewportH,
		WorldW:    worldW,
		WorldH:    worldH,
		WrapX:     wrapX,
		WrapY:     wrapY,
	}
	c.updateZoomLimits()
	c.Reset()
	return c
}

// ForDomain builds a camera for a field image of the given size, wrapping
// the axes the domain is periodic in.
func ForDomain(kind topology.Kind, viewportW, viewportH float32, imageW, imageH int) *Camera {
	wrapX := kind != topology.PlanarClamped
	wrapY := kind == topology.PlanarWrapped || kind == topology.ParametricTorus
	return New(viewportW, viewportH, float32(imageW), float32(imageH), wrapX, wrapY)
}

// updateZoomLimits keeps the visible area inside the world:
// at zoom Z the view spans (viewportW/Z, viewportH/Z) texels.
func (c *Camera) updateZoomLimits() {
	c.MinZoom = max(c.ViewportW/c.WorldW, c.ViewportH/c.WorldH)
	c.MaxZoom = max(c.MinZoom*8, c.MinZoom)
	if c.Zoom < c.MinZoom {
		c.Zoom = c.MinZoom
	}
}

// WorldToScreen converts world coordinates to screen coordinates, taking the
// shortest path across wrapped axes.
func (c *Camera) WorldToScreen(wx, wy float32) (sx, sy float32) {
	dx := c.delta(wx, c.X, c.WorldW, c.WrapX)
	dy := c.delta(wy, c.Y, c.WorldH, c.WrapY)
	sx = c.ViewportW/2 + dx*c.Zoom
	sy = c.ViewportH/2 + dy*c.Zoom
	return sx, sy
}

// ScreenToWorld converts screen coordinates to world coordinates.
// inside is false when a clamped axis falls outside the image.
func (c *Camera) ScreenToWorld(sx, sy float32) (wx, wy float32, inside bool) {
	dx := (sx - c.ViewportW/2) / c.Zoom
	dy := (sy - c.ViewportH/2) / c.Zoom
	wx, okX := c.resolve(c.X+dx, c.WorldW, c.WrapX)
	wy, okY := c.resolve(c.Y+dy, c.WorldH, c.WrapY)
	return wx, wy, okX && okY
}

// ScreenToCoord converts a screen position to a logical domain coordinate.
// Image row 0 is V = 1.
func (c *Camera) ScreenToCoord(sx, sy float32) (topology.Coord, bool) {
	wx, wy, inside := c.ScreenToWorld(sx, sy)
	return topology.Coord{
		U: float64(wx / c.WorldW),
		V: 1 - float64(wy/c.WorldH),
	}, inside
}

// SourceRect returns the visible texel window (X, Y, W, H). It may extend
// past the image on wrapped axes.
func (c *Camera) SourceRect() (x, y, w, h float32) {
	w = c.ViewportW / c.Zoom
	h = c.ViewportH / c.Zoom
	return c.X - w/2, c.Y - h/2, w, h
}

// Resize updates viewport dimensions and recalculates zoom constraints.
func (c *Camera) Resize(viewportW, viewportH float32) {
	if viewportW == c.ViewportW && viewportH == c.ViewportH {
		return
	}
	c.ViewportW = viewportW
	c.ViewportH = viewportH
	c.updateZoomLimits()
	c.clampPosition()
}

// Pan moves the camera by the given delta in screen pixels.
func (c *Camera) Pan(dx, dy float32) {
	c.X += dx / c.Zoom
	c.Y += dy / c.Zoom
	if c.WrapX {
		c.X = mod(c.X, c.WorldW)
	}
	if c.WrapY {
		c.Y = mod(c.Y, c.WorldH)
	}
	c.clampPosition()
}

// SetZoom sets the zoom level, clamped to min/max.
func (c *Camera) SetZoom(zoom float32) {
	c.Zoom = clamp(zoom, c.MinZoom, c.MaxZoom)
	c.clampPosition()
}

// ZoomBy multiplies the current zoom by the given factor.
func (c *Camera) ZoomBy(factor float32) {
	c.SetZoom(c.Zoom * factor)
}

// Reset centers the camera and fits the image to the viewport.
func (c *Camera) Reset() {
	c.X = c.WorldW / 2
	c.Y = c.WorldH / 2
	c.Zoom = c.MinZoom
}

// clampPosition keeps the view inside the image on clamped axes.
func (c *Camera) clampPosition() {
	halfW := c.ViewportW / (2 * c.Zoom)
	halfH := c.ViewportH / (2 * c.Zoom)
	if !c.WrapX {
		c.X = clamp(c.X, halfW, c.WorldW-halfW)
	}
	if !c.WrapY {
		c.Y = clamp(c.Y, halfH, c.WorldH-halfH)
	}
}

func (c *Camera) delta(to, from, size float32, wrap bool) float32 {
	if wrap {
		return toroidalDelta(to, from, size)
	}
	return to - from
}

func (c *Camera) resolve(w, size float32, wrap bool) (float32, bool) {
	if wrap {
		return mod(w, size), true
	}
	return w, w >= 0 && w < size
}

// toroidalDelta computes the shortest signed distance from 'from' to 'to'
// in a periodic space of the given size.
func toroidalDelta(to, from, size float32) float32 {
	d := to - from
	if d > size/2 {
		d -= size
	} else if d < -size/2 {
		d += size
	}
	return d
}

// mod computes the positive modulo (Go's % can return negative).
func mod(x, m float32) float32 {
	r := float32(math.Mod(float64(x), float64(m)))
	if r < 0 {
		r += m
	}
	return r
}

// clamp restricts a value to a range. Inverted ranges collapse to their
// midpoint.
func clamp(x, lo, hi float32) float32 {
	if lo > hi {
		return (lo + hi) / 2
	}
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
