package topology

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/smoke/field"
)

var planeNormal = r3.Vec{Z: 1}

// maxTexel bounds fractional texel coordinates before integer conversion.
const maxTexel = 1 << 30

// Planar is a flat W×H grid over [0,1)², either clamped or periodic on both
// axes. Velocities are stored in cells per unit time.
type Planar struct {
	shape   field.Shape
	wrap    bool
	spacing float64
}

// NewPlanar builds a planar adapter. A spacing of 0 selects dx = 1.
func NewPlanar(w, h int, wrap bool, spacing float64) *Planar {
	if spacing <= 0 {
		spacing = 1
	}
	return &Planar{shape: field.PlanarShape(w, h), wrap: wrap, spacing: spacing}
}

func (p *Planar) Kind() Kind {
	if p.wrap {
		return PlanarWrapped
	}
	return PlanarClamped
}

func (p *Planar) Shape() field.Shape { return p.shape }
func (p *Planar) Axes() int          { return 2 }
func (p *Planar) Spacing() float64   { return p.spacing }

// Wrapped reports whether both axes are periodic.
func (p *Planar) Wrapped() bool { return p.wrap }

func (p *Planar) Forward(c Coord) r3.Vec { return r3.Vec{X: c.U, Y: c.V} }

func (p *Planar) Inverse(v r3.Vec) Coord {
	if p.wrap {
		return Coord{U: fract(v.X), V: fract(v.Y)}
	}
	return Coord{U: v.X, V: v.Y}
}

func (p *Planar) Center(cell int) r3.Vec {
	_, x, y := p.shape.Split(cell)
	return r3.Vec{
		X: (float64(x) + 0.5) / float64(p.shape.Width),
		Y: (float64(y) + 0.5) / float64(p.shape.Height),
	}
}

func (p *Planar) Normal(r3.Vec) r3.Vec { return planeNormal }

func (p *Planar) Footprint(v r3.Vec) field.Tap {
	fx := v.X*float64(p.shape.Width) - 0.5
	fy := v.Y*float64(p.shape.Height) - 0.5
	return gridTap(p.shape, 0, fx, fy, p.wrap)
}

func (p *Planar) Stencil(cell, axis, sign int) field.Tap {
	_, x, y := p.shape.Split(cell)
	if axis == 0 {
		x += sign
	} else {
		y += sign
	}
	if p.wrap {
		x, y = wrapIndex(x, p.shape.Width), wrapIndex(y, p.shape.Height)
	} else {
		x, y = clampIndex(x, p.shape.Width), clampIndex(y, p.shape.Height)
	}
	return field.Single(p.shape.Index(0, x, y))
}

// Backtrace steps back dt/dx·v, converting cell units to logical units.
func (p *Planar) Backtrace(pos, v r3.Vec, dt float64) r3.Vec {
	k := dt / p.spacing
	return r3.Vec{
		X: pos.X - k*v.X/float64(p.shape.Width),
		Y: pos.Y - k*v.Y/float64(p.shape.Height),
	}
}

func (p *Planar) Transport(v, _, _ r3.Vec) r3.Vec { return v }

// Distance measures in logical units. Wrapped grids fold each axis delta to
// the shorter way around.
func (p *Planar) Distance(a, b r3.Vec) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	if p.wrap {
		dx, dy = fold(dx), fold(dy)
	}
	return math.Hypot(dx, dy)
}

// fold maps a periodic delta to the shortest signed delta.
func fold(d float64) float64 {
	d = math.Mod(d, 1)
	if math.Abs(d) > 0.5 {
		d = -math.Copysign(1-math.Abs(d), d)
	}
	return d
}

// gridTap builds a bilinear footprint on one face at fractional texel
// coordinates (texel centers at integers).
func gridTap(shape field.Shape, face int, fx, fy float64, wrap bool) field.Tap {
	if !finite(fx) || !finite(fy) {
		fx, fy = 0, 0
	}
	fx = math.Max(-maxTexel, math.Min(maxTexel, fx))
	fy = math.Max(-maxTexel, math.Min(maxTexel, fy))
	x0f, y0f := math.Floor(fx), math.Floor(fy)
	tx, ty := float32(fx-x0f), float32(fy-y0f)
	x0, y0 := int(x0f), int(y0f)
	x1, y1 := x0+1, y0+1

	w, h := shape.Width, shape.Height
	if wrap {
		x0, x1 = wrapIndex(x0, w), wrapIndex(x1, w)
		y0, y1 = wrapIndex(y0, h), wrapIndex(y1, h)
	} else {
		x0, x1 = clampIndex(x0, w), clampIndex(x1, w)
		y0, y1 = clampIndex(y0, h), clampIndex(y1, h)
	}

	return field.Tap{
		Index: [4]int32{
			int32(shape.Index(face, x0, y0)),
			int32(shape.Index(face, x1, y0)),
			int32(shape.Index(face, x0, y1)),
			int32(shape.Index(face, x1, y1)),
		},
		Weight: [4]float32{
			(1 - tx) * (1 - ty),
			tx * (1 - ty),
			(1 - tx) * ty,
			tx * ty,
		},
	}
}
