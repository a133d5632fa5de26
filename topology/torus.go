package topology

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/smoke/field"
)

// Torus is the parametric torus embedding stored as a periodic W×H grid in
// (u,v). Vectors are tangent 3-vectors in world units.
type Torus struct {
	shape   field.Shape
	major   float64
	minor   float64
	spacing float64
	centers []r3.Vec
}

// NewTorus builds a torus adapter with major radius R and minor radius r.
// A spacing of 0 selects the arc length of one texel along u at radius R.
func NewTorus(w, h int, major, minor, spacing float64) *Torus {
	if spacing <= 0 {
		spacing = 2 * math.Pi * major / float64(w)
	}
	t := &Torus{shape: field.PlanarShape(w, h), major: major, minor: minor, spacing: spacing}
	t.centers = make([]r3.Vec, t.shape.Cells())
	for cell := range t.centers {
		_, x, y := t.shape.Split(cell)
		t.centers[cell] = t.Forward(Coord{
			U: (float64(x) + 0.5) / float64(w),
			V: (float64(y) + 0.5) / float64(h),
		})
	}
	return t
}

func (t *Torus) Kind() Kind         { return ParametricTorus }
func (t *Torus) Shape() field.Shape { return t.shape }
func (t *Torus) Axes() int          { return 3 }
func (t *Torus) Spacing() float64   { return t.spacing }

// Radii returns R and r.
func (t *Torus) Radii() (major, minor float64) { return t.major, t.minor }

func (t *Torus) Forward(c Coord) r3.Vec {
	u, v := 2*math.Pi*c.U, 2*math.Pi*c.V
	ring := t.major + t.minor*math.Cos(v)
	return r3.Vec{
		X: ring * math.Cos(u),
		Y: ring * math.Sin(u),
		Z: t.minor * math.Sin(v),
	}
}

func (t *Torus) Inverse(p r3.Vec) Coord {
	u := math.Atan2(p.Y, p.X)
	v := math.Atan2(p.Z, math.Hypot(p.X, p.Y)-t.major)
	return Coord{U: fract(u / (2 * math.Pi)), V: fract(v / (2 * math.Pi))}
}

func (t *Torus) Center(cell int) r3.Vec { return t.centers[cell] }

// Normal is the normalized cross product of the partial derivatives of the
// embedding at the surface point nearest p.
func (t *Torus) Normal(p r3.Vec) r3.Vec {
	c := t.Inverse(p)
	u, v := 2*math.Pi*c.U, 2*math.Pi*c.V
	su, cu := math.Sincos(u)
	sv, cv := math.Sincos(v)
	ring := t.major + t.minor*cv
	du := r3.Vec{X: -ring * su, Y: ring * cu}
	dv := r3.Vec{X: -t.minor * sv * cu, Y: -t.minor * sv * su, Z: t.minor * cv}
	return unit(r3.Cross(du, dv))
}

func (t *Torus) Footprint(p r3.Vec) field.Tap {
	c := t.Inverse(p)
	return gridTap(t.shape, 0, c.U*float64(t.shape.Width)-0.5, c.V*float64(t.shape.Height)-0.5, true)
}

func (t *Torus) Stencil(cell, axis, sign int) field.Tap {
	p := t.centers[cell]
	off := Tangent(t, axisVec(axis, float64(sign)*t.spacing), p)
	return t.Footprint(r3.Add(p, off))
}

// Backtrace steps back in 3-space and reprojects onto the surface.
func (t *Torus) Backtrace(p, v r3.Vec, dt float64) r3.Vec {
	return t.Forward(t.Inverse(r3.Sub(p, r3.Scale(dt, v))))
}

func (t *Torus) Transport(v, from, to r3.Vec) r3.Vec {
	nTo := t.Normal(to)
	return Tangent(t, rotateBetween(v, t.Normal(from), nTo), to)
}

// Distance is the straight-line distance between embedded points.
func (t *Torus) Distance(a, b r3.Vec) float64 {
	return r3.Norm(r3.Sub(a, b))
}
