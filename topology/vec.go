package topology

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// antipodal is the cosine below which two normals are treated as opposite.
const antipodal = -0.99999999

// Sanitize replaces a vector with any non-finite component by zero.
func Sanitize(v r3.Vec) r3.Vec {
	if !finite(v.X) || !finite(v.Y) || !finite(v.Z) {
		return r3.Vec{}
	}
	return v
}

// SanitizeScalar replaces NaN and ±Inf by zero.
func SanitizeScalar(f float32) float32 {
	if f != f || f > math.MaxFloat32 || f < -math.MaxFloat32 {
		return 0
	}
	return f
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// unit normalizes v, returning zero for degenerate input.
func unit(v r3.Vec) r3.Vec {
	n := r3.Norm(v)
	if n == 0 || !finite(n) {
		return r3.Vec{}
	}
	return r3.Scale(1/n, v)
}

// rotateBetween rotates v by the rotation carrying unit normal from onto
// unit normal to.
func rotateBetween(v, from, to r3.Vec) r3.Vec {
	c := r3.Dot(from, to)
	if c <= antipodal {
		return r3.Scale(-1, v)
	}
	axis := r3.Cross(from, to)
	out := r3.Add(r3.Scale(c, v), r3.Cross(axis, v))
	out = r3.Add(out, r3.Scale(r3.Dot(axis, v)/(1+c), axis))
	return Sanitize(out)
}

// axisVec returns a vector of length h along world axis 0, 1 or 2.
func axisVec(axis int, h float64) r3.Vec {
	switch axis {
	case 0:
		return r3.Vec{X: h}
	case 1:
		return r3.Vec{Y: h}
	default:
		return r3.Vec{Z: h}
	}
}

// fract wraps x into [0,1).
func fract(x float64) float64 {
	f := x - math.Floor(x)
	if f >= 1 {
		return 0
	}
	return f
}

func wrapIndex(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func clampUnit(f float64) float64 {
	return math.Max(-1, math.Min(1, f))
}
