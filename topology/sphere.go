package topology

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/smoke/field"
)

// Cube faces in storage order.
const (
	FacePosX = iota
	FaceNegX
	FacePosY
	FaceNegY
	FacePosZ
	FaceNegZ
)

// geodesicMin is the step angle below which Backtrace returns p unchanged.
const geodesicMin = 1e-6

// Sphere is the unit sphere stored as a six-face cube map. Positions are
// unit directions and double as normals; vectors are tangent 3-vectors.
type Sphere struct {
	shape   field.Shape
	size    int
	spacing float64
	centers []r3.Vec
}

// NewSphere builds a cube-mapped sphere. A spacing of 0 selects dx = 2/size,
// one texel on the cube surface.
func NewSphere(size int, spacing float64) *Sphere {
	if spacing <= 0 {
		spacing = 2 / float64(size)
	}
	s := &Sphere{shape: field.CubeShape(size), size: size, spacing: spacing}
	s.centers = make([]r3.Vec, s.shape.Cells())
	for cell := range s.centers {
		face, x, y := s.shape.Split(cell)
		s.centers[cell] = unit(faceDir(face, s.texelCoord(x), s.texelCoord(y)))
	}
	return s
}

func (s *Sphere) Kind() Kind         { return Spherical }
func (s *Sphere) Shape() field.Shape { return s.shape }
func (s *Sphere) Axes() int          { return 3 }
func (s *Sphere) Spacing() float64   { return s.spacing }

// Forward maps an equirectangular coordinate to a direction (z up).
func (s *Sphere) Forward(c Coord) r3.Vec {
	lon := 2 * math.Pi * c.U
	lat := math.Pi * (c.V - 0.5)
	return r3.Vec{
		X: math.Cos(lat) * math.Cos(lon),
		Y: math.Cos(lat) * math.Sin(lon),
		Z: math.Sin(lat),
	}
}

func (s *Sphere) Inverse(p r3.Vec) Coord {
	d := unit(p)
	return Coord{
		U: fract(math.Atan2(d.Y, d.X) / (2 * math.Pi)),
		V: math.Asin(clampUnit(d.Z))/math.Pi + 0.5,
	}
}

func (s *Sphere) Center(cell int) r3.Vec { return s.centers[cell] }

func (s *Sphere) Normal(p r3.Vec) r3.Vec { return unit(p) }

// Footprint samples the cube map bilinearly. Corners falling off the face
// are resolved to the nearest texel on the neighboring face.
func (s *Sphere) Footprint(p r3.Vec) field.Tap {
	face, fs, ft := cubeFace(p)
	n := float64(s.size)
	fx, fy := fs*n-0.5, ft*n-0.5
	x0f, y0f := math.Floor(fx), math.Floor(fy)
	tx, ty := float32(fx-x0f), float32(fy-y0f)
	x0, y0 := int(x0f), int(y0f)

	return field.Tap{
		Index: [4]int32{
			int32(s.texel(face, x0, y0)),
			int32(s.texel(face, x0+1, y0)),
			int32(s.texel(face, x0, y0+1)),
			int32(s.texel(face, x0+1, y0+1)),
		},
		Weight: [4]float32{
			(1 - tx) * (1 - ty),
			tx * (1 - ty),
			(1 - tx) * ty,
			tx * ty,
		},
	}
}

func (s *Sphere) Stencil(cell, axis, sign int) field.Tap {
	p := s.centers[cell]
	off := Tangent(s, axisVec(axis, float64(sign)*s.spacing), p)
	return s.Footprint(r3.Add(p, off))
}

// Backtrace moves along the great circle through p opposite to v.
func (s *Sphere) Backtrace(p, v r3.Vec, dt float64) r3.Vec {
	return move(p, r3.Scale(-dt, v))
}

func (s *Sphere) Transport(v, from, to r3.Vec) r3.Vec {
	return Tangent(s, rotateBetween(v, unit(from), unit(to)), to)
}

// Distance is the great-circle angle.
func (s *Sphere) Distance(a, b r3.Vec) float64 {
	return math.Acos(clampUnit(r3.Dot(unit(a), unit(b))))
}

// Nearest returns the cell whose texel contains direction p.
func (s *Sphere) Nearest(p r3.Vec) int {
	face, fs, ft := cubeFace(p)
	n := float64(s.size)
	return s.shape.Index(face, clampIndex(int(fs*n), s.size), clampIndex(int(ft*n), s.size))
}

// move walks the geodesic from unit p along tangent step w (|w| radians).
func move(p, w r3.Vec) r3.Vec {
	theta := r3.Norm(w)
	if theta <= geodesicMin || !finite(theta) {
		return p
	}
	q := r3.Add(r3.Scale(math.Cos(theta), p), r3.Scale(math.Sin(theta)/theta, w))
	if q = unit(q); q == (r3.Vec{}) {
		return p
	}
	return q
}

func (s *Sphere) texelCoord(i int) float64 {
	return 2*(float64(i)+0.5)/float64(s.size) - 1
}

func (s *Sphere) texel(face, x, y int) int {
	if x >= 0 && x < s.size && y >= 0 && y < s.size {
		return s.shape.Index(face, x, y)
	}
	return s.Nearest(faceDir(face, s.texelCoord(x), s.texelCoord(y)))
}

// faceDir returns the (unnormalized) direction of face coordinates
// sc, tc ∈ [-1,1].
func faceDir(face int, sc, tc float64) r3.Vec {
	switch face {
	case FacePosX:
		return r3.Vec{X: 1, Y: -tc, Z: -sc}
	case FaceNegX:
		return r3.Vec{X: -1, Y: -tc, Z: sc}
	case FacePosY:
		return r3.Vec{X: sc, Y: 1, Z: tc}
	case FaceNegY:
		return r3.Vec{X: sc, Y: -1, Z: -tc}
	case FacePosZ:
		return r3.Vec{X: sc, Y: -tc, Z: 1}
	default:
		return r3.Vec{X: -sc, Y: -tc, Z: -1}
	}
}

// cubeFace selects the major-axis face of d and its face coordinates in
// [0,1]².
func cubeFace(d r3.Vec) (face int, s, t float64) {
	ax, ay, az := math.Abs(d.X), math.Abs(d.Y), math.Abs(d.Z)
	var sc, tc, ma float64
	switch {
	case ax >= ay && ax >= az:
		ma = ax
		if d.X > 0 {
			face, sc, tc = FacePosX, -d.Z, -d.Y
		} else {
			face, sc, tc = FaceNegX, d.Z, -d.Y
		}
	case ay >= az:
		ma = ay
		if d.Y > 0 {
			face, sc, tc = FacePosY, d.X, d.Z
		} else {
			face, sc, tc = FaceNegY, d.X, -d.Z
		}
	default:
		ma = az
		if d.Z > 0 {
			face, sc, tc = FacePosZ, d.X, -d.Y
		} else {
			face, sc, tc = FaceNegZ, -d.X, -d.Y
		}
	}
	if !(ma > 0) || !finite(ma) {
		return FacePosX, 0.5, 0.5
	}
	return face, 0.5 * (sc/ma + 1), 0.5 * (tc/ma + 1)
}
