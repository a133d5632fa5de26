// Package topology maps the solver's storage grids onto physical domains.
//
// Every adapter works in a physical 3-space frame (gonum r3 vectors): planar
// domains live in the z=0 plane with logical coordinates in [0,1)², the
// sphere is the unit sphere stored as a cube map, and the torus is the
// standard embedding parameterized by (u,v). Operators sample neighbors,
// trace characteristics and measure distances only through this interface.
package topology

import (
	"errors"
	"fmt"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/smoke/field"
)

// ErrUnknownKind is returned for unrecognized domain names.
var ErrUnknownKind = errors.New("topology: unknown domain kind")

// Kind identifies a topology variant.
type Kind uint8

const (
	PlanarClamped Kind = iota
	PlanarWrapped
	Spherical
	ParametricTorus
)

func (k Kind) String() string {
	switch k {
	case PlanarClamped:
		return "planar-clamped"
	case PlanarWrapped:
		return "planar-wrapped"
	case Spherical:
		return "sphere"
	case ParametricTorus:
		return "torus"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Curved reports whether the kind uses the 3-space six-neighbor stencil.
func (k Kind) Curved() bool {
	return k == Spherical || k == ParametricTorus
}

// ParseKind resolves a config domain name plus planar wrap mode.
func ParseKind(domain, wrap string) (Kind, error) {
	switch strings.ToLower(domain) {
	case "planar", "plane":
		w, err := ParseWrap(wrap)
		if err != nil {
			return 0, err
		}
		return w, nil
	case "sphere", "spherical":
		return Spherical, nil
	case "torus", "parametric", "parametric-torus":
		return ParametricTorus, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownKind, domain)
	}
}

// ParseWrap resolves a planar wrap mode name.
func ParseWrap(wrap string) (Kind, error) {
	switch strings.ToLower(wrap) {
	case "", "wrap", "wrapped", "periodic", "repeat":
		return PlanarWrapped, nil
	case "clamp", "clamped", "edge":
		return PlanarClamped, nil
	default:
		return 0, fmt.Errorf("%w: wrap mode %q", ErrUnknownKind, wrap)
	}
}

// Coord is a logical 2D coordinate. Planar and torus coordinates are in
// [0,1)² grid space; sphere coordinates are equirectangular (U longitude,
// V latitude, both as fractions).
type Coord struct {
	U, V float64
}

// Adapter supplies coordinate mapping, resampling and tangent rules for one
// domain. Implementations are immutable after construction.
type Adapter interface {
	Kind() Kind
	Shape() field.Shape
	// Axes is the number of stencil axes: 2 on planar grids, 3 on curved
	// domains where offsets are taken in 3-space.
	Axes() int
	// Spacing is the grid spacing dx used by difference operators.
	Spacing() float64

	Forward(c Coord) r3.Vec
	Inverse(p r3.Vec) Coord
	Center(cell int) r3.Vec
	Normal(p r3.Vec) r3.Vec

	// Footprint returns the bilinear resample weights for a physical point
	// under the adapter's clamp/wrap rule.
	Footprint(p r3.Vec) field.Tap
	// Stencil returns the footprint of the neighbor of cell along axis in
	// direction sign (+1 or -1).
	Stencil(cell, axis, sign int) field.Tap
	// Backtrace returns the departure point of a characteristic arriving at
	// p with velocity v after dt.
	Backtrace(p, v r3.Vec, dt float64) r3.Vec
	// Transport carries a tangent vector sampled at from into the tangent
	// plane at to.
	Transport(v, from, to r3.Vec) r3.Vec
	// Distance is the shortest-path distance between two physical points.
	Distance(p, q r3.Vec) float64
}

// Spec describes an adapter to construct.
type Spec struct {
	Kind     Kind
	Width    int     // planar and torus grid width
	Height   int     // planar and torus grid height
	CubeSize int     // sphere face size
	Major    float64 // torus R
	Minor    float64 // torus r
	Spacing  float64 // grid spacing override; 0 uses the domain default
}

// New builds the adapter described by spec.
func New(spec Spec) (Adapter, error) {
	switch spec.Kind {
	case PlanarClamped, PlanarWrapped:
		if spec.Width < 2 || spec.Height < 2 {
			return nil, fmt.Errorf("planar grid %dx%d too small", spec.Width, spec.Height)
		}
		return NewPlanar(spec.Width, spec.Height, spec.Kind == PlanarWrapped, spec.Spacing), nil
	case Spherical:
		if spec.CubeSize < 2 {
			return nil, fmt.Errorf("cube size %d too small", spec.CubeSize)
		}
		return NewSphere(spec.CubeSize, spec.Spacing), nil
	case ParametricTorus:
		if spec.Width < 2 || spec.Height < 2 {
			return nil, fmt.Errorf("torus grid %dx%d too small", spec.Width, spec.Height)
		}
		if spec.Minor <= 0 || spec.Major <= spec.Minor {
			return nil, fmt.Errorf("torus radii R=%g r=%g must satisfy R > r > 0", spec.Major, spec.Minor)
		}
		return NewTorus(spec.Width, spec.Height, spec.Major, spec.Minor, spec.Spacing), nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownKind, spec.Kind)
	}
}

// Tangent removes the component of v along the surface normal at p.
// Non-finite results collapse to zero.
func Tangent(a Adapter, v, p r3.Vec) r3.Vec {
	n := a.Normal(p)
	return Sanitize(r3.Sub(v, r3.Scale(r3.Dot(v, n), n)))
}

// Sample resamples all channels of g at physical point p.
func Sample(a Adapter, g *field.Grid, p r3.Vec) field.Texel {
	t := g.Gather(a.Footprint(p))
	for i, c := range t {
		t[i] = SanitizeScalar(c)
	}
	return t
}

// SampleScalar resamples channel 0 of g at p.
func SampleScalar(a Adapter, g *field.Grid, p r3.Vec) float32 {
	return SanitizeScalar(g.GatherScalar(a.Footprint(p)))
}

// SampleVector resamples a vector field at p and projects it into the
// tangent plane.
func SampleVector(a Adapter, g *field.Grid, p r3.Vec) r3.Vec {
	return Tangent(a, Vec(g.Gather(a.Footprint(p))), p)
}

// Vec reads channels 0..2 of a texel as a vector.
func Vec(t field.Texel) r3.Vec {
	return r3.Vec{X: float64(t[0]), Y: float64(t[1]), Z: float64(t[2])}
}

// Texel packs a vector into channels 0..2.
func Texel(v r3.Vec) field.Texel {
	return field.Texel{float32(v.X), float32(v.Y), float32(v.Z), 0}
}
