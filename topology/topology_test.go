package topology

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/smoke/field"
)

func randomGrid(shape field.Shape, seed int64) *field.Grid {
	rng := rand.New(rand.NewSource(seed))
	g := field.NewGrid(shape)
	for i := 0; i < g.Len(); i++ {
		g.Set(i, field.Texel{
			rng.Float32()*2 - 1,
			rng.Float32()*2 - 1,
			rng.Float32()*2 - 1,
			rng.Float32(),
		})
	}
	return g
}

func TestWrapContinuity(t *testing.T) {
	p := NewPlanar(16, 12, true, 0)
	g := randomGrid(p.Shape(), 1)

	for i := 0; i <= 40; i++ {
		y := float64(i) / 40
		a := Sample(p, g, p.Forward(Coord{U: 0, V: y}))
		b := Sample(p, g, p.Forward(Coord{U: 1, V: y}))
		if a != b {
			t.Errorf("y=%.3f: sample at u=0 %v differs from u=1 %v", y, a, b)
		}
		c := Sample(p, g, p.Forward(Coord{U: y, V: 0}))
		d := Sample(p, g, p.Forward(Coord{U: y, V: 1}))
		if c != d {
			t.Errorf("x=%.3f: sample at v=0 %v differs from v=1 %v", y, c, d)
		}
	}
}

func TestPlanarClampedEdges(t *testing.T) {
	p := NewPlanar(8, 8, false, 0)
	g := randomGrid(p.Shape(), 2)

	// Beyond the edge the clamped sample equals the edge texel.
	edge := Sample(p, g, r3.Vec{X: 0.5 / 8, Y: 0.5 / 8})
	beyond := Sample(p, g, r3.Vec{X: -3, Y: -3})
	for ch := range edge {
		if math.Abs(float64(edge[ch]-beyond[ch])) > 1e-6 {
			t.Errorf("channel %d: expected clamped sample %f, got %f", ch, edge[ch], beyond[ch])
		}
	}

	tap := p.Stencil(p.Shape().Index(0, 0, 3), 0, -1)
	if tap.Index[0] != int32(p.Shape().Index(0, 0, 3)) {
		t.Errorf("clamped stencil should reuse the edge cell, got %d", tap.Index[0])
	}
}

func TestPlanarDistance(t *testing.T) {
	wrapped := NewPlanar(32, 32, true, 0)
	clamped := NewPlanar(32, 32, false, 0)

	a := r3.Vec{X: 0.05, Y: 0.5}
	b := r3.Vec{X: 0.95, Y: 0.5}

	if d := wrapped.Distance(a, b); math.Abs(d-0.1) > 1e-12 {
		t.Errorf("wrapped distance: expected 0.1, got %f", d)
	}
	if d := clamped.Distance(a, b); math.Abs(d-0.9) > 1e-12 {
		t.Errorf("clamped distance: expected 0.9, got %f", d)
	}
	if d := wrapped.Distance(a, a); d != 0 {
		t.Errorf("expected zero self distance, got %f", d)
	}
}

func TestPlanarStencilWraps(t *testing.T) {
	p := NewPlanar(5, 4, true, 0)
	s := p.Shape()
	tap := p.Stencil(s.Index(0, 4, 0), 0, 1)
	if tap.Index[0] != int32(s.Index(0, 0, 0)) || tap.Weight[0] != 1 {
		t.Errorf("expected +x neighbor of last column to wrap to column 0, got %+v", tap)
	}
	tap = p.Stencil(s.Index(0, 2, 0), 1, -1)
	if tap.Index[0] != int32(s.Index(0, 2, 3)) {
		t.Errorf("expected -y neighbor of row 0 to wrap to row 3, got %d", tap.Index[0])
	}
}

func TestFootprintWeightsSumToOne(t *testing.T) {
	adapters := []Adapter{
		NewPlanar(16, 16, true, 0),
		NewPlanar(16, 16, false, 0),
		NewSphere(8, 0),
		NewTorus(24, 10, 12, 5, 0),
	}
	for _, a := range adapters {
		for cell := 0; cell < a.Shape().Cells(); cell++ {
			for axis := 0; axis < a.Axes(); axis++ {
				for _, sign := range []int{-1, 1} {
					tap := a.Stencil(cell, axis, sign)
					var sum float32
					for k := 0; k < 4; k++ {
						sum += tap.Weight[k]
						if tap.Index[k] < 0 || int(tap.Index[k]) >= a.Shape().Cells() {
							t.Fatalf("%v: stencil index %d out of range", a.Kind(), tap.Index[k])
						}
					}
					if math.Abs(float64(sum-1)) > 1e-5 {
						t.Fatalf("%v cell %d axis %d: weights sum to %f", a.Kind(), cell, axis, sum)
					}
				}
			}
		}
	}
}

func TestSphereTangentInvariant(t *testing.T) {
	s := NewSphere(12, 0)
	g := randomGrid(s.Shape(), 3)
	rng := rand.New(rand.NewSource(4))

	for i := 0; i < 2000; i++ {
		p := unit(r3.Vec{X: rng.NormFloat64(), Y: rng.NormFloat64(), Z: rng.NormFloat64()})
		v := SampleVector(s, g, p)
		if d := r3.Dot(v, p); math.Abs(d) > 1e-9 {
			t.Fatalf("sample at %v not tangent: dot=%g", p, d)
		}
	}
	for cell := 0; cell < s.Shape().Cells(); cell++ {
		p := s.Center(cell)
		if math.Abs(r3.Norm(p)-1) > 1e-12 {
			t.Fatalf("cell %d center not on unit sphere: %v", cell, p)
		}
		v := SampleVector(s, g, p)
		if d := r3.Dot(v, p); math.Abs(d) > 1e-9 {
			t.Fatalf("cell %d sample not tangent: dot=%g", cell, d)
		}
	}
}

func TestSphereTexelRoundTrip(t *testing.T) {
	s := NewSphere(6, 0)
	for cell := 0; cell < s.Shape().Cells(); cell++ {
		if got := s.Nearest(s.Center(cell)); got != cell {
			t.Errorf("nearest(center(%d)) = %d", cell, got)
		}
		tap := s.Footprint(s.Center(cell))
		best := 0
		for k := 1; k < 4; k++ {
			if tap.Weight[k] > tap.Weight[best] {
				best = k
			}
		}
		if tap.Index[best] != int32(cell) || tap.Weight[best] < 0.999 {
			t.Errorf("footprint of center(%d) = %+v", cell, tap)
		}
	}
}

func TestSphereDistanceAndMove(t *testing.T) {
	s := NewSphere(8, 0)
	x := r3.Vec{X: 1}
	y := r3.Vec{Y: 1}
	if d := s.Distance(x, y); math.Abs(d-math.Pi/2) > 1e-12 {
		t.Errorf("expected π/2, got %f", d)
	}

	// Moving from +x with velocity +y for π/2 radians lands on +y.
	p := s.Backtrace(x, r3.Vec{Y: -1}, math.Pi/2)
	if r3.Norm(r3.Sub(p, y)) > 1e-9 {
		t.Errorf("expected geodesic move to reach +y, got %v", p)
	}
	if p := s.Backtrace(x, r3.Vec{}, 1); p != x {
		t.Errorf("zero velocity should not move, got %v", p)
	}
}

func TestSphereTransportAntipodal(t *testing.T) {
	s := NewSphere(8, 0)
	v := r3.Vec{Y: 0.3}
	got := s.Transport(v, r3.Vec{X: 1}, r3.Vec{X: -1})
	if r3.Norm(r3.Add(got, v)) > 1e-12 {
		t.Errorf("antipodal transport should negate, got %v", got)
	}

	// Transport between nearby points keeps the vector tangent at the target.
	from := unit(r3.Vec{X: 1, Y: 0.1})
	to := unit(r3.Vec{X: 1, Y: 0.2, Z: 0.1})
	w := Tangent(s, r3.Vec{Y: 1, Z: 1}, from)
	moved := s.Transport(w, from, to)
	if d := r3.Dot(moved, to); math.Abs(d) > 1e-9 {
		t.Errorf("transported vector not tangent: %g", d)
	}
	if math.Abs(r3.Norm(moved)-r3.Norm(w)) > 1e-9 {
		t.Errorf("transport should preserve length: %f vs %f", r3.Norm(moved), r3.Norm(w))
	}
}

func TestSphereCoordRoundTrip(t *testing.T) {
	s := NewSphere(8, 0)
	for _, c := range []Coord{{0.1, 0.2}, {0.5, 0.5}, {0.9, 0.75}} {
		got := s.Inverse(s.Forward(c))
		if math.Abs(got.U-c.U) > 1e-9 || math.Abs(got.V-c.V) > 1e-9 {
			t.Errorf("round trip %v -> %v", c, got)
		}
	}
}

func TestTorusRoundTrip(t *testing.T) {
	tor := NewTorus(60, 25, 12, 5, 0)
	for i := 0; i < 10; i++ {
		for j := 0; j < 10; j++ {
			c := Coord{U: float64(i) / 10, V: float64(j) / 10}
			p := tor.Forward(c)
			got := tor.Inverse(p)
			if math.Abs(got.U-c.U) > 1e-9 || math.Abs(got.V-c.V) > 1e-9 {
				t.Errorf("round trip %v -> %v", c, got)
			}
		}
	}
}

func TestTorusNormal(t *testing.T) {
	tor := NewTorus(60, 25, 12, 5, 0)

	// Outer equator points radially outward, top of the tube points up.
	n := tor.Normal(tor.Forward(Coord{U: 0, V: 0}))
	if r3.Norm(r3.Sub(n, r3.Vec{X: 1})) > 1e-9 {
		t.Errorf("expected +x normal on outer equator, got %v", n)
	}
	n = tor.Normal(tor.Forward(Coord{U: 0, V: 0.25}))
	if r3.Norm(r3.Sub(n, r3.Vec{Z: 1})) > 1e-9 {
		t.Errorf("expected +z normal on top of tube, got %v", n)
	}

	g := randomGrid(tor.Shape(), 5)
	for cell := 0; cell < tor.Shape().Cells(); cell += 7 {
		p := tor.Center(cell)
		v := SampleVector(tor, g, p)
		if d := r3.Dot(v, tor.Normal(p)); math.Abs(d) > 1e-9 {
			t.Fatalf("cell %d sample not tangent: %g", cell, d)
		}
	}
}

func TestTorusBacktraceStaysOnSurface(t *testing.T) {
	tor := NewTorus(60, 25, 12, 5, 0)
	p := tor.Center(100)
	q := tor.Backtrace(p, r3.Vec{X: 3, Y: -2, Z: 1}, 0.1)
	c := tor.Inverse(q)
	if r3.Norm(r3.Sub(q, tor.Forward(c))) > 1e-9 {
		t.Errorf("backtrace left the surface: %v", q)
	}
}

func TestSanitize(t *testing.T) {
	if v := Sanitize(r3.Vec{X: math.NaN(), Y: 1}); v != (r3.Vec{}) {
		t.Errorf("expected NaN vector to sanitize to zero, got %v", v)
	}
	if v := Sanitize(r3.Vec{Z: math.Inf(1)}); v != (r3.Vec{}) {
		t.Errorf("expected Inf vector to sanitize to zero, got %v", v)
	}
	if f := SanitizeScalar(float32(math.NaN())); f != 0 {
		t.Errorf("expected NaN scalar to sanitize to zero, got %f", f)
	}
	if f := SanitizeScalar(2.5); f != 2.5 {
		t.Errorf("finite scalar should pass through, got %f", f)
	}
}

func TestParseKind(t *testing.T) {
	cases := []struct {
		domain, wrap string
		want         Kind
	}{
		{"planar", "wrap", PlanarWrapped},
		{"planar", "clamp", PlanarClamped},
		{"sphere", "", Spherical},
		{"torus", "clamp", ParametricTorus},
	}
	for _, tc := range cases {
		got, err := ParseKind(tc.domain, tc.wrap)
		if err != nil || got != tc.want {
			t.Errorf("ParseKind(%q,%q) = %v, %v", tc.domain, tc.wrap, got, err)
		}
	}
	if _, err := ParseKind("klein", ""); err == nil {
		t.Error("expected error for unknown domain")
	}
}
