package solver

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/smoke/field"
	"github.com/pthm-cable/smoke/kernel"
	"github.com/pthm-cable/smoke/topology"
)

// project runs the projection half of Step on the current velocity.
func project(s *Solver) {
	s.computeDivergence()
	s.pressure.Clear()
	s.relax()
	s.subtractGradient()
}

func divergenceL1(s *Solver) float64 {
	s.computeDivergence()
	var sum float64
	for _, t := range s.divergence.Read().Texels() {
		sum += math.Abs(float64(t[0]))
	}
	return sum
}

// seedWave fills velocity with vx = sin(2πx/8), a field with known divergence.
func seedWave(s *Solver) {
	vel := s.velocity.Read()
	shape := vel.Shape()
	for cell := 0; cell < vel.Len(); cell++ {
		_, x, _ := shape.Split(cell)
		vel.Set(cell, field.Texel{float32(math.Sin(2 * math.Pi * float64(x) / 8))})
	}
}

func TestDivergenceReduction(t *testing.T) {
	prev := math.Inf(1)
	var initial float64
	for _, iters := range []int{1, 5, 10, 20, 40} {
		p := quietParams(topology.PlanarWrapped)
		p.JacobiIterations = iters
		s := New(topology.NewPlanar(32, 32, true, 1), WithParams(p), WithExecutor(kernel.Serial{}))

		seedWave(s)
		initial = divergenceL1(s)
		project(s)
		after := divergenceL1(s)
		s.Close()

		if after >= initial {
			t.Errorf("%d iterations: divergence %v not reduced from %v", iters, after, initial)
		}
		if after >= prev {
			t.Errorf("%d iterations: divergence %v not below %v", iters, after, prev)
		}
		// Each Jacobi sweep damps this mode by λ = (1+cos(π/4))/2.
		lambda := (1 + math.Cos(math.Pi/4)) / 2
		want := 1 - lambda*(1-math.Pow(lambda, float64(iters)))
		if got := after / initial; math.Abs(got-want) > 1e-3 {
			t.Errorf("%d iterations: reduction ratio %v, want %v", iters, got, want)
		}
		prev = after
	}
	if initial == 0 {
		t.Fatal("seed field has no divergence")
	}
}

// seedSwirl fills velocity with a smooth tangent field scaled to the domain
// extent.
func seedSwirl(s *Solver, extent float64) {
	a := s.Adapter()
	vel := s.velocity.Read()
	k := 2 / extent
	for cell := 0; cell < vel.Len(); cell++ {
		p := a.Center(cell)
		v := r3.Vec{X: math.Sin(k * p.Y), Y: math.Sin(k * p.Z), Z: math.Sin(k * p.X)}
		vel.Set(cell, topology.Texel(topology.Tangent(a, v, p)))
	}
}

func TestDivergenceReductionAcrossDomains(t *testing.T) {
	cases := []struct {
		name    string
		adapter func() topology.Adapter
		seed    func(s *Solver)
	}{
		{"planar-clamped", func() topology.Adapter { return topology.NewPlanar(32, 32, false, 1) }, seedWave},
		{"sphere", func() topology.Adapter { return topology.NewSphere(16, 0) }, func(s *Solver) { seedSwirl(s, 1) }},
		{"torus", func() topology.Adapter { return topology.NewTorus(48, 20, 12, 5, 0) }, func(s *Solver) { seedSwirl(s, 17) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			prev := math.Inf(1)
			for _, iters := range []int{1, 10, 40} {
				a := tc.adapter()
				p := quietParams(a.Kind())
				p.JacobiIterations = iters
				s := New(a, WithParams(p), WithExecutor(kernel.Serial{}))

				tc.seed(s)
				initial := divergenceL1(s)
				if initial == 0 {
					s.Close()
					t.Fatal("seed field has no divergence")
				}
				project(s)
				after := divergenceL1(s)
				s.Close()

				if after >= initial {
					t.Errorf("%d iterations: divergence %v not reduced from %v", iters, after, initial)
				}
				if after > prev*(1+1e-3) {
					t.Errorf("%d iterations: divergence %v rose above %v", iters, after, prev)
				}
				prev = after
			}
		})
	}
}

func TestDivergenceOfUniformFlow(t *testing.T) {
	for _, wrap := range []bool{true, false} {
		s := New(topology.NewPlanar(16, 16, wrap, 1), WithParams(quietParams(topology.PlanarWrapped)))
		vel := s.velocity.Read()
		for cell := 0; cell < vel.Len(); cell++ {
			vel.Set(cell, field.Texel{0.7, -0.2})
		}
		if d := divergenceL1(s); d > 1e-5 {
			t.Errorf("wrap=%v: uniform flow divergence %v", wrap, d)
		}
		s.Close()
	}
}

func TestCurlOfRotation(t *testing.T) {
	s := New(topology.NewPlanar(32, 32, true, 1), WithParams(quietParams(topology.PlanarWrapped)))
	defer s.Close()

	// v = (−y, x) in cell units has curl 2 away from the wrap seam.
	vel := s.velocity.Read()
	shape := vel.Shape()
	for cell := 0; cell < vel.Len(); cell++ {
		_, x, y := shape.Split(cell)
		vel.Set(cell, field.Texel{float32(-(y - 16)), float32(x - 16)})
	}
	s.computeCurl()

	curl := s.vorticity.Read()
	for _, c := range [][2]int{{16, 16}, {10, 20}, {24, 8}} {
		w := topology.Vec(curl.At(shape.Index(0, c[0], c[1])))
		if math.Abs(w.Z-2) > 1e-5 || math.Abs(w.X) > 1e-6 || math.Abs(w.Y) > 1e-6 {
			t.Errorf("curl at %v = %v, want (0,0,2)", c, w)
		}
	}
}

func TestConfinementSkippedBelowEpsilon(t *testing.T) {
	p := quietParams(topology.PlanarWrapped)
	p.VorticityWeight = 1
	s := New(topology.NewPlanar(16, 16, true, 1), WithParams(p))
	defer s.Close()

	// Uniform flow: zero curl everywhere, so confinement must leave v alone.
	vel := s.velocity.Read()
	for cell := 0; cell < vel.Len(); cell++ {
		vel.Set(cell, field.Texel{0.5, 0.25})
	}
	s.computeCurl()
	s.confine()
	for cell, tx := range s.velocity.Read().Texels() {
		if tx != (field.Texel{0.5, 0.25}) {
			t.Fatalf("cell %d changed to %v", cell, tx)
		}
	}
}

func TestConfinementSpinsUpVortex(t *testing.T) {
	p := quietParams(topology.PlanarWrapped)
	p.VorticityWeight = 2
	s := New(topology.NewPlanar(32, 32, true, 1), WithParams(p))
	defer s.Close()

	// A Gaussian vortex; confinement pushes flow along its rotation.
	vel := s.velocity.Read()
	shape := vel.Shape()
	for cell := 0; cell < vel.Len(); cell++ {
		_, x, y := shape.Split(cell)
		dx, dy := float64(x)-15.5, float64(y)-15.5
		g := math.Exp(-(dx*dx + dy*dy) / 20)
		vel.Set(cell, field.Texel{float32(-dy * g), float32(dx * g)})
	}
	before := speed(vel, shape.Index(0, 20, 15))
	s.computeCurl()
	s.confine()
	after := speed(s.velocity.Read(), shape.Index(0, 20, 15))
	if after == before {
		t.Error("confinement had no effect on a vortex")
	}
}

func speed(g *field.Grid, cell int) float64 {
	return r3.Norm(topology.Vec(g.At(cell)))
}
