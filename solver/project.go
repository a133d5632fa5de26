package solver

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/smoke/field"
	"github.com/pthm-cable/smoke/kernel"
	"github.com/pthm-cable/smoke/topology"
)

// component returns the axis-th coordinate of v.
func component(v r3.Vec, axis int) float64 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

// withComponent returns v with the axis-th coordinate set to f.
func withComponent(v r3.Vec, axis int, f float64) r3.Vec {
	switch axis {
	case 0:
		v.X = f
	case 1:
		v.Y = f
	default:
		v.Z = f
	}
	return v
}

// computeDivergence writes Σ_axis ∂v_axis/∂axis by central differences.
func (s *Solver) computeDivergence() {
	halfrdx := 0.5 / s.adapter.Spacing()
	axes := s.stencil.Axes()
	vel := s.velocity.Read()
	dst := s.divergence.Write()

	s.exec.Run(vel.Len(), func(lo, hi int) {
		for cell := lo; cell < hi; cell++ {
			var div float64
			for axis := 0; axis < axes; axis++ {
				minus, plus := s.stencil.Neighbors(cell, axis)
				vm := topology.Vec(vel.Gather(minus))
				vp := topology.Vec(vel.Gather(plus))
				div += component(vp, axis) - component(vm, axis)
			}
			dst.Set(cell, field.Texel{topology.SanitizeScalar(float32(div * halfrdx))})
		}
	})
	s.divergence.Swap()
}

// relax solves the pressure Poisson equation against the divergence field.
func (s *Solver) relax() {
	dx := s.adapter.Spacing()
	s.relaxer.Relax(s.pressure, s.divergence.Read(), s.stencil, kernel.Jacobi{
		Alpha:      float32(-dx * dx),
		Beta:       float32(s.params.JacobiBeta),
		Iterations: s.params.JacobiIterations,
	})
}

// subtractGradient removes the tangent pressure gradient from velocity.
func (s *Solver) subtractGradient() {
	a := s.adapter
	halfrdx := 0.5 / a.Spacing()
	axes := s.stencil.Axes()
	pres := s.pressure.Read()
	src, dst := s.velocity.Read(), s.velocity.Write()

	s.exec.Run(src.Len(), func(lo, hi int) {
		for cell := lo; cell < hi; cell++ {
			var g r3.Vec
			for axis := 0; axis < axes; axis++ {
				minus, plus := s.stencil.Neighbors(cell, axis)
				d := float64(pres.GatherScalar(plus) - pres.GatherScalar(minus))
				g = withComponent(g, axis, d*halfrdx)
			}
			p := a.Center(cell)
			g = topology.Tangent(a, g, p)
			v := topology.Vec(src.At(cell))
			dst.Set(cell, topology.Texel(topology.Tangent(a, r3.Sub(v, g), p)))
		}
	})
	s.velocity.Swap()
}
