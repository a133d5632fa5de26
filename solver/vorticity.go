package solver

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/smoke/topology"
)

// computeCurl writes the normal component of the central-difference curl as
// a vector. On planar grids this is (0, 0, ∂vy/∂x − ∂vx/∂y).
func (s *Solver) computeCurl() {
	a := s.adapter
	halfrdx := 0.5 / a.Spacing()
	axes := s.stencil.Axes()
	vel := s.velocity.Read()
	dst := s.vorticity.Write()

	s.exec.Run(vel.Len(), func(lo, hi int) {
		var d [3]r3.Vec
		for cell := lo; cell < hi; cell++ {
			d = [3]r3.Vec{}
			for axis := 0; axis < axes; axis++ {
				minus, plus := s.stencil.Neighbors(cell, axis)
				diff := r3.Sub(topology.Vec(vel.Gather(plus)), topology.Vec(vel.Gather(minus)))
				d[axis] = r3.Scale(halfrdx, diff)
			}
			curl := r3.Vec{
				X: d[1].Z - d[2].Y,
				Y: d[2].X - d[0].Z,
				Z: d[0].Y - d[1].X,
			}
			n := a.Normal(a.Center(cell))
			curl = topology.Sanitize(r3.Scale(r3.Dot(curl, n), n))
			dst.Set(cell, topology.Texel(curl))
		}
	})
	s.vorticity.Swap()
}

// confine adds weight·(η̂ × ω)·dt where η = ∇|ω| exceeds epsilon.
func (s *Solver) confine() {
	a := s.adapter
	halfrdx := 0.5 / a.Spacing()
	axes := s.stencil.Axes()
	eps := s.params.ConfinementEpsilon
	scale := s.params.VorticityWeight * s.params.DT
	curl := s.vorticity.Read()
	src, dst := s.velocity.Read(), s.velocity.Write()

	s.exec.Run(src.Len(), func(lo, hi int) {
		for cell := lo; cell < hi; cell++ {
			p := a.Center(cell)
			var eta r3.Vec
			for axis := 0; axis < axes; axis++ {
				minus, plus := s.stencil.Neighbors(cell, axis)
				mp := r3.Norm(topology.Vec(curl.Gather(plus)))
				mm := r3.Norm(topology.Vec(curl.Gather(minus)))
				eta = withComponent(eta, axis, (mp-mm)*halfrdx)
			}
			eta = topology.Tangent(a, eta, p)

			v := topology.Vec(src.At(cell))
			if mag := r3.Norm(eta); mag > eps {
				psi := r3.Scale(1/mag, eta)
				force := r3.Cross(psi, topology.Vec(curl.At(cell)))
				v = r3.Add(v, r3.Scale(scale, force))
			}
			dst.Set(cell, topology.Texel(topology.Tangent(a, v, p)))
		}
	})
	s.velocity.Swap()
}
