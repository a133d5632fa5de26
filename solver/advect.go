package solver

import (
	"github.com/pthm-cable/smoke/field"
	"github.com/pthm-cable/smoke/topology"
)

// advectVelocity self-advects velocity. The departure sample is carried into
// the destination tangent plane before it is stored.
func (s *Solver) advectVelocity() {
	a := s.adapter
	dt := s.params.DT
	src, dst := s.velocity.Read(), s.velocity.Write()

	s.exec.Run(src.Len(), func(lo, hi int) {
		for cell := lo; cell < hi; cell++ {
			p := a.Center(cell)
			v := topology.Tangent(a, topology.Vec(src.At(cell)), p)
			q := a.Backtrace(p, v, dt)
			w := topology.SampleVector(a, src, q)
			w = topology.Tangent(a, a.Transport(w, q, p), p)
			dst.Set(cell, topology.Texel(w))
		}
	})
	s.velocity.Swap()
}

// advect carries every channel of b along the velocity field and scales the
// result by dissipation.
func (s *Solver) advect(b *field.Buffer, dissipation float64) {
	a := s.adapter
	dt := s.params.DT
	vel := s.velocity.Read()
	src, dst := b.Read(), b.Write()
	k := float32(dissipation)

	s.exec.Run(src.Len(), func(lo, hi int) {
		for cell := lo; cell < hi; cell++ {
			p := a.Center(cell)
			v := topology.Tangent(a, topology.Vec(vel.At(cell)), p)
			q := a.Backtrace(p, v, dt)
			t := topology.Sample(a, src, q)
			dst.Set(cell, field.Texel{t[0] * k, t[1] * k, t[2] * k, t[3] * k})
		}
	})
	b.Swap()
}
