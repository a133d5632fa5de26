package solver

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/smoke/field"
	"github.com/pthm-cable/smoke/topology"
)

// DensityMagnitude is the length of the RGB channels of a density texel.
func DensityMagnitude(t field.Texel) float64 {
	r, g, b := float64(t[0]), float64(t[1]), float64(t[2])
	return math.Sqrt(r*r + g*g + b*b)
}

// applyBuoyancy adds (σ(T−T_amb) − κ·d)·dir·dt to velocity.
func (s *Solver) applyBuoyancy() {
	a := s.adapter
	b := s.params.Buoyancy
	dt := s.params.DT
	dir := r3.Vec{X: math.Cos(b.Direction), Y: math.Sin(b.Direction)}
	dens := s.density.Read()
	var temp *field.Grid
	if s.temperature != nil {
		temp = s.temperature.Read()
	}
	src, dst := s.velocity.Read(), s.velocity.Write()

	s.exec.Run(src.Len(), func(lo, hi int) {
		for cell := lo; cell < hi; cell++ {
			t := b.Ambient
			if temp != nil {
				t = float64(temp.At(cell)[0])
			}
			amount := b.Sigma*(t-b.Ambient) - b.Kappa*DensityMagnitude(dens.At(cell))
			p := a.Center(cell)
			v := r3.Add(topology.Vec(src.At(cell)), r3.Scale(amount*dt, dir))
			dst.Set(cell, topology.Texel(topology.Tangent(a, v, p)))
		}
	})
	s.velocity.Swap()
}

// falloff is the Gaussian weight exp(−d²/radius) of a source at c.
func (s *Solver) falloff(cell int, c r3.Vec, radius float64) float64 {
	d := s.adapter.Distance(s.adapter.Center(cell), c)
	f := math.Exp(-d * d / radius)
	if math.IsNaN(f) {
		return 0
	}
	return f
}

// inject applies every active source.
func (s *Solver) inject() {
	if src := s.densitySrc; src != nil && src.Radius > 0 {
		s.injectDensity(*src)
	}
	if src := s.velocitySrc; src != nil && src.Radius > 0 {
		s.injectVelocity(*src)
	}
	if src := s.temperatureSrc; src != nil && src.Radius > 0 && s.temperature != nil {
		s.injectTemperature(*src)
	}
}

func (s *Solver) injectDensity(src DensitySource) {
	c := s.adapter.Forward(src.Pos)
	in, out := s.density.Read(), s.density.Write()
	col := src.Color

	s.exec.Run(in.Len(), func(lo, hi int) {
		for cell := lo; cell < hi; cell++ {
			f := s.falloff(cell, c, src.Radius)
			t := in.At(cell)
			t[0] = topology.SanitizeScalar(t[0] + float32(col.R*f))
			t[1] = topology.SanitizeScalar(t[1] + float32(col.G*f))
			t[2] = topology.SanitizeScalar(t[2] + float32(col.B*f))
			out.Set(cell, t)
		}
	})
	s.density.Swap()
}

func (s *Solver) injectVelocity(src VelocitySource) {
	a := s.adapter
	c := a.Forward(src.Pos)
	in, out := s.velocity.Read(), s.velocity.Write()

	s.exec.Run(in.Len(), func(lo, hi int) {
		for cell := lo; cell < hi; cell++ {
			p := a.Center(cell)
			f := s.falloff(cell, c, src.Radius)
			dv := topology.Tangent(a, r3.Scale(f, src.Delta), p)
			v := r3.Add(topology.Vec(in.At(cell)), dv)
			out.Set(cell, topology.Texel(topology.Sanitize(v)))
		}
	})
	s.velocity.Swap()
}

func (s *Solver) injectTemperature(src TemperatureSource) {
	c := s.adapter.Forward(src.Pos)
	in, out := s.temperature.Read(), s.temperature.Write()

	s.exec.Run(in.Len(), func(lo, hi int) {
		for cell := lo; cell < hi; cell++ {
			f := s.falloff(cell, c, src.Radius)
			t := in.At(cell)
			t[0] = topology.SanitizeScalar(t[0] + float32(src.Delta*f))
			out.Set(cell, t)
		}
	})
	s.temperature.Swap()
}
