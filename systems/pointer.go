package systems

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/smoke/topology"
)

// Pointer is one frame of pointer state in domain coordinates.
type Pointer struct {
	Pos      topology.Coord
	Inside   bool // false when the pointer is off the domain
	Density  bool // primary button held
	Velocity bool // secondary button held
}

// PointerInjector turns held pointer buttons into solver sources: the
// primary button paints drifting smoke (plus heat when configured), the
// secondary drags velocity along the pointer's motion.
type PointerInjector struct {
	adapter       topology.Adapter
	radius        float64
	velocityScale float64
	temperature   float64
	drift         *ColorDrift

	prev    topology.Coord
	hasPrev bool

	density, velocity, heat bool
	noHeat                  bool // sink rejected temperature once
}

// NewPointerInjector creates an injector. A nil drift paints white.
func NewPointerInjector(a topology.Adapter, radius, velocityScale, temperature float64, drift *ColorDrift) *PointerInjector {
	return &PointerInjector{
		adapter:       a,
		radius:        radius,
		velocityScale: velocityScale,
		temperature:   temperature,
		drift:         drift,
	}
}

// SetAdapter rebinds the injector after the domain changed.
func (pi *PointerInjector) SetAdapter(a topology.Adapter) {
	pi.adapter = a
	pi.hasPrev = false
	pi.noHeat = false
}

// Update applies one frame of pointer state. dt converts pointer motion to
// velocity. Returns the number of sink calls made.
func (pi *PointerInjector) Update(sink SourceSink, p Pointer, dt float64) int {
	calls := 0
	defer func() {
		if pi.drift != nil {
			pi.drift.Next()
		}
	}()

	if !p.Inside {
		calls += pi.release(sink, true, true)
		pi.hasPrev = false
		return calls
	}

	if p.Density {
		sink.AddExternalDensity(p.Pos, pi.color(), pi.radius)
		pi.density = true
		calls++
		if pi.temperature != 0 && !pi.noHeat {
			if err := sink.AddExternalTemperature(p.Pos, pi.temperature, pi.radius); err != nil {
				pi.noHeat = true
			} else {
				pi.heat = true
			}
			calls++
		}
	} else {
		calls += pi.release(sink, true, false)
	}

	if p.Velocity && pi.hasPrev {
		v := r3.Scale(pi.velocityScale, PointerVelocity(pi.adapter, pi.prev, p.Pos, dt))
		sink.AddExternalVelocity(p.Pos, v, pi.radius)
		pi.velocity = true
		calls++
	} else if !p.Velocity {
		calls += pi.release(sink, false, true)
	}

	pi.prev, pi.hasPrev = p.Pos, true
	return calls
}

// Active reports whether the injector holds any latch.
func (pi *PointerInjector) Active() bool {
	return pi.density || pi.velocity || pi.heat
}

func (pi *PointerInjector) color() colorful.Color {
	if pi.drift == nil {
		return colorful.Color{R: 1, G: 1, B: 1}
	}
	return pi.drift.Color()
}

func (pi *PointerInjector) release(sink SourceSink, density, velocity bool) int {
	calls := 0
	if density && pi.density {
		sink.RemoveExternalDensity()
		pi.density = false
		calls++
	}
	if density && pi.heat {
		sink.RemoveExternalTemperature()
		pi.heat = false
		calls++
	}
	if velocity && pi.velocity {
		sink.RemoveExternalVelocity()
		pi.velocity = false
		calls++
	}
	return calls
}

// PointerVelocity converts pointer motion between two coordinates into the
// adapter's velocity units: cells per time on planar grids, embedding units
// per time projected onto the tangent plane on curved domains.
func PointerVelocity(a topology.Adapter, from, to topology.Coord, dt float64) r3.Vec {
	if dt <= 0 {
		return r3.Vec{}
	}
	if a.Axes() == 2 {
		du, dv := to.U-from.U, to.V-from.V
		if a.Kind() == topology.PlanarWrapped {
			du, dv = foldUnit(du), foldUnit(dv)
		}
		shape := a.Shape()
		return r3.Vec{
			X: du * float64(shape.Width) / dt,
			Y: dv * float64(shape.Height) / dt,
		}
	}
	p, q := a.Forward(from), a.Forward(to)
	return topology.Tangent(a, r3.Scale(1/dt, r3.Sub(q, p)), q)
}

// foldUnit maps a delta on a unit period to the shorter way around.
func foldUnit(d float64) float64 {
	d = math.Mod(d, 1)
	switch {
	case d > 0.5:
		d--
	case d < -0.5:
		d++
	}
	return d
}
