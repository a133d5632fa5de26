// Package solver implements a stable-fluids smoke solver generic over the
// topology adapters: semi-Lagrangian advection, buoyancy, point sources,
// vorticity confinement and Jacobi pressure projection.
package solver

import (
	"errors"
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/smoke/field"
	"github.com/pthm-cable/smoke/kernel"
	"github.com/pthm-cable/smoke/telemetry"
	"github.com/pthm-cable/smoke/topology"
)

// ErrNoTemperature is returned by temperature calls on solvers built without
// a temperature field.
var ErrNoTemperature = errors.New("solver: temperature field disabled")

// FieldKind names one of the solver's buffers.
type FieldKind uint8

const (
	Velocity FieldKind = iota
	Density
	Temperature
	Pressure
	Divergence
	Vorticity
)

func (k FieldKind) String() string {
	switch k {
	case Velocity:
		return "velocity"
	case Density:
		return "density"
	case Temperature:
		return "temperature"
	case Pressure:
		return "pressure"
	case Divergence:
		return "divergence"
	case Vorticity:
		return "vorticity"
	default:
		return fmt.Sprintf("field(%d)", uint8(k))
	}
}

// ParseFieldKind resolves a field name as printed by String.
func ParseFieldKind(name string) (FieldKind, error) {
	for k := Velocity; k <= Vorticity; k++ {
		if k.String() == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown field %q", name)
}

// DensitySource injects color.
type DensitySource struct {
	Pos    topology.Coord
	Color  colorful.Color
	Radius float64
}

// VelocitySource injects a velocity delta.
type VelocitySource struct {
	Pos    topology.Coord
	Delta  r3.Vec
	Radius float64
}

// TemperatureSource injects a temperature delta.
type TemperatureSource struct {
	Pos    topology.Coord
	Delta  float64
	Radius float64
}

// Solver owns all field buffers for one domain and runs the per-frame
// pipeline. It is not safe for concurrent use.
type Solver struct {
	adapter  topology.Adapter
	params   Params
	exec     kernel.Executor
	ownsExec bool
	relaxer  kernel.Relaxer
	perf     *telemetry.PerfCollector

	stencil     *kernel.Stencil
	velocity    *field.Buffer
	density     *field.Buffer
	temperature *field.Buffer
	pressure    *field.Buffer
	divergence  *field.Buffer
	vorticity   *field.Buffer

	// single-slot latches; nil when inactive
	densitySrc     *DensitySource
	velocitySrc    *VelocitySource
	temperatureSrc *TemperatureSource

	frame int
	time  float64
}

// New builds a solver over adapter. Without options it uses the domain
// defaults, a worker pool and the CPU relaxer.
func New(adapter topology.Adapter, opts ...Option) *Solver {
	s := &Solver{
		adapter:  adapter,
		params:   DefaultParams(adapter.Kind()),
		exec:     kernel.NewPool(0, 0),
		ownsExec: true,
	}
	owned := s.exec
	for _, opt := range opts {
		opt(s)
	}
	if !s.ownsExec {
		owned.Close()
	}
	if s.relaxer == nil {
		s.relaxer = kernel.NewCPURelaxer(s.exec)
	}
	s.params = s.params.withDefaults(adapter)
	s.allocate()
	return s
}

// allocate (re)creates every buffer and the stencil table for the adapter.
func (s *Solver) allocate() {
	shape := s.adapter.Shape()
	s.stencil = kernel.BuildStencil(s.adapter, s.exec)
	s.velocity = field.NewBuffer(shape)
	s.density = field.NewBuffer(shape)
	s.pressure = field.NewBuffer(shape)
	s.divergence = field.NewBuffer(shape)
	s.vorticity = field.NewBuffer(shape)
	s.temperature = nil
	if s.params.Temperature {
		s.temperature = field.NewBuffer(shape)
	}
}

// Close releases the relaxer and any executor the solver created.
func (s *Solver) Close() {
	s.relaxer.Close()
	if s.ownsExec {
		s.exec.Close()
	}
}

// Adapter returns the active topology.
func (s *Solver) Adapter() topology.Adapter { return s.adapter }

// Params returns the current parameters.
func (s *Solver) Params() Params { return s.params }

// DT returns the fixed time step.
func (s *Solver) DT() float64 { return s.params.DT }

// DX returns the grid spacing of the adapter.
func (s *Solver) DX() float64 { return s.adapter.Spacing() }

// Frame returns the number of completed steps.
func (s *Solver) Frame() int { return s.frame }

// Time returns the host time passed to the last Step.
func (s *Solver) Time() float64 { return s.time }

// Backend names the executor and relaxer in use.
func (s *Solver) Backend() string { return s.exec.Name() + "+" + s.relaxer.Name() }

// Field returns the read side of a buffer, or nil for a disabled field.
// Callers must not modify it.
func (s *Solver) Field(kind FieldKind) *field.Grid {
	var b *field.Buffer
	switch kind {
	case Velocity:
		b = s.velocity
	case Density:
		b = s.density
	case Temperature:
		b = s.temperature
	case Pressure:
		b = s.pressure
	case Divergence:
		b = s.divergence
	case Vorticity:
		b = s.vorticity
	}
	if b == nil {
		return nil
	}
	return b.Read()
}

// SetDissipation sets the density/temperature decay factor, clamped to (0,1].
func (s *Solver) SetDissipation(d float64) {
	if d <= 0 || d > 1 {
		d = 1
	}
	s.params.Dissipation = d
}

// SetVorticityWeight sets the confinement weight; negative values disable it.
func (s *Solver) SetVorticityWeight(w float64) {
	s.params.VorticityWeight = max(w, 0)
}

// SetBuoyancy toggles buoyancy and sets its direction in radians.
func (s *Solver) SetBuoyancy(enabled bool, direction float64) {
	s.params.Buoyancy.Enabled = enabled
	s.params.Buoyancy.Direction = direction
}

// SetAdapter switches topology, reallocating every buffer. Field contents and
// active sources are discarded. Parameters carry over between planar wrap
// modes and between adapters of the same kind; any other switch resets them
// to the new domain's defaults.
func (s *Solver) SetAdapter(a topology.Adapter) {
	if !sameFamily(s.adapter.Kind(), a.Kind()) {
		s.params = DefaultParams(a.Kind())
	}
	s.adapter = a
	s.params = s.params.withDefaults(a)
	s.densitySrc, s.velocitySrc, s.temperatureSrc = nil, nil, nil
	s.allocate()
}

func sameFamily(a, b topology.Kind) bool {
	return a == b || (!a.Curved() && !b.Curved())
}

// SetWrapMode rebuilds a planar solver as clamped or wrapped.
func (s *Solver) SetWrapMode(wrap bool) error {
	p, ok := s.adapter.(*topology.Planar)
	if !ok {
		return fmt.Errorf("wrap mode requires a planar domain, have %v", s.adapter.Kind())
	}
	if p.Wrapped() == wrap {
		return nil
	}
	shape := p.Shape()
	s.SetAdapter(topology.NewPlanar(shape.Width, shape.Height, wrap, p.Spacing()))
	return nil
}

// AddExternalDensity latches a density source, replacing any previous one.
func (s *Solver) AddExternalDensity(pos topology.Coord, color colorful.Color, radius float64) {
	s.densitySrc = &DensitySource{Pos: pos, Color: color, Radius: radius}
}

// RemoveExternalDensity clears the density source.
func (s *Solver) RemoveExternalDensity() { s.densitySrc = nil }

// AddExternalVelocity latches a velocity source, replacing any previous one.
func (s *Solver) AddExternalVelocity(pos topology.Coord, delta r3.Vec, radius float64) {
	s.velocitySrc = &VelocitySource{Pos: pos, Delta: delta, Radius: radius}
}

// RemoveExternalVelocity clears the velocity source.
func (s *Solver) RemoveExternalVelocity() { s.velocitySrc = nil }

// AddExternalTemperature latches a temperature source.
func (s *Solver) AddExternalTemperature(pos topology.Coord, delta, radius float64) error {
	if s.temperature == nil {
		return ErrNoTemperature
	}
	s.temperatureSrc = &TemperatureSource{Pos: pos, Delta: delta, Radius: radius}
	return nil
}

// RemoveExternalTemperature clears the temperature source.
func (s *Solver) RemoveExternalTemperature() { s.temperatureSrc = nil }

// Sources reports the active latches; nil entries are inactive.
func (s *Solver) Sources() (*DensitySource, *VelocitySource, *TemperatureSource) {
	return s.densitySrc, s.velocitySrc, s.temperatureSrc
}

// Step advances one frame by the fixed DT. time is recorded for the caller's
// bookkeeping only.
func (s *Solver) Step(time float64) {
	s.time = time
	s.startTick()

	s.startPhase(telemetry.PhaseAdvect)
	s.advectVelocity()
	s.advect(s.density, s.params.Dissipation)
	if s.temperature != nil {
		s.advect(s.temperature, s.params.Dissipation)
	}

	if s.params.Buoyancy.Enabled {
		s.startPhase(telemetry.PhaseBuoyancy)
		s.applyBuoyancy()
	}

	if s.densitySrc != nil || s.velocitySrc != nil || s.temperatureSrc != nil {
		s.startPhase(telemetry.PhaseInject)
		s.inject()
	}

	s.startPhase(telemetry.PhaseVorticity)
	s.computeCurl()
	if s.params.VorticityWeight > 0 {
		s.confine()
	}

	s.startPhase(telemetry.PhaseDivergence)
	s.computeDivergence()

	s.startPhase(telemetry.PhasePressure)
	s.pressure.Clear()
	s.relax()

	s.startPhase(telemetry.PhaseProject)
	s.subtractGradient()

	s.endTick()
	s.frame++
}

func (s *Solver) startTick() {
	if s.perf != nil {
		s.perf.StartTick()
	}
}

func (s *Solver) startPhase(phase string) {
	if s.perf != nil {
		s.perf.StartPhase(phase)
	}
}

func (s *Solver) endTick() {
	if s.perf != nil {
		s.perf.EndTick()
	}
}
