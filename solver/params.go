package solver

import (
	"math"

	"github.com/pthm-cable/smoke/config"
	"github.com/pthm-cable/smoke/kernel"
	"github.com/pthm-cable/smoke/telemetry"
	"github.com/pthm-cable/smoke/topology"
)

// Buoyancy couples temperature and density back into velocity.
type Buoyancy struct {
	Enabled   bool
	Direction float64 // radians in the xy plane
	Sigma     float64 // temperature lift
	Kappa     float64 // density weight
	Ambient   float64 // ambient temperature
}

// Params are the per-solver numerical constants. Zero JacobiBeta selects
// 2·Axes of the adapter.
type Params struct {
	DT                 float64
	Dissipation        float64
	VorticityWeight    float64
	ConfinementEpsilon float64
	JacobiIterations   int
	JacobiBeta         float64
	Temperature        bool
	Buoyancy           Buoyancy
}

// DefaultParams returns the tuned constants for a domain.
func DefaultParams(kind topology.Kind) Params {
	p := Params{
		DT:                 1,
		Dissipation:        0.99,
		ConfinementEpsilon: 1e-5,
		JacobiIterations:   20,
		JacobiBeta:         4,
		Temperature:        true,
		Buoyancy: Buoyancy{
			Enabled:   true,
			Direction: math.Pi / 2,
			Sigma:     0.08,
			Kappa:     0.001,
		},
	}
	switch kind {
	case topology.Spherical:
		p.DT = 1.0 / 20
		p.JacobiIterations = 30
		p.JacobiBeta = 6
		p.Temperature = false
		p.Buoyancy.Enabled = false
	case topology.ParametricTorus:
		p.DT = 0.1
		p.VorticityWeight = 0.2
		p.JacobiIterations = 30
		p.JacobiBeta = 6
		p.Temperature = false
		p.Buoyancy.Enabled = false
	}
	return p
}

func (p Params) withDefaults(a topology.Adapter) Params {
	if p.JacobiBeta <= 0 {
		p.JacobiBeta = float64(2 * a.Axes())
	}
	if p.Dissipation <= 0 || p.Dissipation > 1 {
		p.Dissipation = 1
	}
	if p.VorticityWeight < 0 {
		p.VorticityWeight = 0
	}
	if p.ConfinementEpsilon <= 0 {
		p.ConfinementEpsilon = 1e-5
	}
	return p
}

// Option configures a Solver at construction.
type Option func(*Solver)

// WithParams replaces the domain defaults.
func WithParams(p Params) Option {
	return func(s *Solver) { s.params = p }
}

// WithExecutor runs passes on exec. The caller keeps ownership.
func WithExecutor(exec kernel.Executor) Option {
	return func(s *Solver) {
		s.exec = exec
		s.ownsExec = false
	}
}

// WithRelaxer replaces the CPU Jacobi relaxer. The solver takes ownership
// and closes it.
func WithRelaxer(r kernel.Relaxer) Option {
	return func(s *Solver) { s.relaxer = r }
}

// WithPerf records per-phase timings of every Step.
func WithPerf(pc *telemetry.PerfCollector) Option {
	return func(s *Solver) { s.perf = pc }
}

// ParamsFromConfig resolves the parameters for the configured domain.
func ParamsFromConfig(cfg *config.Config) Params {
	ds := cfg.Derived.Solver
	b := cfg.Solver.Buoyancy
	return Params{
		DT:                 ds.DT,
		Dissipation:        cfg.Solver.Dissipation,
		VorticityWeight:    ds.VorticityWeight,
		ConfinementEpsilon: cfg.Solver.ConfinementEpsilon,
		JacobiIterations:   ds.JacobiIterations,
		JacobiBeta:         ds.JacobiBeta,
		Temperature:        ds.Temperature,
		Buoyancy: Buoyancy{
			Enabled:   ds.Buoyancy && ds.Temperature,
			Direction: b.Direction,
			Sigma:     b.Sigma,
			Kappa:     b.Kappa,
			Ambient:   b.Ambient,
		},
	}
}
