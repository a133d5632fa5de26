// Package main provides CMA-ES tuning of solver parameters.
package main

import (
	"math"

	"github.com/pthm-cable/smoke/config"
	"github.com/pthm-cable/smoke/topology"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the tunable parameters for the active domain of cfg,
// defaulting to its current values.
func NewParamVector(cfg *config.Config) *ParamVector {
	block := domainBlock(cfg)
	pv := &ParamVector{
		Specs: []ParamSpec{
			{Name: "jacobi_iterations", Path: block + ".jacobi_iterations", Min: 4, Max: 120},
			{Name: "vorticity_weight", Path: block + ".vorticity_weight", Min: 0, Max: 2},
			{Name: "dissipation", Path: "solver.dissipation", Min: 0.95, Max: 1},
		},
	}
	defaults := pv.ExtractFromConfig(cfg)
	for i := range pv.Specs {
		pv.Specs[i].Default = defaults[i]
	}
	return pv
}

func domainBlock(cfg *config.Config) string {
	switch cfg.Derived.Kind {
	case topology.Spherical:
		return "solver.sphere"
	case topology.ParametricTorus:
		return "solver.torus"
	default:
		return "solver.planar"
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = math.Min(math.Max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig writes parameter values into the active domain's block and
// recomputes derived values. Order must match Specs.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)

	ds := activeSolver(cfg)
	ds.JacobiIterations = int(math.Round(clamped[0]))
	ds.VorticityWeight = clamped[1]
	cfg.Solver.Dissipation = clamped[2]

	cfg.SetKind(cfg.Derived.Kind)
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	ds := activeSolver(cfg)
	return []float64{
		float64(ds.JacobiIterations),
		ds.VorticityWeight,
		cfg.Solver.Dissipation,
	}
}

func activeSolver(cfg *config.Config) *config.DomainSolver {
	switch cfg.Derived.Kind {
	case topology.Spherical:
		return &cfg.Solver.Sphere
	case topology.ParametricTorus:
		return &cfg.Solver.Torus
	default:
		return &cfg.Solver.Planar
	}
}
