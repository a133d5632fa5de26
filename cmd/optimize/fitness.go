package main

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/smoke/config"
	"github.com/pthm-cable/smoke/game"
	"github.com/pthm-cable/smoke/telemetry"
	"github.com/pthm-cable/smoke/topology"
)

// Fitness weights. Divergence is per cell, step time in milliseconds.
const (
	weightDivergence = 100.0
	weightStepMs     = 0.05
	weightQuality    = 1.0

	qualityWeightDetail    = 0.6
	qualityWeightRetention = 0.4

	warmupWindows  = 1
	unstableSpeed  = 1e4
	penaltyFitness = 1e9
)

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params      *ParamVector
	steps       int
	baseConfig  *config.Config
	statsWindow float64

	// Best run tracking
	mu          sync.Mutex
	bestFitness float64
	lastResult  runResult // from most recent Evaluate call
}

// runResult holds the results from a single simulation run.
type runResult struct {
	windows    []telemetry.WindowStats // collected via StatsCallback each window
	stepMs     float64
	divergence float64
	quality    float64
	unstable   bool
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, steps int, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		steps:       steps,
		baseConfig:  baseCfg,
		statsWindow: float64(steps) * baseCfg.Derived.Solver.DT / 10, // ten windows per run
		bestFitness: math.Inf(1),
	}
}

// LastResult returns the scores from the most recent evaluation.
func (fe *FitnessEvaluator) LastResult() runResult {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastResult
}

// Evaluate computes fitness for a parameter vector (lower = better).
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	result := fe.runSimulation(x)
	fitness := fe.computeFitness(&result)

	fe.mu.Lock()
	if fitness < fe.bestFitness {
		fe.bestFitness = fitness
	}
	fe.lastResult = result
	fe.mu.Unlock()

	return fitness
}

// runSimulation executes a single headless run of the scenario.
func (fe *FitnessEvaluator) runSimulation(x []float64) runResult {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)
	if len(cfg.Scenario.Emitters) == 0 {
		cfg.Scenario.Emitters = defaultPlume(cfg.Derived.Kind)
	}

	var result runResult
	g, err := game.NewGameWithOptions(game.Options{
		Headless:       true,
		StatsWindowSec: fe.statsWindow,
		StepsPerUpdate: 1,
		Config:         cfg,
		StatsCallback: func(stats telemetry.WindowStats) {
			result.windows = append(result.windows, stats)
		},
	})
	if err != nil {
		result.unstable = true
		return result
	}
	defer g.Unload()

	for g.Frame() < fe.steps {
		g.UpdateHeadless()
	}
	result.stepMs = float64(g.PerfStats().AvgStepDuration.Microseconds()) / 1000
	fe.score(&result, cfg)
	return result
}

// copyConfig creates a deep copy of the base config.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	cfg.Scenario.Emitters = append([]config.EmitterConfig(nil), fe.baseConfig.Scenario.Emitters...)
	cfg.Stream.Addr = ""
	return &cfg
}

// defaultPlume is a rising smoke column used when the config has no
// scenario.
func defaultPlume(kind topology.Kind) []config.EmitterConfig {
	speed := 2.0
	if kind == topology.Spherical {
		speed = 0.5
	}
	return []config.EmitterConfig{
		{Kind: "density", U: 0.5, V: 0.2, Color: [3]float64{1, 1, 1}},
		{Kind: "velocity", U: 0.5, V: 0.2, Velocity: [3]float64{0, speed, 0}},
	}
}

// score fills the divergence and quality terms from the collected windows.
func (fe *FitnessEvaluator) score(r *runResult, cfg *config.Config) {
	if len(r.windows) <= warmupWindows {
		return
	}
	valid := r.windows[warmupWindows:]
	cells := float64(gridCells(cfg.TopologySpec()))

	divergence := make([]float64, 0, len(valid))
	detail := make([]float64, 0, len(valid))
	density := make([]float64, 0, len(valid))
	for _, w := range valid {
		if !finite(w.DivergenceL1) || !finite(w.TotalDensity) || w.MaxSpeed > unstableSpeed {
			r.unstable = true
			return
		}
		divergence = append(divergence, w.DivergenceL1/cells)
		if w.MaxSpeed > 0 {
			detail = append(detail, w.PeakVorticity/w.MaxSpeed)
		}
		density = append(density, w.TotalDensity)
	}

	r.divergence = stat.Mean(divergence, nil)

	// Detail: vorticity relative to speed, saturating.
	detailScore := 0.0
	if len(detail) > 0 {
		detailScore = 1 - math.Exp(-stat.Mean(detail, nil))
	}
	// Retention: steady density over the run rather than decay or blow-up.
	retentionScore := 0.0
	if mean := stat.Mean(density, nil); mean > 0 {
		cv := stat.StdDev(density, nil) / mean
		retentionScore = math.Exp(-cv * cv)
	}
	r.quality = clamp01(qualityWeightDetail*detailScore + qualityWeightRetention*retentionScore)
}

// computeFitness calculates the scalar fitness (lower = better).
// Formula: 100×divergence + 0.05×step_ms − quality
func (fe *FitnessEvaluator) computeFitness(r *runResult) float64 {
	if r.unstable {
		return penaltyFitness
	}
	return weightDivergence*r.divergence + weightStepMs*r.stepMs - weightQuality*r.quality
}

func gridCells(spec topology.Spec) int {
	if spec.Kind == topology.Spherical {
		return 6 * spec.CubeSize * spec.CubeSize
	}
	return spec.Width * spec.Height
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// clamp01 clamps x to [0, 1].
func clamp01(x float64) float64 {
	return math.Min(math.Max(x, 0), 1)
}
