// Package config provides configuration loading and access for the solver and
// its hosts.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/smoke/topology"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Domain    DomainConfig    `yaml:"domain"`
	Solver    SolverConfig    `yaml:"solver"`
	Backend   BackendConfig   `yaml:"backend"`
	Injection InjectionConfig `yaml:"injection"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Stream    StreamConfig    `yaml:"stream"`
	Scenario  ScenarioConfig  `yaml:"scenario"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// DomainConfig selects the topology and its grid.
type DomainConfig struct {
	Kind   string       `yaml:"kind"` // planar, sphere, torus
	Planar PlanarDomain `yaml:"planar"`
	Sphere SphereDomain `yaml:"sphere"`
	Torus  TorusDomain  `yaml:"torus"`
}

// PlanarDomain is the flat grid.
type PlanarDomain struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Wrap   string `yaml:"wrap"` // clamp or wrap
}

// SphereDomain is the cube-mapped unit sphere.
type SphereDomain struct {
	CubeSize int `yaml:"cube_size"` // texels per face edge
}

// TorusDomain is the parametric torus grid.
type TorusDomain struct {
	Width       int     `yaml:"width"`  // texels around the major circle
	Height      int     `yaml:"height"` // texels around the tube
	MajorRadius float64 `yaml:"major_radius"`
	MinorRadius float64 `yaml:"minor_radius"`
}

// SolverConfig holds the numerical constants. Shared values apply to every
// domain; per-domain blocks carry the tuned step and relaxation settings.
type SolverConfig struct {
	Dissipation        float64        `yaml:"dissipation"`         // density/temperature decay per step
	ConfinementEpsilon float64        `yaml:"confinement_epsilon"` // |η| below this skips confinement
	Buoyancy           BuoyancyConfig `yaml:"buoyancy"`
	Planar             DomainSolver   `yaml:"planar"`
	Sphere             DomainSolver   `yaml:"sphere"`
	Torus              DomainSolver   `yaml:"torus"`
}

// BuoyancyConfig holds the thermal lift parameters.
type BuoyancyConfig struct {
	Direction float64 `yaml:"direction"` // radians; π/2 is +y
	Sigma     float64 `yaml:"sigma"`     // lift per unit temperature
	Kappa     float64 `yaml:"kappa"`     // sink per unit density
	Ambient   float64 `yaml:"ambient"`
}

// DomainSolver holds the per-domain step settings.
type DomainSolver struct {
	DT               float64 `yaml:"dt"`
	DX               float64 `yaml:"dx"` // 0 = domain default spacing
	VorticityWeight  float64 `yaml:"vorticity_weight"`
	JacobiIterations int     `yaml:"jacobi_iterations"`
	JacobiBeta       float64 `yaml:"jacobi_beta"` // 0 = 2·axes
	Temperature      bool    `yaml:"temperature"`
	Buoyancy         bool    `yaml:"buoyancy"`
}

// BackendConfig selects where passes run.
type BackendConfig struct {
	Executor          string `yaml:"executor"` // serial or pool
	Relaxer           string `yaml:"relaxer"`  // cpu or opencl
	Workers           int    `yaml:"workers"`  // 0 = GOMAXPROCS
	ParallelThreshold int    `yaml:"parallel_threshold"`
}

// InjectionConfig holds pointer and emitter injection settings.
type InjectionConfig struct {
	Radius        float64     `yaml:"radius"` // Gaussian radius before domain scaling
	RadiusScale   RadiusScale `yaml:"radius_scale"`
	VelocityScale float64     `yaml:"velocity_scale"` // pointer delta to velocity
	Temperature   float64     `yaml:"temperature"`    // ΔT applied with pointer density
	Color         [3]float64  `yaml:"color"`          // initial smoke color
	ColorDrift    float64     `yaml:"color_drift"`    // random-walk step per frame, 0 = fixed color
}

// RadiusScale multiplies the injection radius per domain.
type RadiusScale struct {
	Planar float64 `yaml:"planar"`
	Sphere float64 `yaml:"sphere"`
	Torus  float64 `yaml:"torus"`
}

// TelemetryConfig holds stats and output settings.
type TelemetryConfig struct {
	StatsWindow float64 `yaml:"stats_window"` // simulation time per stats window
	OutputDir   string  `yaml:"output_dir"`   // empty = no CSV output
	PerfWindow  int     `yaml:"perf_window"`  // steps in the rolling perf window
}

// StreamConfig holds the websocket server settings.
type StreamConfig struct {
	Addr            string `yaml:"addr"` // empty = disabled
	FrameIntervalMS int    `yaml:"frame_interval_ms"`
	Channel         string `yaml:"channel"` // density, temperature, pressure, vorticity
}

// ScenarioConfig lists scripted emitters.
type ScenarioConfig struct {
	Emitters []EmitterConfig `yaml:"emitters"`
}

// EmitterConfig is one scripted source. Start and Duration are in simulation
// time; a zero duration keeps the emitter active forever.
type EmitterConfig struct {
	Kind        string     `yaml:"kind"` // density, velocity, temperature
	Start       float64    `yaml:"start"`
	Duration    float64    `yaml:"duration"`
	U           float64    `yaml:"u"`
	V           float64    `yaml:"v"`
	Radius      float64    `yaml:"radius"`
	Color       [3]float64 `yaml:"color"`
	Velocity    [3]float64 `yaml:"velocity"`
	Temperature float64    `yaml:"temperature"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	Kind        topology.Kind // resolved domain kind
	Solver      DomainSolver  // per-domain block for Kind
	Radius      float64       // Injection.Radius scaled for Kind
	RadiusScale float64       // scale applied to Radius, 1 when unset
	DT32        float32
	ScreenW32   float32
	ScreenH32   float32
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only overwrites fields present in the file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()
	return cfg, nil
}

// Validate rejects settings the solver cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if _, err := topology.ParseKind(c.Domain.Kind, c.Domain.Planar.Wrap); err != nil {
		errs = append(errs, err)
	}
	if c.Solver.Dissipation <= 0 || c.Solver.Dissipation > 1 {
		errs = append(errs, fmt.Errorf("solver.dissipation %v outside (0,1]", c.Solver.Dissipation))
	}
	for name, ds := range map[string]DomainSolver{
		"planar": c.Solver.Planar, "sphere": c.Solver.Sphere, "torus": c.Solver.Torus,
	} {
		if ds.DT <= 0 {
			errs = append(errs, fmt.Errorf("solver.%s.dt must be positive", name))
		}
		if ds.JacobiIterations < 0 {
			errs = append(errs, fmt.Errorf("solver.%s.jacobi_iterations must be non-negative", name))
		}
		if ds.Buoyancy && !ds.Temperature {
			errs = append(errs, fmt.Errorf("solver.%s: buoyancy requires temperature", name))
		}
	}
	switch c.Backend.Executor {
	case "", "serial", "pool":
	default:
		errs = append(errs, fmt.Errorf("backend.executor %q: want serial or pool", c.Backend.Executor))
	}
	switch c.Backend.Relaxer {
	case "", "cpu", "opencl":
	default:
		errs = append(errs, fmt.Errorf("backend.relaxer %q: want cpu or opencl", c.Backend.Relaxer))
	}
	for i, e := range c.Scenario.Emitters {
		switch e.Kind {
		case "density", "velocity", "temperature":
		default:
			errs = append(errs, fmt.Errorf("scenario.emitters[%d]: unknown kind %q", i, e.Kind))
		}
	}
	return errors.Join(errs...)
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	kind, _ := topology.ParseKind(c.Domain.Kind, c.Domain.Planar.Wrap)
	c.Derived.Kind = kind

	var scale float64
	switch kind {
	case topology.Spherical:
		c.Derived.Solver = c.Solver.Sphere
		scale = c.Injection.RadiusScale.Sphere
	case topology.ParametricTorus:
		c.Derived.Solver = c.Solver.Torus
		scale = c.Injection.RadiusScale.Torus
	default:
		c.Derived.Solver = c.Solver.Planar
		scale = c.Injection.RadiusScale.Planar
	}
	if scale <= 0 {
		scale = 1
	}
	c.Derived.RadiusScale = scale
	c.Derived.Radius = c.Injection.Radius * scale

	c.Derived.DT32 = float32(c.Derived.Solver.DT)
	c.Derived.ScreenW32 = float32(c.Screen.Width)
	c.Derived.ScreenH32 = float32(c.Screen.Height)
}

// SetKind switches the active domain and recomputes derived values.
func (c *Config) SetKind(kind topology.Kind) {
	switch kind {
	case topology.Spherical:
		c.Domain.Kind = "sphere"
	case topology.ParametricTorus:
		c.Domain.Kind = "torus"
	case topology.PlanarClamped:
		c.Domain.Kind, c.Domain.Planar.Wrap = "planar", "clamp"
	default:
		c.Domain.Kind, c.Domain.Planar.Wrap = "planar", "wrap"
	}
	c.computeDerived()
}

// TopologySpec returns the adapter description for the active domain.
func (c *Config) TopologySpec() topology.Spec {
	spec := topology.Spec{Kind: c.Derived.Kind, Spacing: c.Derived.Solver.DX}
	switch c.Derived.Kind {
	case topology.Spherical:
		spec.CubeSize = c.Domain.Sphere.CubeSize
	case topology.ParametricTorus:
		spec.Width = c.Domain.Torus.Width
		spec.Height = c.Domain.Torus.Height
		spec.Major = c.Domain.Torus.MajorRadius
		spec.Minor = c.Domain.Torus.MinorRadius
	default:
		spec.Width = c.Domain.Planar.Width
		spec.Height = c.Domain.Planar.Height
	}
	return spec
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
