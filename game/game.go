package game

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/smoke/camera"
	"github.com/pthm-cable/smoke/config"
	"github.com/pthm-cable/smoke/kernel"
	"github.com/pthm-cable/smoke/renderer"
	"github.com/pthm-cable/smoke/solver"
	"github.com/pthm-cable/smoke/stream"
	"github.com/pthm-cable/smoke/systems"
	"github.com/pthm-cable/smoke/telemetry"
	"github.com/pthm-cable/smoke/topology"
	"github.com/pthm-cable/smoke/ui"
)

// Title is the window title.
const Title = "Smoke"

// Game hosts one solver: it feeds it sources from scripted emitters, the
// pointer and stream clients, steps it, and renders or streams the result.
type Game struct {
	cfg  *config.Config
	opts Options

	solver  *solver.Solver
	exec    kernel.Executor
	relaxer kernel.Relaxer

	// Source producers
	world    *ecs.World
	emitters *systems.EmitterSystem
	drift    *systems.ColorDrift
	pointer  *systems.PointerInjector
	registry *systems.SystemRegistry

	// Telemetry
	perfCollector *telemetry.PerfCollector
	hostPerf      *PerfStats
	collector     *telemetry.Collector
	meter         telemetry.Meter
	outputManager *telemetry.OutputManager
	lastWindow    telemetry.WindowStats
	statsCallback func(telemetry.WindowStats)
	emitterWarned bool

	// Stream (nil when disabled)
	stream          *stream.Server
	streamColorizer *renderer.Colorizer
	streamField     solver.FieldKind
	streamMode      renderer.Mode
	streamInterval  time.Duration
	lastPublish     time.Time
	cancel          context.CancelFunc

	// Rendering (nil in headless mode)
	colorizer     *renderer.Colorizer
	texture       *renderer.FieldTexture
	camera        *camera.Camera
	overlays      *ui.OverlayRegistry
	hud           *ui.HUD
	perfPanel     *ui.PerfPanel
	controlsPanel *ui.ControlsPanel
	inspector     *ui.Inspector
	controls      ui.ControlState
	probe         ui.ProbeData
	view          ui.OverlayID
	viewRange     float64

	// State
	simTime        float64
	paused         bool
	stepsPerUpdate int

	// Window dimensions
	screenWidth, screenHeight float32
}

// NewGameWithOptions builds the solver and its hosts from opts.Config, or
// config.Cfg() when unset.
func NewGameWithOptions(opts Options) (*Game, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Cfg()
	}

	adapter, err := topology.New(cfg.TopologySpec())
	if err != nil {
		return nil, fmt.Errorf("building domain: %w", err)
	}
	exec, err := kernel.NewExecutor(cfg.Backend.Executor, cfg.Backend.Workers, cfg.Backend.ParallelThreshold)
	if err != nil {
		return nil, err
	}

	if opts.StepsPerUpdate < 1 {
		opts.StepsPerUpdate = 1
	}
	statsWindow := opts.StatsWindowSec
	if statsWindow <= 0 {
		statsWindow = cfg.Telemetry.StatsWindow
	}

	world := ecs.NewWorld()
	g := &Game{
		cfg:            cfg,
		opts:           opts,
		exec:           exec,
		relaxer:        newRelaxer(cfg.Backend.Relaxer, exec),
		world:          world,
		emitters:       systems.NewEmitterSystem(world),
		registry:       systems.NewSystemRegistry(),
		perfCollector:  telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
		hostPerf:       NewPerfStats(cfg.Telemetry.PerfWindow),
		stepsPerUpdate: opts.StepsPerUpdate,
		screenWidth:    cfg.Derived.ScreenW32,
		screenHeight:   cfg.Derived.ScreenH32,
		statsCallback:  opts.StatsCallback,
	}

	g.solver = solver.New(adapter,
		solver.WithParams(solver.ParamsFromConfig(cfg)),
		solver.WithExecutor(exec),
		solver.WithRelaxer(g.relaxer),
		solver.WithPerf(g.perfCollector),
	)
	g.collector = telemetry.NewCollector(statsWindow, g.solver.DT())

	if err := g.emitters.LoadConfig(cfg.Scenario.Emitters, cfg.Derived.Radius, cfg.Derived.RadiusScale); err != nil {
		g.Unload()
		return nil, fmt.Errorf("loading scenario: %w", err)
	}

	c := cfg.Injection.Color
	g.drift = systems.NewColorDrift(colorful.Color{R: c[0], G: c[1], B: c[2]}, cfg.Injection.ColorDrift, opts.Seed)
	g.pointer = systems.NewPointerInjector(adapter, cfg.Derived.Radius, cfg.Injection.VelocityScale, cfg.Injection.Temperature, g.drift)

	if opts.RestorePath != "" {
		if err := g.restoreSnapshot(opts.RestorePath); err != nil {
			g.Unload()
			return nil, err
		}
	}

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		g.Unload()
		return nil, err
	}
	g.outputManager = om
	if err := om.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config", "error", err)
	}

	if cfg.Stream.Addr != "" {
		if err := g.startStream(cfg); err != nil {
			g.Unload()
			return nil, fmt.Errorf("starting stream: %w", err)
		}
	}

	if !opts.Headless {
		g.initRendering()
	}

	g.logStartup()
	return g, nil
}

// newRelaxer picks the pressure relaxer, falling back to the CPU when OpenCL
// is unavailable.
func newRelaxer(name string, exec kernel.Executor) kernel.Relaxer {
	if name == "opencl" {
		r, err := kernel.NewOpenCLRelaxer()
		if err == nil {
			return r
		}
		slog.Warn("opencl unavailable, using cpu relaxer", "error", err)
	}
	return kernel.NewCPURelaxer(exec)
}

// initRendering creates the window-side state. Requires an open raylib window.
func (g *Game) initRendering() {
	g.overlays = ui.NewOverlayRegistry()
	g.hud = ui.NewHUD()
	g.perfPanel = ui.NewPerfPanel(int32(g.screenWidth)-230, 10)
	g.controlsPanel = ui.NewControlsPanel(10, 100, 220)
	g.inspector = ui.NewInspector(int32(g.screenWidth)-250, int32(g.screenHeight)-260, 240)
	g.view = g.overlays.ActiveView().ID
	g.rebuildView()
	g.syncControls()
}

// rebuildView recreates everything sized by the adapter.
func (g *Game) rebuildView() {
	adapter := g.solver.Adapter()
	g.colorizer = renderer.NewColorizer(adapter, g.exec)
	if g.texture != nil {
		g.texture.Unload()
	}
	kind := adapter.Kind()
	g.texture = renderer.NewFieldTexture(kind != topology.PlanarClamped)
	w, h := g.colorizer.Size()
	g.camera = camera.ForDomain(kind, g.screenWidth, g.screenHeight, w, h)
	g.viewRange = 0
}

// syncControls copies solver parameters into the control panel state.
func (g *Game) syncControls() {
	p := g.solver.Params()
	kind := g.solver.Adapter().Kind()
	g.controls = ui.ControlState{
		Dissipation:       float32(p.Dissipation),
		VorticityWeight:   float32(p.VorticityWeight),
		BuoyancyDirection: float32(p.Buoyancy.Direction),
		Buoyancy:          p.Buoyancy.Enabled,
		Wrap:              kind == topology.PlanarWrapped,
		CanBuoyancy:       p.Temperature,
		CanWrap:           !kind.Curved(),
	}
}

// Update handles input and advances the simulation (windowed mode).
func (g *Game) Update() {
	g.handleInput()
	if g.paused {
		return
	}
	for range g.stepsPerUpdate {
		g.simulationStep()
	}
}

// UpdateHeadless advances the simulation without input or rendering.
func (g *Game) UpdateHeadless() {
	for range g.stepsPerUpdate {
		g.simulationStep()
	}
}

// simulationStep runs one solver step with its host systems.
func (g *Game) simulationStep() {
	t := g.simTime

	if g.stream != nil {
		g.hostPerf.Time("stream", g.drainCommands)
	}
	g.hostPerf.Time("emitters", func() { g.updateEmitters(t) })

	d, v, tmp := g.solver.Sources()
	g.collector.RecordSources(d != nil, v != nil, tmp != nil)

	g.solver.Step(t)
	g.simTime += g.solver.DT()

	g.flushTelemetry()
	g.publishStream()
}

func (g *Game) updateEmitters(t float64) {
	n, err := g.emitters.Update(g.solver, t)
	for range n {
		g.collector.RecordCommand()
	}
	if err != nil && !g.emitterWarned {
		slog.Warn("emitter rejected", "error", err, "domain", g.solver.Adapter().Kind())
		g.emitterWarned = true
	}
	g.emitters.Prune(t)
}

// setWrap rebuilds a planar solver with the other boundary mode.
func (g *Game) setWrap(wrap bool) {
	if err := g.solver.SetWrapMode(wrap); err != nil {
		slog.Warn("wrap mode unchanged", "error", err)
		return
	}
	adapter := g.solver.Adapter()
	g.cfg.SetKind(adapter.Kind())
	g.pointer.SetAdapter(adapter)
	g.emitters.Reset()
	if g.streamColorizer != nil {
		g.streamColorizer = renderer.NewColorizer(adapter, g.exec)
	}
	if g.colorizer != nil {
		g.rebuildView()
	}
	slog.Info("domain rebuilt", "domain", adapter.Kind())
}

// clearSources removes every latched source.
func (g *Game) clearSources() {
	g.solver.RemoveExternalDensity()
	g.solver.RemoveExternalVelocity()
	g.solver.RemoveExternalTemperature()
	g.emitters.Reset()
}

// Frame returns the number of completed solver steps.
func (g *Game) Frame() int {
	return g.solver.Frame()
}

// PerfStats returns the rolling solver step timings.
func (g *Game) PerfStats() telemetry.PerfStats {
	return g.perfCollector.Stats()
}

// SimTime returns the simulation time.
func (g *Game) SimTime() float64 {
	return g.simTime
}

// Unload releases resources.
func (g *Game) Unload() {
	if g.cancel != nil {
		g.cancel()
	}
	if g.stream != nil {
		if err := g.stream.Close(); err != nil {
			slog.Warn("stream shutdown", "error", err)
		}
	}
	if g.texture != nil {
		g.texture.Unload()
	}
	if g.outputManager != nil {
		if err := g.outputManager.Close(); err != nil {
			slog.Error("closing output", "error", err)
		}
	}
	if g.solver != nil {
		g.solver.Close()
	} else if g.relaxer != nil {
		g.relaxer.Close()
	}
	g.exec.Close()
}
