package game

import (
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/smoke/solver"
	"github.com/pthm-cable/smoke/topology"
	"github.com/pthm-cable/smoke/ui"
)

const controlsHelp = "[1-6] view  [Space] pause  [</>] speed  [LMB] smoke  [RMB] push  [S] snapshot  [P] png  [C] clear  [W] wrap  [B] buoyancy  [Tab] controls  [I] probe  [F3] perf"

// Draw renders the active field view and panels.
func (g *Game) Draw() {
	g.perfCollector.RecordFrame()
	g.hostPerf.Time("render", g.renderField)

	rl.BeginDrawing()
	rl.ClearBackground(rl.Black)

	x, y, w, h := g.camera.SourceRect()
	g.texture.Draw(
		rl.Rectangle{X: x, Y: y, Width: w, Height: h},
		rl.Rectangle{Width: g.screenWidth, Height: g.screenHeight},
	)

	g.drawPanels()

	rl.EndDrawing()
}

// renderField colorizes the active view into the texture.
func (g *Game) renderField() {
	view := g.overlays.ActiveView()
	if view.ID != g.view {
		g.view = view.ID
		g.viewRange = 0
	}
	kind, err := solver.ParseFieldKind(view.Field)
	if err != nil {
		slog.Warn("unknown field view", "field", view.Field)
		return
	}
	grid := g.solver.Field(kind)
	g.viewRange = smoothRange(g.viewRange, peakRange(&g.meter, grid, view.Mode))
	g.colorizer.Range = g.viewRange

	pixels := g.colorizer.Render(grid, view.Mode)
	w, h := g.colorizer.Size()
	g.texture.Update(pixels, w, h)
}

func (g *Game) drawPanels() {
	view := g.overlays.ActiveView()

	if g.overlays.IsEnabled(ui.OverlayHUD) {
		d, v, t := g.solver.Sources()
		clients := 0
		if g.stream != nil {
			clients = g.stream.Clients()
		}
		name := view.Name
		if kind, err := solver.ParseFieldKind(view.Field); err == nil && g.solver.Field(kind) == nil {
			name += " (disabled)"
		}
		g.hud.Draw(ui.HUDData{
			Title:    Title,
			Domain:   g.solver.Adapter().Kind().String(),
			Backend:  g.solver.Backend(),
			View:     name,
			Frame:    g.solver.Frame(),
			SimTime:  g.simTime,
			FPS:      rl.GetFPS(),
			Paused:   g.paused,
			Sources:  [3]bool{d != nil, v != nil, t != nil},
			Emitters: g.emitters.Count(),
			Clients:  clients,
		})
		g.hud.DrawControls(int32(g.screenHeight), controlsHelp)
	}

	if g.overlays.IsEnabled(ui.OverlayPerf) {
		g.perfPanel.Draw(ui.PerfPanelData{
			Stats:    g.perfCollector.Stats(),
			Host:     g.hostPerf.Averages(),
			Registry: g.registry,
		})
	}

	if g.overlays.IsEnabled(ui.OverlayControls) {
		g.applyControls(g.controlsPanel.Draw(&g.controls, g.overlays))
	}

	if g.overlays.IsEnabled(ui.OverlayProbe) {
		g.sampleProbe()
		g.inspector.Draw(&g.probe)
	}
}

// applyControls pushes panel edits into the solver.
func (g *Game) applyControls(changes ui.ControlChanges) {
	if !changes.Any() {
		return
	}
	if changes.Dissipation {
		g.solver.SetDissipation(float64(g.controls.Dissipation))
	}
	if changes.Vorticity {
		g.solver.SetVorticityWeight(float64(g.controls.VorticityWeight))
	}
	if changes.Buoyancy {
		g.solver.SetBuoyancy(g.controls.Buoyancy, float64(g.controls.BuoyancyDirection))
	}
	if changes.Wrap {
		g.setWrap(g.controls.Wrap)
		g.syncControls()
	}
	if changes.Snapshot {
		g.saveSnapshot()
	}
	if changes.Clear {
		g.clearSources()
	}
}

// sampleProbe reads every field at the pointer.
func (g *Game) sampleProbe() {
	g.probe.Window = g.lastWindow
	if !g.probe.Inside {
		return
	}
	a := g.solver.Adapter()
	p := a.Forward(topology.Coord{U: g.probe.U, V: g.probe.V})

	d := topology.Sample(a, g.solver.Field(solver.Density), p)
	g.probe.Density = [3]float32{d[0], d[1], d[2]}
	g.probe.Velocity = topology.SampleVector(a, g.solver.Field(solver.Velocity), p)
	g.probe.Pressure = topology.SampleScalar(a, g.solver.Field(solver.Pressure), p)
	g.probe.Divergence = topology.SampleScalar(a, g.solver.Field(solver.Divergence), p)

	curl := topology.Vec(topology.Sample(a, g.solver.Field(solver.Vorticity), p))
	g.probe.Vorticity = float32(r3.Dot(curl, a.Normal(p)))

	if temp := g.solver.Field(solver.Temperature); temp != nil {
		g.probe.Temperature = topology.SampleScalar(a, temp, p)
		g.probe.HasTemperature = true
	} else {
		g.probe.HasTemperature = false
	}
}
