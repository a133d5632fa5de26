package game

import (
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/smoke/systems"
	"github.com/pthm-cable/smoke/ui"
)

// handleInput processes keyboard and mouse input.
func (g *Game) handleInput() {
	// Window resize propagation
	g.handleResize()

	// Fullscreen toggle
	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	if rl.IsKeyPressed(rl.KeySpace) {
		g.paused = !g.paused
	}

	// Steps-per-update control with < > keys (comma and period)
	if rl.IsKeyPressed(rl.KeyComma) && g.stepsPerUpdate > 1 {
		g.stepsPerUpdate--
	}
	if rl.IsKeyPressed(rl.KeyPeriod) && g.stepsPerUpdate < 10 {
		g.stepsPerUpdate++
	}

	// Field views and panels
	for key := rl.GetKeyPressed(); key != 0; key = rl.GetKeyPressed() {
		if id, enabled, ok := g.overlays.HandleKeyPress(key); ok {
			slog.Debug("overlay toggled", "overlay", id, "enabled", enabled)
		}
	}

	if rl.IsKeyPressed(rl.KeyS) {
		g.saveSnapshot()
	}
	if rl.IsKeyPressed(rl.KeyP) {
		g.exportPNG()
	}
	if rl.IsKeyPressed(rl.KeyC) {
		g.clearSources()
	}
	if rl.IsKeyPressed(rl.KeyW) && g.controls.CanWrap {
		g.setWrap(!g.controls.Wrap)
		g.syncControls()
	}
	if rl.IsKeyPressed(rl.KeyB) && g.controls.CanBuoyancy {
		g.controls.Buoyancy = !g.controls.Buoyancy
		g.solver.SetBuoyancy(g.controls.Buoyancy, float64(g.controls.BuoyancyDirection))
	}

	// Camera controls
	g.handleCameraInput()

	// Pointer sources
	g.hostPerf.Time("pointer", g.handlePointer)
}

// handleResize checks for window resize and propagates new dimensions.
func (g *Game) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())
	if w == g.screenWidth && h == g.screenHeight {
		return
	}
	g.screenWidth = w
	g.screenHeight = h

	if g.camera != nil {
		g.camera.Resize(w, h)
	}
	g.perfPanel.SetPosition(int32(w)-230, 10)
	g.inspector.SetPosition(int32(w)-250, int32(h)-260)
}

// handleCameraInput processes camera pan/zoom controls.
func (g *Game) handleCameraInput() {
	if g.camera == nil {
		return
	}

	// Pan speed scales inversely with zoom for natural feel
	panSpeed := float32(8.0) / g.camera.Zoom

	// Arrow key panning
	if rl.IsKeyDown(rl.KeyRight) {
		g.camera.Pan(panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyLeft) {
		g.camera.Pan(-panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyDown) {
		g.camera.Pan(0, panSpeed)
	}
	if rl.IsKeyDown(rl.KeyUp) {
		g.camera.Pan(0, -panSpeed)
	}

	// Middle-drag panning
	if rl.IsMouseButtonDown(rl.MouseMiddleButton) {
		d := rl.GetMouseDelta()
		g.camera.Pan(-d.X/g.camera.Zoom, -d.Y/g.camera.Zoom)
	}

	// Zoom controls: mouse wheel or +/- keys
	if wheelMove := rl.GetMouseWheelMove(); wheelMove != 0 {
		g.camera.ZoomBy(1 + wheelMove*0.1)
	}
	if rl.IsKeyPressed(rl.KeyEqual) || rl.IsKeyPressed(rl.KeyKpAdd) {
		g.camera.ZoomBy(1.25)
	}
	if rl.IsKeyPressed(rl.KeyMinus) || rl.IsKeyPressed(rl.KeyKpSubtract) {
		g.camera.ZoomBy(0.8)
	}

	// Home key to reset camera
	if rl.IsKeyPressed(rl.KeyHome) {
		g.camera.Reset()
	}
}

// handlePointer paints density with the left button and drags velocity with
// the right. The pointer is treated as off the domain over the controls panel.
func (g *Game) handlePointer() {
	mouse := rl.GetMousePosition()
	pos, inside := g.camera.ScreenToCoord(mouse.X, mouse.Y)

	overPanel := g.overlays.IsEnabled(ui.OverlayControls) && g.controlsPanel.Contains(mouse.X, mouse.Y, g.overlays)
	p := systems.Pointer{
		Pos:      pos,
		Inside:   inside && !overPanel,
		Density:  rl.IsMouseButtonDown(rl.MouseLeftButton),
		Velocity: rl.IsMouseButtonDown(rl.MouseRightButton),
	}

	n := g.pointer.Update(g.solver, p, g.solver.DT())
	for range n {
		g.collector.RecordCommand()
	}

	g.probe.U, g.probe.V, g.probe.Inside = pos.U, pos.V, inside
}
