package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/smoke/systems"
	"github.com/pthm-cable/smoke/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title   string
	Domain  string
	Backend string
	View    string
	Frame   int
	SimTime float64
	FPS     int32
	Paused  bool

	// Active source latches: density, velocity, temperature
	Sources [3]bool

	Emitters int // scripted emitters still scheduled
	Clients  int // stream viewers
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{
		renderer: NewRenderer(),
	}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	rl.DrawText(data.Title, 10, 10, 20, rl.White)

	rl.DrawText(
		fmt.Sprintf("%s | %s | view: %s", data.Domain, data.Backend, data.View),
		10, 35, 16, rl.LightGray,
	)
	rl.DrawText(
		fmt.Sprintf("Frame: %d | t=%.2f | FPS: %d | Emitters: %d | Viewers: %d",
			data.Frame, data.SimTime, data.FPS, data.Emitters, data.Clients),
		10, 55, 16, rl.LightGray,
	)

	x := int32(10)
	for i, label := range [3]string{"density", "velocity", "temperature"} {
		color := rl.Color{R: 80, G: 80, B: 80, A: 255}
		if data.Sources[i] {
			color = rl.Color{R: 100, G: 200, B: 100, A: 255}
		}
		rl.DrawRectangle(x, 79, 8, 8, color)
		rl.DrawText(label, x+12, 76, 14, color)
		x += 24 + rl.MeasureText(label, 14)
	}

	if data.Paused {
		rl.DrawText("PAUSED", 10, 96, 16, rl.Yellow)
	}
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// PerfPanelData holds performance metrics for display.
type PerfPanelData struct {
	Stats    telemetry.PerfStats
	Host     map[string]time.Duration // host system timings outside the step
	Registry *systems.SystemRegistry
}

// PerfPanel renders per-phase step timings in pipeline order.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
	}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel.
func (p *PerfPanel) Draw(data PerfPanelData) {
	x := p.x
	y := p.y
	const width, lines = 300, 12

	p.renderer.DrawPanel(x-8, y-8, width, lines*14+56)

	rl.DrawText("Solver Performance", x, y, 16, rl.White)
	y += 20

	rl.DrawText(fmt.Sprintf("Step: %s (%.0f/s)",
		data.Stats.AvgStepDuration.Round(time.Microsecond), data.Stats.StepsPerSecond),
		x, y, 14, rl.Yellow)
	y += 16

	for _, info := range data.Registry.ByCategory("solver") {
		avg, ok := data.Stats.PhaseAvg[info.ID]
		if !ok {
			continue
		}
		pct := data.Stats.PhasePct[info.ID]

		color := rl.LightGray
		if pct > 40 {
			color = rl.Red
		} else if pct > 20 {
			color = rl.Orange
		}
		rl.DrawText(
			fmt.Sprintf("%-12s %8s %5.1f%%", info.Name, avg.Round(time.Microsecond), pct),
			x, y, 12, color,
		)
		y += 14
	}

	y += 4
	for _, info := range data.Registry.ByCategory("host") {
		avg, ok := data.Host[info.ID]
		if !ok {
			continue
		}
		rl.DrawText(fmt.Sprintf("%-12s %8s", info.Name, avg.Round(time.Microsecond)), x, y, 12, rl.Gray)
		y += 14
	}
}
