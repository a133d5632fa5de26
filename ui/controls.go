package ui

import (
	"fmt"
	"math"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// ControlState mirrors the live-tunable solver parameters.
type ControlState struct {
	Dissipation       float32
	VorticityWeight   float32
	BuoyancyDirection float32 // radians
	Buoyancy          bool
	Wrap              bool

	// Which toggles apply to the current domain
	CanBuoyancy bool
	CanWrap     bool
}

// ControlChanges reports which controls were touched this frame.
type ControlChanges struct {
	Dissipation bool
	Vorticity   bool
	Buoyancy    bool
	Wrap        bool
	Snapshot    bool
	Clear       bool
}

// Any reports whether anything changed.
func (c ControlChanges) Any() bool {
	return c.Dissipation || c.Vorticity || c.Buoyancy || c.Wrap || c.Snapshot || c.Clear
}

// ControlsPanel renders the left-side panel: field view list plus parameter
// sliders.
type ControlsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewControlsPanel creates a new controls panel.
func NewControlsPanel(x, y, width int32) *ControlsPanel {
	return &ControlsPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// Contains reports whether a screen point is over the panel, so pointer
// input there is not routed to the field.
func (c *ControlsPanel) Contains(px, py float32, overlays *OverlayRegistry) bool {
	return px >= float32(c.x) && px < float32(c.x+c.width) &&
		py >= float32(c.y) && py < float32(c.y+c.height(overlays))
}

func (c *ControlsPanel) height(overlays *OverlayRegistry) int32 {
	r := c.renderer
	views := int32(len(overlays.ByCategory(CategoryField)))
	return r.Theme.Padding*2 + (r.Theme.LineHeight+4)*2 + views*r.Theme.LineHeight + 5*38 + 40
}

// Draw renders the panel, applies slider edits to state and reports what
// changed.
func (c *ControlsPanel) Draw(state *ControlState, overlays *OverlayRegistry) ControlChanges {
	var changes ControlChanges
	r := c.renderer
	padding := r.Theme.Padding
	lineHeight := r.Theme.LineHeight

	r.DrawPanel(c.x, c.y, c.width, c.height(overlays))
	y := c.y + padding

	rl.DrawText("Field", c.x+padding, y, 16, rl.White)
	y += lineHeight + 4
	for _, desc := range overlays.ByCategory(CategoryField) {
		c.drawToggle(c.x+padding, y, desc, overlays.IsEnabled(desc.ID), c.width-padding*2)
		y += lineHeight
	}

	y += 4
	rl.DrawText("Solver", c.x+padding, y, 16, rl.White)
	y += lineHeight + 4

	px := float32(c.x + padding)
	sliderW := float32(c.width-padding*2) - 70

	if v, ok := c.slider(px, &y, sliderW, "Dissipation", state.Dissipation, 0.9, 1, "%.3f"); ok {
		state.Dissipation = v
		changes.Dissipation = true
	}
	if v, ok := c.slider(px, &y, sliderW, "Vorticity", state.VorticityWeight, 0, 2, "%.2f"); ok {
		state.VorticityWeight = v
		changes.Vorticity = true
	}
	if state.CanBuoyancy {
		deg := state.BuoyancyDirection * 180 / math.Pi
		if v, ok := c.slider(px, &y, sliderW, "Buoyancy dir", deg, 0, 360, "%.0f°"); ok {
			state.BuoyancyDirection = v * math.Pi / 180
			changes.Buoyancy = true
		}
	}

	bx := px
	if state.CanBuoyancy {
		if gui.Button(rl.Rectangle{X: bx, Y: float32(y), Width: 110, Height: 26}, toggleText(state.Buoyancy, "Buoyancy on", "Buoyancy off")) {
			state.Buoyancy = !state.Buoyancy
			changes.Buoyancy = true
		}
		bx += 120
	}
	if state.CanWrap {
		if gui.Button(rl.Rectangle{X: bx, Y: float32(y), Width: 110, Height: 26}, toggleText(state.Wrap, "Wrapped", "Clamped")) {
			state.Wrap = !state.Wrap
			changes.Wrap = true
		}
	}
	y += 34

	if gui.Button(rl.Rectangle{X: px, Y: float32(y), Width: 110, Height: 26}, "Snapshot") {
		changes.Snapshot = true
	}
	if gui.Button(rl.Rectangle{X: px + 120, Y: float32(y), Width: 110, Height: 26}, "Clear sources") {
		changes.Clear = true
	}

	return changes
}

// slider draws a labelled slider and advances y.
func (c *ControlsPanel) slider(x float32, y *int32, width float32, label string, value, lo, hi float32, format string) (float32, bool) {
	r := c.renderer
	rl.DrawText(label, int32(x), *y, r.Theme.FontSize, r.Theme.LabelColor)
	*y += 14
	next := gui.SliderBar(
		rl.Rectangle{X: x, Y: float32(*y), Width: width, Height: 16},
		"", "",
		value, lo, hi,
	)
	rl.DrawText(fmt.Sprintf(format, value), int32(x+width+8), *y+2, r.Theme.FontSize, r.Theme.ValueColor)
	*y += 24
	return next, next != value
}

// drawToggle draws a single overlay line with its key binding.
func (c *ControlsPanel) drawToggle(x, y int32, desc OverlayDescriptor, enabled bool, width int32) {
	r := c.renderer

	statusColor := rl.Color{R: 80, G: 80, B: 80, A: 255}
	if enabled {
		statusColor = rl.Color{R: 100, G: 200, B: 100, A: 255}
	}
	rl.DrawRectangle(x, y+2, 8, 8, statusColor)

	nameColor := r.Theme.LabelColor
	if enabled {
		nameColor = rl.White
	}
	rl.DrawText(desc.Name, x+14, y, r.Theme.FontSize, nameColor)

	if desc.KeyLabel != "" {
		keyText := fmt.Sprintf("[%s]", desc.KeyLabel)
		keyWidth := rl.MeasureText(keyText, r.Theme.FontSize)
		rl.DrawText(keyText, x+width-keyWidth, y, r.Theme.FontSize, rl.Color{R: 150, G: 150, B: 150, A: 255})
	}
}

func toggleText(on bool, onText, offText string) string {
	if on {
		return onText
	}
	return offText
}
