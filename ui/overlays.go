package ui

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/smoke/renderer"
)

// OverlayID uniquely identifies an overlay.
type OverlayID string

// Field views. Exactly one is shown at a time.
const (
	ViewDensity     OverlayID = "density"
	ViewVelocity    OverlayID = "velocity"
	ViewTemperature OverlayID = "temperature"
	ViewPressure    OverlayID = "pressure"
	ViewDivergence  OverlayID = "divergence"
	ViewVorticity   OverlayID = "vorticity"
)

// Panel toggles.
const (
	OverlayHUD      OverlayID = "hud"
	OverlayPerf     OverlayID = "perf"
	OverlayControls OverlayID = "controls"
	OverlayProbe    OverlayID = "probe"
)

// Overlay categories.
const (
	CategoryField = "field"
	CategoryPanel = "panel"
)

// OverlayDescriptor defines an overlay that can be toggled.
type OverlayDescriptor struct {
	ID          OverlayID     // Unique identifier
	Name        string        // Display name
	Description string        // What this overlay shows
	Key         int32         // Keyboard key to toggle (0 = no key)
	KeyLabel    string        // Key label for display (e.g., "1", "P")
	Category    string        // CategoryField or CategoryPanel
	Field       string        // Solver field shown (field views only)
	Mode        renderer.Mode // Colorizer mode (field views only)
	Exclusive   []OverlayID   // Other overlays to disable when this is enabled
}

// OverlayRegistry manages overlay state and metadata.
type OverlayRegistry struct {
	descriptors []OverlayDescriptor
	byID        map[OverlayID]OverlayDescriptor
	enabled     map[OverlayID]bool
	order       []OverlayID // Maintains insertion order for display
}

// NewOverlayRegistry creates a registry with the default field views and
// panels. The density view and HUD start enabled.
func NewOverlayRegistry() *OverlayRegistry {
	reg := &OverlayRegistry{
		byID:    make(map[OverlayID]OverlayDescriptor),
		enabled: make(map[OverlayID]bool),
	}
	reg.registerDefaults()
	reg.SetEnabled(ViewDensity, true)
	reg.SetEnabled(OverlayHUD, true)
	return reg
}

func (r *OverlayRegistry) registerDefaults() {
	views := []OverlayDescriptor{
		{ID: ViewDensity, Name: "Density", Description: "Smoke color", Key: rl.KeyOne, KeyLabel: "1", Mode: renderer.ModeColor},
		{ID: ViewVelocity, Name: "Velocity", Description: "Direction as hue, speed as brightness", Key: rl.KeyTwo, KeyLabel: "2", Mode: renderer.ModeVelocity},
		{ID: ViewTemperature, Name: "Temperature", Description: "Heat palette", Key: rl.KeyThree, KeyLabel: "3", Mode: renderer.ModeScalar},
		{ID: ViewPressure, Name: "Pressure", Description: "Signed pressure", Key: rl.KeyFour, KeyLabel: "4", Mode: renderer.ModeSigned},
		{ID: ViewDivergence, Name: "Divergence", Description: "Signed divergence before projection", Key: rl.KeyFive, KeyLabel: "5", Mode: renderer.ModeSigned},
		{ID: ViewVorticity, Name: "Vorticity", Description: "Curl along the surface normal", Key: rl.KeySix, KeyLabel: "6", Mode: renderer.ModeNormal},
	}
	for i := range views {
		views[i].Category = CategoryField
		views[i].Field = string(views[i].ID)
		for _, other := range views {
			if other.ID != views[i].ID {
				views[i].Exclusive = append(views[i].Exclusive, other.ID)
			}
		}
		r.Register(views[i])
	}

	r.Register(OverlayDescriptor{
		ID:          OverlayHUD,
		Name:        "HUD",
		Description: "Frame, time and source status",
		Key:         rl.KeyH,
		KeyLabel:    "H",
		Category:    CategoryPanel,
	})
	r.Register(OverlayDescriptor{
		ID:          OverlayPerf,
		Name:        "Performance",
		Description: "Per-phase solver timings",
		Key:         rl.KeyF3,
		KeyLabel:    "F3",
		Category:    CategoryPanel,
	})
	r.Register(OverlayDescriptor{
		ID:          OverlayControls,
		Name:        "Controls",
		Description: "Solver parameter sliders",
		Key:         rl.KeyTab,
		KeyLabel:    "Tab",
		Category:    CategoryPanel,
	})
	r.Register(OverlayDescriptor{
		ID:          OverlayProbe,
		Name:        "Probe",
		Description: "Field values under the cursor",
		Key:         rl.KeyI,
		KeyLabel:    "I",
		Category:    CategoryPanel,
	})
}

// Register adds an overlay to the registry.
func (r *OverlayRegistry) Register(desc OverlayDescriptor) {
	r.descriptors = append(r.descriptors, desc)
	r.byID[desc.ID] = desc
	r.order = append(r.order, desc.ID)
	r.enabled[desc.ID] = false
}

// Toggle switches an overlay on/off and handles exclusivity. Field views
// select rather than toggle so one view always stays active.
func (r *OverlayRegistry) Toggle(id OverlayID) bool {
	desc, ok := r.byID[id]
	if !ok {
		return false
	}
	if desc.Category == CategoryField {
		r.SetEnabled(id, true)
		return true
	}
	r.SetEnabled(id, !r.enabled[id])
	return r.enabled[id]
}

// SetEnabled explicitly sets an overlay's state.
func (r *OverlayRegistry) SetEnabled(id OverlayID, enabled bool) {
	desc, ok := r.byID[id]
	if !ok {
		return
	}
	r.enabled[id] = enabled
	if enabled {
		for _, excl := range desc.Exclusive {
			r.enabled[excl] = false
		}
	}
}

// IsEnabled returns whether an overlay is active.
func (r *OverlayRegistry) IsEnabled(id OverlayID) bool {
	return r.enabled[id]
}

// Get returns an overlay descriptor by ID.
func (r *OverlayRegistry) Get(id OverlayID) (OverlayDescriptor, bool) {
	desc, ok := r.byID[id]
	return desc, ok
}

// ByCategory returns overlays filtered by category.
func (r *OverlayRegistry) ByCategory(category string) []OverlayDescriptor {
	var result []OverlayDescriptor
	for _, desc := range r.descriptors {
		if desc.Category == category {
			result = append(result, desc)
		}
	}
	return result
}

// ActiveView returns the selected field view.
func (r *OverlayRegistry) ActiveView() OverlayDescriptor {
	for _, id := range r.order {
		if d := r.byID[id]; d.Category == CategoryField && r.enabled[id] {
			return d
		}
	}
	return r.byID[ViewDensity]
}

// HandleKeyPress checks if a key corresponds to an overlay toggle.
// Returns the overlay ID and new state if a toggle occurred.
func (r *OverlayRegistry) HandleKeyPress(key int32) (OverlayID, bool, bool) {
	for _, desc := range r.descriptors {
		if desc.Key == key {
			return desc.ID, r.Toggle(desc.ID), true
		}
	}
	return "", false, false
}
