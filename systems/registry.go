package systems

import "github.com/pthm-cable/smoke/telemetry"

// SystemInfo describes a timed step phase or host system for UI display.
type SystemInfo struct {
	ID          string // Internal identifier (used for perf tracking)
	Name        string // Display name
	Description string // What this system does
	Category    string // Grouping (e.g., "solver", "host")
}

// SystemRegistry holds metadata about all systems.
// This centralizes naming so the HUD and perf tracker stay in sync.
type SystemRegistry struct {
	systems []SystemInfo
	byID    map[string]SystemInfo
}

// NewSystemRegistry creates a registry with all known systems.
func NewSystemRegistry() *SystemRegistry {
	reg := &SystemRegistry{
		byID: make(map[string]SystemInfo),
	}
	reg.registerDefaults()
	return reg
}

// registerDefaults adds the solver phases in pipeline order, then the host
// systems. Update this when adding phases.
func (r *SystemRegistry) registerDefaults() {
	r.Register(SystemInfo{ID: telemetry.PhaseAdvect, Name: "Advect", Description: "Semi-Lagrangian transport of velocity, density and temperature", Category: "solver"})
	r.Register(SystemInfo{ID: telemetry.PhaseBuoyancy, Name: "Buoyancy", Description: "Thermal lift and density weight", Category: "solver"})
	r.Register(SystemInfo{ID: telemetry.PhaseInject, Name: "Inject", Description: "Gaussian external sources", Category: "solver"})
	r.Register(SystemInfo{ID: telemetry.PhaseVorticity, Name: "Vorticity", Description: "Curl and confinement", Category: "solver"})
	r.Register(SystemInfo{ID: telemetry.PhaseDivergence, Name: "Divergence", Description: "Velocity divergence", Category: "solver"})
	r.Register(SystemInfo{ID: telemetry.PhasePressure, Name: "Pressure", Description: "Jacobi relaxation", Category: "solver"})
	r.Register(SystemInfo{ID: telemetry.PhaseProject, Name: "Project", Description: "Pressure gradient subtraction", Category: "solver"})

	r.Register(SystemInfo{ID: "emitters", Name: "Emitters", Description: "Scripted sources", Category: "host"})
	r.Register(SystemInfo{ID: "pointer", Name: "Pointer", Description: "Mouse-held sources", Category: "host"})
	r.Register(SystemInfo{ID: "stream", Name: "Stream", Description: "Websocket commands and frame publish", Category: "host"})
	r.Register(SystemInfo{ID: "render", Name: "Render", Description: "Field colorization and upload", Category: "host"})
}

// Register adds a system to the registry.
func (r *SystemRegistry) Register(info SystemInfo) {
	r.systems = append(r.systems, info)
	r.byID[info.ID] = info
}

// Get returns system info by ID.
func (r *SystemRegistry) Get(id string) (SystemInfo, bool) {
	info, ok := r.byID[id]
	return info, ok
}

// GetName returns the display name for a system ID.
// Falls back to the ID itself if not found.
func (r *SystemRegistry) GetName(id string) string {
	if info, ok := r.byID[id]; ok {
		return info.Name
	}
	return id
}

// ByCategory returns systems filtered by category.
func (r *SystemRegistry) ByCategory(category string) []SystemInfo {
	var result []SystemInfo
	for _, info := range r.systems {
		if info.Category == category {
			result = append(result, info)
		}
	}
	return result
}
