// Package components defines ECS components for scripted sources.
package components

import (
	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/smoke/topology"
)

// SourceKind selects which solver latch an emitter drives.
type SourceKind uint8

const (
	SourceDensity SourceKind = iota
	SourceVelocity
	SourceTemperature
	NumSourceKinds
)

func (k SourceKind) String() string {
	switch k {
	case SourceDensity:
		return "density"
	case SourceVelocity:
		return "velocity"
	case SourceTemperature:
		return "temperature"
	default:
		return "unknown"
	}
}

// ParseSourceKind resolves a config name. ok is false for unknown names.
func ParseSourceKind(name string) (SourceKind, bool) {
	switch name {
	case "density":
		return SourceDensity, true
	case "velocity":
		return SourceVelocity, true
	case "temperature":
		return SourceTemperature, true
	default:
		return 0, false
	}
}

// Emitter places a source on the domain.
type Emitter struct {
	Kind   SourceKind
	Pos    topology.Coord
	Radius float64
}

// Payload is what an emitter injects. Only the field matching the
// emitter's kind is used.
type Payload struct {
	Color       colorful.Color
	Velocity    r3.Vec
	Temperature float64
}

// Schedule is the activity window in simulation time. Zero Duration means
// the emitter never expires.
type Schedule struct {
	Start    float64
	Duration float64
}

// Active reports whether the schedule covers t.
func (s Schedule) Active(t float64) bool {
	if t < s.Start {
		return false
	}
	return s.Duration <= 0 || t < s.Start+s.Duration
}

// Expired reports whether the schedule has ended before t.
func (s Schedule) Expired(t float64) bool {
	return s.Duration > 0 && t >= s.Start+s.Duration
}
