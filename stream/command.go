// Package stream serves colorized solver frames over a websocket and accepts
// source commands from connected viewers.
package stream

import (
	"errors"
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/smoke/components"
	"github.com/pthm-cable/smoke/systems"
	"github.com/pthm-cable/smoke/topology"
)

// Command ops.
const (
	OpAdd    = "add"
	OpRemove = "remove"
	OpClear  = "clear"
)

// Command is a client request to latch or clear a solver source.
//
//	{"op":"add","kind":"density","u":0.5,"v":0.2,"color":[1,0.5,0],"radius":0.001}
//	{"op":"remove","kind":"velocity"}
type Command struct {
	Op          string     `json:"op"`
	Kind        string     `json:"kind,omitempty"`
	U           float64    `json:"u"`
	V           float64    `json:"v"`
	Radius      float64    `json:"radius,omitempty"` // 0 = server default
	Color       [3]float64 `json:"color,omitempty"`
	Velocity    [3]float64 `json:"velocity,omitempty"`
	Temperature float64    `json:"temperature,omitempty"`
}

// Validate checks the command without touching the solver.
func (c Command) Validate() error {
	switch c.Op {
	case OpClear:
		return nil
	case OpAdd, OpRemove:
	default:
		return fmt.Errorf("unknown op %q", c.Op)
	}
	if _, ok := components.ParseSourceKind(c.Kind); !ok {
		return fmt.Errorf("unknown kind %q", c.Kind)
	}
	if c.Op == OpRemove {
		return nil
	}

	var errs []error
	if !(c.U >= 0 && c.U <= 1) || !(c.V >= 0 && c.V <= 1) {
		errs = append(errs, fmt.Errorf("position (%v, %v) outside [0,1]", c.U, c.V))
	}
	if !(c.Radius >= 0) || math.IsInf(c.Radius, 0) {
		errs = append(errs, fmt.Errorf("radius %v must be finite and non-negative", c.Radius))
	}
	for _, v := range append(c.Color[:], append(c.Velocity[:], c.Temperature)...) {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			errs = append(errs, errors.New("payload must be finite"))
			break
		}
	}
	return errors.Join(errs...)
}

// Apply validates the command and forwards it to sink. It must run on the
// goroutine that steps the solver.
func (c Command) Apply(sink systems.SourceSink, defaultRadius float64) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Op == OpClear {
		sink.RemoveExternalDensity()
		sink.RemoveExternalVelocity()
		sink.RemoveExternalTemperature()
		return nil
	}

	kind, _ := components.ParseSourceKind(c.Kind)
	if c.Op == OpRemove {
		switch kind {
		case components.SourceDensity:
			sink.RemoveExternalDensity()
		case components.SourceVelocity:
			sink.RemoveExternalVelocity()
		case components.SourceTemperature:
			sink.RemoveExternalTemperature()
		}
		return nil
	}

	pos := topology.Coord{U: c.U, V: c.V}
	radius := c.Radius
	if radius == 0 {
		radius = defaultRadius
	}
	switch kind {
	case components.SourceDensity:
		sink.AddExternalDensity(pos, colorful.Color{R: c.Color[0], G: c.Color[1], B: c.Color[2]}, radius)
	case components.SourceVelocity:
		sink.AddExternalVelocity(pos, r3.Vec{X: c.Velocity[0], Y: c.Velocity[1], Z: c.Velocity[2]}, radius)
	case components.SourceTemperature:
		return sink.AddExternalTemperature(pos, c.Temperature, radius)
	}
	return nil
}
