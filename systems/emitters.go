// Package systems drives the solver from ECS state: scripted emitters and the
// smoke color walk.
package systems

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/smoke/components"
	"github.com/pthm-cable/smoke/config"
	"github.com/pthm-cable/smoke/topology"
)

// SourceSink is the part of the solver emitters write to.
type SourceSink interface {
	AddExternalDensity(pos topology.Coord, color colorful.Color, radius float64)
	RemoveExternalDensity()
	AddExternalVelocity(pos topology.Coord, delta r3.Vec, radius float64)
	RemoveExternalVelocity()
	AddExternalTemperature(pos topology.Coord, delta, radius float64) error
	RemoveExternalTemperature()
}

// EmitterSystem maps scheduled emitter entities onto the solver's
// single-slot source latches. When several emitters of one kind are active,
// the one that started last wins.
type EmitterSystem struct {
	world  *ecs.World
	mapper *ecs.Map3[components.Emitter, components.Payload, components.Schedule]
	filter *ecs.Filter3[components.Emitter, components.Payload, components.Schedule]

	held    [components.NumSourceKinds]ecs.Entity
	holding [components.NumSourceKinds]bool
}

// NewEmitterSystem creates the system over world.
func NewEmitterSystem(world *ecs.World) *EmitterSystem {
	return &EmitterSystem{
		world:  world,
		mapper: ecs.NewMap3[components.Emitter, components.Payload, components.Schedule](world),
		filter: ecs.NewFilter3[components.Emitter, components.Payload, components.Schedule](world),
	}
}

// Spawn adds an emitter entity.
func (s *EmitterSystem) Spawn(e components.Emitter, p components.Payload, sch components.Schedule) ecs.Entity {
	return s.mapper.NewEntity(&e, &p, &sch)
}

// LoadConfig spawns one entity per configured emitter. Radii are multiplied
// by radiusScale; a zero radius uses defaultRadius.
func (s *EmitterSystem) LoadConfig(emitters []config.EmitterConfig, defaultRadius, radiusScale float64) error {
	for i, ec := range emitters {
		kind, ok := components.ParseSourceKind(ec.Kind)
		if !ok {
			return fmt.Errorf("emitter %d: unknown kind %q", i, ec.Kind)
		}
		radius := ec.Radius * radiusScale
		if ec.Radius == 0 {
			radius = defaultRadius
		}
		s.Spawn(
			components.Emitter{Kind: kind, Pos: topology.Coord{U: ec.U, V: ec.V}, Radius: radius},
			components.Payload{
				Color:       colorful.Color{R: ec.Color[0], G: ec.Color[1], B: ec.Color[2]},
				Velocity:    r3.Vec{X: ec.Velocity[0], Y: ec.Velocity[1], Z: ec.Velocity[2]},
				Temperature: ec.Temperature,
			},
			components.Schedule{Start: ec.Start, Duration: ec.Duration},
		)
	}
	return nil
}

type candidate struct {
	entity  ecs.Entity
	emitter components.Emitter
	payload components.Payload
	start   float64
}

// Update latches or clears solver sources for simulation time t. It issues
// calls only when the winning emitter of a kind changes, so a pointer source
// written between updates is left alone. Returns the number of calls made.
func (s *EmitterSystem) Update(sink SourceSink, t float64) (int, error) {
	var winners [components.NumSourceKinds]*candidate

	query := s.filter.Query()
	for query.Next() {
		em, pl, sch := query.Get()
		if !sch.Active(t) || em.Kind >= components.NumSourceKinds {
			continue
		}
		w := winners[em.Kind]
		if w == nil || sch.Start > w.start {
			winners[em.Kind] = &candidate{entity: query.Entity(), emitter: *em, payload: *pl, start: sch.Start}
		}
	}

	calls := 0
	var firstErr error
	for k := range winners {
		kind := components.SourceKind(k)
		w := winners[k]
		switch {
		case w != nil && (!s.holding[k] || s.held[k] != w.entity):
			if err := apply(sink, kind, w); err != nil {
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			s.held[k], s.holding[k] = w.entity, true
			calls++
		case w == nil && s.holding[k]:
			release(sink, kind)
			s.holding[k] = false
			calls++
		}
	}
	return calls, firstErr
}

// Prune removes emitters whose schedule ended before t.
func (s *EmitterSystem) Prune(t float64) int {
	var expired []ecs.Entity
	query := s.filter.Query()
	for query.Next() {
		_, _, sch := query.Get()
		if sch.Expired(t) {
			expired = append(expired, query.Entity())
		}
	}
	for _, e := range expired {
		s.world.RemoveEntity(e)
	}
	return len(expired)
}

// Count returns the number of emitters not yet pruned.
func (s *EmitterSystem) Count() int {
	n := 0
	query := s.filter.Query()
	for query.Next() {
		n++
	}
	return n
}

// Holding reports which kinds currently hold a solver latch.
func (s *EmitterSystem) Holding() [components.NumSourceKinds]bool {
	return s.holding
}

// Reset forgets held latches, for use after the solver was rebuilt.
func (s *EmitterSystem) Reset() {
	s.holding = [components.NumSourceKinds]bool{}
}

func apply(sink SourceSink, kind components.SourceKind, c *candidate) error {
	em, pl := c.emitter, c.payload
	switch kind {
	case components.SourceDensity:
		sink.AddExternalDensity(em.Pos, pl.Color, em.Radius)
	case components.SourceVelocity:
		sink.AddExternalVelocity(em.Pos, pl.Velocity, em.Radius)
	case components.SourceTemperature:
		return sink.AddExternalTemperature(em.Pos, pl.Temperature, em.Radius)
	}
	return nil
}

func release(sink SourceSink, kind components.SourceKind) {
	switch kind {
	case components.SourceDensity:
		sink.RemoveExternalDensity()
	case components.SourceVelocity:
		sink.RemoveExternalVelocity()
	case components.SourceTemperature:
		sink.RemoveExternalTemperature()
	}
}
