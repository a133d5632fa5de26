package solver

import (
	"fmt"
	"slices"

	"github.com/pthm-cable/smoke/field"
	"github.com/pthm-cable/smoke/telemetry"
)

// snapshotFields are the buffers carried across frames. Divergence and
// vorticity are recomputed every step.
var snapshotFields = []FieldKind{Velocity, Density, Temperature, Pressure}

// Snapshot copies the transported fields.
func (s *Solver) Snapshot() *telemetry.Snapshot {
	shape := s.adapter.Shape()
	snap := &telemetry.Snapshot{
		Version: telemetry.SnapshotVersion,
		Domain:  s.adapter.Kind().String(),
		Width:   shape.Width,
		Height:  shape.Height,
		Faces:   shape.Faces(),
		Frame:   s.frame,
		Time:    s.time,
		Fields:  make(map[string][]field.Texel, len(snapshotFields)),
	}
	for _, kind := range snapshotFields {
		if g := s.Field(kind); g != nil {
			snap.Fields[kind.String()] = slices.Clone(g.Texels())
		}
	}
	return snap
}

// Restore loads a snapshot taken on the same domain and grid. Fields missing
// from the snapshot are zeroed; active sources are kept.
func (s *Solver) Restore(snap *telemetry.Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	shape := s.adapter.Shape()
	if snap.Domain != s.adapter.Kind().String() || snap.Width != shape.Width ||
		snap.Height != shape.Height || snap.Faces != shape.Faces() {
		return fmt.Errorf("snapshot %s %dx%dx%d does not match solver %s %v",
			snap.Domain, snap.Faces, snap.Width, snap.Height, s.adapter.Kind(), shape)
	}
	for _, kind := range snapshotFields {
		g := s.Field(kind)
		if g == nil {
			continue
		}
		data, ok := snap.Fields[kind.String()]
		if !ok {
			g.Zero()
			continue
		}
		copy(g.Texels(), data)
	}
	s.frame = snap.Frame
	s.time = snap.Time
	return nil
}
