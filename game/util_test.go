package game

import (
	"testing"

	"github.com/pthm-cable/smoke/field"
	"github.com/pthm-cable/smoke/renderer"
	"github.com/pthm-cable/smoke/telemetry"
)

func TestPeakRange(t *testing.T) {
	g := field.NewGrid(field.PlanarShape(2, 2))
	g.Set(0, field.Texel{-3, 0, 0, 0})
	g.Set(1, field.Texel{0, 4, 0, 0})

	var m telemetry.Meter
	if r := peakRange(&m, g, renderer.ModeSigned); r != 3 {
		t.Errorf("signed range = %v, want 3", r)
	}
	if r := peakRange(&m, g, renderer.ModeVelocity); r != 4 {
		t.Errorf("velocity range = %v, want 4", r)
	}
	if r := peakRange(&m, g, renderer.ModeColor); r != 1 {
		t.Errorf("color range = %v, want 1", r)
	}
	if r := peakRange(&m, nil, renderer.ModeScalar); r != 1 {
		t.Errorf("nil grid range = %v, want 1", r)
	}
	if r := peakRange(&m, field.NewGrid(field.PlanarShape(2, 2)), renderer.ModeScalar); r != minRange {
		t.Errorf("empty field range = %v, want %v", r, minRange)
	}
}

func TestSmoothRange(t *testing.T) {
	if r := smoothRange(0, 2); r != 2 {
		t.Errorf("first range = %v, want 2", r)
	}
	if r := smoothRange(1, 5); r != 5 {
		t.Errorf("rising range = %v, want 5", r)
	}
	r := smoothRange(10, 0)
	if r >= 10 || r <= 0 {
		t.Errorf("falling range = %v, want between 0 and 10", r)
	}
}
