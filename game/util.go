package game

import (
	"gonum.org/v1/gonum/floats"

	"github.com/pthm-cable/smoke/field"
	"github.com/pthm-cable/smoke/renderer"
	"github.com/pthm-cable/smoke/telemetry"
)

const (
	minRange   = 1e-6
	rangeDecay = 0.05 // fraction of the gap closed per frame when the peak falls
)

// peakRange returns the colorizer range that maps the current peak of g to
// full intensity.
func peakRange(m *telemetry.Meter, g *field.Grid, mode renderer.Mode) float64 {
	if g == nil || g.Len() == 0 {
		return 1
	}
	var peak float64
	switch mode {
	case renderer.ModeColor:
		return 1
	case renderer.ModeScalar, renderer.ModeSigned:
		peak = m.Peak(g, 0)
	default:
		peak = floats.Max(m.Magnitudes(g))
	}
	return max(peak, minRange)
}

// smoothRange follows rising peaks immediately and falling ones slowly so
// the view does not flicker.
func smoothRange(prev, peak float64) float64 {
	if prev <= 0 || peak >= prev {
		return peak
	}
	return prev + (peak-prev)*rangeDecay
}
