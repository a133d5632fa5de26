package telemetry

import (
	"log/slog"
	"math"

	"gonum.org/v1/gonum/blas/blas32"
	"gonum.org/v1/gonum/floats"

	"github.com/pthm-cable/smoke/field"
)

// FieldStats summarizes the solver fields at one instant.
type FieldStats struct {
	TotalDensity  float64 // Σ over cells of |r|+|g|+|b|
	PeakDensity   float64 // max RGB magnitude
	MeanSpeed     float64
	MaxSpeed      float64
	DivergenceL1  float64 // Σ |div v|
	PeakVorticity float64
}

// WindowStats is one row of telemetry.csv.
type WindowStats struct {
	WindowStartFrame int     `csv:"-"`
	WindowEndFrame   int     `csv:"window_end"`
	SimTimeSec       float64 `csv:"sim_time"`

	// Frames with an active source during the window
	DensityFrames     int `csv:"density_frames"`
	VelocityFrames    int `csv:"velocity_frames"`
	TemperatureFrames int `csv:"temperature_frames"`
	Commands          int `csv:"commands"`

	// Field state at window end
	TotalDensity  float64 `csv:"total_density"`
	PeakDensity   float64 `csv:"peak_density"`
	MeanSpeed     float64 `csv:"mean_speed"`
	MaxSpeed      float64 `csv:"max_speed"`
	DivergenceL1  float64 `csv:"divergence_l1"`
	PeakVorticity float64 `csv:"peak_vorticity"`
}

// Meter measures fields with reusable scratch buffers.
type Meter struct {
	channel []float32
	mags    []float64
}

// Asum returns Σ|x| of one channel of g.
func (m *Meter) Asum(g *field.Grid, ch int) float64 {
	if g == nil || g.Len() == 0 {
		return 0
	}
	m.channel = g.Channel(ch, m.channel)
	return float64(blas32.Asum(blas32.Vector{N: len(m.channel), Inc: 1, Data: m.channel}))
}

// Peak returns max|x| over one channel of g.
func (m *Meter) Peak(g *field.Grid, ch int) float64 {
	if g == nil || g.Len() == 0 {
		return 0
	}
	m.channel = g.Channel(ch, m.channel)
	i := blas32.Iamax(blas32.Vector{N: len(m.channel), Inc: 1, Data: m.channel})
	return math.Abs(float64(m.channel[i]))
}

// Magnitudes returns the per-cell length of channels 0..2.
func (m *Meter) Magnitudes(g *field.Grid) []float64 {
	n := g.Len()
	if cap(m.mags) < n {
		m.mags = make([]float64, n)
	}
	m.mags = m.mags[:n]
	for i, t := range g.Texels() {
		x, y, z := float64(t[0]), float64(t[1]), float64(t[2])
		m.mags[i] = math.Sqrt(x*x + y*y + z*z)
	}
	return m.mags
}

// Measure summarizes density, velocity, divergence and vorticity grids.
// Nil grids contribute zeros.
func (m *Meter) Measure(density, velocity, divergence, vorticity *field.Grid) FieldStats {
	var fs FieldStats
	if density != nil && density.Len() > 0 {
		fs.TotalDensity = m.Asum(density, 0) + m.Asum(density, 1) + m.Asum(density, 2)
		fs.PeakDensity = floats.Max(m.Magnitudes(density))
	}
	if velocity != nil && velocity.Len() > 0 {
		mags := m.Magnitudes(velocity)
		fs.MaxSpeed = floats.Max(mags)
		fs.MeanSpeed = floats.Sum(mags) / float64(len(mags))
	}
	fs.DivergenceL1 = m.Asum(divergence, 0)
	if vorticity != nil && vorticity.Len() > 0 {
		fs.PeakVorticity = floats.Max(m.Magnitudes(vorticity))
	}
	return fs
}

// LogValue implements slog.LogValuer.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", s.WindowStartFrame),
		slog.Int("window_end", s.WindowEndFrame),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("density_frames", s.DensityFrames),
		slog.Int("velocity_frames", s.VelocityFrames),
		slog.Int("temperature_frames", s.TemperatureFrames),
		slog.Int("commands", s.Commands),
		slog.Float64("total_density", s.TotalDensity),
		slog.Float64("peak_density", s.PeakDensity),
		slog.Float64("mean_speed", s.MeanSpeed),
		slog.Float64("max_speed", s.MaxSpeed),
		slog.Float64("divergence_l1", s.DivergenceL1),
		slog.Float64("peak_vorticity", s.PeakVorticity),
	)
}

// LogStats logs the window using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndFrame,
		"sim_time", s.SimTimeSec,
		"density_frames", s.DensityFrames,
		"velocity_frames", s.VelocityFrames,
		"commands", s.Commands,
		"total_density", s.TotalDensity,
		"peak_density", s.PeakDensity,
		"max_speed", s.MaxSpeed,
		"divergence_l1", s.DivergenceL1,
	)
}
