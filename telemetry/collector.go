package telemetry

// Collector counts source activity within fixed windows of solver frames and
// produces WindowStats.
type Collector struct {
	windowDurationSec    float64
	windowDurationFrames int
	dt                   float64

	windowStartFrame int

	densityFrames     int
	velocityFrames    int
	temperatureFrames int
	commands          int
}

// NewCollector creates a collector. windowDurationSec is measured in
// simulation time; dt converts it to frames.
func NewCollector(windowDurationSec, dt float64) *Collector {
	frames := 1
	if dt > 0 {
		frames = max(int(windowDurationSec/dt), 1)
	}
	return &Collector{
		windowDurationSec:    windowDurationSec,
		windowDurationFrames: frames,
		dt:                   dt,
	}
}

// RecordSources records which sources were active during one frame.
func (c *Collector) RecordSources(density, velocity, temperature bool) {
	if density {
		c.densityFrames++
	}
	if velocity {
		c.velocityFrames++
	}
	if temperature {
		c.temperatureFrames++
	}
}

// RecordCommand counts an external add/remove call (stream, scenario, pointer).
func (c *Collector) RecordCommand() {
	c.commands++
}

// ShouldFlush reports whether the current window is complete.
func (c *Collector) ShouldFlush(frame int) bool {
	return frame-c.windowStartFrame >= c.windowDurationFrames
}

// Flush builds the window record and starts a new window.
func (c *Collector) Flush(frame int, fields FieldStats) WindowStats {
	stats := WindowStats{
		WindowStartFrame:  c.windowStartFrame,
		WindowEndFrame:    frame,
		SimTimeSec:        float64(frame) * c.dt,
		DensityFrames:     c.densityFrames,
		VelocityFrames:    c.velocityFrames,
		TemperatureFrames: c.temperatureFrames,
		Commands:          c.commands,
		TotalDensity:      fields.TotalDensity,
		PeakDensity:       fields.PeakDensity,
		MeanSpeed:         fields.MeanSpeed,
		MaxSpeed:          fields.MaxSpeed,
		DivergenceL1:      fields.DivergenceL1,
		PeakVorticity:     fields.PeakVorticity,
	}

	c.windowStartFrame = frame
	c.densityFrames = 0
	c.velocityFrames = 0
	c.temperatureFrames = 0
	c.commands = 0
	return stats
}

// WindowDurationFrames returns the window length in frames.
func (c *Collector) WindowDurationFrames() int {
	return c.windowDurationFrames
}
