package game

import "time"

// PerfStats tracks execution time for host systems that run outside the
// solver step (emitters, pointer, stream, render).
type PerfStats struct {
	samples    map[string][]time.Duration
	maxSamples int
}

// NewPerfStats creates a new performance stats tracker.
func NewPerfStats(window int) *PerfStats {
	if window < 1 {
		window = 120
	}
	return &PerfStats{
		samples:    make(map[string][]time.Duration),
		maxSamples: window,
	}
}

// Record adds a duration sample for the named system.
func (p *PerfStats) Record(name string, d time.Duration) {
	s := append(p.samples[name], d)
	if len(s) > p.maxSamples {
		s = s[1:]
	}
	p.samples[name] = s
}

// Time runs fn and records its duration under name.
func (p *PerfStats) Time(name string, fn func()) {
	start := time.Now()
	fn()
	p.Record(name, time.Since(start))
}

// Avg returns the average duration for the named system.
func (p *PerfStats) Avg(name string) time.Duration {
	s := p.samples[name]
	if len(s) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range s {
		total += d
	}
	return total / time.Duration(len(s))
}

// Averages returns the average of every recorded system.
func (p *PerfStats) Averages() map[string]time.Duration {
	out := make(map[string]time.Duration, len(p.samples))
	for name := range p.samples {
		out[name] = p.Avg(name)
	}
	return out
}
