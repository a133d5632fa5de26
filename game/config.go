package game

import (
	"github.com/pthm-cable/smoke/config"
	"github.com/pthm-cable/smoke/telemetry"
)

// Options holds command-line settings for game initialization. Solver and
// domain settings come from the config package.
type Options struct {
	Seed           int64 // color drift seed
	Headless       bool
	LogStats       bool
	StatsWindowSec float64 // 0 = telemetry.stats_window
	SnapshotDir    string
	OutputDir      string
	RestorePath    string // snapshot to load before the first step
	StepsPerUpdate int
	PNGDir         string // where P writes the active view

	// Config overrides config.Cfg(), for runs that need their own copy.
	Config *config.Config
	// StatsCallback receives every flushed telemetry window.
	StatsCallback func(telemetry.WindowStats)
}

// DefaultOptions returns windowed defaults.
func DefaultOptions() Options {
	return Options{
		StepsPerUpdate: 1,
		SnapshotDir:    "snapshots",
		PNGDir:         ".",
	}
}
