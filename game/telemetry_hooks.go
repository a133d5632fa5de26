package game

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pthm-cable/smoke/solver"
	"github.com/pthm-cable/smoke/telemetry"
)

// flushTelemetry measures the fields and writes a window record when the
// stats window is complete.
func (g *Game) flushTelemetry() {
	frame := g.solver.Frame()
	if !g.collector.ShouldFlush(frame) {
		return
	}

	fields := g.meter.Measure(
		g.solver.Field(solver.Density),
		g.solver.Field(solver.Velocity),
		g.solver.Field(solver.Divergence),
		g.solver.Field(solver.Vorticity),
	)
	stats := g.collector.Flush(frame, fields)
	perfStats := g.perfCollector.Stats()
	g.lastWindow = stats

	// Call stats callback if provided
	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	// Log stats if enabled (console output)
	if g.opts.LogStats {
		stats.LogStats()
		perfStats.LogStats()
		g.logHostPerf()
	}

	// Write to CSV if output manager is enabled
	if g.outputManager != nil {
		if err := g.outputManager.WriteTelemetry(stats); err != nil {
			slog.Error("failed to write telemetry", "error", err)
		}
		if err := g.outputManager.WritePerf(perfStats, stats.WindowEndFrame); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}
}

// saveSnapshot writes the transported fields to the snapshot directory, or
// under the output directory when none is set.
func (g *Game) saveSnapshot() {
	snap := g.solver.Snapshot()

	var path string
	var err error
	if g.opts.SnapshotDir == "" && g.outputManager != nil {
		path, err = g.outputManager.WriteSnapshot(snap)
	} else {
		dir := g.opts.SnapshotDir
		if dir == "" {
			dir = "snapshots"
		}
		path, err = telemetry.SaveSnapshot(snap, dir)
	}
	if err != nil {
		slog.Error("failed to save snapshot", "error", err)
		return
	}

	slog.Info("snapshot saved", "path", path, "frame", snap.Frame)
}

// restoreSnapshot loads a snapshot taken on the configured domain.
func (g *Game) restoreSnapshot(path string) error {
	snap, err := telemetry.LoadSnapshot(path)
	if err != nil {
		return err
	}
	if err := g.solver.Restore(snap); err != nil {
		return fmt.Errorf("restoring %s: %w", path, err)
	}
	g.simTime = g.solver.Time() + g.solver.DT()
	slog.Info("snapshot restored", "path", path, "frame", snap.Frame, "time", snap.Time)
	return nil
}

// exportPNG writes the last rendered view.
func (g *Game) exportPNG() {
	dir := g.opts.PNGDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		slog.Error("failed to create png dir", "error", err)
		return
	}
	view := g.overlays.ActiveView()
	path := filepath.Join(dir, fmt.Sprintf("%s_%06d.png", view.Field, g.solver.Frame()))
	if err := g.colorizer.WritePNG(path); err != nil {
		slog.Error("failed to write png", "error", err)
		return
	}
	slog.Info("png saved", "path", path)
}
