package game

import (
	"context"
	"log/slog"
	"time"

	"github.com/pthm-cable/smoke/config"
	"github.com/pthm-cable/smoke/renderer"
	"github.com/pthm-cable/smoke/solver"
	"github.com/pthm-cable/smoke/stream"
)

// startStream serves the configured channel to websocket clients.
func (g *Game) startStream(cfg *config.Config) error {
	kind, err := solver.ParseFieldKind(cfg.Stream.Channel)
	if err != nil {
		return err
	}
	mode, err := renderer.ParseMode(cfg.Stream.Channel)
	if err != nil {
		return err
	}

	adapter := g.solver.Adapter()
	g.streamField = kind
	g.streamMode = mode
	g.streamInterval = time.Duration(cfg.Stream.FrameIntervalMS) * time.Millisecond
	g.streamColorizer = renderer.NewColorizer(adapter, g.exec)

	w, h := g.streamColorizer.Size()
	g.stream = stream.NewServer(cfg.Stream.Addr, g.streamInterval, stream.Hello{
		Domain:  adapter.Kind().String(),
		Field:   kind.String(),
		Width:   w,
		Height:  h,
		Backend: g.solver.Backend(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	g.cancel = cancel
	return g.stream.Start(ctx)
}

// drainCommands applies queued client commands to the solver.
func (g *Game) drainCommands() {
	radius := g.cfg.Derived.Radius
	g.stream.Drain(func(cmd stream.Command) {
		if err := cmd.Apply(g.solver, radius); err != nil {
			slog.Warn("stream command rejected", "op", cmd.Op, "kind", cmd.Kind, "error", err)
			return
		}
		g.collector.RecordCommand()
	})
}

// publishStream renders the streamed channel when clients are waiting and
// the frame interval has passed.
func (g *Game) publishStream() {
	if g.stream == nil || g.stream.Clients() == 0 {
		return
	}
	if time.Since(g.lastPublish) < g.streamInterval {
		return
	}
	g.lastPublish = time.Now()

	g.hostPerf.Time("stream", func() {
		grid := g.solver.Field(g.streamField)
		g.streamColorizer.Range = peakRange(&g.meter, grid, g.streamMode)
		pixels := g.streamColorizer.Render(grid, g.streamMode)
		w, h := g.streamColorizer.Size()
		g.stream.Publish(g.solver.Frame(), g.solver.Time(), w, h, pixels)
	})
}
