package game

import (
	"log/slog"
	"strings"
	"time"

	"github.com/pthm-cable/smoke/components"
)

// logStartup records the resolved domain and backend.
func (g *Game) logStartup() {
	a := g.solver.Adapter()
	p := g.solver.Params()
	slog.Info("solver ready",
		"domain", a.Kind(),
		"shape", a.Shape(),
		"backend", g.solver.Backend(),
		"dt", p.DT,
		"dx", g.solver.DX(),
		"jacobi_iterations", p.JacobiIterations,
		"temperature", p.Temperature,
		"buoyancy", p.Buoyancy.Enabled,
		"emitters", g.emitters.Count(),
		"headless", g.opts.Headless,
	)
}

// logHostPerf logs average host system timings using registry names.
func (g *Game) logHostPerf() {
	avgs := g.hostPerf.Averages()
	if len(avgs) == 0 {
		return
	}
	attrs := make([]any, 0, 2*len(avgs)+2)
	for _, info := range g.registry.ByCategory("host") {
		if d, ok := avgs[info.ID]; ok {
			attrs = append(attrs, strings.ToLower(info.Name)+"_us", d.Round(time.Microsecond).Microseconds())
		}
	}
	attrs = append(attrs, "holding", g.holdingSummary())
	slog.Info("host", attrs...)
}

// holdingSummary lists the emitter kinds holding a solver latch.
func (g *Game) holdingSummary() string {
	var held []string
	for k, on := range g.emitters.Holding() {
		if on {
			held = append(held, components.SourceKind(k).String())
		}
	}
	return strings.Join(held, ",")
}
