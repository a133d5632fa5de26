package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/smoke/config"
	"github.com/pthm-cable/smoke/game"
	"github.com/pthm-cable/smoke/topology"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	domain := flag.String("domain", "", "Domain override: planar, sphere or torus (empty = use config)")
	wrap := flag.String("wrap", "", "Planar boundary override: clamp or wrap (empty = use config)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in simulation seconds (0 = use config)")
	snapshotDir := flag.String("snapshot-dir", "", "Directory for snapshot files")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	pngDir := flag.String("png-dir", ".", "Directory for PNG exports")
	restore := flag.String("restore", "", "Snapshot to load before the first step")
	seed := flag.Int64("seed", 0, "Color drift seed (0 = time-based)")
	maxSteps := flag.Int("max-steps", 0, "Stop after N solver steps (0 = unlimited)")
	stepsPerUpdate := flag.Int("steps-per-update", 1, "Solver steps per update call (higher = faster headless runs)")

	flag.Parse()

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	if *domain != "" || *wrap != "" {
		d, w := *domain, *wrap
		if d == "" {
			d = cfg.Domain.Kind
		}
		if w == "" {
			w = cfg.Domain.Planar.Wrap
		}
		kind, err := topology.ParseKind(d, w)
		if err != nil {
			slog.Error("invalid domain override", "error", err)
			os.Exit(1)
		}
		cfg.SetKind(kind)
	}

	// Set up seed
	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Build game options
	opts := game.Options{
		Seed:           rngSeed,
		LogStats:       *logStats,
		StatsWindowSec: *statsWindow,
		SnapshotDir:    *snapshotDir,
		OutputDir:      *outputDir,
		PNGDir:         *pngDir,
		RestorePath:    *restore,
		Headless:       *headless,
		StepsPerUpdate: *stepsPerUpdate,
	}

	if *headless {
		// Headless mode - pure CPU simulation, no raylib needed
		g, err := game.NewGameWithOptions(opts)
		if err != nil {
			slog.Error("failed to start", "error", err)
			os.Exit(1)
		}
		defer g.Unload()

		slog.Info("starting headless simulation",
			"domain", cfg.Derived.Kind,
			"seed", rngSeed,
			"max_steps", *maxSteps,
			"steps_per_update", *stepsPerUpdate,
		)

		for {
			g.UpdateHeadless()

			if *maxSteps > 0 && g.Frame() >= *maxSteps {
				slog.Info("max steps reached", "frame", g.Frame(), "time", g.SimTime())
				return
			}
		}
	}

	// Graphical mode
	rl.SetConfigFlags(rl.FlagWindowResizable)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), game.Title)
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	g, err := game.NewGameWithOptions(opts)
	if err != nil {
		slog.Error("failed to start", "error", err)
		return
	}
	defer g.Unload()

	for !rl.WindowShouldClose() {
		g.Update()
		g.Draw()

		if *maxSteps > 0 && g.Frame() >= *maxSteps {
			break
		}
	}
}
