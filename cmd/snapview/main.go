// Snapshot preview tool - colorizes saved solver fields, interactively with
// sliders or straight to PNG.
//
// Usage:
//
//	go run ./cmd/snapview -snapshot snapshots/snapshot_sphere_600.json
//	go run ./cmd/snapview -snapshot s.json -field pressure -png pressure.png
package main

import (
	"flag"
	"fmt"
	"image/color"
	"log"
	"strings"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/floats"

	"github.com/pthm-cable/smoke/config"
	"github.com/pthm-cable/smoke/field"
	"github.com/pthm-cable/smoke/kernel"
	"github.com/pthm-cable/smoke/renderer"
	"github.com/pthm-cable/smoke/telemetry"
	"github.com/pthm-cable/smoke/topology"
)

const (
	windowWidth  = 1100
	windowHeight = 720
	panelWidth   = 300
)

// savedFields are the fields a snapshot carries, in display order.
var savedFields = []string{"density", "velocity", "temperature", "pressure"}

func main() {
	snapPath := flag.String("snapshot", "", "Snapshot JSON to view")
	configPath := flag.String("config", "", "Config for domain radii and spacing (empty = use defaults)")
	fieldName := flag.String("field", "density", "Field to show")
	pngPath := flag.String("png", "", "Write the field to this PNG and exit")
	flag.Parse()

	if *snapPath == "" {
		log.Fatal("--snapshot is required")
	}
	snap, err := telemetry.LoadSnapshot(*snapPath)
	if err != nil {
		log.Fatalf("loading snapshot: %v", err)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	adapter, err := snapshotAdapter(snap, cfg)
	if err != nil {
		log.Fatalf("building domain: %v", err)
	}

	exec := kernel.NewPool(0, cfg.Backend.ParallelThreshold)
	defer exec.Close()
	colorizer := renderer.NewColorizer(adapter, exec)
	grids := snapshotGrids(snap, adapter.Shape())

	if *pngPath != "" {
		if _, err := render(colorizer, grids, *fieldName, 1); err != nil {
			log.Fatal(err)
		}
		if err := colorizer.WritePNG(*pngPath); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("wrote %s (%s, frame %d)\n", *pngPath, *fieldName, snap.Frame)
		return
	}

	rl.InitWindow(windowWidth, windowHeight, "Snapshot Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(30)

	imgW, imgH := colorizer.Size()
	texture := renderer.NewFieldTexture(adapter.Kind() != topology.PlanarClamped)
	defer texture.Unload()

	current := *fieldName
	gain := float32(1)
	needsRender := true
	status := ""

	// Fit the image into the preview area
	previewW := float32(windowWidth - panelWidth - 30)
	scale := min(previewW/float32(imgW), float32(windowHeight-80)/float32(imgH))
	dst := rl.Rectangle{X: 10, Y: 10, Width: float32(imgW) * scale, Height: float32(imgH) * scale}

	for !rl.WindowShouldClose() {
		if needsRender {
			pixels, err := render(colorizer, grids, current, float64(gain))
			if err != nil {
				status = err.Error()
			}
			texture.Update(pixels, imgW, imgH)
			needsRender = false
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		texture.Draw(rl.Rectangle{Width: float32(imgW), Height: float32(imgH)}, dst)
		rl.DrawRectangleLinesEx(dst, 1, rl.DarkGray)

		statsY := int32(dst.Y + dst.Height + 15)
		rl.DrawText(fmt.Sprintf("%s %s | frame %d | t=%.2f | range %.4g",
			snap.Domain, adapter.Shape(), snap.Frame, snap.Time, colorizer.Range), 15, statsY, 16, rl.DarkGray)
		if status != "" {
			rl.DrawText(status, 15, statsY+20, 16, rl.Maroon)
		}

		// Control panel
		panelX := float32(windowWidth - panelWidth)
		panelY := float32(10)

		rl.DrawText("Field", int32(panelX), int32(panelY), 20, rl.DarkGray)
		panelY += 30
		for _, name := range savedFields {
			label := name
			if grids[name] == nil {
				label += " (absent)"
			}
			if name == current {
				label = "> " + label
			}
			if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: panelWidth - 20, Height: 26}, label) && name != current {
				current = name
				status = ""
				needsRender = true
			}
			panelY += 32
		}
		panelY += 10

		// Gain slider divides the auto range
		rl.DrawText("Gain (range = peak / gain)", int32(panelX), int32(panelY), 14, rl.Gray)
		panelY += 18
		newGain := gui.SliderBar(
			rl.Rectangle{X: panelX, Y: panelY, Width: panelWidth - 80, Height: 20},
			"0.1", "10",
			gain, 0.1, 10,
		)
		rl.DrawText(fmt.Sprintf("%.2f", gain), int32(panelX+panelWidth-70), int32(panelY+2), 16, rl.DarkGray)
		if newGain != gain {
			gain = newGain
			needsRender = true
		}
		panelY += 45

		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 130, Height: 30}, "Export PNG") {
			path := strings.TrimSuffix(*snapPath, ".json") + "_" + current + ".png"
			if err := colorizer.WritePNG(path); err != nil {
				status = err.Error()
			} else {
				status = "wrote " + path
			}
		}
		if gui.Button(rl.Rectangle{X: panelX + 140, Y: panelY, Width: 130, Height: 30}, "Reset gain") {
			gain = 1
			needsRender = true
		}

		rl.EndDrawing()
	}
}

// snapshotAdapter rebuilds the domain a snapshot was taken on. Grid sizes
// come from the snapshot; torus radii and spacing from cfg.
func snapshotAdapter(snap *telemetry.Snapshot, cfg *config.Config) (topology.Adapter, error) {
	domain, wrap, _ := strings.Cut(snap.Domain, "-")
	kind, err := topology.ParseKind(domain, wrap)
	if err != nil {
		return nil, err
	}
	cfg.SetKind(kind)
	spec := cfg.TopologySpec()
	if kind == topology.Spherical {
		spec.CubeSize = snap.Width
	} else {
		spec.Width, spec.Height = snap.Width, snap.Height
	}
	return topology.New(spec)
}

// snapshotGrids wraps each saved field in a grid.
func snapshotGrids(snap *telemetry.Snapshot, shape field.Shape) map[string]*field.Grid {
	grids := make(map[string]*field.Grid, len(snap.Fields))
	for name, data := range snap.Fields {
		g := field.NewGrid(shape)
		copy(g.Texels(), data)
		grids[name] = g
	}
	return grids
}

// render sets the colorizer range for name and renders it.
func render(c *renderer.Colorizer, grids map[string]*field.Grid, name string, gain float64) ([]color.RGBA, error) {
	g, ok := grids[name]
	if !ok {
		return c.Render(nil, renderer.ModeColor), fmt.Errorf("snapshot has no %s field", name)
	}
	mode, err := renderer.ParseMode(name)
	if err != nil {
		mode = renderer.ModeColor
	}
	c.Range = peak(g, mode) / gain
	return c.Render(g, mode), nil
}

// peak returns the largest magnitude the mode displays.
func peak(g *field.Grid, mode renderer.Mode) float64 {
	var m telemetry.Meter
	switch mode {
	case renderer.ModeColor:
		return 1
	case renderer.ModeVelocity:
		return max(floats.Max(m.Magnitudes(g)), 1e-6)
	default:
		return max(m.Peak(g, 0), 1e-6)
	}
}
