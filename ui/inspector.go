package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/smoke/telemetry"
)

// ProbeData holds the field values sampled under the cursor.
type ProbeData struct {
	U, V   float64
	Inside bool

	Density        [3]float32
	Velocity       r3.Vec
	Temperature    float32
	HasTemperature bool
	Pressure       float32
	Divergence     float32
	Vorticity      float32 // normal component

	Window telemetry.WindowStats // last flushed telemetry window
}

func probe(data any) *ProbeData { return data.(*ProbeData) }

// probeSections describes the inspector layout.
var probeSections = []SectionDescriptor{
	{
		ID:    "cell",
		Title: "Probe",
		Fields: []FieldDescriptor{
			{ID: "coord", Label: "UV", Widget: WidgetText, TextGetter: func(d any) string {
				p := probe(d)
				if !p.Inside {
					return "off domain"
				}
				return fmt.Sprintf("%.3f, %.3f", p.U, p.V)
			}},
			{ID: "color", Label: "Color", Widget: WidgetColorSwatch, ColorGetter: func(d any) rl.Color {
				c := probe(d).Density
				return rl.Color{R: unit8(c[0]), G: unit8(c[1]), B: unit8(c[2]), A: 255}
			}},
			{ID: "speed", Label: "Speed", Widget: WidgetBar, Range: FieldRange{Max: 4}, Getter: func(d any) float32 {
				return float32(r3.Norm(probe(d).Velocity))
			}},
			{ID: "temperature", Label: "Temperature", Widget: WidgetBar, Range: FieldRange{Max: 4},
				Visible: func(d any) bool { return probe(d).HasTemperature },
				Getter:  func(d any) float32 { return probe(d).Temperature }},
			{ID: "pressure", Label: "Pressure", Widget: WidgetCenteredBar, Range: CenteredRange(), Getter: func(d any) float32 {
				return probe(d).Pressure
			}},
			{ID: "divergence", Label: "Divergence", Widget: WidgetCenteredBar, Range: FieldRange{Min: -0.1, Max: 0.1}, Getter: func(d any) float32 {
				return probe(d).Divergence
			}},
			{ID: "vorticity", Label: "Vorticity", Widget: WidgetCenteredBar, Range: CenteredRange(), Getter: func(d any) float32 {
				return probe(d).Vorticity
			}},
		},
	},
	{
		ID:      "window",
		Title:   "Window",
		Visible: func(d any) bool { return probe(d).Window.WindowEndFrame > 0 },
		Fields: []FieldDescriptor{
			{ID: "total", Label: "Total", Widget: WidgetText, Format: "%.1f", Getter: func(d any) float32 {
				return float32(probe(d).Window.TotalDensity)
			}},
			{ID: "peak", Label: "Peak", Widget: WidgetText, Format: "%.3f", Getter: func(d any) float32 {
				return float32(probe(d).Window.PeakDensity)
			}},
			{ID: "max_speed", Label: "Max speed", Widget: WidgetText, Format: "%.3f", Getter: func(d any) float32 {
				return float32(probe(d).Window.MaxSpeed)
			}},
			{ID: "div_l1", Label: "|div| sum", Widget: WidgetText, Format: "%.4g", Getter: func(d any) float32 {
				return float32(probe(d).Window.DivergenceL1)
			}},
		},
	},
}

// Inspector renders the probe panel.
type Inspector struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewInspector creates a new inspector panel.
func NewInspector(x, y, width int32) *Inspector {
	return &Inspector{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the inspector position.
func (ins *Inspector) SetPosition(x, y int32) {
	ins.x = x
	ins.y = y
}

// Draw renders the inspector panel for the given data.
func (ins *Inspector) Draw(data *ProbeData) int32 {
	r := ins.renderer
	padding := r.Theme.Padding

	height := padding * 2
	for _, sd := range probeSections {
		height += r.SectionHeight(sd, data)
	}
	r.DrawPanel(ins.x, ins.y, ins.width, height)

	y := ins.y + padding
	for _, sd := range probeSections {
		y = r.DrawSection(ins.x+padding, y, sd, data, ins.width-padding*2)
	}
	return y
}

func unit8(v float32) uint8 {
	return uint8(min(max(v, 0), 1)*255 + 0.5)
}
