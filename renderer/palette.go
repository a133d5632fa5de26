package renderer

import (
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

const lutSize = 256

// Palette maps a value in [0,1] to a color through a precomputed table.
type Palette struct {
	lut [lutSize]color.RGBA
}

// NewPalette blends between stops in Lab space. Stops are spread evenly
// over [0,1].
func NewPalette(stops ...colorful.Color) *Palette {
	p := &Palette{}
	if len(stops) == 0 {
		stops = []colorful.Color{{}, {R: 1, G: 1, B: 1}}
	}
	if len(stops) == 1 {
		stops = append(stops, stops[0])
	}
	segments := float64(len(stops) - 1)
	for i := range p.lut {
		t := float64(i) / (lutSize - 1) * segments
		seg := min(int(t), len(stops)-2)
		c := stops[seg].BlendLab(stops[seg+1], t-float64(seg)).Clamped()
		p.lut[i] = rgba(c)
	}
	return p
}

// At returns the color for t, clamped to [0,1].
func (p *Palette) At(t float64) color.RGBA {
	if math.IsNaN(t) || t <= 0 {
		return p.lut[0]
	}
	if t >= 1 {
		return p.lut[lutSize-1]
	}
	return p.lut[int(t*(lutSize-1)+0.5)]
}

// HeatPalette runs black, deep red, orange, white.
func HeatPalette() *Palette {
	return NewPalette(
		colorful.Color{},
		colorful.Color{R: 0.55, G: 0.05, B: 0.05},
		colorful.Color{R: 1, G: 0.6, B: 0.1},
		colorful.Color{R: 1, G: 1, B: 1},
	)
}

// DivergingPalette runs blue, black, red; 0.5 is zero.
func DivergingPalette() *Palette {
	return NewPalette(
		colorful.Color{R: 0.2, G: 0.5, B: 1},
		colorful.Color{},
		colorful.Color{R: 1, G: 0.3, B: 0.2},
	)
}

func rgba(c colorful.Color) color.RGBA {
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}
