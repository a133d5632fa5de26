// Package renderer turns solver fields into images: a CPU colorizer shared by
// the window, the stream and PNG export, plus the raylib texture that shows
// it.
package renderer

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/smoke/field"
	"github.com/pthm-cable/smoke/kernel"
	"github.com/pthm-cable/smoke/topology"
)

// Mode selects how a field is colored.
type Mode uint8

const (
	ModeColor    Mode = iota // channels 0..2 as RGB
	ModeScalar               // channel 0 through the heat palette
	ModeSigned               // channel 0 through the diverging palette
	ModeNormal               // signed normal component, diverging palette
	ModeVelocity             // hue from direction, value from speed
)

// ParseMode resolves a mode name.
func ParseMode(name string) (Mode, error) {
	switch strings.ToLower(name) {
	case "color", "density", "":
		return ModeColor, nil
	case "scalar", "temperature":
		return ModeScalar, nil
	case "signed", "pressure", "divergence":
		return ModeSigned, nil
	case "normal", "vorticity":
		return ModeNormal, nil
	case "velocity":
		return ModeVelocity, nil
	default:
		return 0, fmt.Errorf("unknown render mode %q", name)
	}
}

// ImageSize returns the logical image size for an adapter: the grid itself
// for planar and torus domains, a 2:1 equirectangular atlas for the sphere.
func ImageSize(a topology.Adapter) (w, h int) {
	shape := a.Shape()
	if a.Kind() == topology.Spherical {
		return 4 * shape.Width, 2 * shape.Width
	}
	return shape.Width, shape.Height
}

// Colorizer resamples a field into an RGBA image over logical coordinates.
// Row 0 is the top of the image (V near 1).
type Colorizer struct {
	adapter topology.Adapter
	exec    kernel.Executor
	width   int
	height  int
	taps    []field.Tap
	points  []r3.Vec
	pixels  []color.RGBA

	heat      *Palette
	diverging *Palette

	// Range is the magnitude mapped to full intensity in scalar modes.
	Range float64
}

// NewColorizer precomputes the per-pixel resample footprints.
func NewColorizer(a topology.Adapter, exec kernel.Executor) *Colorizer {
	w, h := ImageSize(a)
	c := &Colorizer{
		adapter:   a,
		exec:      exec,
		width:     w,
		height:    h,
		taps:      make([]field.Tap, w*h),
		points:    make([]r3.Vec, w*h),
		pixels:    make([]color.RGBA, w*h),
		heat:      HeatPalette(),
		diverging: DivergingPalette(),
		Range:     1,
	}
	exec.Run(w*h, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			x, y := i%w, i/w
			p := a.Forward(c.Coord(x, y))
			c.points[i] = p
			c.taps[i] = a.Footprint(p)
		}
	})
	return c
}

// Size returns the image dimensions.
func (c *Colorizer) Size() (w, h int) { return c.width, c.height }

// Coord returns the logical coordinate at the center of pixel (x, y).
func (c *Colorizer) Coord(x, y int) topology.Coord {
	return topology.Coord{
		U: (float64(x) + 0.5) / float64(c.width),
		V: 1 - (float64(y)+0.5)/float64(c.height),
	}
}

// Render colors g and returns the pixel slice, reused across calls.
func (c *Colorizer) Render(g *field.Grid, mode Mode) []color.RGBA {
	if g == nil {
		clear(c.pixels)
		return c.pixels
	}
	scale := 1.0
	if c.Range > 0 {
		scale = 1 / c.Range
	}
	c.exec.Run(len(c.pixels), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			c.pixels[i] = c.shade(g.Gather(c.taps[i]), i, mode, scale)
		}
	})
	return c.pixels
}

func (c *Colorizer) shade(t field.Texel, i int, mode Mode, scale float64) color.RGBA {
	switch mode {
	case ModeScalar:
		return c.heat.At(float64(t[0]) * scale)
	case ModeSigned:
		return c.diverging.At(0.5 + 0.5*float64(t[0])*scale)
	case ModeNormal:
		n := c.adapter.Normal(c.points[i])
		w := r3.Dot(topology.Vec(t), n)
		return c.diverging.At(0.5 + 0.5*w*scale)
	case ModeVelocity:
		v := topology.Vec(t)
		speed := r3.Norm(v)
		if speed == 0 {
			return color.RGBA{A: 255}
		}
		hue := math.Mod(math.Atan2(v.Y, v.X)*180/math.Pi+360, 360)
		return rgba(colorful.Hsv(hue, 1, math.Min(speed*scale, 1)))
	default:
		return rgba(colorful.Color{R: float64(t[0]), G: float64(t[1]), B: float64(t[2])}.Clamped())
	}
}

// Image copies the last render into an image.RGBA.
func (c *Colorizer) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, c.width, c.height))
	for i, p := range c.pixels {
		img.SetRGBA(i%c.width, i/c.width, p)
	}
	return img
}

// WritePNG saves the last render to path.
func (c *Colorizer) WritePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create png: %w", err)
	}
	if err := png.Encode(f, c.Image()); err != nil {
		f.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	return f.Close()
}
