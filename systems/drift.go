package systems

import (
	"math/rand"

	"github.com/lucasb-eyer/go-colorful"
)

// ColorDrift random-walks the smoke color, one bounded step per channel per
// call, clamped to [0,1].
type ColorDrift struct {
	color colorful.Color
	step  float64
	rng   *rand.Rand
}

// NewColorDrift starts the walk at start. A zero step keeps the color fixed.
func NewColorDrift(start colorful.Color, step float64, seed int64) *ColorDrift {
	return &ColorDrift{color: start.Clamped(), step: step, rng: rand.New(rand.NewSource(seed))}
}

// Color returns the current color.
func (d *ColorDrift) Color() colorful.Color { return d.color }

// Next advances the walk and returns the new color.
func (d *ColorDrift) Next() colorful.Color {
	if d.step <= 0 {
		return d.color
	}
	d.color.R += (d.rng.Float64() - 0.5) * d.step
	d.color.G += (d.rng.Float64() - 0.5) * d.step
	d.color.B += (d.rng.Float64() - 0.5) * d.step
	d.color = d.color.Clamped()
	return d.color
}
