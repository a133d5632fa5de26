package field

// Grid is a single storage plane: a flat slice of texels in Shape order.
type Grid struct {
	shape Shape
	data  []Texel
}

// NewGrid allocates a zeroed grid.
func NewGrid(shape Shape) *Grid {
	return &Grid{shape: shape, data: make([]Texel, shape.Cells())}
}

// Shape returns the grid resolution.
func (g *Grid) Shape() Shape { return g.shape }

// Len returns the number of texels.
func (g *Grid) Len() int { return len(g.data) }

// At returns the texel at a flat index.
func (g *Grid) At(cell int) Texel { return g.data[cell] }

// Set stores a texel at a flat index.
func (g *Grid) Set(cell int, t Texel) { g.data[cell] = t }

// Texels exposes the backing slice. Callers must not retain it across swaps.
func (g *Grid) Texels() []Texel { return g.data }

// Zero clears every texel.
func (g *Grid) Zero() {
	clear(g.data)
}

// CopyFrom copies src into g. Shapes must match.
func (g *Grid) CopyFrom(src *Grid) {
	copy(g.data, src.data)
}

// Gather evaluates a bilinear footprint over all four channels.
func (g *Grid) Gather(t Tap) Texel {
	var out Texel
	for k := 0; k < 4; k++ {
		w := t.Weight[k]
		if w == 0 {
			continue
		}
		s := g.data[t.Index[k]]
		out[0] += w * s[0]
		out[1] += w * s[1]
		out[2] += w * s[2]
		out[3] += w * s[3]
	}
	return out
}

// GatherScalar evaluates a footprint over channel 0 only.
func (g *Grid) GatherScalar(t Tap) float32 {
	var out float32
	for k := 0; k < 4; k++ {
		if w := t.Weight[k]; w != 0 {
			out += w * g.data[t.Index[k]][0]
		}
	}
	return out
}

// Channel copies one channel into dst (grown if needed) and returns it.
func (g *Grid) Channel(ch int, dst []float32) []float32 {
	if cap(dst) < len(g.data) {
		dst = make([]float32, len(g.data))
	}
	dst = dst[:len(g.data)]
	for i := range g.data {
		dst[i] = g.data[i][ch]
	}
	return dst
}
