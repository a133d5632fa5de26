// Package field provides the double-buffered grid storage shared by every
// simulated quantity.
package field

import "fmt"

// Texel is one 4-channel cell. Scalars live in channel 0, vectors in 0..2.
type Texel [4]float32

// Layout distinguishes flat planar grids from six-face cube maps.
type Layout uint8

const (
	Planar Layout = iota
	Cube
)

func (l Layout) String() string {
	switch l {
	case Planar:
		return "planar"
	case Cube:
		return "cube"
	default:
		return fmt.Sprintf("layout(%d)", uint8(l))
	}
}

// Shape describes the resolution of a grid. For cube layouts Width == Height
// is the face size.
type Shape struct {
	Layout Layout
	Width  int
	Height int
}

// PlanarShape returns a w×h planar shape.
func PlanarShape(w, h int) Shape {
	return Shape{Layout: Planar, Width: w, Height: h}
}

// CubeShape returns a cube-map shape with square faces of the given size.
func CubeShape(size int) Shape {
	return Shape{Layout: Cube, Width: size, Height: size}
}

// Faces returns the number of faces (1 for planar, 6 for cube).
func (s Shape) Faces() int {
	if s.Layout == Cube {
		return 6
	}
	return 1
}

// Cells returns the total number of texels.
func (s Shape) Cells() int {
	return s.Faces() * s.Width * s.Height
}

// Index converts (face, x, y) to a flat cell index.
func (s Shape) Index(face, x, y int) int {
	return (face*s.Height+y)*s.Width + x
}

// Split converts a flat index back to (face, x, y).
func (s Shape) Split(cell int) (face, x, y int) {
	per := s.Width * s.Height
	face = cell / per
	rem := cell - face*per
	y = rem / s.Width
	x = rem - y*s.Width
	return face, x, y
}

func (s Shape) String() string {
	if s.Layout == Cube {
		return fmt.Sprintf("cube %d", s.Width)
	}
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Tap is a bilinear footprint: up to four cells and their weights.
type Tap struct {
	Index  [4]int32
	Weight [4]float32
}

// Single returns a tap reading one cell with full weight.
func Single(cell int) Tap {
	return Tap{Index: [4]int32{int32(cell), int32(cell), int32(cell), int32(cell)}, Weight: [4]float32{1, 0, 0, 0}}
}
