package kernel

import (
	"github.com/pthm-cable/smoke/field"
	"github.com/pthm-cable/smoke/topology"
)

// Stencil holds the precomputed neighbor footprints of every cell. Entries
// are ordered cell-major, then axis, then sign (-1 before +1).
type Stencil struct {
	cells int
	axes  int
	taps  []field.Tap
}

// BuildStencil samples adapter neighbor footprints for every cell.
func BuildStencil(a topology.Adapter, exec Executor) *Stencil {
	cells := a.Shape().Cells()
	axes := a.Axes()
	s := &Stencil{cells: cells, axes: axes, taps: make([]field.Tap, cells*axes*2)}
	exec.Run(cells, func(lo, hi int) {
		for cell := lo; cell < hi; cell++ {
			for axis := 0; axis < axes; axis++ {
				base := (cell*axes + axis) * 2
				s.taps[base] = a.Stencil(cell, axis, -1)
				s.taps[base+1] = a.Stencil(cell, axis, 1)
			}
		}
	})
	return s
}

// Cells returns the number of cells covered.
func (s *Stencil) Cells() int { return s.cells }

// Axes returns the stencil axis count.
func (s *Stencil) Axes() int { return s.axes }

// Neighbors returns the (minus, plus) footprints of cell along axis.
func (s *Stencil) Neighbors(cell, axis int) (minus, plus field.Tap) {
	base := (cell*s.axes + axis) * 2
	return s.taps[base], s.taps[base+1]
}

// Cell returns all 2·Axes footprints of one cell.
func (s *Stencil) Cell(cell int) []field.Tap {
	n := s.axes * 2
	return s.taps[cell*n : (cell+1)*n]
}

// Flatten returns the stencil as parallel index/weight arrays, four entries
// per footprint, for upload to a device.
func (s *Stencil) Flatten() (idx []int32, w []float32) {
	idx = make([]int32, len(s.taps)*4)
	w = make([]float32, len(s.taps)*4)
	for i, t := range s.taps {
		copy(idx[i*4:], t.Index[:])
		copy(w[i*4:], t.Weight[:])
	}
	return idx, w
}
