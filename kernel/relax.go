package kernel

import (
	"errors"

	"github.com/pthm-cable/smoke/field"
)

// ErrOpenCLDisabled is returned by NewOpenCLRelaxer in builds without the
// opencl tag.
var ErrOpenCLDisabled = errors.New("OpenCL support is not enabled; rebuild with -tags opencl")

// Jacobi parameterizes a relaxation run: x = (Σ neighbors(x) + Alpha·b) / Beta.
type Jacobi struct {
	Alpha      float32
	Beta       float32
	Iterations int
}

// Relaxer runs Jacobi iterations on x (channel 0) against b. On return the
// relaxed values are on x's read side.
type Relaxer interface {
	Name() string
	Relax(x *field.Buffer, b *field.Grid, st *Stencil, p Jacobi)
	Close()
}

// CPURelaxer runs each iteration as one executor pass.
type CPURelaxer struct {
	exec Executor
}

// NewCPURelaxer wraps an executor.
func NewCPURelaxer(exec Executor) *CPURelaxer {
	return &CPURelaxer{exec: exec}
}

func (r *CPURelaxer) Name() string { return "cpu/" + r.exec.Name() }

func (r *CPURelaxer) Relax(x *field.Buffer, b *field.Grid, st *Stencil, p Jacobi) {
	rbeta := 1 / p.Beta
	for it := 0; it < p.Iterations; it++ {
		src, dst := x.Read(), x.Write()
		r.exec.Run(st.Cells(), func(lo, hi int) {
			for cell := lo; cell < hi; cell++ {
				var sum float32
				for _, t := range st.Cell(cell) {
					sum += src.GatherScalar(t)
				}
				dst.Set(cell, field.Texel{(sum + p.Alpha*b.At(cell)[0]) * rbeta})
			}
		})
		x.Swap()
	}
}

// Close is a no-op; the executor is owned by the caller.
func (r *CPURelaxer) Close() {}
