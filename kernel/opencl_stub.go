//go:build !opencl

package kernel

import "github.com/pthm-cable/smoke/field"

// OpenCLRelaxer is unavailable in builds without the opencl tag.
type OpenCLRelaxer struct{}

// NewOpenCLRelaxer always fails without the opencl build tag.
func NewOpenCLRelaxer() (*OpenCLRelaxer, error) {
	return nil, ErrOpenCLDisabled
}

func (r *OpenCLRelaxer) Name() string { return "opencl/disabled" }

// Relax runs the serial CPU relaxer, as the tagged build does when the
// device fails.
func (r *OpenCLRelaxer) Relax(x *field.Buffer, b *field.Grid, st *Stencil, p Jacobi) {
	NewCPURelaxer(Serial{}).Relax(x, b, st, p)
}

func (r *OpenCLRelaxer) Close() {}
