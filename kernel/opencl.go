//go:build opencl

package kernel

import (
	"errors"
	"fmt"
	"strings"
	"unsafe"

	"github.com/jgillich/go-opencl/cl"

	"github.com/pthm-cable/smoke/field"
)

const jacobiKernelSource = `
__kernel void jacobi(
    __global const int* idx,
    __global const float* w,
    __global const float* x,
    __global const float* b,
    __global float* out,
    const int cells,
    const int taps,
    const float alpha,
    const float rbeta)
{
    int i = get_global_id(0);
    if (i >= cells) {
        return;
    }
    int base = i * taps * 4;
    float sum = 0.0f;
    for (int k = 0; k < taps * 4; k++) {
        sum += w[base + k] * x[idx[base + k]];
    }
    out[i] = (sum + alpha * b[i]) * rbeta;
}`

// OpenCLRelaxer runs the Jacobi loop on an OpenCL device. The stencil table
// is uploaded once per Stencil and reused across frames.
type OpenCLRelaxer struct {
	context *cl.Context
	queue   *cl.CommandQueue
	program *cl.Program
	kernel  *cl.Kernel

	stencil *Stencil
	idxBuf  *cl.MemObject
	wBuf    *cl.MemObject
	bBuf    *cl.MemObject
	currBuf *cl.MemObject
	nextBuf *cl.MemObject

	host       []float32
	rhs        []float32
	deviceName string
}

// NewOpenCLRelaxer selects the first GPU (falling back to CPU) device and
// compiles the relaxation kernel.
func NewOpenCLRelaxer() (*OpenCLRelaxer, error) {
	platforms, err := cl.GetPlatforms()
	if err != nil {
		msg := "querying OpenCL platforms"
		if strings.Contains(err.Error(), "-1001") {
			msg += ": no ICD loader reported any platforms"
		}
		return nil, fmt.Errorf("%s: %w", msg, err)
	}
	if len(platforms) == 0 {
		return nil, errors.New("no OpenCL platforms available")
	}

	device := pickDevice(platforms, cl.DeviceTypeGPU)
	if device == nil {
		device = pickDevice(platforms, cl.DeviceTypeCPU)
	}
	if device == nil {
		return nil, errors.New("no suitable OpenCL devices found")
	}

	context, err := cl.CreateContext([]*cl.Device{device})
	if err != nil {
		return nil, fmt.Errorf("creating OpenCL context: %w", err)
	}
	r := &OpenCLRelaxer{context: context, deviceName: device.Name()}

	r.queue, err = context.CreateCommandQueue(device, 0)
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("creating OpenCL command queue: %w", err)
	}
	r.program, err = context.CreateProgramWithSource([]string{jacobiKernelSource})
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("creating OpenCL program: %w", err)
	}
	if err := r.program.BuildProgram([]*cl.Device{device}, ""); err != nil {
		r.Close()
		if buildErr, ok := err.(cl.BuildError); ok {
			return nil, fmt.Errorf("building OpenCL program: %s", string(buildErr))
		}
		return nil, fmt.Errorf("building OpenCL program: %w", err)
	}
	r.kernel, err = r.program.CreateKernel("jacobi")
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("creating OpenCL kernel: %w", err)
	}
	return r, nil
}

func pickDevice(platforms []*cl.Platform, kind cl.DeviceType) *cl.Device {
	for _, p := range platforms {
		devices, err := p.GetDevices(kind)
		if err != nil && err != cl.ErrDeviceNotFound {
			continue
		}
		if len(devices) > 0 {
			return devices[0]
		}
	}
	return nil
}

func (r *OpenCLRelaxer) Name() string { return "opencl/" + r.deviceName }

// bind uploads the stencil table and (re)allocates the field buffers.
func (r *OpenCLRelaxer) bind(st *Stencil) error {
	if r.stencil == st {
		return nil
	}
	r.releaseBuffers()

	idx, w := st.Flatten()
	cells := st.Cells()
	floatBytes := int(unsafe.Sizeof(float32(0)))

	var err error
	if r.idxBuf, err = r.context.CreateEmptyBuffer(cl.MemReadOnly, len(idx)*int(unsafe.Sizeof(int32(0)))); err != nil {
		return fmt.Errorf("allocating index buffer: %w", err)
	}
	if r.wBuf, err = r.context.CreateEmptyBuffer(cl.MemReadOnly, len(w)*floatBytes); err != nil {
		return fmt.Errorf("allocating weight buffer: %w", err)
	}
	if r.bBuf, err = r.context.CreateEmptyBuffer(cl.MemReadOnly, cells*floatBytes); err != nil {
		return fmt.Errorf("allocating divergence buffer: %w", err)
	}
	if r.currBuf, err = r.context.CreateEmptyBuffer(cl.MemReadWrite, cells*floatBytes); err != nil {
		return fmt.Errorf("allocating pressure buffer: %w", err)
	}
	if r.nextBuf, err = r.context.CreateEmptyBuffer(cl.MemReadWrite, cells*floatBytes); err != nil {
		return fmt.Errorf("allocating pressure buffer: %w", err)
	}

	if _, err := r.queue.EnqueueWriteBuffer(r.idxBuf, false, 0, len(idx)*int(unsafe.Sizeof(int32(0))), unsafe.Pointer(&idx[0]), nil); err != nil {
		return fmt.Errorf("uploading stencil indices: %w", err)
	}
	if _, err := r.queue.EnqueueWriteBufferFloat32(r.wBuf, true, 0, w, nil); err != nil {
		return fmt.Errorf("uploading stencil weights: %w", err)
	}

	r.stencil = st
	r.host = make([]float32, cells)
	r.rhs = make([]float32, cells)
	return nil
}

// Relax falls back to a serial CPU loop if any device call fails.
func (r *OpenCLRelaxer) Relax(x *field.Buffer, b *field.Grid, st *Stencil, p Jacobi) {
	if err := r.relax(x, b, st, p); err != nil {
		NewCPURelaxer(Serial{}).Relax(x, b, st, p)
	}
}

func (r *OpenCLRelaxer) relax(x *field.Buffer, b *field.Grid, st *Stencil, p Jacobi) error {
	if p.Iterations <= 0 {
		return nil
	}
	if err := r.bind(st); err != nil {
		return err
	}

	r.host = x.Read().Channel(0, r.host)
	r.rhs = b.Channel(0, r.rhs)
	if _, err := r.queue.EnqueueWriteBufferFloat32(r.currBuf, false, 0, r.host, nil); err != nil {
		return fmt.Errorf("uploading pressure: %w", err)
	}
	if _, err := r.queue.EnqueueWriteBufferFloat32(r.bBuf, false, 0, r.rhs, nil); err != nil {
		return fmt.Errorf("uploading divergence: %w", err)
	}

	cells := st.Cells()
	curr, next := r.currBuf, r.nextBuf
	for it := 0; it < p.Iterations; it++ {
		if err := r.kernel.SetArgs(
			r.idxBuf, r.wBuf, curr, r.bBuf, next,
			int32(cells), int32(st.Axes()*2), p.Alpha, 1/p.Beta,
		); err != nil {
			return fmt.Errorf("setting kernel arguments: %w", err)
		}
		if _, err := r.queue.EnqueueNDRangeKernel(r.kernel, nil, []int{cells}, nil, nil); err != nil {
			return fmt.Errorf("enqueueing jacobi: %w", err)
		}
		curr, next = next, curr
	}

	if _, err := r.queue.EnqueueReadBufferFloat32(curr, true, 0, r.host, nil); err != nil {
		return fmt.Errorf("reading pressure: %w", err)
	}
	dst := x.Write()
	for i, v := range r.host {
		dst.Set(i, field.Texel{v})
	}
	x.Swap()
	return nil
}

func (r *OpenCLRelaxer) releaseBuffers() {
	for _, buf := range []**cl.MemObject{&r.idxBuf, &r.wBuf, &r.bBuf, &r.currBuf, &r.nextBuf} {
		if *buf != nil {
			(*buf).Release()
			*buf = nil
		}
	}
	r.stencil = nil
}

// Close releases all device objects.
func (r *OpenCLRelaxer) Close() {
	r.releaseBuffers()
	if r.kernel != nil {
		r.kernel.Release()
		r.kernel = nil
	}
	if r.program != nil {
		r.program.Release()
		r.program = nil
	}
	if r.queue != nil {
		r.queue.Release()
		r.queue = nil
	}
	if r.context != nil {
		r.context.Release()
		r.context = nil
	}
}
