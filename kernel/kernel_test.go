package kernel

import (
	"errors"
	"math"
	"sync/atomic"
	"testing"

	"github.com/pthm-cable/smoke/field"
	"github.com/pthm-cable/smoke/topology"
)

func TestPoolCoversEveryCellOnce(t *testing.T) {
	pool := NewPool(4, 16)
	defer pool.Close()

	for _, n := range []int{0, 1, 15, 16, 17, 1000, 4099} {
		hits := make([]int32, n)
		pool.Run(n, func(lo, hi int) {
			for i := lo; i < hi; i++ {
				atomic.AddInt32(&hits[i], 1)
			}
		})
		for i, h := range hits {
			if h != 1 {
				t.Fatalf("n=%d: cell %d visited %d times", n, i, h)
			}
		}
	}
}

func TestPoolCloseIdempotent(t *testing.T) {
	pool := NewPool(2, 1)
	pool.Run(100, func(lo, hi int) {})
	pool.Close()
	pool.Close()

	// Restarts lazily after close.
	var count int32
	pool.Run(10, func(lo, hi int) { atomic.AddInt32(&count, int32(hi-lo)) })
	pool.Close()
	if count != 10 {
		t.Errorf("expected 10 cells after restart, got %d", count)
	}
}

func TestNewExecutor(t *testing.T) {
	exec, err := NewExecutor("serial", 0, 0)
	if err != nil || exec.Name() != "serial" {
		t.Fatalf("expected serial executor, got %v, %v", exec, err)
	}
	exec, err = NewExecutor("pool", 3, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer exec.Close()
	if p, ok := exec.(*Pool); !ok || p.Workers() != 3 {
		t.Errorf("expected pool with 3 workers, got %v", exec.Name())
	}
	for _, name := range []string{"gpu", "opencl"} {
		if _, err := NewExecutor(name, 0, 0); err == nil {
			t.Errorf("expected error for executor %q", name)
		}
	}
}

func TestStencilLayout(t *testing.T) {
	a := topology.NewPlanar(6, 4, true, 0)
	st := BuildStencil(a, Serial{})
	if st.Cells() != 24 || st.Axes() != 2 {
		t.Fatalf("unexpected stencil %d cells %d axes", st.Cells(), st.Axes())
	}
	s := a.Shape()
	minus, plus := st.Neighbors(s.Index(0, 0, 0), 0)
	if minus.Index[0] != int32(s.Index(0, 5, 0)) || plus.Index[0] != int32(s.Index(0, 1, 0)) {
		t.Errorf("unexpected x neighbors %d, %d", minus.Index[0], plus.Index[0])
	}
	if len(st.Cell(3)) != 4 {
		t.Errorf("expected 4 taps per planar cell, got %d", len(st.Cell(3)))
	}

	idx, w := st.Flatten()
	if len(idx) != 24*4*4 || len(w) != len(idx) {
		t.Errorf("unexpected flattened sizes %d, %d", len(idx), len(w))
	}
}

func TestCPURelaxerSerialMatchesPool(t *testing.T) {
	a := topology.NewPlanar(64, 64, true, 0)
	serialSt := BuildStencil(a, Serial{})
	pool := NewPool(4, 64)
	defer pool.Close()
	poolSt := BuildStencil(a, pool)

	b := field.NewGrid(a.Shape())
	for i := 0; i < b.Len(); i++ {
		b.Set(i, field.Texel{float32(math.Sin(float64(i) * 0.37))})
	}
	p := Jacobi{Alpha: -1, Beta: 4, Iterations: 20}

	x1 := field.NewBuffer(a.Shape())
	x2 := field.NewBuffer(a.Shape())
	NewCPURelaxer(Serial{}).Relax(x1, b, serialSt, p)
	NewCPURelaxer(pool).Relax(x2, b, poolSt, p)

	for i := 0; i < b.Len(); i++ {
		if x1.Read().At(i) != x2.Read().At(i) {
			t.Fatalf("cell %d: serial %v != pool %v", i, x1.Read().At(i), x2.Read().At(i))
		}
	}
}

func TestCPURelaxerConstantSolution(t *testing.T) {
	// With b = 0 a constant field is a fixed point of the iteration.
	a := topology.NewPlanar(8, 8, true, 0)
	st := BuildStencil(a, Serial{})
	x := field.NewBuffer(a.Shape())
	for i := 0; i < x.Read().Len(); i++ {
		x.Read().Set(i, field.Texel{2})
	}
	NewCPURelaxer(Serial{}).Relax(x, field.NewGrid(a.Shape()), st, Jacobi{Alpha: -1, Beta: 4, Iterations: 7})
	for i := 0; i < x.Read().Len(); i++ {
		if got := x.Read().At(i)[0]; math.Abs(float64(got-2)) > 1e-6 {
			t.Fatalf("cell %d drifted to %f", i, got)
		}
	}
}

func TestOpenCLRelaxer(t *testing.T) {
	r, err := NewOpenCLRelaxer()
	if errors.Is(err, ErrOpenCLDisabled) {
		t.Skip("built without opencl tag")
	}
	if err != nil {
		t.Skipf("no OpenCL device: %v", err)
	}
	defer r.Close()

	a := topology.NewPlanar(32, 32, true, 0)
	st := BuildStencil(a, Serial{})
	b := field.NewGrid(a.Shape())
	for i := 0; i < b.Len(); i++ {
		b.Set(i, field.Texel{float32(math.Cos(float64(i) * 0.11))})
	}
	p := Jacobi{Alpha: -1, Beta: 4, Iterations: 10}

	want := field.NewBuffer(a.Shape())
	got := field.NewBuffer(a.Shape())
	NewCPURelaxer(Serial{}).Relax(want, b, st, p)
	r.Relax(got, b, st, p)

	for i := 0; i < b.Len(); i++ {
		if d := math.Abs(float64(want.Read().At(i)[0] - got.Read().At(i)[0])); d > 1e-4 {
			t.Fatalf("cell %d: device result differs by %g", i, d)
		}
	}
}
