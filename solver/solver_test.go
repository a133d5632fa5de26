package solver

import (
	"errors"
	"math"
	"testing"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/smoke/config"
	"github.com/pthm-cable/smoke/field"
	"github.com/pthm-cable/smoke/kernel"
	"github.com/pthm-cable/smoke/telemetry"
	"github.com/pthm-cable/smoke/topology"
)

func init() {
	config.MustInit("")
}

// cellAt returns the planar cell containing logical position (u, v).
func cellAt(s *Solver, u, v float64) int {
	shape := s.Adapter().Shape()
	return shape.Index(0, int(u*float64(shape.Width)), int(v*float64(shape.Height)))
}

func peak(g *field.Grid) float64 {
	var m float64
	for _, t := range g.Texels() {
		m = max(m, DensityMagnitude(t))
	}
	return m
}

func total(g *field.Grid) float64 {
	var sum float64
	for _, t := range g.Texels() {
		sum += float64(t[0]) + float64(t[1]) + float64(t[2])
	}
	return sum
}

func quietParams(kind topology.Kind) Params {
	p := DefaultParams(kind)
	p.Buoyancy.Enabled = false
	p.VorticityWeight = 0
	return p
}

func TestEndToEndPlanarWrapped(t *testing.T) {
	s := New(topology.NewPlanar(64, 64, true, 1))
	defer s.Close()

	s.AddExternalDensity(topology.Coord{U: 0.5, V: 0.5}, colorful.Color{R: 1}, 0.05)
	s.Step(0)

	dens := s.Field(Density)
	center := DensityMagnitude(dens.At(cellAt(s, 0.5, 0.5)))
	if math.Abs(center-1) > 0.01 {
		t.Errorf("density at center = %v, want ≈1", center)
	}
	if corner := DensityMagnitude(dens.At(cellAt(s, 0, 0))); corner > 1e-3 {
		t.Errorf("density at origin = %v, want ≈0", corner)
	}

	s.RemoveExternalDensity()
	prev := peak(s.Field(Density))
	for i := 0; i < 50; i++ {
		s.Step(float64(i + 1))
		p := peak(s.Field(Density))
		if p >= prev {
			t.Fatalf("step %d: peak %v did not decrease from %v", i+1, p, prev)
		}
		prev = p
	}
	if s.Frame() != 51 {
		t.Errorf("frame = %d, want 51", s.Frame())
	}
}

func TestDissipationLaw(t *testing.T) {
	s := New(topology.NewPlanar(32, 32, true, 1), WithParams(quietParams(topology.PlanarWrapped)))
	defer s.Close()

	s.AddExternalDensity(topology.Coord{U: 0.3, V: 0.6}, colorful.Color{R: 0.5, G: 1, B: 0.25}, 0.01)
	s.Step(0)
	s.RemoveExternalDensity()
	initial := total(s.Field(Density))
	if initial <= 0 {
		t.Fatal("no density injected")
	}

	const steps = 40
	for i := 0; i < steps; i++ {
		s.Step(0)
	}
	want := initial * math.Pow(0.99, steps)
	got := total(s.Field(Density))
	if math.Abs(got-want) > 1e-4*initial {
		t.Errorf("total after %d steps = %v, want %v", steps, got, want)
	}
}

func TestInjectionLocalityPlanar(t *testing.T) {
	s := New(topology.NewPlanar(64, 64, true, 1), WithParams(quietParams(topology.PlanarWrapped)))
	defer s.Close()

	pos := topology.Coord{U: 0.9, V: 0.1}
	const radius = 0.02
	s.AddExternalDensity(pos, colorful.Color{R: 1, G: 1, B: 1}, radius)
	s.Step(0)

	a := s.Adapter()
	c := a.Forward(pos)
	dens := s.Field(Density)
	for cell := 0; cell < dens.Len(); cell++ {
		d := a.Distance(a.Center(cell), c)
		want := math.Exp(-d * d / radius)
		if got := float64(dens.At(cell)[0]); math.Abs(got-want) > 1e-5 {
			t.Fatalf("cell %d at distance %v: got %v, want %v", cell, d, got, want)
		}
	}
	// Wrapped across the corner: (0.0, 0.0) is close to (0.9, 0.1).
	if v := dens.At(cellAt(s, 0.0, 0.0))[0]; v < 0.1 {
		t.Errorf("wrapped neighbor got %v, want noticeable density", v)
	}
}

func TestInjectionLocalitySphere(t *testing.T) {
	s := New(topology.NewSphere(16, 0))
	defer s.Close()

	pos := topology.Coord{U: 0.25, V: 0.6}
	const radius = 0.05
	s.AddExternalDensity(pos, colorful.Color{G: 1}, radius)
	s.Step(0)

	a := s.Adapter()
	c := a.Forward(pos)
	dens := s.Field(Density)
	var near, far int
	for cell := 0; cell < dens.Len(); cell++ {
		d := a.Distance(a.Center(cell), c)
		want := math.Exp(-d * d / radius)
		got := float64(dens.At(cell)[1])
		if math.Abs(got-want) > 1e-5 {
			t.Fatalf("cell %d at distance %v: got %v, want %v", cell, d, got, want)
		}
		if d < 0.1 {
			near++
		}
		if d > 2 && got > 1e-6 {
			far++
		}
	}
	if near == 0 {
		t.Error("no cells near the source")
	}
	if far != 0 {
		t.Errorf("%d distant cells received density", far)
	}
}

func TestSourceLatch(t *testing.T) {
	s := New(topology.NewPlanar(32, 32, true, 1), WithParams(quietParams(topology.PlanarWrapped)))
	defer s.Close()

	s.AddExternalDensity(topology.Coord{U: 0.1, V: 0.1}, colorful.Color{R: 1}, 0.01)
	s.AddExternalDensity(topology.Coord{U: 0.5, V: 0.5}, colorful.Color{R: 1}, 0.01)
	d, v, tmp := s.Sources()
	if d == nil || d.Pos != (topology.Coord{U: 0.5, V: 0.5}) {
		t.Fatalf("latest density command should replace the first: %+v", d)
	}
	if v != nil || tmp != nil {
		t.Error("unexpected active sources")
	}

	center := cellAt(s, 0.5, 0.5)
	s.Step(0)
	first := s.Field(Density).At(center)[0]
	s.Step(0)
	second := s.Field(Density).At(center)[0]
	if second <= first {
		t.Errorf("held source should accumulate: %v then %v", first, second)
	}
	if s.Field(Density).At(cellAt(s, 0.1, 0.1))[0] > 1e-3 {
		t.Error("replaced source still injecting")
	}

	s.RemoveExternalDensity()
	s.Step(0)
	third := s.Field(Density).At(center)[0]
	if third >= second {
		t.Errorf("removed source kept injecting: %v then %v", second, third)
	}
}

func TestVelocitySourceMovesDensity(t *testing.T) {
	s := New(topology.NewPlanar(64, 64, true, 1), WithParams(quietParams(topology.PlanarWrapped)))
	defer s.Close()

	pos := topology.Coord{U: 0.5, V: 0.5}
	s.AddExternalDensity(pos, colorful.Color{R: 1}, 0.002)
	s.Step(0)
	s.RemoveExternalDensity()

	s.AddExternalVelocity(pos, r3.Vec{X: 1}, 0.01)
	for i := 0; i < 3; i++ {
		s.Step(0)
	}

	dens := s.Field(Density)
	var cx, sum float64
	for cell := 0; cell < dens.Len(); cell++ {
		m := float64(dens.At(cell)[0])
		cx += m * s.Adapter().Center(cell).X
		sum += m
	}
	if cx/sum <= 0.5 {
		t.Errorf("density centroid x = %v, want > 0.5", cx/sum)
	}
}

func TestTemperatureDisabled(t *testing.T) {
	s := New(topology.NewSphere(8, 0))
	defer s.Close()

	if err := s.AddExternalTemperature(topology.Coord{}, 1, 0.1); !errors.Is(err, ErrNoTemperature) {
		t.Errorf("expected ErrNoTemperature, got %v", err)
	}
	if s.Field(Temperature) != nil {
		t.Error("temperature field should be nil")
	}
}

func TestBuoyancyLiftsHotGas(t *testing.T) {
	p := DefaultParams(topology.PlanarWrapped)
	p.Buoyancy.Kappa = 0
	s := New(topology.NewPlanar(32, 32, true, 1), WithParams(p))
	defer s.Close()

	pos := topology.Coord{U: 0.5, V: 0.5}
	if err := s.AddExternalTemperature(pos, 10, 0.01); err != nil {
		t.Fatal(err)
	}
	s.Step(0)
	s.Step(0)

	v := topology.Vec(s.Field(Velocity).At(cellAt(s, 0.5, 0.5)))
	if v.Y <= 0 {
		t.Errorf("velocity above hot spot = %v, want positive y", v)
	}
}

func TestSetWrapModeReallocates(t *testing.T) {
	s := New(topology.NewPlanar(32, 16, true, 1))
	defer s.Close()

	s.AddExternalDensity(topology.Coord{U: 0.5, V: 0.5}, colorful.Color{R: 1}, 0.01)
	s.Step(0)
	if total(s.Field(Density)) == 0 {
		t.Fatal("no density injected")
	}

	if err := s.SetWrapMode(false); err != nil {
		t.Fatal(err)
	}
	if s.Adapter().Kind() != topology.PlanarClamped {
		t.Errorf("kind = %v, want planar-clamped", s.Adapter().Kind())
	}
	if shape := s.Adapter().Shape(); shape.Width != 32 || shape.Height != 16 {
		t.Errorf("shape changed to %v", shape)
	}
	if total(s.Field(Density)) != 0 {
		t.Error("fields should be reset after reconstruction")
	}
	if d, _, _ := s.Sources(); d != nil {
		t.Error("sources should be cleared after reconstruction")
	}
	s.Step(0)

	sphere := New(topology.NewSphere(8, 0))
	defer sphere.Close()
	if err := sphere.SetWrapMode(true); err == nil {
		t.Error("expected error for wrap mode on a sphere")
	}
}

func TestSetWrapModeKeepsParams(t *testing.T) {
	p := DefaultParams(topology.PlanarWrapped)
	p.JacobiBeta = 5
	p.JacobiIterations = 12
	p.DT = 0.5
	s := New(topology.NewPlanar(16, 16, true, 1), WithParams(p), WithExecutor(kernel.Serial{}))
	defer s.Close()

	if err := s.SetWrapMode(false); err != nil {
		t.Fatal(err)
	}
	got := s.Params()
	if got.JacobiBeta != 5 || got.JacobiIterations != 12 || got.DT != 0.5 {
		t.Errorf("params after wrap toggle = beta %v iters %d dt %v, want 5 12 0.5",
			got.JacobiBeta, got.JacobiIterations, got.DT)
	}
	if s.Field(Temperature) == nil {
		t.Error("planar solver lost its temperature field")
	}
}

func TestSetAdapterPlanarToSphere(t *testing.T) {
	s := New(topology.NewPlanar(32, 32, true, 1), WithExecutor(kernel.Serial{}))
	defer s.Close()

	s.SetAdapter(topology.NewSphere(16, 0))
	got, want := s.Params(), DefaultParams(topology.Spherical)
	if got.DT != want.DT || got.JacobiIterations != want.JacobiIterations || got.JacobiBeta != want.JacobiBeta {
		t.Errorf("sphere params = dt %v iters %d beta %v, want dt %v iters %d beta %v",
			got.DT, got.JacobiIterations, got.JacobiBeta, want.DT, want.JacobiIterations, want.JacobiBeta)
	}
	if got.Temperature || got.Buoyancy.Enabled {
		t.Errorf("sphere kept temperature=%v buoyancy=%v", got.Temperature, got.Buoyancy.Enabled)
	}
	if s.Field(Temperature) != nil {
		t.Error("sphere should have no temperature field")
	}
	if err := s.AddExternalTemperature(topology.Coord{U: 0.5, V: 0.5}, 1, 0.1); !errors.Is(err, ErrNoTemperature) {
		t.Errorf("AddExternalTemperature error = %v, want ErrNoTemperature", err)
	}
	s.Step(0)

	s.SetAdapter(topology.NewPlanar(32, 32, false, 1))
	if back := s.Params(); back.DT != 1 || !back.Temperature || s.Field(Temperature) == nil {
		t.Errorf("planar params not restored: dt %v temperature %v", back.DT, back.Temperature)
	}
}

func TestSphereVelocityStaysTangent(t *testing.T) {
	s := New(topology.NewSphere(16, 0))
	defer s.Close()

	s.AddExternalVelocity(topology.Coord{U: 0.1, V: 0.5}, r3.Vec{X: 0.3, Y: 1, Z: 0.5}, 0.1)
	s.AddExternalDensity(topology.Coord{U: 0.1, V: 0.5}, colorful.Color{R: 1}, 0.1)
	for i := 0; i < 10; i++ {
		s.Step(0)
	}

	a := s.Adapter()
	vel := s.Field(Velocity)
	var moving int
	for cell := 0; cell < vel.Len(); cell++ {
		v := topology.Vec(vel.At(cell))
		n := a.Normal(a.Center(cell))
		if d := math.Abs(r3.Dot(v, n)); d > 1e-4 {
			t.Fatalf("cell %d: normal component %v", cell, d)
		}
		if r3.Norm(v) > 1e-3 {
			moving++
		}
	}
	if moving == 0 {
		t.Error("velocity source had no effect")
	}
}

func TestTorusStepStaysFinite(t *testing.T) {
	s := New(topology.NewTorus(48, 20, 12, 5, 0))
	defer s.Close()

	s.AddExternalDensity(topology.Coord{U: 0.5, V: 0.25}, colorful.Color{B: 1}, 4)
	s.AddExternalVelocity(topology.Coord{U: 0.5, V: 0.25}, r3.Vec{Y: 1}, 4)
	for i := 0; i < 10; i++ {
		s.Step(0)
	}
	for _, kind := range []FieldKind{Velocity, Density, Pressure, Vorticity} {
		for i, tx := range s.Field(kind).Texels() {
			for _, c := range tx {
				if math.IsNaN(float64(c)) || math.IsInf(float64(c), 0) {
					t.Fatalf("%v[%d] not finite: %v", kind, i, tx)
				}
			}
		}
	}
	if total(s.Field(Density)) <= 0 {
		t.Error("torus density missing")
	}
}

func TestSerialMatchesPool(t *testing.T) {
	run := func(exec kernel.Executor) *field.Grid {
		s := New(topology.NewPlanar(48, 48, true, 1), WithExecutor(exec))
		defer s.Close()
		s.AddExternalDensity(topology.Coord{U: 0.4, V: 0.4}, colorful.Color{R: 1, G: 0.5}, 0.01)
		s.AddExternalVelocity(topology.Coord{U: 0.4, V: 0.4}, r3.Vec{X: 1, Y: 0.5}, 0.01)
		for i := 0; i < 5; i++ {
			s.Step(0)
		}
		out := field.NewGrid(s.Field(Density).Shape())
		out.CopyFrom(s.Field(Density))
		return out
	}

	pool := kernel.NewPool(4, 64)
	defer pool.Close()
	serial := run(kernel.Serial{})
	parallel := run(pool)
	for i := range serial.Texels() {
		if serial.At(i) != parallel.At(i) {
			t.Fatalf("cell %d: serial %v, pool %v", i, serial.At(i), parallel.At(i))
		}
	}
}

func TestSnapshotRestore(t *testing.T) {
	s := New(topology.NewPlanar(16, 16, true, 1))
	defer s.Close()
	s.AddExternalDensity(topology.Coord{U: 0.5, V: 0.5}, colorful.Color{R: 1}, 0.01)
	s.AddExternalVelocity(topology.Coord{U: 0.5, V: 0.5}, r3.Vec{X: 1}, 0.01)
	for i := 0; i < 3; i++ {
		s.Step(float64(i))
	}

	snap := s.Snapshot()
	if _, ok := snap.Fields["vorticity"]; ok {
		t.Error("vorticity should not be snapshotted")
	}

	r := New(topology.NewPlanar(16, 16, true, 1))
	defer r.Close()
	if err := r.Restore(snap); err != nil {
		t.Fatal(err)
	}
	if r.Frame() != 3 || r.Time() != 2 {
		t.Errorf("frame/time = %d/%v", r.Frame(), r.Time())
	}
	for _, kind := range []FieldKind{Velocity, Density, Temperature, Pressure} {
		want, got := s.Field(kind), r.Field(kind)
		for i := range want.Texels() {
			if want.At(i) != got.At(i) {
				t.Fatalf("%v[%d] = %v, want %v", kind, i, got.At(i), want.At(i))
			}
		}
	}

	other := New(topology.NewPlanar(8, 8, true, 1))
	defer other.Close()
	if err := other.Restore(snap); err == nil {
		t.Error("expected mismatch error")
	}
}

func TestStepRecordsPhases(t *testing.T) {
	perf := telemetry.NewPerfCollector(10)
	s := New(topology.NewPlanar(16, 16, true, 1), WithPerf(perf))
	defer s.Close()

	for i := 0; i < 3; i++ {
		s.Step(0)
	}
	stats := perf.Stats()
	for _, phase := range []string{
		telemetry.PhaseAdvect, telemetry.PhaseBuoyancy, telemetry.PhaseVorticity,
		telemetry.PhaseDivergence, telemetry.PhasePressure, telemetry.PhaseProject,
	} {
		if _, ok := stats.PhaseAvg[phase]; !ok {
			t.Errorf("phase %s not recorded", phase)
		}
	}
	if _, ok := stats.PhaseAvg[telemetry.PhaseInject]; ok {
		t.Error("inject phase recorded without sources")
	}
}

func TestParamsFromConfig(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	for _, kind := range []topology.Kind{topology.PlanarWrapped, topology.Spherical, topology.ParametricTorus} {
		cfg.SetKind(kind)
		if got, want := ParamsFromConfig(cfg), DefaultParams(kind); got != want {
			t.Errorf("%v: config params %+v, defaults %+v", kind, got, want)
		}
	}
}

func TestParseFieldKind(t *testing.T) {
	for k := Velocity; k <= Vorticity; k++ {
		got, err := ParseFieldKind(k.String())
		if err != nil || got != k {
			t.Errorf("ParseFieldKind(%q) = %v, %v", k.String(), got, err)
		}
	}
	if _, err := ParseFieldKind("smoke"); err == nil {
		t.Error("expected error for unknown field")
	}
}

func BenchmarkStepPlanar(b *testing.B) {
	s := New(topology.NewPlanar(128, 128, true, 1))
	defer s.Close()
	s.AddExternalDensity(topology.Coord{U: 0.5, V: 0.5}, colorful.Color{R: 1}, 0.01)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Step(float64(i))
	}
}

func BenchmarkStepSphere(b *testing.B) {
	s := New(topology.NewSphere(32, 0))
	defer s.Close()
	s.AddExternalVelocity(topology.Coord{U: 0.5, V: 0.5}, r3.Vec{Y: 1}, 0.1)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Step(float64(i))
	}
}
