package camera

import (
	"math"
	"testing"

	"github.com/pthm-cable/smoke/topology"
)

func TestNewFitsViewport(t *testing.T) {
	cam := New(1280, 720, 640, 360, true, true)

	if cam.X != 320 || cam.Y != 180 {
		t.Errorf("expected camera at (320, 180), got (%f, %f)", cam.X, cam.Y)
	}
	if cam.Zoom != 2 || cam.MinZoom != 2 {
		t.Errorf("expected fit zoom 2, got %f (min %f)", cam.Zoom, cam.MinZoom)
	}
}

func TestScreenToWorldRoundtrip(t *testing.T) {
	cam := New(1280, 720, 448, 250, true, true)
	cam.ZoomBy(1.5)

	testCases := []struct{ sx, sy float32 }{
		{640, 360},  // center
		{100, 100},  // top-left
		{1200, 600}, // near bottom-right
	}

	for _, tc := range testCases {
		wx, wy, inside := cam.ScreenToWorld(tc.sx, tc.sy)
		if !inside {
			t.Fatalf("(%f,%f) should be inside", tc.sx, tc.sy)
		}
		sx, sy := cam.WorldToScreen(wx, wy)
		if math.Abs(float64(sx-tc.sx)) > 0.01 || math.Abs(float64(sy-tc.sy)) > 0.01 {
			t.Errorf("roundtrip failed: (%f,%f) -> (%f,%f) -> (%f,%f)",
				tc.sx, tc.sy, wx, wy, sx, sy)
		}
	}
}

func TestScreenToCoordOrientation(t *testing.T) {
	cam := New(800, 400, 200, 100, false, false)

	c, inside := cam.ScreenToCoord(400, 200)
	if !inside || math.Abs(c.U-0.5) > 1e-6 || math.Abs(c.V-0.5) > 1e-6 {
		t.Errorf("center = %+v (%v)", c, inside)
	}
	// Top of the screen is the top of the domain.
	top, _ := cam.ScreenToCoord(400, 1)
	if top.V < 0.99 {
		t.Errorf("top row V = %v, want ≈1", top.V)
	}
}

func TestPanWraps(t *testing.T) {
	cam := New(1280, 720, 640, 360, true, true)
	cam.X = 10

	cam.Pan(-100, 0) // 50 texels left at zoom 2
	if cam.X < 590 {
		t.Errorf("expected X to wrap around, got %f", cam.X)
	}
}

func TestPanClampsOnClampedAxes(t *testing.T) {
	cam := ForDomain(topology.PlanarClamped, 1280, 720, 640, 360)
	cam.ZoomBy(2)

	cam.Pan(-100000, 0)
	if x, _, _, _ := cam.SourceRect(); x < -0.01 {
		t.Errorf("view escaped the image: source x = %f", x)
	}
	if _, _, inside := cam.ScreenToWorld(-10, 360); inside {
		t.Error("off-image point reported inside")
	}
}

func TestForDomainWrapAxes(t *testing.T) {
	sphere := ForDomain(topology.Spherical, 800, 400, 64, 32)
	if !sphere.WrapX || sphere.WrapY {
		t.Errorf("sphere should wrap longitude only: %v %v", sphere.WrapX, sphere.WrapY)
	}
	torus := ForDomain(topology.ParametricTorus, 800, 400, 64, 32)
	if !torus.WrapX || !torus.WrapY {
		t.Error("torus should wrap both axes")
	}
}

func TestZoomClamp(t *testing.T) {
	cam := New(1280, 720, 2560, 1440, true, true)

	if cam.MinZoom != 0.5 {
		t.Errorf("expected MinZoom 0.5, got %f", cam.MinZoom)
	}
	cam.SetZoom(0.1)
	if cam.Zoom != 0.5 {
		t.Errorf("expected zoom clamped to 0.5, got %f", cam.Zoom)
	}
	cam.SetZoom(100)
	if cam.Zoom != cam.MaxZoom {
		t.Errorf("expected zoom clamped to %f, got %f", cam.MaxZoom, cam.Zoom)
	}
}

func TestMinZoomPreventsDeadSpace(t *testing.T) {
	cam := New(800, 600, 1600, 800, false, false)

	// max(800/1600, 600/800) = 0.75
	if math.Abs(float64(cam.MinZoom-0.75)) > 0.001 {
		t.Errorf("expected MinZoom 0.75, got %f", cam.MinZoom)
	}
	visibleH := cam.ViewportH / cam.Zoom
	if math.Abs(float64(visibleH-cam.WorldH)) > 0.01 {
		t.Errorf("at min zoom, visible height %f should equal world height %f", visibleH, cam.WorldH)
	}
}

func TestReset(t *testing.T) {
	cam := New(1280, 720, 640, 360, true, true)
	cam.X = 5
	cam.Y = 5
	cam.ZoomBy(3)

	cam.Reset()

	if cam.X != 320 || cam.Y != 180 || cam.Zoom != cam.MinZoom {
		t.Errorf("reset to (%f, %f) zoom %f", cam.X, cam.Y, cam.Zoom)
	}
}
