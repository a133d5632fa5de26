package renderer

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/pthm-cable/smoke/field"
	"github.com/pthm-cable/smoke/kernel"
	"github.com/pthm-cable/smoke/topology"
)

func TestColorizerPlanarOrientation(t *testing.T) {
	a := topology.NewPlanar(8, 4, true, 1)
	c := NewColorizer(a, kernel.Serial{})
	if w, h := c.Size(); w != 8 || h != 4 {
		t.Fatalf("size = %dx%d, want 8x4", w, h)
	}

	g := field.NewGrid(a.Shape())
	// Top row of the grid (y = 3) is row 0 of the image.
	g.Set(a.Shape().Index(0, 2, 3), field.Texel{1, 0, 0, 0})
	pixels := c.Render(g, ModeColor)

	if p := pixels[0*8+2]; p.R != 255 || p.G != 0 || p.A != 255 {
		t.Errorf("pixel (2,0) = %v, want red", p)
	}
	if p := pixels[3*8+2]; p.R != 0 {
		t.Errorf("pixel (2,3) = %v, want black", p)
	}
}

func TestColorizerModes(t *testing.T) {
	a := topology.NewPlanar(4, 4, false, 1)
	c := NewColorizer(a, kernel.Serial{})
	g := field.NewGrid(a.Shape())
	for i := range g.Texels() {
		g.Set(i, field.Texel{-1, 0, 1, 0})
	}

	signed := c.Render(g, ModeSigned)[0]
	if signed.B <= signed.R {
		t.Errorf("negative value should render blue, got %v", signed)
	}
	normal := c.Render(g, ModeNormal)[0]
	if normal.R <= normal.B {
		t.Errorf("positive normal component should render red, got %v", normal)
	}
	if p := c.Render(nil, ModeColor)[0]; p.A != 0 {
		t.Errorf("nil grid should clear pixels, got %v", p)
	}
	vel := c.Render(g, ModeVelocity)[0]
	if vel.R == 0 && vel.G == 0 && vel.B == 0 {
		t.Error("moving fluid rendered black")
	}
}

func TestColorizerSphereAtlas(t *testing.T) {
	a := topology.NewSphere(4, 0)
	c := NewColorizer(a, kernel.Serial{})
	w, h := c.Size()
	if w != 16 || h != 8 {
		t.Fatalf("atlas = %dx%d, want 16x8", w, h)
	}

	g := field.NewGrid(a.Shape())
	for i := range g.Texels() {
		g.Set(i, field.Texel{0.5, 0.5, 0.5, 0})
	}
	for i, p := range c.Render(g, ModeColor) {
		if p.R < 120 || p.R > 135 {
			t.Fatalf("pixel %d = %v, want uniform gray", i, p)
		}
	}
}

func TestPaletteEndpoints(t *testing.T) {
	p := NewPalette(colorful.Color{}, colorful.Color{R: 1, G: 1, B: 1})
	if c := p.At(-1); c.R != 0 {
		t.Errorf("At(-1) = %v", c)
	}
	if c := p.At(2); c.R != 255 || c.G != 255 || c.B != 255 {
		t.Errorf("At(2) = %v", c)
	}
	mid := DivergingPalette().At(0.5)
	if mid.R > 10 || mid.G > 10 || mid.B > 10 {
		t.Errorf("diverging midpoint = %v, want near black", mid)
	}
}

func TestParseMode(t *testing.T) {
	for name, want := range map[string]Mode{
		"density": ModeColor, "temperature": ModeScalar, "pressure": ModeSigned,
		"vorticity": ModeNormal, "velocity": ModeVelocity,
	} {
		got, err := ParseMode(name)
		if err != nil || got != want {
			t.Errorf("ParseMode(%q) = %v, %v", name, got, err)
		}
	}
	if _, err := ParseMode("sepia"); err == nil {
		t.Error("expected error")
	}
}

func TestWritePNG(t *testing.T) {
	a := topology.NewTorus(12, 6, 3, 1, 0)
	c := NewColorizer(a, kernel.Serial{})
	c.Render(field.NewGrid(a.Shape()), ModeScalar)

	path := filepath.Join(t.TempDir(), "frame.png")
	if err := c.WritePNG(path); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 12 || b.Dy() != 6 {
		t.Errorf("png bounds = %v", b)
	}
}
