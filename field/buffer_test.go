package field

import "testing"

func TestBufferSwap(t *testing.T) {
	b := NewBuffer(PlanarShape(4, 3))
	r0, w0 := b.Read(), b.Write()
	if r0 == w0 {
		t.Fatal("read and write must be distinct grids")
	}

	b.Write().Set(5, Texel{1, 2, 3, 4})
	b.Swap()

	if b.Read() != w0 || b.Write() != r0 {
		t.Fatal("swap should exchange read and write")
	}
	if got := b.Read().At(5); got != (Texel{1, 2, 3, 4}) {
		t.Errorf("expected written texel on read side after swap, got %v", got)
	}

	b.Swap()
	if b.Read() != r0 || b.Write() != w0 {
		t.Error("two swaps should restore original aliasing")
	}
}

func TestBufferClear(t *testing.T) {
	b := NewBuffer(CubeShape(3))
	for i := 0; i < b.Read().Len(); i++ {
		b.Read().Set(i, Texel{1, 1, 1, 1})
		b.Write().Set(i, Texel{2, 2, 2, 2})
	}
	oldRead := b.Read()

	b.Clear()

	if b.Write() != oldRead {
		t.Error("clear should swap sides")
	}
	for i := 0; i < b.Read().Len(); i++ {
		if b.Read().At(i) != (Texel{}) {
			t.Fatalf("cell %d not cleared: %v", i, b.Read().At(i))
		}
	}
	if b.Write().At(0) != (Texel{1, 1, 1, 1}) {
		t.Error("clear should not touch the previous read side")
	}
}

func TestShapeIndexSplit(t *testing.T) {
	shapes := []Shape{PlanarShape(7, 5), CubeShape(4)}
	for _, s := range shapes {
		if s.Cells() != s.Faces()*s.Width*s.Height {
			t.Errorf("%v: unexpected cell count %d", s, s.Cells())
		}
		for cell := 0; cell < s.Cells(); cell++ {
			f, x, y := s.Split(cell)
			if got := s.Index(f, x, y); got != cell {
				t.Fatalf("%v: index(split(%d)) = %d", s, cell, got)
			}
		}
	}
	if CubeShape(4).Cells() != 96 {
		t.Errorf("expected 96 cube cells, got %d", CubeShape(4).Cells())
	}
}

func TestGridGather(t *testing.T) {
	g := NewGrid(PlanarShape(2, 1))
	g.Set(0, Texel{2, 0, 0, 0})
	g.Set(1, Texel{4, 8, 0, 0})

	tap := Tap{Index: [4]int32{0, 1, 0, 0}, Weight: [4]float32{0.25, 0.75, 0, 0}}
	got := g.Gather(tap)
	if got[0] != 3.5 || got[1] != 6 {
		t.Errorf("unexpected gather result %v", got)
	}
	if s := g.GatherScalar(tap); s != 3.5 {
		t.Errorf("expected scalar gather 3.5, got %f", s)
	}
	if s := g.GatherScalar(Single(1)); s != 4 {
		t.Errorf("expected single tap 4, got %f", s)
	}
}
