package renderer

import (
	"image/color"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// FieldTexture holds the GPU copy of a colorized field.
type FieldTexture struct {
	tex         rl.Texture2D
	texW, texH  int
	wrap        bool
	initialized bool
}

// NewFieldTexture creates an uninitialized texture. wrap selects repeat
// sampling for periodic domains.
func NewFieldTexture(wrap bool) *FieldTexture {
	return &FieldTexture{wrap: wrap}
}

// Init allocates the texture (must be called after the raylib window is created).
func (t *FieldTexture) Init(w, h int) {
	if t.initialized {
		return
	}
	t.texW, t.texH = w, h

	img := rl.GenImageColor(w, h, rl.Black)
	t.tex = rl.LoadTextureFromImage(img)
	rl.SetTextureFilter(t.tex, rl.FilterBilinear)
	if t.wrap {
		rl.SetTextureWrap(t.tex, rl.WrapRepeat)
	} else {
		rl.SetTextureWrap(t.tex, rl.WrapClamp)
	}
	rl.UnloadImage(img)

	t.initialized = true
}

// Update uploads pixels, reallocating when the size changes.
func (t *FieldTexture) Update(pixels []color.RGBA, w, h int) {
	if t.initialized && (w != t.texW || h != t.texH) {
		t.Unload()
	}
	if !t.initialized {
		t.Init(w, h)
	}
	if len(pixels) != w*h {
		return
	}
	rl.UpdateTexture(t.tex, pixels)
}

// Draw stretches the texture over dst. src selects the visible texel
// window; repeat wrapping lets it extend past the edges.
func (t *FieldTexture) Draw(src, dst rl.Rectangle) {
	if !t.initialized {
		return
	}
	rl.DrawTexturePro(t.tex, src, dst, rl.Vector2{}, 0, rl.White)
}

// Size returns the texture dimensions.
func (t *FieldTexture) Size() (w, h int) { return t.texW, t.texH }

// Unload frees GPU resources.
func (t *FieldTexture) Unload() {
	if !t.initialized {
		return
	}
	rl.UnloadTexture(t.tex)
	t.initialized = false
}
