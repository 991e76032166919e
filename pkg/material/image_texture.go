package material

import (
	"math"

	"github.com/df07/go-atmosphere/pkg/core"
)

// ImageTexture provides color from a 2D image
type ImageTexture struct {
	Width    int
	Height   int
	Pixels   []core.Vec3 // Row-major: Pixels[y*Width + x]
	Bilinear bool        // Filter between the four nearest texels
}

// NewImageTexture creates a new image texture
func NewImageTexture(width, height int, pixels []core.Vec3) *ImageTexture {
	return &ImageTexture{
		Width:  width,
		Height: height,
		Pixels: pixels,
	}
}

// Evaluate samples the texture at given UV coordinates.
// UVs wrap; V=0 is the bottom row of the image.
func (t *ImageTexture) Evaluate(uv core.Vec2) core.Vec3 {
	u := wrapUnit(uv.X)
	v := wrapUnit(uv.Y)

	if !t.Bilinear {
		x := int(u * float64(t.Width))
		y := int((1.0 - v) * float64(t.Height))
		return t.texel(x, y)
	}

	// Texel centers sit at half-integer coordinates
	fx := u*float64(t.Width) - 0.5
	fy := (1.0-v)*float64(t.Height) - 0.5
	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	tx := fx - float64(x0)
	ty := fy - float64(y0)

	top := t.texel(x0, y0).Lerp(t.texel(x0+1, y0), tx)
	bottom := t.texel(x0, y0+1).Lerp(t.texel(x0+1, y0+1), tx)
	return top.Lerp(bottom, ty)
}

// texel returns a pixel with U wrapping around and V clamped to the image
func (t *ImageTexture) texel(x, y int) core.Vec3 {
	x %= t.Width
	if x < 0 {
		x += t.Width
	}
	y = max(0, min(t.Height-1, y))
	return t.Pixels[y*t.Width+x]
}

func wrapUnit(f float64) float64 {
	f -= math.Floor(f)
	if f >= 1.0 {
		f = 0
	}
	return f
}
