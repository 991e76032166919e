package renderer

import (
	"image"
	"image/color"
	"math"

	"github.com/df07/go-atmosphere/pkg/core"
)

// Framebuffer holds linear colour and depth for every pixel
type Framebuffer struct {
	Width, Height int
	Color         []core.Vec3
	Depth         []float64 // Window depth in [0, 1], 1 is the far plane
}

// NewFramebuffer allocates a framebuffer
func NewFramebuffer(width, height int) *Framebuffer {
	return &Framebuffer{
		Width:  width,
		Height: height,
		Color:  make([]core.Vec3, width*height),
		Depth:  make([]float64, width*height),
	}
}

// ClearRect resets colour and depth inside r
func (fb *Framebuffer) ClearRect(r image.Rectangle, background core.Vec3) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := y * fb.Width
		for x := r.Min.X; x < r.Max.X; x++ {
			fb.Color[row+x] = background
			fb.Depth[row+x] = 1.0
		}
	}
}

// ResolveRect writes the colours inside r to img
func (fb *Framebuffer) ResolveRect(r image.Rectangle, img *image.RGBA) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := y * fb.Width
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetRGBA(x, y, vec3ToColor(fb.Color[row+x]))
		}
	}
}

// vec3ToColor converts a linear colour to RGBA with clamping and rounding
func vec3ToColor(c core.Vec3) color.RGBA {
	return color.RGBA{
		R: toByte(c.X),
		G: toByte(c.Y),
		B: toByte(c.Z),
		A: 255,
	}
}

func toByte(f float64) uint8 {
	if math.IsNaN(f) {
		return 0
	}
	return uint8(255*math.Max(0, math.Min(1, f)) + 0.5)
}
