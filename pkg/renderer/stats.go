package renderer

import (
	"image"
	"time"

	"github.com/df07/go-atmosphere/pkg/core"
)

// FrameStats contains statistics about one rasterized frame
type FrameStats struct {
	DrawCalls int           // Draw calls accepted
	Triangles int           // Triangles submitted
	Culled    int           // Triangles removed by face culling or zero area
	Clipped   int           // Triangles entirely outside the view volume
	Fragments int           // Fragments that passed the depth test and were shaded
	Blended   int           // Fragments with alpha below one
	Tiles     int           // Tiles processed
	Duration  time.Duration // BeginFrame to EndFrame
}

// TileStats contains the per-tile counters a worker reports
type TileStats struct {
	Fragments int
	Blended   int
}

// CalculateAverageLuminance returns the mean Rec. 709 luminance of an image
func CalculateAverageLuminance(img *image.RGBA) float64 {
	bounds := img.Bounds()
	pixels := bounds.Dx() * bounds.Dy()
	if pixels == 0 {
		return 0
	}

	var total float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := img.RGBAAt(x, y)
			total += core.NewVec3(float64(c.R), float64(c.G), float64(c.B)).Multiply(1.0 / 255).Luminance()
		}
	}
	return total / float64(pixels)
}
