package material

import (
	"math"

	"github.com/df07/go-atmosphere/pkg/core"
)

// NewCheckerboardTexture creates a procedural checkerboard pattern texture
func NewCheckerboardTexture(width, height, checkSize int, color1, color2 core.Vec3) *ImageTexture {
	pixels := make([]core.Vec3, width*height)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			checkX := x / checkSize
			checkY := y / checkSize

			var color core.Vec3
			if (checkX+checkY)%2 == 0 {
				color = color1
			} else {
				color = color2
			}

			pixels[y*width+x] = color
		}
	}

	return NewImageTexture(width, height, pixels)
}

// NewUVDebugTexture creates a texture showing UV coordinates as colors
// U maps to red channel, V maps to green channel
func NewUVDebugTexture(width, height int) *ImageTexture {
	pixels := make([]core.Vec3, width*height)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			u := float64(x) / float64(width-1)
			v := float64(y) / float64(height-1)
			pixels[y*width+x] = core.NewVec3(u, v, 0.0)
		}
	}

	return NewImageTexture(width, height, pixels)
}

var (
	oceanColor = core.NewVec3(0.05, 0.12, 0.35)
	landColor  = core.NewVec3(0.20, 0.35, 0.12)
	iceColor   = core.NewVec3(0.90, 0.92, 0.95)
)

// NewPlanetTexture creates an equirectangular albedo map with oceans,
// continents and polar caps. It stands in for an earth texture when none is
// configured.
func NewPlanetTexture(width, height int) *ImageTexture {
	pixels := make([]core.Vec3, width*height)

	for y := 0; y < height; y++ {
		// Latitude in [-pi/2, pi/2], top row is north
		lat := math.Pi * (0.5 - (float64(y)+0.5)/float64(height))
		for x := 0; x < width; x++ {
			lon := 2 * math.Pi * (float64(x) + 0.5) / float64(width)

			var color core.Vec3
			switch {
			case math.Abs(lat) > 1.25:
				color = iceColor
			case continentField(lon, lat) > 0.35:
				color = landColor
			default:
				color = oceanColor
			}
			pixels[y*width+x] = color
		}
	}

	tex := NewImageTexture(width, height, pixels)
	tex.Bilinear = true
	return tex
}

// continentField is a smooth periodic function of longitude/latitude whose
// upper range marks land.
func continentField(lon, lat float64) float64 {
	return 0.5*math.Sin(2*lon+0.7)*math.Cos(1.5*lat) +
		0.3*math.Sin(5*lon-1.3)*math.Cos(3*lat+0.4) +
		0.2*math.Cos(3*lon+2*lat)
}
