package loaders

import (
	"fmt"
	"image"
	_ "image/jpeg" // JPEG decoder
	_ "image/png"  // PNG decoder
	"os"

	"golang.org/x/image/draw"

	"github.com/df07/go-atmosphere/pkg/core"
	"github.com/df07/go-atmosphere/pkg/material"
)

// ImageData contains loaded image data as Vec3 color array
type ImageData struct {
	Width  int
	Height int
	Pixels []core.Vec3
}

// LoadImage loads a PNG or JPEG image and converts it to Vec3 color array
func LoadImage(filename string) (*ImageData, error) {
	img, err := decodeFile(filename)
	if err != nil {
		return nil, err
	}
	return toImageData(img), nil
}

// LoadTexture loads an albedo texture. Images wider than maxWidth are
// resampled down, keeping the aspect ratio; maxWidth <= 0 keeps full size.
func LoadTexture(filename string, maxWidth int) (*material.ImageTexture, error) {
	img, err := decodeFile(filename)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	if maxWidth > 0 && bounds.Dx() > maxWidth {
		height := max(1, bounds.Dy()*maxWidth/bounds.Dx())
		dst := image.NewRGBA(image.Rect(0, 0, maxWidth, height))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)
		img = dst
	}

	data := toImageData(img)
	texture := material.NewImageTexture(data.Width, data.Height, data.Pixels)
	texture.Bilinear = true
	return texture, nil
}

func decodeFile(filename string) (image.Image, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open image file: %w", err)
	}
	defer file.Close()

	// Format is detected from the file header
	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", filename, err)
	}
	return img, nil
}

func toImageData(img image.Image) *ImageData {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	pixels := make([]core.Vec3, width*height)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			// RGBA returns uint32 in [0, 65535], convert to [0, 1]
			pixels[y*width+x] = core.NewVec3(
				float64(r)/65535.0,
				float64(g)/65535.0,
				float64(b)/65535.0,
			)
		}
	}

	return &ImageData{
		Width:  width,
		Height: height,
		Pixels: pixels,
	}
}
