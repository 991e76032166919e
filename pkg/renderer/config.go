package renderer

import (
	"github.com/df07/go-atmosphere/pkg/core"
)

// Config contains the framebuffer and parallelism settings
type Config struct {
	Width      int
	Height     int
	TileSize   int       // Size of each square tile in pixels
	NumWorkers int       // Number of parallel workers (0 = use CPU count)
	Background core.Vec3 // Clear colour
}

// DefaultConfig returns sensible default values
func DefaultConfig() Config {
	return Config{
		Width:      640,
		Height:     480,
		TileSize:   32,
		NumWorkers: 0, // Auto-detect CPU count
	}
}

// Aspect returns width / height
func (c Config) Aspect() float64 {
	return float64(c.Width) / float64(c.Height)
}
