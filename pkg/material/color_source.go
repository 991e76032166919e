package material

import (
	"github.com/df07/go-atmosphere/pkg/core"
)

// ColorSource provides spatially-varying surface color
type ColorSource interface {
	// Evaluate returns color at the given UV coordinates
	Evaluate(uv core.Vec2) core.Vec3
}

// SolidColor provides uniform color
type SolidColor struct {
	Color core.Vec3
}

// NewSolidColor creates a new solid color source
func NewSolidColor(color core.Vec3) *SolidColor {
	return &SolidColor{Color: color}
}

// Evaluate returns the solid color regardless of UV
func (s *SolidColor) Evaluate(uv core.Vec2) core.Vec3 {
	return s.Color
}
