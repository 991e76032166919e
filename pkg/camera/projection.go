package camera

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Projection is a perspective projection with a vertical field of view in degrees
type Projection struct {
	FovY float64
	Near float64
	Far  float64
}

// DefaultProjection returns an 80 degree projection reaching 350 units
func DefaultProjection() Projection {
	return Projection{FovY: 80, Near: 0.1, Far: 350}
}

// Matrix returns the projection matrix for the given width/height ratio
func (p Projection) Matrix(aspect float64) mgl64.Mat4 {
	return mgl64.Perspective(mgl64.DegToRad(p.FovY), aspect, p.Near, p.Far)
}
