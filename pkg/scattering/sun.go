package scattering

import (
	"math"

	"github.com/df07/go-atmosphere/pkg/core"
)

// WrapAngle maps an angle in radians into [0, 2π)
func WrapAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	// Mod of a tiny negative number can round up to exactly 2π
	if a >= 2*math.Pi {
		a = 0
	}
	return a
}

// SunDirectionFromAngle converts an orbit angle to a unit direction in the XZ plane
func SunDirectionFromAngle(angle float64) core.Vec3 {
	return core.NewVec3(math.Cos(angle), 0, math.Sin(angle))
}

// SunOrbit animates the sun around the Y axis
type SunOrbit struct {
	Angle float64 // Current angle in radians, always in [0, 2π)
	Rate  float64 // Radians per second
}

// Advance moves the sun by Rate*dt and returns the new direction
func (o *SunOrbit) Advance(dt float64) core.Vec3 {
	o.Angle = WrapAngle(o.Angle + o.Rate*dt)
	return SunDirectionFromAngle(o.Angle)
}
