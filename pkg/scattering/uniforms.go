package scattering

import (
	"math"

	"github.com/df07/go-atmosphere/pkg/core"
)

// minShellThickness keeps Scale finite when the atmosphere sits on the surface
const minShellThickness = 1e-6

// Uniforms is the derived constant block every technique reads. It is
// computed once per frame from a latched Parameters value.
type Uniforms struct {
	InvWavelength4      core.Vec3
	KrESun              float64
	KmESun              float64
	Kr4Pi               float64
	Km4Pi               float64
	InnerRadius         float64
	OuterRadius         float64
	Scale               float64 // 1 / (outer - inner)
	ScaleDepth          float64
	ScaleOverScaleDepth float64
	G                   float64
	G2                  float64
	Samples             int
	SunDirection        core.Vec3
}

// Uniforms derives the shader constants from p
func (p Parameters) Uniforms() Uniforms {
	thickness := math.Max(p.AtmosphereRadius-p.PlanetRadius, minShellThickness)
	scale := 1.0 / thickness
	samples := p.Samples
	if samples < 1 {
		samples = 1
	}

	return Uniforms{
		InvWavelength4:      p.Wavelengths.Pow(4).Reciprocal(),
		KrESun:              p.Kr * p.ESun,
		KmESun:              p.Km * p.ESun,
		Kr4Pi:               p.Kr * 4 * math.Pi,
		Km4Pi:               p.Km * 4 * math.Pi,
		InnerRadius:         p.PlanetRadius,
		OuterRadius:         p.AtmosphereRadius,
		Scale:               scale,
		ScaleDepth:          p.ScaleDepth,
		ScaleOverScaleDepth: scale / p.ScaleDepth,
		G:                   p.G,
		G2:                  p.G * p.G,
		Samples:             samples,
		SunDirection:        p.SunDirection.Normalize(),
	}
}

// ScaleFn approximates the optical depth integral for a ray leaving the
// sphere at the given angle cosine. The polynomial is fitted for a
// normalized shell.
func ScaleFn(cos, scaleDepth float64) float64 {
	x := 1.0 - cos
	return scaleDepth * math.Exp(-0.00287+x*(0.459+x*(3.83+x*(-6.80+x*5.25))))
}

// RayleighPhase is the molecular phase function
func RayleighPhase(cos float64) float64 {
	return 0.75 * (1.0 + cos*cos)
}

// MiePhase is the Henyey-Greenstein style aerosol phase function
func MiePhase(cos, g, g2 float64) float64 {
	// g = ±1 looking straight into the lobe has a zero denominator
	denom := math.Max(1.0+g2-2.0*g*cos, 1e-6)
	return 1.5 * ((1.0 - g2) / (2.0 + g2)) * (1.0 + cos*cos) / math.Pow(denom, 1.5)
}
