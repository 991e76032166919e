package scattering

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/multierr"

	"github.com/df07/go-atmosphere/pkg/core"
)

// ErrAtmosphereBelowPlanet reports an atmosphere shell smaller than the planet it wraps
var ErrAtmosphereBelowPlanet = errors.New("atmosphere radius below planet radius")

var validate = validator.New()

// Parameters is the tunable physical constant set shared by every shading
// technique in a frame.
type Parameters struct {
	Kr               float64   `json:"Kr" toml:"kr" validate:"gte=0"`                 // Rayleigh scattering constant
	Km               float64   `json:"Km" toml:"km" validate:"gte=0"`                 // Mie scattering constant
	ESun             float64   `json:"ESun" toml:"esun" validate:"gte=0"`             // Sun brightness
	G                float64   `json:"g" toml:"g" validate:"gte=-1,lte=1"`            // Mie phase asymmetry
	ScaleDepth       float64   `json:"scaleDepth" toml:"scale_depth" validate:"gt=0"` // Altitude of average density, as a fraction of the shell
	Samples          int       `json:"samples" toml:"samples" validate:"gte=1,lte=64"`
	Wavelengths      core.Vec3 `json:"wavelengths" toml:"wavelengths"` // RGB wavelengths in micrometres
	SunDirection     core.Vec3 `json:"sunDirection" toml:"sun_direction"`
	PlanetRadius     float64   `json:"planetRadius" toml:"planet_radius" validate:"gt=0"`
	AtmosphereRadius float64   `json:"atmosphereRadius" toml:"atmosphere_radius" validate:"gt=0"`
}

// Defaults returns the reference parameter set
func Defaults() Parameters {
	return Parameters{
		Kr:               0.0025,
		Km:               0.0010,
		ESun:             20.0,
		G:                -0.5,
		ScaleDepth:       0.5,
		Samples:          10,
		Wavelengths:      core.NewVec3(0.650, 0.570, 0.475),
		SunDirection:     core.NewVec3(1, 0, 0),
		PlanetRadius:     10.0,
		AtmosphereRadius: 10.25,
	}
}

// Validate checks ranges and the shell invariant. All problems are reported together.
func (p Parameters) Validate() error {
	var err error
	if verr := validate.Struct(p); verr != nil {
		err = multierr.Append(err, verr)
	}
	if p.AtmosphereRadius < p.PlanetRadius {
		err = multierr.Append(err, fmt.Errorf("%w: %g < %g", ErrAtmosphereBelowPlanet, p.AtmosphereRadius, p.PlanetRadius))
	}
	if p.Wavelengths.X <= 0 || p.Wavelengths.Y <= 0 || p.Wavelengths.Z <= 0 {
		err = multierr.Append(err, fmt.Errorf("wavelengths must be positive, got %v", p.Wavelengths))
	}
	if p.SunDirection.LengthSquared() == 0 {
		err = multierr.Append(err, errors.New("sun direction must be non-zero"))
	}
	return err
}
