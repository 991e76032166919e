// Package ui holds the parameter panel: the recognized options with their
// slider ranges, the edits a UI produces, and the sources edits arrive from.
package ui

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"

	"github.com/df07/go-atmosphere/pkg/scattering"
)

// Recognized option names
const (
	OptionKr                = "Kr"
	OptionKm                = "Km"
	OptionESun              = "ESun"
	OptionG                 = "g"
	OptionScaleDepth        = "scaleDepth"
	OptionAtmosphereRadius  = "atmosphereRadius"
	OptionPlanetAngle       = "planetAngle"
	OptionSunAngle          = "sunAngle"
	OptionCameraZoom        = "cameraZoom"
	OptionAtmosphereEnabled = "atmosphereEnabled"
	OptionSunOrbitEnabled   = "sunOrbitEnabled"
)

// maxCameraZoom is the far end of the zoom slider
const maxCameraZoom = 300.0

var validate = validator.New()

// Control describes one panel widget
type Control struct {
	Name   string  `json:"name"`
	Label  string  `json:"label"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Toggle bool    `json:"toggle,omitempty"` // Checkbox instead of slider
}

// Panel is the set of controls a UI shows
type Panel struct {
	PlanetRadius float64   `json:"planetRadius"`
	Controls     []Control `json:"controls"`
}

// DefaultPanel returns the controls for a planet of the given radius.
// The atmosphere slider spans two units above the surface.
func DefaultPanel(planetRadius float64) Panel {
	return Panel{
		PlanetRadius: planetRadius,
		Controls: []Control{
			{Name: OptionKr, Label: "Kr", Min: 0, Max: 0.005},
			{Name: OptionKm, Label: "Km", Min: 0, Max: 0.005},
			{Name: OptionESun, Label: "ESun", Min: 0, Max: 50},
			{Name: OptionG, Label: "g", Min: -1, Max: 1},
			{Name: OptionScaleDepth, Label: "Scale Depth", Min: 0, Max: 1},
			{Name: OptionAtmosphereRadius, Label: "Atmosphere Radius", Min: planetRadius, Max: planetRadius + 2},
			{Name: OptionPlanetAngle, Label: "Planet Angle", Min: 0, Max: 2 * math.Pi},
			{Name: OptionSunAngle, Label: "Sun Angle", Min: 0, Max: 2 * math.Pi},
			{Name: OptionCameraZoom, Label: "Camera Zoom", Min: planetRadius, Max: maxCameraZoom},
			{Name: OptionAtmosphereEnabled, Label: "Atmosphere", Toggle: true},
			{Name: OptionSunOrbitEnabled, Label: "Sun Orbit", Toggle: true},
		},
	}
}

// Control looks up a control by option name
func (p Panel) Control(name string) (Control, bool) {
	for _, c := range p.Controls {
		if c.Name == name {
			return c, true
		}
	}
	return Control{}, false
}

// Settings is the state panel edits act on
type Settings struct {
	Scattering        scattering.Parameters `json:"scattering"`
	PlanetAngle       float64               `json:"planetAngle"`
	SunAngle          float64               `json:"sunAngle"`
	CameraZoom        float64               `json:"cameraZoom"` // 0 until the UI sets it
	AtmosphereEnabled bool                  `json:"atmosphereEnabled"`
	SunOrbitEnabled   bool                  `json:"sunOrbitEnabled"`
}

// ValidationError reports an edit that was rejected. The settings are left
// unchanged when Apply returns one.
type ValidationError struct {
	Option string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("ui: invalid %s: %v", e.Option, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Apply validates e against the control ranges and applies it to s.
// Options absent from e keep their value. It returns the names of the
// options that were applied. Either every option in e is applied or none is.
func (p Panel) Apply(e Edits, s *Settings) ([]string, error) {
	next := *s
	var applied []string

	setFloat := func(name string, value *float64, dst *float64) error {
		if value == nil {
			return nil
		}
		if err := p.checkRange(name, *value); err != nil {
			return err
		}
		*dst = *value
		applied = append(applied, name)
		return nil
	}

	// A radius below the planet is reported as the invariant, not as a range error
	if e.AtmosphereRadius != nil && *e.AtmosphereRadius < next.Scattering.PlanetRadius {
		return nil, &ValidationError{Option: OptionAtmosphereRadius, Err: scattering.ErrAtmosphereBelowPlanet}
	}

	floats := []struct {
		name  string
		value *float64
		dst   *float64
	}{
		{OptionKr, e.Kr, &next.Scattering.Kr},
		{OptionKm, e.Km, &next.Scattering.Km},
		{OptionESun, e.ESun, &next.Scattering.ESun},
		{OptionG, e.G, &next.Scattering.G},
		{OptionScaleDepth, e.ScaleDepth, &next.Scattering.ScaleDepth},
		{OptionAtmosphereRadius, e.AtmosphereRadius, &next.Scattering.AtmosphereRadius},
		{OptionPlanetAngle, e.PlanetAngle, &next.PlanetAngle},
		{OptionSunAngle, e.SunAngle, &next.SunAngle},
		{OptionCameraZoom, e.CameraZoom, &next.CameraZoom},
	}
	for _, f := range floats {
		if err := setFloat(f.name, f.value, f.dst); err != nil {
			return nil, err
		}
	}

	if e.AtmosphereEnabled != nil {
		next.AtmosphereEnabled = *e.AtmosphereEnabled
		applied = append(applied, OptionAtmosphereEnabled)
	}
	if e.SunOrbitEnabled != nil {
		next.SunOrbitEnabled = *e.SunOrbitEnabled
		applied = append(applied, OptionSunOrbitEnabled)
	}

	if err := next.Scattering.Validate(); err != nil {
		return nil, &ValidationError{Option: firstScatteringOption(applied), Err: err}
	}

	*s = next
	return applied, nil
}

func (p Panel) checkRange(name string, value float64) error {
	c, ok := p.Control(name)
	if !ok {
		return &ValidationError{Option: name, Err: errors.New("unknown option")}
	}
	if err := validate.Var(value, fmt.Sprintf("gte=%g,lte=%g", c.Min, c.Max)); err != nil {
		return &ValidationError{Option: name, Err: err}
	}
	return nil
}

// firstScatteringOption names the edited option most likely responsible for
// a parameter set that no longer validates
func firstScatteringOption(applied []string) string {
	for _, name := range applied {
		switch name {
		case OptionKr, OptionKm, OptionESun, OptionG, OptionScaleDepth, OptionAtmosphereRadius:
			return name
		}
	}
	return "scattering"
}
