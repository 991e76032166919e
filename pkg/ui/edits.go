package ui

// Edits is one batch of panel changes. A nil field means the option was not
// touched and keeps its value.
type Edits struct {
	Kr                *float64 `json:"Kr,omitempty" toml:"kr,omitempty"`
	Km                *float64 `json:"Km,omitempty" toml:"km,omitempty"`
	ESun              *float64 `json:"ESun,omitempty" toml:"esun,omitempty"`
	G                 *float64 `json:"g,omitempty" toml:"g,omitempty"`
	ScaleDepth        *float64 `json:"scaleDepth,omitempty" toml:"scale_depth,omitempty"`
	AtmosphereRadius  *float64 `json:"atmosphereRadius,omitempty" toml:"atmosphere_radius,omitempty"`
	PlanetAngle       *float64 `json:"planetAngle,omitempty" toml:"planet_angle,omitempty"`
	SunAngle          *float64 `json:"sunAngle,omitempty" toml:"sun_angle,omitempty"`
	CameraZoom        *float64 `json:"cameraZoom,omitempty" toml:"camera_zoom,omitempty"`
	AtmosphereEnabled *bool    `json:"atmosphereEnabled,omitempty" toml:"atmosphere_enabled,omitempty"`
	SunOrbitEnabled   *bool    `json:"sunOrbitEnabled,omitempty" toml:"sun_orbit_enabled,omitempty"`
}

// Float returns a pointer to v, for building Edits
func Float(v float64) *float64 { return &v }

// Bool returns a pointer to v, for building Edits
func Bool(v bool) *bool { return &v }

// Empty reports whether no option is set
func (e Edits) Empty() bool {
	return e == Edits{}
}

// CameraOnly reports whether the edit touches nothing but the camera zoom
func (e Edits) CameraOnly() bool {
	zoom := e.CameraZoom
	e.CameraZoom = nil
	return zoom != nil && e.Empty()
}

// Merge returns e with every option set in later overriding it
func (e Edits) Merge(later Edits) Edits {
	pick := func(a, b *float64) *float64 {
		if b != nil {
			return b
		}
		return a
	}
	pickBool := func(a, b *bool) *bool {
		if b != nil {
			return b
		}
		return a
	}
	return Edits{
		Kr:                pick(e.Kr, later.Kr),
		Km:                pick(e.Km, later.Km),
		ESun:              pick(e.ESun, later.ESun),
		G:                 pick(e.G, later.G),
		ScaleDepth:        pick(e.ScaleDepth, later.ScaleDepth),
		AtmosphereRadius:  pick(e.AtmosphereRadius, later.AtmosphereRadius),
		PlanetAngle:       pick(e.PlanetAngle, later.PlanetAngle),
		SunAngle:          pick(e.SunAngle, later.SunAngle),
		CameraZoom:        pick(e.CameraZoom, later.CameraZoom),
		AtmosphereEnabled: pickBool(e.AtmosphereEnabled, later.AtmosphereEnabled),
		SunOrbitEnabled:   pickBool(e.SunOrbitEnabled, later.SunOrbitEnabled),
	}
}
