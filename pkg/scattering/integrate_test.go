package scattering

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-atmosphere/pkg/core"
)

func requireFinitePositive(t *testing.T, v core.Vec3) {
	t.Helper()
	for _, c := range []float64{v.X, v.Y, v.Z} {
		require.False(t, math.IsNaN(c) || math.IsInf(c, 0), "component not finite: %v", v)
		require.Greater(t, c, 0.0, "component not positive: %v", v)
	}
}

func TestSkyFromAtmosphere_ZenithIsBlue(t *testing.T) {
	p := Defaults()
	p.SunDirection = core.NewVec3(0, 1, 0)
	u := p.Uniforms()

	in := u.SkyFromAtmosphere(core.NewVec3(0, 10.05, 0), core.NewVec3(0, 10.25, 0))

	requireFinitePositive(t, in.Primary)
	requireFinitePositive(t, in.Secondary)
	assert.Greater(t, in.Primary.Z, in.Primary.X)
	// Mie is wavelength independent
	assert.InDelta(t, in.Secondary.X/in.Secondary.Z, 1.0, 0.5)
}

func TestSkyTechniquesAgreeOnTheShell(t *testing.T) {
	p := Defaults()
	p.SunDirection = core.NewVec3(1, 1, 0).Normalize()
	u := p.Uniforms()

	camera := core.NewVec3(0, p.AtmosphereRadius, 0)
	vertex := core.NewVec3(p.AtmosphereRadius*math.Sin(0.2), p.AtmosphereRadius*math.Cos(0.2), 0)

	space := u.SkyFromSpace(camera, vertex)
	inside := u.SkyFromAtmosphere(camera, vertex)

	requireFinitePositive(t, space.Primary)
	assert.True(t, space.Primary.ApproxEqual(inside.Primary, 1e-9*space.Primary.Length()))
	assert.True(t, space.Secondary.ApproxEqual(inside.Secondary, 1e-9*space.Secondary.Length()))
}

func TestSkyFromSpace(t *testing.T) {
	p := Defaults()
	u := p.Uniforms()
	camera := core.NewVec3(0, 0, -30)

	t.Run("limb is lit", func(t *testing.T) {
		// A ray grazing the shell 0.15 above the surface, ending where it leaves the shell
		closest := p.PlanetRadius + 0.15
		alpha := math.Asin(closest / 30)
		dir := core.NewVec3(0, math.Sin(alpha), math.Cos(alpha))
		halfChord := math.Sqrt(p.AtmosphereRadius*p.AtmosphereRadius - closest*closest)
		vertex := camera.Add(dir.Multiply(30*math.Cos(alpha) + halfChord))

		for _, sun := range []core.Vec3{{X: 1}, {Y: 1}, {Z: -1}} {
			u.SunDirection = sun
			in := u.SkyFromSpace(camera, vertex)
			requireFinitePositive(t, in.Primary)
			requireFinitePositive(t, in.Secondary)
		}
	})

	t.Run("vertex at the entry point has no path", func(t *testing.T) {
		in := u.SkyFromSpace(camera, core.NewVec3(0, 0, -p.AtmosphereRadius))
		assert.True(t, in.Primary.ApproxEqual(core.Vec3{}, 1e-12))
	})

	t.Run("camera on the vertex", func(t *testing.T) {
		in := u.SkyFromSpace(camera, camera)
		assert.Equal(t, InScatter{}, in)
	})
}

func TestGround(t *testing.T) {
	p := Defaults()
	p.SunDirection = core.NewVec3(0, 0, -1)
	u := p.Uniforms()

	tests := []struct {
		name   string
		camera core.Vec3
		vertex core.Vec3
	}{
		{"from space", core.NewVec3(0, 0, -20), core.NewVec3(0, 0, -10)},
		{"from inside the atmosphere", core.NewVec3(0, 0, -10.1), core.NewVec3(0, 0, -10)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := u.Ground(tt.camera, tt.vertex)

			requireFinitePositive(t, in.Primary)
			requireFinitePositive(t, in.Secondary)
			assert.LessOrEqual(t, in.Secondary.X, 1.0)
			// Red survives the path better than blue
			assert.Greater(t, in.Secondary.X, in.Secondary.Z)
		})
	}

	t.Run("camera on the vertex", func(t *testing.T) {
		in := u.Ground(core.NewVec3(0, 10, 0), core.NewVec3(0, 10, 0))
		assert.Equal(t, core.Splat(1), in.Secondary)
	})
}

func TestSkyColor(t *testing.T) {
	p := Defaults()
	u := p.Uniforms()
	in := InScatter{Primary: core.NewVec3(0.1, 0.2, 0.4), Secondary: core.NewVec3(0.05, 0.05, 0.05)}

	color, alpha := u.SkyColor(in, core.NewVec3(0, 2, 0))

	// Sun along +X is perpendicular to the view so cos = 0
	expected := in.Primary.Multiply(0.75).Add(in.Secondary.Multiply(MiePhase(0, u.G, u.G2)))
	assert.True(t, color.ApproxEqual(expected, 1e-12))
	assert.Equal(t, color.Z, alpha)

	color, alpha = u.SkyColor(in, core.Vec3{})
	assert.Equal(t, core.Vec3{}, color)
	assert.Equal(t, 0.0, alpha)
}
