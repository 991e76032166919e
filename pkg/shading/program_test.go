package shading

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-atmosphere/pkg/core"
	"github.com/df07/go-atmosphere/pkg/material"
	"github.com/df07/go-atmosphere/pkg/scattering"
)

func testUniforms(camera core.Vec3, atmosphere bool) *FrameUniforms {
	params := scattering.Defaults()
	view := mgl64.LookAtV(camera.Mgl(), mgl64.Vec3{}, mgl64.Vec3{0, 1, 0})
	return &FrameUniforms{
		Scattering:        params.Uniforms(),
		CameraPosition:    camera,
		ViewProjection:    mgl64.Perspective(mgl64.DegToRad(80), 1, 0.1, 350).Mul4(view),
		AtmosphereEnabled: atmosphere,
	}
}

func TestProgramFor(t *testing.T) {
	for _, technique := range []Technique{Surface, SkyFromSpace, SkyFromAtmosphere} {
		assert.NotNil(t, ProgramFor(technique), technique.String())
	}
	assert.Panics(t, func() { ProgramFor(Technique(7)) })
}

func TestSurfaceProgram_WithoutAtmosphere(t *testing.T) {
	u := testUniforms(core.NewVec3(20, 0, 0), false)
	program := ProgramFor(Surface)
	texture := material.NewSolidColor(core.NewVec3(0.2, 0.4, 0.6))

	tests := []struct {
		name    string
		normal  core.Vec3
		diffuse float64
	}{
		{"facing the sun", core.NewVec3(1, 0, 0), 1},
		{"at an angle", core.NewVec3(1, 1, 0).Normalize(), math.Sqrt(0.5)},
		{"night side gets ambient", core.NewVec3(-1, 0, 0), ambient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := VertexInput{Position: tt.normal.Multiply(10), Normal: tt.normal}
			_, v := program.Vertex(in, mgl64.Ident4(), u)
			color, alpha := program.Fragment(v, texture, u)

			assert.Equal(t, 1.0, alpha)
			assert.True(t, color.ApproxEqual(texture.Color.Multiply(tt.diffuse), 1e-9), "got %v", color)
		})
	}
}

func TestSurfaceProgram_DefaultAlbedo(t *testing.T) {
	u := testUniforms(core.NewVec3(20, 0, 0), false)
	program := ProgramFor(Surface)

	_, v := program.Vertex(VertexInput{Position: core.NewVec3(10, 0, 0), Normal: core.NewVec3(1, 0, 0)}, mgl64.Ident4(), u)
	color, _ := program.Fragment(v, nil, u)

	assert.True(t, color.ApproxEqual(core.Splat(defaultAlbedo), 1e-9))
}

func TestSurfaceProgram_NormalFollowsModel(t *testing.T) {
	u := testUniforms(core.NewVec3(20, 0, 0), false)
	model := mgl64.HomogRotate3DY(math.Pi / 2).Mul4(mgl64.Scale3D(2, 2, 2))

	_, v := ProgramFor(Surface).Vertex(VertexInput{Position: core.NewVec3(0, 0, 10), Normal: core.NewVec3(0, 0, 1)}, model, u)

	assert.True(t, v.Normal.ApproxEqual(core.NewVec3(1, 0, 0), 1e-9), "got %v", v.Normal)
}

func TestSurfaceProgram_WithAtmosphere(t *testing.T) {
	u := testUniforms(core.NewVec3(20, 0, 0), true)
	program := ProgramFor(Surface)
	texture := material.NewSolidColor(core.NewVec3(0.2, 0.4, 0.6))

	_, v := program.Vertex(VertexInput{Position: core.NewVec3(10, 0, 0), Normal: core.NewVec3(1, 0, 0)}, mgl64.Ident4(), u)
	color, _ := program.Fragment(v, texture, u)

	require.Greater(t, v.Primary.Z, 0.0)
	// In-scattered light tints the surface blue and attenuation dims it
	assert.Greater(t, color.Z, texture.Color.Z*v.Secondary.Z)
	assert.Less(t, v.Secondary.Z, 1.0)
}

func TestSkyPrograms(t *testing.T) {
	params := scattering.Defaults()
	vertex := core.NewVec3(0, 1, 0).Multiply(params.PlanetRadius)
	model := mgl64.Scale3D(1.025, 1.025, 1.025)

	tests := []struct {
		name      string
		technique Technique
		camera    core.Vec3
	}{
		{"from space", SkyFromSpace, core.NewVec3(0, 30, 0)},
		{"from the atmosphere", SkyFromAtmosphere, core.NewVec3(0, 10.05, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := testUniforms(tt.camera, true)
			u.Scattering.SunDirection = core.NewVec3(0, 1, 0)
			program := ProgramFor(tt.technique)

			_, v := program.Vertex(VertexInput{Position: vertex, Normal: core.NewVec3(0, 1, 0)}, model, u)
			color, alpha := program.Fragment(v, nil, u)

			assert.True(t, v.Direction.ApproxEqual(tt.camera.Subtract(core.NewVec3(0, params.AtmosphereRadius, 0)), 1e-9))
			assert.GreaterOrEqual(t, alpha, 0.0)
			assert.LessOrEqual(t, alpha, 1.0)
			assert.GreaterOrEqual(t, color.Z, 0.0)
		})
	}
}

func TestSkyProgram_PlanetOffset(t *testing.T) {
	u := testUniforms(core.NewVec3(100, 30, 0), true)
	u.PlanetPosition = core.NewVec3(100, 0, 0)
	model := mgl64.Translate3D(100, 0, 0)

	_, v := ProgramFor(SkyFromSpace).Vertex(VertexInput{Position: core.NewVec3(0, 10.25, 0)}, model, u)

	// Positions are taken relative to the planet centre
	assert.True(t, v.Direction.ApproxEqual(core.NewVec3(0, 30-10.25, 0), 1e-9))
}

func TestVaryingsLerp(t *testing.T) {
	a := Varyings{Primary: core.Splat(1), UV: core.NewVec2(0, 0)}
	b := Varyings{Primary: core.Splat(3), UV: core.NewVec2(1, 0.5), Normal: core.NewVec3(0, 2, 0)}

	mid := a.Lerp(b, 0.5)

	assert.Equal(t, core.Splat(2), mid.Primary)
	assert.Equal(t, core.NewVec2(0.5, 0.25), mid.UV)
	assert.Equal(t, core.NewVec3(0, 1, 0), mid.Normal)
	assert.Equal(t, a, a.Lerp(b, 0))
}
