package shading

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/df07/go-atmosphere/pkg/core"
	"github.com/df07/go-atmosphere/pkg/material"
	"github.com/df07/go-atmosphere/pkg/scattering"
)

const (
	ambient = 0.1
	// albedo used when a geometry node has no texture
	defaultAlbedo = 0.5
)

// FrameUniforms holds everything a program reads that is constant for a frame
type FrameUniforms struct {
	Scattering        scattering.Uniforms
	CameraPosition    core.Vec3
	PlanetPosition    core.Vec3
	ViewProjection    mgl64.Mat4
	AtmosphereEnabled bool
}

// VertexInput is one mesh vertex in model space
type VertexInput struct {
	Position core.Vec3
	Normal   core.Vec3
	UV       core.Vec2
}

// Varyings are the per-vertex outputs interpolated across a triangle
type Varyings struct {
	Primary   core.Vec3
	Secondary core.Vec3
	Direction core.Vec3 // From the vertex towards the camera
	Normal    core.Vec3 // World space
	UV        core.Vec2
}

// Scale multiplies every varying by s
func (v Varyings) Scale(s float64) Varyings {
	return Varyings{
		Primary:   v.Primary.Multiply(s),
		Secondary: v.Secondary.Multiply(s),
		Direction: v.Direction.Multiply(s),
		Normal:    v.Normal.Multiply(s),
		UV:        core.NewVec2(v.UV.X*s, v.UV.Y*s),
	}
}

// Add sums two sets of varyings
func (v Varyings) Add(o Varyings) Varyings {
	return Varyings{
		Primary:   v.Primary.Add(o.Primary),
		Secondary: v.Secondary.Add(o.Secondary),
		Direction: v.Direction.Add(o.Direction),
		Normal:    v.Normal.Add(o.Normal),
		UV:        core.NewVec2(v.UV.X+o.UV.X, v.UV.Y+o.UV.Y),
	}
}

// Lerp interpolates linearly from v to o
func (v Varyings) Lerp(o Varyings, t float64) Varyings {
	return v.Scale(1 - t).Add(o.Scale(t))
}

// Program is the CPU counterpart of a vertex and fragment shader pair
type Program interface {
	// Vertex transforms a model-space vertex and returns its clip-space
	// position with the varyings to interpolate.
	Vertex(in VertexInput, model mgl64.Mat4, u *FrameUniforms) (mgl64.Vec4, Varyings)
	// Fragment shades one interpolated sample. texture may be nil.
	Fragment(v Varyings, texture material.ColorSource, u *FrameUniforms) (color core.Vec3, alpha float64)
}

var programs = map[Technique]Program{
	Surface:           surfaceProgram{},
	SkyFromSpace:      skyProgram{inside: false},
	SkyFromAtmosphere: skyProgram{inside: true},
}

// ProgramFor returns the program implementing technique
func ProgramFor(technique Technique) Program {
	p, ok := programs[technique]
	if !ok {
		panic(fmt.Sprintf("shading: no program for %v", technique))
	}
	return p
}

// worldVertex transforms a vertex and returns its world position and clip position
func worldVertex(in VertexInput, model mgl64.Mat4, u *FrameUniforms) (core.Vec3, mgl64.Vec4) {
	world := model.Mul4x1(in.Position.Mgl().Vec4(1))
	return core.FromMgl(world.Vec3()), u.ViewProjection.Mul4x1(world)
}

type skyProgram struct {
	inside bool
}

func (p skyProgram) Vertex(in VertexInput, model mgl64.Mat4, u *FrameUniforms) (mgl64.Vec4, Varyings) {
	world, clip := worldVertex(in, model, u)
	vertex := world.Subtract(u.PlanetPosition)
	camera := u.CameraPosition.Subtract(u.PlanetPosition)

	var scatter scattering.InScatter
	if p.inside {
		scatter = u.Scattering.SkyFromAtmosphere(camera, vertex)
	} else {
		scatter = u.Scattering.SkyFromSpace(camera, vertex)
	}

	return clip, Varyings{
		Primary:   scatter.Primary,
		Secondary: scatter.Secondary,
		Direction: camera.Subtract(vertex),
		UV:        in.UV,
	}
}

func (p skyProgram) Fragment(v Varyings, _ material.ColorSource, u *FrameUniforms) (core.Vec3, float64) {
	color, alpha := u.Scattering.SkyColor(scattering.InScatter{Primary: v.Primary, Secondary: v.Secondary}, v.Direction)
	return color, clamp01(alpha)
}

type surfaceProgram struct{}

func (surfaceProgram) Vertex(in VertexInput, model mgl64.Mat4, u *FrameUniforms) (mgl64.Vec4, Varyings) {
	world, clip := worldVertex(in, model, u)
	normal := core.FromMgl(model.Mul4x1(in.Normal.Mgl().Vec4(0)).Vec3()).Normalize()

	out := Varyings{
		Normal: normal,
		UV:     in.UV,
	}
	if u.AtmosphereEnabled {
		scatter := u.Scattering.Ground(u.CameraPosition.Subtract(u.PlanetPosition), world.Subtract(u.PlanetPosition))
		out.Primary = scatter.Primary
		out.Secondary = scatter.Secondary
	} else {
		out.Secondary = core.Splat(1)
	}
	return clip, out
}

func (surfaceProgram) Fragment(v Varyings, texture material.ColorSource, u *FrameUniforms) (core.Vec3, float64) {
	albedo := core.Splat(defaultAlbedo)
	if texture != nil {
		albedo = texture.Evaluate(v.UV)
	}
	diffuse := math.Max(v.Normal.Normalize().Dot(u.Scattering.SunDirection), ambient)
	return v.Primary.Add(albedo.MultiplyVec(v.Secondary).Multiply(diffuse)), 1
}

func clamp01(f float64) float64 {
	return math.Max(0, math.Min(1, f))
}
