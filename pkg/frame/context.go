package frame

import (
	"image"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/df07/go-atmosphere/pkg/camera"
	"github.com/df07/go-atmosphere/pkg/core"
	"github.com/df07/go-atmosphere/pkg/renderer"
	"github.com/df07/go-atmosphere/pkg/scattering"
	"github.com/df07/go-atmosphere/pkg/scene"
	"github.com/df07/go-atmosphere/pkg/shading"
	"github.com/df07/go-atmosphere/pkg/ui"
)

// CameraController is the camera the orchestrator drives. It reads only the
// position and view matrix; the rest forwards input and zoom.
type CameraController interface {
	Update(dt float64)
	ViewMatrix() mgl64.Mat4
	Position() core.Vec3
	SetPosition(p core.Vec3)
	LookAt(target core.Vec3)
	Orbit(target core.Vec3, distance float64)
	HandleKey(key int, pressed bool)
	HandleMouseButton(button int, pressed bool)
	HandleCursor(x, y float64)
}

// Backend accepts draw calls and produces the frame image
type Backend interface {
	BeginFrame(u shading.FrameUniforms)
	Draw(call renderer.DrawCall) error
	EndFrame() (*image.RGBA, renderer.FrameStats, error)
}

// SceneContext is all mutable state of a running scene. It is owned by one
// Orchestrator and only touched from Tick.
type SceneContext struct {
	Graph      *scene.Graph
	Planet     scene.NodeID
	Atmosphere scene.NodeID

	Settings ui.Settings
	Orbit    scattering.SunOrbit
	Preset   scene.Preset

	Camera     CameraController
	Projection camera.Projection
	Aspect     float64
}

// NewSceneContext wires a planet scene to its settings. The sun orbit starts
// at the configured sun angle.
func NewSceneContext(s *scene.PlanetScene, preset scene.Preset, params scattering.Parameters, orbitRate float64, cam CameraController, projection camera.Projection, aspect float64) *SceneContext {
	sunAngle := scattering.WrapAngle(sunAngleOf(params.SunDirection))
	return &SceneContext{
		Graph:      s.Graph,
		Planet:     s.Planet,
		Atmosphere: s.Atmosphere,
		Settings: ui.Settings{
			Scattering:        params,
			SunAngle:          sunAngle,
			AtmosphereEnabled: preset.AtmosphereEnabled,
			SunOrbitEnabled:   preset.SunOrbitEnabled,
		},
		Orbit:      scattering.SunOrbit{Angle: sunAngle, Rate: orbitRate},
		Preset:     preset,
		Camera:     cam,
		Projection: projection,
		Aspect:     aspect,
	}
}

// PlanetPosition returns the planet's world position as of the last propagation
func (sc *SceneContext) PlanetPosition() core.Vec3 {
	return sc.Graph.Node(sc.Planet).WorldPosition()
}
