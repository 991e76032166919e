package frame

import (
	"context"
	"errors"
	"image"
	"math"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-atmosphere/pkg/camera"
	"github.com/df07/go-atmosphere/pkg/core"
	"github.com/df07/go-atmosphere/pkg/log"
	"github.com/df07/go-atmosphere/pkg/mesh"
	"github.com/df07/go-atmosphere/pkg/metrics"
	"github.com/df07/go-atmosphere/pkg/renderer"
	"github.com/df07/go-atmosphere/pkg/scattering"
	"github.com/df07/go-atmosphere/pkg/scene"
	"github.com/df07/go-atmosphere/pkg/shading"
	"github.com/df07/go-atmosphere/pkg/ui"
)

// recorder collects the calls made into the fakes, in order
type recorder struct {
	calls []string
}

func (r *recorder) add(call string) {
	r.calls = append(r.calls, call)
}

type fakeClock struct {
	rec  *recorder
	step float64
}

func (c *fakeClock) Elapsed() float64 {
	c.rec.add("elapsed")
	return c.step
}

type fakeSource struct {
	rec     *recorder
	pending ui.Batch
}

func (s *fakeSource) Poll() ui.Batch {
	s.rec.add("poll")
	b := s.pending
	s.pending = ui.Batch{}
	return b
}

type fakeCamera struct {
	rec      *recorder
	position core.Vec3
	keys     map[int]bool
	orbits   []float64
}


func (c *fakeCamera) Update(dt float64) { c.rec.add("camera.update") }
func (c *fakeCamera) Position() core.Vec3 { return c.position }
func (c *fakeCamera) SetPosition(p core.Vec3) { c.position = p }
func (c *fakeCamera) LookAt(target core.Vec3) {}
func (c *fakeCamera) HandleMouseButton(int, bool) {}
func (c *fakeCamera) HandleCursor(x, y float64) {}

func (c *fakeCamera) ViewMatrix() mgl64.Mat4 {
	c.rec.add("camera.view")
	return mgl64.Ident4()
}

func (c *fakeCamera) HandleKey(key int, pressed bool) {
	if c.keys == nil {
		c.keys = make(map[int]bool)
	}
	c.keys[key] = pressed
}
func (c *fakeCamera) Orbit(target core.Vec3, distance float64) {
	c.orbits = append(c.orbits, distance)
	c.position = core.NewVec3(0, 0, distance)
}

type fakeBackend struct {
	rec      *recorder
	uniforms shading.FrameUniforms
	calls    []renderer.DrawCall
	drawErr  error
}

func (b *fakeBackend) BeginFrame(u shading.FrameUniforms) {
	b.rec.add("begin")
	b.uniforms = u
	b.calls = nil
}

func (b *fakeBackend) Draw(call renderer.DrawCall) error {
	b.rec.add("draw")
	if b.drawErr != nil {
		return b.drawErr
	}
	b.calls = append(b.calls, call)
	return nil
}

func (b *fakeBackend) EndFrame() (*image.RGBA, renderer.FrameStats, error) {
	b.rec.add("end")
	return image.NewRGBA(image.Rect(0, 0, 1, 1)), renderer.FrameStats{DrawCalls: len(b.calls)}, nil
}

type fixture struct {
	rec     *recorder
	clock   *fakeClock
	source  *fakeSource
	camera  *fakeCamera
	backend *fakeBackend
	scene   *SceneContext
	orch    *Orchestrator
}

func newFixture(t *testing.T, presetID string, cameraPosition core.Vec3, opts ...Option) *fixture {
	t.Helper()
	rec := &recorder{}
	f := &fixture{
		rec:     rec,
		clock:   &fakeClock{rec: rec, step: 0.5},
		source:  &fakeSource{rec: rec},
		camera:  &fakeCamera{rec: rec, position: cameraPosition},
		backend: &fakeBackend{rec: rec},
	}

	preset, ok := scene.LookupPreset(presetID)
	require.True(t, ok)

	params := scattering.Defaults()
	planet := scene.NewPlanetScene(mesh.NewRegistry(), scene.PlanetOptions{PlanetRadius: params.PlanetRadius, Slices: 6, Layers: 4})
	f.scene = NewSceneContext(planet, preset, params, 0.1, f.camera, camera.DefaultProjection(), 1)
	f.orch = New(f.scene, f.clock, f.backend, log.NewNop(), append([]Option{WithSource(f.source)}, opts...)...)
	return f
}

func transformPoint(m mgl64.Mat4, p core.Vec3) core.Vec3 {
	return core.FromMgl(m.Mul4x1(p.Mgl().Vec4(1)).Vec3())
}

func TestTick_StepOrder(t *testing.T) {
	f := newFixture(t, "planet", core.NewVec3(0, 0, 30))

	frame, err := f.orch.Tick(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"elapsed",
		"poll",
		"camera.update",
		"camera.view",
		"begin",
		"draw", // planet
		"draw", // atmosphere
		"end",
	}, f.rec.calls)

	assert.Equal(t, uint64(0), frame.Tick)
	assert.Equal(t, 0.5, frame.Elapsed)
	require.Len(t, frame.Draws, 2)
	assert.Equal(t, "planet", frame.Draws[0].Node)
	assert.Equal(t, "atmosphere", frame.Draws[1].Node)

	next, err := f.orch.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), next.Tick)
}

func TestTick_ShadingSelection(t *testing.T) {
	tests := []struct {
		name         string
		camera       core.Vec3
		wantAtmoTech shading.Technique
	}{
		{"camera in space", core.NewVec3(0, 0, 30), shading.SkyFromSpace},
		{"camera just outside the shell", core.NewVec3(0, 10.26, 0), shading.SkyFromSpace},
		{"camera on the shell", core.NewVec3(10.25, 0, 0), shading.SkyFromAtmosphere},
		{"camera inside the atmosphere", core.NewVec3(0, 0, 10.1), shading.SkyFromAtmosphere},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, "planet", tt.camera)

			_, err := f.orch.Tick(context.Background())
			require.NoError(t, err)

			require.Len(t, f.backend.calls, 2)
			planet, atmosphere := f.backend.calls[0], f.backend.calls[1]
			assert.Equal(t, shading.Surface, planet.Technique)
			assert.Equal(t, shading.CullBack, planet.Cull)
			assert.Equal(t, tt.wantAtmoTech, atmosphere.Technique)
			assert.Equal(t, shading.CullFront, atmosphere.Cull)
		})
	}
}

func TestTick_AtmosphereDisabled(t *testing.T) {
	f := newFixture(t, "bare-planet", core.NewVec3(0, 0, 30))

	frame, err := f.orch.Tick(context.Background())
	require.NoError(t, err)

	require.Len(t, frame.Draws, 1)
	assert.Equal(t, "planet", frame.Draws[0].Node)
	assert.False(t, f.backend.uniforms.AtmosphereEnabled)
}

func TestTick_AtmosphereScaleFollowsRadius(t *testing.T) {
	f := newFixture(t, "planet", core.NewVec3(0, 0, 30))
	f.source.pending.Edits = []ui.Edits{{AtmosphereRadius: ui.Float(11)}}

	frame, err := f.orch.Tick(context.Background())
	require.NoError(t, err)
	assert.Empty(t, frame.Rejected)

	atmosphere := f.backend.calls[1]
	got := transformPoint(atmosphere.Model, core.NewVec3(10, 0, 0))
	assert.True(t, got.ApproxEqual(core.NewVec3(11, 0, 0), 1e-9), "got %v", got)

	assert.Equal(t, 11.0, f.backend.uniforms.Scattering.OuterRadius)
	assert.InDelta(t, 1.0, f.backend.uniforms.Scattering.Scale, 1e-12)
}

func TestTick_PlanetAngleRotatesPlanet(t *testing.T) {
	f := newFixture(t, "planet", core.NewVec3(0, 0, 30))
	f.source.pending.Edits = []ui.Edits{{PlanetAngle: ui.Float(math.Pi / 2)}}

	_, err := f.orch.Tick(context.Background())
	require.NoError(t, err)

	// Ry(π/2) turns +Z into +X
	got := transformPoint(f.backend.calls[0].Model, core.NewVec3(0, 0, 10))
	assert.True(t, got.ApproxEqual(core.NewVec3(10, 0, 0), 1e-9), "got %v", got)
}

func TestTick_RejectsAtmosphereBelowPlanet(t *testing.T) {
	f := newFixture(t, "planet", core.NewVec3(0, 0, 30))
	f.source.pending.Edits = []ui.Edits{
		{AtmosphereRadius: ui.Float(9)},
		{Kr: ui.Float(0.004)},
	}

	frame, err := f.orch.Tick(context.Background())
	require.NoError(t, err)

	require.Len(t, frame.Rejected, 1)
	assert.ErrorIs(t, frame.Rejected[0], scattering.ErrAtmosphereBelowPlanet)

	s := f.scene.Settings.Scattering
	assert.Equal(t, 10.25, s.AtmosphereRadius, "rejected value is not clamped or applied")
	assert.Equal(t, 0.004, s.Kr, "later valid edits still apply")
	assert.Equal(t, 0.004*s.ESun, f.backend.uniforms.Scattering.KrESun)
}

func TestTick_StaticPresetOnlyAcceptsCamera(t *testing.T) {
	f := newFixture(t, "planet-static", core.NewVec3(0, 0, 30))
	f.source.pending.Edits = []ui.Edits{
		{Kr: ui.Float(0.004)},
		{CameraZoom: ui.Float(50)},
	}

	frame, err := f.orch.Tick(context.Background())
	require.NoError(t, err)

	require.Len(t, frame.Rejected, 1)
	assert.ErrorIs(t, frame.Rejected[0], ErrEditsLocked)
	assert.Equal(t, scattering.Defaults().Kr, f.scene.Settings.Scattering.Kr)
	assert.Equal(t, []float64{50}, f.camera.orbits)
}

func TestTick_SunOrbit(t *testing.T) {
	f := newFixture(t, "sun-orbit", core.NewVec3(0, 0, 30))
	f.clock.step = 10

	_, err := f.orch.Tick(context.Background())
	require.NoError(t, err)

	expected := core.NewVec3(math.Cos(1), 0, math.Sin(1))
	assert.True(t, f.backend.uniforms.Scattering.SunDirection.ApproxEqual(expected, 1e-12))
	assert.InDelta(t, 1.0, f.scene.Settings.SunAngle, 1e-12)

	// 63 more seconds is 6.3 rad further, wrapping past 2π
	f.clock.step = 63
	_, err = f.orch.Tick(context.Background())
	require.NoError(t, err)
	angle := f.scene.Orbit.Angle
	assert.GreaterOrEqual(t, angle, 0.0)
	assert.Less(t, angle, 2*math.Pi)
	assert.InDelta(t, 7.3-2*math.Pi, angle, 1e-9)
}

func TestTick_SunAngleEditWithoutOrbit(t *testing.T) {
	f := newFixture(t, "planet", core.NewVec3(0, 0, 30))
	f.source.pending.Edits = []ui.Edits{{SunAngle: ui.Float(math.Pi)}}

	_, err := f.orch.Tick(context.Background())
	require.NoError(t, err)

	assert.True(t, f.backend.uniforms.Scattering.SunDirection.ApproxEqual(core.NewVec3(-1, 0, 0), 1e-12))

	// Time alone does not move the sun
	_, err = f.orch.Tick(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, math.Pi, f.scene.Orbit.Angle, 1e-12)
}

func TestTick_ForwardsInput(t *testing.T) {
	f := newFixture(t, "planet", core.NewVec3(0, 0, 30))
	f.source.pending.Input = []ui.InputEvent{
		{Kind: ui.KeyInput, Key: camera.KeyW, Pressed: true},
		{Kind: ui.KeyInput, Key: camera.KeyS, Pressed: false},
	}

	_, err := f.orch.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[int]bool{camera.KeyW: true, camera.KeyS: false}, f.camera.keys)
}

func TestTick_CancelledContext(t *testing.T) {
	f := newFixture(t, "planet", core.NewVec3(0, 0, 30))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.orch.Tick(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.rec.calls)
}

func TestTick_DrawError(t *testing.T) {
	f := newFixture(t, "planet", core.NewVec3(0, 0, 30))
	f.backend.drawErr = errors.New("out of memory")

	_, err := f.orch.Tick(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, f.backend.drawErr)
	assert.Contains(t, err.Error(), "planet")
	assert.Equal(t, "end", f.rec.calls[len(f.rec.calls)-1], "frame is always closed")
}

func TestTick_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	f := newFixture(t, "planet", core.NewVec3(0, 0, 30), WithMetrics(metrics.NewCollector(reg)))
	f.source.pending.Edits = []ui.Edits{{Kr: ui.Float(1)}}

	_, err := f.orch.Tick(context.Background())
	require.NoError(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	assert.True(t, names["atmosphere_frames_total"])
	assert.True(t, names["atmosphere_draw_calls_total"])
	assert.True(t, names["atmosphere_parameter_edits_total"])
}

func TestRun(t *testing.T) {
	f := newFixture(t, "planet", core.NewVec3(0, 0, 30))

	var ticks []uint64
	err := f.orch.Run(context.Background(), 0, 3, func(fr Frame) error {
		ticks = append(ticks, fr.Tick)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []uint64{0, 1, 2}, ticks)
}

func TestRun_StopsOnSinkError(t *testing.T) {
	f := newFixture(t, "planet", core.NewVec3(0, 0, 30))
	stop := errors.New("disk full")

	count := 0
	err := f.orch.Run(context.Background(), 1000, 0, func(Frame) error {
		count++
		if count == 2 {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 2, count)
}

func TestRun_Cancelled(t *testing.T) {
	f := newFixture(t, "planet", core.NewVec3(0, 0, 30))
	ctx, cancel := context.WithCancel(context.Background())

	err := f.orch.Run(ctx, 0, 0, func(fr Frame) error {
		if fr.Tick == 4 {
			cancel()
		}
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClocks(t *testing.T) {
	assert.Equal(t, 0.25, FixedClock{Step: 0.25}.Elapsed())

	c := NewSystemClock()
	base := c.last
	times := []float64{0.5, 1.25, 1.25}
	i := 0
	c.now = func() time.Time {
		at := base.Add(time.Duration(times[i] * float64(time.Second)))
		i++
		return at
	}
	assert.InDelta(t, 0.5, c.Elapsed(), 1e-9)
	assert.InDelta(t, 0.75, c.Elapsed(), 1e-9)
	assert.InDelta(t, 0, c.Elapsed(), 1e-9)
}
