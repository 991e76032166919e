// Package frame drives the per-frame update and render passes of a planet
// scene: UI edits, derived animation state, camera, transform propagation,
// shading selection and draw submission.
package frame

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/df07/go-atmosphere/pkg/core"
	"github.com/df07/go-atmosphere/pkg/metrics"
	"github.com/df07/go-atmosphere/pkg/renderer"
	"github.com/df07/go-atmosphere/pkg/scattering"
	"github.com/df07/go-atmosphere/pkg/scene"
	"github.com/df07/go-atmosphere/pkg/shading"
	"github.com/df07/go-atmosphere/pkg/ui"
)

// ErrEditsLocked rejects parameter edits on presets that only allow camera changes
var ErrEditsLocked = errors.New("preset does not accept parameter edits")

// DrawRecord describes one draw call issued during a tick
type DrawRecord struct {
	Node      string            `json:"node"`
	Technique shading.Technique `json:"-"`
	Cull      shading.CullFace  `json:"-"`
}

// Frame is the result of one tick
type Frame struct {
	Image    *image.RGBA
	Tick     uint64
	Elapsed  float64 // Seconds sampled from the time source
	Draws    []DrawRecord
	Stats    renderer.FrameStats
	Rejected []error // UI edits refused this tick
}

// Orchestrator runs ticks over a SceneContext
type Orchestrator struct {
	scene   *SceneContext
	clock   TimeSource
	backend Backend
	source  ui.Source
	panel   ui.Panel
	logger  core.Logger
	metrics *metrics.Collector
	tick    uint64
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithSource reads UI edits and input from src each tick
func WithSource(src ui.Source) Option {
	return func(o *Orchestrator) { o.source = src }
}

// WithMetrics records frames, draws and edits in m
func WithMetrics(m *metrics.Collector) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// New creates an orchestrator. The panel ranges follow the scene's planet radius.
func New(sc *SceneContext, clock TimeSource, backend Backend, logger core.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		scene:   sc,
		clock:   clock,
		backend: backend,
		panel:   ui.DefaultPanel(sc.Settings.Scattering.PlanetRadius),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Scene returns the context the orchestrator owns. Callers must not modify
// it while a tick is running.
func (o *Orchestrator) Scene() *SceneContext {
	return o.scene
}

// Panel returns the control descriptors for the scene
func (o *Orchestrator) Panel() ui.Panel {
	return o.panel
}

// Tick advances the scene by one frame and renders it
func (o *Orchestrator) Tick(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}
	sc := o.scene

	// 1. Time
	dt := o.clock.Elapsed()

	// 2. UI edits, then state derived from the settings
	rejected := o.applyUI()
	o.applyDerived(dt)

	// 3. Camera
	sc.Camera.Update(dt)

	// 4. View-projection
	vp := sc.Projection.Matrix(sc.Aspect).Mul4(sc.Camera.ViewMatrix())

	// 5. Transforms
	sc.Graph.Propagate(scene.Root, mgl64.Ident4())

	// 6. Draw in pre-order with one latched parameter snapshot
	params := sc.Settings.Scattering
	planetPosition := sc.PlanetPosition()
	cameraPosition := sc.Camera.Position()
	uniforms := shading.FrameUniforms{
		Scattering:        params.Uniforms(),
		CameraPosition:    cameraPosition,
		PlanetPosition:    planetPosition,
		ViewProjection:    vp,
		AtmosphereEnabled: sc.Settings.AtmosphereEnabled,
	}

	o.backend.BeginFrame(uniforms)

	var draws []DrawRecord
	var drawErr error
	sc.Graph.Walk(func(id scene.NodeID, n *scene.Node) {
		if drawErr != nil {
			return
		}
		sel := shading.Select(n.Type, cameraPosition.Subtract(planetPosition), params)
		if n.Renderable == nil {
			return
		}
		if n.Type == scene.Atmosphere && !sc.Settings.AtmosphereEnabled {
			return
		}

		drawErr = o.backend.Draw(renderer.DrawCall{
			Renderable: *n.Renderable,
			Model:      n.World,
			Technique:  sel.Technique,
			Cull:       sel.Cull,
			Texture:    n.Texture,
		})
		if drawErr != nil {
			drawErr = fmt.Errorf("draw %s: %w", n.Name, drawErr)
			return
		}
		draws = append(draws, DrawRecord{Node: n.Name, Technique: sel.Technique, Cull: sel.Cull})
		if o.metrics != nil {
			o.metrics.RecordDraw(sel.Technique.String())
		}
	})

	img, stats, err := o.backend.EndFrame()
	if drawErr != nil && err == nil {
		err = drawErr
	}
	if o.metrics != nil {
		o.metrics.RecordFrame(stats, err)
	}
	if err != nil {
		return Frame{}, fmt.Errorf("frame %d: %w", o.tick, err)
	}

	frame := Frame{
		Image:    img,
		Tick:     o.tick,
		Elapsed:  dt,
		Draws:    draws,
		Stats:    stats,
		Rejected: rejected,
	}
	o.tick++
	return frame, nil
}

// applyUI drains the UI source. Input goes to the camera; edits go through
// the panel and are rejected whole when invalid.
func (o *Orchestrator) applyUI() []error {
	if o.source == nil {
		return nil
	}
	sc := o.scene
	batch := o.source.Poll()

	for _, ev := range batch.Input {
		switch ev.Kind {
		case ui.KeyInput:
			sc.Camera.HandleKey(ev.Key, ev.Pressed)
		case ui.MouseButtonInput:
			sc.Camera.HandleMouseButton(ev.Button, ev.Pressed)
		case ui.CursorInput:
			sc.Camera.HandleCursor(ev.X, ev.Y)
		}
	}

	var rejected []error
	for _, e := range batch.Edits {
		var applied []string
		var err error
		if !sc.Preset.AcceptEdits && !e.CameraOnly() && !e.Empty() {
			err = ErrEditsLocked
		} else {
			applied, err = o.panel.Apply(e, &sc.Settings)
		}
		if o.metrics != nil {
			o.metrics.RecordEdit(err == nil)
		}
		if err != nil {
			o.logger.Printf("Rejected UI edit: %v", err)
			rejected = append(rejected, err)
			continue
		}

		for _, name := range applied {
			switch name {
			case ui.OptionCameraZoom:
				sc.Camera.Orbit(sc.PlanetPosition(), sc.Settings.CameraZoom)
			case ui.OptionSunAngle:
				sc.Orbit.Angle = scattering.WrapAngle(sc.Settings.SunAngle)
			}
		}
	}
	return rejected
}

// applyDerived updates the node transforms and sun direction that follow
// from the settings
func (o *Orchestrator) applyDerived(dt float64) {
	sc := o.scene
	s := &sc.Settings

	atmosphere := sc.Graph.Node(sc.Atmosphere)
	atmosphere.Scale = core.Splat(s.Scattering.AtmosphereRadius / s.Scattering.PlanetRadius)

	planet := sc.Graph.Node(sc.Planet)
	planet.Rotation.Y = s.PlanetAngle

	if s.SunOrbitEnabled {
		s.Scattering.SunDirection = sc.Orbit.Advance(dt)
		s.SunAngle = sc.Orbit.Angle
	} else {
		s.Scattering.SunDirection = scattering.SunDirectionFromAngle(sc.Orbit.Angle)
	}
}

// Sink consumes rendered frames. Returning an error stops Run.
type Sink func(Frame) error

// Run ticks until maxFrames frames are rendered (forever when maxFrames <= 0),
// the context is cancelled, or a tick or the sink fails. Ticks are paced to
// fps; fps <= 0 renders as fast as possible.
func (o *Orchestrator) Run(ctx context.Context, fps float64, maxFrames int, sink Sink) error {
	limiter := newFrameLimiter(fps)

	start := time.Now()
	for n := 0; maxFrames <= 0 || n < maxFrames; n++ {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
		frame, err := o.Tick(ctx)
		if err != nil {
			return err
		}
		if sink != nil {
			if err := sink(frame); err != nil {
				return err
			}
		}
	}

	o.logger.Printf("Rendered %d frames in %v", maxFrames, time.Since(start).Round(time.Millisecond))
	return nil
}

// sunAngleOf returns the orbit angle of a direction in the XZ plane
func sunAngleOf(direction core.Vec3) float64 {
	return math.Atan2(direction.Z, direction.X)
}
