package frame

import (
	"fmt"

	"github.com/df07/go-atmosphere/pkg/camera"
	"github.com/df07/go-atmosphere/pkg/config"
	"github.com/df07/go-atmosphere/pkg/core"
	"github.com/df07/go-atmosphere/pkg/loaders"
	"github.com/df07/go-atmosphere/pkg/material"
	"github.com/df07/go-atmosphere/pkg/mesh"
	"github.com/df07/go-atmosphere/pkg/metrics"
	"github.com/df07/go-atmosphere/pkg/renderer"
	"github.com/df07/go-atmosphere/pkg/scene"
	"github.com/df07/go-atmosphere/pkg/ui"
)

const (
	maxTextureWidth = 2048
	// Size of the procedural albedo used when no texture is configured
	proceduralTextureWidth  = 512
	proceduralTextureHeight = 256
	editQueueSize           = 64
)

// Runtime is a fully wired scene: orchestrator, rasterizer and UI sources
type Runtime struct {
	Orchestrator *Orchestrator
	Rasterizer   *renderer.Rasterizer
	Edits        *ui.ChannelSource // Web UI edits and input go here
	Preset       scene.Preset

	files *ui.FileSource
}

// RuntimeOption configures NewRuntime
type RuntimeOption func(*runtimeOptions)

type runtimeOptions struct {
	clock   TimeSource
	metrics *metrics.Collector
}

// WithClock replaces the system clock
func WithClock(c TimeSource) RuntimeOption {
	return func(o *runtimeOptions) { o.clock = c }
}

// WithRuntimeMetrics attaches a metrics collector to the orchestrator
func WithRuntimeMetrics(m *metrics.Collector) RuntimeOption {
	return func(o *runtimeOptions) { o.metrics = m }
}

// NewRuntime builds the scene described by cfg. The caller must Close it.
func NewRuntime(cfg config.Config, logger core.Logger, opts ...RuntimeOption) (*Runtime, error) {
	options := runtimeOptions{clock: NewSystemClock()}
	for _, opt := range opts {
		opt(&options)
	}

	preset, ok := scene.LookupPreset(cfg.Scene.Preset)
	if !ok {
		return nil, fmt.Errorf("unknown preset %q", cfg.Scene.Preset)
	}

	texture, err := loadAlbedo(cfg.Scene.Texture)
	if err != nil {
		return nil, err
	}

	params := cfg.ScatteringParameters()
	registry := mesh.NewRegistry()
	planet := scene.NewPlanetScene(registry, scene.PlanetOptions{
		PlanetRadius: params.PlanetRadius,
		Slices:       cfg.Scene.Slices,
		Layers:       cfg.Scene.Layers,
		Texture:      texture,
	})

	cam := camera.New(cfg.CameraPosition(), cfg.Camera.Speed, cfg.Camera.Sensitivity)
	cam.LookAt(core.Vec3{})

	rc := renderer.Config{
		Width:      cfg.Render.Width,
		Height:     cfg.Render.Height,
		TileSize:   cfg.Render.TileSize,
		NumWorkers: cfg.Render.Workers,
	}
	projection := camera.Projection{FovY: cfg.Render.FovY, Near: cfg.Render.Near, Far: cfg.Render.Far}
	sc := NewSceneContext(planet, preset, params, cfg.Scene.OrbitRate, cam, projection, rc.Aspect())

	rt := &Runtime{
		Edits:  ui.NewChannelSource(editQueueSize),
		Preset: preset,
	}

	sources := ui.MultiSource{rt.Edits}
	if cfg.Scene.ParamsFile != "" {
		rt.files, err = ui.NewFileSource(cfg.Scene.ParamsFile, logger)
		if err != nil {
			return nil, err
		}
		sources = append(sources, rt.files)
	}

	rt.Rasterizer = renderer.NewRasterizer(registry, rc, logger)

	orchestratorOpts := []Option{WithSource(sources)}
	if options.metrics != nil {
		orchestratorOpts = append(orchestratorOpts, WithMetrics(options.metrics))
	}
	rt.Orchestrator = New(sc, options.clock, rt.Rasterizer, logger, orchestratorOpts...)

	logger.Printf("Scene %q ready: planet radius %g, atmosphere radius %g",
		preset.ID, params.PlanetRadius, params.AtmosphereRadius)
	return rt, nil
}

// Close stops the rasterizer workers and the parameter file watcher
func (rt *Runtime) Close() error {
	rt.Rasterizer.Close()
	if rt.files != nil {
		return rt.files.Close()
	}
	return nil
}

// Texture names that select a procedural albedo instead of a file
const (
	TextureChecker = "checker"  // Checkerboard, for spotting seams and stretching
	TextureUVDebug = "uv-debug" // U in red, V in green
)

func loadAlbedo(path string) (material.ColorSource, error) {
	switch path {
	case "":
		return material.NewPlanetTexture(proceduralTextureWidth, proceduralTextureHeight), nil
	case TextureChecker:
		return material.NewCheckerboardTexture(proceduralTextureWidth, proceduralTextureHeight, 32,
			core.NewVec3(0.9, 0.9, 0.9), core.NewVec3(0.1, 0.1, 0.1)), nil
	case TextureUVDebug:
		return material.NewUVDebugTexture(proceduralTextureWidth, proceduralTextureHeight), nil
	}

	texture, err := loaders.LoadTexture(path, maxTextureWidth)
	if err != nil {
		return nil, fmt.Errorf("load planet texture: %w", err)
	}
	return texture, nil
}
