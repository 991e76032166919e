package frame

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-atmosphere/pkg/config"
	"github.com/df07/go-atmosphere/pkg/log"
	"github.com/df07/go-atmosphere/pkg/material"
	"github.com/df07/go-atmosphere/pkg/shading"
	"github.com/df07/go-atmosphere/pkg/ui"
)

func smallConfig() config.Config {
	cfg := config.Default()
	cfg.Render.Width, cfg.Render.Height = 64, 48
	cfg.Render.TileSize = 16
	cfg.Render.Workers = 2
	cfg.Scene.Slices, cfg.Scene.Layers = 16, 12
	return cfg
}

func TestNewRuntime_RendersPlanet(t *testing.T) {
	rt, err := NewRuntime(smallConfig(), log.NewNop(), WithClock(FixedClock{Step: 1.0 / 30}))
	require.NoError(t, err)
	defer rt.Close()

	frame, err := rt.Orchestrator.Tick(context.Background())
	require.NoError(t, err)

	require.NotNil(t, frame.Image)
	assert.Equal(t, image.Rect(0, 0, 64, 48), frame.Image.Bounds())
	require.Len(t, frame.Draws, 2)
	assert.Equal(t, shading.Surface, frame.Draws[0].Technique)
	assert.Equal(t, shading.SkyFromSpace, frame.Draws[1].Technique)
	assert.Positive(t, frame.Stats.Fragments)
	assert.Positive(t, frame.Stats.Culled)

	// The planet fills the centre; the corners are empty space
	assert.NotEqual(t, color.RGBA{0, 0, 0, 255}, frame.Image.RGBAAt(32, 24))
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, frame.Image.RGBAAt(0, 0))
}

func TestNewRuntime_WebEditsReachTheScene(t *testing.T) {
	rt, err := NewRuntime(smallConfig(), log.NewNop(), WithClock(FixedClock{}))
	require.NoError(t, err)
	defer rt.Close()

	require.True(t, rt.Edits.PushEdits(ui.Edits{AtmosphereEnabled: ui.Bool(false)}))
	frame, err := rt.Orchestrator.Tick(context.Background())
	require.NoError(t, err)

	require.Len(t, frame.Draws, 1)
	assert.False(t, rt.Orchestrator.Scene().Settings.AtmosphereEnabled)
}

func TestNewRuntime_ParamsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.toml")
	require.NoError(t, os.WriteFile(path, []byte("kr = 0.004\n"), 0o644))

	cfg := smallConfig()
	cfg.Scene.ParamsFile = path
	rt, err := NewRuntime(cfg, log.NewNop(), WithClock(FixedClock{}))
	require.NoError(t, err)
	defer rt.Close()

	_, err = rt.Orchestrator.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0.004, rt.Orchestrator.Scene().Settings.Scattering.Kr)
}

func TestNewRuntime_TextureFile(t *testing.T) {
	dir := t.TempDir()
	img := image.NewRGBA(image.Rect(0, 0, 8, 4))
	for i := range img.Pix {
		img.Pix[i] = 200
	}
	path := filepath.Join(dir, "earth.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	cfg := smallConfig()
	cfg.Scene.Texture = path
	rt, err := NewRuntime(cfg, log.NewNop(), WithClock(FixedClock{}))
	require.NoError(t, err)
	rt.Close()

	cfg.Scene.Texture = filepath.Join(dir, "missing.png")
	_, err = NewRuntime(cfg, log.NewNop())
	assert.Error(t, err)
}

func TestNewRuntime_UnknownPreset(t *testing.T) {
	cfg := smallConfig()
	cfg.Scene.Preset = "jupiter"
	_, err := NewRuntime(cfg, log.NewNop())
	assert.Error(t, err)
}

func TestLoadAlbedo_Procedural(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"planet", ""},
		{"checker", TextureChecker},
		{"uv debug", TextureUVDebug},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source, err := loadAlbedo(tt.path)
			require.NoError(t, err)

			texture, ok := source.(*material.ImageTexture)
			require.True(t, ok, "got %T", source)
			assert.Equal(t, proceduralTextureWidth, texture.Width)
			assert.Equal(t, proceduralTextureHeight, texture.Height)
		})
	}
}
