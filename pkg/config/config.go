// Package config loads the renderer configuration from a TOML file, a .env
// file and ATMOS_* environment variables, in that order of precedence
// (later wins), and validates the result.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/multierr"

	"github.com/df07/go-atmosphere/pkg/core"
	"github.com/df07/go-atmosphere/pkg/scattering"
	"github.com/df07/go-atmosphere/pkg/scene"
)

// Config is the complete renderer configuration
type Config struct {
	Render     RenderConfig     `toml:"render"`
	Scattering ScatteringConfig `toml:"scattering"`
	Scene      SceneConfig      `toml:"scene"`
	Camera     CameraConfig     `toml:"camera"`
	Server     ServerConfig     `toml:"server"`
	Log        LogConfig        `toml:"log"`
}

// RenderConfig controls the rasterizer and frame loop
type RenderConfig struct {
	Width    int     `toml:"width" validate:"gt=0,lte=8192"`
	Height   int     `toml:"height" validate:"gt=0,lte=8192"`
	FovY     float64 `toml:"fov" validate:"gt=0,lt=180"` // Degrees
	Near     float64 `toml:"near" validate:"gt=0"`
	Far      float64 `toml:"far" validate:"gtfield=Near"`
	TileSize int     `toml:"tile_size" validate:"gte=8,lte=512"`
	Workers  int     `toml:"workers" validate:"gte=0"` // 0 uses every CPU
	FPS      float64 `toml:"fps" validate:"gt=0,lte=240"`
	Frames   int     `toml:"frames" validate:"gte=1"` // Frames written by the CLI
}

// ScatteringConfig is the TOML form of scattering.Parameters
type ScatteringConfig struct {
	Kr               float64    `toml:"kr"`
	Km               float64    `toml:"km"`
	ESun             float64    `toml:"esun"`
	G                float64    `toml:"g"`
	ScaleDepth       float64    `toml:"scale_depth"`
	Samples          int        `toml:"samples"`
	Wavelengths      [3]float64 `toml:"wavelengths"`
	SunAngle         float64    `toml:"sun_angle"` // Radians around +Y, 0 is +X
	PlanetRadius     float64    `toml:"planet_radius"`
	AtmosphereRadius float64    `toml:"atmosphere_radius"`
}

// SceneConfig selects the preset and its assets
type SceneConfig struct {
	Preset     string  `toml:"preset" validate:"preset"`
	Texture    string  `toml:"texture"`     // Planet albedo image, "checker", "uv-debug", or empty for the procedural planet
	Slices     int     `toml:"slices" validate:"gte=3,lte=512"`
	Layers     int     `toml:"layers" validate:"gte=2,lte=512"`
	OrbitRate  float64 `toml:"orbit_rate"`  // Radians per second
	ParamsFile string  `toml:"params_file"` // Watched TOML file of UI edits
}

// CameraConfig places the fly camera
type CameraConfig struct {
	Position    [3]float64 `toml:"position"`
	Speed       float64    `toml:"speed" validate:"gt=0"`
	Sensitivity float64    `toml:"sensitivity" validate:"gt=0"`
}

// ServerConfig configures the web UI
type ServerConfig struct {
	Port      int     `toml:"port" validate:"gt=0,lte=65535"`
	EditRate  float64 `toml:"edit_rate" validate:"gt=0"` // Edits per second per websocket session
	EditBurst int     `toml:"edit_burst" validate:"gte=1"`
}

// LogConfig configures zap
type LogConfig struct {
	Development bool     `toml:"development"`
	Debug       bool     `toml:"debug"`
	Outputs     []string `toml:"outputs"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("preset", func(fl validator.FieldLevel) bool {
		_, ok := scene.LookupPreset(fl.Field().String())
		return ok
	})
	return v
}

// Default returns the built-in configuration
func Default() Config {
	p := scattering.Defaults()
	return Config{
		Render: RenderConfig{
			Width:    640,
			Height:   480,
			FovY:     80,
			Near:     0.1,
			Far:      350,
			TileSize: 32,
			FPS:      30,
			Frames:   1,
		},
		Scattering: ScatteringConfig{
			Kr:               p.Kr,
			Km:               p.Km,
			ESun:             p.ESun,
			G:                p.G,
			ScaleDepth:       p.ScaleDepth,
			Samples:          p.Samples,
			Wavelengths:      [3]float64{p.Wavelengths.X, p.Wavelengths.Y, p.Wavelengths.Z},
			PlanetRadius:     p.PlanetRadius,
			AtmosphereRadius: p.AtmosphereRadius,
		},
		Scene: SceneConfig{
			Preset:    scene.DefaultPreset,
			Slices:    40,
			Layers:    40,
			OrbitRate: 0.1,
		},
		Camera: CameraConfig{
			Position:    [3]float64{0, 0, 30},
			Speed:       5,
			Sensitivity: 0.005,
		},
		Server: ServerConfig{
			Port:      8080,
			EditRate:  20,
			EditBurst: 10,
		},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("decode config %s: %w", path, err)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadEnvFile loads KEY=value pairs from path into the process environment.
// Variables already set are kept. A missing file is not an error.
func LoadEnvFile(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Validate checks every section and reports all problems at once
func (c Config) Validate() error {
	var err error
	if verr := validate.Struct(c); verr != nil {
		err = multierr.Append(err, verr)
	}
	if perr := c.ScatteringParameters().Validate(); perr != nil {
		err = multierr.Append(err, perr)
	}
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ScatteringParameters converts the scattering section
func (c Config) ScatteringParameters() scattering.Parameters {
	s := c.Scattering
	return scattering.Parameters{
		Kr:               s.Kr,
		Km:               s.Km,
		ESun:             s.ESun,
		G:                s.G,
		ScaleDepth:       s.ScaleDepth,
		Samples:          s.Samples,
		Wavelengths:      core.NewVec3(s.Wavelengths[0], s.Wavelengths[1], s.Wavelengths[2]),
		SunDirection:     scattering.SunDirectionFromAngle(s.SunAngle),
		PlanetRadius:     s.PlanetRadius,
		AtmosphereRadius: s.AtmosphereRadius,
	}
}

// CameraPosition returns the configured camera position
func (c Config) CameraPosition() core.Vec3 {
	p := c.Camera.Position
	return core.NewVec3(p[0], p[1], p[2])
}
