package config

import (
	"fmt"
	"strconv"

	"go.uber.org/multierr"
)

// EnvPrefix starts every environment override
const EnvPrefix = "ATMOS_"

type envVar struct {
	name string
	set  func(c *Config, value string) error
}

func intVar(dst func(*Config) *int) func(*Config, string) error {
	return func(c *Config, value string) error {
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		*dst(c) = n
		return nil
	}
}

func floatVar(dst func(*Config) *float64) func(*Config, string) error {
	return func(c *Config, value string) error {
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		*dst(c) = f
		return nil
	}
}

func boolVar(dst func(*Config) *bool) func(*Config, string) error {
	return func(c *Config, value string) error {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		*dst(c) = b
		return nil
	}
}

func stringVar(dst func(*Config) *string) func(*Config, string) error {
	return func(c *Config, value string) error {
		*dst(c) = value
		return nil
	}
}

var envVars = []envVar{
	{"WIDTH", intVar(func(c *Config) *int { return &c.Render.Width })},
	{"HEIGHT", intVar(func(c *Config) *int { return &c.Render.Height })},
	{"WORKERS", intVar(func(c *Config) *int { return &c.Render.Workers })},
	{"FPS", floatVar(func(c *Config) *float64 { return &c.Render.FPS })},
	{"FRAMES", intVar(func(c *Config) *int { return &c.Render.Frames })},
	{"KR", floatVar(func(c *Config) *float64 { return &c.Scattering.Kr })},
	{"KM", floatVar(func(c *Config) *float64 { return &c.Scattering.Km })},
	{"ESUN", floatVar(func(c *Config) *float64 { return &c.Scattering.ESun })},
	{"G", floatVar(func(c *Config) *float64 { return &c.Scattering.G })},
	{"SAMPLES", intVar(func(c *Config) *int { return &c.Scattering.Samples })},
	{"PRESET", stringVar(func(c *Config) *string { return &c.Scene.Preset })},
	{"TEXTURE", stringVar(func(c *Config) *string { return &c.Scene.Texture })},
	{"PARAMS_FILE", stringVar(func(c *Config) *string { return &c.Scene.ParamsFile })},
	{"PORT", intVar(func(c *Config) *int { return &c.Server.Port })},
	{"LOG_DEVELOPMENT", boolVar(func(c *Config) *bool { return &c.Log.Development })},
	{"LOG_DEBUG", boolVar(func(c *Config) *bool { return &c.Log.Debug })},
}

// ApplyEnv overrides fields from ATMOS_* variables found by lookup.
// Every unparsable variable is reported; valid ones are still applied.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	var err error
	for _, v := range envVars {
		value, ok := lookup(EnvPrefix + v.name)
		if !ok {
			continue
		}
		if serr := v.set(c, value); serr != nil {
			err = multierr.Append(err, fmt.Errorf("%s%s=%q: %w", EnvPrefix, v.name, value, serr))
		}
	}
	return err
}
