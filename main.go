package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image/png"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/df07/go-atmosphere/pkg/config"
	"github.com/df07/go-atmosphere/pkg/frame"
	"github.com/df07/go-atmosphere/pkg/log"
	"github.com/df07/go-atmosphere/pkg/renderer"
	"github.com/df07/go-atmosphere/pkg/scene"
)

// options are the command line flags
type options struct {
	configPath string
	envPath    string
	preset     string
	frames     int
	outputDir  string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string, out io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("atmosphere", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.StringVar(&opts.configPath, "config", "", "TOML config file")
	fs.StringVar(&opts.envPath, "env", ".env", "Environment file with ATMOS_ overrides")
	fs.StringVar(&opts.preset, "preset", "", "Scene preset: "+strings.Join(scene.PresetIDs(), ", "))
	fs.IntVar(&opts.frames, "frames", 0, "Frames to render (overrides the config)")
	fs.StringVar(&opts.outputDir, "output", "output", "Output directory")
	fs.Usage = func() {
		fmt.Fprintln(out, "Planet Atmosphere Renderer")
		fmt.Fprintln(out, "Usage: atmosphere [options]")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Options:")
		fs.PrintDefaults()
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Available presets:")
		for _, p := range scene.Presets() {
			fmt.Fprintf(out, "  %-14s %s\n", p.ID, p.Description)
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Frames are saved to <output>/<preset>/frame_NNNN.png")
	}

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	return opts, nil
}

// loadConfig reads the env file, then the config file, then applies the flags
func loadConfig(opts options) (config.Config, error) {
	if err := config.LoadEnvFile(opts.envPath); err != nil {
		return config.Config{}, err
	}
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if opts.preset != "" {
		cfg.Scene.Preset = opts.preset
	}
	if opts.frames > 0 {
		cfg.Render.Frames = opts.frames
	}
	return cfg, cfg.Validate()
}

func run(ctx context.Context, args []string, out io.Writer) error {
	opts, err := parseFlags(args, out)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	logger, err := log.NewLogger(cfg.Log.Development, cfg.Log.Debug, cfg.Log.Outputs...)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	// Offline renders step the scene by a fixed amount per frame
	rt, err := frame.NewRuntime(cfg, logger, frame.WithClock(frame.FixedClock{Step: 1 / cfg.Render.FPS}))
	if err != nil {
		return err
	}
	defer rt.Close()

	outputDir := filepath.Join(opts.outputDir, cfg.Scene.Preset)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	fmt.Fprintf(out, "Rendering %d frame(s) of %q at %dx%d...\n",
		cfg.Render.Frames, cfg.Scene.Preset, cfg.Render.Width, cfg.Render.Height)

	startTime := time.Now()
	var last renderer.FrameStats
	err = rt.Orchestrator.Run(ctx, 0, cfg.Render.Frames, func(f frame.Frame) error {
		last = f.Stats
		filename := filepath.Join(outputDir, fmt.Sprintf("frame_%04d.png", f.Tick))
		return savePNG(filename, f)
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Render completed in %v\n", time.Since(startTime).Round(time.Millisecond))
	fmt.Fprintf(out, "Last frame: %d triangles, %d culled, %d fragments\n",
		last.Triangles, last.Culled, last.Fragments)
	fmt.Fprintf(out, "Frames saved in %s\n", outputDir)
	return nil
}

func savePNG(filename string, f frame.Frame) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("create %s: %w", filename, err)
	}
	if err := png.Encode(file, f.Image); err != nil {
		file.Close()
		return fmt.Errorf("encode %s: %w", filename, err)
	}
	return file.Close()
}
