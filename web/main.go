package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/df07/go-atmosphere/pkg/config"
	"github.com/df07/go-atmosphere/pkg/frame"
	"github.com/df07/go-atmosphere/pkg/log"
	"github.com/df07/go-atmosphere/pkg/metrics"
	"github.com/df07/go-atmosphere/web/server"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "TOML config file")
	envPath := flag.String("env", ".env", "Environment file with ATMOS_ overrides")
	port := flag.Int("port", 0, "Port to serve on (overrides the config)")
	preset := flag.String("preset", "", "Scene preset (overrides the config)")
	staticDir := flag.String("static", "static", "Directory of the browser UI")
	flag.Parse()

	if err := config.LoadEnvFile(*envPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *preset != "" {
		cfg.Scene.Preset = *preset
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	zapLogger, err := log.NewLogger(cfg.Log.Development, cfg.Log.Debug, cfg.Log.Outputs...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer zapLogger.Sync()

	// Log lines are mirrored to the browser console
	consoleChan := make(chan server.ConsoleMessage, 100)
	logger := server.NewWebLogger(zapLogger.Named("atmosphere"), consoleChan)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(registry)

	rt, err := frame.NewRuntime(cfg, logger, frame.WithRuntimeMetrics(collector))
	if err != nil {
		zapLogger.Errorf("Error creating scene: %v", err)
		os.Exit(1)
	}
	defer rt.Close()

	webServer := server.NewServer(cfg.Server.Port, rt, consoleChan, server.Options{
		FPS:       cfg.Render.FPS,
		EditRate:  cfg.Server.EditRate,
		EditBurst: cfg.Server.EditBurst,
		StaticDir: *staticDir,
		Gatherer:  registry,
		Metrics:   collector,
		Logger:    logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	zapLogger.Infof("Planet Atmosphere Web Server, preset %q", cfg.Scene.Preset)
	zapLogger.Infof("Visit http://localhost:%d to explore", cfg.Server.Port)

	if err := webServer.Start(ctx); err != nil {
		zapLogger.Errorf("Error starting server: %v", err)
		os.Exit(1)
	}
}
