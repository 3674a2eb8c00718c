package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Guinness96/drone-sim/core"
	"github.com/Guinness96/drone-sim/internal/client"
	"github.com/Guinness96/drone-sim/internal/config"
	"github.com/Guinness96/drone-sim/internal/logging"
	"github.com/Guinness96/drone-sim/internal/observability"
	"github.com/Guinness96/drone-sim/timectrl"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to YAML config file")
	apiURL := flag.String("api-url", "", "ingestion API base URL (overrides config)")
	waypointFile := flag.String("waypoints", "", "JSON waypoint file (overrides config)")
	speed := flag.Float64("speed", 0, "simulation speed multiplier (overrides config)")
	accelerated := flag.Bool("accelerated", false, "run with a fixed 1s step and no sleeping")
	bypass := flag.Bool("bypass", false, "disable physics: visit one waypoint per tick")
	maxTicks := flag.Int("max-ticks", 1000, "tick budget before the run is abandoned (0 = unlimited)")
	metricsAddr := flag.String("metrics-addr", "", "address to serve /metrics on (empty = disabled)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return 1
	}
	if *apiURL != "" {
		cfg.APIURL = *apiURL
	}
	if *waypointFile != "" {
		cfg.WaypointFile = *waypointFile
	}
	if *speed > 0 {
		cfg.SimulationSpeed = *speed
	}
	if *bypass {
		cfg.Physics.EnablePhysics = false
	}

	log := logging.New(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Error(ctx, "failed to initialise tracing", logging.Any("error", err))
		return 1
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	metrics, err := observability.NewSimCollector(nil)
	if err != nil {
		log.Error(ctx, "failed to register metrics", logging.Any("error", err))
		return 1
	}
	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				log.Warn(ctx, "metrics server stopped", logging.Any("error", err))
			}
		}()
	}

	waypoints, fromFile, err := config.LoadWaypoints(cfg.WaypointFile)
	if err != nil {
		log.Error(ctx, "waypoint configuration rejected", logging.Any("error", err))
		return 1
	}
	if cfg.WaypointFile != "" && !fromFile {
		log.Warn(ctx, "waypoint file unavailable, using default route",
			logging.String("waypoint_file", cfg.WaypointFile))
	}

	var engine *core.Engine
	if cfg.Physics.EnablePhysics {
		engine, err = core.NewEngine(cfg.Physics.Params)
		if err != nil {
			log.Error(ctx, "physics configuration rejected", logging.Any("error", err))
			return 1
		}
	}

	nav := core.NewNavigator(waypoints, !cfg.Physics.EnablePhysics)
	synth := core.NewSynthesizer(cfg.SensorNoise, nil)
	recorder := client.New(cfg.APIURL)

	var clock timectrl.SimClock = timectrl.RealClock{}
	if *accelerated {
		clock = timectrl.NewSteppedClock(time.Now().UTC(), time.Second)
	}

	driver, err := core.NewDriver(log, recorder, nav, engine, synth, clock, metrics, core.DriverConfig{
		SimulationSpeed: cfg.SimulationSpeed,
		MaxTicks:        *maxTicks,
	})
	if err != nil {
		log.Error(ctx, "driver construction failed", logging.Any("error", err))
		return 1
	}

	log.Info(ctx, "starting simulation",
		logging.Int("waypoints", len(waypoints)),
		logging.Any("simulation_speed", cfg.SimulationSpeed),
		logging.Any("physics_enabled", cfg.Physics.EnablePhysics),
		logging.String("api_url", cfg.APIURL))

	readings, err := driver.Run(ctx)
	switch {
	case errors.Is(err, core.ErrStartFlight):
		log.Error(ctx, "simulation aborted before the first tick", logging.Any("error", err))
		return 1
	case errors.Is(err, context.Canceled):
		log.Info(ctx, "simulation interrupted", logging.Int("readings", len(readings)))
		return 0
	case err != nil:
		log.Error(ctx, "simulation failed", logging.Any("error", err))
		return 1
	}

	log.Info(ctx, "simulation finished", logging.Int("readings", len(readings)))
	return 0
}
