package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Guinness96/drone-sim/internal/logging"
	"github.com/Guinness96/drone-sim/model"
	"github.com/Guinness96/drone-sim/timectrl"
)

// ErrStartFlight indicates the ingestion collaborator refused to open a
// flight session. The run aborts before any tick and EndFlight is never
// attempted.
var ErrStartFlight = errors.New("failed to start flight")

// SubmissionResult is the collaborator's acknowledgement of one reading.
type SubmissionResult struct {
	PositionID int
	ReadingID  int
	IsAnomaly  bool
}

// FlightRecorder is the ingestion collaborator consumed by the driver. It
// is implemented over HTTP by internal/client and by in-memory fakes in
// tests.
type FlightRecorder interface {
	StartFlight(ctx context.Context) (int, error)
	SubmitReading(ctx context.Context, flightID int, r model.TelemetryReading) (SubmissionResult, error)
	EndFlight(ctx context.Context, flightID int) error
}

// DriverConfig tunes one simulation run.
type DriverConfig struct {
	// SimulationSpeed is the pacing multiplier: each tick sleeps for
	// 1/SimulationSpeed seconds. Values <= 0 fall back to 1.
	SimulationSpeed float64

	// InitialAltitude in metres. Zero falls back to 100.
	InitialAltitude float64

	// MaxTicks bounds the run as a safety net against unreachable
	// waypoints. Zero means unlimited.
	MaxTicks int

	// SubmitTimeout bounds a single SubmitReading call so the loop never
	// blocks indefinitely on the collaborator. Zero falls back to 10s.
	SubmitTimeout time.Duration

	// EndFlightTimeout bounds the best-effort session close. Zero falls
	// back to 5s.
	EndFlightTimeout time.Duration
}

// Driver runs a complete simulation: it opens a flight session, loops
// ticks through the navigator, engine, and synthesizer, submits each
// reading, and closes the session when the navigator completes or the
// context is cancelled. Execution is single-threaded and strictly
// sequential; the kinematic state is owned exclusively by the driver for
// the run's duration.
type Driver struct {
	log      logging.Logger
	recorder FlightRecorder
	nav      *Navigator
	engine   *Engine
	synth    *Synthesizer
	clock    timectrl.SimClock
	metrics  SimMetrics
	cfg      DriverConfig
	tracer   trace.Tracer
}

// SimMetrics receives per-tick counters from the driver. A nil-valued
// implementation field is tolerated everywhere; observability is optional.
type SimMetrics interface {
	ObserveTick(velocity float64)
	ObserveSubmission(outcome string, seconds float64, anomaly bool)
	ObserveWaypointReached(index int)
}

// NewDriver wires a driver. engine may be nil only when nav is in bypass
// mode; log, recorder, nav, synth, and clock are required. metrics may be
// nil.
func NewDriver(log logging.Logger, recorder FlightRecorder, nav *Navigator, engine *Engine, synth *Synthesizer, clock timectrl.SimClock, metrics SimMetrics, cfg DriverConfig) (*Driver, error) {
	if recorder == nil || nav == nil || synth == nil || clock == nil {
		return nil, fmt.Errorf("driver: recorder, navigator, synthesizer, and clock are required")
	}
	if engine == nil && !nav.Bypass() {
		return nil, fmt.Errorf("driver: an engine is required unless the navigator is in bypass mode")
	}
	if log == nil {
		log = logging.Noop()
	}
	if cfg.SimulationSpeed <= 0 {
		cfg.SimulationSpeed = 1
	}
	if cfg.InitialAltitude == 0 {
		cfg.InitialAltitude = 100
	}
	if cfg.SubmitTimeout <= 0 {
		cfg.SubmitTimeout = 10 * time.Second
	}
	if cfg.EndFlightTimeout <= 0 {
		cfg.EndFlightTimeout = 5 * time.Second
	}
	return &Driver{
		log:      log,
		recorder: recorder,
		nav:      nav,
		engine:   engine,
		synth:    synth,
		clock:    clock,
		metrics:  metrics,
		cfg:      cfg,
		tracer:   otel.Tracer("github.com/Guinness96/drone-sim/core"),
	}, nil
}

// Run executes the simulation until the navigator completes, MaxTicks is
// hit, or ctx is cancelled. It returns every reading synthesized during the
// run, in tick order; submission failures do not remove readings from the
// result. A StartFlight failure returns an empty slice wrapped in
// ErrStartFlight. Cancellation returns the readings collected so far along
// with the context error; the flight session is still closed best-effort.
func (d *Driver) Run(ctx context.Context) ([]model.TelemetryReading, error) {
	runID := uuid.NewString()
	log := d.log.With(logging.String("run_id", runID))

	ctx, span := d.tracer.Start(ctx, "simulation.run",
		trace.WithAttributes(attribute.String("run_id", runID)))
	defer span.End()

	flightID, err := d.recorder.StartFlight(ctx)
	if err != nil {
		log.Error(ctx, "could not start flight, aborting run", logging.Any("error", err))
		return []model.TelemetryReading{}, fmt.Errorf("%w: %v", ErrStartFlight, err)
	}
	log = log.With(logging.Int("flight_id", flightID))
	span.SetAttributes(attribute.Int("flight_id", flightID))
	log.Info(ctx, "started flight")

	// Session close is guaranteed cleanup: it runs on normal completion
	// and on cancellation alike, on a fresh context so a cancelled run
	// can still reach the collaborator.
	defer func() {
		endCtx, cancel := context.WithTimeout(context.Background(), d.cfg.EndFlightTimeout)
		defer cancel()
		if err := d.recorder.EndFlight(endCtx, flightID); err != nil {
			log.Warn(endCtx, "failed to end flight", logging.Any("error", err))
			return
		}
		log.Info(endCtx, "ended flight")
	}()

	var (
		readings  []model.TelemetryReading
		state     = d.initialState()
		lastTick  = d.clock.Now()
		ticks     int
		reached   int
		pace      = time.Duration(float64(time.Second) / d.cfg.SimulationSpeed)
	)

	for !d.nav.Completed() {
		if err := ctx.Err(); err != nil {
			log.Info(ctx, "run cancelled", logging.Int("ticks", ticks))
			return readings, err
		}
		if d.cfg.MaxTicks > 0 && ticks >= d.cfg.MaxTicks {
			log.Warn(ctx, "tick budget exhausted before route completion",
				logging.Int("max_ticks", d.cfg.MaxTicks),
				logging.Int("waypoint_index", d.nav.Index()))
			break
		}

		now := d.clock.Now()
		dt := now.Sub(lastTick).Seconds()
		lastTick = now

		var arrived bool
		if d.nav.Bypass() {
			wp, _ := d.nav.Advance()
			state.Position = wp
			arrived = true
		} else {
			target, _ := d.nav.Target()
			state = d.engine.Step(state, &target, dt)
			arrived = d.nav.Observe(state.Position)
		}
		if arrived {
			reached++
			if d.metrics != nil {
				d.metrics.ObserveWaypointReached(d.nav.Index())
			}
		}

		reading := d.synth.Reading(state, now)
		readings = append(readings, reading)
		ticks++
		if d.metrics != nil {
			d.metrics.ObserveTick(state.Velocity)
		}

		d.submit(ctx, log, flightID, ticks, reading)

		if d.nav.Completed() {
			break
		}
		if err := d.clock.Sleep(ctx, pace); err != nil {
			log.Info(ctx, "run cancelled while pacing", logging.Int("ticks", ticks))
			return readings, err
		}
	}

	span.SetAttributes(
		attribute.Int("ticks", ticks),
		attribute.Int("waypoints_reached", reached),
	)
	log.Info(ctx, "simulation complete",
		logging.Int("ticks", ticks),
		logging.Int("waypoints_reached", reached),
		logging.Int("readings", len(readings)))
	return readings, nil
}

// submit sends one reading to the collaborator. Failures are logged and
// recovered: the tick's reading stays in the result sequence and the loop
// proceeds.
func (d *Driver) submit(ctx context.Context, log logging.Logger, flightID, tick int, reading model.TelemetryReading) {
	subCtx, cancel := context.WithTimeout(ctx, d.cfg.SubmitTimeout)
	defer cancel()

	subCtx, span := d.tracer.Start(subCtx, "simulation.submit_reading",
		trace.WithAttributes(attribute.Int("tick", tick)))
	defer span.End()

	start := time.Now()
	res, err := d.recorder.SubmitReading(subCtx, flightID, reading)
	elapsed := time.Since(start).Seconds()

	if err != nil {
		if d.metrics != nil {
			d.metrics.ObserveSubmission("error", elapsed, false)
		}
		log.Warn(subCtx, "reading submission failed, continuing",
			logging.Int("tick", tick),
			logging.Any("error", err))
		return
	}
	if d.metrics != nil {
		d.metrics.ObserveSubmission("ok", elapsed, res.IsAnomaly)
	}

	status := "normal"
	if res.IsAnomaly {
		status = "ANOMALY"
	}
	log.Info(subCtx, "tick",
		logging.Int("tick", tick),
		logging.Int("waypoint_index", d.nav.Index()),
		logging.Any("lat", reading.Latitude),
		logging.Any("lon", reading.Longitude),
		logging.Any("velocity", reading.Velocity),
		logging.Any("heading", reading.Heading),
		logging.String("status", status))
}

func (d *Driver) initialState() model.KinematicState {
	if target, ok := d.nav.Target(); ok {
		return model.InitialState(target, d.cfg.InitialAltitude)
	}
	return model.InitialState(model.GeoPoint{}, d.cfg.InitialAltitude)
}
