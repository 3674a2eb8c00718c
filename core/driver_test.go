package core

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/Guinness96/drone-sim/model"
	"github.com/Guinness96/drone-sim/timectrl"
)

// fakeRecorder is an in-memory FlightRecorder that records calls and can be
// programmed to fail at any stage.
type fakeRecorder struct {
	startErr  error
	submitErr error
	endErr    error
	anomaly   bool

	started     int
	ended       int
	submissions []model.TelemetryReading
}

func (f *fakeRecorder) StartFlight(ctx context.Context) (int, error) {
	if f.startErr != nil {
		return 0, f.startErr
	}
	f.started++
	return 1, nil
}

func (f *fakeRecorder) SubmitReading(ctx context.Context, flightID int, r model.TelemetryReading) (SubmissionResult, error) {
	if f.submitErr != nil {
		return SubmissionResult{}, f.submitErr
	}
	f.submissions = append(f.submissions, r)
	return SubmissionResult{
		PositionID: len(f.submissions),
		ReadingID:  len(f.submissions),
		IsAnomaly:  f.anomaly,
	}, nil
}

func (f *fakeRecorder) EndFlight(ctx context.Context, flightID int) error {
	f.ended++
	return f.endErr
}

func testDriver(t *testing.T, rec FlightRecorder, nav *Navigator, engine *Engine, cfg DriverConfig) *Driver {
	t.Helper()
	synth := NewSynthesizer(DefaultNoiseLevels(), rand.New(rand.NewSource(1)))
	clock := timectrl.NewSteppedClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), time.Second)
	d, err := NewDriver(nil, rec, nav, engine, synth, clock, nil, cfg)
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}
	return d
}

func TestDriver_CompletesShortRoute(t *testing.T) {
	route := []model.GeoPoint{
		{Latitude: 51.5074, Longitude: -0.1278},
		{Latitude: 51.5081, Longitude: -0.1278},
		{Latitude: 51.5074, Longitude: -0.1278},
	}
	params := PhysicsParams{
		MaxVelocity:     10,
		MaxAcceleration: 2,
		MaxDeceleration: 3,
		InertiaFactor:   0.1,
		TurnRate:        45,
	}
	engine, err := NewEngine(params)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	rec := &fakeRecorder{}
	nav := NewNavigator(route, false)
	d := testDriver(t, rec, nav, engine, DriverConfig{MaxTicks: 200})

	readings, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !nav.Completed() {
		t.Fatalf("route not completed after %d ticks (waypoint index %d)", len(readings), nav.Index())
	}
	if len(readings) >= 200 {
		t.Fatalf("route took %d ticks, expected well under the tick budget", len(readings))
	}
	if len(readings) == 0 {
		t.Fatal("no readings produced")
	}
	if got := len(rec.submissions); got != len(readings) {
		t.Errorf("submitted %d readings, returned %d", got, len(readings))
	}
	for i, r := range readings {
		if r.Velocity < 0 || r.Velocity > params.MaxVelocity {
			t.Fatalf("reading %d velocity %v outside [0, %v]", i, r.Velocity, params.MaxVelocity)
		}
	}
	if rec.started != 1 || rec.ended != 1 {
		t.Errorf("started=%d ended=%d, want 1 and 1", rec.started, rec.ended)
	}
}

func TestDriver_StartFlightFailureAbortsRun(t *testing.T) {
	rec := &fakeRecorder{startErr: errors.New("collector down")}
	nav := NewNavigator(testRoute(), true)
	d := testDriver(t, rec, nav, nil, DriverConfig{})

	readings, err := d.Run(context.Background())
	if !errors.Is(err, ErrStartFlight) {
		t.Fatalf("err = %v, want ErrStartFlight", err)
	}
	if readings == nil || len(readings) != 0 {
		t.Fatalf("readings = %v, want empty non-nil slice", readings)
	}
	if rec.ended != 0 {
		t.Errorf("EndFlight called %d times after a failed start", rec.ended)
	}
}

func TestDriver_SubmissionFailuresAreNonFatal(t *testing.T) {
	rec := &fakeRecorder{submitErr: errors.New("timeout")}
	nav := NewNavigator(testRoute(), true)
	d := testDriver(t, rec, nav, nil, DriverConfig{})

	readings, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(readings) != len(testRoute()) {
		t.Errorf("retained %d readings despite submit failures, want %d", len(readings), len(testRoute()))
	}
	if rec.ended != 1 {
		t.Errorf("EndFlight called %d times, want 1", rec.ended)
	}
}

func TestDriver_CancellationStillEndsFlight(t *testing.T) {
	rec := &fakeRecorder{}
	nav := NewNavigator(testRoute(), true)
	d := testDriver(t, rec, nav, nil, DriverConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if rec.started != 1 || rec.ended != 1 {
		t.Errorf("started=%d ended=%d, want the session closed despite cancellation", rec.started, rec.ended)
	}
}

func TestDriver_BypassVisitsEachWaypointOnce(t *testing.T) {
	route := testRoute()
	rec := &fakeRecorder{}
	nav := NewNavigator(route, true)
	d := testDriver(t, rec, nav, nil, DriverConfig{})

	readings, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(readings) != len(route) {
		t.Fatalf("got %d readings, want one per waypoint (%d)", len(readings), len(route))
	}
	for i, r := range readings {
		if r.Latitude != route[i].Latitude || r.Longitude != route[i].Longitude {
			t.Errorf("reading %d at (%v, %v), want waypoint (%v, %v)",
				i, r.Latitude, r.Longitude, route[i].Latitude, route[i].Longitude)
		}
		if r.Velocity != 0 {
			t.Errorf("reading %d velocity %v, want 0 in bypass mode", i, r.Velocity)
		}
	}
}

func TestDriver_MaxTicksBoundsUnreachableRoutes(t *testing.T) {
	// Antipodal target with sluggish dynamics never converges within the
	// budget; the driver must stop on its own.
	route := []model.GeoPoint{{Latitude: -51.5074, Longitude: 179.8722}}
	engine, err := NewEngine(DefaultPhysicsParams())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	rec := &fakeRecorder{}
	nav := NewNavigator(route, false)
	d := testDriver(t, rec, nav, engine, DriverConfig{MaxTicks: 25})

	readings, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(readings) != 25 {
		t.Fatalf("got %d readings, want exactly MaxTicks", len(readings))
	}
	if nav.Completed() {
		t.Fatal("navigator unexpectedly completed")
	}
	if rec.ended != 1 {
		t.Errorf("EndFlight called %d times, want 1", rec.ended)
	}
}

func TestNewDriver_RequiresEngineUnlessBypassing(t *testing.T) {
	rec := &fakeRecorder{}
	synth := NewSynthesizer(DefaultNoiseLevels(), rand.New(rand.NewSource(1)))
	clock := timectrl.NewSteppedClock(time.Now(), time.Second)

	if _, err := NewDriver(nil, rec, NewNavigator(testRoute(), false), nil, synth, clock, nil, DriverConfig{}); err == nil {
		t.Error("expected an error for a physics run without an engine")
	}
	if _, err := NewDriver(nil, rec, NewNavigator(testRoute(), true), nil, synth, clock, nil, DriverConfig{}); err != nil {
		t.Errorf("bypass run without an engine: %v", err)
	}
}
