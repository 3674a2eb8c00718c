package ingest

import (
	"testing"
	"time"

	"github.com/Guinness96/drone-sim/model"
)

func normalReading(at time.Time) model.TelemetryReading {
	return model.TelemetryReading{
		Timestamp:       at,
		Latitude:        51.5074,
		Longitude:       -0.1278,
		Altitude:        100,
		Temperature:     21.5,
		Humidity:        55,
		AirQualityIndex: 48,
		Velocity:        3,
		Heading:         90,
	}
}

func TestStore_StartFlightAssignsSequentialIDs(t *testing.T) {
	s := NewStore(nil)
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	a := s.StartFlight(at)
	b := s.StartFlight(at)
	if a.ID != 1 || b.ID != 2 {
		t.Errorf("flight IDs = %d, %d, want 1, 2", a.ID, b.ID)
	}
	if !a.StartTime.Equal(at) || a.EndTime != nil {
		t.Errorf("flight = %+v, want open at %v", a, at)
	}
}

func TestStore_EndFlight(t *testing.T) {
	s := NewStore(nil)
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(time.Minute)

	f := s.StartFlight(start)
	ended, err := s.EndFlight(f.ID, end)
	if err != nil {
		t.Fatalf("EndFlight: %v", err)
	}
	if ended.EndTime == nil || !ended.EndTime.Equal(end) {
		t.Errorf("EndTime = %v, want %v", ended.EndTime, end)
	}

	if _, err := s.EndFlight(99, end); err == nil {
		t.Error("expected an error for an unknown flight")
	}

	// Ending twice just moves the stamp.
	again, err := s.EndFlight(f.ID, end.Add(time.Minute))
	if err != nil {
		t.Fatalf("second EndFlight: %v", err)
	}
	if !again.EndTime.Equal(end.Add(time.Minute)) {
		t.Errorf("EndTime after second close = %v", again.EndTime)
	}
}

func TestStore_LogReadingLinksPositionAndReading(t *testing.T) {
	s := NewStore(nil)
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	f := s.StartFlight(at)

	pos, reading, err := s.LogReading(f.ID, normalReading(at))
	if err != nil {
		t.Fatalf("LogReading: %v", err)
	}
	if pos.ID != 1 || pos.FlightID != f.ID {
		t.Errorf("position = %+v", pos)
	}
	if reading.ID != 1 || reading.PositionID != pos.ID {
		t.Errorf("reading = %+v", reading)
	}
	if reading.IsAnomaly {
		t.Error("normal reading flagged as an anomaly")
	}

	if _, _, err := s.LogReading(99, normalReading(at)); err == nil {
		t.Error("expected an error for an unknown flight")
	}
}

func TestStore_AnomalyThresholds(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*model.TelemetryReading)
		anomaly bool
	}{
		{"all nominal", func(r *model.TelemetryReading) {}, false},
		{"hot", func(r *model.TelemetryReading) { r.Temperature = 30.1 }, true},
		{"freezing", func(r *model.TelemetryReading) { r.Temperature = -0.1 }, true},
		{"at hot boundary", func(r *model.TelemetryReading) { r.Temperature = 30 }, false},
		{"at cold boundary", func(r *model.TelemetryReading) { r.Temperature = 0 }, false},
		{"humid", func(r *model.TelemetryReading) { r.Humidity = 90.1 }, true},
		{"at humidity boundary", func(r *model.TelemetryReading) { r.Humidity = 90 }, false},
		{"bad air", func(r *model.TelemetryReading) { r.AirQualityIndex = 151 }, true},
		{"at aqi boundary", func(r *model.TelemetryReading) { r.AirQualityIndex = 150 }, false},
	}

	s := NewStore(nil)
	f := s.StartFlight(time.Now())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := normalReading(time.Now())
			tt.mutate(&r)
			_, stored, err := s.LogReading(f.ID, r)
			if err != nil {
				t.Fatalf("LogReading: %v", err)
			}
			if stored.IsAnomaly != tt.anomaly {
				t.Errorf("IsAnomaly = %v, want %v", stored.IsAnomaly, tt.anomaly)
			}
		})
	}
}

func TestStore_FlightPositionsOrderedByID(t *testing.T) {
	s := NewStore(nil)
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	f := s.StartFlight(at)
	other := s.StartFlight(at)

	for i := 0; i < 3; i++ {
		if _, _, err := s.LogReading(f.ID, normalReading(at.Add(time.Duration(i)*time.Second))); err != nil {
			t.Fatalf("LogReading: %v", err)
		}
	}
	if _, _, err := s.LogReading(other.ID, normalReading(at)); err != nil {
		t.Fatalf("LogReading: %v", err)
	}

	got := s.FlightPositions(f.ID)
	if len(got) != 3 {
		t.Fatalf("got %d positions, want 3", len(got))
	}
	for i, pw := range got {
		if pw.Position.ID != i+1 {
			t.Errorf("position %d has ID %d, want %d", i, pw.Position.ID, i+1)
		}
		if len(pw.Readings) != 1 {
			t.Errorf("position %d has %d readings, want 1", i, len(pw.Readings))
		}
	}
}

func TestStore_LatestReadingsNewestFirst(t *testing.T) {
	s := NewStore(nil)
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	f := s.StartFlight(at)

	for i := 0; i < 5; i++ {
		if _, _, err := s.LogReading(f.ID, normalReading(at.Add(time.Duration(i)*time.Second))); err != nil {
			t.Fatalf("LogReading: %v", err)
		}
	}

	got := s.LatestReadings(3)
	if len(got) != 3 {
		t.Fatalf("got %d readings, want 3", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Reading.Timestamp.After(got[i-1].Reading.Timestamp) {
			t.Fatalf("readings not newest first: %v before %v",
				got[i-1].Reading.Timestamp, got[i].Reading.Timestamp)
		}
	}
	if got[0].Reading.ID != 5 {
		t.Errorf("newest reading ID = %d, want 5", got[0].Reading.ID)
	}
	if got[0].Position.ID != got[0].Reading.PositionID {
		t.Error("reading not paired with its position")
	}
}

type countRecorder struct {
	flights, readings, anomalies int
}

func (c *countRecorder) SetStoreCounts(flights, readings, anomalies int) {
	c.flights, c.readings, c.anomalies = flights, readings, anomalies
}

func TestStore_ReportsCountsToMetrics(t *testing.T) {
	rec := &countRecorder{}
	s := NewStore(rec)
	at := time.Now()

	f := s.StartFlight(at)
	hot := normalReading(at)
	hot.Temperature = 40
	if _, _, err := s.LogReading(f.ID, hot); err != nil {
		t.Fatalf("LogReading: %v", err)
	}
	if _, _, err := s.LogReading(f.ID, normalReading(at)); err != nil {
		t.Fatalf("LogReading: %v", err)
	}

	if rec.flights != 1 || rec.readings != 2 || rec.anomalies != 1 {
		t.Errorf("counts = %+v, want flights=1 readings=2 anomalies=1", rec)
	}
}
