// Package ingest implements the flight-logging service: an in-memory record
// store and the REST surface the simulator submits telemetry to.
package ingest

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Guinness96/drone-sim/model"
)

// Anomaly thresholds applied to incoming readings.
const (
	maxNormalTemperature = 30.0
	minNormalTemperature = 0.0
	maxNormalHumidity    = 90.0
	maxNormalAQI         = 150.0
)

// StoreMetricsRecorder receives record counts whenever the store mutates.
type StoreMetricsRecorder interface {
	SetStoreCounts(flights, readings, anomalies int)
}

// Store is an in-memory, thread-safe record store for flights, positions,
// and sensor readings. Records live for the process lifetime; IDs are
// auto-incremented per record kind.
type Store struct {
	mu sync.RWMutex

	flights   map[int]*model.Flight
	positions map[int]*model.DronePosition
	readings  map[int]*model.SensorReading

	nextFlightID   int
	nextPositionID int
	nextReadingID  int

	anomalies int

	metrics StoreMetricsRecorder
}

// NewStore constructs an empty store. metrics may be nil.
func NewStore(metrics StoreMetricsRecorder) *Store {
	return &Store{
		flights:        make(map[int]*model.Flight),
		positions:      make(map[int]*model.DronePosition),
		readings:       make(map[int]*model.SensorReading),
		nextFlightID:   1,
		nextPositionID: 1,
		nextReadingID:  1,
		metrics:        metrics,
	}
}

// StartFlight creates a new open flight and returns it.
func (s *Store) StartFlight(at time.Time) model.Flight {
	s.mu.Lock()
	defer s.mu.Unlock()

	f := &model.Flight{ID: s.nextFlightID, StartTime: at}
	s.nextFlightID++
	s.flights[f.ID] = f

	s.recordCountsLocked()
	return *f
}

// EndFlight stamps the flight's end time. It returns an error for unknown
// flight IDs. Ending an already-ended flight just moves the stamp, matching
// the idempotent close the simulator relies on.
func (s *Store) EndFlight(flightID int, at time.Time) (model.Flight, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.flights[flightID]
	if !ok {
		return model.Flight{}, fmt.Errorf("flight %d not found", flightID)
	}
	end := at
	f.EndTime = &end
	return *f, nil
}

// LogReading records one position fix plus its sensor reading under the
// given flight, applying the threshold anomaly check. It returns the stored
// position and reading.
func (s *Store) LogReading(flightID int, r model.TelemetryReading) (model.DronePosition, model.SensorReading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.flights[flightID]; !ok {
		return model.DronePosition{}, model.SensorReading{}, fmt.Errorf("flight %d not found", flightID)
	}

	pos := &model.DronePosition{
		ID:        s.nextPositionID,
		FlightID:  flightID,
		Timestamp: r.Timestamp,
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
		Altitude:  r.Altitude,
	}
	s.nextPositionID++
	s.positions[pos.ID] = pos

	reading := &model.SensorReading{
		ID:              s.nextReadingID,
		PositionID:      pos.ID,
		Timestamp:       r.Timestamp,
		Temperature:     r.Temperature,
		Humidity:        r.Humidity,
		AirQualityIndex: r.AirQualityIndex,
		IsAnomaly:       isAnomalous(r),
	}
	s.nextReadingID++
	s.readings[reading.ID] = reading
	if reading.IsAnomaly {
		s.anomalies++
	}

	s.recordCountsLocked()
	return *pos, *reading, nil
}

// Flight returns the flight with the given ID.
func (s *Store) Flight(flightID int) (model.Flight, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.flights[flightID]
	if !ok {
		return model.Flight{}, false
	}
	return *f, true
}

// Flights returns all flights ordered by ID.
func (s *Store) Flights() []model.Flight {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Flight, 0, len(s.flights))
	for _, f := range s.flights {
		out = append(out, *f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// FlightPositions returns the flight's position fixes ordered by ID, each
// paired with its sensor readings.
func (s *Store) FlightPositions(flightID int) []PositionWithReadings {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []PositionWithReadings
	for _, p := range s.positions {
		if p.FlightID != flightID {
			continue
		}
		pw := PositionWithReadings{Position: *p}
		for _, r := range s.readings {
			if r.PositionID == p.ID {
				pw.Readings = append(pw.Readings, *r)
			}
		}
		sort.Slice(pw.Readings, func(i, j int) bool { return pw.Readings[i].ID < pw.Readings[j].ID })
		out = append(out, pw)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position.ID < out[j].Position.ID })
	return out
}

// LatestReadings returns up to limit readings ordered newest first, each
// with the position it was recorded at.
func (s *Store) LatestReadings(limit int) []ReadingWithPosition {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ReadingWithPosition, 0, len(s.readings))
	for _, r := range s.readings {
		rp := ReadingWithPosition{Reading: *r}
		if p, ok := s.positions[r.PositionID]; ok {
			rp.Position = *p
		}
		out = append(out, rp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Reading.Timestamp.Equal(out[j].Reading.Timestamp) {
			return out[i].Reading.ID > out[j].Reading.ID
		}
		return out[i].Reading.Timestamp.After(out[j].Reading.Timestamp)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// PositionWithReadings pairs a position fix with its sensor readings.
type PositionWithReadings struct {
	Position model.DronePosition
	Readings []model.SensorReading
}

// ReadingWithPosition pairs a sensor reading with its position fix.
type ReadingWithPosition struct {
	Reading  model.SensorReading
	Position model.DronePosition
}

func isAnomalous(r model.TelemetryReading) bool {
	return r.Temperature > maxNormalTemperature ||
		r.Temperature < minNormalTemperature ||
		r.Humidity > maxNormalHumidity ||
		r.AirQualityIndex > maxNormalAQI
}

func (s *Store) recordCountsLocked() {
	if s.metrics != nil {
		s.metrics.SetStoreCounts(len(s.flights), len(s.readings), s.anomalies)
	}
}
