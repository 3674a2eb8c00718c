package ingest

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/Guinness96/drone-sim/internal/logging"
	"github.com/Guinness96/drone-sim/internal/observability"
	"github.com/Guinness96/drone-sim/model"
)

// Server exposes the flight-logging REST API over a chi router.
type Server struct {
	store   *Store
	log     logging.Logger
	metrics *observability.IngestCollector
	now     func() time.Time
}

// NewServer wires the HTTP surface over store. log and metrics may be nil.
// now overrides the timestamp source for tests; nil uses wall-clock UTC.
func NewServer(store *Store, log logging.Logger, metrics *observability.IngestCollector, now func() time.Time) *Server {
	if log == nil {
		log = logging.Noop()
	}
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Server{store: store, log: log, metrics: metrics, now: now}
}

// Router builds the chi router with all API routes, CORS, and /metrics.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
		r.Handle("/metrics", s.metrics.Handler())
	}

	r.Get("/", s.handleRoot)
	r.Route("/api", func(r chi.Router) {
		r.Post("/flights/start", s.handleStartFlight)
		r.Get("/flights", s.handleListFlights)
		r.Post("/flights/{flightID}/log_data", s.handleLogData)
		r.Post("/flights/{flightID}/end", s.handleEndFlight)
		r.Get("/flights/{flightID}/data", s.handleFlightData)
		r.Get("/sensor_readings/latest", s.handleLatestReadings)
	})

	return r
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Drone Monitoring API is running."})
}

// StartFlightResponse acknowledges a newly opened flight session.
type StartFlightResponse struct {
	FlightID  int       `json:"flight_id"`
	StartTime time.Time `json:"start_time"`
}

func (s *Server) handleStartFlight(w http.ResponseWriter, r *http.Request) {
	ctx, log := logging.WithRequestLogger(r.Context(), s.log)

	f := s.store.StartFlight(s.now())
	log.Info(ctx, "started flight", logging.Int("flight_id", f.ID))
	writeJSON(w, http.StatusCreated, StartFlightResponse{FlightID: f.ID, StartTime: f.StartTime})
}

// LogDataResponse acknowledges one stored reading.
type LogDataResponse struct {
	PositionID int  `json:"position_id"`
	ReadingID  int  `json:"reading_id"`
	IsAnomaly  bool `json:"is_anomaly"`
}

func (s *Server) handleLogData(w http.ResponseWriter, r *http.Request) {
	ctx, log := logging.WithRequestLogger(r.Context(), s.log)

	flightID, ok := s.flightIDParam(w, r)
	if !ok {
		return
	}

	var reading model.TelemetryReading
	if err := json.NewDecoder(r.Body).Decode(&reading); err != nil {
		writeError(w, http.StatusBadRequest, "invalid reading payload")
		return
	}
	if reading.Timestamp.IsZero() {
		reading.Timestamp = s.now()
	}

	pos, stored, err := s.store.LogReading(flightID, reading)
	if err != nil {
		writeError(w, http.StatusNotFound, "Flight not found")
		return
	}

	if stored.IsAnomaly {
		log.Warn(ctx, "anomalous reading",
			logging.Int("flight_id", flightID),
			logging.Int("reading_id", stored.ID),
			logging.Any("temperature", stored.Temperature),
			logging.Any("humidity", stored.Humidity),
			logging.Any("air_quality_index", stored.AirQualityIndex))
	}

	writeJSON(w, http.StatusCreated, LogDataResponse{
		PositionID: pos.ID,
		ReadingID:  stored.ID,
		IsAnomaly:  stored.IsAnomaly,
	})
}

// EndFlightResponse acknowledges a closed flight session.
type EndFlightResponse struct {
	FlightID int       `json:"flight_id"`
	EndTime  time.Time `json:"end_time"`
}

func (s *Server) handleEndFlight(w http.ResponseWriter, r *http.Request) {
	ctx, log := logging.WithRequestLogger(r.Context(), s.log)

	flightID, ok := s.flightIDParam(w, r)
	if !ok {
		return
	}

	f, err := s.store.EndFlight(flightID, s.now())
	if err != nil {
		writeError(w, http.StatusNotFound, "Flight not found")
		return
	}

	log.Info(ctx, "ended flight", logging.Int("flight_id", f.ID))
	writeJSON(w, http.StatusOK, EndFlightResponse{FlightID: f.ID, EndTime: *f.EndTime})
}

func (s *Server) handleListFlights(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Flights())
}

type positionData struct {
	ID             int                   `json:"id"`
	Timestamp      time.Time             `json:"timestamp"`
	Latitude       float64               `json:"latitude"`
	Longitude      float64               `json:"longitude"`
	Altitude       float64               `json:"altitude"`
	SensorReadings []model.SensorReading `json:"sensor_readings"`
}

type flightData struct {
	ID        int            `json:"id"`
	StartTime time.Time      `json:"start_time"`
	EndTime   *time.Time     `json:"end_time"`
	Positions []positionData `json:"positions"`
}

func (s *Server) handleFlightData(w http.ResponseWriter, r *http.Request) {
	flightID, ok := s.flightIDParam(w, r)
	if !ok {
		return
	}

	f, found := s.store.Flight(flightID)
	if !found {
		writeError(w, http.StatusNotFound, "Flight not found")
		return
	}

	out := flightData{
		ID:        f.ID,
		StartTime: f.StartTime,
		EndTime:   f.EndTime,
		Positions: []positionData{},
	}
	for _, pw := range s.store.FlightPositions(flightID) {
		readings := pw.Readings
		if readings == nil {
			readings = []model.SensorReading{}
		}
		out.Positions = append(out.Positions, positionData{
			ID:             pw.Position.ID,
			Timestamp:      pw.Position.Timestamp,
			Latitude:       pw.Position.Latitude,
			Longitude:      pw.Position.Longitude,
			Altitude:       pw.Position.Altitude,
			SensorReadings: readings,
		})
	}

	writeJSON(w, http.StatusOK, out)
}

type latestReading struct {
	ID              int       `json:"id"`
	Timestamp       time.Time `json:"timestamp"`
	Position        position  `json:"position"`
	Temperature     float64   `json:"temperature"`
	Humidity        float64   `json:"humidity"`
	AirQualityIndex float64   `json:"air_quality_index"`
	IsAnomaly       bool      `json:"is_anomaly"`
}

type position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  float64 `json:"altitude"`
}

func (s *Server) handleLatestReadings(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	out := make([]latestReading, 0, limit)
	for _, rp := range s.store.LatestReadings(limit) {
		out = append(out, latestReading{
			ID:        rp.Reading.ID,
			Timestamp: rp.Reading.Timestamp,
			Position: position{
				Latitude:  rp.Position.Latitude,
				Longitude: rp.Position.Longitude,
				Altitude:  rp.Position.Altitude,
			},
			Temperature:     rp.Reading.Temperature,
			Humidity:        rp.Reading.Humidity,
			AirQualityIndex: rp.Reading.AirQualityIndex,
			IsAnomaly:       rp.Reading.IsAnomaly,
		})
	}

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) flightIDParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := chi.URLParam(r, "flightID")
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		writeError(w, http.StatusNotFound, "Flight not found")
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
