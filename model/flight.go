package model

import "time"

// Flight is a logged flight session as stored by the ingestion service.
type Flight struct {
	ID        int        `json:"id"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
}

// DronePosition is one recorded position fix within a flight.
type DronePosition struct {
	ID        int       `json:"id"`
	FlightID  int       `json:"flight_id"`
	Timestamp time.Time `json:"timestamp"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Altitude  float64   `json:"altitude"`
}

// SensorReading is one stored sensor record, attached to a position fix.
// IsAnomaly is set by the ingestion service's threshold check.
type SensorReading struct {
	ID              int       `json:"id"`
	PositionID      int       `json:"-"`
	Timestamp       time.Time `json:"timestamp"`
	Temperature     float64   `json:"temperature"`
	Humidity        float64   `json:"humidity"`
	AirQualityIndex float64   `json:"air_quality_index"`
	IsAnomaly       bool      `json:"is_anomaly"`
}
