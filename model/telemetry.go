package model

import "time"

// TelemetryReading is one synthesized sensor + motion record. Readings are
// tick-scoped values: the driver submits them to the ingestion API and
// appends them to the run's result sequence, nothing retains them beyond
// that.
type TelemetryReading struct {
	Timestamp time.Time `json:"timestamp"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Altitude  float64   `json:"altitude"`

	// Sensor channels, perturbed by configured noise bounds.
	Temperature     float64 `json:"temperature"`
	Humidity        float64 `json:"humidity"`
	AirQualityIndex float64 `json:"air_quality_index"`

	// Ground-truth motion telemetry, copied verbatim from the kinematic
	// state with no noise applied.
	Velocity     float64 `json:"velocity"`
	Heading      float64 `json:"heading"`
	Acceleration float64 `json:"acceleration"`
}
