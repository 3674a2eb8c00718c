package core

import (
	"math"
	"math/rand"
	"time"

	"github.com/Guinness96/drone-sim/model"
)

// NoiseLevels are the per-channel sensor noise bounds, each in the
// reading's native unit. A bound of n perturbs the channel baseline by a
// uniform draw in [-n, n] (air quality uses an asymmetric [-n/2, n] band,
// matching the skew of real AQI spikes).
type NoiseLevels struct {
	Temperature float64
	Humidity    float64
	AirQuality  float64
	Altitude    float64
}

// DefaultNoiseLevels mirrors the stock sensor profile.
func DefaultNoiseLevels() NoiseLevels {
	return NoiseLevels{
		Temperature: 5.0,
		Humidity:    20.0,
		AirQuality:  100.0,
		Altitude:    20.0,
	}
}

// Sensor baselines the noise perturbs around.
const (
	baseTemperature = 20.0 // °C
	baseHumidity    = 60.0 // %
	baseAirQuality  = 50.0 // AQI
)

// Synthesizer builds one TelemetryReading per tick from the current
// kinematic state. Its only side effect is drawing from the injected
// random source, so seeded runs are reproducible.
type Synthesizer struct {
	noise NoiseLevels
	rng   *rand.Rand
}

// NewSynthesizer constructs a synthesizer. A nil rng falls back to a
// time-seeded source.
func NewSynthesizer(noise NoiseLevels, rng *rand.Rand) *Synthesizer {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Synthesizer{noise: noise, rng: rng}
}

// Reading synthesizes a telemetry record for state at the given time.
// Velocity, heading, and acceleration are treated as ground truth and
// copied without noise. Altitude noise perturbs only the reading; the
// state's altitude is untouched.
func (s *Synthesizer) Reading(state model.KinematicState, at time.Time) model.TelemetryReading {
	return model.TelemetryReading{
		Timestamp:       at,
		Latitude:        state.Position.Latitude,
		Longitude:       state.Position.Longitude,
		Altitude:        round1(state.Altitude + s.uniform(-s.noise.Altitude, s.noise.Altitude)),
		Temperature:     round1(baseTemperature + s.uniform(-s.noise.Temperature, s.noise.Temperature)),
		Humidity:        round1(baseHumidity + s.uniform(-s.noise.Humidity, s.noise.Humidity)),
		AirQualityIndex: math.Round(baseAirQuality + s.uniform(-s.noise.AirQuality/2, s.noise.AirQuality)),
		Velocity:        state.Velocity,
		Heading:         state.Heading,
		Acceleration:    state.Acceleration,
	}
}

// uniform draws from [lo, hi).
func (s *Synthesizer) uniform(lo, hi float64) float64 {
	return lo + s.rng.Float64()*(hi-lo)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
