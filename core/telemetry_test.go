package core

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/Guinness96/drone-sim/model"
)

func TestSynthesizer_ReadingCopiesStateVerbatim(t *testing.T) {
	s := NewSynthesizer(DefaultNoiseLevels(), rand.New(rand.NewSource(1)))
	state := model.KinematicState{
		Position:     london,
		Altitude:     100,
		Velocity:     3.5,
		Heading:      45.0,
		Acceleration: 1.2,
	}
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	r := s.Reading(state, at)

	if r.Timestamp != at {
		t.Errorf("timestamp = %v, want %v", r.Timestamp, at)
	}
	if r.Latitude != state.Position.Latitude || r.Longitude != state.Position.Longitude {
		t.Errorf("position = (%v, %v), want (%v, %v)",
			r.Latitude, r.Longitude, state.Position.Latitude, state.Position.Longitude)
	}
	if r.Velocity != 3.5 || r.Heading != 45.0 || r.Acceleration != 1.2 {
		t.Errorf("motion telemetry = (%v, %v, %v), want verbatim (3.5, 45, 1.2)",
			r.Velocity, r.Heading, r.Acceleration)
	}
}

func TestSynthesizer_NoiseStaysWithinBounds(t *testing.T) {
	noise := NoiseLevels{Temperature: 5, Humidity: 20, AirQuality: 100, Altitude: 20}
	s := NewSynthesizer(noise, rand.New(rand.NewSource(42)))
	state := model.InitialState(london, 100)
	at := time.Now()

	for i := 0; i < 200; i++ {
		r := s.Reading(state, at)
		if r.Temperature < 15 || r.Temperature > 25 {
			t.Fatalf("temperature %v outside 20 ± 5", r.Temperature)
		}
		if r.Humidity < 40 || r.Humidity > 80 {
			t.Fatalf("humidity %v outside 60 ± 20", r.Humidity)
		}
		// Air quality uses the asymmetric band [-n/2, n].
		if r.AirQualityIndex < 0 || r.AirQualityIndex > 150 {
			t.Fatalf("AQI %v outside [0, 150]", r.AirQualityIndex)
		}
		if r.Altitude < 80 || r.Altitude > 120 {
			t.Fatalf("altitude %v outside 100 ± 20", r.Altitude)
		}
	}
}

func TestSynthesizer_RoundingPrecision(t *testing.T) {
	s := NewSynthesizer(DefaultNoiseLevels(), rand.New(rand.NewSource(7)))
	state := model.InitialState(london, 100)

	for i := 0; i < 50; i++ {
		r := s.Reading(state, time.Now())
		for name, v := range map[string]float64{
			"temperature": r.Temperature,
			"humidity":    r.Humidity,
			"altitude":    r.Altitude,
		} {
			if scaled := v * 10; math.Abs(scaled-math.Round(scaled)) > 1e-9 {
				t.Fatalf("%s = %v, want one decimal place", name, v)
			}
		}
		if math.Abs(r.AirQualityIndex-math.Round(r.AirQualityIndex)) > 1e-9 {
			t.Fatalf("AQI = %v, want whole number", r.AirQualityIndex)
		}
	}
}

func TestSynthesizer_SeededSourceIsReproducible(t *testing.T) {
	state := model.InitialState(london, 100)
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	a := NewSynthesizer(DefaultNoiseLevels(), rand.New(rand.NewSource(99)))
	b := NewSynthesizer(DefaultNoiseLevels(), rand.New(rand.NewSource(99)))

	for i := 0; i < 10; i++ {
		if ra, rb := a.Reading(state, at), b.Reading(state, at); ra != rb {
			t.Fatalf("readings diverged at draw %d: %+v vs %+v", i, ra, rb)
		}
	}
}

func TestSynthesizer_AltitudeNoiseDoesNotMutateState(t *testing.T) {
	s := NewSynthesizer(NoiseLevels{Altitude: 20}, rand.New(rand.NewSource(3)))
	state := model.InitialState(london, 100)

	for i := 0; i < 20; i++ {
		s.Reading(state, time.Now())
	}
	if state.Altitude != 100 {
		t.Fatalf("state altitude mutated to %v", state.Altitude)
	}
}

func TestSynthesizer_ZeroNoiseYieldsBaselines(t *testing.T) {
	s := NewSynthesizer(NoiseLevels{}, rand.New(rand.NewSource(5)))
	state := model.InitialState(london, 100)

	r := s.Reading(state, time.Now())
	if r.Temperature != 20.0 || r.Humidity != 60.0 || r.AirQualityIndex != 50.0 || r.Altitude != 100.0 {
		t.Fatalf("zero-noise reading = %+v, want exact baselines", r)
	}
}
