package core

import (
	"math"

	"github.com/Guinness96/drone-sim/model"
)

// EarthRadiusMeters is the mean Earth radius used for all spherical
// geometry in the engine.
const EarthRadiusMeters = 6371000.0

// HaversineDistance returns the great-circle distance between two points in
// metres. Identical points yield exactly 0.
func HaversineDistance(a, b model.GeoPoint) float64 {
	if a == b {
		return 0
	}

	lat1 := radians(a.Latitude)
	lat2 := radians(b.Latitude)
	dLat := radians(b.Latitude - a.Latitude)
	dLon := radians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusMeters * c
}

// InitialBearing returns the forward azimuth from a to b in degrees,
// normalised to [0, 360). Near the poles or for coincident points the
// spherical formula degenerates; the result is still finite, which is all
// callers rely on.
func InitialBearing(a, b model.GeoPoint) float64 {
	lat1 := radians(a.Latitude)
	lat2 := radians(b.Latitude)
	dLon := radians(b.Longitude - a.Longitude)

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)

	return NormalizeAngle(degrees(math.Atan2(y, x)))
}

// DestinationPoint projects origin forward by distance metres along the
// given bearing, using the direct spherical geodesic formula.
func DestinationPoint(origin model.GeoPoint, bearingDeg, distance float64) model.GeoPoint {
	lat1 := radians(origin.Latitude)
	lon1 := radians(origin.Longitude)
	brg := radians(bearingDeg)

	// Angular distance on the sphere.
	delta := distance / EarthRadiusMeters

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(delta) +
		math.Cos(lat1)*math.Sin(delta)*math.Cos(brg))
	lon2 := lon1 + math.Atan2(
		math.Sin(brg)*math.Sin(delta)*math.Cos(lat1),
		math.Cos(delta)-math.Sin(lat1)*math.Sin(lat2))

	return model.GeoPoint{
		Latitude:  degrees(lat2),
		Longitude: degrees(lon2),
	}
}

// NormalizeAngle maps any finite angle in degrees onto [0, 360). It is
// idempotent and 360-periodic.
func NormalizeAngle(angle float64) float64 {
	a := math.Mod(angle, 360)
	if a < 0 {
		a += 360
	}
	return a
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

func degrees(rad float64) float64 { return rad * 180 / math.Pi }
