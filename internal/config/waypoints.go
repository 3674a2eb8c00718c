package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/Guinness96/drone-sim/model"
)

// ErrWaypoints indicates a malformed or empty waypoint source. Unlike a
// missing file, which callers fall back from, malformed content is
// propagated: silently flying a default route instead of the one the
// operator wrote would hide the mistake.
var ErrWaypoints = errors.New("invalid waypoint source")

// DefaultWaypoints returns the stock route: a short loop around central
// London, returning to its start.
func DefaultWaypoints() []model.GeoPoint {
	return []model.GeoPoint{
		{Latitude: 51.507351, Longitude: -0.127758},
		{Latitude: 51.507951, Longitude: -0.127158},
		{Latitude: 51.508351, Longitude: -0.126758},
		{Latitude: 51.508751, Longitude: -0.127358},
		{Latitude: 51.508351, Longitude: -0.127958},
		{Latitude: 51.507751, Longitude: -0.128358},
		{Latitude: 51.507351, Longitude: -0.127758},
	}
}

// LoadWaypoints reads a JSON array of [lat, lon] pairs from path. A missing
// or unreadable file falls back to the default route with ok=false so
// callers can log the fallback. Malformed JSON, pairs of the wrong arity,
// and empty lists return ErrWaypoints.
func LoadWaypoints(path string) (waypoints []model.GeoPoint, ok bool, err error) {
	if path == "" {
		return DefaultWaypoints(), false, nil
	}

	raw, readErr := os.ReadFile(path)
	if readErr != nil {
		return DefaultWaypoints(), false, nil
	}

	var pairs [][]float64
	if jsonErr := json.Unmarshal(raw, &pairs); jsonErr != nil {
		return nil, false, fmt.Errorf("%w: parse %q: %v", ErrWaypoints, path, jsonErr)
	}
	if len(pairs) == 0 {
		return nil, false, fmt.Errorf("%w: %q contains no waypoints", ErrWaypoints, path)
	}

	waypoints = make([]model.GeoPoint, 0, len(pairs))
	for i, pair := range pairs {
		if len(pair) != 2 {
			return nil, false, fmt.Errorf("%w: waypoint %d in %q has %d values, want [lat, lon]", ErrWaypoints, i, path, len(pair))
		}
		waypoints = append(waypoints, model.GeoPoint{Latitude: pair[0], Longitude: pair[1]})
	}
	return waypoints, true, nil
}
