package core

import "github.com/Guinness96/drone-sim/model"

// ArrivalThresholdMeters is the distance below which a waypoint counts as
// reached.
const ArrivalThresholdMeters = 10.0

// Navigator is a finite-state machine over an ordered waypoint list. It is
// EnRoute to waypoint i until the observed position comes within the
// arrival threshold, then advances to i+1; once i reaches the end of the
// list it is Completed.
//
// In bypass mode the physics engine is not consulted: every evaluation
// advances to the next waypoint and the raw waypoint coordinate is reported
// as the current position. This supports lightweight deterministic runs.
type Navigator struct {
	waypoints []model.GeoPoint
	index     int
	bypass    bool
	threshold float64
}

// NewNavigator builds a navigator over waypoints. An empty list starts in
// the Completed state. The waypoint slice is not copied; callers must not
// mutate it during a run.
func NewNavigator(waypoints []model.GeoPoint, bypass bool) *Navigator {
	return &Navigator{
		waypoints: waypoints,
		bypass:    bypass,
		threshold: ArrivalThresholdMeters,
	}
}

// Completed reports whether every waypoint has been reached.
func (n *Navigator) Completed() bool { return n.index >= len(n.waypoints) }

// Index returns the index of the current target waypoint. Once Completed it
// equals the waypoint count.
func (n *Navigator) Index() int { return n.index }

// Bypass reports whether physics-free navigation is active.
func (n *Navigator) Bypass() bool { return n.bypass }

// Target returns the current target waypoint, or false when Completed.
func (n *Navigator) Target() (model.GeoPoint, bool) {
	if n.Completed() {
		return model.GeoPoint{}, false
	}
	return n.waypoints[n.index], true
}

// Observe evaluates arrival against position and advances the index by at
// most one. Even if several waypoints lie within the threshold
// simultaneously, a single evaluation never skips past more than one:
// one advance per evaluation keeps per-tick behaviour predictable.
// It returns true when a waypoint was reached.
func (n *Navigator) Observe(position model.GeoPoint) bool {
	if n.Completed() {
		return false
	}
	if HaversineDistance(position, n.waypoints[n.index]) < n.threshold {
		n.index++
		return true
	}
	return false
}

// Advance moves unconditionally to the next waypoint and returns the
// coordinate of the one just visited. Only meaningful in bypass mode, where
// the waypoint itself stands in for the drone position.
func (n *Navigator) Advance() (model.GeoPoint, bool) {
	if n.Completed() {
		return model.GeoPoint{}, false
	}
	wp := n.waypoints[n.index]
	n.index++
	return wp, true
}
