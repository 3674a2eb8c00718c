package model

// GeoPoint is a position on the Earth's surface in floating-point degrees.
// No range validation is applied; callers are expected to supply valid
// coordinates.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// KinematicState is the full motion state of a simulated drone at one
// instant. It is a plain value: the kinematics engine returns a new state
// each tick rather than mutating fields in place.
type KinematicState struct {
	Position GeoPoint

	// Altitude in metres. Set at initialisation and perturbed by sensor
	// noise in readings, but never advanced by the kinematic step (the
	// simulation is 2D).
	Altitude float64

	// Velocity in m/s, always within [0, MaxVelocity].
	Velocity float64

	// Heading in degrees, 0 = true north, clockwise, within [0, 360).
	Heading float64

	// Acceleration in m/s², signed. The value applied on the last step;
	// it is not integrated further.
	Acceleration float64
}

// InitialState returns a zeroed-motion state at the given position and
// altitude.
func InitialState(position GeoPoint, altitude float64) KinematicState {
	return KinematicState{
		Position: position,
		Altitude: altitude,
	}
}
