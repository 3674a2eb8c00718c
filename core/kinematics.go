package core

import (
	"errors"
	"fmt"

	"github.com/Guinness96/drone-sim/model"
)

// ErrInvalidParams indicates physics parameters that would produce NaNs or
// divisions by zero at runtime. It is surfaced at engine construction,
// before any tick runs.
var ErrInvalidParams = errors.New("invalid physics parameters")

// PhysicsParams are the immutable physical limits of one engine instance.
type PhysicsParams struct {
	// MaxVelocity is the top speed in m/s.
	MaxVelocity float64
	// MaxAcceleration is the largest velocity change per second (m/s²).
	MaxAcceleration float64
	// MaxDeceleration is the braking limit in m/s², used to derive the
	// braking distance when approaching a target.
	MaxDeceleration float64
	// InertiaFactor in [0, 1] damps velocity and heading changes:
	// 0 is fully responsive, 1 is unresponsive.
	InertiaFactor float64
	// TurnRate is the maximum heading change in degrees per second.
	TurnRate float64
}

// DefaultPhysicsParams mirrors the stock drone profile: a small quadcopter
// topping out at 10 m/s with sluggish handling.
func DefaultPhysicsParams() PhysicsParams {
	return PhysicsParams{
		MaxVelocity:     10.0,
		MaxAcceleration: 2.0,
		MaxDeceleration: 3.0,
		InertiaFactor:   0.8,
		TurnRate:        45.0,
	}
}

// Validate reports whether the parameters are usable by the engine.
func (p PhysicsParams) Validate() error {
	if p.MaxVelocity <= 0 {
		return fmt.Errorf("%w: max_velocity %v must be > 0", ErrInvalidParams, p.MaxVelocity)
	}
	if p.MaxAcceleration <= 0 {
		return fmt.Errorf("%w: max_acceleration %v must be > 0", ErrInvalidParams, p.MaxAcceleration)
	}
	if p.MaxDeceleration <= 0 {
		return fmt.Errorf("%w: max_deceleration %v must be > 0", ErrInvalidParams, p.MaxDeceleration)
	}
	if p.InertiaFactor < 0 || p.InertiaFactor > 1 {
		return fmt.Errorf("%w: inertia_factor %v must be within [0, 1]", ErrInvalidParams, p.InertiaFactor)
	}
	if p.TurnRate <= 0 {
		return fmt.Errorf("%w: turn_rate %v must be > 0", ErrInvalidParams, p.TurnRate)
	}
	return nil
}

// Engine advances a KinematicState one tick at a time toward an optional
// target, respecting inertia and the configured physical limits. It holds
// no mutable state of its own; Step is a pure transition function.
type Engine struct {
	params PhysicsParams
}

// NewEngine validates params and constructs an engine.
func NewEngine(params PhysicsParams) (*Engine, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Engine{params: params}, nil
}

// Params returns the engine's physics parameters.
func (e *Engine) Params() PhysicsParams { return e.params }

// Step advances state by dt seconds toward target. A nil target models
// holding position and returns the state unchanged. dt must be
// non-negative; a zero dt leaves the position unchanged.
//
// The transition, in order: damp and clamp the turn toward the target
// bearing, derive a target velocity (full speed, or a linear ramp toward
// zero once within braking distance), damp and clamp the acceleration,
// integrate velocity, then project the position forward along the new
// heading. The linear ramp is an approximation: a very small remaining
// distance combined with a large dt can overshoot the target by one tick
// before the next step corrects it.
func (e *Engine) Step(state model.KinematicState, target *model.GeoPoint, dt float64) model.KinematicState {
	if target == nil {
		return state
	}

	p := e.params
	next := state

	targetBearing := InitialBearing(state.Position, *target)
	distance := HaversineDistance(state.Position, *target)

	// Heading: damped by inertia, clamped by the turn rate.
	headingErr := NormalizeAngle(targetBearing - state.Heading)
	turn := headingErr * (1 - p.InertiaFactor)
	turn = clamp(turn, -p.TurnRate*dt, p.TurnRate*dt)
	next.Heading = NormalizeAngle(state.Heading + turn)

	// Speed target: full speed unless within braking distance of the
	// target, then ramp linearly toward zero.
	targetVelocity := p.MaxVelocity
	braking := state.Velocity * state.Velocity / (2 * p.MaxDeceleration)
	if distance < braking {
		targetVelocity = state.Velocity * (distance / braking)
	}

	accel := (targetVelocity - state.Velocity) * (1 - p.InertiaFactor)
	accel = clamp(accel, -p.MaxAcceleration*dt, p.MaxAcceleration*dt)
	next.Acceleration = accel
	next.Velocity = clamp(state.Velocity+accel, 0, p.MaxVelocity)

	if moved := next.Velocity * dt; moved > 0 {
		next.Position = DestinationPoint(state.Position, next.Heading, moved)
	}

	return next
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
