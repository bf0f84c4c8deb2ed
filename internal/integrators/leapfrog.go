package integrators

import (
	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/physics"
)

// Leapfrog is the kick-drift-kick Störmer-Verlet step: half kick, full
// drift with the updated velocities, half kick with the accelerations at
// the new positions. The scheme is time-reversible and symplectic, so its
// energy error stays bounded instead of drifting.
func Leapfrog(g physics.Gravity) Relation {
	return Compose(
		HalfStepVelocity(g),
		FullStepPosition,
		HalfStepVelocity(g),
	)
}

// PositionVerlet is the drift-kick-drift ordering of the same scheme.
// It evaluates the accelerations once per step instead of twice.
func PositionVerlet(g physics.Gravity) Relation {
	return Compose(
		HalfStepPosition,
		FullStepVelocity(g),
		HalfStepPosition,
	)
}

// LeapfrogStep advances s by one leapfrog step with DefaultGravity.
func LeapfrogStep(s dynamo.State, dt float64) dynamo.State {
	return Leapfrog(physics.DefaultGravity())(s, dt)
}
