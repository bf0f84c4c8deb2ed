// Package integrators builds timestep functions from pure state relations.
//
// A [Relation] maps a state and a timestep to a new state. The elementary
// relations are [HalfStepVelocity] (kick by a·dt/2) and [FullStepPosition]
// (drift by v·dt); [Compose] threads a state through a fixed sequence of
// them. The kick-drift-kick leapfrog step is
//
//	step := integrators.Compose(
//	    integrators.HalfStepVelocity(g),
//	    integrators.FullStepPosition,
//	    integrators.HalfStepVelocity(g),
//	)
//	final := integrators.Iterate(step, s0, dt, 5000)
//
// [Euler] and [RK4] are registered next to the symplectic steppers so
// their energy behaviour can be compared with [Get].
package integrators
