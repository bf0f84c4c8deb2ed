// Package dynamo provides the value types of the gravitational kernel.
//
//   - [Vec3]: 3-component vector, value semantics
//   - [Body]: point mass with position and velocity
//   - [State]: immutable ordered sequence of bodies
//
// Nothing in this package mutates a value after construction. Every
// transformation returns a new [State] with the same length, the same
// body order and the same masses as its input.
//
// # Errors
//
// Construction failures are reported as [*ConfigError] wrapping one of the
// sentinel errors, so callers can use errors.Is:
//
//	_, err := dynamo.NewBody(0, pos, vel)
//	errors.Is(err, dynamo.ErrNonPositiveMass) // true
//
// Numerical divergence is not an error at this level; see [State.IsValid].
package dynamo
