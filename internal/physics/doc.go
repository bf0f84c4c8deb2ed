// Package physics computes Newtonian gravity over a [dynamo.State].
//
//   - [Gravity.Accelerations]: exhaustive O(N²) pairwise accelerations
//   - [Gravity.AccelerationAt], [Gravity.Field]: field sampled at arbitrary points
//   - [KineticEnergy], [Gravity.PotentialEnergy], [Gravity.TotalEnergy]
//   - [Momentum], [AngularMomentum], [CenterOfMass]
//
// The pairwise sum has no tree or multipole approximation; it is practical
// up to roughly a thousand bodies.
//
// # Softening
//
// Every cube distance is regularised as r³ + eps, which bounds the force
// when two bodies pass arbitrarily close. Use [DefaultSoftening] on the
// integration path and a larger value such as [FieldSoftening] when
// sampling the field for display:
//
//	g := physics.Gravity{G: 1, Softening: physics.FieldSoftening}
//	a := g.AccelerationAt(probe, state)
//
// # Energy Conservation
//
// For an isolated system total energy is conserved by the true dynamics,
// so [RelativeEnergyError] between two states of a run measures the
// integrator's error.
package physics
