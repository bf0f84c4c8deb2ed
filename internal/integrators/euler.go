package integrators

import (
	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/physics"
)

// Euler is the explicit Euler step: positions and velocities both advance
// from the derivatives at the start of the step. It is not symplectic and
// its energy error grows with the number of steps; it is kept as a
// baseline for comparisons.
func Euler(g physics.Gravity) Relation {
	return func(s dynamo.State, dt float64) dynamo.State {
		a := g.Accelerations(s)
		return s.
			WithPositions(func(_ int, b dynamo.Body) dynamo.Vec3 {
				return b.Position.Add(b.Velocity.Scale(dt))
			}).
			WithVelocities(func(i int, b dynamo.Body) dynamo.Vec3 {
				return b.Velocity.Add(a[i].Scale(dt))
			})
	}
}
