package integrators

import (
	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/physics"
)

// RK4 is the classical fourth-order Runge-Kutta step on (positions,
// velocities). It is more accurate per step than leapfrog but not
// symplectic, so its energy error drifts over long runs.
func RK4(g physics.Gravity) Relation {
	return func(s dynamo.State, dt float64) dynamo.State {
		p0 := s.Positions()
		v0 := s.Velocities()

		// derivative of the state shifted by (dp, dv)
		deriv := func(dp, dv []dynamo.Vec3, h float64) (kp, kv []dynamo.Vec3) {
			shifted := s.WithPositions(func(i int, b dynamo.Body) dynamo.Vec3 {
				return b.Position.Add(dp[i].Scale(h))
			})
			kp = make([]dynamo.Vec3, len(v0))
			for i := range v0 {
				kp[i] = v0[i].Add(dv[i].Scale(h))
			}
			return kp, g.Accelerations(shifted)
		}

		zero := make([]dynamo.Vec3, len(p0))
		k1p, k1v := deriv(zero, zero, 0)
		k2p, k2v := deriv(k1p, k1v, dt*0.5)
		k3p, k3v := deriv(k2p, k2v, dt*0.5)
		k4p, k4v := deriv(k3p, k3v, dt)

		dt6 := dt / 6.0
		combine := func(k1, k2, k3, k4 []dynamo.Vec3, i int) dynamo.Vec3 {
			return k1[i].Add(k2[i].Scale(2)).Add(k3[i].Scale(2)).Add(k4[i]).Scale(dt6)
		}

		return s.
			WithPositions(func(i int, b dynamo.Body) dynamo.Vec3 {
				return b.Position.Add(combine(k1p, k2p, k3p, k4p, i))
			}).
			WithVelocities(func(i int, b dynamo.Body) dynamo.Vec3 {
				return b.Velocity.Add(combine(k1v, k2v, k3v, k4v, i))
			})
	}
}
