package integrators

import (
	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/physics"
)

// Relation is a pure state transformation over one timestep. It must not
// change the number of bodies, their order or their masses.
type Relation func(s dynamo.State, dt float64) dynamo.State

// HalfStepVelocity kicks every velocity by a*(dt/2), with a evaluated at
// the input positions. Positions and masses are unchanged.
func HalfStepVelocity(g physics.Gravity) Relation {
	return func(s dynamo.State, dt float64) dynamo.State {
		return kick(g, s, dt/2)
	}
}

// FullStepVelocity kicks every velocity by a*dt.
func FullStepVelocity(g physics.Gravity) Relation {
	return func(s dynamo.State, dt float64) dynamo.State {
		return kick(g, s, dt)
	}
}

// FullStepPosition drifts every position by v*dt. Velocities and masses
// are unchanged.
func FullStepPosition(s dynamo.State, dt float64) dynamo.State {
	return drift(s, dt)
}

// HalfStepPosition drifts every position by v*(dt/2).
func HalfStepPosition(s dynamo.State, dt float64) dynamo.State {
	return drift(s, dt/2)
}

// kick and drift build one delta per body, so Add* cannot see a length
// mismatch.
func kick(g physics.Gravity, s dynamo.State, h float64) dynamo.State {
	dv := g.Accelerations(s)
	for i := range dv {
		dv[i] = dv[i].Scale(h)
	}
	out, err := s.AddVelocities(dv)
	if err != nil {
		panic(err)
	}
	return out
}

func drift(s dynamo.State, h float64) dynamo.State {
	dx := s.Velocities()
	for i := range dx {
		dx[i] = dx[i].Scale(h)
	}
	out, err := s.AddPositions(dx)
	if err != nil {
		panic(err)
	}
	return out
}

// Reverse negates every velocity. Running a time-symmetric step forward,
// reversing, running the same number of steps and reversing again returns
// to the starting state up to rounding.
func Reverse(s dynamo.State) dynamo.State {
	return s.WithVelocities(func(_ int, b dynamo.Body) dynamo.Vec3 {
		return b.Velocity.Neg()
	})
}
