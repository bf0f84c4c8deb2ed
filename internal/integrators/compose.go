package integrators

import "github.com/san-kum/gravsim/internal/dynamo"

// Compose threads a state through rs in order, handing each relation the
// same dt. Compose() is the identity.
func Compose(rs ...Relation) Relation {
	steps := make([]Relation, len(rs))
	copy(steps, rs)

	return func(s dynamo.State, dt float64) dynamo.State {
		for _, r := range steps {
			s = r(s, dt)
		}
		return s
	}
}

// Iterate applies step exactly steps times, feeding each output into the
// next call, and returns the last state. It returns s0 when steps <= 0.
func Iterate(step Relation, s0 dynamo.State, dt float64, steps int) dynamo.State {
	s := s0
	for i := 0; i < steps; i++ {
		s = step(s, dt)
	}
	return s
}
