package analysis

import (
	"fmt"
	"math"

	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/integrators"
)

// LyapunovExponent estimates the largest Lyapunov exponent of an N-body
// trajectory by trajectory separation. The x position of the given body
// is nudged by delta, both copies are stepped together, and the shadow is
// pulled back to distance delta after every step. A clearly positive
// value over a long span marks chaotic motion.
//
// Distance is measured in the flattened phase space, positions and
// velocities together.
func LyapunovExponent(step integrators.Relation, x0 dynamo.State, body int, dt float64, steps int, delta float64) (float64, error) {
	if x0.Len() < 2 {
		return 0, fmt.Errorf("lyapunov: %w", dynamo.ErrTooFewBodies)
	}
	if body < 0 || body >= x0.Len() {
		return 0, fmt.Errorf("lyapunov: body %d out of range [0, %d)", body, x0.Len())
	}
	if !(dt > 0) || steps <= 0 || !(delta > 0) {
		return 0, fmt.Errorf("lyapunov: dt, steps and delta must be positive, got %g, %d, %g", dt, steps, delta)
	}

	masses := x0.Masses()
	x := x0
	xp := x0.WithPositions(func(i int, b dynamo.Body) dynamo.Vec3 {
		if i == body {
			return b.Position.Add(dynamo.V3(delta, 0, 0))
		}
		return b.Position
	})

	sumLog := 0.0
	for i := 0; i < steps; i++ {
		x = step(x, dt)
		xp = step(xp, dt)
		if !x.IsValid() || !xp.IsValid() {
			return 0, dynamo.SimError{Time: float64(i) * dt, Step: i, Message: "lyapunov: invalid state (NaN/Inf)"}
		}

		a, b := x.Flatten(), xp.Flatten()
		sep := 0.0
		for k := range a {
			d := b[k] - a[k]
			sep += d * d
		}
		sep = math.Sqrt(sep)
		if sep == 0 {
			continue
		}
		sumLog += math.Log(sep / delta)

		scale := delta / sep
		for k := range b {
			b[k] = a[k] + (b[k]-a[k])*scale
		}
		var err error
		if xp, err = dynamo.Unflatten(masses, b); err != nil {
			return 0, err
		}
	}

	return sumLog / (float64(steps) * dt), nil
}
