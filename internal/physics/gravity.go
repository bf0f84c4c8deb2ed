package physics

import (
	"math"

	"github.com/san-kum/gravsim/internal/dynamo"
)

const (
	// DefaultG is the gravitational constant in simulation units.
	DefaultG = 1.0
	// DefaultSoftening regularises the cube distance on the integration path.
	DefaultSoftening = 1e-12
	// FieldSoftening is the softening recommended when sampling the field at
	// arbitrary points, where a probe can sit on top of a body.
	FieldSoftening = 1e-3
	// ParallelThreshold is the body count from which acceleration rows are
	// computed concurrently.
	ParallelThreshold = 256
)

// Gravity holds the parameters of pairwise Newtonian attraction.
// The zero value is not useful; use DefaultGravity or fill both fields.
// Softening 0 turns regularisation off: forces near an encounter are
// unbounded, coincident points exert no force on each other and their
// potential energy is -Inf.
type Gravity struct {
	G         float64
	Softening float64
}

func DefaultGravity() Gravity {
	return Gravity{G: DefaultG, Softening: DefaultSoftening}
}

// Validate rejects non-finite constants and negative softening.
func (g Gravity) Validate() error {
	if math.IsNaN(g.G) || math.IsInf(g.G, 0) || g.G < 0 {
		return &dynamo.ConfigError{Field: "g", Value: g.G, Err: dynamo.ErrParameterBounds}
	}
	if math.IsNaN(g.Softening) || math.IsInf(g.Softening, 0) || g.Softening < 0 {
		return &dynamo.ConfigError{Field: "softening", Value: g.Softening, Err: dynamo.ErrParameterBounds}
	}
	return nil
}

// pull is the acceleration exerted on a point at from by a mass m at to:
// G*m/(|d|^3 + eps) * d with d = to - from.
func (g Gravity) pull(from, to dynamo.Vec3, m float64) dynamo.Vec3 {
	d := to.Sub(from)
	s := d.Dot(d)
	if s == 0 {
		return dynamo.Vec3{}
	}
	r3 := math.Sqrt(s)*s + g.Softening
	return d.Scale(g.G * m / r3)
}

// Accelerations returns the acceleration of every body, in state order,
// from the exhaustive O(N²) ordered-pair sum. Each row reads only the
// input state, so rows are computed in parallel for large N with the same
// summation order and therefore the same bits as the serial loop.
func (g Gravity) Accelerations(s dynamo.State) []dynamo.Vec3 {
	pos := s.Positions()
	m := s.Masses()
	acc := make([]dynamo.Vec3, len(pos))

	row := func(start, end int) {
		for i := start; i < end; i++ {
			var a dynamo.Vec3
			for j := range pos {
				if i == j {
					continue
				}
				a = a.Add(g.pull(pos[i], pos[j], m[j]))
			}
			acc[i] = a
		}
	}

	if len(pos) >= ParallelThreshold {
		dynamo.ParallelFor(len(pos), ParallelThreshold/4, row)
	} else {
		row(0, len(pos))
	}
	return acc
}

// AccelerationAt samples the field at an arbitrary point. Every body
// contributes, including one sitting exactly on p.
func (g Gravity) AccelerationAt(p dynamo.Vec3, s dynamo.State) dynamo.Vec3 {
	var a dynamo.Vec3
	for i := 0; i < s.Len(); i++ {
		b := s.Body(i)
		a = a.Add(g.pull(p, b.Position, b.Mass))
	}
	return a
}

// Field samples AccelerationAt at every point, in order.
func (g Gravity) Field(points []dynamo.Vec3, s dynamo.State) []dynamo.Vec3 {
	out := make([]dynamo.Vec3, len(points))
	for i, p := range points {
		out[i] = g.AccelerationAt(p, s)
	}
	return out
}

// Accelerations uses DefaultGravity.
func Accelerations(s dynamo.State) []dynamo.Vec3 {
	return DefaultGravity().Accelerations(s)
}
