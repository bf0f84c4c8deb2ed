package physics

import (
	"math"

	"github.com/san-kum/gravsim/internal/dynamo"
)

// KineticEnergy is 0.5 * Σ m v·v.
func KineticEnergy(s dynamo.State) float64 {
	ke := 0.0
	for i := 0; i < s.Len(); i++ {
		b := s.Body(i)
		ke += 0.5 * b.Mass * b.Velocity.Dot(b.Velocity)
	}
	return ke
}

// PotentialEnergy sums -G m_i m_j / (r_ij + eps) over unordered pairs.
func (g Gravity) PotentialEnergy(s dynamo.State) float64 {
	pe := 0.0
	for i := 0; i < s.Len(); i++ {
		bi := s.Body(i)
		for j := i + 1; j < s.Len(); j++ {
			bj := s.Body(j)
			r := bj.Position.Sub(bi.Position).Norm()
			pe -= g.G * bi.Mass * bj.Mass / (r + g.Softening)
		}
	}
	return pe
}

func (g Gravity) TotalEnergy(s dynamo.State) float64 {
	return KineticEnergy(s) + g.PotentialEnergy(s)
}

// TotalEnergy uses DefaultGravity.
func TotalEnergy(s dynamo.State) float64 {
	return DefaultGravity().TotalEnergy(s)
}

// RelativeEnergyError is |e1-e0|/|e0|, or the absolute error when e0 is 0.
func RelativeEnergyError(e0, e1 float64) float64 {
	if e0 == 0 {
		return math.Abs(e1 - e0)
	}
	return math.Abs(e1-e0) / math.Abs(e0)
}

// Momentum is Σ m v.
func Momentum(s dynamo.State) dynamo.Vec3 {
	var p dynamo.Vec3
	for i := 0; i < s.Len(); i++ {
		b := s.Body(i)
		p = p.Add(b.Velocity.Scale(b.Mass))
	}
	return p
}

// AngularMomentum is Σ m (r × v) about the origin.
func AngularMomentum(s dynamo.State) dynamo.Vec3 {
	var l dynamo.Vec3
	for i := 0; i < s.Len(); i++ {
		b := s.Body(i)
		l = l.Add(b.Position.Cross(b.Velocity).Scale(b.Mass))
	}
	return l
}

// CenterOfMass returns the mass-weighted mean position.
func CenterOfMass(s dynamo.State) dynamo.Vec3 {
	var c dynamo.Vec3
	total := 0.0
	for i := 0; i < s.Len(); i++ {
		b := s.Body(i)
		c = c.Add(b.Position.Scale(b.Mass))
		total += b.Mass
	}
	if total == 0 {
		return dynamo.Vec3{}
	}
	return c.Scale(1 / total)
}
