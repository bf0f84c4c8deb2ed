package initial

import (
	"math"
	"testing"

	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/physics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pairDistances(s dynamo.State) []float64 {
	var out []float64
	for i := 0; i < s.Len(); i++ {
		for j := i + 1; j < s.Len(); j++ {
			out = append(out, s.Body(j).Position.Sub(s.Body(i).Position).Norm())
		}
	}
	return out
}

func TestLagrangian_Energy(t *testing.T) {
	s := Lagrangian()
	assert.InDelta(t, -1.5, physics.TotalEnergy(s), 1e-10)
}

func TestLagrangian_EqualSides(t *testing.T) {
	for _, side := range []float64{1, 0.5, 3} {
		p := DefaultLagrangeParams()
		p.Side = side
		s, err := Lagrange(p)
		require.NoError(t, err)

		d := pairDistances(s)
		require.Len(t, d, 3)
		for _, di := range d {
			assert.InDelta(t, side, di, 1e-12, "side %g", side)
		}
	}
}

func TestLagrangian_CentripetalBalance(t *testing.T) {
	p := LagrangeParams{Side: 2, Mass: 1.5, G: 0.7}
	s, err := Lagrange(p)
	require.NoError(t, err)

	g := physics.Gravity{G: p.G, Softening: 0}
	acc := g.Accelerations(s)
	for i := 0; i < s.Len(); i++ {
		b := s.Body(i)
		r := b.Position.Norm()
		v2 := b.Velocity.Dot(b.Velocity)
		// acceleration points at the centre with magnitude v²/r
		want := b.Position.Scale(-v2 / (r * r))
		for k := 0; k < 3; k++ {
			assert.InDelta(t, want[k], acc[i][k], 1e-12)
		}
		assert.InDelta(t, 0, b.Position.Dot(b.Velocity), 1e-12, "velocity is tangential")
	}
}

func TestLagrange_UnitSpeeds(t *testing.T) {
	s := Lagrangian()
	for i := 0; i < s.Len(); i++ {
		assert.InDelta(t, 1.0, s.Body(i).Velocity.Norm(), 1e-12)
		assert.Equal(t, 1.0, s.Body(i).Mass)
	}
	assert.InDelta(t, 0, physics.CenterOfMass(s).Norm(), 1e-12)
	assert.InDelta(t, 0, physics.Momentum(s).Norm(), 1e-12)
}

func TestLagrange_RejectsBadParams(t *testing.T) {
	_, err := Lagrange(LagrangeParams{Side: 0, Mass: 1, G: 1})
	assert.ErrorIs(t, err, dynamo.ErrParameterBounds)

	_, err = Lagrange(LagrangeParams{Side: 1, Mass: -1, G: 1})
	assert.ErrorIs(t, err, dynamo.ErrNonPositiveMass)
}

func TestBinary_CircularOrbit(t *testing.T) {
	p := BinaryParams{Mass1: 1, Mass2: 3, Separation: 2, G: 1}
	s, err := Binary(p)
	require.NoError(t, err)

	assert.InDelta(t, 0, physics.Momentum(s).Norm(), 1e-12)
	assert.InDelta(t, 0, physics.CenterOfMass(s).Norm(), 1e-12)
	assert.InDelta(t, 2.0, pairDistances(s)[0], 1e-12)

	g := physics.Gravity{G: 1, Softening: 0}
	acc := g.Accelerations(s)
	for i := 0; i < 2; i++ {
		b := s.Body(i)
		r := b.Position.Norm()
		assert.InDelta(t, b.Velocity.Dot(b.Velocity)/r, acc[i].Norm(), 1e-12)
	}
}

func TestRing_CircularSpeed(t *testing.T) {
	for _, n := range []int{2, 3, 5, 8} {
		p := RingParams{Bodies: n, Radius: 1.5, Mass: 1, G: 1}
		s, err := Ring(p)
		require.NoError(t, err)
		require.Equal(t, n, s.Len())

		g := physics.Gravity{G: 1, Softening: 0}
		acc := g.Accelerations(s)
		b := s.Body(0)
		v2 := b.Velocity.Dot(b.Velocity)
		assert.InDelta(t, v2/p.Radius, acc[0].Norm(), 1e-10, "n=%d", n)
	}

	_, err := Ring(RingParams{Bodies: 1, Radius: 1, Mass: 1, G: 1})
	assert.ErrorIs(t, err, dynamo.ErrTooFewBodies)
}

func TestFigureEight(t *testing.T) {
	s := FigureEight()
	assert.Equal(t, 3, s.Len())
	assert.InDelta(t, 0, physics.Momentum(s).Norm(), 1e-8)
	assert.Less(t, physics.TotalEnergy(s), 0.0)
}

func TestDemo(t *testing.T) {
	s := Demo()
	assert.Equal(t, 3, s.Len())
	assert.True(t, s.IsValid())
	assert.False(t, math.IsNaN(physics.TotalEnergy(s)))
}

func TestBinary_EccentricEnergy(t *testing.T) {
	p := BinaryParams{Mass1: 1, Mass2: 2, Separation: 1.5, Eccentricity: 0.5, G: 1}
	s, err := Binary(p)
	require.NoError(t, err)

	// Kepler: E = -G m1 m2 / 2a with a = r_apo/(1+e)
	a := p.Separation / (1 + p.Eccentricity)
	assert.InDelta(t, -p.G*p.Mass1*p.Mass2/(2*a), physics.TotalEnergy(s), 1e-10)
	assert.InDelta(t, 2*math.Pi*math.Sqrt(a*a*a/3), BinaryPeriod(p), 1e-12)

	_, err = Binary(BinaryParams{Mass1: 1, Mass2: 1, Separation: 1, Eccentricity: 1, G: 1})
	assert.ErrorIs(t, err, dynamo.ErrParameterBounds)
}
