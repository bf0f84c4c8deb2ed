package integrators

import (
	"testing"

	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/initial"
	"github.com/san-kum/gravsim/internal/physics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelations_IdentityAtZeroDt(t *testing.T) {
	g := physics.DefaultGravity()
	relations := map[string]Relation{
		"half velocity": HalfStepVelocity(g),
		"full velocity": FullStepVelocity(g),
		"full position": FullStepPosition,
		"half position": HalfStepPosition,
	}

	for _, name := range initial.Names() {
		s, err := initial.Get(name, nil)
		require.NoError(t, err)
		for rname, r := range relations {
			assert.True(t, r(s, 0).Equal(s), "%s on %s", rname, name)
		}
	}
}

func TestHalfStepVelocity_OnlyVelocitiesChange(t *testing.T) {
	g := physics.DefaultGravity()
	s := initial.Demo()
	next := HalfStepVelocity(g)(s, 0.1)

	assert.Equal(t, s.Positions(), next.Positions())
	assert.True(t, s.SameMasses(next))

	acc := g.Accelerations(s)
	for i, v := range next.Velocities() {
		assert.Equal(t, s.Body(i).Velocity.Add(acc[i].Scale(0.05)), v)
	}
}

func TestFullStepPosition_OnlyPositionsChange(t *testing.T) {
	s := initial.Demo()
	next := FullStepPosition(s, 0.5)

	assert.Equal(t, s.Velocities(), next.Velocities())
	assert.True(t, s.SameMasses(next))
	for i, p := range next.Positions() {
		b := s.Body(i)
		assert.Equal(t, b.Position.Add(b.Velocity.Scale(0.5)), p)
	}
}

func TestRelations_MatchStateDeltas(t *testing.T) {
	g := physics.DefaultGravity()
	s := initial.FigureEight()
	h := 0.02

	dv := g.Accelerations(s)
	for i := range dv {
		dv[i] = dv[i].Scale(h)
	}
	kicked, err := s.AddVelocities(dv)
	require.NoError(t, err)
	assert.True(t, FullStepVelocity(g)(s, h).Equal(kicked))

	dx := s.Velocities()
	for i := range dx {
		dx[i] = dx[i].Scale(h)
	}
	drifted, err := s.AddPositions(dx)
	require.NoError(t, err)
	assert.True(t, FullStepPosition(s, h).Equal(drifted))
}

func TestCompose_OrderAndDt(t *testing.T) {
	var calls []string
	var dts []float64
	tag := func(name string) Relation {
		return func(s dynamo.State, dt float64) dynamo.State {
			calls = append(calls, name)
			dts = append(dts, dt)
			return s
		}
	}

	step := Compose(tag("a"), tag("b"), tag("c"))
	step(initial.Demo(), 0.25)

	assert.Equal(t, []string{"a", "b", "c"}, calls)
	assert.Equal(t, []float64{0.25, 0.25, 0.25}, dts)
}

func TestCompose_Empty(t *testing.T) {
	s := initial.Demo()
	assert.True(t, Compose()(s, 1).Equal(s))
}

func TestLeapfrog_MatchesManualKDK(t *testing.T) {
	g := physics.DefaultGravity()
	s := initial.Demo()
	dt := 0.01

	manual := HalfStepVelocity(g)(FullStepPosition(HalfStepVelocity(g)(s, dt), dt), dt)
	assert.True(t, Leapfrog(g)(s, dt).Equal(manual))
	assert.True(t, LeapfrogStep(s, dt).Equal(manual))
}

func TestIterate(t *testing.T) {
	g := physics.DefaultGravity()
	s := initial.Lagrangian()
	step := Leapfrog(g)

	assert.True(t, Iterate(step, s, 0.01, 0).Equal(s))
	assert.True(t, Iterate(step, s, 0.01, -3).Equal(s))

	manual := step(step(step(s, 0.01), 0.01), 0.01)
	assert.True(t, Iterate(step, s, 0.01, 3).Equal(manual))
}

func TestIterate_CountsCalls(t *testing.T) {
	n := 0
	counter := func(s dynamo.State, dt float64) dynamo.State {
		n++
		return s
	}
	Iterate(counter, initial.Demo(), 0.1, 17)
	assert.Equal(t, 17, n)
}

func TestRegistry(t *testing.T) {
	assert.Equal(t, []string{"euler", "leapfrog", "rk4", "verlet"}, Names())

	for _, name := range Names() {
		step, err := Get(name, physics.DefaultGravity())
		require.NoError(t, err)

		s := initial.Lagrangian()
		next := step(s, 0.001)
		assert.True(t, next.IsValid(), name)
		assert.True(t, s.SameMasses(next), name)
	}

	_, err := Get("midpoint", physics.DefaultGravity())
	assert.ErrorIs(t, err, ErrUnknownIntegrator)

	assert.True(t, Symplectic("leapfrog"))
	assert.True(t, Symplectic("verlet"))
	assert.False(t, Symplectic("euler"))
	assert.False(t, Symplectic("rk4"))
}

func TestRK4_BinaryAccuracy(t *testing.T) {
	g := physics.Gravity{G: 1, Softening: 0}
	s, err := initial.Binary(initial.DefaultBinaryParams())
	require.NoError(t, err)

	// relative angular speed sqrt(G*M/d³) = sqrt(2); one full period
	period := 2 * 3.141592653589793 / 1.4142135623730951
	steps := 2000
	end := Iterate(RK4(g), s, period/float64(steps), steps)

	for i := 0; i < 2; i++ {
		d := end.Body(i).Position.Sub(s.Body(i).Position).Norm()
		assert.Less(t, d, 1e-6, "body %d returns to start", i)
	}
}
