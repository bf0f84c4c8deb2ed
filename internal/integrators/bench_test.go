package integrators

import (
	"testing"

	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/initial"
	"github.com/san-kum/gravsim/internal/physics"
)

func benchStep(b *testing.B, step Relation, s dynamo.State, dt float64) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s = step(s, dt)
	}
}

func BenchmarkEuler(b *testing.B) {
	benchStep(b, Euler(physics.DefaultGravity()), initial.Lagrangian(), 0.001)
}

func BenchmarkRK4(b *testing.B) {
	benchStep(b, RK4(physics.DefaultGravity()), initial.Lagrangian(), 0.001)
}

func BenchmarkVerlet(b *testing.B) {
	benchStep(b, PositionVerlet(physics.DefaultGravity()), initial.Lagrangian(), 0.001)
}

func BenchmarkLeapfrog(b *testing.B) {
	benchStep(b, Leapfrog(physics.DefaultGravity()), initial.Lagrangian(), 0.001)
}

func BenchmarkLeapfrog_Ring64(b *testing.B) {
	s, err := initial.Ring(initial.RingParams{Bodies: 64, Radius: 1, Mass: 1, G: 1})
	if err != nil {
		b.Fatal(err)
	}
	benchStep(b, Leapfrog(physics.DefaultGravity()), s, 0.001)
}
