package integrators_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/initial"
	"github.com/san-kum/gravsim/internal/integrators"
	"github.com/san-kum/gravsim/internal/physics"
)

// peakEnergyError is the largest relative energy error seen over a run.
func peakEnergyError(step integrators.Relation, g physics.Gravity, s dynamo.State, dt float64, steps int) float64 {
	e0 := g.TotalEnergy(s)
	peak := 0.0
	for i := 0; i < steps; i++ {
		s = step(s, dt)
		peak = math.Max(peak, physics.RelativeEnergyError(e0, g.TotalEnergy(s)))
	}
	return peak
}

var _ = Describe("Leapfrog", func() {
	var (
		g    physics.Gravity
		step integrators.Relation
	)

	BeforeEach(func() {
		g = physics.DefaultGravity()
		step = integrators.Leapfrog(g)
	})

	Describe("on the Lagrangian configuration", func() {
		var s0 dynamo.State

		BeforeEach(func() {
			s0 = initial.Lagrangian()
		})

		It("starts at total energy -1.5", func() {
			Expect(physics.TotalEnergy(s0)).To(BeNumerically("~", -1.5, 1e-10))
		})

		It("conserves energy to better than 1e-4 over 5000 steps of 0.001", func() {
			e0 := physics.TotalEnergy(s0)
			final := integrators.Iterate(step, s0, 0.001, 5000)
			rel := physics.RelativeEnergyError(e0, physics.TotalEnergy(final))

			Expect(final.IsValid()).To(BeTrue())
			Expect(rel).To(BeNumerically("<", 1e-4))
		})

		It("keeps the triangle equilateral while it rotates", func() {
			final := integrators.Iterate(step, s0, 0.001, 2000)
			d01 := final.Body(1).Position.Sub(final.Body(0).Position).Norm()
			d12 := final.Body(2).Position.Sub(final.Body(1).Position).Norm()
			d20 := final.Body(0).Position.Sub(final.Body(2).Position).Norm()

			Expect(d01).To(BeNumerically("~", 1, 1e-5))
			Expect(d12).To(BeNumerically("~", d01, 1e-9))
			Expect(d20).To(BeNumerically("~", d01, 1e-9))
		})

		It("conserves momentum", func() {
			final := integrators.Iterate(step, s0, 0.001, 1000)
			Expect(physics.Momentum(final).Norm()).To(BeNumerically("<", 1e-10))
		})

		It("drifts far less than explicit Euler", func() {
			e0 := physics.TotalEnergy(s0)
			lf := integrators.Iterate(step, s0, 0.001, 5000)
			eu := integrators.Iterate(integrators.Euler(g), s0, 0.001, 5000)

			lfErr := physics.RelativeEnergyError(e0, physics.TotalEnergy(lf))
			euErr := physics.RelativeEnergyError(e0, physics.TotalEnergy(eu))
			Expect(euErr).To(BeNumerically(">", 100*lfErr))
		})
	})

	DescribeTable("preserves masses and order",
		func(name string, dt float64) {
			s0, err := initial.Get(name, nil)
			Expect(err).NotTo(HaveOccurred())

			next := integrators.Iterate(step, s0, dt, 25)
			Expect(next.Len()).To(Equal(s0.Len()))
			Expect(next.Masses()).To(Equal(s0.Masses()))
		},
		Entry("lagrange", "lagrange", 0.01),
		Entry("figure8", "figure8", 0.01),
		Entry("binary", "binary", 0.05),
		Entry("ring", "ring", 0.01),
		Entry("demo", "demo", 0.001),
	)

	It("is deterministic to the bit", func() {
		s0 := initial.FigureEight()
		a := integrators.Iterate(step, s0, 0.01, 500)
		b := integrators.Iterate(step, s0, 0.01, 500)
		Expect(a.Equal(b)).To(BeTrue())
		Expect(a.Flatten()).To(Equal(b.Flatten()))
	})

	It("is time reversible", func() {
		s0 := initial.FigureEight()
		forward := integrators.Iterate(step, s0, 0.001, 1000)
		back := integrators.Reverse(integrators.Iterate(step, integrators.Reverse(forward), 0.001, 1000))

		want := s0.Flatten()
		for i, v := range back.Flatten() {
			Expect(v).To(BeNumerically("~", want[i], 1e-9))
		}
	})

	It("shows second-order energy error when dt is halved", func() {
		p := initial.BinaryParams{Mass1: 1, Mass2: 1, Separation: 1, Eccentricity: 0.5, G: 1}
		s0, err := initial.Binary(p)
		Expect(err).NotTo(HaveOccurred())

		period := initial.BinaryPeriod(p)
		coarse := peakEnergyError(step, g, s0, period/2000, 2000)
		fine := peakEnergyError(step, g, s0, period/4000, 4000)

		Expect(coarse / fine).To(BeNumerically("~", 4, 1))
	})
})

var _ = Describe("PositionVerlet", func() {
	It("conserves energy on the Lagrangian configuration", func() {
		g := physics.DefaultGravity()
		s0 := initial.Lagrangian()
		final := integrators.Iterate(integrators.PositionVerlet(g), s0, 0.001, 5000)

		rel := physics.RelativeEnergyError(physics.TotalEnergy(s0), physics.TotalEnergy(final))
		Expect(rel).To(BeNumerically("<", 1e-4))
	})
})
