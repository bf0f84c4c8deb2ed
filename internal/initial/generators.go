package initial

import (
	"math"

	"github.com/san-kum/gravsim/internal/dynamo"
)

// LagrangeParams configures the equilateral Lagrangian configuration.
type LagrangeParams struct {
	Side float64 `mapstructure:"side" yaml:"side"`
	Mass float64 `mapstructure:"mass" yaml:"mass"`
	G    float64 `mapstructure:"g" yaml:"g"`
}

func DefaultLagrangeParams() LagrangeParams {
	return LagrangeParams{Side: 1, Mass: 1, G: 1}
}

// Lagrange places three equal masses on the vertices of an equilateral
// triangle of side p.Side centred on the origin, each moving tangentially
// at the speed for which mutual attraction supplies exactly the centripetal
// force of a rigid rotation: ω² = G·3m/a³, v = ω·a/√3.
func Lagrange(p LagrangeParams) (dynamo.State, error) {
	if err := positive("side", p.Side); err != nil {
		return dynamo.State{}, err
	}
	if err := positive("g", p.G); err != nil {
		return dynamo.State{}, err
	}

	radius := p.Side / math.Sqrt(3)
	omega := math.Sqrt(p.G * 3 * p.Mass / (p.Side * p.Side * p.Side))
	speed := omega * radius

	bodies := make([]dynamo.Body, 3)
	for k := range bodies {
		sin, cos := math.Sincos(2 * math.Pi * float64(k) / 3)
		bodies[k] = dynamo.Body{
			Mass:     p.Mass,
			Position: dynamo.V3(radius*cos, radius*sin, 0),
			Velocity: dynamo.V3(-speed*sin, speed*cos, 0),
		}
	}
	return dynamo.NewState(bodies...)
}

// Lagrangian is Lagrange with unit side, unit masses and G = 1. Its total
// energy is -1.5.
func Lagrangian() dynamo.State {
	s, err := Lagrange(DefaultLagrangeParams())
	if err != nil {
		panic(err)
	}
	return s
}

// FigureEight is the Chenciner-Montgomery choreography for three unit
// masses with G = 1.
func FigureEight() dynamo.State {
	x1 := dynamo.V3(0.97000436, -0.24308753, 0)
	v3 := dynamo.V3(-0.93240737, -0.86473146, 0)
	return dynamo.MustState(
		dynamo.Body{Mass: 1, Position: x1, Velocity: v3.Scale(-0.5)},
		dynamo.Body{Mass: 1, Position: x1.Neg(), Velocity: v3.Scale(-0.5)},
		dynamo.Body{Mass: 1, Position: dynamo.Vec3{}, Velocity: v3},
	)
}

// BinaryParams configures a two-body Kepler orbit. Separation is the
// initial distance, taken as the apoapsis when Eccentricity > 0.
type BinaryParams struct {
	Mass1        float64 `mapstructure:"mass1" yaml:"mass1"`
	Mass2        float64 `mapstructure:"mass2" yaml:"mass2"`
	Separation   float64 `mapstructure:"separation" yaml:"separation"`
	Eccentricity float64 `mapstructure:"eccentricity" yaml:"eccentricity"`
	G            float64 `mapstructure:"g" yaml:"g"`
}

func DefaultBinaryParams() BinaryParams {
	return BinaryParams{Mass1: 1, Mass2: 1, Separation: 1, G: 1}
}

// Binary puts two bodies on Kepler orbits about their common centre of
// mass, which sits at rest on the origin. With zero eccentricity the
// orbits are circular.
func Binary(p BinaryParams) (dynamo.State, error) {
	if err := positive("separation", p.Separation); err != nil {
		return dynamo.State{}, err
	}
	if err := positive("g", p.G); err != nil {
		return dynamo.State{}, err
	}
	if !(p.Eccentricity >= 0 && p.Eccentricity < 1) {
		return dynamo.State{}, &dynamo.ConfigError{Field: "eccentricity", Value: p.Eccentricity, Err: dynamo.ErrParameterBounds}
	}

	total := p.Mass1 + p.Mass2
	rel := math.Sqrt(p.G * total * (1 - p.Eccentricity) / p.Separation)
	return dynamo.NewState(
		dynamo.Body{
			Mass:     p.Mass1,
			Position: dynamo.V3(-p.Separation*p.Mass2/total, 0, 0),
			Velocity: dynamo.V3(0, -rel*p.Mass2/total, 0),
		},
		dynamo.Body{
			Mass:     p.Mass2,
			Position: dynamo.V3(p.Separation*p.Mass1/total, 0, 0),
			Velocity: dynamo.V3(0, rel*p.Mass1/total, 0),
		},
	)
}

// BinaryPeriod is the orbital period of the binary described by p.
func BinaryPeriod(p BinaryParams) float64 {
	a := p.Separation / (1 + p.Eccentricity)
	return 2 * math.Pi * math.Sqrt(a*a*a/(p.G*(p.Mass1+p.Mass2)))
}

// RingParams configures N equal bodies on a circle.
type RingParams struct {
	Bodies int     `mapstructure:"bodies" yaml:"bodies"`
	Radius float64 `mapstructure:"radius" yaml:"radius"`
	Mass   float64 `mapstructure:"mass" yaml:"mass"`
	G      float64 `mapstructure:"g" yaml:"g"`
}

func DefaultRingParams() RingParams {
	return RingParams{Bodies: 4, Radius: 1, Mass: 1, G: 1}
}

// Ring spaces p.Bodies equal masses evenly on a circle and gives each the
// tangential speed for rigid rotation under the ring's own gravity. The
// inward pull on each body is G·m/R² · ¼·Σ 1/sin(πk/N) for k = 1..N-1.
func Ring(p RingParams) (dynamo.State, error) {
	if p.Bodies < 2 {
		return dynamo.State{}, &dynamo.ConfigError{Field: "bodies", Value: p.Bodies, Err: dynamo.ErrTooFewBodies}
	}
	if err := positive("radius", p.Radius); err != nil {
		return dynamo.State{}, err
	}
	if err := positive("g", p.G); err != nil {
		return dynamo.State{}, err
	}

	n := p.Bodies
	sum := 0.0
	for k := 1; k < n; k++ {
		sum += 1 / math.Sin(math.Pi*float64(k)/float64(n))
	}
	pull := p.G * p.Mass / (p.Radius * p.Radius) * sum / 4
	speed := math.Sqrt(pull * p.Radius)

	bodies := make([]dynamo.Body, n)
	for i := range bodies {
		sin, cos := math.Sincos(2 * math.Pi * float64(i) / float64(n))
		bodies[i] = dynamo.Body{
			Mass:     p.Mass,
			Position: dynamo.V3(p.Radius*cos, p.Radius*sin, 0),
			Velocity: dynamo.V3(-speed*sin, speed*cos, 0),
		}
	}
	return dynamo.NewState(bodies...)
}

// Demo is a loosely bound three-body state with no special symmetry.
func Demo() dynamo.State {
	return dynamo.MustState(
		dynamo.Body{Mass: 1, Position: dynamo.V3(0, 0, 0), Velocity: dynamo.V3(0, 0.1, 0)},
		dynamo.Body{Mass: 1, Position: dynamo.V3(1, 0, 0), Velocity: dynamo.V3(0, -0.1, 0)},
		dynamo.Body{Mass: 1, Position: dynamo.V3(0.5, 0.8660254, 0), Velocity: dynamo.V3(0, 0, 0)},
	)
}

func positive(field string, v float64) error {
	if !(v > 0) || math.IsInf(v, 0) {
		return &dynamo.ConfigError{Field: field, Value: v, Err: dynamo.ErrParameterBounds}
	}
	return nil
}
