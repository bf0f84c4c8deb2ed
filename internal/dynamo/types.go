package dynamo

import (
	"fmt"
	"math"
)

// Body is a point mass. Mass is fixed for the lifetime of a body;
// position and velocity change only by building a new Body.
type Body struct {
	Mass     float64
	Position Vec3
	Velocity Vec3
}

// NewBody validates mass and components and returns the body.
func NewBody(mass float64, pos, vel Vec3) (Body, error) {
	if !(mass > 0) || math.IsInf(mass, 0) {
		return Body{}, configErr("mass", mass, ErrNonPositiveMass)
	}
	if !pos.IsFinite() {
		return Body{}, configErr("position", pos, ErrNonFinite)
	}
	if !vel.IsFinite() {
		return Body{}, configErr("velocity", vel, ErrNonFinite)
	}
	return Body{Mass: mass, Position: pos, Velocity: vel}, nil
}

// State is an ordered, fixed-length sequence of bodies. Index i denotes
// the same physical body across every state derived from this one.
// The backing slice is never exposed, so a State cannot be mutated
// after construction.
type State struct {
	bodies []Body
}

// NewState copies bodies into a new State. At least two bodies are
// required and every body must pass NewBody's checks.
func NewState(bodies ...Body) (State, error) {
	if len(bodies) < 2 {
		return State{}, configErr("bodies", len(bodies), ErrTooFewBodies)
	}
	out := make([]Body, len(bodies))
	for i, b := range bodies {
		nb, err := NewBody(b.Mass, b.Position, b.Velocity)
		if err != nil {
			return State{}, fmt.Errorf("body %d: %w", i, err)
		}
		out[i] = nb
	}
	return State{bodies: out}, nil
}

// MustState is NewState for inputs known to be valid. It panics otherwise.
func MustState(bodies ...Body) State {
	s, err := NewState(bodies...)
	if err != nil {
		panic(err)
	}
	return s
}

func (s State) Len() int { return len(s.bodies) }

// Body returns a copy of body i.
func (s State) Body(i int) Body { return s.bodies[i] }

// Bodies returns a copy of the bodies in order.
func (s State) Bodies() []Body {
	out := make([]Body, len(s.bodies))
	copy(out, s.bodies)
	return out
}

func (s State) Masses() []float64 {
	out := make([]float64, len(s.bodies))
	for i, b := range s.bodies {
		out[i] = b.Mass
	}
	return out
}

func (s State) Positions() []Vec3 {
	out := make([]Vec3, len(s.bodies))
	for i, b := range s.bodies {
		out[i] = b.Position
	}
	return out
}

func (s State) Velocities() []Vec3 {
	out := make([]Vec3, len(s.bodies))
	for i, b := range s.bodies {
		out[i] = b.Velocity
	}
	return out
}

// WithVelocities returns a new state whose body i has velocity fn(i, b).
// Masses, positions and order are carried over unchanged.
func (s State) WithVelocities(fn func(i int, b Body) Vec3) State {
	out := make([]Body, len(s.bodies))
	for i, b := range s.bodies {
		out[i] = Body{Mass: b.Mass, Position: b.Position, Velocity: fn(i, b)}
	}
	return State{bodies: out}
}

// WithPositions returns a new state whose body i has position fn(i, b).
// Masses, velocities and order are carried over unchanged.
func (s State) WithPositions(fn func(i int, b Body) Vec3) State {
	out := make([]Body, len(s.bodies))
	for i, b := range s.bodies {
		out[i] = Body{Mass: b.Mass, Position: fn(i, b), Velocity: b.Velocity}
	}
	return State{bodies: out}
}

// AddVelocities adds dv[i] to the velocity of body i.
func (s State) AddVelocities(dv []Vec3) (State, error) {
	if len(dv) != len(s.bodies) {
		return State{}, configErr("velocity deltas", len(dv), ErrDimensionMismatch)
	}
	return s.WithVelocities(func(i int, b Body) Vec3 { return b.Velocity.Add(dv[i]) }), nil
}

// AddPositions adds dx[i] to the position of body i.
func (s State) AddPositions(dx []Vec3) (State, error) {
	if len(dx) != len(s.bodies) {
		return State{}, configErr("position deltas", len(dx), ErrDimensionMismatch)
	}
	return s.WithPositions(func(i int, b Body) Vec3 { return b.Position.Add(dx[i]) }), nil
}

// IsValid reports whether every position and velocity is finite.
func (s State) IsValid() bool {
	for _, b := range s.bodies {
		if !b.Position.IsFinite() || !b.Velocity.IsFinite() {
			return false
		}
	}
	return true
}

// Equal reports component-wise equality, including masses and order.
func (s State) Equal(o State) bool {
	if len(s.bodies) != len(o.bodies) {
		return false
	}
	for i := range s.bodies {
		if s.bodies[i] != o.bodies[i] {
			return false
		}
	}
	return true
}

// SameMasses reports whether o carries the same masses in the same order.
func (s State) SameMasses(o State) bool {
	if len(s.bodies) != len(o.bodies) {
		return false
	}
	for i := range s.bodies {
		if s.bodies[i].Mass != o.bodies[i].Mass {
			return false
		}
	}
	return true
}

// Flatten lays the state out as [x y z vx vy vz] per body.
func (s State) Flatten() []float64 {
	out := make([]float64, 0, len(s.bodies)*6)
	for _, b := range s.bodies {
		out = append(out, b.Position[:]...)
		out = append(out, b.Velocity[:]...)
	}
	return out
}

// Unflatten is the inverse of Flatten for the given masses.
func Unflatten(masses []float64, flat []float64) (State, error) {
	if len(flat) != len(masses)*6 {
		return State{}, configErr("flat state", len(flat), ErrDimensionMismatch)
	}
	bodies := make([]Body, len(masses))
	for i, m := range masses {
		o := i * 6
		bodies[i] = Body{
			Mass:     m,
			Position: Vec3{flat[o], flat[o+1], flat[o+2]},
			Velocity: Vec3{flat[o+3], flat[o+4], flat[o+5]},
		}
	}
	return NewState(bodies...)
}
