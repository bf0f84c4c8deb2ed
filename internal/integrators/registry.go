package integrators

import (
	"errors"
	"fmt"
	"sort"

	"github.com/san-kum/gravsim/internal/physics"
)

// ErrUnknownIntegrator is returned by Get for a name with no stepper.
var ErrUnknownIntegrator = errors.New("integrators: unknown integrator")

var registry = map[string]func(physics.Gravity) Relation{
	"leapfrog": Leapfrog,
	"verlet":   PositionVerlet,
	"euler":    Euler,
	"rk4":      RK4,
}

// Symplectic reports whether the named stepper preserves phase-space
// structure, i.e. whether its energy error should stay bounded.
func Symplectic(name string) bool {
	return name == "leapfrog" || name == "verlet"
}

// Get returns the named stepper bound to g.
func Get(name string, g physics.Gravity) (Relation, error) {
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownIntegrator, name, Names())
	}
	return fn(g), nil
}

// Names lists registered steppers in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
