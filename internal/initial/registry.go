package initial

import (
	"errors"
	"fmt"
	"sort"

	"github.com/mitchellh/mapstructure"
	"github.com/san-kum/gravsim/internal/dynamo"
)

// ErrUnknownCondition is returned for a name with no generator.
var ErrUnknownCondition = errors.New("initial: unknown initial condition")

// Generator builds a ready-to-run state from loosely typed parameters.
// Missing keys keep the generator's defaults; unknown keys are rejected.
type Generator func(params map[string]any) (dynamo.State, error)

type entry struct {
	description string
	generate    Generator
}

var generators = map[string]entry{
	"lagrange": {
		description: "three equal masses on a rigidly rotating equilateral triangle",
		generate: func(params map[string]any) (dynamo.State, error) {
			p := DefaultLagrangeParams()
			if err := decode(params, &p); err != nil {
				return dynamo.State{}, err
			}
			return Lagrange(p)
		},
	},
	"figure8": {
		description: "Chenciner-Montgomery figure-eight choreography",
		generate: func(params map[string]any) (dynamo.State, error) {
			if err := decode(params, &struct{}{}); err != nil {
				return dynamo.State{}, err
			}
			return FigureEight(), nil
		},
	},
	"binary": {
		description: "two bodies on a circular orbit",
		generate: func(params map[string]any) (dynamo.State, error) {
			p := DefaultBinaryParams()
			if err := decode(params, &p); err != nil {
				return dynamo.State{}, err
			}
			return Binary(p)
		},
	},
	"ring": {
		description: "N equal masses rotating on a circle",
		generate: func(params map[string]any) (dynamo.State, error) {
			p := DefaultRingParams()
			if err := decode(params, &p); err != nil {
				return dynamo.State{}, err
			}
			return Ring(p)
		},
	},
	"demo": {
		description: "loosely bound three-body demonstration state",
		generate: func(params map[string]any) (dynamo.State, error) {
			if err := decode(params, &struct{}{}); err != nil {
				return dynamo.State{}, err
			}
			return Demo(), nil
		},
	},
}

// Get builds the named initial condition.
func Get(name string, params map[string]any) (dynamo.State, error) {
	e, ok := generators[name]
	if !ok {
		return dynamo.State{}, fmt.Errorf("%w: %q (available: %v)", ErrUnknownCondition, name, Names())
	}
	s, err := e.generate(params)
	if err != nil {
		return dynamo.State{}, fmt.Errorf("initial condition %s: %w", name, err)
	}
	return s, nil
}

// Describe returns a one-line description of the named condition.
func Describe(name string) (string, bool) {
	e, ok := generators[name]
	return e.description, ok
}

// Names lists registered initial conditions in sorted order.
func Names() []string {
	names := make([]string, 0, len(generators))
	for name := range generators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func decode(params map[string]any, out any) error {
	if len(params) == 0 {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(params); err != nil {
		return &dynamo.ConfigError{Field: "params", Value: params, Err: err}
	}
	return nil
}
