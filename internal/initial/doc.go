// Package initial builds named starting states with analytically known
// properties. [Lagrangian] is the reference fixture: unit masses on a unit
// equilateral triangle, rotating rigidly, total energy -1.5 with G = 1.
//
// Generators are looked up by name through [Get], with parameters given as
// a loosely typed map (from YAML or the command line):
//
//	s, err := initial.Get("ring", map[string]any{"bodies": 6, "radius": "2"})
package initial
