package config

import "sort"

// Presets are named run setups, grouped by initial condition.
var Presets = map[string]map[string]*Config{
	"lagrange": {
		"orbit": {
			Initial: "lagrange", Integrator: "leapfrog", Dt: 0.001, Steps: 5000,
		},
		"long": {
			Initial: "lagrange", Integrator: "leapfrog", Dt: 0.001, Steps: 50000, SampleEvery: 500,
		},
		"wide": {
			Initial: "lagrange", Integrator: "leapfrog", Dt: 0.01, Steps: 20000,
			Params: map[string]any{"side": 3.0},
		},
		"euler": {
			Initial: "lagrange", Integrator: "euler", Dt: 0.001, Steps: 5000,
		},
	},
	"figure8": {
		"choreography": {
			Initial: "figure8", Integrator: "leapfrog", Dt: 0.001, Steps: 6326,
		},
		"rk4": {
			Initial: "figure8", Integrator: "rk4", Dt: 0.001, Steps: 6326,
		},
	},
	"binary": {
		"circular": {
			Initial: "binary", Integrator: "leapfrog", Dt: 0.001, Steps: 10000,
		},
		"eccentric": {
			Initial: "binary", Integrator: "leapfrog", Dt: 0.0005, Steps: 20000,
			Params: map[string]any{"eccentricity": 0.5},
		},
		"unequal": {
			Initial: "binary", Integrator: "verlet", Dt: 0.001, Steps: 10000,
			Params: map[string]any{"mass1": 10.0, "mass2": 1.0, "separation": 2.0},
		},
	},
	"ring": {
		"square": {
			Initial: "ring", Integrator: "leapfrog", Dt: 0.001, Steps: 5000,
		},
		"crowd": {
			Initial: "ring", Integrator: "leapfrog", Dt: 0.0005, Steps: 4000,
			Params: map[string]any{"bodies": 12, "radius": 2.0},
		},
	},
	"demo": {
		"default": {
			Initial: "demo", Integrator: "leapfrog", Dt: 0.001, Steps: 10000,
		},
	},
}

// GetPreset returns a complete config for the preset: fields the preset
// leaves unset keep their defaults. It returns nil when either name is
// unknown.
func GetPreset(condition, preset string) *Config {
	conditionPresets, ok := Presets[condition]
	if !ok {
		return nil
	}
	p, ok := conditionPresets[preset]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	cfg.Initial = p.Initial
	cfg.Integrator = p.Integrator
	cfg.Dt = p.Dt
	cfg.Steps = p.Steps
	if p.SampleEvery > 0 {
		cfg.SampleEvery = p.SampleEvery
	}
	if len(p.Params) > 0 {
		cfg.Params = make(map[string]any, len(p.Params))
		for k, v := range p.Params {
			cfg.Params[k] = v
		}
	}
	return cfg
}

func ListPresets(condition string) []string {
	conditionPresets, ok := Presets[condition]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(conditionPresets))
	for name := range conditionPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
