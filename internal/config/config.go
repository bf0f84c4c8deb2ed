package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/initial"
	"github.com/san-kum/gravsim/internal/integrators"
	"github.com/san-kum/gravsim/internal/physics"
	"github.com/san-kum/gravsim/internal/sim"
)

const (
	DefaultInitial     = "lagrange"
	DefaultIntegrator  = "leapfrog"
	DefaultDt          = 0.001
	DefaultSteps       = 5000
	DefaultSampleEvery = 50
	DefaultLogLevel    = "info"
)

type Config struct {
	Initial        string         `yaml:"initial"`
	Params         map[string]any `yaml:"params,omitempty"`
	Integrator     string         `yaml:"integrator"`
	G              float64        `yaml:"g"`
	Softening      float64        `yaml:"softening"`
	FieldSoftening float64        `yaml:"field_softening"`
	Dt             float64        `yaml:"dt"`
	Steps          int            `yaml:"steps"`
	SampleEvery    int            `yaml:"sample_every"`
	LogLevel       string         `yaml:"log_level"`
}

func DefaultConfig() *Config {
	return &Config{
		Initial:        DefaultInitial,
		Integrator:     DefaultIntegrator,
		G:              physics.DefaultG,
		Softening:      physics.DefaultSoftening,
		FieldSoftening: physics.FieldSoftening,
		Dt:             DefaultDt,
		Steps:          DefaultSteps,
		SampleEvery:    DefaultSampleEvery,
		LogLevel:       DefaultLogLevel,
	}
}

// Load reads a YAML file over the defaults, so a file only needs the keys
// it changes.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if _, ok := initial.Describe(c.Initial); !ok {
		return &dynamo.ConfigError{Field: "initial", Value: c.Initial, Err: initial.ErrUnknownCondition}
	}
	if _, err := integrators.Get(c.Integrator, c.Gravity()); err != nil {
		return &dynamo.ConfigError{Field: "integrator", Value: c.Integrator, Err: err}
	}
	if err := c.Gravity().Validate(); err != nil {
		return err
	}
	if err := c.FieldGravity().Validate(); err != nil {
		return &dynamo.ConfigError{Field: "field_softening", Value: c.FieldSoftening, Err: dynamo.ErrParameterBounds}
	}
	if !(c.Dt > 0) || math.IsInf(c.Dt, 0) {
		return &dynamo.ConfigError{Field: "dt", Value: c.Dt, Err: dynamo.ErrParameterBounds}
	}
	if c.Steps < 0 {
		return &dynamo.ConfigError{Field: "steps", Value: c.Steps, Err: dynamo.ErrParameterBounds}
	}
	if c.SampleEvery < 0 {
		return &dynamo.ConfigError{Field: "sample_every", Value: c.SampleEvery, Err: dynamo.ErrParameterBounds}
	}
	return nil
}

// Gravity is the force law used on the integration path.
func (c *Config) Gravity() physics.Gravity {
	return physics.Gravity{G: c.G, Softening: c.Softening}
}

// FieldGravity is the force law used when probing the field at arbitrary
// points.
func (c *Config) FieldGravity() physics.Gravity {
	return physics.Gravity{G: c.G, Softening: c.FieldSoftening}
}

func (c *Config) Step() (integrators.Relation, error) {
	return integrators.Get(c.Integrator, c.Gravity())
}

// InitialState builds the configured initial condition. Generators that
// take a gravitational constant get the run's G unless params set one.
func (c *Config) InitialState() (dynamo.State, error) {
	params := c.Params
	if takesG[c.Initial] {
		if _, ok := params["g"]; !ok {
			params = make(map[string]any, len(c.Params)+1)
			for k, v := range c.Params {
				params[k] = v
			}
			params["g"] = c.G
		}
	}
	return initial.Get(c.Initial, params)
}

var takesG = map[string]bool{"lagrange": true, "binary": true, "ring": true}

func (c *Config) SimConfig() sim.Config {
	return sim.Config{
		Dt:            c.Dt,
		Steps:         c.Steps,
		SampleEvery:   c.SampleEvery,
		ValidateState: true,
	}
}
