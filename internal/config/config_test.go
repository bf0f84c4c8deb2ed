package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/initial"
	"github.com/san-kum/gravsim/internal/physics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "lagrange", cfg.Initial)
	assert.Equal(t, "leapfrog", cfg.Integrator)
	assert.Equal(t, physics.DefaultGravity(), cfg.Gravity())
	assert.Equal(t, physics.FieldSoftening, cfg.FieldGravity().Softening)
	require.NoError(t, cfg.Validate())

	sc := cfg.SimConfig()
	assert.Equal(t, DefaultDt, sc.Dt)
	assert.Equal(t, DefaultSteps, sc.Steps)
	assert.True(t, sc.ValidateState)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		field  string
	}{
		{"unknown initial", func(c *Config) { c.Initial = "pendulum" }, "initial"},
		{"unknown integrator", func(c *Config) { c.Integrator = "rk45" }, "integrator"},
		{"negative g", func(c *Config) { c.G = -1 }, "g"},
		{"negative softening", func(c *Config) { c.Softening = -1e-3 }, "softening"},
		{"negative field softening", func(c *Config) { c.FieldSoftening = -1 }, "field_softening"},
		{"zero dt", func(c *Config) { c.Dt = 0 }, "dt"},
		{"negative steps", func(c *Config) { c.Steps = -5 }, "steps"},
		{"negative sampling", func(c *Config) { c.SampleEvery = -1 }, "sample_every"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)

			var ce *dynamo.ConfigError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}

func TestLoadSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.yaml")

	cfg := DefaultConfig()
	cfg.Initial = "binary"
	cfg.Params = map[string]any{"eccentricity": 0.3}
	cfg.Dt = 0.002
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "binary", loaded.Initial)
	assert.Equal(t, 0.002, loaded.Dt)
	assert.Equal(t, 0.3, loaded.Params["eccentricity"])

	s, err := loaded.InitialState()
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	require.NoError(t, os.WriteFile(path, []byte("initial: ring\nsteps: 100\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ring", cfg.Initial)
	assert.Equal(t, 100, cfg.Steps)
	assert.Equal(t, DefaultIntegrator, cfg.Integrator)
	assert.Equal(t, DefaultDt, cfg.Dt)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("dt: -1\n"), 0644))
	_, err = Load(path)
	assert.ErrorIs(t, err, dynamo.ErrParameterBounds)

	path = filepath.Join(t.TempDir(), "garbled.yaml")
	require.NoError(t, os.WriteFile(path, []byte("steps: [1, 2\n"), 0644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestInitialState_UsesRunG(t *testing.T) {
	cfg := DefaultConfig()
	cfg.G = 4

	s, err := cfg.InitialState()
	require.NoError(t, err)

	want, err := initial.Lagrange(initial.LagrangeParams{Side: 1, Mass: 1, G: 4})
	require.NoError(t, err)
	assert.True(t, s.Equal(want))
	assert.Nil(t, cfg.Params, "caller params untouched")

	cfg.Initial = "figure8"
	_, err = cfg.InitialState()
	assert.NoError(t, err)
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("binary", "eccentric")
	require.NotNil(t, cfg)
	assert.Equal(t, 0.5, cfg.Params["eccentricity"])
	assert.Equal(t, physics.DefaultG, cfg.G)
	require.NoError(t, cfg.Validate())

	cfg.Params["eccentricity"] = 0.9
	assert.Equal(t, 0.5, Presets["binary"]["eccentric"].Params["eccentricity"], "preset is copied")
}

func TestGetPreset_NotFound(t *testing.T) {
	assert.Nil(t, GetPreset("binary", "nonexistent"))
	assert.Nil(t, GetPreset("nonexistent", "circular"))
}

func TestPresets_AllValid(t *testing.T) {
	for condition := range Presets {
		for _, name := range ListPresets(condition) {
			cfg := GetPreset(condition, name)
			require.NoError(t, cfg.Validate(), "%s/%s", condition, name)
			_, err := cfg.InitialState()
			require.NoError(t, err, "%s/%s", condition, name)
		}
	}
}

func TestListPresets(t *testing.T) {
	assert.Equal(t, []string{"euler", "long", "orbit", "wide"}, ListPresets("lagrange"))
	assert.Nil(t, ListPresets("nonexistent"))
}
