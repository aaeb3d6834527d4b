package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"force-cost/core/units"
	"force-cost/internal/errors"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	table, err := cfg.UnitTable()
	require.NoError(t, err)
	assert.Equal(t, []string{"kW", "MW"}, table.Names())

	ec := cfg.EngineConfig()
	assert.Equal(t, cfg.Parallelism, ec.Parallelism)
	assert.Equal(t, cfg.Fitting.MinSamples, ec.MinSamples)
	assert.Equal(t, cfg.Fitting.MaxIterations, ec.Fit.MaxIterations)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadYAMLOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "force-cost.yaml")
	content := `
parallelism: 2
units:
  - name: kW
    factor: 1
  - name: GW
    factor: 1000000
fitting:
  min_samples: 5
output:
  format: yaml
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 2, cfg.Parallelism)
	assert.Equal(t, 5, cfg.Fitting.MinSamples)
	assert.Equal(t, FormatYAML, cfg.Output.Format)
	assert.Equal(t, []units.Unit{{Name: "kW", Factor: 1}, {Name: "GW", Factor: 1e6}}, cfg.Units)

	// untouched sections keep their defaults
	assert.Equal(t, Default().Schema, cfg.Schema)
	assert.Equal(t, Default().Fitting.MaxIterations, cfg.Fitting.MaxIterations)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("FORCE_COST_PARALLELISM", "7")
	t.Setenv("FORCE_COST_OUTPUT_FORMAT", "yaml")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Parallelism)
	assert.Equal(t, FormatYAML, cfg.Output.Format)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	for _, name := range []string{"config.json", "config.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			cfg := Default()
			cfg.Parallelism = 3
			cfg.Output.Directory = "reports"
			require.NoError(t, cfg.Save(path))

			loaded, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, cfg, loaded)
		})
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"empty units", func(c *Config) { c.Units = nil }},
		{"bad factor", func(c *Config) { c.Units = []units.Unit{{Name: "kW", Factor: 0}} }},
		{"zero iterations", func(c *Config) { c.Fitting.MaxIterations = 0 }},
		{"zero tolerance", func(c *Config) { c.Fitting.Tolerance = 0 }},
		{"output format", func(c *Config) { c.Output.Format = "xml" }},
		{"plot format", func(c *Config) { c.Output.PlotFormat = "gif" }},
		{"plot size", func(c *Config) { c.Output.PlotWidth = 0 }},
		{"parallelism", func(c *Config) { c.Parallelism = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.TypeConfig))
		})
	}
}

func TestGlobal(t *testing.T) {
	prev := Get()
	t.Cleanup(func() { Set(prev) })

	cfg := Default()
	cfg.Version = "test"
	Set(cfg)
	assert.Equal(t, "test", Get().Version)
}
