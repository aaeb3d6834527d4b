// Package config provides configuration management.
package config

import (
	"encoding/json"
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/viper"

	"force-cost/core/catalog"
	"force-cost/core/engine"
	"force-cost/core/fit"
	"force-cost/core/selection"
	"force-cost/core/units"
	"force-cost/internal/errors"
	"force-cost/internal/logging"
)

const (
	// EnvPrefix prefixes environment overrides, e.g. FORCE_COST_PARALLELISM
	EnvPrefix = "FORCE_COST"

	// FileName is the config file searched for when no path is given
	FileName = ".force-cost"
)

// Output formats
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Config is the main application configuration
type Config struct {
	// Version is the configuration version
	Version string `json:"version" yaml:"version" mapstructure:"version"`

	// Schema describes the extractor field layout
	Schema catalog.Schema `json:"schema" yaml:"schema" mapstructure:"schema"`

	// Units lists the recognized power units
	Units []units.Unit `json:"units" yaml:"units" mapstructure:"units"`

	// Fitting contains curve fitting settings
	Fitting FittingConfig `json:"fitting" yaml:"fitting" mapstructure:"fitting"`

	// Output contains output settings
	Output OutputConfig `json:"output" yaml:"output" mapstructure:"output"`

	// Parallelism bounds how many sets are processed at once
	Parallelism int `json:"parallelism" yaml:"parallelism" mapstructure:"parallelism"`

	// Logging contains logging configuration
	Logging logging.Config `json:"logging" yaml:"logging" mapstructure:"logging"`
}

// FittingConfig contains curve fitting settings
type FittingConfig struct {
	// MinSamples is the member count below which a set is flagged
	MinSamples int `json:"min_samples" yaml:"min_samples" mapstructure:"min_samples"`

	// MaxIterations bounds the solver
	MaxIterations int `json:"max_iterations" yaml:"max_iterations" mapstructure:"max_iterations"`

	// Tolerance is the solver's relative convergence threshold
	Tolerance float64 `json:"tolerance" yaml:"tolerance" mapstructure:"tolerance"`
}

// OutputConfig contains output-related settings
type OutputConfig struct {
	// Directory receives components/ and sets/
	Directory string `json:"directory" yaml:"directory" mapstructure:"directory"`

	// Format is the record format (json, yaml)
	Format string `json:"format" yaml:"format" mapstructure:"format"`

	// Plot enables diagnostic plots
	Plot bool `json:"plot" yaml:"plot" mapstructure:"plot"`

	// PlotFormat is the image format (png, svg, pdf)
	PlotFormat string `json:"plot_format" yaml:"plot_format" mapstructure:"plot_format"`

	// PlotWidth and PlotHeight are in inches
	PlotWidth  float64 `json:"plot_width" yaml:"plot_width" mapstructure:"plot_width"`
	PlotHeight float64 `json:"plot_height" yaml:"plot_height" mapstructure:"plot_height"`
}

// Default returns a default configuration
func Default() *Config {
	return &Config{
		Version: "1.0",
		Schema:  catalog.DefaultSchema(),
		Units:   units.DefaultTable().Units(),
		Fitting: FittingConfig{
			MinSamples:    selection.DefaultMinSamples,
			MaxIterations: fit.DefaultMaxIterations,
			Tolerance:     fit.DefaultTolerance,
		},
		Output: OutputConfig{
			Directory:  "output",
			Format:     FormatJSON,
			Plot:       true,
			PlotFormat: "png",
			PlotWidth:  6.4,
			PlotHeight: 6.4,
		},
		Parallelism: engine.DefaultParallelism,
		Logging:     logging.DefaultConfig(),
	}
}

// Load reads configuration from path, or from .force-cost.{yaml,json,toml}
// in the working or home directory when path is empty. Missing files yield
// the defaults. FORCE_COST_* environment variables override file values.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := Default()
	setDefaults(v, cfg)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(FileName)
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		notFound := &viper.ConfigFileNotFoundError{}
		if !stderrors.As(err, notFound) && !stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrapf(errors.TypeConfig, err, "reading config %s", path)
		}
	}

	// mapstructure merges into existing slices element by element
	if v.IsSet("units") {
		cfg.Units = nil
	}
	if v.IsSet("schema.sources") {
		cfg.Schema.Sources = nil
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(errors.TypeConfig, "decoding config", err)
	}
	return cfg, nil
}

// setDefaults registers scalar keys so environment overrides apply to them
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("version", cfg.Version)
	v.SetDefault("parallelism", cfg.Parallelism)
	v.SetDefault("fitting.min_samples", cfg.Fitting.MinSamples)
	v.SetDefault("fitting.max_iterations", cfg.Fitting.MaxIterations)
	v.SetDefault("fitting.tolerance", cfg.Fitting.Tolerance)
	v.SetDefault("output.directory", cfg.Output.Directory)
	v.SetDefault("output.format", cfg.Output.Format)
	v.SetDefault("output.plot", cfg.Output.Plot)
	v.SetDefault("output.plot_format", cfg.Output.PlotFormat)
	v.SetDefault("output.plot_width", cfg.Output.PlotWidth)
	v.SetDefault("output.plot_height", cfg.Output.PlotHeight)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.output", cfg.Logging.Output)
	v.SetDefault("logging.development", cfg.Logging.Development)
}

// Save saves configuration to a file; .yaml and .yml paths are written as
// YAML, everything else as JSON.
func (c *Config) Save(path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks the configuration for values the pipeline cannot use
func (c *Config) Validate() error {
	if err := c.Schema.Validate(); err != nil {
		return err
	}
	if _, err := c.UnitTable(); err != nil {
		return err
	}
	if c.Fitting.MinSamples < 0 {
		return errors.Config("fitting.min_samples must not be negative")
	}
	if c.Fitting.MaxIterations <= 0 {
		return errors.Config("fitting.max_iterations must be positive")
	}
	if c.Fitting.Tolerance <= 0 {
		return errors.Config("fitting.tolerance must be positive")
	}
	switch c.Output.Format {
	case FormatJSON, FormatYAML:
	default:
		return errors.Newf(errors.TypeConfig, "unsupported output format %q", c.Output.Format)
	}
	switch c.Output.PlotFormat {
	case "png", "svg", "pdf":
	default:
		return errors.Newf(errors.TypeConfig, "unsupported plot format %q", c.Output.PlotFormat)
	}
	if c.Output.PlotWidth <= 0 || c.Output.PlotHeight <= 0 {
		return errors.Config("plot dimensions must be positive")
	}
	if c.Parallelism <= 0 {
		return errors.Config("parallelism must be positive")
	}
	return nil
}

// UnitTable builds the unit table
func (c *Config) UnitTable() (*units.Table, error) {
	return units.NewTable(c.Units)
}

// EngineConfig returns the pipeline settings
func (c *Config) EngineConfig() engine.EngineConfig {
	return engine.EngineConfig{
		Parallelism: c.Parallelism,
		MinSamples:  c.Fitting.MinSamples,
		Fit: fit.Options{
			MaxIterations: c.Fitting.MaxIterations,
			Tolerance:     c.Fitting.Tolerance,
		},
	}
}

// Global configuration instance
var globalConfig = Default()

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// Set sets the global configuration
func Set(config *Config) {
	globalConfig = config
}
