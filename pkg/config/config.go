// Package config provides configuration loading and management for mrpyramid.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"mrpyramid/pkg/cast"
	"mrpyramid/pkg/fft"
	"mrpyramid/pkg/gaussian"
	"mrpyramid/pkg/ndimage"
	"mrpyramid/pkg/pyramid"
	"mrpyramid/pkg/shrink"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Pyramid parameters
	Pyramid struct {
		// Levels is the number of pyramid levels
		Levels int `yaml:"levels"`

		// Schedule overrides Levels and StartingFactors with explicit shrink
		// factors per level, coarsest first
		Schedule pyramid.Schedule `yaml:"schedule,omitempty"`

		// StartingFactors are the level 0 factors of a halving schedule
		StartingFactors []int `yaml:"startingFactors,omitempty"`

		// MaximumError bounds the discarded Gaussian tail
		MaximumError float64 `yaml:"maximumError"`

		// MaximumKernelWidth caps the one-sided kernel length
		MaximumKernelWidth int `yaml:"maximumKernelWidth"`

		// KernelRadiusThreshold is the per-axis radius that votes for FFT
		// smoothing; one value applies to every axis
		KernelRadiusThreshold []int `yaml:"kernelRadiusThreshold"`

		// KernelThresholdDimension is how many axes must vote for FFT smoothing
		KernelThresholdDimension int `yaml:"kernelThresholdDimension"`

		// Shrink is "resample" or "factor"
		Shrink shrink.Policy `yaml:"shrink"`

		// DefaultPixelValue fills resampled points outside the input
		DefaultPixelValue float64 `yaml:"defaultPixelValue"`

		// OutputType is the pixel type of every level
		OutputType ndimage.PixelType `yaml:"outputType"`

		// CastPolicy is "truncate" or "strict"
		CastPolicy cast.Policy `yaml:"castPolicy"`
	} `yaml:"pyramid"`

	// Processing parameters
	Processing struct {
		// Workers is how many levels are built at once
		Workers int `yaml:"workers"`

		// Device is the id of the FFT device handle
		Device uint64 `yaml:"device"`
	} `yaml:"processing"`

	// Output parameters
	Output struct {
		// Dir is where level images are written
		Dir string `yaml:"dir"`

		// Prefix starts every level file name
		Prefix string `yaml:"prefix"`

		// Verify re-smooths every level with the other method and reports
		// the difference
		Verify bool `yaml:"verify"`

		// Verbose enables debug logging
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Pyramid.Levels = 4
	cfg.Pyramid.MaximumError = gaussian.DefaultMaximumError
	cfg.Pyramid.MaximumKernelWidth = gaussian.DefaultMaximumKernelWidth
	cfg.Pyramid.KernelRadiusThreshold = []int{pyramid.DefaultKernelRadiusThreshold}
	cfg.Pyramid.KernelThresholdDimension = 1
	cfg.Pyramid.Shrink = shrink.Resample
	cfg.Pyramid.OutputType = ndimage.Float32
	cfg.Pyramid.CastPolicy = cast.Truncate

	cfg.Processing.Workers = runtime.NumCPU() // Use all available cores by default

	cfg.Output.Dir = "pyramid"
	cfg.Output.Prefix = "level"
	cfg.Output.Verify = false
	cfg.Output.Verbose = false

	return cfg
}

// Options converts the pyramid and processing sections into filter options.
func (c *Config) Options() []pyramid.Option {
	p := c.Pyramid
	opts := []pyramid.Option{
		pyramid.WithLevels(p.Levels),
		pyramid.WithMaximumError(p.MaximumError),
		pyramid.WithMaximumKernelWidth(p.MaximumKernelWidth),
		pyramid.WithKernelRadiusThreshold(p.KernelRadiusThreshold...),
		pyramid.WithKernelThresholdDimension(p.KernelThresholdDimension),
		pyramid.WithShrink(p.Shrink),
		pyramid.WithDefaultPixelValue(p.DefaultPixelValue),
		pyramid.WithOutputType(p.OutputType),
		pyramid.WithCastPolicy(p.CastPolicy),
		pyramid.WithWorkers(c.Processing.Workers),
		pyramid.WithDevice(fft.NewDevice(c.Processing.Device)),
	}
	if len(p.StartingFactors) > 0 {
		opts = append(opts, pyramid.WithStartingFactors(p.StartingFactors...))
	}
	if len(p.Schedule) > 0 {
		opts = append(opts, pyramid.WithSchedule(p.Schedule))
	}
	return opts
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	return SaveConfig(DefaultConfig(), configPath)
}
