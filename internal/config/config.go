// Package config handles meshflat configuration loading and management.
package config

import (
	"fmt"
	"time"

	"github.com/Faultbox/meshflat/internal/flatten"
)

// Config holds all meshflat settings.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Flatten FlattenConfig `yaml:"flatten"`
	Export  ExportConfig  `yaml:"export"`
	Watch   WatchConfig   `yaml:"watch"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
	Quiet   bool   `yaml:"quiet"` // No console output
}

// FlattenConfig holds geometry resolution settings.
type FlattenConfig struct {
	Workers   int    `yaml:"workers"` // 0 uses every CPU
	Shading   string `yaml:"shading"` // flat or smooth
	Corners   string `yaml:"corners"` // retained or polygon_vertex
	Instances bool   `yaml:"instances"`
}

// ExportConfig holds dump file settings.
type ExportConfig struct {
	Legacy bool `yaml:"legacy"`
	Weld   bool `yaml:"weld"`
}

// WatchConfig holds watch mode settings.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
		Flatten: FlattenConfig{
			Workers: 0,
			Shading: flatten.ShadingFlat.String(),
			Corners: flatten.CornerRetained.String(),
		},
		Export: ExportConfig{
			Legacy: false,
			Weld:   false,
		},
		Watch: WatchConfig{
			Debounce: 200 * time.Millisecond,
		},
	}
}

// ShadingPolicy returns the parsed shading setting.
func (c *Config) ShadingPolicy() (flatten.ShadingPolicy, error) {
	return flatten.ParseShadingPolicy(c.Flatten.Shading)
}

// CornerIndexing returns the parsed corner indexing setting.
func (c *Config) CornerIndexing() (flatten.CornerIndexing, error) {
	return flatten.ParseCornerIndexing(c.Flatten.Corners)
}

// Validate reports settings no component can run with.
func (c *Config) Validate() error {
	if c.Flatten.Workers < 0 {
		return fmt.Errorf("flatten.workers must not be negative, got %d", c.Flatten.Workers)
	}
	if _, err := c.ShadingPolicy(); err != nil {
		return fmt.Errorf("flatten.shading: %w", err)
	}
	if _, err := c.CornerIndexing(); err != nil {
		return fmt.Errorf("flatten.corners: %w", err)
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative, got %v", c.Watch.Debounce)
	}
	return nil
}
