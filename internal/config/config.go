// Package config provides configuration management for the mirror
// filesystem daemon.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete daemon configuration. The target
// directory and mount point come from the command line, not from here.
type Config struct {
	Mount   MountConfig   `yaml:"mount"`
	Logging LoggingConfig `yaml:"logging"`
}

// MountConfig holds mount option configuration.
type MountConfig struct {
	FsName        string `yaml:"fsname"`
	AllowOther    bool   `yaml:"allow_other"`
	Debug         bool   `yaml:"debug"`
	MaxBackground int    `yaml:"max_background"`
	AttrTimeout   string `yaml:"attr_timeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Mount: MountConfig{
			FsName:        "mirrorfs",
			AllowOther:    true,
			Debug:         false,
			MaxBackground: 12,
			AttrTimeout:   "1s",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// LoadOrDefault loads configuration from a file, or returns default if
// the file doesn't exist.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	return Load(path)
}

// GetAttrTimeout returns the attribute timeout as a time.Duration.
func (c *MountConfig) GetAttrTimeout() time.Duration {
	d, err := time.ParseDuration(c.AttrTimeout)
	if err != nil {
		return time.Second
	}
	return d
}
