package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is returned when a loaded config fails validation.
var ErrInvalid = errors.New("invalid config")

// Load loads configuration with priority: defaults < file < flags.
func Load() (*Config, error) {
	cfg := Default()

	configPath := ConfigPath()
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	applyFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail deep inside a command.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Extract.AtlasFormat) {
	case "png", "webp", "bmp":
	default:
		return fmt.Errorf("%w: atlas_format %q (want png, webp or bmp)", ErrInvalid, c.Extract.AtlasFormat)
	}
	if c.Terrain.VerticalScale <= 0 || c.Terrain.PlanarScale <= 0 {
		return fmt.Errorf("%w: terrain scales must be positive", ErrInvalid)
	}
	if c.Extract.PreviewSize < 0 {
		return fmt.Errorf("%w: preview_size %d", ErrInvalid, c.Extract.PreviewSize)
	}
	return nil
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./fury3.yaml",
		filepath.Join(ConfigDir(), "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "Fury3Assets")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "Fury3Assets")
	default: // Linux and others
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "fury3-assets")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "fury3-assets")
	}
}

// loadFromFile loads config from a YAML file, merging with existing values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}
