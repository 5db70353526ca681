// Copyright 2026 The BuildSignal Authors
// SPDX-License-Identifier: MIT

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// GlobalConfigDir returns the directory for global buildsignal configuration.
// It uses $XDG_CONFIG_HOME/buildsignal if set, otherwise ~/.config/buildsignal.
func GlobalConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "buildsignal")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "buildsignal")
}

// GlobalConfigPath returns the path to the global YAML config file.
func GlobalConfigPath() string {
	return filepath.Join(GlobalConfigDir(), "config.yaml")
}

// GlobalTOMLPath returns the path to the alternative TOML config file.
func GlobalTOMLPath() string {
	return filepath.Join(GlobalConfigDir(), "config.toml")
}

// LoadGlobal loads config.yaml from the global config directory, or
// config.toml when no YAML file exists. With neither present it returns a
// zero-value Config and nil error.
func LoadGlobal() (*Config, error) {
	cfg, err := LoadFile(GlobalConfigPath())
	if err == nil || !errors.Is(err, fs.ErrNotExist) {
		return cfg, err
	}
	cfg, err = LoadFile(GlobalTOMLPath())
	if errors.Is(err, fs.ErrNotExist) {
		return &Config{}, nil
	}
	return cfg, err
}

// LoadFile reads a config file, decoding TOML for a .toml extension and
// YAML otherwise. A missing file is returned as an fs.ErrNotExist error.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user config path
	if err != nil {
		return nil, err
	}

	var cfg Config
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		return &cfg, nil
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}
