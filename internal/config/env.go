package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables that override config file values.
const (
	EnvDerivedData  = "BUILDSIGNAL_DERIVED_DATA"
	EnvParser       = "BUILDSIGNAL_PARSER"
	EnvConcurrency  = "BUILDSIGNAL_CONCURRENCY"
	EnvIncludeNotes = "BUILDSIGNAL_INCLUDE_NOTES"
)

// LoadDotEnv loads variables from the given .env files into the process
// environment without overwriting variables that are already set. Missing
// files are ignored.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// FromEnv returns the config values set through BUILDSIGNAL_* variables.
func FromEnv() (*Config, error) {
	cfg := &Config{
		DerivedData: os.Getenv(EnvDerivedData),
		Parser:      os.Getenv(EnvParser),
	}
	if v := os.Getenv(EnvConcurrency); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvConcurrency, err)
		}
		cfg.Concurrency = n
	}
	if v := os.Getenv(EnvIncludeNotes); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvIncludeNotes, err)
		}
		cfg.IncludeNotes = &b
	}
	return cfg, nil
}
