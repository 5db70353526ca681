// Package config handles buildsignal configuration: a global config file,
// an optional per-project .buildsignal.yaml, and BUILDSIGNAL_* environment
// overrides.
package config

import "github.com/davetashner/buildsignal/internal/category"

// Config represents the contents of a buildsignal config file.
type Config struct {
	DerivedData      string              `yaml:"derived_data,omitempty" toml:"derived_data,omitempty"`
	Parser           string              `yaml:"parser,omitempty" toml:"parser,omitempty"`
	Concurrency      int                 `yaml:"concurrency,omitempty" toml:"concurrency,omitempty"`
	IncludeNotes     *bool               `yaml:"include_notes,omitempty" toml:"include_notes,omitempty"`
	DefaultScope     string              `yaml:"default_scope,omitempty" toml:"default_scope,omitempty"`
	OutputFormat     string              `yaml:"output_format,omitempty" toml:"output_format,omitempty"`
	ExcludePatterns  []string            `yaml:"exclude_patterns,omitempty" toml:"exclude_patterns,omitempty"`
	CustomCategories []category.Category `yaml:"custom_categories,omitempty" toml:"custom_categories,omitempty"`
}

// FileName is the per-project config file name, looked up in the project
// root.
const FileName = ".buildsignal.yaml"

// Defaults used when neither flags, environment nor files set a value.
const (
	DefaultParser       = "auto"
	DefaultConcurrency  = 8
	DefaultScope        = "all"
	DefaultOutputFormat = "text"
)

// Notes reports whether note-severity notices should be kept.
func (c *Config) Notes() bool {
	return c.IncludeNotes != nil && *c.IncludeNotes
}

// WithDefaults returns a copy of c with empty fields set to their defaults.
func (c *Config) WithDefaults() *Config {
	out := *c
	if out.Parser == "" {
		out.Parser = DefaultParser
	}
	if out.Concurrency == 0 {
		out.Concurrency = DefaultConcurrency
	}
	if out.DefaultScope == "" {
		out.DefaultScope = DefaultScope
	}
	if out.OutputFormat == "" {
		out.OutputFormat = DefaultOutputFormat
	}
	return &out
}
