package config

import (
	"fmt"
	"path"
	"strings"

	"github.com/davetashner/buildsignal/internal/category"
	"github.com/davetashner/buildsignal/internal/output"
	"github.com/davetashner/buildsignal/internal/scope"
	"github.com/davetashner/buildsignal/internal/xclog"
)

// maxConcurrency bounds the concurrency setting.
const maxConcurrency = 64

// Validate checks all fields in the config and returns all errors at once.
func Validate(cfg *Config) error {
	var errs []string

	switch cfg.Parser {
	case "", xclog.BackendAuto, xclog.BackendNative, xclog.BackendXCLogParser:
	default:
		errs = append(errs, fmt.Sprintf("parser: invalid value %q (must be auto, native, or xclogparser)", cfg.Parser))
	}

	if cfg.Concurrency < 0 || cfg.Concurrency > maxConcurrency {
		errs = append(errs, fmt.Sprintf("concurrency: must be between 0 and %d, got %d", maxConcurrency, cfg.Concurrency))
	}

	if cfg.DefaultScope != "" {
		if _, err := scope.Parse(cfg.DefaultScope); err != nil {
			errs = append(errs, fmt.Sprintf("default_scope: %v", err))
		}
	}

	if cfg.OutputFormat != "" {
		if _, err := output.GetFormatter(cfg.OutputFormat); err != nil {
			errs = append(errs, fmt.Sprintf("output_format: %v", err))
		}
	}

	for i, p := range cfg.ExcludePatterns {
		if _, err := path.Match(p, ""); err != nil {
			errs = append(errs, fmt.Sprintf("exclude_patterns[%d]: invalid glob %q", i, p))
		}
	}

	if len(cfg.CustomCategories) > 0 {
		if _, err := category.NewMatcher(cfg.CustomCategories); err != nil {
			errs = append(errs, fmt.Sprintf("custom_categories: %v", err))
		}
		for _, c := range cfg.CustomCategories {
			if len(c.Patterns) == 0 {
				errs = append(errs, fmt.Sprintf("custom_categories.%s: at least one pattern is required", c.ID))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}
