// Copyright 2026 The BuildSignal Authors
// SPDX-License-Identifier: MIT

// Package category assigns notices to warning categories using an ordered
// list of pattern rules.
package category

// OtherID is the category assigned when nothing else matches.
const OtherID = "other"

// DeprecationID is matched by notice type as well as by pattern.
const DeprecationID = "deprecation"

// Category is a named group of notices identified by title patterns.
type Category struct {
	ID        string   `json:"id" yaml:"id" toml:"id"`
	Name      string   `json:"name" yaml:"name" toml:"name"`
	Patterns  []string `json:"patterns" yaml:"patterns" toml:"patterns"`
	SortOrder int      `json:"sort_order" yaml:"-" toml:"-"`
	Custom    bool     `json:"custom,omitempty" yaml:"-" toml:"-"`
}

// BuiltIn returns the default categories in match order.
func BuiltIn() []Category {
	cats := []Category{
		{ID: DeprecationID, Name: "Deprecations", Patterns: []string{
			`deprecated`, `was deprecated in`, `has been renamed to`, `is unavailable`,
		}},
		{ID: "concurrency", Name: "Concurrency", Patterns: []string{
			`actor-isolated`, `main actor`, `nonisolated`, `data race`, `@preconcurrency`,
			`global actor`, `async`, `await`, `task-isolated`,
		}},
		{ID: "sendable", Name: "Sendable", Patterns: []string{
			`non-sendable`, `sendable`, `@sendable`,
		}},
		{ID: "unused", Name: "Unused Code", Patterns: []string{
			`never used`, `never mutated`, `unused`, `was never read`, `is never read`,
			`result of call to .* is unused`,
		}},
		{ID: "unreachable", Name: "Unreachable Code", Patterns: []string{
			`will never be executed`, `unreachable`,
		}},
		{ID: "nullability", Name: "Nullability", Patterns: []string{
			`nullability`, `null passed to a callee`, `_nonnull`, `_nullable`,
		}},
		{ID: "implicit-conversion", Name: "Implicit Conversions", Patterns: []string{
			`implicit conversion`, `loses integer precision`, `loses floating-point precision`,
			`changes signedness`,
		}},
		{ID: "availability", Name: "Availability", Patterns: []string{
			`only available in`, `is only available on`, `availability`, `@available`,
		}},
		{ID: "optional-coercion", Name: "Optional Coercion", Patterns: []string{
			`implicitly coerced`, `coerced from '.*\?'`, `string interpolation produces a debug description for an optional`,
			`comparing non-optional value`,
		}},
		{ID: "swift6-mode", Name: "Swift 6 Language Mode", Patterns: []string{
			`this is an error in the swift 6 language mode`, `swift 6 language mode`,
		}},
		{ID: "documentation", Name: "Documentation", Patterns: []string{
			`documentation`, `doxygen`, `empty paragraph passed to`, `parameter '.*' not found in the function declaration`,
		}},
		{ID: "format-string", Name: "Format Strings", Patterns: []string{
			`format specifies type`, `format string`, `more '%' conversions than data arguments`,
		}},
		{ID: "shadowing", Name: "Shadowing", Patterns: []string{
			`shadows`, `shadowing`, `hides`,
		}},
		{ID: "linker", Name: "Linker", Patterns: []string{
			`^ld:`, `linker`, `was built for newer`, `duplicate symbol`, `undefined symbol`,
		}},
	}
	for i := range cats {
		cats[i].SortOrder = i
	}
	cats = append(cats, Category{ID: OtherID, Name: "Other", SortOrder: len(cats)})
	return cats
}
