// Copyright 2026 The BuildSignal Authors
// SPDX-License-Identifier: MIT

// Package report renders terminal tables and a pluggable set of report
// sections over one parsed build.
package report

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/davetashner/buildsignal/internal/category"
	"github.com/davetashner/buildsignal/internal/signal"
	"github.com/davetashner/buildsignal/internal/state"
)

// ErrDataNotAvailable indicates a section's required input is missing,
// for example trends without a recorded build history.
var ErrDataNotAvailable = errors.New("data not available")

// Input is everything a section may analyze.
type Input struct {
	Project string
	// Build is the parsed log. Its Notices are unfiltered.
	Build *signal.BuildLog
	// Notices is the filtered, deduplicated notice list to report on.
	Notices []signal.Notice
	Matcher *category.Matcher
	History *state.BuildHistory
}

// Section is a pluggable report section that analyzes a build and renders
// a focused report segment.
type Section interface {
	// Name returns the unique identifier for this section (e.g., "hotspots").
	Name() string

	// Description returns a human-readable description of what this section reports.
	Description() string

	// Analyze prepares internal state for rendering. Returns
	// ErrDataNotAvailable (wrapped) if required input is missing.
	Analyze(in *Input) error

	// Render writes the section output to w.
	Render(w io.Writer) error
}

var (
	mu       sync.RWMutex
	registry = make(map[string]Section)
	order    []string // insertion order for deterministic listing
)

// Register adds a section to the global registry.
// It panics if a section with the same name is already registered.
func Register(s Section) {
	mu.Lock()
	defer mu.Unlock()
	name := s.Name()
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("report section already registered: %s", name))
	}
	registry[name] = s
	order = append(order, name)
}

// Get returns the section with the given name, or nil if not found.
func Get(name string) Section {
	mu.RLock()
	defer mu.RUnlock()
	return registry[name]
}

// List returns the names of all registered sections in registration order.
func List() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, len(order))
	copy(out, order)
	return out
}

// resetForTesting clears the registry. Only for use in tests.
func resetForTesting() {
	mu.Lock()
	defer mu.Unlock()
	registry = make(map[string]Section)
	order = nil
}

func init() {
	Register(&summarySection{})
	Register(&categoriesSection{})
	Register(&hotspotsSection{})
	Register(&deprecationsSection{})
	Register(&targetsSection{})
	Register(&trendsSection{})
}
