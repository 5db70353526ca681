// Copyright 2026 The BuildSignal Authors
// SPDX-License-Identifier: MIT

// Package output defines the Formatter interface for writing a build's
// notices in various formats.
package output

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/davetashner/buildsignal/internal/category"
	"github.com/davetashner/buildsignal/internal/signal"
)

// Report is the input to every formatter: one build's notices plus enough
// context to describe where they came from.
type Report struct {
	Project string
	// Root is the project's source root. SARIF output makes paths under it
	// relative.
	Root    string
	BuildID string
	Build   *signal.BuildLog
	Scope   string
	Notices []signal.Notice
	// Matcher assigns categories. When nil the built-in categories are used.
	Matcher     *category.Matcher
	GeneratedAt time.Time
}

// matcher returns r.Matcher or a matcher over the built-in categories.
func (r *Report) matcher() *category.Matcher {
	if r.Matcher != nil {
		return r.Matcher
	}
	m, _ := category.NewMatcher(nil) // built-ins never fail
	return m
}

// Groups partitions the notices by category in match order.
func (r *Report) Groups() []category.Group {
	return r.matcher().Group(r.Notices)
}

func (r *Report) now() time.Time {
	if r.GeneratedAt.IsZero() {
		return time.Now()
	}
	return r.GeneratedAt
}

// Formatter writes a report to the given writer in a specific format.
type Formatter interface {
	// Name returns the format name (e.g., "text", "json", "markdown").
	Name() string

	// Format writes the report to w.
	Format(r *Report, w io.Writer) error
}

var (
	fmtMu       sync.RWMutex
	fmtRegistry = make(map[string]Formatter)
)

// RegisterFormatter adds a formatter to the global registry.
func RegisterFormatter(f Formatter) {
	fmtMu.Lock()
	defer fmtMu.Unlock()
	fmtRegistry[f.Name()] = f
}

// GetFormatter returns the formatter with the given name, or an error if not found.
func GetFormatter(name string) (Formatter, error) {
	fmtMu.RLock()
	defer fmtMu.RUnlock()
	f, ok := fmtRegistry[name]
	if !ok {
		return nil, fmt.Errorf("unknown format: %q (available: %s)", name, strings.Join(formatNames(), ", "))
	}
	return f, nil
}

// Formats returns the registered format names, sorted.
func Formats() []string {
	fmtMu.RLock()
	defer fmtMu.RUnlock()
	return formatNames()
}

// resetFmtForTesting clears the formatter registry. Only for use in tests.
func resetFmtForTesting() {
	fmtMu.Lock()
	defer fmtMu.Unlock()
	fmtRegistry = make(map[string]Formatter)
}

// formatNames returns the sorted registered format names. Callers hold fmtMu.
func formatNames() []string {
	names := make([]string, 0, len(fmtRegistry))
	for name := range fmtRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
