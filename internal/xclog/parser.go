// Copyright 2026 The BuildSignal Authors
// SPDX-License-Identifier: MIT

// Package xclog parses Xcode .xcactivitylog build logs into notices.
//
// Two backends are available: a native decoder for the SLF token format,
// and a wrapper around the external xclogparser tool. Both implement
// Parser.
package xclog

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/davetashner/buildsignal/internal/signal"
	"github.com/davetashner/buildsignal/internal/testable"
)

// Backend names accepted by New.
const (
	BackendNative      = "native"
	BackendXCLogParser = "xclogparser"
	BackendAuto        = "auto"
)

// FS is the file system implementation used by this package.
var FS testable.FileSystem = testable.DefaultFS

// Parser turns one activity log into a BuildLog.
type Parser interface {
	// Name returns the backend name.
	Name() string

	// Parse reads the log at path.
	Parse(ctx context.Context, path string) (*signal.BuildLog, error)
}

// Options configures New.
type Options struct {
	IncludeNotes bool
	Executor     testable.CommandExecutor
}

// New returns the parser for backend. "auto" selects xclogparser when it
// is installed and recent enough, and the native decoder otherwise.
func New(ctx context.Context, backend string, opts Options) (Parser, error) {
	exec := opts.Executor
	if exec == nil {
		exec = testable.DefaultExecutor()
	}

	switch backend {
	case "", BackendNative:
		return &NativeParser{IncludeNotes: opts.IncludeNotes}, nil
	case BackendXCLogParser:
		p := NewCLIParser(exec)
		if err := p.CheckVersion(ctx); err != nil {
			return nil, err
		}
		return p, nil
	case BackendAuto:
		p := NewCLIParser(exec)
		if err := p.CheckVersion(ctx); err != nil {
			slog.Debug("xclogparser unavailable, using native decoder", "reason", err)
			return &NativeParser{IncludeNotes: opts.IncludeNotes}, nil
		}
		return p, nil
	}
	return nil, fmt.Errorf("unknown parser backend %q (available: auto, native, xclogparser)", backend)
}

// Result pairs a log path with its parse outcome.
type Result struct {
	Path string
	Log  *signal.BuildLog
	Err  error
}

// ParseAll parses paths concurrently, at most limit at a time. A failure
// on one file is recorded in its Result and does not stop the others.
// Results are returned in input order.
func ParseAll(ctx context.Context, p Parser, paths []string, limit int) []Result {
	if limit <= 0 {
		limit = 4
	}
	results := make([]Result, len(paths))
	var g errgroup.Group
	g.SetLimit(limit)
	for i, path := range paths {
		g.Go(func() error {
			log, err := p.Parse(ctx, path)
			results[i] = Result{Path: path, Log: log, Err: err}
			return nil
		})
	}
	_ = g.Wait() // workers never return errors
	return results
}
