// Copyright 2026 The BuildSignal Authors
// SPDX-License-Identifier: MIT

package mcpserver

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/davetashner/buildsignal/internal/category"
	"github.com/davetashner/buildsignal/internal/config"
	"github.com/davetashner/buildsignal/internal/pipeline"
	"github.com/davetashner/buildsignal/internal/state"
)

// Options configures the server.
type Options struct {
	Version string
	// Pipeline serves every query. Required.
	Pipeline *pipeline.Pipeline
	// Config supplies scope, exclude and category defaults. Nil uses the
	// built-in defaults.
	Config *config.Config
	// Store provides build history for the report tool. Optional.
	Store *state.Store
}

// New creates a new MCP server with buildsignal's tools registered.
func New(opts Options) (*mcp.Server, error) {
	if opts.Pipeline == nil {
		return nil, errors.New("mcpserver: pipeline is required")
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = (&config.Config{}).WithDefaults()
	}
	matcher, err := category.NewMatcher(cfg.CustomCategories)
	if err != nil {
		return nil, err
	}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "buildsignal",
		Title:   "BuildSignal: Xcode build diagnostics",
		Version: opts.Version,
	}, nil)

	h := &handlers{
		pipe:    opts.Pipeline,
		cfg:     cfg,
		matcher: matcher,
		store:   opts.Store,
	}
	h.register(server)
	return server, nil
}

// Run creates an MCP server and runs it on the given transport.
// It blocks until the client disconnects or the context is cancelled.
func Run(ctx context.Context, opts Options, transport mcp.Transport) error {
	server, err := New(opts)
	if err != nil {
		return err
	}
	return server.Run(ctx, transport)
}
