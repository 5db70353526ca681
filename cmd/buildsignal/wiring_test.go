package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davetashner/buildsignal/internal/pipeline"
	"github.com/davetashner/buildsignal/internal/scope"
	"github.com/davetashner/buildsignal/internal/xclog"
)

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Nil(t, splitList("  "))
	assert.Equal(t, []string{"a", "b"}, splitList("a, ,b,"))
}

func TestProjectArg(t *testing.T) {
	assert.Equal(t, "", projectArg(nil))
	assert.Equal(t, "Shop", projectArg([]string{"Shop"}))
}

func TestSession_FilterDefaults(t *testing.T) {
	f := setupCLI(t)
	writeGlobalConfig(t, f, "default_scope: packages\nexclude_patterns: [\"Generated/**\"]\n")

	s, err := newSession(context.Background(), 0)
	require.NoError(t, err)

	filter, err := s.filter(filterFlags{exclude: "*.pb.swift"})
	require.NoError(t, err)
	assert.Equal(t, scope.Packages, filter.Scope.Kind)
	assert.Equal(t, []string{"Generated/**", "*.pb.swift"}, filter.Exclude)
	assert.Equal(t, []string{"Generated/**"}, s.cfg.ExcludePatterns, "config slice not aliased")

	filter, err = s.filter(filterFlags{scope: "dir:Sources", kind: "Warning"})
	require.NoError(t, err)
	assert.Equal(t, scope.Dir, filter.Scope.Kind)
	assert.Equal(t, []string{"warning"}, filter.Kinds)
}

func TestNewSession_ParserError(t *testing.T) {
	setupCLI(t)
	newParser = func(context.Context, pipeline.ParserOptions) (xclog.Parser, error) {
		return nil, xclog.ErrParserNotFound
	}
	_, err := newSession(context.Background(), 0)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, exitCode(err))
}

func TestNewSession_MemoryCache(t *testing.T) {
	f := setupCLI(t)
	_, err := newSession(context.Background(), xclog.DefaultCacheSize)
	require.NoError(t, err)
	assert.Equal(t, xclog.DefaultCacheSize, f.parser.opts.MemoryCache)
}

func TestSession_RunRequiresTarget(t *testing.T) {
	setupCLI(t)
	s, err := newSession(context.Background(), 0)
	require.NoError(t, err)
	_, _, err = s.run(context.Background(), buildTarget{}, filterFlags{})
	var ece *exitCodeError
	require.True(t, errors.As(err, &ece))
	assert.Equal(t, ExitInvalidArgs, ece.ExitCode())
}
