package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davetashner/buildsignal/internal/config"
)

func writeGlobalConfig(t *testing.T, f *fixture, content string) {
	t.Helper()
	dir := filepath.Join(f.configDir, "buildsignal")
	require.NoError(t, os.MkdirAll(dir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o600))
}

func TestConfigShow_Defaults(t *testing.T) {
	f := setupCLI(t)
	out, err := execute(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "parser: auto")
	assert.Contains(t, out, "default_scope: all")
	assert.Contains(t, out, "derived_data: "+f.derivedData, "environment layer applied")
}

func TestConfigShow_FlagsWin(t *testing.T) {
	f := setupCLI(t)
	writeGlobalConfig(t, f, "parser: xclogparser\nconcurrency: 2\n")
	out, err := execute(t, "config", "show", "--parser", "native")
	require.NoError(t, err)
	assert.Contains(t, out, "parser: native")
	assert.Contains(t, out, "concurrency: 2")
}

func TestConfigShow_InvalidGlobal(t *testing.T) {
	f := setupCLI(t)
	writeGlobalConfig(t, f, "default_scope: nearby\n")
	_, err := execute(t, "config", "show")
	require.Error(t, err)
	assert.Equal(t, ExitInvalidArgs, exitCode(err))
	assert.Contains(t, err.Error(), "default_scope")
}

func TestConfigInit(t *testing.T) {
	setupCLI(t)
	out, err := execute(t, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+config.FileName)

	data, err := os.ReadFile(config.FileName)
	require.NoError(t, err)
	assert.Contains(t, string(data), "output_format: text")

	resetFlags()
	_, err = execute(t, "config", "init")
	require.Error(t, err)
	assert.Equal(t, ExitInvalidArgs, exitCode(err))
	assert.Contains(t, err.Error(), "already exists")

	resetFlags()
	_, err = execute(t, "config", "init", "--force")
	assert.NoError(t, err)
}

func TestConfigInit_Global(t *testing.T) {
	f := setupCLI(t)
	_, err := execute(t, "config", "init", "--global")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(f.configDir, "buildsignal", "config.yaml"))
}

func TestConfigSetGet(t *testing.T) {
	setupCLI(t)
	out, err := execute(t, "config", "set", "default_scope", "project")
	require.NoError(t, err)
	assert.Equal(t, "Set default_scope = project\n", out)

	resetFlags()
	out, err = execute(t, "config", "get", "default_scope")
	require.NoError(t, err)
	assert.Equal(t, "project\n", out)
}

func TestConfigSet_Global(t *testing.T) {
	f := setupCLI(t)
	_, err := execute(t, "config", "set", "--global", "concurrency", "4")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(f.configDir, "buildsignal", "config.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "concurrency: 4")

	resetFlags()
	out, err := execute(t, "config", "get", "--global", "concurrency")
	require.NoError(t, err)
	assert.Equal(t, "4\n", out)
}

func TestConfigSet_RejectsInvalidValue(t *testing.T) {
	setupCLI(t)
	_, err := execute(t, "config", "set", "concurrency", "1000")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "concurrency")
	assert.NoFileExists(t, config.FileName)
}

func TestConfigSet_UnknownKey(t *testing.T) {
	setupCLI(t)
	_, err := execute(t, "config", "set", "colour", "blue")
	assert.Error(t, err)
}
