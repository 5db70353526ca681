// Package mcpserver implements an MCP (Model Context Protocol) server
// that exposes buildsignal's read-only queries as tools over stdio.
package mcpserver

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LogExt is the extension Xcode gives build activity logs.
const LogExt = ".xcactivitylog"

// ResolveLogPath resolves a client-supplied log path to an absolute,
// symlink-free path. It rejects anything that is not an existing regular
// file with the activity-log extension, so tool calls cannot be pointed at
// arbitrary files.
func ResolveLogPath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("log path is empty")
	}
	if strings.ContainsRune(path, 0) {
		return "", fmt.Errorf("log path contains a NUL byte")
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("cannot resolve path %q: %w", path, err)
	}

	absPath, err = filepath.EvalSymlinks(absPath)
	if err != nil {
		return "", fmt.Errorf("log %q does not exist", path)
	}

	if !strings.EqualFold(filepath.Ext(absPath), LogExt) {
		return "", fmt.Errorf("%q is not an %s file", path, LogExt)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return "", fmt.Errorf("log %q does not exist", path)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%q is not a regular file", path)
	}
	return absPath, nil
}
