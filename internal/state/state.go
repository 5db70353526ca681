// Package state persists what buildsignal has learned between runs: parsed
// logs keyed by file identity, and a per-project history of notice counts.
//
// Parsing a large .xcactivitylog takes seconds. The parse cache lets the
// second `notices` or `tree` call on the same build return immediately.
package state

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/davetashner/buildsignal/internal/signal"
	"github.com/davetashner/buildsignal/internal/testable"
	"github.com/davetashner/buildsignal/internal/xclog"
)

// logsDir is the subdirectory of the cache dir holding parsed logs.
const logsDir = "logs"

// schemaVersion is the current cache entry schema version. Entries with a
// different version are treated as misses.
const schemaVersion = "1"

// FS is the file system implementation used by this package.
// Override in tests with a testable.MockFileSystem.
var FS testable.FileSystem = testable.DefaultFS

// DefaultDir returns $XDG_CACHE_HOME/buildsignal, falling back to
// ~/.cache/buildsignal.
func DefaultDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "buildsignal")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "buildsignal")
	}
	return filepath.Join(home, ".cache", "buildsignal")
}

// Entry is one cached parse result.
type Entry struct {
	Version  string           `json:"version"`
	LogPath  string           `json:"log_path"`
	Size     int64            `json:"size"`
	ModTime  int64            `json:"mod_time"`
	Variant  string           `json:"variant"`
	SavedAt  time.Time        `json:"saved_at"`
	BuildLog *signal.BuildLog `json:"build_log"`
}

// Store reads and writes cache entries under Dir.
type Store struct {
	Dir string
}

// NewStore returns a Store rooted at dir, or DefaultDir when dir is empty.
func NewStore(dir string) *Store {
	if dir == "" {
		dir = DefaultDir()
	}
	return &Store{Dir: dir}
}

// Load returns the cached log for logPath when the file's size and
// modification time still match and the entry was produced by variant.
// A missing or stale entry returns (nil, nil).
func (s *Store) Load(logPath, variant string) (*signal.BuildLog, error) {
	info, err := FS.Stat(logPath)
	if err != nil {
		return nil, err
	}

	data, err := FS.ReadFile(s.entryPath(logPath))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("decode cache entry for %s: %w", logPath, err)
	}
	if e.Version != schemaVersion || e.LogPath != logPath || e.Variant != variant ||
		e.Size != info.Size() || e.ModTime != info.ModTime().UnixNano() {
		return nil, nil
	}
	return e.BuildLog, nil
}

// Save writes log as the cache entry for logPath.
func (s *Store) Save(logPath, variant string, log *signal.BuildLog) error {
	info, err := FS.Stat(logPath)
	if err != nil {
		return err
	}

	dir := filepath.Join(s.Dir, logsDir)
	if err := FS.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	data, err := json.Marshal(Entry{
		Version:  schemaVersion,
		LogPath:  logPath,
		Size:     info.Size(),
		ModTime:  info.ModTime().UnixNano(),
		Variant:  variant,
		SavedAt:  time.Now().UTC(),
		BuildLog: log,
	})
	if err != nil {
		return err
	}

	if err := FS.WriteFile(s.entryPath(logPath), data, 0o644); err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	return nil
}

func (s *Store) entryPath(logPath string) string {
	sum := sha256.Sum256([]byte(logPath))
	return filepath.Join(s.Dir, logsDir, fmt.Sprintf("%x.json", sum[:8]))
}

// DiskParser wraps a parser with the on-disk cache.
type DiskParser struct {
	Next  xclog.Parser
	Store *Store
	// Variant distinguishes entries produced with different parser
	// settings. Defaults to Next.Name().
	Variant string
}

// Compile-time interface check.
var _ xclog.Parser = (*DiskParser)(nil)

// Name returns the wrapped parser's name.
func (d *DiskParser) Name() string { return d.Next.Name() }

// Parse serves path from the cache when possible. Cache failures are
// logged and never fail the parse.
func (d *DiskParser) Parse(ctx context.Context, path string) (*signal.BuildLog, error) {
	variant := d.Variant
	if variant == "" {
		variant = d.Next.Name()
	}

	log, err := d.Store.Load(path, variant)
	if err != nil {
		slog.Debug("parse cache read failed", "path", path, "reason", err)
	}
	if log != nil {
		slog.Debug("parse cache hit", "path", path)
		return log, nil
	}

	log, err = d.Next.Parse(ctx, path)
	if err != nil {
		return nil, err
	}
	if log.Truncated {
		slog.Debug("not caching truncated log", "path", path)
		return log, nil
	}
	if err := d.Store.Save(path, variant, log); err != nil {
		slog.Warn("parse cache write failed", "path", path, "error", err)
	}
	return log, nil
}
