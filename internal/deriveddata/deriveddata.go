// Copyright 2026 The BuildSignal Authors
// SPDX-License-Identifier: MIT

// Package deriveddata discovers Xcode DerivedData project folders and the
// build logs recorded in them.
package deriveddata

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/davetashner/buildsignal/internal/testable"
)

// DefaultConcurrency bounds how many project folders are read at once.
const DefaultConcurrency = 8

// FS is the file system implementation used by this package.
// Override in tests with a testable.MockFileSystem.
var FS testable.FileSystem = testable.DefaultFS

// DefaultRoot returns ~/Library/Developer/Xcode/DerivedData.
func DefaultRoot() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, "Library", "Developer", "Xcode", "DerivedData")
}

// Project is one DerivedData subfolder with its recorded builds.
type Project struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	WorkspacePath string        `json:"workspace_path"`
	LastAccessed  time.Time     `json:"last_accessed"`
	Path          string        `json:"path"`
	Builds        []BuildRecord `json:"builds"`
}

// LatestBuild returns the newest build record, or false if there are none.
func (p *Project) LatestBuild() (BuildRecord, bool) {
	if len(p.Builds) == 0 {
		return BuildRecord{}, false
	}
	return p.Builds[0], true
}

// FindBuild resolves a build by exact ID or unique case-insensitive prefix.
func (p *Project) FindBuild(query string) (BuildRecord, error) {
	q := strings.ToLower(query)
	var matches []BuildRecord
	for _, b := range p.Builds {
		id := strings.ToLower(b.ID)
		if id == q {
			return b, nil
		}
		if strings.HasPrefix(id, q) {
			matches = append(matches, b)
		}
	}
	switch len(matches) {
	case 0:
		return BuildRecord{}, fmt.Errorf("no build matching %q in %s", query, p.Name)
	case 1:
		return matches[0], nil
	}
	return BuildRecord{}, fmt.Errorf("build %q is ambiguous (%d matches)", query, len(matches))
}

// Options controls Discover.
type Options struct {
	// Concurrency bounds parallel folder reads. Zero means DefaultConcurrency.
	Concurrency int
}

// Discover lists the project folders under root. Folders without a valid
// info.plist are skipped; a missing manifest yields an empty build list.
// Projects are returned most recently accessed first.
func Discover(ctx context.Context, root string, opts Options) ([]Project, error) {
	entries, err := FS.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", root, err)
	}

	limit := opts.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	results := make([]*Project, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		dir := filepath.Join(root, entry.Name())
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p, err := LoadProject(dir)
			if err != nil {
				slog.Debug("skipping DerivedData folder", "path", dir, "reason", err)
				return nil
			}
			results[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	projects := make([]Project, 0, len(results))
	for _, p := range results {
		if p != nil {
			projects = append(projects, *p)
		}
	}
	sort.SliceStable(projects, func(i, j int) bool {
		return projects[i].LastAccessed.After(projects[j].LastAccessed)
	})
	return projects, nil
}

// LoadProject reads a single DerivedData project folder.
func LoadProject(dir string) (*Project, error) {
	data, err := FS.ReadFile(filepath.Join(dir, "info.plist"))
	if err != nil {
		return nil, err
	}
	info, err := ParseInfo(data)
	if err != nil {
		return nil, err
	}

	p := &Project{
		ID:            filepath.Base(dir),
		Name:          projectName(info.WorkspacePath),
		WorkspacePath: info.WorkspacePath,
		LastAccessed:  info.LastAccessed,
		Path:          dir,
	}

	manifest, err := FS.ReadFile(filepath.Join(dir, "Logs", "Build", "LogStoreManifest.plist"))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return p, nil
	case err != nil:
		return nil, err
	}
	builds, err := ParseManifest(manifest)
	if err != nil {
		slog.Warn("unreadable build manifest", "project", p.ID, "error", err)
		return p, nil
	}
	p.Builds = builds
	return p, nil
}

// projectName derives a display name from a workspace or project path:
// the file name without its .xcworkspace/.xcodeproj extension. Swift
// packages opened directly use their directory name.
func projectName(workspacePath string) string {
	base := filepath.Base(workspacePath)
	if ext := filepath.Ext(base); ext != "" {
		return strings.TrimSuffix(base, ext)
	}
	return base
}

// Find resolves a user query to a project by exact ID, case-insensitive
// name, or unique ID prefix.
func Find(projects []Project, query string) (*Project, error) {
	if query == "" {
		return nil, errors.New("empty project query")
	}
	for i := range projects {
		if projects[i].ID == query {
			return &projects[i], nil
		}
	}

	var byName []int
	for i := range projects {
		if strings.EqualFold(projects[i].Name, query) {
			byName = append(byName, i)
		}
	}
	// Several folders can share a name; the most recently used wins since
	// projects are sorted by access time.
	if len(byName) > 0 {
		return &projects[byName[0]], nil
	}

	var byPrefix []int
	for i := range projects {
		if strings.HasPrefix(projects[i].ID, query) {
			byPrefix = append(byPrefix, i)
		}
	}
	switch len(byPrefix) {
	case 0:
		return nil, fmt.Errorf("no project matching %q", query)
	case 1:
		return &projects[byPrefix[0]], nil
	}
	return nil, fmt.Errorf("project %q is ambiguous (%d matches)", query, len(byPrefix))
}
