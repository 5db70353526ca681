// Copyright 2026 The BuildSignal Authors
// SPDX-License-Identifier: MIT

// Package scope narrows a notice list to what the user asked to see: the
// project's own sources, its package dependencies, or one directory, plus
// kind, category, text and glob filters.
package scope

import (
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"github.com/davetashner/buildsignal/internal/category"
	"github.com/davetashner/buildsignal/internal/signal"
	"github.com/davetashner/buildsignal/internal/testable"
)

// Kind selects which notices a Scope keeps.
type Kind string

// Scope kinds.
const (
	All      Kind = "all"
	Project  Kind = "project"
	Packages Kind = "packages"
	Dir      Kind = "dir"
)

// Scope is a parsed scope selector. Dir is set only for Kind Dir.
type Scope struct {
	Kind Kind
	Dir  string
}

// String renders the scope in the form Parse accepts.
func (s Scope) String() string {
	if s.Kind == Dir {
		return "dir:" + s.Dir
	}
	if s.Kind == "" {
		return string(All)
	}
	return string(s.Kind)
}

// Parse reads "all", "project", "packages" or "dir:<path>". The empty
// string means all.
func Parse(s string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return Scope{Kind: All}, nil
	case "project":
		return Scope{Kind: Project}, nil
	case "packages", "package", "dependencies":
		return Scope{Kind: Packages}, nil
	}
	trimmed := strings.TrimSpace(s)
	if strings.HasPrefix(strings.ToLower(trimmed), "dir:") {
		dir := strings.TrimSpace(trimmed[len("dir:"):])
		if dir == "" {
			return Scope{}, fmt.Errorf("scope %q: empty directory", s)
		}
		return Scope{Kind: Dir, Dir: path.Clean(dir)}, nil
	}
	return Scope{}, fmt.Errorf("unknown scope %q (want all, project, packages or dir:<path>)", s)
}

var dependencyMarkers = []string{
	"/SourcePackages/checkouts/",
	"/SourcePackages/artifacts/",
	"/.build/checkouts/",
	"/.build/artifacts/",
}

// IsPackageDependency reports whether p belongs to a resolved Swift package
// or to sources generated inside DerivedData.
func IsPackageDependency(p string) bool {
	for _, m := range dependencyMarkers {
		if strings.Contains(p, m) {
			return true
		}
	}
	return strings.Contains(p, "/DerivedData/")
}

// ProjectRoot returns the root of the git work tree that contains the
// workspace, or the workspace's own directory when it is not under git.
func ProjectRoot(workspacePath string) string {
	if workspacePath == "" {
		return ""
	}
	dir := filepath.Dir(filepath.Clean(workspacePath))
	root, err := testable.DefaultLocator.RepoRoot(dir)
	if err != nil {
		slog.Debug("no repository for workspace", "path", workspacePath, "reason", err)
		return dir
	}
	return root
}

// Contains reports whether the notice at path p is inside the scope.
// root is the project root; when empty, Project keeps every
// non-dependency path.
func (s Scope) Contains(p, root string) bool {
	switch s.Kind {
	case "", All:
		return true
	case Packages:
		return p != "" && IsPackageDependency(p)
	case Project:
		if IsPackageDependency(p) {
			return false
		}
		if root == "" || p == "" {
			return true
		}
		return under(p, root)
	case Dir:
		return p != "" && under(p, s.Dir)
	}
	return false
}

func under(p, dir string) bool {
	dir = strings.TrimSuffix(dir, "/")
	return p == dir || strings.HasPrefix(p, dir+"/")
}

// Filter combines a scope with kind, category, search and exclude filters.
// Zero-valued fields do not filter.
type Filter struct {
	Scope       Scope
	ProjectRoot string
	Kinds       []string
	Categories  []string
	// Matcher categorizes notices for Categories. Required when Categories
	// is non-empty.
	Matcher *category.Matcher
	Search  string
	Exclude []string
}

// Validate checks kinds against the known set and categories against the
// matcher.
func (f Filter) Validate() error {
	for _, k := range f.Kinds {
		switch k {
		case "warning", "error", "deprecation", "analyzer", "note":
		default:
			return fmt.Errorf("unknown kind %q", k)
		}
	}
	if len(f.Categories) > 0 && f.Matcher == nil {
		return fmt.Errorf("category filter needs a matcher")
	}
	for _, id := range f.Categories {
		if _, ok := f.Matcher.Lookup(id); !ok {
			return fmt.Errorf("unknown category %q", id)
		}
	}
	return nil
}

// Apply returns the notices that pass every filter, in input order.
func (f Filter) Apply(notices []signal.Notice) []signal.Notice {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]signal.Notice, 0, len(notices))
	for _, n := range notices {
		p := n.FilePath()
		if !f.Scope.Contains(p, f.ProjectRoot) {
			continue
		}
		if len(f.Kinds) > 0 && !contains(f.Kinds, n.Type.Kind()) {
			continue
		}
		if len(f.Categories) > 0 && f.Matcher != nil && !contains(f.Categories, f.Matcher.Categorize(n).ID) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(n.Title), search) &&
			!strings.Contains(strings.ToLower(p), search) &&
			!strings.Contains(strings.ToLower(n.Target), search) {
			continue
		}
		if p != "" && len(f.Exclude) > 0 && f.excluded(p) {
			continue
		}
		out = append(out, n)
	}
	return out
}

func (f Filter) excluded(p string) bool {
	rel := p
	if f.ProjectRoot != "" && under(p, f.ProjectRoot) {
		rel = strings.TrimPrefix(strings.TrimPrefix(p, strings.TrimSuffix(f.ProjectRoot, "/")), "/")
	}
	return MatchesAny(rel, f.Exclude)
}

// MatchesAny reports whether rel matches one of the glob patterns.
// Patterns without a slash also match the base name, and "dir/**" matches
// dir and everything below it at any depth.
func MatchesAny(rel string, patterns []string) bool {
	for _, pattern := range patterns {
		if matched, err := path.Match(pattern, rel); err == nil && matched {
			return true
		}
		if !strings.Contains(pattern, "/") {
			if matched, err := path.Match(pattern, path.Base(rel)); err == nil && matched {
				return true
			}
		}
		if dir, ok := strings.CutSuffix(pattern, "/**"); ok {
			if rel == dir || strings.HasPrefix(rel, dir+"/") {
				return true
			}
			if strings.Contains(rel, "/"+dir+"/") || strings.HasSuffix(rel, "/"+dir) {
				return true
			}
		}
	}
	return false
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// Dedupe drops notices whose Key was already seen, keeping the first.
// Multi-architecture builds report the same diagnostic once per slice.
func Dedupe(notices []signal.Notice) []signal.Notice {
	seen := make(map[string]bool, len(notices))
	out := make([]signal.Notice, 0, len(notices))
	for _, n := range notices {
		k := n.Key()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, n)
	}
	return out
}
