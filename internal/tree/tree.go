// Copyright 2026 The BuildSignal Authors
// SPDX-License-Identifier: MIT

// Package tree aggregates notice file paths into a directory tree with
// per-node counts.
package tree

import (
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/davetashner/buildsignal/internal/scope"
	"github.com/davetashner/buildsignal/internal/signal"
)

// Node is a directory or file in the aggregated tree.
type Node struct {
	Name     string  `json:"name"`
	Path     string  `json:"path"`
	Count    int     `json:"count"`
	IsFile   bool    `json:"is_file,omitempty"`
	Children []*Node `json:"children,omitempty"`

	index map[string]*Node
}

func (n *Node) child(name, full string) *Node {
	if n.index == nil {
		n.index = make(map[string]*Node)
	}
	c, ok := n.index[name]
	if !ok {
		c = &Node{Name: name, Path: full}
		n.index[name] = c
		n.Children = append(n.Children, c)
	}
	return c
}

// Build aggregates the file paths of notices into a tree rooted at their
// longest common directory. Notices from package dependencies are left
// out; notices without a path count toward the root only.
func Build(notices []signal.Notice) *Node {
	var paths []string
	unlocated := 0
	for _, n := range notices {
		p := n.FilePath()
		if p == "" {
			unlocated++
			continue
		}
		if scope.IsPackageDependency(p) {
			continue
		}
		paths = append(paths, path.Clean(p))
	}

	prefix := CommonPrefix(paths)
	root := &Node{Name: prefix, Path: prefix, Count: unlocated}
	if prefix == "" {
		root.Name = "/"
	}

	for _, p := range paths {
		rest := strings.TrimPrefix(strings.TrimPrefix(p, prefix), "/")
		root.Count++
		cur := root
		full := prefix
		if full == "" && strings.HasPrefix(p, "/") {
			full = "/"
		}
		parts := strings.Split(rest, "/")
		for i, part := range parts {
			if part == "" {
				continue
			}
			full = path.Join(full, part)
			cur = cur.child(part, full)
			cur.Count++
			if i == len(parts)-1 {
				cur.IsFile = true
			}
		}
	}

	sortNode(root)
	return root
}

func sortNode(n *Node) {
	sort.Slice(n.Children, func(i, j int) bool {
		a, b := n.Children[i], n.Children[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Name < b.Name
	})
	for _, c := range n.Children {
		sortNode(c)
	}
	n.index = nil
}

// CommonPrefix returns the longest directory shared by every path, compared
// component by component. A single path yields its directory. The result
// is "" when paths is empty or they share nothing below "/".
func CommonPrefix(paths []string) string {
	if len(paths) == 0 {
		return ""
	}

	split := func(p string) []string {
		return strings.Split(strings.Trim(p, "/"), "/")
	}
	// Directories only: the last component of each path is a file.
	common := split(paths[0])
	common = common[:len(common)-1]
	for _, p := range paths[1:] {
		parts := split(p)
		parts = parts[:len(parts)-1]
		n := 0
		for n < len(common) && n < len(parts) && common[n] == parts[n] {
			n++
		}
		common = common[:n]
		if n == 0 {
			break
		}
	}
	if len(common) == 0 {
		return ""
	}
	prefix := strings.Join(common, "/")
	if strings.HasPrefix(paths[0], "/") {
		prefix = "/" + prefix
	}
	return prefix
}

// Find returns the node whose Path equals p, or nil.
func (n *Node) Find(p string) *Node {
	if n.Path == p {
		return n
	}
	for _, c := range n.Children {
		if p == c.Path || strings.HasPrefix(p, c.Path+"/") {
			return c.Find(p)
		}
	}
	return nil
}

// Render writes the tree as indented lines of "name (count)". maxDepth
// limits how many levels below the root are printed; zero means no limit.
func Render(w io.Writer, root *Node, maxDepth int) error {
	if _, err := fmt.Fprintf(w, "%s (%d)\n", root.Name, root.Count); err != nil {
		return err
	}
	return renderChildren(w, root, 1, maxDepth)
}

func renderChildren(w io.Writer, n *Node, depth, maxDepth int) error {
	if maxDepth > 0 && depth > maxDepth {
		return nil
	}
	for _, c := range n.Children {
		name := c.Name
		if !c.IsFile && len(c.Children) > 0 {
			name += "/"
		}
		if _, err := fmt.Fprintf(w, "%s%s (%d)\n", strings.Repeat("  ", depth), name, c.Count); err != nil {
			return err
		}
		if err := renderChildren(w, c, depth+1, maxDepth); err != nil {
			return err
		}
	}
	return nil
}
