// Copyright 2026 The BuildSignal Authors
// SPDX-License-Identifier: MIT

package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/davetashner/buildsignal/internal/tree"
)

const hotspotsTopN = 15

// hotspot is a file or directory with many notices.
type hotspot struct {
	Path   string
	IsFile bool
	Count  int
}

// hotspotsSection lists the files and directories carrying the most notices.
type hotspotsSection struct {
	files []hotspot
	dirs  []hotspot
}

func (s *hotspotsSection) Name() string        { return "hotspots" }
func (s *hotspotsSection) Description() string { return "Files and directories with the most notices" }

func (s *hotspotsSection) Analyze(in *Input) error {
	root := tree.Build(in.Notices)
	if len(root.Children) == 0 {
		return fmt.Errorf("hotspots: no located notices: %w", ErrDataNotAvailable)
	}

	var files, dirs []hotspot
	var walk func(n *tree.Node)
	walk = func(n *tree.Node) {
		for _, c := range n.Children {
			h := hotspot{Path: c.Path, IsFile: c.IsFile, Count: c.Count}
			if c.IsFile {
				files = append(files, h)
			} else {
				dirs = append(dirs, h)
			}
			walk(c)
		}
	}
	walk(root)

	s.files = topHotspots(files)
	s.dirs = topHotspots(dirs)
	return nil
}

func topHotspots(spots []hotspot) []hotspot {
	sort.SliceStable(spots, func(i, j int) bool {
		if spots[i].Count != spots[j].Count {
			return spots[i].Count > spots[j].Count
		}
		return spots[i].Path < spots[j].Path
	})
	if len(spots) > hotspotsTopN {
		spots = spots[:hotspotsTopN]
	}
	return spots
}

func (s *hotspotsSection) Render(w io.Writer) error {
	_, _ = fmt.Fprintf(w, "%s\n", SectionTitle("Hotspots"))
	_, _ = fmt.Fprintf(w, "--------\n")

	for _, group := range []struct {
		label string
		spots []hotspot
	}{{"Files", s.files}, {"Directories", s.dirs}} {
		if len(group.spots) == 0 {
			continue
		}
		tbl := NewTable(
			Column{Header: group.label},
			Column{Header: "Notices", Align: AlignRight, Color: colorHotspot},
		)
		for _, h := range group.spots {
			tbl.AddRow(h.Path, itoa(h.Count))
		}
		if err := tbl.Render(w); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(w, "\n")
	}
	return nil
}

// colorHotspot colors notice counts.
func colorHotspot(val string) string {
	var n int
	if _, err := fmt.Sscanf(val, "%d", &n); err != nil {
		return val
	}
	switch {
	case n >= 50:
		return colorRed.Sprint(val)
	case n >= 10:
		return colorYellow.Sprint(val)
	default:
		return val
	}
}
