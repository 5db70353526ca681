package state

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/davetashner/buildsignal/internal/signal"
)

// DiffResult holds the comparison between two builds' notices.
type DiffResult struct {
	Added      []signal.Notice // in current but not previous
	Removed    []signal.Notice // in previous but not current
	Persisting []signal.Notice // in both at the same line
	Moved      []MovedNotice   // in both at a different line
}

// MovedNotice tracks a notice that shifted lines between builds.
type MovedNotice struct {
	Previous signal.Notice
	Current  signal.Notice
}

// AnnotatedNotice extends a removed notice with resolution context.
type AnnotatedNotice struct {
	signal.Notice
	Resolution string // "file_deleted" or ""
}

// Diff compares two notice lists. Notices that match exactly, line
// included, are paired first. The leftovers are then paired by LooseKey, so
// a warning that only moved lines counts as persisting (and is listed in
// Moved) rather than as removed plus added. Repeated keys are matched one
// to one in order.
func Diff(previous, current []signal.Notice) *DiffResult {
	result := &DiffResult{}
	used := make([]bool, len(previous))
	pair := make([]int, len(current))

	exact := make(map[string][]int, len(previous))
	for i, n := range previous {
		exact[n.Key()] = append(exact[n.Key()], i)
	}
	for i, cur := range current {
		pair[i] = -1
		if queue := exact[cur.Key()]; len(queue) > 0 {
			pair[i] = queue[0]
			used[queue[0]] = true
			exact[cur.Key()] = queue[1:]
		}
	}

	loose := make(map[string][]int, len(previous))
	for i, n := range previous {
		if !used[i] {
			loose[n.LooseKey()] = append(loose[n.LooseKey()], i)
		}
	}
	for i, cur := range current {
		if pair[i] >= 0 {
			result.Persisting = append(result.Persisting, cur)
			continue
		}
		k := cur.LooseKey()
		queue := loose[k]
		if len(queue) == 0 {
			result.Added = append(result.Added, cur)
			continue
		}
		used[queue[0]] = true
		loose[k] = queue[1:]
		result.Moved = append(result.Moved, MovedNotice{Previous: previous[queue[0]], Current: cur})
	}

	for i, n := range previous {
		if !used[i] {
			result.Removed = append(result.Removed, n)
		}
	}
	return result
}

// Unchanged reports whether nothing was added or removed.
func (d *DiffResult) Unchanged() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0
}

// AnnotateRemoved marks removed notices whose source file no longer exists
// as "file_deleted".
func AnnotateRemoved(removed []signal.Notice) []AnnotatedNotice {
	annotated := make([]AnnotatedNotice, len(removed))
	for i, n := range removed {
		annotated[i] = AnnotatedNotice{Notice: n}
		p := n.FilePath()
		if p == "" {
			continue
		}
		if _, err := FS.Stat(p); errors.Is(err, fs.ErrNotExist) {
			annotated[i].Resolution = "file_deleted"
		}
	}
	return annotated
}

// FormatDiff writes a human-readable diff summary to w.
// The output uses +/- notation similar to git diff.
func FormatDiff(diff *DiffResult, w io.Writer) error {
	addedCount := len(diff.Added)
	removedCount := len(diff.Removed)
	movedCount := len(diff.Moved)

	if addedCount == 0 && removedCount == 0 && movedCount == 0 {
		_, err := fmt.Fprintf(w, "Build diff: no changes (%d persisting)\n", len(diff.Persisting))
		return err
	}

	if _, err := fmt.Fprintln(w, "Build diff:"); err != nil {
		return err
	}
	if addedCount > 0 {
		if _, err := fmt.Fprintf(w, "  + %d new notice(s)\n", addedCount); err != nil {
			return err
		}
	}
	if removedCount > 0 {
		if _, err := fmt.Fprintf(w, "  - %d resolved notice(s)\n", removedCount); err != nil {
			return err
		}
	}
	if movedCount > 0 {
		if _, err := fmt.Fprintf(w, "  ~ %d moved notice(s)\n", movedCount); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "  = %d persisting\n", len(diff.Persisting)+movedCount); err != nil {
		return err
	}

	if addedCount > 0 {
		if _, err := fmt.Fprintln(w, "\nNew notices:"); err != nil {
			return err
		}
		for _, n := range diff.Added {
			if _, err := fmt.Fprintf(w, "  + [%s] %s (%s)\n", n.Type.Kind(), n.Title, location(n)); err != nil {
				return err
			}
		}
	}

	if removedCount > 0 {
		if _, err := fmt.Fprintln(w, "\nResolved notices:"); err != nil {
			return err
		}
		for _, a := range AnnotateRemoved(diff.Removed) {
			suffix := ""
			if a.Resolution == "file_deleted" {
				suffix = " [file deleted]"
			}
			if _, err := fmt.Fprintf(w, "  - [%s] %s (%s)%s\n", a.Type.Kind(), a.Title, location(a.Notice), suffix); err != nil {
				return err
			}
		}
	}

	if movedCount > 0 {
		if _, err := fmt.Fprintln(w, "\nMoved notices:"); err != nil {
			return err
		}
		for _, mv := range diff.Moved {
			if _, err := fmt.Fprintf(w, "  ~ [%s] %s\n", mv.Current.Type.Kind(), mv.Current.Title); err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "    from: %s\n", location(mv.Previous)); err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "    to:   %s\n", location(mv.Current)); err != nil {
				return err
			}
		}
	}

	return nil
}

func location(n signal.Notice) string {
	if loc := n.Location(); loc != "" {
		return loc
	}
	return "no location"
}
