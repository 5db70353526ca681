package report

import (
	"fmt"
	"io"
	"sort"
)

type targetCount struct {
	Target   string
	Errors   int
	Warnings int
}

// targetsSection breaks notices down by build target.
type targetsSection struct {
	targets []targetCount
}

func (s *targetsSection) Name() string        { return "targets" }
func (s *targetsSection) Description() string { return "Errors and warnings per build target" }

func (s *targetsSection) Analyze(in *Input) error {
	byTarget := make(map[string]*targetCount)
	for _, n := range in.Notices {
		if n.Target == "" {
			continue
		}
		tc, ok := byTarget[n.Target]
		if !ok {
			tc = &targetCount{Target: n.Target}
			byTarget[n.Target] = tc
		}
		switch {
		case n.Type.IsError():
			tc.Errors++
		case n.Type.IsWarning():
			tc.Warnings++
		}
	}
	if len(byTarget) == 0 {
		return fmt.Errorf("targets: no target information: %w", ErrDataNotAvailable)
	}

	s.targets = s.targets[:0]
	for _, tc := range byTarget {
		s.targets = append(s.targets, *tc)
	}
	sort.Slice(s.targets, func(i, j int) bool {
		a, b := s.targets[i], s.targets[j]
		if a.Errors+a.Warnings != b.Errors+b.Warnings {
			return a.Errors+a.Warnings > b.Errors+b.Warnings
		}
		return a.Target < b.Target
	})
	return nil
}

func (s *targetsSection) Render(w io.Writer) error {
	_, _ = fmt.Fprintf(w, "%s\n", SectionTitle("Targets"))
	_, _ = fmt.Fprintf(w, "-------\n")

	tbl := NewTable(
		Column{Header: "Target"},
		Column{Header: "Errors", Align: AlignRight, Color: colorErrors},
		Column{Header: "Warnings", Align: AlignRight, Color: ColorCount},
	)
	for _, tc := range s.targets {
		tbl.AddRow(tc.Target, itoa(tc.Errors), itoa(tc.Warnings))
	}
	if err := tbl.Render(w); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "\n")
	return nil
}
