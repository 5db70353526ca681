// Copyright 2026 The BuildSignal Authors
// SPDX-License-Identifier: MIT

package report

import (
	"fmt"
	"io"

	"github.com/davetashner/buildsignal/internal/state"
)

// trendsSection reports notice count trends over recent builds.
type trendsSection struct {
	trends *state.TrendResult
}

func (s *trendsSection) Name() string        { return "trends" }
func (s *trendsSection) Description() string { return "Notice count trends over recent builds" }

func (s *trendsSection) Analyze(in *Input) error {
	if in.History == nil {
		return fmt.Errorf("trends: %w", ErrDataNotAvailable)
	}

	trends := state.ComputeTrends(in.History, state.DefaultWindowSize)
	if trends == nil {
		return fmt.Errorf("trends: insufficient data (need >= 2 builds): %w", ErrDataNotAvailable)
	}

	s.trends = trends
	return nil
}

func (s *trendsSection) Render(w io.Writer) error {
	_, _ = fmt.Fprintf(w, "%s\n", SectionTitle("Trends"))
	_, _ = fmt.Fprintf(w, "------\n")

	_, _ = fmt.Fprintf(w, "  Window: last %d of %d builds\n\n",
		s.trends.DataPoints, s.trends.WindowSize)

	tbl := NewTable(
		Column{Header: "Metric"},
		Column{Header: "Current", Align: AlignRight},
		Column{Header: "Previous", Align: AlignRight},
		Column{Header: "Delta", Align: AlignRight},
		Column{Header: "Direction", Color: ColorDirection},
	)

	t := s.trends.TotalTrend
	tbl.AddRow("Total", itoa(t.Current), itoa(t.Previous), formatDelta(t.Delta), string(t.Direction))

	for _, k := range SortedTrendKeys(s.trends.KindTrends) {
		kt := s.trends.KindTrends[k]
		tbl.AddRow("kind: "+k, itoa(kt.Current), itoa(kt.Previous), formatDelta(kt.Delta), string(kt.Direction))
	}

	for _, k := range SortedTrendKeys(s.trends.CategoryTrends) {
		ct := s.trends.CategoryTrends[k]
		tbl.AddRow("category: "+k, itoa(ct.Current), itoa(ct.Previous), formatDelta(ct.Delta), string(ct.Direction))
	}

	if err := tbl.Render(w); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "\n")
	return nil
}
