package report

import (
	"fmt"
	"io"
	"time"

	"github.com/davetashner/buildsignal/internal/signal"
	"github.com/davetashner/buildsignal/internal/state"
)

var kindOrder = []string{"error", "warning", "deprecation", "analyzer", "note"}

// summarySection reports the build outcome and notice totals.
type summarySection struct {
	build  *signal.BuildLog
	total  int
	counts map[string]int
}

func (s *summarySection) Name() string        { return "summary" }
func (s *summarySection) Description() string { return "Build outcome and notice totals" }

func (s *summarySection) Analyze(in *Input) error {
	if in.Build == nil {
		return fmt.Errorf("summary: %w", ErrDataNotAvailable)
	}
	s.build = in.Build
	s.total = len(in.Notices)
	s.counts = make(map[string]int)
	for _, n := range in.Notices {
		s.counts[n.Type.Kind()]++
	}
	return nil
}

func (s *summarySection) Render(w io.Writer) error {
	_, _ = fmt.Fprintf(w, "%s\n", SectionTitle("Build Summary"))
	_, _ = fmt.Fprintf(w, "-------------\n")

	if s.build.Title != "" {
		_, _ = fmt.Fprintf(w, "  Title:    %s\n", s.build.Title)
	}
	_, _ = fmt.Fprintf(w, "  Status:   %s\n", ColorStatus(string(s.build.Status)))
	if !s.build.StartTime.IsZero() {
		_, _ = fmt.Fprintf(w, "  Started:  %s\n", s.build.StartTime.Local().Format(time.DateTime))
		if s.build.EndTime.After(s.build.StartTime) {
			_, _ = fmt.Fprintf(w, "  Duration: %s\n", s.build.EndTime.Sub(s.build.StartTime).Round(time.Second))
		}
	}
	_, _ = fmt.Fprintf(w, "  Notices:  %d\n\n", s.total)

	if s.total == 0 {
		return nil
	}

	tbl := NewTable(
		Column{Header: "Kind", Color: ColorKind},
		Column{Header: "Count", Align: AlignRight},
	)
	for _, k := range kindOrder {
		if c := s.counts[k]; c > 0 {
			tbl.AddRow(k, itoa(c))
		}
	}
	if err := tbl.Render(w); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "\n")
	return nil
}

// itoa formats an int as a string.
func itoa(n int) string {
	return fmt.Sprintf("%d", n)
}

// formatDelta formats a delta with a +/- prefix.
func formatDelta(d int) string {
	if d > 0 {
		return fmt.Sprintf("+%d", d)
	}
	return fmt.Sprintf("%d", d)
}

// SortedTrendKeys converts a map[string]TrendLine to sorted keys.
func SortedTrendKeys(m map[string]state.TrendLine) []string {
	tmp := make(map[string]int, len(m))
	for k := range m {
		tmp[k] = 0
	}
	return state.SortedKeys(tmp)
}
