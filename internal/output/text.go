package output

import (
	"fmt"
	"io"

	"github.com/davetashner/buildsignal/internal/report"
)

func init() {
	RegisterFormatter(NewTextFormatter())
}

// TextFormatter writes notices as aligned terminal tables, one per category.
type TextFormatter struct {
	// MaxTitle truncates long notice titles. Zero uses 100.
	MaxTitle int
}

// Compile-time interface check.
var _ Formatter = (*TextFormatter)(nil)

// NewTextFormatter returns a new TextFormatter.
func NewTextFormatter() *TextFormatter {
	return &TextFormatter{}
}

// Name returns the format name.
func (f *TextFormatter) Name() string { return "text" }

// Format writes a header line and one table per non-empty category.
func (f *TextFormatter) Format(r *Report, w io.Writer) error {
	if len(r.Notices) == 0 {
		_, err := fmt.Fprintf(w, "%s: no notices\n", r.Project)
		return err
	}

	maxTitle := f.MaxTitle
	if maxTitle == 0 {
		maxTitle = 100
	}

	if _, err := fmt.Fprintf(w, "%s: %d notice(s)\n\n", r.Project, len(r.Notices)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, g := range r.Groups() {
		title := fmt.Sprintf("%s (%d)", g.Category.Name, len(g.Notices))
		if _, err := fmt.Fprintf(w, "%s\n", report.SectionTitle(title)); err != nil {
			return fmt.Errorf("write category heading: %w", err)
		}

		tbl := report.NewTable(
			report.Column{Header: "Kind", Color: report.ColorKind},
			report.Column{Header: "Location"},
			report.Column{Header: "Message", MaxWidth: maxTitle},
		)
		for _, n := range g.Notices {
			loc := n.Location()
			if loc == "" {
				loc = "-"
			}
			tbl.AddRow(n.Type.Kind(), loc, n.Title)
		}
		if err := tbl.Render(w); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return fmt.Errorf("write section end: %w", err)
		}
	}
	return nil
}
