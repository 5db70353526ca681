package report

import (
	"fmt"
	"io"

	"github.com/davetashner/buildsignal/internal/category"
)

// categoriesSection reports notice counts per warning category.
type categoriesSection struct {
	groups []category.Group
	total  int
}

func (s *categoriesSection) Name() string        { return "categories" }
func (s *categoriesSection) Description() string { return "Notices grouped by warning category" }

func (s *categoriesSection) Analyze(in *Input) error {
	if in.Matcher == nil {
		return fmt.Errorf("categories: %w", ErrDataNotAvailable)
	}
	s.groups = in.Matcher.Group(in.Notices)
	s.total = len(in.Notices)
	return nil
}

func (s *categoriesSection) Render(w io.Writer) error {
	_, _ = fmt.Fprintf(w, "%s\n", SectionTitle("Categories"))
	_, _ = fmt.Fprintf(w, "----------\n")

	if len(s.groups) == 0 {
		_, _ = fmt.Fprintf(w, "  No notices.\n\n")
		return nil
	}

	tbl := NewTable(
		Column{Header: "Category"},
		Column{Header: "ID"},
		Column{Header: "Count", Align: AlignRight},
		Column{Header: "Share", Align: AlignRight},
	)
	for _, g := range s.groups {
		share := float64(len(g.Notices)) / float64(s.total) * 100
		tbl.AddRow(g.Category.Name, g.Category.ID, itoa(len(g.Notices)), fmt.Sprintf("%.0f%%", share))
	}
	if err := tbl.Render(w); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "\n")
	return nil
}
