package output

import (
	"fmt"
	"io"
	"strings"
)

func init() {
	RegisterFormatter(NewMarkdownFormatter())
}

// MarkdownFormatter writes notices as a human-readable Markdown summary.
type MarkdownFormatter struct{}

// Compile-time interface check.
var _ Formatter = (*MarkdownFormatter)(nil)

// NewMarkdownFormatter returns a new MarkdownFormatter.
func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

// Name returns the format name.
func (m *MarkdownFormatter) Name() string {
	return "markdown"
}

var markdownKinds = []string{"error", "warning", "deprecation", "analyzer", "note"}

// Format writes the notices as a Markdown document to w.
//
// The output includes:
//   - A title heading
//   - A summary line with the total and build status
//   - A kind distribution table
//   - One section per category, each with notice bullets
func (m *MarkdownFormatter) Format(r *Report, w io.Writer) error {
	if err := m.writeHeader(r, w); err != nil {
		return err
	}
	if len(r.Notices) == 0 {
		return nil
	}
	if err := writeKindTable(r, w); err != nil {
		return err
	}
	for _, g := range r.Groups() {
		if _, err := fmt.Fprintf(w, "## %s (%d)\n\n", g.Category.Name, len(g.Notices)); err != nil {
			return fmt.Errorf("write category heading: %w", err)
		}
		for _, n := range g.Notices {
			if _, err := fmt.Fprintf(w, "- **%s** `%s` (%s)\n", escapeMarkdown(n.Title), formatLocation(n.Location()), n.Type.Kind()); err != nil {
				return fmt.Errorf("write notice: %w", err)
			}
		}
		if _, err := fmt.Fprintf(w, "\n"); err != nil {
			return fmt.Errorf("write section end: %w", err)
		}
	}
	return nil
}

func (m *MarkdownFormatter) writeHeader(r *Report, w io.Writer) error {
	if _, err := fmt.Fprintf(w, "# BuildSignal: %s\n\n", r.Project); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	summary := fmt.Sprintf("**Total notices:** %d", len(r.Notices))
	if r.Build != nil && r.Build.Status != "" {
		summary += fmt.Sprintf(" | **Status:** %s", r.Build.Status)
	}
	if r.Scope != "" {
		summary += fmt.Sprintf(" | **Scope:** %s", r.Scope)
	}
	if _, err := fmt.Fprintf(w, "%s\n\n", summary); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}

// writeKindTable writes the notice count per kind.
func writeKindTable(r *Report, w io.Writer) error {
	counts := make(map[string]int)
	for _, n := range r.Notices {
		counts[n.Type.Kind()]++
	}
	if _, err := fmt.Fprintf(w, "| Kind | Count |\n|------|-------|\n"); err != nil {
		return fmt.Errorf("write kind table: %w", err)
	}
	for _, k := range markdownKinds {
		if counts[k] == 0 {
			continue
		}
		if _, err := fmt.Fprintf(w, "| %s | %d |\n", k, counts[k]); err != nil {
			return fmt.Errorf("write kind table: %w", err)
		}
	}
	if _, err := fmt.Fprintf(w, "\n"); err != nil {
		return fmt.Errorf("write kind table: %w", err)
	}
	return nil
}

var markdownEscaper = strings.NewReplacer("*", `\*`, "_", `\_`, "`", "\\`", "|", `\|`)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// formatLocation returns loc, or "unknown" for notices without a file.
func formatLocation(loc string) string {
	if loc == "" {
		return "unknown"
	}
	return loc
}
