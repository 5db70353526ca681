package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// ReportJSON is the top-level JSON structure for --format json output.
type ReportJSON struct {
	Project   string        `json:"project"`
	Log       string        `json:"log"`
	Generated string        `json:"generated"`
	Notices   NoticeSummary `json:"notices"`
	Sections  []SectionJSON `json:"sections,omitempty"`
}

// NoticeSummary is the JSON representation of the notice totals.
type NoticeSummary struct {
	Total  int            `json:"total"`
	ByKind map[string]int `json:"by_kind"`
}

// SectionJSON is the JSON representation of a single report section.
type SectionJSON struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`            // "ok", "skipped"
	Content     string `json:"content,omitempty"` // rendered text
}

// Render writes a terminal report: a header followed by every requested
// section. Sections without data are skipped.
func Render(in *Input, sections []string, w io.Writer) error {
	_, _ = fmt.Fprintf(w, "%s\n", SectionTitle("BuildSignal Report"))
	_, _ = fmt.Fprintf(w, "==================\n\n")
	_, _ = fmt.Fprintf(w, "Project:   %s\n", in.Project)
	if in.Build != nil {
		_, _ = fmt.Fprintf(w, "Log:       %s\n", in.Build.Path)
	}
	_, _ = fmt.Fprintf(w, "Generated: %s\n\n", time.Now().Format(time.RFC3339))

	for _, name := range ResolveSections(sections) {
		sec := Get(name)
		if err := sec.Analyze(in); err != nil {
			if errors.Is(err, ErrDataNotAvailable) {
				slog.Debug("skipping report section", "section", name, "reason", err)
				continue
			}
			return fmt.Errorf("section %s: %w", name, err)
		}
		if err := sec.Render(w); err != nil {
			return fmt.Errorf("section %s render: %w", name, err)
		}
	}
	return nil
}

// RenderJSON writes the report as machine-readable JSON.
func RenderJSON(in *Input, sections []string, w io.Writer) error {
	out := ReportJSON{
		Project:   in.Project,
		Generated: time.Now().Format(time.RFC3339),
	}
	if in.Build != nil {
		out.Log = in.Build.Path
	}

	kindCounts := make(map[string]int)
	for _, n := range in.Notices {
		kindCounts[n.Type.Kind()]++
	}
	out.Notices = NoticeSummary{Total: len(in.Notices), ByKind: kindCounts}

	for _, name := range ResolveSections(sections) {
		sec := Get(name)
		sj := SectionJSON{
			Name:        sec.Name(),
			Description: sec.Description(),
		}

		if err := sec.Analyze(in); err != nil {
			if errors.Is(err, ErrDataNotAvailable) {
				sj.Status = "skipped"
				out.Sections = append(out.Sections, sj)
				continue
			}
			return fmt.Errorf("section %s: %w", name, err)
		}

		sj.Status = "ok"
		var buf bytes.Buffer
		if err := sec.Render(&buf); err != nil {
			return fmt.Errorf("section %s render: %w", name, err)
		}
		sj.Content = buf.String()
		out.Sections = append(out.Sections, sj)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("JSON marshal: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// ResolveSections returns the registered sections named in filter, in
// filter order. Unknown names are dropped. An empty filter selects all.
func ResolveSections(filter []string) []string {
	if len(filter) == 0 {
		return List()
	}

	available := make(map[string]bool)
	for _, name := range List() {
		available[name] = true
	}

	var names []string
	for _, name := range filter {
		if available[name] {
			names = append(names, name)
		}
	}
	return names
}
