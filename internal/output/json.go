package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/davetashner/buildsignal/internal/signal"
)

func init() {
	RegisterFormatter(NewJSONFormatter())
}

// JSONNotice is a notice with its derived fields spelled out.
type JSONNotice struct {
	ID       string `json:"id"`
	Kind     string `json:"kind"`
	Category string `json:"category"`
	FilePath string `json:"file_path,omitempty"`
	signal.Notice
}

// JSONEnvelope wraps notices with metadata for the JSON output format.
type JSONEnvelope struct {
	Notices  []JSONNotice `json:"notices"`
	Metadata JSONMetadata `json:"metadata"`
}

// JSONMetadata describes the build that produced these notices.
type JSONMetadata struct {
	Project     string             `json:"project"`
	BuildID     string             `json:"build_id,omitempty"`
	Log         string             `json:"log,omitempty"`
	Status      signal.BuildStatus `json:"status,omitempty"`
	Scope       string             `json:"scope,omitempty"`
	TotalCount  int                `json:"total_count"`
	ByKind      map[string]int     `json:"by_kind"`
	ByCategory  map[string]int     `json:"by_category"`
	GeneratedAt string             `json:"generated_at"`
}

// JSONFormatter writes notices as a JSON object with metadata envelope.
type JSONFormatter struct {
	// Compact controls whether output is compact (single line) or pretty-printed.
	// When false (default), output is indented with two spaces.
	Compact bool
}

// Compile-time interface check.
var _ Formatter = (*JSONFormatter)(nil)

// NewJSONFormatter returns a new JSONFormatter with default settings.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Name returns the format name.
func (f *JSONFormatter) Name() string {
	return "json"
}

// Format writes the report as a JSON document to w. Output is compact when
// Compact is set or w is a pipe or regular file, and indented otherwise.
func (f *JSONFormatter) Format(r *Report, w io.Writer) error {
	m := r.matcher()
	notices := make([]JSONNotice, 0, len(r.Notices))
	byKind := make(map[string]int)
	byCategory := make(map[string]int)
	for _, n := range r.Notices {
		cat := m.Categorize(n).ID
		kind := n.Type.Kind()
		byKind[kind]++
		byCategory[cat]++
		notices = append(notices, JSONNotice{
			ID:       NoticeID(n, "bs-"),
			Kind:     kind,
			Category: cat,
			FilePath: n.FilePath(),
			Notice:   n,
		})
	}

	meta := JSONMetadata{
		Project:     r.Project,
		BuildID:     r.BuildID,
		Scope:       r.Scope,
		TotalCount:  len(notices),
		ByKind:      byKind,
		ByCategory:  byCategory,
		GeneratedAt: r.now().UTC().Format("2006-01-02T15:04:05Z"),
	}
	if r.Build != nil {
		meta.Log = r.Build.Path
		meta.Status = r.Build.Status
	}
	envelope := JSONEnvelope{Notices: notices, Metadata: meta}

	var data []byte
	var err error
	if f.shouldCompact(w) {
		data, err = json.Marshal(envelope)
	} else {
		data, err = json.MarshalIndent(envelope, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	if _, err := w.Write([]byte("\n")); err != nil {
		return fmt.Errorf("write json trailing newline: %w", err)
	}
	return nil
}

// shouldCompact determines whether to use compact mode.
// If Compact is explicitly set, use that value.
// Otherwise, auto-detect: pretty-print for TTYs, compact for pipes.
func (f *JSONFormatter) shouldCompact(w io.Writer) bool {
	if f.Compact {
		return true
	}

	if file, ok := w.(*os.File); ok {
		fi, err := file.Stat()
		if err != nil {
			return false
		}
		return fi.Mode()&os.ModeCharDevice == 0
	}

	// Non-file writers (e.g., bytes.Buffer in tests) get pretty output.
	return false
}
