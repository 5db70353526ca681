// Package signal defines the core domain types for buildsignal.
package signal

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Severity is the diagnostic severity recorded in an Xcode activity log.
type Severity int

// Severity values as stored in activity logs.
const (
	SeverityNote    Severity = 0
	SeverityWarning Severity = 1
	SeverityError   Severity = 2
)

// String returns the lowercase severity name.
func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "note"
	}
}

// NoticeType classifies a single diagnostic.
type NoticeType string

// Known notice types.
const (
	TypeClangWarning            NoticeType = "clangWarning"
	TypeClangError              NoticeType = "clangError"
	TypeSwiftWarning            NoticeType = "swiftWarning"
	TypeSwiftError              NoticeType = "swiftError"
	TypeDeprecatedWarning       NoticeType = "deprecatedWarning"
	TypeAnalyzerWarning         NoticeType = "analyzerWarning"
	TypeInterfaceBuilderWarning NoticeType = "interfaceBuilderWarning"
	TypeProjectWarning          NoticeType = "projectWarning"
	TypeNote                    NoticeType = "note"
	TypeError                   NoticeType = "error"
	TypeScriptPhaseError        NoticeType = "scriptPhaseError"
	TypeLinkerWarning           NoticeType = "linkerWarning"
	TypeLinkerError             NoticeType = "linkerError"
)

// IsError reports whether the type denotes a build error.
func (t NoticeType) IsError() bool {
	switch t {
	case TypeClangError, TypeSwiftError, TypeError, TypeScriptPhaseError, TypeLinkerError:
		return true
	}
	return false
}

// IsDeprecation reports whether the type is a deprecation warning.
func (t NoticeType) IsDeprecation() bool { return t == TypeDeprecatedWarning }

// IsWarning reports whether the type is any kind of warning, deprecations
// and analyzer issues included.
func (t NoticeType) IsWarning() bool {
	return !t.IsError() && t != TypeNote && t != ""
}

// Kind returns the coarse filter kind: "error", "deprecation", "analyzer",
// "note" or "warning".
func (t NoticeType) Kind() string {
	switch {
	case t.IsError():
		return "error"
	case t == TypeDeprecatedWarning:
		return "deprecation"
	case t == TypeAnalyzerWarning:
		return "analyzer"
	case t == TypeNote:
		return "note"
	default:
		return "warning"
	}
}

// Notice is a single diagnostic surfaced from a parsed build log.
type Notice struct {
	Type           NoticeType `json:"type"`
	Title          string     `json:"title"`
	Detail         string     `json:"detail,omitempty"`
	Severity       Severity   `json:"severity"`
	DocumentURL    string     `json:"document_url,omitempty"`
	StartingLine   int        `json:"starting_line,omitempty"`
	StartingColumn int        `json:"starting_column,omitempty"`
	EndingLine     int        `json:"ending_line,omitempty"`
	EndingColumn   int        `json:"ending_column,omitempty"`
	CategoryIdent  string     `json:"category_ident,omitempty"`
	Target         string     `json:"target,omitempty"`
}

// FilePath returns the notice's document location as a plain file system
// path. file:// URLs are decoded; anything else is returned unchanged.
func (n Notice) FilePath() string {
	u := n.DocumentURL
	if !strings.HasPrefix(u, "file://") {
		return u
	}
	parsed, err := url.Parse(u)
	if err != nil {
		return strings.TrimPrefix(u, "file://")
	}
	return parsed.Path
}

// Location renders "path:line:col", omitting zero parts.
func (n Notice) Location() string {
	p := n.FilePath()
	if p == "" {
		return ""
	}
	switch {
	case n.StartingLine > 0 && n.StartingColumn > 0:
		return fmt.Sprintf("%s:%d:%d", p, n.StartingLine, n.StartingColumn)
	case n.StartingLine > 0:
		return fmt.Sprintf("%s:%d", p, n.StartingLine)
	}
	return p
}

// Key returns a stable identity for deduplication: type, title, path and line.
func (n Notice) Key() string {
	return fmt.Sprintf("%s|%s|%s|%d", n.Type, n.Title, n.FilePath(), n.StartingLine)
}

// LooseKey is Key without the line number. Build diffs use it so a warning
// that only shifted lines is not reported as new.
func (n Notice) LooseKey() string {
	return fmt.Sprintf("%s|%s|%s", n.Type, n.Title, n.FilePath())
}

// BuildStatus is the high-level outcome of a build.
type BuildStatus string

// Build outcomes.
const (
	StatusSuccess BuildStatus = "success"
	StatusWarning BuildStatus = "warning"
	StatusError   BuildStatus = "error"
	StatusUnknown BuildStatus = "unknown"
)

// BuildLog is the parsed content of one .xcactivitylog file.
type BuildLog struct {
	Path      string      `json:"path"`
	Title     string      `json:"title,omitempty"`
	StartTime time.Time   `json:"start_time,omitempty"`
	EndTime   time.Time   `json:"end_time,omitempty"`
	Status    BuildStatus `json:"status"`
	Notices   []Notice    `json:"notices"`
	// Truncated marks a log whose stream ended early. Its notices are a
	// prefix of the full set.
	Truncated bool `json:"truncated,omitempty"`
}

// Counts tallies the log's notices by Kind.
func (b *BuildLog) Counts() map[string]int {
	counts := make(map[string]int)
	for _, n := range b.Notices {
		counts[n.Type.Kind()]++
	}
	return counts
}
