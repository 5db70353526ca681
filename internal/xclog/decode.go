// Copyright 2026 The BuildSignal Authors
// SPDX-License-Identifier: MIT

package xclog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/davetashner/buildsignal/internal/signal"
)

// Activity-log classes the decoder understands.
const (
	classMessage           = "IDEActivityLogMessage"
	classDiagnosticMessage = "IDEDiagnosticActivityLogMessage"
	classAnalyzerResult    = "IDEActivityLogAnalyzerResultMessage"
	classTextLocation      = "DVTTextDocumentLocation"
	classDocumentLocation  = "DVTDocumentLocation"
)

var sectionClasses = map[string]bool{
	"IDEActivityLogSection":           true,
	"IDECommandLineBuildLog":          true,
	"IDEActivityLogMajorGroupSection": true,
	"IDEActivityLogUnitTestSection":   true,
}

func isMessageClass(name string) bool {
	switch name {
	case classMessage, classDiagnosticMessage, classAnalyzerResult:
		return true
	}
	return false
}

// unknownLine is the sentinel Xcode writes for "no line".
const unknownLine = ^uint64(0)

// rawMessage mirrors an IDEActivityLogMessage as stored in the log.
type rawMessage struct {
	class         string
	title         string
	shortTitle    string
	severity      int
	kind          string
	location      *rawLocation
	categoryIdent string
	description   string
	subMessages   []rawMessage
}

type rawLocation struct {
	url         string
	startLine   uint64
	startColumn uint64
	endLine     uint64
	endColumn   uint64
	hasRange    bool
}

// sectionHeader holds the leading fields of an IDEActivityLogSection.
type sectionHeader struct {
	domainType string
	title      string
	started    float64
	stopped    float64
}

// Decoded is the result of scanning one activity-log stream.
type Decoded struct {
	Title   string
	Started float64
	Stopped float64
	Notices []signal.Notice
	Skipped int
	// Truncated is set when the stream ended before the log was complete.
	Truncated bool
}

// decoder walks the token stream. Objects are serialized in pre-order with
// no end markers, so the decoder scans tokens linearly and fully decodes
// only section headers and messages; a message that fails to decode is
// counted and scanning resumes at the following token.
type decoder struct {
	lex          *Lexer
	includeNotes bool
	target       string
	out          Decoded
	seenRoot     bool
}

// Decode scans an uncompressed SLF stream and extracts its notices.
func Decode(r io.Reader, includeNotes bool) (*Decoded, error) {
	lex, err := NewLexer(r)
	if err != nil {
		return nil, err
	}
	d := &decoder{lex: lex, includeNotes: includeNotes}
	if err := d.run(); err != nil {
		return nil, err
	}
	return &d.out, nil
}

func (d *decoder) run() error {
	for {
		tok, err := d.lex.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			if isContextErr(err) {
				return err
			}
			// A truncated or corrupt tail still leaves useful notices.
			if len(d.out.Notices) > 0 || d.seenRoot {
				slog.Debug("activity log ended early", "error", err)
				d.out.Truncated = true
				return nil
			}
			return err
		}
		if !tok.IsClass() {
			continue
		}

		switch {
		case sectionClasses[tok.Str]:
			h, err := d.sectionHeader()
			if isContextErr(err) {
				return err
			}
			if err != nil {
				d.noteEOF(err)
				d.out.Skipped++
				continue
			}
			d.enterSection(h)
		case isMessageClass(tok.Str):
			msg, err := d.message(tok.Str)
			if isContextErr(err) {
				return err
			}
			if err != nil {
				d.noteEOF(err)
				d.out.Skipped++
				slog.Debug("skipping undecodable message", "offset", d.lex.Offset(), "error", err)
				continue
			}
			d.emit(msg, d.target)
		}
	}
}

// noteEOF marks the log truncated when an object was cut off by the end
// of the stream.
func (d *decoder) noteEOF(err error) {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		d.out.Truncated = true
	}
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

var (
	buildTargetRe = regexp.MustCompile(`^Build target (\S+)`)
	inTargetRe    = regexp.MustCompile(`in target '([^']+)'`)
)

func (d *decoder) enterSection(h sectionHeader) {
	if !d.seenRoot {
		d.seenRoot = true
		d.out.Title = h.title
		d.out.Started = h.started
		d.out.Stopped = h.stopped
	}
	if m := buildTargetRe.FindStringSubmatch(h.title); m != nil {
		d.target = m[1]
	} else if m := inTargetRe.FindStringSubmatch(h.title); m != nil {
		d.target = m[1]
	}
}

func (d *decoder) sectionHeader() (sectionHeader, error) {
	var h sectionHeader
	if _, err := d.int(); err != nil { // sectionType
		return h, err
	}
	var err error
	if h.domainType, err = d.string(); err != nil {
		return h, err
	}
	if h.title, err = d.string(); err != nil {
		return h, err
	}
	if _, err = d.string(); err != nil { // signature
		return h, err
	}
	if h.started, err = d.double(); err != nil {
		return h, err
	}
	if h.stopped, err = d.double(); err != nil {
		return h, err
	}
	return h, nil
}

func (d *decoder) message(class string) (rawMessage, error) {
	m := rawMessage{class: class}
	var err error
	if m.title, err = d.string(); err != nil {
		return m, fmt.Errorf("title: %w", err)
	}
	if m.shortTitle, err = d.string(); err != nil {
		return m, fmt.Errorf("shortTitle: %w", err)
	}
	if _, err = d.double(); err != nil {
		return m, fmt.Errorf("timeEmitted: %w", err)
	}
	if _, err = d.int(); err != nil {
		return m, fmt.Errorf("rangeEnd: %w", err)
	}
	if _, err = d.int(); err != nil {
		return m, fmt.Errorf("rangeStart: %w", err)
	}
	if m.subMessages, err = d.messages(); err != nil {
		return m, fmt.Errorf("subMessages: %w", err)
	}
	sev, err := d.int()
	if err != nil {
		return m, fmt.Errorf("severity: %w", err)
	}
	m.severity = int(sev)
	if m.kind, err = d.string(); err != nil {
		return m, fmt.Errorf("type: %w", err)
	}
	if m.location, err = d.location(); err != nil {
		return m, fmt.Errorf("location: %w", err)
	}
	if m.categoryIdent, err = d.string(); err != nil {
		return m, fmt.Errorf("categoryIdent: %w", err)
	}
	if err = d.locations(); err != nil {
		return m, fmt.Errorf("secondaryLocations: %w", err)
	}
	if m.description, err = d.string(); err != nil {
		return m, fmt.Errorf("additionalDescription: %w", err)
	}
	if class == classAnalyzerResult {
		if _, err = d.string(); err != nil { // resultType
			return m, fmt.Errorf("resultType: %w", err)
		}
		if _, err = d.int(); err != nil { // keyEventIndex
			return m, fmt.Errorf("keyEventIndex: %w", err)
		}
	}
	return m, nil
}

func (d *decoder) messages() ([]rawMessage, error) {
	n, err := d.listLen()
	if err != nil {
		return nil, err
	}
	var out []rawMessage
	for i := uint64(0); i < n; i++ {
		tok, err := d.lex.Next()
		if err != nil {
			return nil, err
		}
		if !tok.IsClass() || !isMessageClass(tok.Str) {
			return nil, fmt.Errorf("unsupported sub-message %s %q", tok.Kind, tok.Str)
		}
		m, err := d.message(tok.Str)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func (d *decoder) location() (*rawLocation, error) {
	tok, err := d.lex.Next()
	if err != nil {
		return nil, err
	}
	if tok.Kind == TokenNull {
		return nil, nil
	}
	if !tok.IsClass() {
		return nil, fmt.Errorf("expected location, got %s", tok.Kind)
	}

	loc := &rawLocation{}
	if loc.url, err = d.string(); err != nil {
		return nil, err
	}
	if _, err = d.double(); err != nil { // timestamp
		return nil, err
	}

	switch tok.Str {
	case classDocumentLocation:
		return loc, nil
	case classTextLocation:
		fields := []*uint64{&loc.startLine, &loc.startColumn, &loc.endLine, &loc.endColumn}
		for _, f := range fields {
			if *f, err = d.int(); err != nil {
				return nil, err
			}
		}
		// characterRangeEnd, characterRangeStart, locationEncoding
		for i := 0; i < 3; i++ {
			if _, err = d.int(); err != nil {
				return nil, err
			}
		}
		loc.hasRange = true
		return loc, nil
	}
	return nil, fmt.Errorf("unsupported location class %q", tok.Str)
}

func (d *decoder) locations() error {
	n, err := d.listLen()
	if err != nil {
		return err
	}
	for i := uint64(0); i < n; i++ {
		if _, err := d.location(); err != nil {
			return err
		}
	}
	return nil
}

func (d *decoder) listLen() (uint64, error) {
	tok, err := d.lex.Next()
	if err != nil {
		return 0, err
	}
	switch tok.Kind {
	case TokenNull:
		return 0, nil
	case TokenList:
		return tok.Int, nil
	}
	return 0, fmt.Errorf("expected list, got %s", tok.Kind)
}

func (d *decoder) int() (uint64, error) {
	tok, err := d.lex.Next()
	if err != nil {
		return 0, err
	}
	if tok.Kind != TokenInt {
		return 0, fmt.Errorf("expected int, got %s", tok.Kind)
	}
	return tok.Int, nil
}

func (d *decoder) string() (string, error) {
	tok, err := d.lex.Next()
	if err != nil {
		return "", err
	}
	switch tok.Kind {
	case TokenString:
		return tok.Str, nil
	case TokenNull:
		return "", nil
	}
	return "", fmt.Errorf("expected string, got %s", tok.Kind)
}

func (d *decoder) double() (float64, error) {
	tok, err := d.lex.Next()
	if err != nil {
		return 0, err
	}
	switch tok.Kind {
	case TokenDouble:
		return tok.Float, nil
	case TokenNull:
		return 0, nil
	}
	return 0, fmt.Errorf("expected double, got %s", tok.Kind)
}

// emit converts a message and its reportable sub-messages into notices.
func (d *decoder) emit(m rawMessage, target string) {
	if n, ok := toNotice(m, target, d.includeNotes); ok {
		d.out.Notices = append(d.out.Notices, n)
	}
	for _, sub := range m.subMessages {
		d.emit(sub, target)
	}
}

func toNotice(m rawMessage, target string, includeNotes bool) (signal.Notice, bool) {
	sev := signal.Severity(m.severity)
	if sev != signal.SeverityWarning && sev != signal.SeverityError {
		if !includeNotes {
			return signal.Notice{}, false
		}
		sev = signal.SeverityNote
	}

	n := signal.Notice{
		Title:         m.title,
		Detail:        m.description,
		Severity:      sev,
		CategoryIdent: m.categoryIdent,
		Target:        target,
	}
	if n.Title == "" {
		n.Title = m.shortTitle
	}
	if m.location != nil {
		n.DocumentURL = m.location.url
		if m.location.hasRange {
			n.StartingLine = oneBased(m.location.startLine)
			n.StartingColumn = oneBased(m.location.startColumn)
			n.EndingLine = oneBased(m.location.endLine)
			n.EndingColumn = oneBased(m.location.endColumn)
		}
	}
	n.Type = ClassifyNotice(m.class == classAnalyzerResult, sev, m.kind, m.categoryIdent, n.Title, n.FilePath())
	return n, true
}

func oneBased(v uint64) int {
	if v == unknownLine || v > 1<<31 {
		return 0
	}
	return int(v) + 1
}

// ClassifyNotice derives a NoticeType from what the log records about a
// diagnostic: whether it came from the static analyzer, its severity, the
// message type identifier, the category, its title and file path.
func ClassifyNotice(analyzer bool, sev signal.Severity, kind, categoryIdent, title, path string) signal.NoticeType {
	lowerTitle := strings.ToLower(title)
	lowerCat := strings.ToLower(categoryIdent)
	lowerKind := strings.ToLower(kind)
	ext := strings.ToLower(filepath.Ext(path))
	linker := strings.HasPrefix(lowerTitle, "ld:") ||
		strings.HasPrefix(lowerTitle, "undefined symbol") ||
		strings.Contains(lowerKind, "linker") ||
		strings.Contains(lowerCat, "linker")

	switch sev {
	case signal.SeverityError:
		switch {
		case linker:
			return signal.TypeLinkerError
		case strings.Contains(lowerTitle, "phasescriptexecution") || strings.Contains(lowerKind, "script"):
			return signal.TypeScriptPhaseError
		case ext == ".swift":
			return signal.TypeSwiftError
		case isClangSource(ext):
			return signal.TypeClangError
		}
		return signal.TypeError
	case signal.SeverityWarning:
		switch {
		case analyzer || strings.Contains(lowerKind, "analyzer"):
			return signal.TypeAnalyzerWarning
		case strings.Contains(lowerTitle, "deprecated") || strings.Contains(lowerCat, "deprecation"):
			return signal.TypeDeprecatedWarning
		case ext == ".xib" || ext == ".storyboard":
			return signal.TypeInterfaceBuilderWarning
		case linker:
			return signal.TypeLinkerWarning
		case path == "":
			return signal.TypeProjectWarning
		case ext == ".swift":
			return signal.TypeSwiftWarning
		}
		return signal.TypeClangWarning
	}
	return signal.TypeNote
}

func isClangSource(ext string) bool {
	switch ext {
	case ".c", ".cc", ".cpp", ".cxx", ".m", ".mm", ".h", ".hh", ".hpp":
		return true
	}
	return false
}
