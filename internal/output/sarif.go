// Copyright 2026 The BuildSignal Authors
// SPDX-License-Identifier: MIT

package output

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/davetashner/buildsignal/internal/category"
	"github.com/davetashner/buildsignal/internal/signal"
)

func init() {
	RegisterFormatter(NewSARIFFormatter())
}

// SARIFFormatter writes notices as a SARIF v2.1.0 JSON document.
type SARIFFormatter struct {
	// Version is the buildsignal version to embed in the SARIF tool component.
	// If empty, "dev" is used.
	Version string
}

// Compile-time interface check.
var _ Formatter = (*SARIFFormatter)(nil)

// NewSARIFFormatter returns a new SARIFFormatter with default settings.
func NewSARIFFormatter() *SARIFFormatter {
	return &SARIFFormatter{}
}

// Name returns the format name.
func (f *SARIFFormatter) Name() string { return "sarif" }

// Format writes the notices as a SARIF v2.1.0 document to w. Each category
// becomes a rule.
func (f *SARIFFormatter) Format(r *Report, w io.Writer) error {
	doc := f.buildDocument(r)

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal sarif: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write sarif: %w", err)
	}
	if _, err = w.Write([]byte("\n")); err != nil {
		return fmt.Errorf("write sarif trailing newline: %w", err)
	}
	return nil
}

// SARIF document types, unexported and shaped for JSON marshaling.

type sarifDocument struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool               sarifTool                        `json:"tool"`
	OriginalURIBaseIDs map[string]sarifArtifactLocation `json:"originalUriBaseIds,omitempty"`
	Results            []sarifResult                    `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version,omitempty"`
	InformationURI string      `json:"informationUri,omitempty"`
	Rules          []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string                  `json:"id"`
	Name             string                  `json:"name,omitempty"`
	ShortDescription sarifMultiformatMessage `json:"shortDescription"`
	DefaultConfig    *sarifReportingConfig   `json:"defaultConfiguration,omitempty"`
}

type sarifMultiformatMessage struct {
	Text string `json:"text"`
}

type sarifReportingConfig struct {
	Level string `json:"level"`
}

type sarifResult struct {
	RuleID              string                     `json:"ruleId"`
	RuleIndex           int                        `json:"ruleIndex"`
	Level               string                     `json:"level"`
	Message             sarifMultiformatMessage    `json:"message"`
	Locations           []sarifLocation            `json:"locations,omitempty"`
	PartialFingerprints map[string]string          `json:"partialFingerprints,omitempty"`
	Properties          map[string]json.RawMessage `json:"properties,omitempty"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           *sarifRegion          `json:"region,omitempty"`
}

type sarifArtifactLocation struct {
	URI       string `json:"uri"`
	URIBaseID string `json:"uriBaseId,omitempty"`
}

type sarifRegion struct {
	StartLine   int `json:"startLine"`
	StartColumn int `json:"startColumn,omitempty"`
	EndLine     int `json:"endLine,omitempty"`
	EndColumn   int `json:"endColumn,omitempty"`
}

func (f *SARIFFormatter) buildDocument(r *Report) sarifDocument {
	groups := r.Groups()
	rules := make([]sarifRule, 0, len(groups))
	results := make([]sarifResult, 0, len(r.Notices))

	for i, g := range groups {
		rules = append(rules, buildRule(g))
		for _, n := range g.Notices {
			results = append(results, f.buildResult(r, n, g.Category.ID, i))
		}
	}

	version := f.Version
	if version == "" {
		version = "dev"
	}

	run := sarifRun{
		Tool: sarifTool{
			Driver: sarifDriver{
				Name:           "buildsignal",
				Version:        version,
				InformationURI: "https://github.com/davetashner/buildsignal",
				Rules:          rules,
			},
		},
		Results: results,
	}
	if r.Root != "" {
		run.OriginalURIBaseIDs = map[string]sarifArtifactLocation{
			"%SRCROOT%": {URI: "file://" + strings.TrimSuffix(r.Root, "/") + "/"},
		}
	}

	return sarifDocument{
		Schema:  "https://json.schemastore.org/sarif-2.1.0.json",
		Version: "2.1.0",
		Runs:    []sarifRun{run},
	}
}

func buildRule(g category.Group) sarifRule {
	level := "warning"
	allErrors := len(g.Notices) > 0
	for _, n := range g.Notices {
		if !n.Type.IsError() {
			allErrors = false
			break
		}
	}
	if allErrors {
		level = "error"
	}
	return sarifRule{
		ID:               g.Category.ID,
		Name:             g.Category.Name,
		ShortDescription: sarifMultiformatMessage{Text: g.Category.Name + " diagnostics reported by Xcode"},
		DefaultConfig:    &sarifReportingConfig{Level: level},
	}
}

func (f *SARIFFormatter) buildResult(r *Report, n signal.Notice, ruleID string, ruleIndex int) sarifResult {
	result := sarifResult{
		RuleID:    ruleID,
		RuleIndex: ruleIndex,
		Level:     severityToSARIFLevel(n),
		Message:   sarifMultiformatMessage{Text: n.Title},
		PartialFingerprints: map[string]string{
			"buildsignal/v1": NoticeID(n, ""),
		},
	}

	if p := n.FilePath(); p != "" {
		loc := sarifLocation{
			PhysicalLocation: sarifPhysicalLocation{
				ArtifactLocation: artifactLocation(p, r.Root),
			},
		}
		if n.StartingLine > 0 {
			loc.PhysicalLocation.Region = &sarifRegion{
				StartLine:   n.StartingLine,
				StartColumn: n.StartingColumn,
				EndLine:     n.EndingLine,
				EndColumn:   n.EndingColumn,
			}
		}
		result.Locations = []sarifLocation{loc}
	}

	props := map[string]json.RawMessage{
		"noticeType": mustMarshal(n.Type),
	}
	if n.Target != "" {
		props["target"] = mustMarshal(n.Target)
	}
	if n.CategoryIdent != "" {
		props["xcodeCategory"] = mustMarshal(n.CategoryIdent)
	}
	result.Properties = props

	return result
}

// artifactLocation makes p relative to root when it lies below it.
func artifactLocation(p, root string) sarifArtifactLocation {
	if root != "" {
		if rel, err := filepath.Rel(root, p); err == nil && !strings.HasPrefix(rel, "..") {
			return sarifArtifactLocation{URI: filepath.ToSlash(rel), URIBaseID: "%SRCROOT%"}
		}
	}
	return sarifArtifactLocation{URI: "file://" + p}
}

// severityToSARIFLevel maps notice types to SARIF level values.
func severityToSARIFLevel(n signal.Notice) string {
	switch {
	case n.Type.IsError():
		return "error"
	case n.Type == signal.TypeNote:
		return "note"
	default:
		return "warning"
	}
}

func mustMarshal(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("mustMarshal: %v", err))
	}
	return data
}
