// Copyright 2026 The BuildSignal Authors
// SPDX-License-Identifier: MIT

package deriveddata

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"howett.net/plist"

	"github.com/davetashner/buildsignal/internal/signal"
)

// ErrMissingField is returned when a required plist key is absent or has
// the wrong type.
var ErrMissingField = errors.New("missing required field")

// referenceDate is the Core Foundation absolute-time epoch. Manifest
// timestamps are seconds relative to it.
var referenceDate = time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC)

// FromReferenceDate converts seconds since 2001-01-01T00:00:00Z to a time.
func FromReferenceDate(seconds float64) time.Time {
	return referenceDate.Add(time.Duration(seconds * float64(time.Second)))
}

// ToReferenceDate is the inverse of FromReferenceDate.
func ToReferenceDate(t time.Time) float64 {
	return t.Sub(referenceDate).Seconds()
}

// ProjectInfo is the content of a DerivedData project folder's info.plist.
type ProjectInfo struct {
	WorkspacePath string
	LastAccessed  time.Time
}

// ParseInfo extracts the workspace path and last-accessed date from an
// info.plist. Both keys are required.
func ParseInfo(data []byte) (*ProjectInfo, error) {
	var raw map[string]any
	if _, err := plist.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode info.plist: %w", err)
	}

	ws, ok := raw["WorkspacePath"].(string)
	if !ok || ws == "" {
		return nil, fmt.Errorf("WorkspacePath: %w", ErrMissingField)
	}
	accessed, ok := raw["LastAccessedDate"].(time.Time)
	if !ok {
		return nil, fmt.Errorf("LastAccessedDate: %w", ErrMissingField)
	}
	return &ProjectInfo{WorkspacePath: ws, LastAccessed: accessed}, nil
}

// BuildRecord is one build-log entry from LogStoreManifest.plist.
type BuildRecord struct {
	ID             string             `json:"id"`
	FileName       string             `json:"file_name"`
	Title          string             `json:"title,omitempty"`
	Scheme         string             `json:"scheme,omitempty"`
	Status         signal.BuildStatus `json:"status"`
	StartTime      time.Time          `json:"start_time"`
	EndTime        time.Time          `json:"end_time"`
	Errors         int                `json:"errors"`
	Warnings       int                `json:"warnings"`
	AnalyzerIssues int                `json:"analyzer_issues"`
}

// Duration returns how long the build ran.
func (r BuildRecord) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}

// LogPath returns the absolute path of the record's .xcactivitylog inside
// the given project folder.
func (r BuildRecord) LogPath(projectPath string) string {
	return filepath.Join(projectPath, "Logs", "Build", r.FileName)
}

// ParseManifest extracts build records from a LogStoreManifest.plist.
// Records lacking a required field are skipped. The result is ordered
// newest first.
func ParseManifest(data []byte) ([]BuildRecord, error) {
	var raw struct {
		Logs map[string]map[string]any `plist:"logs"`
	}
	if _, err := plist.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}

	records := make([]BuildRecord, 0, len(raw.Logs))
	for id, entry := range raw.Logs {
		rec, err := parseRecord(id, entry)
		if err != nil {
			slog.Debug("skipping build record", "id", id, "reason", err)
			continue
		}
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool {
		if !records[i].StartTime.Equal(records[j].StartTime) {
			return records[i].StartTime.After(records[j].StartTime)
		}
		return records[i].ID < records[j].ID
	})
	return records, nil
}

func parseRecord(id string, entry map[string]any) (BuildRecord, error) {
	domain, _ := entry["domainType"].(string)
	if !strings.Contains(domain, "BuildLog") {
		return BuildRecord{}, fmt.Errorf("domainType %q: %w", domain, ErrMissingField)
	}

	observable, ok := entry["primaryObservable"].(map[string]any)
	if !ok {
		return BuildRecord{}, fmt.Errorf("primaryObservable: %w", ErrMissingField)
	}
	rawStatus, _ := observable["highLevelStatus"].(string)
	status, ok := ParseStatus(rawStatus)
	if !ok {
		return BuildRecord{}, fmt.Errorf("highLevelStatus %q: %w", rawStatus, ErrMissingField)
	}

	started, ok := asFloat(entry["timeStartedRecording"])
	if !ok {
		return BuildRecord{}, fmt.Errorf("timeStartedRecording: %w", ErrMissingField)
	}
	stopped, ok := asFloat(entry["timeStoppedRecording"])
	if !ok {
		return BuildRecord{}, fmt.Errorf("timeStoppedRecording: %w", ErrMissingField)
	}

	if _, err := uuid.Parse(id); err != nil {
		slog.Debug("build record key is not a UUID", "id", id)
	}

	rec := BuildRecord{
		ID:        id,
		Status:    status,
		StartTime: FromReferenceDate(started),
		EndTime:   FromReferenceDate(stopped),
	}
	rec.FileName, _ = entry["fileName"].(string)
	if rec.FileName == "" {
		rec.FileName = id + ".xcactivitylog"
	}
	rec.Title, _ = entry["title"].(string)
	rec.Scheme, _ = entry["schemeIdentifier-schemeName"].(string)
	rec.Errors = asInt(observable["totalNumberOfErrors"])
	rec.Warnings = asInt(observable["totalNumberOfWarnings"])
	rec.AnalyzerIssues = asInt(observable["totalNumberOfAnalyzerIssues"])
	return rec, nil
}

// ParseStatus maps a highLevelStatus value to a BuildStatus. Both the
// single-letter form Xcode writes and full words are accepted.
func ParseStatus(s string) (signal.BuildStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "s", "success", "succeeded":
		return signal.StatusSuccess, true
	case "w", "warning", "warnings":
		return signal.StatusWarning, true
	case "e", "error", "errors", "failed":
		return signal.StatusError, true
	}
	return "", false
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}

func asInt(v any) int {
	f, _ := asFloat(v)
	return int(f)
}
