// Copyright 2026 The BuildSignal Authors
// SPDX-License-Identifier: MIT

package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"time"

	"github.com/davetashner/buildsignal/internal/signal"
)

// historyDir is the subdirectory of the cache dir holding project histories.
const historyDir = "history"

// historySchemaVersion is the current history file schema version.
const historySchemaVersion = "1"

// maxHistoryEntries is the FIFO cap for history entries.
const maxHistoryEntries = 100

// HistoryEntry captures notice counts from one parsed build.
type HistoryEntry struct {
	BuildID        string             `json:"build_id"`
	StartTime      time.Time          `json:"start_time"`
	Status         signal.BuildStatus `json:"status,omitempty"`
	TotalNotices   int                `json:"total_notices"`
	KindCounts     map[string]int     `json:"kind_counts"`
	CategoryCounts map[string]int     `json:"category_counts"`
}

// BuildHistory stores a time series of build entries for one project.
type BuildHistory struct {
	Version string         `json:"version"`
	Entries []HistoryEntry `json:"entries"`
}

// LoadHistory reads the history for the DerivedData folder projectID.
// If none exists, it returns (nil, nil).
func (s *Store) LoadHistory(projectID string) (*BuildHistory, error) {
	data, err := FS.ReadFile(s.historyPath(projectID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var h BuildHistory
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// SaveHistory writes the history for projectID, creating directories as
// needed.
func (s *Store) SaveHistory(projectID string, h *BuildHistory) error {
	dir := filepath.Join(s.Dir, historyDir)
	if err := FS.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create history directory: %w", err)
	}

	data, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return err
	}

	if err := FS.WriteFile(s.historyPath(projectID), data, 0o644); err != nil {
		return fmt.Errorf("write history file: %w", err)
	}
	return nil
}

func (s *Store) historyPath(projectID string) string {
	return filepath.Join(s.Dir, historyDir, filepath.Base(projectID)+".json")
}

// AppendEntry adds entry to the history, replacing any entry for the same
// build, keeps entries ordered by start time, and enforces the FIFO cap.
func AppendEntry(h *BuildHistory, entry HistoryEntry) *BuildHistory {
	if h == nil {
		h = &BuildHistory{}
	}
	h.Version = historySchemaVersion

	replaced := false
	for i, e := range h.Entries {
		if e.BuildID == entry.BuildID {
			h.Entries[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		h.Entries = append(h.Entries, entry)
	}
	sort.SliceStable(h.Entries, func(i, j int) bool {
		return h.Entries[i].StartTime.Before(h.Entries[j].StartTime)
	})
	if len(h.Entries) > maxHistoryEntries {
		h.Entries = h.Entries[len(h.Entries)-maxHistoryEntries:]
	}
	return h
}

// NewHistoryEntry summarizes a parsed build. categoryCounts may be nil.
func NewHistoryEntry(buildID string, log *signal.BuildLog, categoryCounts map[string]int) HistoryEntry {
	if categoryCounts == nil {
		categoryCounts = map[string]int{}
	}
	return HistoryEntry{
		BuildID:        buildID,
		StartTime:      log.StartTime,
		Status:         log.Status,
		TotalNotices:   len(log.Notices),
		KindCounts:     log.Counts(),
		CategoryCounts: categoryCounts,
	}
}

// SortedKeys returns the sorted keys from a map[string]int.
func SortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
