package state

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davetashner/buildsignal/internal/signal"
)

func entry(id string, day, total int) HistoryEntry {
	return HistoryEntry{
		BuildID:        id,
		StartTime:      time.Date(2026, 3, day, 0, 0, 0, 0, time.UTC),
		TotalNotices:   total,
		KindCounts:     map[string]int{"warning": total},
		CategoryCounts: map[string]int{},
	}
}

func TestLoadHistory_Missing(t *testing.T) {
	h, err := NewStore(t.TempDir()).LoadHistory("App-abc")
	assert.NoError(t, err)
	assert.Nil(t, h)
}

func TestLoadHistory_Invalid(t *testing.T) {
	s := NewStore(t.TempDir())
	require.NoError(t, os.MkdirAll(filepath.Join(s.Dir, historyDir), 0o750))
	require.NoError(t, os.WriteFile(s.historyPath("App-abc"), []byte("{"), 0o600))
	_, err := s.LoadHistory("App-abc")
	assert.Error(t, err)
}

func TestHistory_RoundTrip(t *testing.T) {
	s := NewStore(t.TempDir())
	h := AppendEntry(nil, entry("b1", 1, 4))
	require.NoError(t, s.SaveHistory("App-abc", h))

	got, err := s.LoadHistory("App-abc")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, historySchemaVersion, got.Version)
	require.Len(t, got.Entries, 1)
	assert.Equal(t, "b1", got.Entries[0].BuildID)
	assert.Equal(t, 4, got.Entries[0].TotalNotices)
}

func TestAppendEntry(t *testing.T) {
	h := AppendEntry(nil, entry("b2", 2, 5))
	h = AppendEntry(h, entry("b1", 1, 7))
	h = AppendEntry(h, entry("b2", 2, 3))

	require.Len(t, h.Entries, 2)
	assert.Equal(t, "b1", h.Entries[0].BuildID)
	assert.Equal(t, "b2", h.Entries[1].BuildID)
	assert.Equal(t, 3, h.Entries[1].TotalNotices)
}

func TestAppendEntry_Cap(t *testing.T) {
	var h *BuildHistory
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < maxHistoryEntries+5; i++ {
		h = AppendEntry(h, HistoryEntry{BuildID: fmt.Sprintf("b%d", i), StartTime: base.Add(time.Duration(i) * time.Hour)})
	}
	assert.Len(t, h.Entries, maxHistoryEntries)
	assert.Equal(t, "b5", h.Entries[0].BuildID)
}

func TestNewHistoryEntry(t *testing.T) {
	log := &signal.BuildLog{
		StartTime: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Status:    signal.StatusError,
		Notices: []signal.Notice{
			{Type: signal.TypeSwiftWarning},
			{Type: signal.TypeSwiftError},
			{Type: signal.TypeDeprecatedWarning},
		},
	}
	e := NewHistoryEntry("b1", log, nil)
	assert.Equal(t, "b1", e.BuildID)
	assert.Equal(t, signal.StatusError, e.Status)
	assert.Equal(t, 3, e.TotalNotices)
	assert.Equal(t, map[string]int{"warning": 1, "error": 1, "deprecation": 1}, e.KindCounts)
	assert.NotNil(t, e.CategoryCounts)
}

func TestSortedKeys(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, SortedKeys(map[string]int{"c": 1, "a": 2, "b": 3}))
}
