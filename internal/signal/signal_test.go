package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoticeZeroValue(t *testing.T) {
	var n Notice
	assert.Equal(t, "", n.FilePath())
	assert.Equal(t, "", n.Location())
	assert.Equal(t, SeverityNote, n.Severity)
}

func TestNoticeFilePath(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"file url", "file:///Users/me/App/View.swift", "/Users/me/App/View.swift"},
		{"escaped", "file:///Users/me/My%20App/View.swift", "/Users/me/My App/View.swift"},
		{"plain path", "/tmp/a.m", "/tmp/a.m"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Notice{DocumentURL: tt.url}.FilePath())
		})
	}
}

func TestNoticeLocation(t *testing.T) {
	n := Notice{DocumentURL: "/a/b.swift", StartingLine: 12, StartingColumn: 4}
	assert.Equal(t, "/a/b.swift:12:4", n.Location())
	n.StartingColumn = 0
	assert.Equal(t, "/a/b.swift:12", n.Location())
}

func TestNoticeKeys(t *testing.T) {
	a := Notice{Type: TypeSwiftWarning, Title: "x", DocumentURL: "/a.swift", StartingLine: 1}
	b := a
	b.StartingLine = 9
	assert.NotEqual(t, a.Key(), b.Key())
	assert.Equal(t, a.LooseKey(), b.LooseKey())
}

func TestNoticeTypeKind(t *testing.T) {
	assert.Equal(t, "error", TypeSwiftError.Kind())
	assert.Equal(t, "error", TypeLinkerError.Kind())
	assert.Equal(t, "deprecation", TypeDeprecatedWarning.Kind())
	assert.Equal(t, "analyzer", TypeAnalyzerWarning.Kind())
	assert.Equal(t, "note", TypeNote.Kind())
	assert.Equal(t, "warning", TypeClangWarning.Kind())
	assert.True(t, TypeDeprecatedWarning.IsWarning())
	assert.False(t, TypeNote.IsWarning())
	assert.False(t, TypeError.IsWarning())
}

func TestBuildLogCounts(t *testing.T) {
	log := &BuildLog{Notices: []Notice{
		{Type: TypeSwiftWarning},
		{Type: TypeClangWarning},
		{Type: TypeDeprecatedWarning},
		{Type: TypeSwiftError},
	}}
	got := log.Counts()
	assert.Equal(t, 2, got["warning"])
	assert.Equal(t, 1, got["deprecation"])
	assert.Equal(t, 1, got["error"])
}

func TestSeverityString(t *testing.T) {
	assert.Equal(t, "note", SeverityNote.String())
	assert.Equal(t, "warning", SeverityWarning.String())
	assert.Equal(t, "error", SeverityError.String())
}
