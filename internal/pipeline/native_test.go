package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davetashner/buildsignal/internal/category"
	"github.com/davetashner/buildsignal/internal/signal"
	"github.com/davetashner/buildsignal/internal/xclog"
	"github.com/davetashner/buildsignal/internal/xclog/xclogtest"
)

// warningsOnlyLog is a real activity log whose only diagnostic is a warning.
func warningsOnlyLog(t *testing.T) []byte {
	return xclogtest.BuildLog(t, "App", []xclogtest.Step{{
		Title: "Compile A.swift (in target 'App' from project 'App')",
		Diags: []xclogtest.Diag{{
			Title:    "variable 'a' was never used",
			Severity: 1,
			Path:     "/src/App/Sources/A.swift",
			Line:     10,
		}},
	}})
}

func TestRun_NativeParserTakesStatusFromManifest(t *testing.T) {
	root, _ := fixture(t)
	logPath := filepath.Join(root, "App-abc", "Logs", "Build", buildNew+".xcactivitylog")
	require.NoError(t, os.WriteFile(logPath, warningsOnlyLog(t), 0o600))

	p, err := New(Config{DerivedData: root, Parser: &xclog.NativeParser{}})
	require.NoError(t, err)

	res, err := p.Run(context.Background(), Request{Project: "App", Build: buildNew})
	require.NoError(t, err)
	require.Len(t, res.Notices, 1)
	assert.Equal(t, signal.SeverityWarning, res.Notices[0].Severity)
	assert.Equal(t, signal.StatusError, res.Log.Status, "manifest says the build failed")

	m, err := category.NewMatcher(nil)
	require.NoError(t, err)
	entry := res.HistoryEntry(m)
	assert.Equal(t, signal.StatusError, entry.Status)
	assert.Equal(t, 1, entry.TotalNotices)
}

func TestRun_StandaloneLogStatusUnknown(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "Build.xcactivitylog")
	require.NoError(t, os.WriteFile(logPath, warningsOnlyLog(t), 0o600))

	p, err := New(Config{DerivedData: t.TempDir(), Parser: &xclog.NativeParser{}})
	require.NoError(t, err)

	res, err := p.Run(context.Background(), Request{LogPath: logPath})
	require.NoError(t, err)
	assert.Nil(t, res.Record)
	assert.Equal(t, signal.StatusUnknown, res.Log.Status)
	assert.Len(t, res.Notices, 1)
}

func TestRun_CachedLogNotMutated(t *testing.T) {
	root, _ := fixture(t)
	logPath := filepath.Join(root, "App-abc", "Logs", "Build", buildNew+".xcactivitylog")
	require.NoError(t, os.WriteFile(logPath, warningsOnlyLog(t), 0o600))

	cached, err := xclog.NewCachedParser(&xclog.NativeParser{}, 8)
	require.NoError(t, err)
	p, err := New(Config{DerivedData: root, Parser: cached})
	require.NoError(t, err)

	_, err = p.Run(context.Background(), Request{Project: "App", Build: buildNew})
	require.NoError(t, err)

	shared, err := cached.Parse(context.Background(), logPath)
	require.NoError(t, err)
	assert.Equal(t, signal.StatusUnknown, shared.Status)
}
