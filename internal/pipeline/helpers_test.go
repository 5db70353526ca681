package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"howett.net/plist"

	"github.com/davetashner/buildsignal/internal/deriveddata"
	"github.com/davetashner/buildsignal/internal/signal"
	"github.com/davetashner/buildsignal/internal/testable"
)

// stubParser serves canned logs keyed by file name.
type stubParser struct {
	mu    sync.Mutex
	logs  map[string]*signal.BuildLog
	err   error
	calls []string
}

func (s *stubParser) Name() string { return "stub" }

func (s *stubParser) Parse(_ context.Context, path string) (*signal.BuildLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, path)
	if s.err != nil {
		return nil, s.err
	}
	log, ok := s.logs[filepath.Base(path)]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", path, os.ErrNotExist)
	}
	cp := *log
	cp.Path = path
	return &cp, nil
}

const (
	buildOld = "11111111-1111-1111-1111-111111111111"
	buildNew = "22222222-2222-2222-2222-222222222222"
)

// fixture writes one project, App-abc, with two builds and stubs the
// repository locator so the project root is /src/App.
func fixture(t *testing.T) (string, *stubParser) {
	t.Helper()

	orig := testable.DefaultLocator
	t.Cleanup(func() { testable.DefaultLocator = orig })
	testable.DefaultLocator = testable.StubLocator{Roots: map[string]string{"/src/App": "/src/App"}}

	root := t.TempDir()
	dir := filepath.Join(root, "App-abc")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "Logs", "Build"), 0o750))

	info, err := plist.Marshal(map[string]any{
		"WorkspacePath":    "/src/App/App.xcodeproj",
		"LastAccessedDate": time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}, plist.XMLFormat)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "info.plist"), info, 0o600))

	t0 := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	manifest, err := plist.Marshal(map[string]any{
		"logs": map[string]any{
			buildOld: manifestEntry("W", t0),
			buildNew: manifestEntry("E", t0.Add(time.Hour)),
		},
	}, plist.XMLFormat)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Logs", "Build", "LogStoreManifest.plist"), manifest, 0o600))

	parser := &stubParser{logs: map[string]*signal.BuildLog{
		buildOld + ".xcactivitylog": {
			Status: signal.StatusUnknown,
			Notices: []signal.Notice{
				warning("variable 'a' was never used", "/src/App/Sources/A.swift", 10),
				warning("'foo()' is deprecated", "/src/App/Sources/B.swift", 3),
			},
		},
		buildNew + ".xcactivitylog": {
			Status: signal.StatusWarning,
			Notices: []signal.Notice{
				warning("variable 'a' was never used", "/src/App/Sources/A.swift", 12),
				warning("variable 'a' was never used", "/src/App/Sources/A.swift", 12),
				warning("result of call is unused", "/tmp/co/SourcePackages/checkouts/Lib/L.swift", 4),
				{Type: signal.TypeSwiftError, Title: "cannot find 'x' in scope", DocumentURL: "file:///src/App/Sources/C.swift", StartingLine: 7},
				{Type: signal.TypeSwiftWarning, Title: "", DocumentURL: "file:///src/App/Sources/D.swift"},
			},
		},
	}}
	return root, parser
}

func manifestEntry(status string, started time.Time) map[string]any {
	return map[string]any{
		"domainType":           "Xcode3BuildLog",
		"title":                "Build App",
		"timeStartedRecording": deriveddata.ToReferenceDate(started),
		"timeStoppedRecording": deriveddata.ToReferenceDate(started.Add(2 * time.Minute)),
		"primaryObservable": map[string]any{
			"highLevelStatus": status,
		},
	}
}

func warning(title, path string, line int) signal.Notice {
	return signal.Notice{
		Type:         signal.TypeSwiftWarning,
		Title:        title,
		Severity:     signal.SeverityWarning,
		DocumentURL:  "file://" + path,
		StartingLine: line,
	}
}

func newPipeline(t *testing.T, root string, parser *stubParser) *Pipeline {
	t.Helper()
	p, err := New(Config{DerivedData: root, Parser: parser, Concurrency: 2})
	require.NoError(t, err)
	return p
}
