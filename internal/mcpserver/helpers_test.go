package mcpserver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
	"howett.net/plist"

	"github.com/davetashner/buildsignal/internal/category"
	"github.com/davetashner/buildsignal/internal/config"
	"github.com/davetashner/buildsignal/internal/deriveddata"
	"github.com/davetashner/buildsignal/internal/pipeline"
	"github.com/davetashner/buildsignal/internal/signal"
	"github.com/davetashner/buildsignal/internal/state"
	"github.com/davetashner/buildsignal/internal/testable"
)

const (
	buildA = "AAAAAAAA-0000-0000-0000-000000000001"
	buildB = "BBBBBBBB-0000-0000-0000-000000000002"
)

// fakeParser returns canned logs keyed by file name.
type fakeParser map[string]*signal.BuildLog

func (f fakeParser) Name() string { return "fake" }

func (f fakeParser) Parse(_ context.Context, path string) (*signal.BuildLog, error) {
	log, ok := f[filepath.Base(path)]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", path, os.ErrNotExist)
	}
	cp := *log
	cp.Path = path
	return &cp, nil
}

func notice(typ signal.NoticeType, title, path string, line int) signal.Notice {
	return signal.Notice{Type: typ, Title: title, DocumentURL: "file://" + path, StartingLine: line}
}

// testHandlers builds handlers over a DerivedData folder holding one
// project, Shop, with two builds.
func testHandlers(t *testing.T) *handlers {
	t.Helper()

	orig := testable.DefaultLocator
	t.Cleanup(func() { testable.DefaultLocator = orig })
	testable.DefaultLocator = testable.StubLocator{Roots: map[string]string{"/work/Shop": "/work/Shop"}}

	root := t.TempDir()
	dir := filepath.Join(root, "Shop-xyz")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "Logs", "Build"), 0o750))

	info, err := plist.Marshal(map[string]any{
		"WorkspacePath":    "/work/Shop/Shop.xcworkspace",
		"LastAccessedDate": time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC),
	}, plist.XMLFormat)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "info.plist"), info, 0o600))

	t0 := time.Date(2026, 3, 30, 9, 0, 0, 0, time.UTC)
	entry := func(status string, start time.Time) map[string]any {
		return map[string]any{
			"domainType":           "Xcode3BuildLog",
			"timeStartedRecording": deriveddata.ToReferenceDate(start),
			"timeStoppedRecording": deriveddata.ToReferenceDate(start.Add(time.Minute)),
			"primaryObservable":    map[string]any{"highLevelStatus": status},
		}
	}
	manifest, err := plist.Marshal(map[string]any{
		"logs": map[string]any{
			buildA: entry("W", t0),
			buildB: entry("E", t0.Add(time.Hour)),
		},
	}, plist.XMLFormat)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Logs", "Build", "LogStoreManifest.plist"), manifest, 0o600))

	parser := fakeParser{
		buildA + ".xcactivitylog": {Notices: []signal.Notice{
			notice(signal.TypeSwiftWarning, "variable 'total' was never used", "/work/Shop/Cart/Cart.swift", 8),
		}},
		buildB + ".xcactivitylog": {Notices: []signal.Notice{
			notice(signal.TypeSwiftWarning, "variable 'total' was never used", "/work/Shop/Cart/Cart.swift", 8),
			notice(signal.TypeDeprecatedWarning, "'openURL' was deprecated in iOS 10.0", "/work/Shop/App/AppDelegate.swift", 20),
			notice(signal.TypeSwiftError, "cannot find 'Price' in scope", "/work/Shop/Cart/Checkout.swift", 3),
			notice(signal.TypeSwiftWarning, "'foo' is deprecated", "/tmp/dd/SourcePackages/checkouts/Kit/K.swift", 1),
		}},
	}

	pipe, err := pipeline.New(pipeline.Config{DerivedData: root, Parser: parser})
	require.NoError(t, err)

	cfg := (&config.Config{}).WithDefaults()
	server := &handlers{pipe: pipe, cfg: cfg, store: state.NewStore(t.TempDir())}
	server.matcher, err = category.NewMatcher(cfg.CustomCategories)
	require.NoError(t, err)
	return server
}

func textOf(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.Len(t, res.Content, 1)
	tc, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}
