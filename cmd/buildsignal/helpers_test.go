package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
	"howett.net/plist"

	"github.com/davetashner/buildsignal/internal/deriveddata"
	"github.com/davetashner/buildsignal/internal/pipeline"
	"github.com/davetashner/buildsignal/internal/signal"
	"github.com/davetashner/buildsignal/internal/testable"
	"github.com/davetashner/buildsignal/internal/xclog"
)

const (
	buildA = "AAAAAAAA-0000-0000-0000-000000000001"
	buildB = "BBBBBBBB-0000-0000-0000-000000000002"
)

// stubParser serves canned logs keyed by file name.
type stubParser struct {
	mu    sync.Mutex
	logs  map[string]*signal.BuildLog
	opts  pipeline.ParserOptions
	calls int
}

func (s *stubParser) Name() string { return "stub" }

func (s *stubParser) Parse(_ context.Context, path string) (*signal.BuildLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	log, ok := s.logs[filepath.Base(path)]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", path, os.ErrNotExist)
	}
	cp := *log
	cp.Path = path
	return &cp, nil
}

// fixture describes the isolated environment set up by setupCLI.
type fixture struct {
	derivedData string
	srcRoot     string
	cacheDir    string
	configDir   string
	parser      *stubParser
}

// setupCLI isolates config, cache and working directories, writes a
// DerivedData folder holding one project, Shop, with two builds, and swaps
// in a stub parser. Flags are reset to their defaults.
func setupCLI(t *testing.T) *fixture {
	t.Helper()
	resetFlags()
	t.Cleanup(resetFlags)

	tmp := t.TempDir()
	f := &fixture{
		derivedData: filepath.Join(tmp, "DerivedData"),
		srcRoot:     filepath.Join(tmp, "src", "Shop"),
		cacheDir:    filepath.Join(tmp, "cache"),
		configDir:   filepath.Join(tmp, "config"),
	}
	t.Setenv("XDG_CACHE_HOME", f.cacheDir)
	t.Setenv("XDG_CONFIG_HOME", f.configDir)
	t.Setenv("BUILDSIGNAL_DERIVED_DATA", f.derivedData)
	t.Setenv("BUILDSIGNAL_PARSER", "")
	t.Setenv("BUILDSIGNAL_CONCURRENCY", "")
	t.Setenv("BUILDSIGNAL_INCLUDE_NOTES", "")
	t.Chdir(tmp)

	origColor := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = origColor })

	origLocator := testable.DefaultLocator
	testable.DefaultLocator = testable.StubLocator{Roots: map[string]string{f.srcRoot: f.srcRoot}}
	t.Cleanup(func() { testable.DefaultLocator = origLocator })

	writeProject(t, f.derivedData, "Shop-xyz", filepath.Join(f.srcRoot, "Shop.xcworkspace"))

	src := func(rel string) string { return filepath.Join(f.srcRoot, rel) }
	f.parser = &stubParser{logs: map[string]*signal.BuildLog{
		buildA + ".xcactivitylog": {Notices: []signal.Notice{
			notice(signal.TypeSwiftWarning, "variable 'total' was never used", src("Cart/Cart.swift"), 8),
			notice(signal.TypeDeprecatedWarning, "'UIWebView' was deprecated in iOS 12.0", src("App/Web.swift"), 4),
		}},
		buildB + ".xcactivitylog": {Notices: []signal.Notice{
			notice(signal.TypeSwiftWarning, "variable 'total' was never used", src("Cart/Cart.swift"), 8),
			notice(signal.TypeDeprecatedWarning, "'openURL' was deprecated in iOS 10.0", src("App/AppDelegate.swift"), 20),
			notice(signal.TypeSwiftError, "cannot find 'Price' in scope", src("Cart/Checkout.swift"), 3),
			notice(signal.TypeSwiftWarning, "'foo' is deprecated", "/tmp/dd/SourcePackages/checkouts/Kit/K.swift", 1),
		}},
	}}

	origParser := newParser
	newParser = func(_ context.Context, opts pipeline.ParserOptions) (xclog.Parser, error) {
		f.parser.opts = opts
		return f.parser, nil
	}
	t.Cleanup(func() { newParser = origParser })

	return f
}

func writeProject(t *testing.T, root, id, workspace string) {
	t.Helper()
	dir := filepath.Join(root, id)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "Logs", "Build"), 0o750))

	info, err := plist.Marshal(map[string]any{
		"WorkspacePath":    workspace,
		"LastAccessedDate": time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC),
	}, plist.XMLFormat)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "info.plist"), info, 0o600))

	t0 := time.Date(2026, 3, 30, 9, 0, 0, 0, time.UTC)
	entry := func(status string, start time.Time) map[string]any {
		return map[string]any{
			"domainType":           "Xcode3BuildLog",
			"title":                "Build Shop",
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
}

func notice(typ signal.NoticeType, title, path string, line int) signal.Notice {
	return signal.Notice{Type: typ, Title: title, DocumentURL: "file://" + path, StartingLine: line}
}

// resetFlags restores every flag of every command to its default.
func resetFlags() {
	var visit func(c *cobra.Command)
	visit = func(c *cobra.Command) {
		reset := func(f *pflag.Flag) {
			f.Changed = false
			_ = f.Value.Set(f.DefValue)
		}
		c.Flags().VisitAll(reset)
		c.PersistentFlags().VisitAll(reset)
		for _, sub := range c.Commands() {
			visit(sub)
		}
	}
	visit(rootCmd)
	resetConfigFlags()
}

func newTestCmd() (*cobra.Command, *bytes.Buffer, *bytes.Buffer) {
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	return rootCmd, stdout, stderr
}

// execute runs the CLI with args and returns stdout and the error.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd, stdout, _ := newTestCmd()
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

// exitCode extracts the exit code carried by err, or -1.
func exitCode(err error) int {
	var ece *exitCodeError
	if errors.As(err, &ece) {
		return ece.ExitCode()
	}
	return -1
}
