package deriveddata

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davetashner/buildsignal/internal/testable"
)

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(48 * time.Hour)

	t0 := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	manifest := marshalPlist(t, map[string]any{
		"logs": map[string]any{
			"33333333-3333-3333-3333-333333333333": buildEntry("W", t0, t0.Add(time.Minute)),
		},
	})

	writeProject(t, root, "Alpha-abc", infoPlist(t, "/src/Alpha/Alpha.xcodeproj", older), manifest)
	writeProject(t, root, "Beta-def", infoPlist(t, "/src/Beta/Beta.xcworkspace", newer), nil)
	writeProject(t, root, "Broken-ghi", nil, nil)
	writeProject(t, root, "ModuleCache.noindex", nil, nil)
	require.NoError(t, os.WriteFile(filepath.Join(root, "stray.txt"), []byte("x"), 0o600))

	projects, err := Discover(context.Background(), root, Options{Concurrency: 2})
	require.NoError(t, err)
	require.Len(t, projects, 2)

	assert.Equal(t, "Beta", projects[0].Name)
	assert.Empty(t, projects[0].Builds)
	assert.Equal(t, "Alpha", projects[1].Name)
	assert.Equal(t, "Alpha-abc", projects[1].ID)
	require.Len(t, projects[1].Builds, 1)

	latest, ok := projects[1].LatestBuild()
	require.True(t, ok)
	assert.Equal(t,
		filepath.Join(root, "Alpha-abc", "Logs", "Build", "33333333-3333-3333-3333-333333333333.xcactivitylog"),
		latest.LogPath(projects[1].Path))
}

func TestDiscover_MissingRoot(t *testing.T) {
	_, err := Discover(context.Background(), filepath.Join(t.TempDir(), "nope"), Options{})
	assert.Error(t, err)
}

func TestDiscover_Cancelled(t *testing.T) {
	root := t.TempDir()
	writeProject(t, root, "Alpha-abc", infoPlist(t, "/src/Alpha/Alpha.xcodeproj", time.Now()), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Discover(ctx, root, Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadProject_ManifestReadError(t *testing.T) {
	root := t.TempDir()
	dir := writeProject(t, root, "Alpha-abc", infoPlist(t, "/src/Alpha/Alpha.xcodeproj", time.Now()), nil)

	orig := FS
	t.Cleanup(func() { FS = orig })
	FS = &testable.MockFileSystem{
		ReadFileFn: func(name string) ([]byte, error) {
			if filepath.Base(name) == "LogStoreManifest.plist" {
				return nil, errors.New("permission denied")
			}
			return os.ReadFile(name) //nolint:gosec // test fixture
		},
	}

	_, err := LoadProject(dir)
	assert.ErrorContains(t, err, "permission denied")
}

func TestLoadProject_CorruptManifestKeepsProject(t *testing.T) {
	root := t.TempDir()
	dir := writeProject(t, root, "Alpha-abc", infoPlist(t, "/src/Alpha/Alpha.xcodeproj", time.Now()), []byte("garbage"))

	p, err := LoadProject(dir)
	require.NoError(t, err)
	assert.Empty(t, p.Builds)
}

func TestProjectName(t *testing.T) {
	assert.Equal(t, "MyApp", projectName("/src/MyApp/MyApp.xcworkspace"))
	assert.Equal(t, "Tool", projectName("/src/Tool/Tool.xcodeproj"))
	assert.Equal(t, "swift-pkg", projectName("/src/swift-pkg"))
}

func TestFind(t *testing.T) {
	projects := []Project{
		{ID: "MyApp-aaaa", Name: "MyApp"},
		{ID: "MyApp-bbbb", Name: "MyApp"},
		{ID: "Other-cccc", Name: "Other"},
	}

	p, err := Find(projects, "MyApp-bbbb")
	require.NoError(t, err)
	assert.Equal(t, "MyApp-bbbb", p.ID)

	p, err = Find(projects, "myapp")
	require.NoError(t, err)
	assert.Equal(t, "MyApp-aaaa", p.ID)

	p, err = Find(projects, "Other-c")
	require.NoError(t, err)
	assert.Equal(t, "Other-cccc", p.ID)

	_, err = Find(projects, "MyApp-")
	assert.ErrorContains(t, err, "ambiguous")

	_, err = Find(projects, "zzz")
	assert.ErrorContains(t, err, "no project")

	_, err = Find(projects, "")
	assert.Error(t, err)
}

func TestFindBuild(t *testing.T) {
	p := Project{Name: "MyApp", Builds: []BuildRecord{
		{ID: "ABCD-1"},
		{ID: "ABCE-2"},
	}}

	b, err := p.FindBuild("abcd")
	require.NoError(t, err)
	assert.Equal(t, "ABCD-1", b.ID)

	_, err = p.FindBuild("ABC")
	assert.ErrorContains(t, err, "ambiguous")

	_, err = p.FindBuild("Z")
	assert.Error(t, err)
}
