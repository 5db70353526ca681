package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davetashner/buildsignal/internal/category"
	"github.com/davetashner/buildsignal/internal/deriveddata"
	"github.com/davetashner/buildsignal/internal/scope"
	"github.com/davetashner/buildsignal/internal/signal"
)

func TestNew_RequiresParser(t *testing.T) {
	_, err := New(Config{DerivedData: t.TempDir()})
	require.Error(t, err)
}

func TestNew_Defaults(t *testing.T) {
	p, err := New(Config{Parser: &stubParser{}})
	require.NoError(t, err)
	assert.Equal(t, deriveddata.DefaultRoot(), p.Root())
	assert.Equal(t, deriveddata.DefaultConcurrency, p.config.Concurrency)
	assert.Equal(t, "stub", p.Parser().Name())
}

func TestRun_LatestBuild(t *testing.T) {
	root, parser := fixture(t)
	p := newPipeline(t, root, parser)

	res, err := p.Run(context.Background(), Request{Project: "App"})
	require.NoError(t, err)

	assert.Equal(t, "App", res.Name())
	assert.Equal(t, buildNew, res.BuildID())
	assert.Equal(t, "/src/App", res.Root)
	assert.Equal(t, signal.StatusError, res.Log.Status, "manifest outcome wins over the parsed log")
	assert.Equal(t, 1, res.Invalid, "empty title dropped")
	assert.Equal(t, 3, res.Total, "duplicate architecture notice removed")
	assert.Len(t, res.Notices, 3)
	assert.Equal(t, []string{filepath.Join(root, "App-abc", "Logs", "Build", buildNew+".xcactivitylog")}, parser.calls)
}

func TestRun_BuildPrefixAndManifestStatus(t *testing.T) {
	root, parser := fixture(t)
	p := newPipeline(t, root, parser)

	res, err := p.Run(context.Background(), Request{Project: "App-abc", Build: "1111"})
	require.NoError(t, err)
	assert.Equal(t, buildOld, res.BuildID())
	assert.Equal(t, signal.StatusWarning, res.Log.Status, "status comes from the manifest")
}

func TestRun_ProjectScope(t *testing.T) {
	root, parser := fixture(t)
	p := newPipeline(t, root, parser)

	sc, err := scope.Parse("project")
	require.NoError(t, err)
	res, err := p.Run(context.Background(), Request{Project: "App", Filter: scope.Filter{Scope: sc}})
	require.NoError(t, err)
	require.Len(t, res.Notices, 2)
	for _, n := range res.Notices {
		assert.False(t, scope.IsPackageDependency(n.FilePath()))
	}
	assert.Equal(t, 3, res.Total)
}

func TestRun_CategoryFilter(t *testing.T) {
	root, parser := fixture(t)
	p := newPipeline(t, root, parser)

	m, err := category.NewMatcher(nil)
	require.NoError(t, err)
	res, err := p.Run(context.Background(), Request{
		Project: "App",
		Filter:  scope.Filter{Categories: []string{"unused"}, Matcher: m},
	})
	require.NoError(t, err)
	assert.Len(t, res.Notices, 2)
}

func TestRun_InvalidFilter(t *testing.T) {
	root, parser := fixture(t)
	p := newPipeline(t, root, parser)

	_, err := p.Run(context.Background(), Request{Project: "App", Filter: scope.Filter{Kinds: []string{"fatal"}}})
	require.Error(t, err)
	assert.Empty(t, parser.calls)
}

func TestRun_UnknownProject(t *testing.T) {
	root, parser := fixture(t)
	p := newPipeline(t, root, parser)

	_, err := p.Run(context.Background(), Request{Project: "Nope"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no project matching "Nope"`)
}

func TestRun_PreResolvedProject(t *testing.T) {
	root, parser := fixture(t)
	p := newPipeline(t, root, parser)
	proj, err := p.Project(context.Background(), "App")
	require.NoError(t, err)

	res, err := p.Run(context.Background(), Request{Project: "ignored", Resolved: proj, Build: buildOld})
	require.NoError(t, err)
	assert.Same(t, proj, res.Project)
	assert.Equal(t, "/src/App", res.Root)
}

func TestRun_StandaloneLog(t *testing.T) {
	_, parser := fixture(t)
	p := newPipeline(t, t.TempDir(), parser)

	res, err := p.Run(context.Background(), Request{LogPath: "/tmp/" + buildOld + ".xcactivitylog"})
	require.NoError(t, err)
	assert.Nil(t, res.Project)
	assert.Nil(t, res.Record)
	assert.Equal(t, "", res.BuildID())
	assert.Equal(t, buildOld, res.Name())
	assert.Len(t, res.Notices, 2)
}

func TestRun_NeedsProjectOrLog(t *testing.T) {
	p := newPipeline(t, t.TempDir(), &stubParser{})
	_, err := p.Run(context.Background(), Request{})
	require.Error(t, err)
}

func TestRun_ParseError(t *testing.T) {
	root, parser := fixture(t)
	parser.err = errors.New("truncated log")
	p := newPipeline(t, root, parser)

	_, err := p.Run(context.Background(), Request{Project: "App"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "truncated log")
}

func TestResolveBuild_NoBuilds(t *testing.T) {
	_, err := ResolveBuild(&deriveddata.Project{Name: "Empty"}, "")
	assert.ErrorIs(t, err, ErrNoBuilds)
}

func TestCompare_DefaultsToLatestTwo(t *testing.T) {
	root, parser := fixture(t)
	p := newPipeline(t, root, parser)

	cmp, err := p.Compare(context.Background(), CompareRequest{Project: "App"})
	require.NoError(t, err)

	assert.Equal(t, buildOld, cmp.Base.BuildID())
	assert.Equal(t, buildNew, cmp.Head.BuildID())
	assert.Len(t, cmp.Diff.Added, 2, "package warning and error are new")
	assert.Len(t, cmp.Diff.Removed, 1, "deprecation resolved")
	assert.Len(t, cmp.Diff.Moved, 1, "unused variable moved from line 10 to 12")
}

func TestCompare_ExplicitBuilds(t *testing.T) {
	root, parser := fixture(t)
	p := newPipeline(t, root, parser)

	cmp, err := p.Compare(context.Background(), CompareRequest{Project: "App", Base: buildNew, Head: buildOld})
	require.NoError(t, err)
	assert.Len(t, cmp.Diff.Added, 1)
	assert.Len(t, cmp.Diff.Removed, 2)
}

func TestCompare_NoPreviousBuild(t *testing.T) {
	root, parser := fixture(t)
	p := newPipeline(t, root, parser)

	_, err := p.Compare(context.Background(), CompareRequest{Project: "App", Head: buildOld})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no build before")
}

func TestCompare_PreResolvedProject(t *testing.T) {
	root, parser := fixture(t)
	p := newPipeline(t, root, parser)
	proj, err := p.Project(context.Background(), "App")
	require.NoError(t, err)

	cmp, err := p.Compare(context.Background(), CompareRequest{Resolved: proj})
	require.NoError(t, err)
	assert.Equal(t, buildOld, cmp.Base.BuildID())
	assert.Equal(t, buildNew, cmp.Head.BuildID())
}

func TestParseBuilds_ValidatesAndDedupes(t *testing.T) {
	root, parser := fixture(t)
	p := newPipeline(t, root, parser)
	proj, err := p.Project(context.Background(), "App")
	require.NoError(t, err)

	results, err := p.ParseBuilds(context.Background(), proj, proj.Builds)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, buildNew, results[0].BuildID())
	assert.Equal(t, 3, results[0].Total)
	assert.Equal(t, 1, results[0].Invalid)
	assert.Equal(t, "/src/App", results[0].Root)
	assert.Equal(t, signal.StatusError, results[0].Log.Status)
	assert.Equal(t, signal.StatusWarning, results[1].Log.Status)
}
