package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/davetashner/buildsignal/internal/category"
	"github.com/davetashner/buildsignal/internal/config"
	"github.com/davetashner/buildsignal/internal/deriveddata"
	"github.com/davetashner/buildsignal/internal/mcpserver"
	"github.com/davetashner/buildsignal/internal/pipeline"
	"github.com/davetashner/buildsignal/internal/scope"
	"github.com/davetashner/buildsignal/internal/state"
)

// newParser builds the log parser stack. Tests replace it with a stub.
var newParser = pipeline.NewParser

// session is the resolved configuration and the collaborators the data
// commands share.
type session struct {
	cfg     *config.Config
	pipe    *pipeline.Pipeline
	matcher *category.Matcher
	store   *state.Store
}

// flagLayer returns the config values set through global flags.
func flagLayer() *config.Config {
	return &config.Config{DerivedData: derivedData, Parser: parserFlag}
}

// loadConfig resolves and validates configuration. projectRoot may be
// empty, in which case no project file is read.
func loadConfig(projectRoot string) (*config.Config, error) {
	cfg, err := config.Resolve(projectRoot, flagLayer())
	if err != nil {
		return nil, exitError(ExitInvalidArgs, "buildsignal: failed to load config (%v)", err)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, exitError(ExitInvalidArgs, "buildsignal: %v", err)
	}
	return cfg, nil
}

// newSession loads config and builds the parser stack and pipeline.
// memoryCache sizes the in-process parse cache; zero disables it.
func newSession(ctx context.Context, memoryCache int) (*session, error) {
	cfg, err := loadConfig("")
	if err != nil {
		return nil, err
	}

	cacheDir := ""
	if !noCache {
		cacheDir = state.DefaultDir()
	}
	parser, err := newParser(ctx, pipeline.ParserOptions{
		Backend:      cfg.Parser,
		IncludeNotes: cfg.Notes(),
		CacheDir:     cacheDir,
		MemoryCache:  memoryCache,
	})
	if err != nil {
		return nil, exitError(ExitFailure, "buildsignal: %v", err)
	}

	pipe, err := pipeline.New(pipeline.Config{
		DerivedData: cfg.DerivedData,
		Parser:      parser,
		Concurrency: cfg.Concurrency,
	})
	if err != nil {
		return nil, exitError(ExitFailure, "buildsignal: %v", err)
	}

	matcher, err := category.NewMatcher(cfg.CustomCategories)
	if err != nil {
		return nil, exitError(ExitInvalidArgs, "buildsignal: %v", err)
	}

	return &session{
		cfg:     cfg,
		pipe:    pipe,
		matcher: matcher,
		store:   state.NewStore(state.DefaultDir()),
	}, nil
}

// project resolves query to one project and layers that project's
// .buildsignal.yaml over the session config. The parser stack is already
// built, so the project file only affects filtering, categories and
// output.
func (s *session) project(ctx context.Context, query string) (*deriveddata.Project, error) {
	projects, err := s.pipe.Projects(ctx)
	if err != nil {
		return nil, exitError(ExitFailure, "buildsignal: cannot read DerivedData (%v)", err)
	}
	proj, err := deriveddata.Find(projects, query)
	if err != nil {
		return nil, exitError(ExitInvalidArgs, "buildsignal: %v", err)
	}

	root := scope.ProjectRoot(proj.WorkspacePath)
	if root == "" {
		return proj, nil
	}
	cfg, err := loadConfig(root)
	if err != nil {
		return nil, err
	}
	matcher, err := category.NewMatcher(cfg.CustomCategories)
	if err != nil {
		return nil, exitError(ExitInvalidArgs, "buildsignal: %v", err)
	}
	s.cfg, s.matcher = cfg, matcher
	return proj, nil
}

// filterFlags holds the notice filter flags a command registers.
type filterFlags struct {
	scope    string
	kind     string
	category string
	search   string
	exclude  string
}

// register adds the filter flags to fs. Commands that only scope their
// input pass all=false.
func (f *filterFlags) register(fs *pflag.FlagSet, all bool) {
	fs.StringVar(&f.scope, "scope", "", "notice scope: all, project, packages or dir:<path>")
	fs.StringVar(&f.kind, "kind", "", "comma-separated kinds: error, warning, deprecation, analyzer, note")
	if !all {
		return
	}
	fs.StringVar(&f.category, "category", "", "comma-separated category IDs")
	fs.StringVar(&f.search, "search", "", "case-insensitive text search over title, path and target")
	fs.StringVar(&f.exclude, "exclude", "", "comma-separated glob patterns of paths to drop")
}

func (f *filterFlags) reset() {
	*f = filterFlags{}
}

// filter builds a notice filter from f, falling back to the configured
// default scope and exclude patterns.
func (s *session) filter(f filterFlags) (scope.Filter, error) {
	scopeArg := f.scope
	if scopeArg == "" {
		scopeArg = s.cfg.DefaultScope
	}
	sc, err := scope.Parse(scopeArg)
	if err != nil {
		return scope.Filter{}, exitError(ExitInvalidArgs, "buildsignal: %v", err)
	}
	filter := scope.Filter{
		Scope:      sc,
		Kinds:      splitList(strings.ToLower(f.kind)),
		Categories: splitList(f.category),
		Matcher:    s.matcher,
		Search:     f.search,
		Exclude:    s.cfg.ExcludePatterns,
	}
	if f.exclude != "" {
		filter.Exclude = append(append([]string(nil), filter.Exclude...), splitList(f.exclude)...)
	}
	if err := filter.Validate(); err != nil {
		return scope.Filter{}, exitError(ExitInvalidArgs, "buildsignal: %v (see 'buildsignal categories')", err)
	}
	return filter, nil
}

// buildTarget names the build a command reads: a recorded build of a
// project, or a standalone log file.
type buildTarget struct {
	project string
	build   string
	log     string
}

// run parses the selected build and applies f.
func (s *session) run(ctx context.Context, t buildTarget, f filterFlags) (*pipeline.Result, scope.Filter, error) {
	req := pipeline.Request{Build: t.build}
	if t.log != "" {
		p, err := mcpserver.ResolveLogPath(t.log)
		if err != nil {
			return nil, scope.Filter{}, exitError(ExitInvalidArgs, "buildsignal: %v", err)
		}
		req.LogPath = p
	}
	switch {
	case t.project != "":
		proj, err := s.project(ctx, t.project)
		if err != nil {
			return nil, scope.Filter{}, err
		}
		req.Resolved = proj
		if req.LogPath == "" {
			rec, err := pipeline.ResolveBuild(proj, t.build)
			if err != nil {
				return nil, scope.Filter{}, exitError(ExitInvalidArgs, "buildsignal: %v", err)
			}
			req.Build = rec.ID
		}
	case req.LogPath == "":
		return nil, scope.Filter{}, exitError(ExitInvalidArgs, "buildsignal: a project or --log is required")
	}

	filter, err := s.filter(f)
	if err != nil {
		return nil, scope.Filter{}, err
	}
	req.Filter = filter

	res, err := s.pipe.Run(ctx, req)
	if err != nil {
		return nil, scope.Filter{}, exitError(ExitFailure, "buildsignal: %v", err)
	}
	return res, filter, nil
}

// openOutput returns stdout, or the named file when path is set. The
// returned close func is always safe to call.
func openOutput(cmd *cobra.Command, path string) (io.Writer, func(), error) {
	if path == "" {
		return cmd.OutOrStdout(), func() {}, nil
	}
	f, err := cmdFS.Create(path)
	if err != nil {
		return nil, nil, exitError(ExitInvalidArgs, "buildsignal: cannot create output file %q (%v)", path, err)
	}
	return f, func() { _ = f.Close() }, nil
}

// splitList splits a comma-separated flag value, dropping blanks.
func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// projectArg returns the optional positional project argument.
func projectArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

// parseFailOn validates a --fail-on value.
func parseFailOn(v string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "none":
		return "", nil
	case "error", "errors":
		return "error", nil
	case "warning", "warnings", "any":
		return "warning", nil
	}
	return "", fmt.Errorf("invalid --fail-on %q (want none, error or warning)", v)
}
