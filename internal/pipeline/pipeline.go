package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/davetashner/buildsignal/internal/deriveddata"
	"github.com/davetashner/buildsignal/internal/scope"
	"github.com/davetashner/buildsignal/internal/signal"
	"github.com/davetashner/buildsignal/internal/state"
	"github.com/davetashner/buildsignal/internal/xclog"
)

// ErrNoBuilds is returned when a project has no recorded build logs.
var ErrNoBuilds = errors.New("project has no recorded builds")

// Config holds what a Pipeline needs to find and parse logs.
type Config struct {
	// DerivedData is the root folder. Empty means deriveddata.DefaultRoot().
	DerivedData string
	Parser      xclog.Parser
	// Concurrency bounds parallel folder reads and log parses.
	Concurrency int
}

// Pipeline resolves projects and builds and turns their logs into
// filtered notices.
type Pipeline struct {
	config Config
}

// New creates a Pipeline. A parser is required.
func New(config Config) (*Pipeline, error) {
	if config.Parser == nil {
		return nil, errors.New("pipeline: no log parser configured")
	}
	if config.DerivedData == "" {
		config.DerivedData = deriveddata.DefaultRoot()
	}
	if config.Concurrency <= 0 {
		config.Concurrency = deriveddata.DefaultConcurrency
	}
	return &Pipeline{config: config}, nil
}

// Root returns the DerivedData folder being scanned.
func (p *Pipeline) Root() string { return p.config.DerivedData }

// Parser returns the configured log parser.
func (p *Pipeline) Parser() xclog.Parser { return p.config.Parser }

// Projects lists every project under the DerivedData root.
func (p *Pipeline) Projects(ctx context.Context) ([]deriveddata.Project, error) {
	return deriveddata.Discover(ctx, p.config.DerivedData, deriveddata.Options{Concurrency: p.config.Concurrency})
}

// Project resolves query to a single project.
func (p *Pipeline) Project(ctx context.Context, query string) (*deriveddata.Project, error) {
	projects, err := p.Projects(ctx)
	if err != nil {
		return nil, err
	}
	return deriveddata.Find(projects, query)
}

// Request selects one build and how to filter its notices.
type Request struct {
	// Project is a project ID, name or ID prefix. Optional when LogPath is
	// set, in which case it only supplies the project root for scoping.
	Project string
	// Resolved, when set, is used instead of looking Project up again.
	Resolved *deriveddata.Project
	// Build is a build ID or unique prefix. Empty means the latest build.
	Build string
	// LogPath parses a standalone .xcactivitylog instead of a recorded build.
	LogPath string
	Filter  scope.Filter
}

// Result is one parsed and filtered build.
type Result struct {
	// Project is nil for a standalone log without a project.
	Project *deriveddata.Project
	// Record is nil for standalone logs.
	Record *deriveddata.BuildRecord
	Log    *signal.BuildLog
	// Root is the project's source root used for scoping.
	Root string
	// Notices passed validation, deduplication and the filter.
	Notices []signal.Notice
	// Total counts notices after deduplication, before filtering.
	Total int
	// Invalid counts notices dropped by ValidateNotice.
	Invalid  int
	Duration time.Duration

	// all is the deduplicated notice list before filtering.
	all []signal.Notice
}

// Name returns the project name, or the log file name for standalone logs.
func (r *Result) Name() string {
	if r.Project != nil {
		return r.Project.Name
	}
	if r.Log != nil {
		return strings.TrimSuffix(filepath.Base(r.Log.Path), filepath.Ext(r.Log.Path))
	}
	return ""
}

// BuildID returns the build record ID, or "" for standalone logs.
func (r *Result) BuildID() string {
	if r.Record == nil {
		return ""
	}
	return r.Record.ID
}

// Run resolves, parses and filters the requested build.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	if err := req.Filter.Validate(); err != nil {
		return nil, err
	}

	res := &Result{Project: req.Resolved}
	if res.Project == nil && req.Project != "" {
		proj, err := p.Project(ctx, req.Project)
		if err != nil {
			return nil, err
		}
		res.Project = proj
	}
	if res.Project != nil {
		res.Root = scope.ProjectRoot(res.Project.WorkspacePath)
	}

	logPath := req.LogPath
	if logPath == "" {
		if res.Project == nil {
			return nil, errors.New("a project or a log file is required")
		}
		rec, err := ResolveBuild(res.Project, req.Build)
		if err != nil {
			return nil, err
		}
		res.Record = &rec
		logPath = rec.LogPath(res.Project.Path)
	}

	log, err := p.config.Parser.Parse(ctx, logPath)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", logPath, err)
	}
	if res.Record != nil {
		log = withStatus(log, res.Record.Status)
	}
	res.Log = log
	p.finish(res, req.Filter)
	res.Duration = time.Since(start)
	return res, nil
}

// finish validates, dedupes and filters res.Log's notices into res.
func (p *Pipeline) finish(res *Result, filter scope.Filter) {
	res.Invalid = 0
	valid := make([]signal.Notice, 0, len(res.Log.Notices))
	for _, n := range res.Log.Notices {
		if errs := ValidateNotice(n); len(errs) > 0 {
			slog.Debug("skipping invalid notice", "title", n.Title, "errors", errs)
			res.Invalid++
			continue
		}
		valid = append(valid, n)
	}
	notices := scope.Dedupe(valid)
	res.all = notices
	res.Total = len(notices)

	if filter.ProjectRoot == "" {
		filter.ProjectRoot = res.Root
	}
	res.Notices = filter.Apply(notices)
}

// ResolveBuild picks the latest build when query is empty, and otherwise
// the build whose ID matches or uniquely starts with query.
func ResolveBuild(proj *deriveddata.Project, query string) (deriveddata.BuildRecord, error) {
	if query == "" {
		rec, ok := proj.LatestBuild()
		if !ok {
			return deriveddata.BuildRecord{}, fmt.Errorf("%s: %w", proj.Name, ErrNoBuilds)
		}
		return rec, nil
	}
	return proj.FindBuild(query)
}

// Comparison is two builds of one project and the difference between them.
type Comparison struct {
	Base *Result
	Head *Result
	Diff *state.DiffResult
}

// CompareRequest names the project and the builds to compare. Head defaults
// to the latest build and Base to the build recorded just before Head.
type CompareRequest struct {
	Project string
	// Resolved, when set, is used instead of looking Project up again.
	Resolved *deriveddata.Project
	Base     string
	Head     string
	Filter   scope.Filter
}

// Compare parses two builds concurrently and diffs their filtered notices.
func (p *Pipeline) Compare(ctx context.Context, req CompareRequest) (*Comparison, error) {
	if err := req.Filter.Validate(); err != nil {
		return nil, err
	}
	proj := req.Resolved
	if proj == nil {
		var err error
		if proj, err = p.Project(ctx, req.Project); err != nil {
			return nil, err
		}
	}
	head, err := ResolveBuild(proj, req.Head)
	if err != nil {
		return nil, err
	}
	var base deriveddata.BuildRecord
	if req.Base != "" {
		base, err = proj.FindBuild(req.Base)
		if err != nil {
			return nil, err
		}
	} else {
		var ok bool
		base, ok = previousBuild(proj, head.ID)
		if !ok {
			return nil, fmt.Errorf("%s: no build before %s to compare with", proj.Name, head.ID)
		}
	}

	results, err := p.ParseBuilds(ctx, proj, []deriveddata.BuildRecord{base, head})
	if err != nil {
		return nil, err
	}
	for _, r := range results {
		p.finish(r, req.Filter)
	}
	return &Comparison{
		Base: results[0],
		Head: results[1],
		Diff: state.Diff(results[0].Notices, results[1].Notices),
	}, nil
}

// previousBuild returns the build recorded immediately before id. Builds
// are ordered newest first.
func previousBuild(proj *deriveddata.Project, id string) (deriveddata.BuildRecord, bool) {
	for i, b := range proj.Builds {
		if b.ID == id && i+1 < len(proj.Builds) {
			return proj.Builds[i+1], true
		}
	}
	return deriveddata.BuildRecord{}, false
}

// ParseBuilds parses the given records concurrently. Notices are validated
// and deduplicated but not filtered. The first parse failure is returned.
func (p *Pipeline) ParseBuilds(ctx context.Context, proj *deriveddata.Project, records []deriveddata.BuildRecord) ([]*Result, error) {
	root := scope.ProjectRoot(proj.WorkspacePath)
	paths := make([]string, len(records))
	for i, rec := range records {
		paths[i] = rec.LogPath(proj.Path)
	}

	parsed := xclog.ParseAll(ctx, p.config.Parser, paths, p.config.Concurrency)
	results := make([]*Result, len(records))
	for i, pr := range parsed {
		if pr.Err != nil {
			return nil, fmt.Errorf("parse %s: %w", pr.Path, pr.Err)
		}
		rec := records[i]
		log := withStatus(pr.Log, rec.Status)
		results[i] = &Result{Project: proj, Record: &rec, Log: log, Root: root}
		p.finish(results[i], scope.Filter{})
	}
	return results, nil
}

// withStatus returns a copy of log carrying the manifest's build outcome.
// Parsed logs may be shared through the parse cache and are never mutated.
func withStatus(log *signal.BuildLog, status signal.BuildStatus) *signal.BuildLog {
	cp := *log
	cp.Status = status
	return &cp
}
