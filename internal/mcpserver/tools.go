package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/davetashner/buildsignal/internal/category"
	"github.com/davetashner/buildsignal/internal/config"
	"github.com/davetashner/buildsignal/internal/deriveddata"
	"github.com/davetashner/buildsignal/internal/output"
	"github.com/davetashner/buildsignal/internal/pipeline"
	"github.com/davetashner/buildsignal/internal/redact"
	"github.com/davetashner/buildsignal/internal/report"
	"github.com/davetashner/buildsignal/internal/scope"
	"github.com/davetashner/buildsignal/internal/state"
	"github.com/davetashner/buildsignal/internal/tree"
)

// ListProjectsInput is the input schema for the list_projects tool.
type ListProjectsInput struct {
	Search string `json:"search,omitempty" jsonschema:"Only projects whose name or workspace path contains this text (case-insensitive)"`
	Limit  int    `json:"limit,omitempty" jsonschema:"Maximum number of projects to return, most recently used first (0 = all)"`
}

// ListBuildsInput is the input schema for the list_builds tool.
type ListBuildsInput struct {
	Project string `json:"project" jsonschema:"Project name, DerivedData folder ID, or unique ID prefix"`
	Limit   int    `json:"limit,omitempty" jsonschema:"Maximum number of builds to return, newest first (0 = all)"`
}

// NoticesInput is the input schema for the notices tool.
type NoticesInput struct {
	Project  string `json:"project,omitempty" jsonschema:"Project name, DerivedData folder ID, or unique ID prefix"`
	Build    string `json:"build,omitempty" jsonschema:"Build ID or unique prefix (default: latest build)"`
	Log      string `json:"log,omitempty" jsonschema:"Path to a standalone .xcactivitylog instead of a recorded build"`
	Scope    string `json:"scope,omitempty" jsonschema:"all, project, packages, or dir:<path> (default from config)"`
	Kind     string `json:"kind,omitempty" jsonschema:"Comma-separated kinds: warning, error, deprecation, analyzer, note"`
	Category string `json:"category,omitempty" jsonschema:"Comma-separated category IDs (see the categories tool)"`
	Search   string `json:"search,omitempty" jsonschema:"Case-insensitive text matched against title, file path and target"`
	Exclude  string `json:"exclude,omitempty" jsonschema:"Comma-separated glob patterns of files to leave out"`
	Format   string `json:"format,omitempty" jsonschema:"Output format: json, markdown, sarif, text (default: json)"`
	Limit    int    `json:"limit,omitempty" jsonschema:"Cap the number of notices returned (0 = unlimited)"`
}

// TreeInput is the input schema for the tree tool.
type TreeInput struct {
	Project string `json:"project,omitempty" jsonschema:"Project name, DerivedData folder ID, or unique ID prefix"`
	Build   string `json:"build,omitempty" jsonschema:"Build ID or unique prefix (default: latest build)"`
	Log     string `json:"log,omitempty" jsonschema:"Path to a standalone .xcactivitylog instead of a recorded build"`
	Kind    string `json:"kind,omitempty" jsonschema:"Comma-separated kinds to count"`
	Depth   int    `json:"depth,omitempty" jsonschema:"Levels below the root to include (0 = all)"`
	Format  string `json:"format,omitempty" jsonschema:"json or text (default: text)"`
}

// DiffInput is the input schema for the diff tool.
type DiffInput struct {
	Project string `json:"project" jsonschema:"Project name, DerivedData folder ID, or unique ID prefix"`
	Base    string `json:"base,omitempty" jsonschema:"Base build ID or prefix (default: the build before head)"`
	Head    string `json:"head,omitempty" jsonschema:"Head build ID or prefix (default: latest build)"`
	Scope   string `json:"scope,omitempty" jsonschema:"all, project, packages, or dir:<path>"`
}

// ReportInput is the input schema for the report tool.
type ReportInput struct {
	Project  string `json:"project" jsonschema:"Project name, DerivedData folder ID, or unique ID prefix"`
	Build    string `json:"build,omitempty" jsonschema:"Build ID or unique prefix (default: latest build)"`
	Scope    string `json:"scope,omitempty" jsonschema:"all, project, packages, or dir:<path>"`
	Sections string `json:"sections,omitempty" jsonschema:"Comma-separated list of report sections to include"`
}

// CategoriesInput is the input schema for the categories tool.
type CategoriesInput struct{}

// boolPtr returns a pointer to a bool.
func boolPtr(b bool) *bool { return &b }

// readOnly is shared by every tool: none of them modify anything.
var readOnly = &mcp.ToolAnnotations{
	ReadOnlyHint:    true,
	DestructiveHint: boolPtr(false),
	OpenWorldHint:   boolPtr(false),
}

type handlers struct {
	pipe    *pipeline.Pipeline
	cfg     *config.Config
	matcher *category.Matcher
	store   *state.Store
}

// register adds all buildsignal tools to the MCP server.
func (h *handlers) register(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_projects",
		Description: "List Xcode projects found in DerivedData, most recently used first, with their latest build status.",
		Annotations: readOnly,
	}, h.handleListProjects)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_builds",
		Description: "List the recorded builds of one project, newest first, with status and warning/error counts from the build manifest.",
		Annotations: readOnly,
	}, h.handleListBuilds)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "notices",
		Description: "Parse a build log and return its warnings, errors and deprecations, filtered by scope, kind, category and text.",
		Annotations: readOnly,
	}, h.handleNotices)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "tree",
		Description: "Aggregate a build's notices into a directory tree with counts per folder and file, largest first.",
		Annotations: readOnly,
	}, h.handleTree)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "categories",
		Description: "List warning categories in match order, including custom categories from the configuration.",
		Annotations: readOnly,
	}, h.handleCategories)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "diff",
		Description: "Compare the notices of two builds of a project: new, resolved, moved and persisting.",
		Annotations: readOnly,
	}, h.handleDiff)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "report",
		Description: "Generate a build health report: summary, categories, hotspots, deprecated APIs, targets and trends.",
		Annotations: readOnly,
	}, h.handleReport)
}

// projectSummary is one list_projects entry.
type projectSummary struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	WorkspacePath string `json:"workspace_path"`
	LastAccessed  string `json:"last_accessed"`
	Builds        int    `json:"builds"`
	LatestStatus  string `json:"latest_status,omitempty"`
	LatestBuild   string `json:"latest_build,omitempty"`
}

func (h *handlers) handleListProjects(ctx context.Context, _ *mcp.CallToolRequest, input ListProjectsInput) (*mcp.CallToolResult, any, error) {
	projects, err := h.pipe.Projects(ctx)
	if err != nil {
		return nil, nil, toolError(err)
	}

	search := strings.ToLower(strings.TrimSpace(input.Search))
	out := make([]projectSummary, 0, len(projects))
	for _, p := range projects {
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.WorkspacePath), search) {
			continue
		}
		s := projectSummary{
			ID:            p.ID,
			Name:          p.Name,
			WorkspacePath: p.WorkspacePath,
			LastAccessed:  p.LastAccessed.UTC().Format("2006-01-02T15:04:05Z"),
			Builds:        len(p.Builds),
		}
		if b, ok := p.LatestBuild(); ok {
			s.LatestBuild = b.ID
			s.LatestStatus = string(b.Status)
		}
		out = append(out, s)
		if input.Limit > 0 && len(out) == input.Limit {
			break
		}
	}
	return jsonResult(out)
}

func (h *handlers) handleListBuilds(ctx context.Context, _ *mcp.CallToolRequest, input ListBuildsInput) (*mcp.CallToolResult, any, error) {
	if input.Project == "" {
		return nil, nil, errors.New("project is required")
	}
	proj, err := h.pipe.Project(ctx, input.Project)
	if err != nil {
		return nil, nil, toolError(err)
	}
	builds := proj.Builds
	if input.Limit > 0 && len(builds) > input.Limit {
		builds = builds[:input.Limit]
	}
	if builds == nil {
		builds = []deriveddata.BuildRecord{}
	}
	return jsonResult(builds)
}

func (h *handlers) handleNotices(ctx context.Context, _ *mcp.CallToolRequest, input NoticesInput) (*mcp.CallToolResult, any, error) {
	format := "json"
	if input.Format != "" {
		format = input.Format
	}
	formatter, err := output.GetFormatter(format)
	if err != nil {
		return nil, nil, fmt.Errorf("unsupported format %q (available: %s)", format, strings.Join(output.Formats(), ", "))
	}

	filter, err := h.filter(input.Scope, input.Kind, input.Category, input.Search, input.Exclude)
	if err != nil {
		return nil, nil, err
	}
	res, err := h.run(ctx, input.Project, input.Build, input.Log, filter)
	if err != nil {
		return nil, nil, err
	}
	if input.Limit > 0 && len(res.Notices) > input.Limit {
		res.Notices = res.Notices[:input.Limit]
	}

	var buf bytes.Buffer
	if err := formatter.Format(res.OutputReport(filter.Scope.String(), h.matcher), &buf); err != nil {
		return nil, nil, fmt.Errorf("formatting failed: %w", err)
	}
	return textResult(buf.String()), nil, nil
}

func (h *handlers) handleTree(ctx context.Context, _ *mcp.CallToolRequest, input TreeInput) (*mcp.CallToolResult, any, error) {
	filter, err := h.filter("", input.Kind, "", "", "")
	if err != nil {
		return nil, nil, err
	}
	res, err := h.run(ctx, input.Project, input.Build, input.Log, filter)
	if err != nil {
		return nil, nil, err
	}

	root := tree.Build(res.Notices)
	switch input.Format {
	case "", "text":
		var buf bytes.Buffer
		if err := tree.Render(&buf, root, input.Depth); err != nil {
			return nil, nil, err
		}
		return textResult(buf.String()), nil, nil
	case "json":
		return jsonResult(root)
	}
	return nil, nil, fmt.Errorf("unsupported format %q (supported: json, text)", input.Format)
}

func (h *handlers) handleCategories(_ context.Context, _ *mcp.CallToolRequest, _ CategoriesInput) (*mcp.CallToolResult, any, error) {
	return jsonResult(h.matcher.Categories())
}

func (h *handlers) handleDiff(ctx context.Context, _ *mcp.CallToolRequest, input DiffInput) (*mcp.CallToolResult, any, error) {
	if input.Project == "" {
		return nil, nil, errors.New("project is required")
	}
	filter, err := h.filter(input.Scope, "", "", "", "")
	if err != nil {
		return nil, nil, err
	}
	cmp, err := h.pipe.Compare(ctx, pipeline.CompareRequest{
		Project: input.Project,
		Base:    input.Base,
		Head:    input.Head,
		Filter:  filter,
	})
	if err != nil {
		return nil, nil, toolError(err)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s: %s -> %s\n", cmp.Head.Name(), cmp.Base.BuildID(), cmp.Head.BuildID())
	if err := state.FormatDiff(cmp.Diff, &buf); err != nil {
		return nil, nil, err
	}
	return textResult(buf.String()), nil, nil
}

func (h *handlers) handleReport(ctx context.Context, _ *mcp.CallToolRequest, input ReportInput) (*mcp.CallToolResult, any, error) {
	if input.Project == "" {
		return nil, nil, errors.New("project is required")
	}
	filter, err := h.filter(input.Scope, "", "", "", "")
	if err != nil {
		return nil, nil, err
	}
	res, err := h.run(ctx, input.Project, input.Build, "", filter)
	if err != nil {
		return nil, nil, err
	}

	var history *state.BuildHistory
	if h.store != nil {
		history, err = h.store.LoadHistory(res.HistoryKey())
		if err != nil {
			slog.Warn("failed to load build history, continuing without it", "error", err)
			history = nil
		}
	}

	var buf bytes.Buffer
	if err := report.RenderJSON(res.ReportInput(h.matcher, history), splitAndTrim(input.Sections), &buf); err != nil {
		return nil, nil, fmt.Errorf("rendering failed: %w", err)
	}
	return textResult(buf.String()), nil, nil
}

// run parses one build, or a standalone log when logPath is set.
func (h *handlers) run(ctx context.Context, project, build, logPath string, filter scope.Filter) (*pipeline.Result, error) {
	if project == "" && logPath == "" {
		return nil, errors.New("project or log is required")
	}
	if logPath != "" {
		resolved, err := ResolveLogPath(logPath)
		if err != nil {
			return nil, err
		}
		logPath = resolved
	}
	res, err := h.pipe.Run(ctx, pipeline.Request{
		Project: project,
		Build:   build,
		LogPath: logPath,
		Filter:  filter,
	})
	if err != nil {
		return nil, toolError(err)
	}
	return res, nil
}

// filter builds a notice filter from tool arguments, falling back to the
// configured scope and exclude patterns.
func (h *handlers) filter(scopeArg, kinds, categories, search, exclude string) (scope.Filter, error) {
	if scopeArg == "" {
		scopeArg = h.cfg.DefaultScope
	}
	sc, err := scope.Parse(scopeArg)
	if err != nil {
		return scope.Filter{}, err
	}
	f := scope.Filter{
		Scope:      sc,
		Kinds:      splitAndTrim(strings.ToLower(kinds)),
		Categories: splitAndTrim(categories),
		Matcher:    h.matcher,
		Search:     search,
		Exclude:    h.cfg.ExcludePatterns,
	}
	if exclude != "" {
		f.Exclude = append(append([]string(nil), f.Exclude...), splitAndTrim(exclude)...)
	}
	if err := f.Validate(); err != nil {
		return scope.Filter{}, err
	}
	return f, nil
}

// toolError strips secrets from errors that are sent back to the client.
func toolError(err error) error {
	msg := redact.String(err.Error())
	if msg == err.Error() {
		return err
	}
	return errors.New(msg)
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

func jsonResult(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil, nil
}

// splitAndTrim splits a comma-separated string and trims whitespace from each element.
func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
