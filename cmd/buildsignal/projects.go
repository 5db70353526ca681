package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/davetashner/buildsignal/internal/deriveddata"
	"github.com/davetashner/buildsignal/internal/report"
)

// Projects flag values.
var (
	projectsJSON   bool
	projectsLimit  int
	projectsSearch string
)

// projectsCmd lists the projects found under DerivedData.
var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List Xcode projects found in DerivedData",
	Long: `List every project folder under DerivedData that has a readable info.plist,
most recently used first.`,
	Args: cobra.NoArgs,
	RunE: runProjects,
}

func init() {
	projectsCmd.Flags().BoolVar(&projectsJSON, "json", false, "print JSON instead of a table")
	projectsCmd.Flags().IntVar(&projectsLimit, "limit", 0, "show at most this many projects (0 = all)")
	projectsCmd.Flags().StringVar(&projectsSearch, "search", "", "only projects whose name or workspace path contains this text")
}

// projectJSON is the --json shape of one project.
type projectJSON struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	WorkspacePath string `json:"workspace_path"`
	Path          string `json:"path"`
	LastAccessed  string `json:"last_accessed"`
	Builds        int    `json:"builds"`
	LatestBuild   string `json:"latest_build,omitempty"`
	LatestStatus  string `json:"latest_status,omitempty"`
}

func runProjects(cmd *cobra.Command, _ []string) error {
	s, err := newSession(cmd.Context(), 0)
	if err != nil {
		return err
	}
	projects, err := s.pipe.Projects(cmd.Context())
	if err != nil {
		return exitError(ExitFailure, "buildsignal: cannot read DerivedData (%v)", err)
	}
	projects = searchProjects(projects, projectsSearch, projectsLimit)

	w := cmd.OutOrStdout()
	if projectsJSON {
		out := make([]projectJSON, 0, len(projects))
		for _, p := range projects {
			pj := projectJSON{
				ID:            p.ID,
				Name:          p.Name,
				WorkspacePath: p.WorkspacePath,
				Path:          p.Path,
				LastAccessed:  p.LastAccessed.UTC().Format("2006-01-02T15:04:05Z"),
				Builds:        len(p.Builds),
			}
			if b, ok := p.LatestBuild(); ok {
				pj.LatestBuild = b.ID
				pj.LatestStatus = string(b.Status)
			}
			out = append(out, pj)
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if len(projects) == 0 {
		_, _ = fmt.Fprintf(w, "No projects found in %s\n", s.pipe.Root())
		return nil
	}
	tbl := report.NewTable(
		report.Column{Header: "Project"},
		report.Column{Header: "Builds", Align: report.AlignRight},
		report.Column{Header: "Latest", Color: report.ColorStatus},
		report.Column{Header: "Last used"},
		report.Column{Header: "Workspace", MaxWidth: 60},
	)
	for _, p := range projects {
		latest := "-"
		if b, ok := p.LatestBuild(); ok {
			latest = string(b.Status)
		}
		tbl.AddRow(p.Name, strconv.Itoa(len(p.Builds)), latest,
			p.LastAccessed.Local().Format("2006-01-02 15:04"), p.WorkspacePath)
	}
	return tbl.Render(w)
}

// searchProjects keeps projects whose name or workspace path contains
// search, case-insensitively, up to limit entries.
func searchProjects(projects []deriveddata.Project, search string, limit int) []deriveddata.Project {
	search = strings.ToLower(strings.TrimSpace(search))
	var out []deriveddata.Project
	for _, p := range projects {
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.WorkspacePath), search) {
			continue
		}
		out = append(out, p)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
