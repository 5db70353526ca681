package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/davetashner/buildsignal/internal/deriveddata"
	"github.com/davetashner/buildsignal/internal/report"
)

// Builds flag values.
var (
	buildsJSON  bool
	buildsLimit int
)

// buildsCmd lists the recorded builds of one project.
var buildsCmd = &cobra.Command{
	Use:   "builds <project>",
	Short: "List recorded builds of a project",
	Long: `List the builds recorded in a project's LogStoreManifest.plist, newest first.

The project may be given by name, DerivedData folder ID, or a unique prefix
of either.`,
	Args: cobra.ExactArgs(1),
	RunE: runBuilds,
}

func init() {
	buildsCmd.Flags().BoolVar(&buildsJSON, "json", false, "print JSON instead of a table")
	buildsCmd.Flags().IntVar(&buildsLimit, "limit", 0, "show at most this many builds (0 = all)")
}

func runBuilds(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd.Context(), 0)
	if err != nil {
		return err
	}
	proj, err := s.project(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	builds := proj.Builds
	if buildsLimit > 0 && len(builds) > buildsLimit {
		builds = builds[:buildsLimit]
	}

	w := cmd.OutOrStdout()
	if buildsJSON {
		if builds == nil {
			builds = []deriveddata.BuildRecord{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(builds)
	}

	if len(builds) == 0 {
		_, _ = fmt.Fprintf(w, "No recorded builds for %s\n", proj.Name)
		return nil
	}
	tbl := report.NewTable(
		report.Column{Header: "Build"},
		report.Column{Header: "Status", Color: report.ColorStatus},
		report.Column{Header: "Started"},
		report.Column{Header: "Duration", Align: report.AlignRight},
		report.Column{Header: "Errors", Align: report.AlignRight},
		report.Column{Header: "Warnings", Align: report.AlignRight},
		report.Column{Header: "Scheme"},
	)
	for _, b := range builds {
		tbl.AddRow(shortID(b.ID), string(b.Status),
			b.StartTime.Local().Format("2006-01-02 15:04:05"),
			b.Duration().Round(100*time.Millisecond).String(),
			strconv.Itoa(b.Errors), strconv.Itoa(b.Warnings), b.Scheme)
	}
	return tbl.Render(w)
}

// shortID trims a build UUID to its first block, which is enough to pass
// back to --build as a prefix.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
