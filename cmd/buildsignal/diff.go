package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/davetashner/buildsignal/internal/pipeline"
	"github.com/davetashner/buildsignal/internal/signal"
	"github.com/davetashner/buildsignal/internal/state"
)

// Diff flag values.
var (
	diffBase      string
	diffHead      string
	diffJSON      bool
	diffFailOnNew bool
	diffFilters   filterFlags
)

// diffCmd compares the notices of two builds.
var diffCmd = &cobra.Command{
	Use:   "diff <project>",
	Short: "Compare the notices of two builds",
	Long: `Compare two builds of a project. By default the latest build is compared
with the one recorded before it. Notices are matched by type, title and
file, so a warning that only moved lines is reported as moved rather than
as resolved and new.

Examples:
  buildsignal diff MyApp
  buildsignal diff MyApp --base 1A2B --head 3C4D --scope project
  buildsignal diff MyApp --fail-on-new`,
	Args: cobra.ExactArgs(1),
	RunE: runDiff,
}

func init() {
	diffCmd.Flags().StringVar(&diffBase, "base", "", "base build ID or prefix (default: the build before --head)")
	diffCmd.Flags().StringVar(&diffHead, "head", "", "head build ID or prefix (default: latest)")
	diffCmd.Flags().BoolVar(&diffJSON, "json", false, "print the diff as JSON")
	diffCmd.Flags().BoolVar(&diffFailOnNew, "fail-on-new", false, "exit 2 when the head build has new notices")
	diffFilters.register(diffCmd.Flags(), true)
}

// diffJSONOutput is the --json shape of a comparison.
type diffJSONOutput struct {
	Project    string                  `json:"project"`
	Base       string                  `json:"base"`
	Head       string                  `json:"head"`
	Added      []signal.Notice         `json:"added"`
	Removed    []state.AnnotatedNotice `json:"removed"`
	Moved      []state.MovedNotice     `json:"moved"`
	Persisting int                     `json:"persisting"`
}

func runDiff(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd.Context(), 0)
	if err != nil {
		return err
	}
	proj, err := s.project(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	filter, err := s.filter(diffFilters)
	if err != nil {
		return err
	}

	cmp, err := s.pipe.Compare(cmd.Context(), pipeline.CompareRequest{
		Resolved: proj,
		Base:     diffBase,
		Head:     diffHead,
		Filter:   filter,
	})
	if err != nil {
		return exitError(ExitFailure, "buildsignal: %v", err)
	}

	w := cmd.OutOrStdout()
	if diffJSON {
		out := diffJSONOutput{
			Project:    proj.Name,
			Base:       cmp.Base.BuildID(),
			Head:       cmp.Head.BuildID(),
			Added:      nonNil(cmp.Diff.Added),
			Removed:    state.AnnotateRemoved(cmp.Diff.Removed),
			Moved:      cmp.Diff.Moved,
			Persisting: len(cmp.Diff.Persisting) + len(cmp.Diff.Moved),
		}
		if out.Removed == nil {
			out.Removed = []state.AnnotatedNotice{}
		}
		if out.Moved == nil {
			out.Moved = []state.MovedNotice{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return err
		}
	} else {
		_, _ = fmt.Fprintf(w, "%s: %s -> %s\n", proj.Name, shortID(cmp.Base.BuildID()), shortID(cmp.Head.BuildID()))
		if err := state.FormatDiff(cmp.Diff, w); err != nil {
			return err
		}
	}

	if diffFailOnNew && len(cmp.Diff.Added) > 0 {
		return exitError(ExitNoticesFound, "buildsignal: %d new notice(s) since %s", len(cmp.Diff.Added), shortID(cmp.Base.BuildID()))
	}
	return nil
}

func nonNil(n []signal.Notice) []signal.Notice {
	if n == nil {
		return []signal.Notice{}
	}
	return n
}
