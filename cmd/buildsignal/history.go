package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/davetashner/buildsignal/internal/report"
	"github.com/davetashner/buildsignal/internal/state"
)

// History flag values.
var (
	historyBackfill int
	historyJSON     bool
)

// historyCmd shows the recorded notice counts of a project's builds.
var historyCmd = &cobra.Command{
	Use:   "history <project>",
	Short: "Show notice counts across recorded builds",
	Long: `Show the notice counts recorded for a project by 'buildsignal report',
oldest first, followed by trends over the most recent builds.

--backfill N parses the N most recent builds still present in DerivedData
and records any that are missing from the history.`,
	Args: cobra.ExactArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyBackfill, "backfill", 0, "parse and record the N most recent builds")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "print the history as JSON")
}

func runHistory(cmd *cobra.Command, args []string) error {
	if historyBackfill < 0 {
		return exitError(ExitInvalidArgs, "buildsignal: --backfill must not be negative")
	}
	s, err := newSession(cmd.Context(), 0)
	if err != nil {
		return err
	}
	proj, err := s.project(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	history, err := s.store.LoadHistory(proj.ID)
	if err != nil {
		return exitError(ExitFailure, "buildsignal: cannot read history (%v)", err)
	}

	if historyBackfill > 0 && len(proj.Builds) > 0 {
		records := proj.Builds
		if len(records) > historyBackfill {
			records = records[:historyBackfill]
		}
		results, err := s.pipe.ParseBuilds(cmd.Context(), proj, records)
		if err != nil {
			return exitError(ExitFailure, "buildsignal: %v", err)
		}
		for _, r := range results {
			history = state.AppendEntry(history, r.HistoryEntry(s.matcher))
		}
		if err := s.store.SaveHistory(proj.ID, history); err != nil {
			return exitError(ExitFailure, "buildsignal: cannot save history (%v)", err)
		}
	}

	w := cmd.OutOrStdout()
	if historyJSON {
		if history == nil {
			history = &state.BuildHistory{Entries: []state.HistoryEntry{}}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(history)
	}

	if history == nil || len(history.Entries) == 0 {
		_, _ = fmt.Fprintf(w, "No history for %s. Run 'buildsignal report %s' or use --backfill.\n", proj.Name, proj.Name)
		return nil
	}

	tbl := report.NewTable(
		report.Column{Header: "Build"},
		report.Column{Header: "Started"},
		report.Column{Header: "Total", Align: report.AlignRight},
		report.Column{Header: "Errors", Align: report.AlignRight},
		report.Column{Header: "Warnings", Align: report.AlignRight},
		report.Column{Header: "Deprecations", Align: report.AlignRight},
	)
	for _, e := range history.Entries {
		tbl.AddRow(shortID(e.BuildID), e.StartTime.Local().Format("2006-01-02 15:04"),
			strconv.Itoa(e.TotalNotices),
			strconv.Itoa(e.KindCounts["error"]),
			strconv.Itoa(e.KindCounts["warning"]),
			strconv.Itoa(e.KindCounts["deprecation"]))
	}
	if err := tbl.Render(w); err != nil {
		return err
	}

	sec := report.Get("trends")
	if sec == nil || sec.Analyze(&report.Input{Project: proj.Name, History: history}) != nil {
		return nil
	}
	_, _ = fmt.Fprintln(w)
	return sec.Render(w)
}
