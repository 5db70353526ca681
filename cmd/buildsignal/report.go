package main

import (
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/davetashner/buildsignal/internal/pipeline"
	"github.com/davetashner/buildsignal/internal/report"
	"github.com/davetashner/buildsignal/internal/state"
)

// Report flag values.
var (
	reportBuild     string
	reportLog       string
	reportSections  string
	reportFormat    string
	reportOutput    string
	reportNoHistory bool
	reportFilters   filterFlags
)

// reportCmd renders a build health report.
var reportCmd = &cobra.Command{
	Use:   "report [project]",
	Short: "Generate a build health report",
	Long: `Parse a build and render a report made of sections: a summary, category
counts, hotspot files and directories, the most used deprecated APIs, notices
per target, and trends across recorded builds.

Each report records the build's counts in the project's history so the
trends section has data to work with. Use --no-history to skip that.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportBuild, "build", "", "build ID or unique prefix (default: latest)")
	reportCmd.Flags().StringVar(&reportLog, "log", "", "report on a standalone .xcactivitylog file")
	reportCmd.Flags().StringVar(&reportSections, "sections", "", "comma-separated sections to include: "+strings.Join(report.List(), ", "))
	reportCmd.Flags().StringVarP(&reportFormat, "format", "f", "text", "output format: text or json")
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "output file path (default: stdout)")
	reportCmd.Flags().BoolVar(&reportNoHistory, "no-history", false, "do not record this build in the project history")
	reportFilters.register(reportCmd.Flags(), true)
}

func runReport(cmd *cobra.Command, args []string) error {
	if reportFormat != "text" && reportFormat != "json" {
		return exitError(ExitInvalidArgs, "buildsignal: unsupported report format %q (supported: json, text)", reportFormat)
	}
	sections := splitList(reportSections)
	for _, name := range sections {
		if report.Get(name) == nil {
			return exitError(ExitInvalidArgs, "buildsignal: unknown section %q (available: %s)", name, strings.Join(report.List(), ", "))
		}
	}

	s, err := newSession(cmd.Context(), 0)
	if err != nil {
		return err
	}
	res, _, err := s.run(cmd.Context(), buildTarget{
		project: projectArg(args),
		build:   reportBuild,
		log:     reportLog,
	}, reportFilters)
	if err != nil {
		return err
	}

	history := s.recordHistory(res, !reportNoHistory)

	w, closeOut, err := openOutput(cmd, reportOutput)
	if err != nil {
		return err
	}
	defer closeOut()

	in := res.ReportInput(s.matcher, history)
	if reportFormat == "json" {
		err = report.RenderJSON(in, sections, w)
	} else {
		err = report.Render(in, sections, w)
	}
	if err != nil {
		return exitError(ExitFailure, "buildsignal: rendering report failed (%v)", err)
	}
	return nil
}

// recordHistory loads the history for res and, when save is set, appends
// res and writes it back. History problems are logged, never fatal.
func (s *session) recordHistory(res *pipeline.Result, save bool) *state.BuildHistory {
	key := res.HistoryKey()
	history, err := s.store.LoadHistory(key)
	if err != nil {
		slog.Warn("failed to load build history, starting a new one", "project", key, "error", err)
		history = nil
	}
	if !save {
		return history
	}
	history = state.AppendEntry(history, res.HistoryEntry(s.matcher))
	if err := s.store.SaveHistory(key, history); err != nil {
		slog.Warn("failed to save build history", "project", key, "error", err)
	}
	return history
}
