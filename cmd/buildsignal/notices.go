package main

import (
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/davetashner/buildsignal/internal/output"
	"github.com/davetashner/buildsignal/internal/signal"
)

// Notices flag values.
var (
	noticesBuild   string
	noticesLog     string
	noticesFormat  string
	noticesOutput  string
	noticesFailOn  string
	noticesLimit   int
	noticesFilters filterFlags
)

// noticesCmd parses one build and prints its filtered notices.
var noticesCmd = &cobra.Command{
	Use:     "notices [project]",
	Aliases: []string{"warnings"},
	Short:   "Print the warnings and errors of a build",
	Long: `Parse a build log and print its notices, grouped by category.

The latest build of the project is used unless --build selects another one
by ID prefix. --log parses a standalone .xcactivitylog instead; a project
may still be given to supply the source root used by --scope project.

Examples:
  buildsignal notices MyApp
  buildsignal notices MyApp --scope project --kind warning,deprecation
  buildsignal notices MyApp --category concurrency --format sarif -o out.sarif
  buildsignal warnings --log ~/Desktop/build.xcactivitylog`,
	Args: cobra.MaximumNArgs(1),
	RunE: runNotices,
}

func init() {
	noticesCmd.Flags().StringVar(&noticesBuild, "build", "", "build ID or unique prefix (default: latest)")
	noticesCmd.Flags().StringVar(&noticesLog, "log", "", "parse a standalone .xcactivitylog file")
	noticesCmd.Flags().StringVarP(&noticesFormat, "format", "f", "", "output format: "+strings.Join(output.Formats(), ", "))
	noticesCmd.Flags().StringVarP(&noticesOutput, "output", "o", "", "output file path (default: stdout)")
	noticesCmd.Flags().StringVar(&noticesFailOn, "fail-on", "", "exit 2 when notices remain: none, error or warning")
	noticesCmd.Flags().IntVar(&noticesLimit, "limit", 0, "print at most this many notices (0 = all)")
	noticesFilters.register(noticesCmd.Flags(), true)
}

func runNotices(cmd *cobra.Command, args []string) error {
	failOn, err := parseFailOn(noticesFailOn)
	if err != nil {
		return exitError(ExitInvalidArgs, "buildsignal: %v", err)
	}

	s, err := newSession(cmd.Context(), 0)
	if err != nil {
		return err
	}
	res, filter, err := s.run(cmd.Context(), buildTarget{
		project: projectArg(args),
		build:   noticesBuild,
		log:     noticesLog,
	}, noticesFilters)
	if err != nil {
		return err
	}

	format := noticesFormat
	if format == "" {
		format = s.cfg.OutputFormat
	}
	formatter, err := output.GetFormatter(format)
	if err != nil {
		return exitError(ExitInvalidArgs, "buildsignal: %v", err)
	}

	slog.Info("parsed build", "project", res.Name(), "build", res.BuildID(),
		"total", res.Total, "matched", len(res.Notices), "duration", res.Duration)

	matched := res.Notices
	if noticesLimit > 0 && len(res.Notices) > noticesLimit {
		res.Notices = res.Notices[:noticesLimit]
	}

	w, closeOut, err := openOutput(cmd, noticesOutput)
	if err != nil {
		return err
	}
	defer closeOut()

	if err := formatter.Format(res.OutputReport(filter.Scope.String(), s.matcher), w); err != nil {
		return exitError(ExitFailure, "buildsignal: formatting failed (%v)", err)
	}
	return failOnGate(failOn, matched)
}

// failOnGate returns an ExitNoticesFound error when notices contain
// anything at or above level. An empty level never fails.
func failOnGate(level string, notices []signal.Notice) error {
	if level == "" {
		return nil
	}
	n := 0
	for _, notice := range notices {
		switch {
		case notice.Type.IsError():
			n++
		case level == "warning" && notice.Type.IsWarning():
			n++
		}
	}
	if n == 0 {
		return nil
	}
	return exitError(ExitNoticesFound, "buildsignal: %d notice(s) at or above %s", n, level)
}
