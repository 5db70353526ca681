package pipeline

import (
	"github.com/davetashner/buildsignal/internal/category"
	"github.com/davetashner/buildsignal/internal/output"
	"github.com/davetashner/buildsignal/internal/report"
	"github.com/davetashner/buildsignal/internal/state"
)

// OutputReport adapts r for the output formatters.
func (r *Result) OutputReport(scopeName string, m *category.Matcher) *output.Report {
	return &output.Report{
		Project: r.Name(),
		Root:    r.Root,
		BuildID: r.BuildID(),
		Build:   r.Log,
		Scope:   scopeName,
		Notices: r.Notices,
		Matcher: m,
	}
}

// ReportInput adapts r for the report sections. h may be nil.
func (r *Result) ReportInput(m *category.Matcher, h *state.BuildHistory) *report.Input {
	return &report.Input{
		Project: r.Name(),
		Build:   r.Log,
		Notices: r.Notices,
		Matcher: m,
		History: h,
	}
}

// HistoryEntry summarizes the whole build, before filtering, for the
// project's build history.
func (r *Result) HistoryEntry(m *category.Matcher) state.HistoryEntry {
	log := *r.Log
	if r.all != nil {
		log.Notices = r.all
	}
	if log.StartTime.IsZero() && r.Record != nil {
		log.StartTime = r.Record.StartTime
	}
	id := r.BuildID()
	if id == "" {
		id = r.Name()
	}
	return state.NewHistoryEntry(id, &log, m.Counts(log.Notices))
}

// HistoryKey names the history file for r: the DerivedData folder ID, or
// the log name for standalone logs.
func (r *Result) HistoryKey() string {
	if r.Project != nil {
		return r.Project.ID
	}
	return r.Name()
}
