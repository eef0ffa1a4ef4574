package tasks

import (
	"accounts/internal/archive"
	"accounts/internal/metrics"
)

// CompanyReport is the outcome of processing one company.
type CompanyReport struct {
	CompanyID uint
	Number    string

	// HistoryErr is set when the filing history could not be fetched.
	HistoryErr       error
	HistoryAvailable bool

	Selected      int
	Archived      []*archive.Artifact
	Failed        int
	PersistFailed int
}

func (r *CompanyReport) Outcome() string {
	switch {
	case r.HistoryErr != nil:
		return metrics.OutcomeFailed
	case !r.HistoryAvailable:
		return metrics.OutcomeNoHistory
	case r.Selected == 0:
		return metrics.OutcomeNoFilings
	case len(r.Archived) == r.Selected:
		return metrics.OutcomeArchived
	case len(r.Archived) == 0:
		return metrics.OutcomeFailed
	default:
		return metrics.OutcomePartial
	}
}

// RunSummary aggregates the company reports of one archive run.
type RunSummary struct {
	RunID string
	Total int64
	Pages int

	Companies     int
	HistoryErrors int
	WithHistory   int
	Selected      int
	Archived      int
	Failed        int
	PersistFailed int
}

func (s *RunSummary) add(r *CompanyReport) {
	s.Companies++
	if r.HistoryErr != nil {
		s.HistoryErrors++
	}
	if r.HistoryAvailable {
		s.WithHistory++
	}
	s.Selected += r.Selected
	s.Archived += len(r.Archived)
	s.Failed += r.Failed
	s.PersistFailed += r.PersistFailed
}
