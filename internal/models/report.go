package models

import "time"

// Overall run status constants
const (
	OverallPass     = "PASS"     // All tests passed
	OverallDegraded = "DEGRADED" // Some failures, no critical issues
	OverallFail     = "FAIL"     // Critical issues or infrastructure failure
)

// Report is the complete output of one harness run: suite results, analyzed
// issues, and improvement plans. It is always well-formed, including after a
// total environment failure.
type Report struct {
	StartedAt             time.Time         `json:"started_at"`
	FinishedAt            time.Time         `json:"finished_at"`
	SuiteResults          []SuiteResult     `json:"suite_results"`
	Issues                []Issue           `json:"issues"`
	Plans                 []ImprovementPlan `json:"plans"`
	OverallStatus         string            `json:"overall_status"`
	InfrastructureFailure bool              `json:"infrastructure_failure,omitempty"`
}

// Totals sums the suite counts across all suites in the report.
func (r *Report) Totals() SuiteCounts {
	var total SuiteCounts
	for i := range r.SuiteResults {
		c := r.SuiteResults[i].Counts()
		total.Passed += c.Passed
		total.Failed += c.Failed
		total.Skipped += c.Skipped
		total.Errored += c.Errored
	}
	return total
}

// ComputeOverallStatus derives the overall status from the suite totals and
// issue severities.
func (r *Report) ComputeOverallStatus() string {
	if r.InfrastructureFailure {
		return OverallFail
	}
	for i := range r.Issues {
		if r.Issues[i].Severity == SeverityCritical {
			return OverallFail
		}
	}
	t := r.Totals()
	if t.Failed > 0 || t.Errored > 0 {
		return OverallDegraded
	}
	return OverallPass
}
