package aggregator

import (
	"encoding/json"

	"github.com/codcod/visor/internal/core"
)

// jsonReport mirrors §6's external execution-report JSON shape exactly —
// a nested reviewSummary/executionStatistics envelope, not a flat dump of
// core.ExecutionReport's own field names.
type jsonReport struct {
	ReviewSummary struct {
		Issues  []core.Issue    `json:"issues"`
		Output  any             `json:"output,omitempty"`
		History core.HistoryMap `json:"history"`
		Error   string          `json:"error,omitempty"`
	} `json:"reviewSummary"`
	ExecutionStatistics struct {
		TotalChecksConfigured int               `json:"totalChecksConfigured"`
		TotalExecutions       int               `json:"totalExecutions"`
		FailedExecutions      int               `json:"failedExecutions"`
		SkippedChecks         int               `json:"skippedChecks"`
		Checks                []core.CheckStats `json:"checks"`
	} `json:"executionStatistics"`
	FailureConditions []core.FailureConditionResult `json:"failureConditions,omitempty"`
}

// ToJSON renders report in the §6 external wire shape. Callers typically
// pass the result of Finalize so Issues are deduped first.
func ToJSON(report *core.ExecutionReport) ([]byte, error) {
	var doc jsonReport
	doc.ReviewSummary.Issues = report.Issues
	doc.ReviewSummary.Output = report.Output
	doc.ReviewSummary.History = report.History
	doc.ReviewSummary.Error = report.Error
	doc.ExecutionStatistics.TotalChecksConfigured = report.TotalChecksConfigured
	doc.ExecutionStatistics.TotalExecutions = report.TotalExecutions
	doc.ExecutionStatistics.FailedExecutions = report.FailedExecutions
	doc.ExecutionStatistics.SkippedChecks = report.SkippedChecks
	doc.ExecutionStatistics.Checks = report.Checks
	doc.FailureConditions = report.FailureConditions

	return json.MarshalIndent(doc, "", "  ")
}

// ExitCode maps a finished report to the §6 process exit code: 0 success,
// 3 when at least one execution failed without halting (fail_if, a fired
// failure condition, or a provider error or timeout), 4 halted.
// Validation/execution-error exit codes (1, 2) are the caller's concern —
// those come from an error returned before a report ever exists.
func ExitCode(report *core.ExecutionReport) int {
	switch {
	case report.Halted:
		return 4
	case report.FailedExecutions > 0:
		return 3
	default:
		return 0
	}
}
