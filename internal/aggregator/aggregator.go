// Package aggregator implements the Result Aggregator (§4.8): it takes the
// raw ingredients a scheduler run produces (deduped only by nothing —
// history is append-only and issues may repeat across loop iterations)
// and finishes the ExecutionReport: deduping issues by their (file, line,
// ruleId, message) tuple and grouping them for PR-comment rendering.
//
// Modeled on the teacher's orchestration.Engine.generateSummary
// (internal/orchestration/engine.go): a single pass over per-unit results
// folding counts and issues into one summary struct, generalized here from
// per-repository health results to per-check review iterations.
package aggregator

import "github.com/codcod/visor/internal/core"

// GroupBy names the §6 `output.pr_comment.group_by` dimension.
const (
	GroupByCheck    = "check"
	GroupByCategory = "category"
)

// Finalize returns a copy of report with Issues deduplicated (last write
// wins — a later issue with the same file/line/rule/message replaces the
// earlier one in place, matching "history is append-only, the report is not")
// and GroupedOutputs populated per groupBy. report itself is left
// untouched so callers that want the raw, ungrouped ingredients (tests,
// internal tooling) still can.
func Finalize(report *core.ExecutionReport, groupBy string) *core.ExecutionReport {
	if report == nil {
		return nil
	}

	out := *report
	out.Issues = dedupe(report.Issues)
	out.GroupedOutputs = group(out.Issues, groupBy)
	return &out
}

// dedupe collapses issues sharing a DedupKey (§4.8), keeping the
// last-seen occurrence so a later loop iteration's finding supersedes an
// earlier one's at the same (file, line, rule, message) key.
func dedupe(issues []core.Issue) []core.Issue {
	seen := make(map[string]int, len(issues))
	out := make([]core.Issue, 0, len(issues))
	for _, iss := range issues {
		key := iss.DedupKey()
		if idx, ok := seen[key]; ok {
			out[idx] = iss
			continue
		}
		seen[key] = len(out)
		out = append(out, iss)
	}
	return out
}

// group buckets issues by check (Issue.CheckID, stamped by
// scheduler.taggedIssues independently of RuleID) or by category, matching
// §6's two supported `group_by` values. An unrecognized groupBy falls back
// to GroupByCheck, the default §4.9 sets on an OutputConfig.
func group(issues []core.Issue, groupBy string) map[string][]core.Issue {
	grouped := make(map[string][]core.Issue)
	for _, iss := range issues {
		var key string
		switch groupBy {
		case GroupByCategory:
			key = string(iss.Category)
			if key == "" {
				key = "uncategorized"
			}
		default:
			key = checkNameFromIssue(iss)
		}
		grouped[key] = append(grouped[key], iss)
	}
	return grouped
}

// checkNameFromIssue recovers the owning check id from Issue.CheckID,
// falling back to stripping a legacy "check/<id>" RuleID prefix for
// issues a caller built by hand without going through taggedIssues (e.g.
// older fixtures), and finally the raw RuleID if neither applies.
func checkNameFromIssue(iss core.Issue) string {
	if iss.CheckID != "" {
		return iss.CheckID
	}
	const prefix = "check/"
	if len(iss.RuleID) > len(prefix) && iss.RuleID[:len(prefix)] == prefix {
		return iss.RuleID[len(prefix):]
	}
	return iss.RuleID
}

// Counts summarizes a report's pass/fail/skip shape the way a PR comment
// or CLI table header does, without re-walking CheckStats at the render
// layer.
type Counts struct {
	TotalChecks int
	Passed      int
	Failed      int
	Skipped     int
	TotalIssues int
}

// Summarize computes Counts from report.Checks, grounded on
// generateSummary's per-unit status-counting loop.
func Summarize(report *core.ExecutionReport) Counts {
	var c Counts
	for _, st := range report.Checks {
		c.TotalChecks++
		c.TotalIssues += st.IssuesFound
		switch {
		case st.Skipped:
			c.Skipped++
		case st.FailedRuns > 0:
			c.Failed++
		default:
			c.Passed++
		}
	}
	return c
}
