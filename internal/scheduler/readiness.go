package scheduler

import (
	"github.com/codcod/visor/internal/core"
	"github.com/codcod/visor/internal/planner"
)

// readiness is the §4.6.3 pre-execution verdict for one candidate.
type readiness int

const (
	readinessWait readiness = iota
	readinessReady
	readinessSkip
)

// evaluateDependencies implements §4.6.3 steps 1-2: hard-dependency and
// ANY-OF-group gating. It never evaluates the `if` predicate (step 3,
// requires the sandbox and is done by the caller once dependencies clear).
func evaluateDependencies(plan *planner.Plan, checks map[string]core.CheckConfig, table *branchTable, cand candidate) (readiness, string) {
	groups := plan.AnyOfGroups[cand.checkID]

	grouped := make(map[string]bool) // dependency IDs that belong to some ANY-OF token
	for _, members := range groups {
		for _, m := range members {
			grouped[m] = true
		}
	}

	for _, members := range groups {
		anySucceeded := false
		allDone := true
		for _, m := range members {
			rec, ok := table.lookup(cand.branch, m)
			if !ok {
				allDone = false
				continue
			}
			if rec.status == statusSucceeded {
				anySucceeded = true
			}
		}
		if anySucceeded {
			continue
		}
		if allDone {
			return readinessSkip, "dependency_failed"
		}
		return readinessWait, ""
	}

	for _, depID := range plan.Adjacency[cand.checkID] {
		if grouped[depID] {
			continue
		}
		rec, ok := table.lookup(cand.branch, depID)
		if !ok {
			return readinessWait, ""
		}
		if rec.status == statusSucceeded {
			continue
		}
		depCfg := checks[depID]
		if depCfg.ContinueOnFailure {
			continue
		}
		if rec.status == statusFailed {
			return readinessSkip, "dependency_failed"
		}
		return readinessSkip, "dependency_skipped"
	}

	return readinessReady, ""
}
