// Package planner builds an executable Plan from a check map: which checks
// are applicable to the triggering event and tag policy, how their
// dependencies (including ANY-OF tokens) resolve into a DAG, and the
// parallel-execution levels a topological sort over that DAG produces
// (§4.5).
package planner

import (
	"sort"
	"strings"

	"github.com/codcod/visor/internal/core"
	"github.com/codcod/visor/internal/verrors"
)

// TagFilter is the include/exclude tag policy applied before graph
// construction. An empty Include matches every check regardless of tags;
// Exclude always overrides a matching Include.
type TagFilter struct {
	Include []string
	Exclude []string
}

// Plan is the Planner's output (§4.5): a leveled topological order plus the
// adjacency and ANY-OF group bookkeeping the scheduler needs to gate
// dependents correctly.
type Plan struct {
	// Levels groups check IDs that may run in parallel; Levels[i] depends
	// only on checks in Levels[0..i-1].
	Levels [][]string

	// Adjacency maps a check ID to the direct predecessor check IDs it
	// depends on, after ANY-OF expansion and soft-drop. Used for ordering
	// only — ALL-vs-ANY gating semantics live in AnyOfGroups and are the
	// scheduler's concern (§4.6, §4.7).
	Adjacency map[string][]string

	// AnyOfGroups maps a raw depends_on token (e.g. "parse-issue|parse-comment")
	// to the surviving (included, non-soft-dropped) member IDs of that
	// group, for the check that declared it.
	AnyOfGroups map[string]map[string][]string
}

// Build filters checks by event and tag compatibility, expands ANY-OF
// dependency tokens, validates the resulting graph is acyclic, and returns
// a leveled Plan.
//
// requestedChecks, when non-empty, restricts the candidate set to those
// checks and their transitive dependencies before event/tag filtering is
// applied; an empty slice means "every configured check is a candidate."
func Build(checks map[string]core.CheckConfig, requestedChecks []string, filter TagFilter, event string) (*Plan, error) {
	candidates := selectCandidates(checks, requestedChecks)
	included := make(map[string]bool, len(candidates))
	for id, cfg := range candidates {
		if !eventApplies(cfg, event) {
			continue
		}
		if !tagApplies(cfg, filter) {
			continue
		}
		included[id] = true
	}

	adjacency := make(map[string][]string, len(included))
	anyOfGroups := make(map[string]map[string][]string, len(included))

	for id := range included {
		cfg := checks[id]
		var deps []string
		for _, token := range cfg.DependsOn {
			arms := splitArms(token)
			survivors := make([]string, 0, len(arms))
			for _, arm := range arms {
				if included[arm] {
					survivors = append(survivors, arm)
				}
			}
			if len(arms) > 1 {
				if anyOfGroups[id] == nil {
					anyOfGroups[id] = make(map[string][]string)
				}
				anyOfGroups[id][token] = survivors
			}
			deps = append(deps, survivors...)
		}
		adjacency[id] = dedupe(deps)
	}

	levels, err := levelOrder(included, adjacency)
	if err != nil {
		return nil, err
	}

	return &Plan{Levels: levels, Adjacency: adjacency, AnyOfGroups: anyOfGroups}, nil
}

// selectCandidates narrows checks to requestedChecks and their transitive
// dependencies (all ANY-OF arms, since any arm may end up the one that
// runs). An empty requestedChecks means every configured check is a
// candidate.
func selectCandidates(checks map[string]core.CheckConfig, requestedChecks []string) map[string]core.CheckConfig {
	if len(requestedChecks) == 0 {
		return checks
	}

	out := make(map[string]core.CheckConfig, len(requestedChecks))
	var visit func(id string)
	visit = func(id string) {
		if _, done := out[id]; done {
			return
		}
		cfg, ok := checks[id]
		if !ok {
			return
		}
		out[id] = cfg
		for _, token := range cfg.DependsOn {
			for _, arm := range splitArms(token) {
				visit(arm)
			}
		}
	}
	for _, id := range requestedChecks {
		visit(id)
	}
	return out
}

// eventApplies implements §4.5 step 1: a check with no `on` list is
// applicable to every event.
func eventApplies(cfg core.CheckConfig, event string) bool {
	if len(cfg.On) == 0 {
		return true
	}
	for _, e := range cfg.On {
		if e == event {
			return true
		}
	}
	return false
}

// tagApplies implements §4.5 step 2. Exclude always wins over Include.
// A tagless check only survives when no Include list was specified.
func tagApplies(cfg core.CheckConfig, filter TagFilter) bool {
	if len(filter.Exclude) > 0 && hasAny(cfg.Tags, filter.Exclude) {
		return false
	}
	if len(filter.Include) == 0 {
		return true
	}
	if len(cfg.Tags) == 0 {
		return false
	}
	return hasAny(cfg.Tags, filter.Include)
}

func hasAny(tags, set []string) bool {
	for _, t := range tags {
		for _, s := range set {
			if t == s {
				return true
			}
		}
	}
	return false
}

// splitArms splits a depends_on token on "|" (§3: ANY-OF), trimming
// whitespace around each arm.
func splitArms(token string) []string {
	parts := strings.Split(token, "|")
	arms := make([]string, 0, len(parts))
	for _, p := range parts {
		if arm := strings.TrimSpace(p); arm != "" {
			arms = append(arms, arm)
		}
	}
	return arms
}

func dedupe(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// levelOrder runs Kahn's algorithm over adjacency restricted to included
// nodes, peeling one zero-in-degree frontier at a time so each frontier
// becomes a parallel-execution level (§4.5 step 5). A non-empty remainder
// after the queue drains means a cycle; the remainder is the offending set
// (§4.5 step 4, §8 "Circular dependency").
func levelOrder(included map[string]bool, adjacency map[string][]string) ([][]string, error) {
	indegree := make(map[string]int, len(included))
	dependents := make(map[string][]string, len(included))
	for id := range included {
		indegree[id] = 0
	}
	for id := range included {
		for _, dep := range adjacency[id] {
			indegree[id]++
			dependents[dep] = append(dependents[dep], id)
		}
	}

	var frontier []string
	for id, deg := range indegree {
		if deg == 0 {
			frontier = append(frontier, id)
		}
	}
	sort.Strings(frontier)

	var levels [][]string
	visited := 0
	for len(frontier) > 0 {
		levels = append(levels, frontier)
		visited += len(frontier)

		var next []string
		for _, id := range frontier {
			for _, dependent := range dependents[id] {
				indegree[dependent]--
				if indegree[dependent] == 0 {
					next = append(next, dependent)
				}
			}
		}
		sort.Strings(next)
		frontier = next
	}

	if visited < len(included) {
		var remainder []string
		for id, deg := range indegree {
			if deg > 0 {
				remainder = append(remainder, id)
			}
		}
		sort.Strings(remainder)
		return nil, verrors.New(verrors.KindConfigValidate, "planner.Build", strings.Join(remainder, ", "),
			errCycle{remainder})
	}

	return levels, nil
}

// errCycle renders the offending leftover set Kahn's algorithm reports.
type errCycle struct{ ids []string }

func (e errCycle) Error() string {
	return "circular dependency among checks: " + strings.Join(e.ids, ", ")
}
