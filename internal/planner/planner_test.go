package planner

import (
	"testing"

	"github.com/codcod/visor/internal/core"
	"github.com/codcod/visor/internal/verrors"
)

func mustLevel(t *testing.T, levels [][]string, id string) int {
	t.Helper()
	for i, level := range levels {
		for _, v := range level {
			if v == id {
				return i
			}
		}
	}
	t.Fatalf("check %q not found in any level", id)
	return -1
}

func TestBuildLinearChain(t *testing.T) {
	checks := map[string]core.CheckConfig{
		"lint":      {Type: "command"},
		"summarize": {Type: "script", DependsOn: []string{"lint"}},
		"report":    {Type: "log", DependsOn: []string{"summarize"}},
	}

	plan, err := Build(checks, nil, TagFilter{}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan.Levels) != 3 {
		t.Fatalf("got %d levels, want 3: %v", len(plan.Levels), plan.Levels)
	}
	if mustLevel(t, plan.Levels, "lint") >= mustLevel(t, plan.Levels, "summarize") {
		t.Fatal("lint must precede summarize")
	}
	if mustLevel(t, plan.Levels, "summarize") >= mustLevel(t, plan.Levels, "report") {
		t.Fatal("summarize must precede report")
	}
}

func TestBuildParallelLevel(t *testing.T) {
	checks := map[string]core.CheckConfig{
		"a": {Type: "command"},
		"b": {Type: "command"},
		"c": {Type: "command", DependsOn: []string{"a", "b"}},
	}

	plan, err := Build(checks, nil, TagFilter{}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan.Levels) != 2 {
		t.Fatalf("got %d levels, want 2: %v", len(plan.Levels), plan.Levels)
	}
	if len(plan.Levels[0]) != 2 {
		t.Fatalf("want a and b at level 0 together, got %v", plan.Levels[0])
	}
}

// TestBuildAnyOfDependency covers S4: only one ANY-OF arm applicable to the
// triggering event; the group's surviving members list that one arm.
func TestBuildAnyOfDependency(t *testing.T) {
	checks := map[string]core.CheckConfig{
		"parse-issue":   {Type: "command", On: []string{"issue"}},
		"parse-comment": {Type: "command", On: []string{"issue_comment"}},
		"triage":        {Type: "command", DependsOn: []string{"parse-issue|parse-comment"}},
	}

	plan, err := Build(checks, nil, TagFilter{}, "issue_comment")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	survivors := plan.AnyOfGroups["triage"]["parse-issue|parse-comment"]
	if len(survivors) != 1 || survivors[0] != "parse-comment" {
		t.Fatalf("got survivors %v, want [parse-comment]", survivors)
	}
	if len(plan.Adjacency["triage"]) != 1 || plan.Adjacency["triage"][0] != "parse-comment" {
		t.Fatalf("got adjacency %v, want [parse-comment]", plan.Adjacency["triage"])
	}
	for _, level := range plan.Levels {
		for _, id := range level {
			if id == "parse-issue" {
				t.Fatal("parse-issue should be excluded by its `on: [issue]` filter for an issue_comment event")
			}
		}
	}
}

func TestBuildCycleReportsOffendingSet(t *testing.T) {
	checks := map[string]core.CheckConfig{
		"a": {Type: "command", DependsOn: []string{"b"}},
		"b": {Type: "command", DependsOn: []string{"c"}},
		"c": {Type: "command", DependsOn: []string{"a"}},
	}

	_, err := Build(checks, nil, TagFilter{}, "")
	if err == nil {
		t.Fatal("expected a cycle error")
	}
	if !verrors.Is(err, verrors.KindConfigValidate) {
		t.Fatalf("expected KindConfigValidate, got %v", err)
	}
}

func TestBuildEventFilterExcludesCheck(t *testing.T) {
	checks := map[string]core.CheckConfig{
		"pr-only": {Type: "command", On: []string{"pull_request"}},
		"always":  {Type: "command"},
	}

	plan, err := Build(checks, nil, TagFilter{}, "issue_comment")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, level := range plan.Levels {
		for _, id := range level {
			if id == "pr-only" {
				t.Fatal("pr-only should have been excluded by the event filter")
			}
		}
	}
}

// TestBuildTagFilterSoftDropsDependent covers S6: checks depending on
// excluded checks are soft-dropped (the edge disappears, not an error).
func TestBuildTagFilterSoftDropsDependent(t *testing.T) {
	checks := map[string]core.CheckConfig{
		"local-security":  {Type: "command", Tags: []string{"local", "security", "fast"}},
		"remote-security": {Type: "command", Tags: []string{"remote", "security", "slow"}},
		"style":           {Type: "command", Tags: []string{"style", "fast"}},
		"dependent":       {Type: "command", Tags: []string{"fast"}, DependsOn: []string{"remote-security"}},
	}

	plan, err := Build(checks, nil, TagFilter{Include: []string{"fast"}, Exclude: []string{"experimental"}}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	included := map[string]bool{}
	for _, level := range plan.Levels {
		for _, id := range level {
			included[id] = true
		}
	}
	if included["remote-security"] {
		t.Fatal("remote-security lacks the fast tag and should be excluded")
	}
	if !included["dependent"] {
		t.Fatal("dependent should still run; its dependency is soft-dropped, not blocking")
	}
	if len(plan.Adjacency["dependent"]) != 0 {
		t.Fatalf("dependent's edge to the excluded check should be dropped, got %v", plan.Adjacency["dependent"])
	}
}

func TestBuildTaglessCheckExcludedWhenIncludeSpecified(t *testing.T) {
	checks := map[string]core.CheckConfig{
		"tagged":  {Type: "command", Tags: []string{"fast"}},
		"untaged": {Type: "command"},
	}

	plan, err := Build(checks, nil, TagFilter{Include: []string{"fast"}}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	included := map[string]bool{}
	for _, level := range plan.Levels {
		for _, id := range level {
			included[id] = true
		}
	}
	if included["untaged"] {
		t.Fatal("a tagless check should be excluded when an include filter is specified")
	}
	if !included["tagged"] {
		t.Fatal("tagged should survive the include filter")
	}
}

func TestBuildRequestedChecksPullsInTransitiveDeps(t *testing.T) {
	checks := map[string]core.CheckConfig{
		"lint":      {Type: "command"},
		"summarize": {Type: "script", DependsOn: []string{"lint"}},
		"unrelated": {Type: "command"},
	}

	plan, err := Build(checks, []string{"summarize"}, TagFilter{}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	included := map[string]bool{}
	for _, level := range plan.Levels {
		for _, id := range level {
			included[id] = true
		}
	}
	if !included["lint"] || !included["summarize"] {
		t.Fatal("requesting summarize should pull in its lint dependency")
	}
	if included["unrelated"] {
		t.Fatal("unrelated was not requested and should not appear")
	}
}
