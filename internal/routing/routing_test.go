package routing

import (
	"testing"
	"time"

	"github.com/codcod/visor/internal/core"
	"github.com/codcod/visor/internal/verrors"
)

func chainAdjacency() map[string][]string {
	// report -> summarize -> lint
	return map[string][]string{
		"lint":      nil,
		"summarize": {"lint"},
		"report":    {"summarize"},
	}
}

func TestIsAncestorDirect(t *testing.T) {
	c := NewController(chainAdjacency())
	if !c.IsAncestor("summarize", "lint") {
		t.Fatal("lint should be a direct ancestor of summarize")
	}
}

func TestIsAncestorTransitive(t *testing.T) {
	c := NewController(chainAdjacency())
	if !c.IsAncestor("report", "lint") {
		t.Fatal("lint should be a transitive ancestor of report")
	}
}

func TestIsAncestorFalseForDownstream(t *testing.T) {
	c := NewController(chainAdjacency())
	if c.IsAncestor("lint", "report") {
		t.Fatal("report is downstream of lint, not an ancestor")
	}
}

func TestIncrementLoopAndLoopCount(t *testing.T) {
	c := NewController(chainAdjacency())
	if c.LoopCount("lint") != 0 {
		t.Fatal("expected loop count 0 before any increment")
	}
	if got := c.IncrementLoop("lint"); got != 1 {
		t.Fatalf("got %d, want 1", got)
	}
	if got := c.IncrementLoop("lint"); got != 2 {
		t.Fatalf("got %d, want 2", got)
	}
	if c.LoopCount("lint") != 2 {
		t.Fatal("LoopCount should reflect accumulated increments")
	}
}

func TestResolveGotoPrefersAncestorDynamicTarget(t *testing.T) {
	c := NewController(chainAdjacency())
	target, routed := c.ResolveGoto("report", "lint", "")
	if !routed || target != "lint" {
		t.Fatalf("got (%q, %v), want (lint, true)", target, routed)
	}
}

func TestResolveGotoFallsBackToStaticGoto(t *testing.T) {
	c := NewController(chainAdjacency())
	// dynamic target "report" is not an ancestor of "report" itself
	target, routed := c.ResolveGoto("report", "report", "summarize")
	if !routed || target != "summarize" {
		t.Fatalf("got (%q, %v), want (summarize, true)", target, routed)
	}
}

func TestResolveGotoNoRoutingWhenNeitherResolves(t *testing.T) {
	c := NewController(chainAdjacency())
	target, routed := c.ResolveGoto("report", "report", "report")
	if routed || target != "" {
		t.Fatalf("got (%q, %v), want (\"\", false)", target, routed)
	}
}

func TestCheckMaxLoopsFiresAtLimit(t *testing.T) {
	c := NewController(chainAdjacency())
	c.IncrementLoop("lint")
	c.IncrementLoop("lint")
	c.IncrementLoop("lint")

	err := c.CheckMaxLoops("lint", 3)
	if err == nil {
		t.Fatal("expected a max_loops error once loop count reaches the cap")
	}
	if !verrors.Is(err, verrors.KindRoutingMaxLoops) {
		t.Fatalf("expected KindRoutingMaxLoops, got %v", err)
	}
}

func TestCheckMaxLoopsSilentBelowLimit(t *testing.T) {
	c := NewController(chainAdjacency())
	c.IncrementLoop("lint")

	if err := c.CheckMaxLoops("lint", 3); err != nil {
		t.Fatalf("unexpected error below the cap: %v", err)
	}
}

func TestApplyRetryNilPolicyNeverRetries(t *testing.T) {
	d := ApplyRetry(nil, 0)
	if d.ShouldRetry {
		t.Fatal("nil retry policy should never retry")
	}
}

func TestApplyRetryBoundedByMaxAttempts(t *testing.T) {
	policy := &core.RetryPolicy{MaxAttempts: 2, Backoff: 500 * time.Millisecond}

	d := ApplyRetry(policy, 0)
	if !d.ShouldRetry || d.Backoff != 500*time.Millisecond {
		t.Fatalf("got %+v, want ShouldRetry with 500ms backoff", d)
	}

	d = ApplyRetry(policy, 1)
	if !d.ShouldRetry {
		t.Fatal("second attempt should still be allowed (attemptsSoFar < MaxAttempts)")
	}

	d = ApplyRetry(policy, 2)
	if d.ShouldRetry {
		t.Fatal("attempt count reached MaxAttempts, should not retry further")
	}
}

func TestApplyRetryDoesNotTouchLoopCount(t *testing.T) {
	c := NewController(chainAdjacency())
	policy := &core.RetryPolicy{MaxAttempts: 3}
	ApplyRetry(policy, 0)
	if c.LoopCount("lint") != 0 {
		t.Fatal("retry attempts must never affect the routing loop counter")
	}
}
