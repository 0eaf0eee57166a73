// Package routing implements the Routing & Retry Controller (§4.7): the
// per-run bookkeeping that lets a check's `goto`/`goto_js` jump back to an
// ancestor with an incremented loop counter, bounded by `max_loops`, kept
// distinct from the separate `retry` attempt/backoff policy.
package routing

import (
	"sync"
	"time"

	"github.com/codcod/visor/internal/core"
	"github.com/codcod/visor/internal/verrors"
)

// Controller owns loopCount per check ID for one run (§4.7: "Owns loopCount
// per (checkId) within a run"). It is built once from the Planner's static
// adjacency (check ID -> direct dependency IDs) and is safe for concurrent
// use, though in practice only the scheduler's single coordinator goroutine
// writes to it.
type Controller struct {
	mu            sync.Mutex
	adjacency     map[string][]string
	ancestorCache map[string]map[string]bool
	loopCount     map[string]int
}

// NewController builds a Controller from the Planner's static dependency
// adjacency (Plan.Adjacency).
func NewController(adjacency map[string][]string) *Controller {
	return &Controller{
		adjacency:     adjacency,
		ancestorCache: make(map[string]map[string]bool),
		loopCount:     make(map[string]int),
	}
}

// IsAncestor reports whether candidateID is a (direct or transitive)
// dependency of checkID in the static DAG — i.e. whether a goto from
// checkID to candidateID is a legal backward jump rather than an
// indistinguishable-from-forward-scheduling downstream jump (§4.7).
func (c *Controller) IsAncestor(checkID, candidateID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ancestorsLocked(checkID)[candidateID]
}

func (c *Controller) ancestorsLocked(checkID string) map[string]bool {
	if set, ok := c.ancestorCache[checkID]; ok {
		return set
	}
	set := make(map[string]bool)
	var visit func(id string)
	visit = func(id string) {
		for _, dep := range c.adjacency[id] {
			if !set[dep] {
				set[dep] = true
				visit(dep)
			}
		}
	}
	visit(checkID)
	c.ancestorCache[checkID] = set
	return set
}

// LoopCount returns the current loop count for checkID (0 if it has never
// been routed back to).
func (c *Controller) LoopCount(checkID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loopCount[checkID]
}

// IncrementLoop increments and returns checkID's loop count.
func (c *Controller) IncrementLoop(checkID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loopCount[checkID]++
	return c.loopCount[checkID]
}

// ResolveGoto implements §4.6.1 step 3 and the §7 routing-error fallback
// policy: a dynamic goto_js target only routes when it names an ancestor of
// currentCheckID; otherwise the static `goto` (if any) is used; otherwise
// there is no routing. routed is false when neither target applies.
func (c *Controller) ResolveGoto(currentCheckID, dynamicTarget, staticGoto string) (target string, routed bool) {
	if dynamicTarget != "" && c.IsAncestor(currentCheckID, dynamicTarget) {
		return dynamicTarget, true
	}
	if staticGoto != "" && c.IsAncestor(currentCheckID, staticGoto) {
		return staticGoto, true
	}
	return "", false
}

// CheckMaxLoops surfaces MaxLoops as a fatal recorded condition (§4.7, §8
// "Max loops exceeded"): once ancestorID's loop count has reached maxLoops,
// routing to it must stop.
func (c *Controller) CheckMaxLoops(ancestorID string, maxLoops int) error {
	if c.LoopCount(ancestorID) >= maxLoops {
		return verrors.New(verrors.KindRoutingMaxLoops, "routing.Route", ancestorID,
			errMaxLoopsExceeded{checkID: ancestorID, max: maxLoops})
	}
	return nil
}

type errMaxLoopsExceeded struct {
	checkID string
	max     int
}

func (e errMaxLoopsExceeded) Error() string {
	return "check exceeded max_loops"
}

// RetryDecision is what ApplyRetry computes for one failed attempt.
type RetryDecision struct {
	ShouldRetry bool
	Backoff     time.Duration
}

// ApplyRetry implements the `retry` policy (§4.7): bounded attempts with an
// optional fixed backoff, entirely independent of loopCount — a retried
// attempt never touches the goto/loop machinery above.
func ApplyRetry(policy *core.RetryPolicy, attemptsSoFar int) RetryDecision {
	if policy == nil || attemptsSoFar >= policy.MaxAttempts {
		return RetryDecision{}
	}
	return RetryDecision{ShouldRetry: true, Backoff: policy.Backoff}
}
