package scheduler

import (
	"strings"

	"github.com/codcod/visor/internal/core"
)

// runStatus is one check's terminal outcome within one branch (§4.6.7).
type runStatus int

const (
	statusSucceeded runStatus = iota
	statusFailed
	statusSkipped
)

// branchRecord is what the coordinator remembers about one checkID once it
// reaches a terminal state in one branch.
type branchRecord struct {
	status     runStatus
	skipReason string
	output     core.CheckOutput
}

// branchTable is the coordinator's single-writer store of per-(branch,
// checkID) terminal records (§5: "single-writer discipline on the
// HistoryMap, CheckStats, and routing bookkeeping"). Keyed by
// BranchPath.Key(), then checkID.
type branchTable struct {
	records map[string]map[string]branchRecord
}

func newBranchTable() *branchTable {
	return &branchTable{records: make(map[string]map[string]branchRecord)}
}

func (t *branchTable) set(branch core.BranchPath, checkID string, rec branchRecord) {
	key := branch.Key()
	m, ok := t.records[key]
	if !ok {
		m = make(map[string]branchRecord)
		t.records[key] = m
	}
	m[checkID] = rec
}

// lookup finds checkID's record visible from branch, walking up through
// ancestor branches (trimming the most recent forEach step at a time) the
// way a non-forEach dependent shares its forEach parent's branch point
// rather than owning one (§4.6.1).
func (t *branchTable) lookup(branch core.BranchPath, checkID string) (branchRecord, bool) {
	for {
		if m, ok := t.records[branch.Key()]; ok {
			if rec, ok := m[checkID]; ok {
				return rec, true
			}
		}
		if len(branch) == 0 {
			return branchRecord{}, false
		}
		branch = branch[:len(branch)-1]
	}
}

// resetDescendants drops every record recorded at or below a given ancestor checkID
// within branch, the way a `goto` rewind must "reset descendants' per-loop
// caches" (§4.6.5 step 3) so a re-run doesn't see stale completions from
// the prior loop. Only records whose branch is branch itself or a
// sub-branch of it (a descendant forEach iteration) are dropped — a goto
// fired from one iteration branch must not disturb sibling iterations.
func (t *branchTable) resetDescendants(branch core.BranchPath, descendants map[string]bool) {
	prefix := branch.Key()
	for key, m := range t.records {
		if key != prefix && !strings.HasPrefix(key, prefix+"/") {
			continue
		}
		for id := range descendants {
			delete(m, id)
		}
	}
}

// candidate is one not-yet-dispatched (checkID, branch, loop) unit of work
// the coordinator is considering.
type candidate struct {
	checkID       string
	branch        core.BranchPath
	loopCount     int
	iterationItem any
	hasIteration  bool
	event         string
}

func (c candidate) key() string {
	return c.checkID + "\x1f" + c.branch.Key() + "\x1f" + itoa(c.loopCount)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
