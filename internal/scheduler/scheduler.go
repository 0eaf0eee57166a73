// Package scheduler implements the Scheduler / Execution Engine (§4.6), the
// heart of the pipeline: it starts from a Planner Plan's root checks and
// queues each dependent as its dependencies finish, with bounded
// parallelism, fanning out forEach checks into per-item branches,
// gating dependents on dependency/ANY-OF status and `if`, running each
// provider with transform_js/fail_if/failure_conditions applied, and
// routing (`on_success`/`on_fail`/`on_finish`, `goto`/`goto_js`) the result
// back into the queue.
//
// A single coordinator goroutine owns all mutable run state (the
// branchTable, HistoryMap, CheckStats, and the routing.Controller's loop
// counters); workers only execute providers and report back over a
// channel, matching the single-writer discipline of §5.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/codcod/visor/internal/core"
	"github.com/codcod/visor/internal/planner"
	"github.com/codcod/visor/internal/routing"
)

// DefaultCheckTimeout applies when a CheckConfig doesn't set Timeout (§4.6.4).
const DefaultCheckTimeout = 10 * time.Minute

// Engine runs one Plan to completion against a fixed provider registry,
// sandbox, and memory store. It holds no per-run state itself, so one
// Engine can run multiple plans concurrently.
type Engine struct {
	registry       core.Registry
	sandbox        core.Sandbox
	store          core.MemoryStore
	logger         core.Logger
	maxParallelism int
}

// New builds an Engine. maxParallelism <= 0 falls back to
// config.DefaultMaxParallelism's value (3), matching §5's default P.
func New(registry core.Registry, sandbox core.Sandbox, store core.MemoryStore, logger core.Logger, maxParallelism int) *Engine {
	if maxParallelism <= 0 {
		maxParallelism = 3
	}
	return &Engine{registry: registry, sandbox: sandbox, store: store, logger: logger, maxParallelism: maxParallelism}
}

// workResult is what a worker reports back to the coordinator after one
// provider invocation.
type workResult struct {
	cand    candidate
	result  core.IterationResult
	output  core.CheckOutput
	routing *core.RoutingAction
	cfg     core.CheckConfig
}

// run carries one Plan execution's mutable state, touched only from the
// coordinator goroutine in Engine.Run.
type run struct {
	e      *Engine
	event  string
	checks map[string]core.CheckConfig
	plan   *planner.Plan
	ctrl   *routing.Controller

	dependents map[string][]string // checkID -> direct dependent checkIDs

	table   *branchTable
	history core.HistoryMap
	stats   map[string]*core.CheckStats

	issues            []core.Issue
	failureConditions []core.FailureConditionResult
	halted            bool

	// forEach completion bookkeeping, keyed by "checkID/branchKey/loop"
	// (§4.6.6), approximated over direct dependents only — see DESIGN.md.
	forEachProgress map[string]*forEachWave
}

type forEachWave struct {
	total      int
	completed  int
	successful int
	failed     int
	items      []any
	fired      bool
}

// Run executes plan to completion for the given triggering event and
// returns the raw aggregation ingredients (§6): history, per-check stats,
// issues, and any fired failure conditions. internal/aggregator finishes
// dedup/grouping on top of this.
func (e *Engine) Run(ctx context.Context, checks map[string]core.CheckConfig, plan *planner.Plan, event string) (*core.ExecutionReport, error) {
	e.logf().Info("starting scheduler run", core.String("event", event), core.Int("checks", len(checks)), core.Int("maxParallelism", e.maxParallelism))

	dependents := make(map[string][]string)
	for id, deps := range plan.Adjacency {
		for _, dep := range deps {
			dependents[dep] = append(dependents[dep], id)
		}
	}

	r := &run{
		e:               e,
		event:           event,
		checks:          checks,
		plan:            plan,
		ctrl:            routing.NewController(plan.Adjacency),
		dependents:      dependents,
		table:           newBranchTable(),
		history:         make(core.HistoryMap),
		stats:           make(map[string]*core.CheckStats),
		forEachProgress: make(map[string]*forEachWave),
	}
	for id := range checks {
		r.stats[id] = &core.CheckStats{CheckName: id}
	}

	err := r.execute(ctx)

	report := &core.ExecutionReport{
		Issues:                r.issues,
		History:               r.history,
		TotalChecksConfigured: len(checks),
		FailureConditions:     r.failureConditions,
		Halted:                r.halted,
	}
	for _, id := range sortedKeys(r.stats) {
		st := r.stats[id]
		report.Checks = append(report.Checks, *st)
		report.TotalExecutions += st.TotalRuns
		report.FailedExecutions += st.FailedRuns
		if st.Skipped {
			report.SkippedChecks++
		}
	}

	e.logf().Info("scheduler run finished", core.Int("totalExecutions", report.TotalExecutions),
		core.Int("failedExecutions", report.FailedExecutions), core.Bool("halted", report.Halted))

	return report, err
}

// logf returns a non-nil logger, falling back to a discard logger so the
// Engine tolerates a nil Logger the way a zero-value teacher struct would.
func (e *Engine) logf() core.Logger {
	if e.logger != nil {
		return e.logger
	}
	return discardLogger{}
}

type discardLogger struct{}

func (discardLogger) Debug(string, ...core.Field) {}
func (discardLogger) Info(string, ...core.Field)  {}
func (discardLogger) Warn(string, ...core.Field)  {}
func (discardLogger) Error(string, ...core.Field) {}
func (discardLogger) Fatal(string, ...core.Field) {}

func sortedKeys(m map[string]*core.CheckStats) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// Deterministic report ordering; insertion order into a Go map is not
	// stable across runs.
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}

// execute is the coordinator loop: dispatch ready candidates up to
// maxParallelism, wait for a completion, process it (routing, fan-out,
// on_finish), and repeat until the queue and in-flight set both drain.
func (r *run) execute(ctx context.Context) error {
	queue := r.seedRoots()
	dispatched := make(map[string]bool)

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(r.e.maxParallelism)
	resultCh := make(chan workResult, 64)
	inFlight := 0

	for len(queue) > 0 || inFlight > 0 {
		if r.halted {
			// Drain: mark everything still queued as halted-skip and stop
			// dispatching new work (§4.6.5 step 4).
			for _, cand := range queue {
				r.recordSkip(cand, "halted_by_condition")
			}
			queue = nil
			if inFlight == 0 {
				break
			}
		}

		advanced := false
		for len(queue) > 0 && inFlight < r.e.maxParallelism {
			cand := queue[0]
			queue = queue[1:]
			if dispatched[cand.key()] {
				continue
			}

			verdict, reason := evaluateDependencies(r.plan, r.checks, r.table, cand)
			switch verdict {
			case readinessSkip:
				dispatched[cand.key()] = true
				r.recordSkip(cand, reason)
				queue = append(queue, r.childCandidates(cand)...)
				advanced = true
				continue
			case readinessWait:
				continue
			}

			if ok, err := r.evaluateIf(gctx, cand); err != nil || !ok {
				dispatched[cand.key()] = true
				r.recordSkip(cand, "if_false")
				queue = append(queue, r.childCandidates(cand)...)
				advanced = true
				continue
			}

			dispatched[cand.key()] = true
			inFlight++
			advanced = true
			cfg := r.checks[cand.checkID]
			item := cand
			group.Go(func() error {
				res, out, route := r.executeOne(gctx, item, cfg)
				select {
				case resultCh <- workResult{cand: item, result: res, output: out, routing: route, cfg: cfg}:
				case <-gctx.Done():
				}
				return nil
			})
		}

		if inFlight == 0 {
			if !advanced {
				break
			}
			continue
		}

		select {
		case res := <-resultCh:
			inFlight--
			queue = append(queue, r.processResult(res)...)
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	_ = group.Wait()
	return nil
}

// seedRoots queues every included check with no unresolved dependency, in
// the event's root branch.
func (r *run) seedRoots() []candidate {
	var out []candidate
	for _, level := range r.plan.Levels {
		for _, id := range level {
			if len(r.plan.Adjacency[id]) == 0 {
				out = append(out, candidate{checkID: id, event: r.event})
			}
		}
	}
	return out
}

// childCandidates re-queues the direct dependents of cand.checkID in the
// same branch/loop so their readiness is re-evaluated now that cand has a
// terminal outcome.
func (r *run) childCandidates(cand candidate) []candidate {
	var out []candidate
	for _, depID := range r.dependents[cand.checkID] {
		out = append(out, candidate{checkID: depID, branch: cand.branch, loopCount: 0, event: cand.event})
	}
	return out
}

func (r *run) recordSkip(cand candidate, reason string) {
	r.table.set(cand.branch, cand.checkID, branchRecord{status: statusSkipped, skipReason: reason, output: core.NewErrorOutput("skip", reason)})
	st := r.statsFor(cand.checkID)
	st.Skipped = true
	st.SkipReason = reason
}

func (r *run) statsFor(checkID string) *core.CheckStats {
	st, ok := r.stats[checkID]
	if !ok {
		st = &core.CheckStats{CheckName: checkID}
		r.stats[checkID] = st
	}
	return st
}

// evaluateIf implements §4.6.3 step 3.
func (r *run) evaluateIf(ctx context.Context, cand candidate) (bool, error) {
	cfg := r.checks[cand.checkID]
	if cfg.If == "" {
		return true, nil
	}
	scope := r.buildScope(cand)
	val, err := r.e.sandbox.Evaluate(ctx, cfg.If, scope)
	if err != nil {
		return false, err
	}
	b, _ := val.(bool)
	return b, nil
}

// buildScope assembles the expression scope a check's `if`/`fail_if`/
// `transform_js` sees: dependency outputs keyed by check id, the current
// iteration item (if any), and memory helpers.
func (r *run) buildScope(cand candidate) map[string]any {
	outputs := make(map[string]any)
	for _, depID := range r.plan.Adjacency[cand.checkID] {
		if rec, ok := r.table.lookup(cand.branch, depID); ok {
			outputs[depID] = rec.output.Unwrap()
		}
	}
	scope := map[string]any{
		"outputs": outputs,
		"event":   map[string]any{"name": cand.event},
		"memory":  r.memoryScope(r.checks[cand.checkID]),
	}
	if cand.hasIteration {
		scope["item"] = cand.iterationItem
	}
	return scope
}

// memoryScope exposes the Memory Store to sandboxed expressions (§4.6.6
// step 3: fail_if/failure_conditions/goto_js/on_finish all see a `memory`
// object). cfg.Namespace selects the namespace the same way
// provider.MemoryProvider does, falling back to "default". A nil store
// (e.g. a run with memory disabled) makes every helper a safe no-op.
func (r *run) memoryScope(cfg core.CheckConfig) map[string]any {
	ns := cfg.Namespace
	if ns == "" {
		ns = "default"
	}
	store := r.e.store
	return map[string]any{
		"get": func(key string) any {
			if store == nil {
				return nil
			}
			v, _ := store.Get(ns, key)
			return v
		},
		"has": func(key string) bool {
			if store == nil {
				return false
			}
			return store.Has(ns, key)
		},
		"getAll": func() map[string]any {
			if store == nil {
				return map[string]any{}
			}
			return store.List(ns)
		},
		"set": func(key string, value any) any {
			if store == nil {
				return nil
			}
			store.Set(ns, key, value)
			return value
		},
		"clear": func() {
			if store == nil {
				return
			}
			store.Clear(ns)
		},
		"increment": func(key string, delta float64) float64 {
			if store == nil {
				return 0
			}
			return store.Increment(ns, key, delta)
		},
	}
}

// executeOne runs the provider, then applies transform_js, fail_if, and
// failure_conditions (§4.6.4). It never mutates run state directly — the
// coordinator does that in processResult. It applies the `retry` policy
// (§4.7) around the provider call itself: a failed attempt is retried up
// to Retry.MaxAttempts, sleeping Backoff between attempts, entirely
// independent of the goto/loop machinery in routing.Controller. Retries
// never apply to a missing-provider configuration error, which is not
// something a repeated attempt could fix.
func (r *run) executeOne(ctx context.Context, cand candidate, cfg core.CheckConfig) (core.IterationResult, core.CheckOutput, *core.RoutingAction) {
	provider, ok := r.e.registry.Lookup(cfg.Type)
	if !ok {
		res := core.IterationResult{CheckID: cand.checkID, BranchPath: cand.branch, LoopIdx: cand.loopCount, Success: false,
			ErrorMessage: fmt.Sprintf("no provider registered for type %q", cfg.Type), DurationMs: 0}
		return res, core.NewErrorOutput("provider/unknown_type", res.ErrorMessage), nil
	}

	attempt := 0
	for {
		res, output, routeAction := r.attemptOnce(ctx, cand, cfg, provider)
		if res.Success {
			return res, output, routeAction
		}
		decision := routing.ApplyRetry(cfg.Retry, attempt)
		if !decision.ShouldRetry {
			return res, output, routeAction
		}
		attempt++
		if decision.Backoff > 0 {
			select {
			case <-ctx.Done():
				return res, output, routeAction
			case <-time.After(decision.Backoff):
			}
		}
	}
}

// attemptOnce runs a single attempt of cfg's provider, evaluating
// transform_js/fail_if/failure_conditions the same way regardless of
// which retry attempt this is.
func (r *run) attemptOnce(ctx context.Context, cand candidate, cfg core.CheckConfig, provider core.Provider) (core.IterationResult, core.CheckOutput, *core.RoutingAction) {
	start := time.Now()

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultCheckTimeout
	}
	workCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	item := core.WorkItem{
		CheckID:           cand.checkID,
		BranchPath:        cand.branch,
		LoopCount:         cand.loopCount,
		IterationItem:     cand.iterationItem,
		HasIteration:      cand.hasIteration,
		DependencyOutputs: r.dependencyOutputs(cand),
		Event:             cand.event,
	}

	summary, err := provider.Execute(workCtx, item, cfg)
	duration := time.Since(start).Milliseconds()

	if err != nil {
		kind := "provider/execution_error"
		if workCtx.Err() == context.DeadlineExceeded {
			kind = "provider/timeout"
		}
		issue := core.Issue{RuleID: kind, Message: err.Error(), Severity: core.SeverityError, Category: core.CategoryLogic}
		res := core.IterationResult{CheckID: cand.checkID, BranchPath: cand.branch, LoopIdx: cand.loopCount, Success: false,
			Issues: []core.Issue{issue}, ErrorMessage: err.Error(), DurationMs: duration}
		return res, core.NewErrorOutput(kind, err.Error()), nil
	}

	output := core.NewSummaryOutput(summary)
	scope := r.buildScope(cand)
	scope["output"] = output.Unwrap()

	if cfg.TransformJS != "" {
		if v, terr := r.e.sandbox.EvaluateScript(workCtx, cfg.TransformJS, scope); terr == nil {
			output = core.NewValueOutput(v)
			scope["output"] = v
		}
	}

	success := true
	var issues []core.Issue
	if summary != nil {
		issues = append(issues, summary.Issues...)
	}

	if cfg.FailIf != "" {
		if v, ferr := r.e.sandbox.Evaluate(workCtx, cfg.FailIf, scope); ferr == nil {
			if b, _ := v.(bool); b {
				success = false
				issues = append(issues, core.Issue{RuleID: "check/fail_if", Message: fmt.Sprintf("fail_if %q evaluated true", cfg.FailIf), Severity: core.SeverityError, Category: core.CategoryLogic})
			}
		}
	}

	var routeAction *core.RoutingAction
	for name, fc := range cfg.FailureConditions {
		v, ferr := r.e.sandbox.Evaluate(workCtx, fc.Condition, scope)
		if ferr != nil {
			continue
		}
		fired, _ := v.(bool)
		if !fired {
			continue
		}
		success = false
		r.recordFailureCondition(name, fc)
		if fc.HaltExecution {
			r.halted = true
		}
	}

	res := core.IterationResult{
		CheckID: cand.checkID, BranchPath: cand.branch, LoopIdx: cand.loopCount,
		Success: success, Issues: issues, Output: output.Unwrap(), DurationMs: duration,
	}
	if summary != nil {
		res.SessionID = summary.SessionID
	}

	if success {
		routeAction = cfg.OnSuccess
	} else {
		routeAction = cfg.OnFail
	}
	return res, output, routeAction
}

func (r *run) dependencyOutputs(cand candidate) map[string]core.CheckOutput {
	out := make(map[string]core.CheckOutput)
	for _, depID := range r.plan.Adjacency[cand.checkID] {
		if rec, ok := r.table.lookup(cand.branch, depID); ok {
			out[depID] = rec.output
		}
	}
	return out
}

func (r *run) recordFailureCondition(name string, fc core.FailureCondition) {
	r.failureConditions = append(r.failureConditions, core.FailureConditionResult{
		ConditionName: name, Failed: true, Severity: fc.Severity, Expression: fc.Condition,
		Message: fc.Message, HaltExecution: fc.HaltExecution,
	})
}

// processResult records one completed WorkItem's outcome, then returns any
// new candidates routing/fan-out/on_finish produced (§4.6.4-§4.6.6).
func (r *run) processResult(wr workResult) []candidate {
	status := statusSucceeded
	if !wr.result.Success {
		status = statusFailed
	}
	r.table.set(wr.cand.branch, wr.cand.checkID, branchRecord{status: status, output: wr.output})

	r.history[wr.cand.checkID] = append(r.history[wr.cand.checkID], wr.result)
	r.issues = append(r.issues, taggedIssues(wr.cand.checkID, wr.result.Issues)...)

	st := r.statsFor(wr.cand.checkID)
	st.TotalRuns++
	st.IssuesFound += len(wr.result.Issues)
	st.TotalDuration += wr.result.DurationMs
	st.PerIterationDuration = append(st.PerIterationDuration, wr.result.DurationMs)
	if wr.result.Success {
		st.SuccessfulRuns++
	} else {
		st.FailedRuns++
	}

	var next []candidate
	if !wr.cfg.ForEach {
		// A forEach check's direct dependents are scheduled exclusively
		// through fanOut below, one per item with an extended branch —
		// never through the unextended same-branch path here.
		next = append(next, r.childCandidates(wr.cand)...)
	}
	next = append(next, r.fanOut(wr)...)
	next = append(next, r.route(wr)...)
	next = append(next, r.checkForEachWave(wr)...)
	return next
}

// taggedIssues stamps every issue with its owning checkID (used for
// group_by: "check" in the aggregator) and defaults an empty RuleID to
// "check/<id>" for display purposes. CheckID, not RuleID, is the
// authoritative owner — a provider or failure_condition issue may already
// carry its own specific RuleID (e.g. "provider/timeout", "check/fail_if")
// that has nothing to do with check grouping.
func taggedIssues(checkID string, issues []core.Issue) []core.Issue {
	out := make([]core.Issue, len(issues))
	for i, iss := range issues {
		iss.CheckID = checkID
		if iss.RuleID == "" {
			iss.RuleID = "check/" + checkID
		}
		out[i] = iss
	}
	return out
}

// fanOut implements §4.6.2: when a forEach check's output unwraps to a
// non-empty array, queue one WorkItem per item for each direct dependent,
// extending the branch with this check's iteration index.
func (r *run) fanOut(wr workResult) []candidate {
	if !wr.cfg.ForEach || !wr.result.Success {
		return nil
	}
	items, ok := wr.output.ForEachItems()
	if !ok || len(items) == 0 {
		return nil
	}

	wave := &forEachWave{total: len(items), items: items}
	r.forEachProgress[wr.cand.checkID+"\x1f"+wr.cand.branch.Key()+"\x1f"+itoa(wr.cand.loopCount)] = wave

	var out []candidate
	for _, depID := range r.dependents[wr.cand.checkID] {
		for i, item := range items {
			branch := append(append(core.BranchPath{}, wr.cand.branch...), core.BranchStep{AncestorID: wr.cand.checkID, Index: i})
			out = append(out, candidate{checkID: depID, branch: branch, iterationItem: item, hasIteration: true, event: wr.cand.event})
		}
	}
	return out
}

// checkForEachWave updates the completion counters of the forEach wave this
// result belongs to, and fires on_finish once every direct dependent
// iteration of the current loop has a terminal outcome (§4.6.6). This tracks
// direct dependents only, not the full transitive subtree — see DESIGN.md.
func (r *run) checkForEachWave(wr workResult) []candidate {
	if len(wr.cand.branch) == 0 {
		return nil
	}
	last := wr.cand.branch[len(wr.cand.branch)-1]
	parentCfg, ok := r.checks[last.AncestorID]
	if !ok || !parentCfg.ForEach {
		return nil
	}
	isDirectDependent := false
	for _, dep := range r.dependents[last.AncestorID] {
		if dep == wr.cand.checkID {
			isDirectDependent = true
			break
		}
	}
	if !isDirectDependent {
		return nil
	}

	parentBranch := wr.cand.branch[:len(wr.cand.branch)-1]
	waveKey := last.AncestorID + "\x1f" + parentBranch.Key() + "\x1f" + itoa(r.ctrl.LoopCount(last.AncestorID))
	wave, ok := r.forEachProgress[waveKey]
	if !ok {
		return nil
	}

	numDependents := len(r.dependents[last.AncestorID])
	expected := wave.total * numDependents
	wave.completed++
	if wr.result.Success {
		wave.successful++
	} else {
		wave.failed++
	}
	if wave.fired || wave.completed < expected {
		return nil
	}
	wave.fired = true

	return r.fireOnFinish(last.AncestorID, parentBranch, parentCfg, wave)
}

// fireOnFinish implements §4.6.6 steps 1-4.
func (r *run) fireOnFinish(checkID string, branch core.BranchPath, cfg core.CheckConfig, wave *forEachWave) []candidate {
	if cfg.OnFinish == nil {
		return nil
	}
	var out []candidate
	for _, runID := range cfg.OnFinish.Run {
		out = append(out, candidate{checkID: runID, branch: branch, event: r.event})
	}

	if cfg.OnFinish.GotoJS == "" && cfg.OnFinish.Goto == "" {
		return out
	}

	scope := map[string]any{
		"forEach": map[string]any{
			"total": wave.total, "successful": wave.successful, "failed": wave.failed,
			"items": wave.items, "last_wave_size": wave.total,
		},
		"step":    map[string]any{"id": checkID, "tags": cfg.Tags, "group": cfg.Group},
		"event":   map[string]any{"name": r.event},
		"memory":  r.memoryScope(cfg),
		"attempt": r.ctrl.LoopCount(checkID),
		"loop":    r.ctrl.LoopCount(checkID),
	}

	var dynamicTarget string
	if cfg.OnFinish.GotoJS != "" {
		if v, err := r.e.sandbox.EvaluateScript(context.Background(), cfg.OnFinish.GotoJS, scope); err == nil {
			dynamicTarget, _ = v.(string)
		}
	}

	target, routed := r.ctrl.ResolveGoto(checkID, dynamicTarget, cfg.OnFinish.Goto)
	if !routed {
		return out
	}
	if err := r.ctrl.CheckMaxLoops(target, r.checks[target].EffectiveMaxLoops()); err != nil {
		r.issues = append(r.issues, core.Issue{RuleID: "routing/max_loops", CheckID: target, Message: err.Error(), Severity: core.SeverityError, Category: core.CategoryLogic})
		return out
	}
	loop := r.ctrl.IncrementLoop(target)
	r.table.resetDescendants(branch, r.transitiveDependents(target))
	out = append(out, candidate{checkID: target, branch: branch, loopCount: loop, event: r.event})
	return out
}

// route implements §4.6.5: run the success/failure routing action's `run`
// list, then resolve goto/goto_js.
func (r *run) route(wr workResult) []candidate {
	if wr.routing == nil || wr.routing.IsZero() {
		return nil
	}
	var out []candidate
	for _, runID := range wr.routing.Run {
		out = append(out, candidate{checkID: runID, branch: wr.cand.branch, loopCount: wr.cand.loopCount, event: wr.cand.event})
	}

	dynamicTarget := wr.routing.Goto
	if wr.routing.GotoJS != "" {
		scope := r.buildScope(wr.cand)
		if v, err := r.e.sandbox.EvaluateScript(context.Background(), wr.routing.GotoJS, scope); err == nil {
			if s, ok := v.(string); ok {
				dynamicTarget = s
			}
		}
	}
	if dynamicTarget == "" {
		return out
	}

	target, routed := r.ctrl.ResolveGoto(wr.cand.checkID, dynamicTarget, wr.routing.Goto)
	if !routed {
		return out
	}
	if err := r.ctrl.CheckMaxLoops(target, r.checks[target].EffectiveMaxLoops()); err != nil {
		r.issues = append(r.issues, core.Issue{RuleID: "routing/max_loops", CheckID: target, Message: err.Error(), Severity: core.SeverityError, Category: core.CategoryLogic})
		return out
	}
	loop := r.ctrl.IncrementLoop(target)
	r.table.resetDescendants(wr.cand.branch, r.transitiveDependents(target))

	event := wr.cand.event
	if wr.routing.GotoEvent != "" {
		event = wr.routing.GotoEvent
	}
	out = append(out, candidate{checkID: target, branch: wr.cand.branch, loopCount: loop, event: event})
	return out
}

// transitiveDependents returns every checkID reachable forward from id,
// including id itself, for §4.6.5's "resetting descendants' per-loop
// caches" on a goto rewind.
func (r *run) transitiveDependents(id string) map[string]bool {
	seen := map[string]bool{id: true}
	var visit func(string)
	visit = func(cur string) {
		for _, dep := range r.dependents[cur] {
			if !seen[dep] {
				seen[dep] = true
				visit(dep)
			}
		}
	}
	visit(id)
	return seen
}
