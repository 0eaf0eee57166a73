// Package sandbox implements the Expression Sandbox (§4.1): a restricted
// JavaScript evaluator used by fail_if, value_js, memory_js, goto_js, and
// transform_js fields, and by the template engine's {{ }} fragments.
//
// Grounded on the teacher pack's r3e-network-service_layer gojaScriptEngine
// (system/tee/script_engine.go), which also allocates a fresh goja.New() VM
// per invocation for isolation rather than pooling/reusing runtimes.
package sandbox

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dop251/goja"

	"github.com/codcod/visor/internal/core"
	"github.com/codcod/visor/internal/verrors"
)

// DefaultBudget is the per-evaluation wall-clock budget applied when none is
// configured (§4.1: "default 250 ms per evaluation").
const DefaultBudget = 250 * time.Millisecond

// Sandbox evaluates expressions and scripts against a scope map, enforcing a
// wall-clock budget and exposing only the whitelisted built-ins named in
// §4.1. It holds no state between calls — every Evaluate/EvaluateScript
// allocates its own goja.Runtime, so a Sandbox value is safe for concurrent
// use across scheduler workers without locking.
type Sandbox struct {
	Budget time.Duration
}

// New constructs a Sandbox with the given wall-clock budget. A non-positive
// budget falls back to DefaultBudget.
func New(budget time.Duration) *Sandbox {
	if budget <= 0 {
		budget = DefaultBudget
	}
	return &Sandbox{Budget: budget}
}

var _ core.Sandbox = (*Sandbox)(nil)

// Evaluate runs a single expression and returns its unwrapped result (§4.1).
func (s *Sandbox) Evaluate(ctx context.Context, expr string, scope map[string]any) (any, error) {
	vm := s.newRuntime(scope, nil)
	cancel := s.armTimeout(vm)
	defer cancel()

	val, err := vm.RunString("(" + expr + ")")
	if err != nil {
		return nil, translateError(err, "evaluate")
	}
	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return nil, nil
	}
	return val.Export(), nil
}

// EvaluateScript runs a multi-statement script permitting return/log/const/
// let, returning the value of its explicit return (nil without one). Lines
// written via log(...) are collected for the call and not returned.
func (s *Sandbox) EvaluateScript(ctx context.Context, script string, scope map[string]any) (any, error) {
	var logs []string
	vm := s.newRuntime(scope, &logs)
	cancel := s.armTimeout(vm)
	defer cancel()

	wrapped := "(function(){\n" + script + "\n})()"
	val, err := vm.RunString(wrapped)
	if err != nil {
		return nil, translateError(err, "evaluateScript")
	}
	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return nil, nil
	}
	return val.Export(), nil
}

// newRuntime allocates a fresh VM with the scope fields and whitelisted
// built-ins set, and nothing else. logs, when non-nil, backs a sandboxed
// log(...) host function for evaluateScript diagnostics.
func (s *Sandbox) newRuntime(scope map[string]any, logs *[]string) *goja.Runtime {
	vm := goja.New()

	for k, v := range scope {
		_ = vm.Set(k, v)
	}

	_ = vm.Set("always", func(goja.FunctionCall) goja.Value { return vm.ToValue(true) })
	_ = vm.Set("contains", builtinContains(vm))
	_ = vm.Set("startsWith", builtinStartsWith(vm))
	_ = vm.Set("hasIssue", builtinHasIssue(vm))
	_ = vm.Set("hasFileMatching", builtinHasFileMatching(vm))

	if logs != nil {
		_ = vm.Set("log", func(call goja.FunctionCall) goja.Value {
			parts := make([]string, len(call.Arguments))
			for i, a := range call.Arguments {
				parts[i] = a.String()
			}
			*logs = append(*logs, strings.Join(parts, " "))
			return goja.Undefined()
		})
	}

	return vm
}

// armTimeout fires vm.Interrupt after Budget, converting a runaway
// evaluation into an sandbox/timeout error caught by translateError.
func (s *Sandbox) armTimeout(vm *goja.Runtime) func() {
	timer := time.AfterFunc(s.Budget, func() {
		vm.Interrupt(errTimeout)
	})
	return func() { timer.Stop() }
}

var errTimeout = fmt.Errorf("sandbox evaluation exceeded budget")

func translateError(err error, op string) error {
	switch err.(type) {
	case *goja.InterruptedError:
		return verrors.New(verrors.KindSandboxTimeout, op, "", err)
	case *goja.Exception:
		return verrors.New(verrors.KindSandboxRuntime, op, "", err)
	default:
		// RunString reports a parse failure as a plain *goja.CompilerSyntaxError
		// only through its Error() text, not a type switchable here across
		// goja versions; treat anything else as a compile-time failure since
		// RunString only returns *Exception/*InterruptedError for errors that
		// occur after a successful parse.
		return verrors.New(verrors.KindSandboxCompile, op, "", err)
	}
}

// builtinContains implements contains(x, y): substring test for strings,
// membership test for arrays.
func builtinContains(vm *goja.Runtime) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 2 {
			return vm.ToValue(false)
		}
		x := call.Arguments[0].Export()
		y := call.Arguments[1]

		switch v := x.(type) {
		case string:
			return vm.ToValue(strings.Contains(v, y.String()))
		case []any:
			target := y.Export()
			for _, item := range v {
				if fmt.Sprint(item) == fmt.Sprint(target) {
					return vm.ToValue(true)
				}
			}
			return vm.ToValue(false)
		default:
			return vm.ToValue(false)
		}
	}
}

// builtinStartsWith implements startsWith(x, y) for strings.
func builtinStartsWith(vm *goja.Runtime) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 2 {
			return vm.ToValue(false)
		}
		x := call.Arguments[0].String()
		y := call.Arguments[1].String()
		return vm.ToValue(strings.HasPrefix(x, y))
	}
}

// builtinHasIssue implements hasIssue(issues, field, value): true if any
// issue in the array has field == value. issues is whatever the caller put
// in scope — typically []core.Issue, exported by goja as a slice of
// map-shaped values keyed by Go field name.
func builtinHasIssue(vm *goja.Runtime) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 3 {
			return vm.ToValue(false)
		}
		issues, ok := call.Arguments[0].Export().([]core.Issue)
		if !ok {
			return vm.ToValue(false)
		}
		field := call.Arguments[1].String()
		want := call.Arguments[2].Export()

		for _, issue := range issues {
			if issueField(issue, field) == fmt.Sprint(want) {
				return vm.ToValue(true)
			}
		}
		return vm.ToValue(false)
	}
}

func issueField(issue core.Issue, field string) string {
	switch strings.ToLower(field) {
	case "file":
		return issue.File
	case "ruleid", "rule_id":
		return issue.RuleID
	case "message":
		return issue.Message
	case "severity":
		return string(issue.Severity)
	case "category":
		return string(issue.Category)
	default:
		return ""
	}
}

// builtinHasFileMatching implements hasFileMatching(issues, pattern): true
// if any issue's file matches a shell glob pattern (filepath.Match).
func builtinHasFileMatching(vm *goja.Runtime) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 2 {
			return vm.ToValue(false)
		}
		issues, ok := call.Arguments[0].Export().([]core.Issue)
		if !ok {
			return vm.ToValue(false)
		}
		pattern := call.Arguments[1].String()

		for _, issue := range issues {
			if matched, _ := filepath.Match(pattern, issue.File); matched {
				return vm.ToValue(true)
			}
		}
		return vm.ToValue(false)
	}
}
