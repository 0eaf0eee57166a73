// Package template implements the Template Engine (§4.2): rendering a
// template string against a scope, with tag constructs for conditionals,
// iteration, and variable assignment, plus a fixed filter set. Expression
// fragments inside `{{ }}` and tag conditions are delegated to
// internal/sandbox rather than evaluated by this package directly.
package template

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/codcod/visor/internal/core"
	"github.com/codcod/visor/internal/verrors"
)

// Engine renders templates against a sandbox for expression evaluation.
type Engine struct {
	sandbox core.Sandbox
	filters *FilterRegistry
}

// New builds an Engine. projectRoot confines the readfile filter.
func New(sandbox core.Sandbox, projectRoot string) *Engine {
	return &Engine{sandbox: sandbox, filters: NewFilterRegistry(projectRoot)}
}

// Render parses and renders src against scope. strict_variables is always
// false (§4.2): a reference to an undefined variable renders as empty
// rather than failing the whole render.
func (e *Engine) Render(ctx context.Context, src string, scope map[string]any) (string, error) {
	nodes, err := Parse(src)
	if err != nil {
		return "", err
	}

	local := make(map[string]any, len(scope))
	for k, v := range scope {
		local[k] = v
	}

	var sb strings.Builder
	if err := e.renderNodes(ctx, nodes, local, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (e *Engine) renderNodes(ctx context.Context, nodes []node, scope map[string]any, sb *strings.Builder) error {
	for _, n := range nodes {
		if err := e.renderNode(ctx, n, scope, sb); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) renderNode(ctx context.Context, n node, scope map[string]any, sb *strings.Builder) error {
	switch n.kind {
	case nodeText:
		sb.WriteString(n.text)
		return nil

	case nodeExpr:
		value, err := e.eval(ctx, n.expr, scope)
		if err != nil {
			return err
		}
		for _, name := range n.filters {
			fn, ok := e.filters.Get(name)
			if !ok {
				return fmt.Errorf("template: unknown filter %q", name)
			}
			value, err = fn(value)
			if err != nil {
				return err
			}
		}
		sb.WriteString(stringify(value))
		return nil

	case nodeAssign:
		value, err := e.eval(ctx, n.assignExpr, scope)
		if err != nil {
			return err
		}
		scope[n.assignName] = value
		return nil

	case nodeIf:
		for _, branch := range n.branches {
			if branch.cond == "" {
				return e.renderNodes(ctx, branch.body, scope, sb)
			}
			value, err := e.eval(ctx, branch.cond, scope)
			if err != nil {
				return err
			}
			if truthy(value) {
				return e.renderNodes(ctx, branch.body, scope, sb)
			}
		}
		return nil

	case nodeFor:
		value, err := e.eval(ctx, n.expr, scope)
		if err != nil {
			return err
		}
		items := toSlice(value)
		child := make(map[string]any, len(scope)+1)
		for k, v := range scope {
			child[k] = v
		}
		for _, item := range items {
			child[n.loopVar] = item
			if err := e.renderNodes(ctx, n.body, child, sb); err != nil {
				return err
			}
		}
		return nil

	default:
		return fmt.Errorf("template: unhandled node kind %d", n.kind)
	}
}

// eval runs expr through the sandbox, treating an undefined-reference
// runtime error as strict_variables=false's "render empty" (nil) rather
// than a hard failure; any other sandbox error (syntax, timeout) still
// propagates.
func (e *Engine) eval(ctx context.Context, expr string, scope map[string]any) (any, error) {
	value, err := e.sandbox.Evaluate(ctx, expr, scope)
	if err != nil {
		if verrors.Is(err, verrors.KindSandboxRuntime) {
			return nil, nil
		}
		return nil, err
	}
	return value, nil
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	case int64:
		return t != 0
	default:
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Slice, reflect.Array, reflect.Map:
			return rv.Len() > 0
		}
		return true
	}
}

// toSlice generically iterates any slice/array value a sandbox expression
// can produce (goja commonly hands back []any, but a host-injected scope
// value might be a concretely typed Go slice).
func toSlice(v any) []any {
	if v == nil {
		return nil
	}
	if items, ok := v.([]any); ok {
		return items
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprintf("%v", t)
	}
}
