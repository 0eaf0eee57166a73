package provider

import (
	"context"
	"fmt"

	"github.com/codcod/visor/internal/core"
	"github.com/codcod/visor/internal/verrors"
)

// MemoryProvider performs one operation against the Memory Store per
// invocation: get, set, append, or increment. CheckConfig.Operation
// selects the verb; CheckConfig.Key names the entry; CheckConfig.Value or
// CheckConfig.ValueJS supplies the payload (a literal or a sandboxed
// expression evaluated against the dependency outputs/memory scope).
type MemoryProvider struct {
	store   core.MemoryStore
	sandbox core.Sandbox
}

// NewMemoryProvider constructs a MemoryProvider over store, using sandbox
// to evaluate value_js expressions.
func NewMemoryProvider(store core.MemoryStore, sandbox core.Sandbox) *MemoryProvider {
	return &MemoryProvider{store: store, sandbox: sandbox}
}

func (p *MemoryProvider) Type() string { return "memory" }

func (p *MemoryProvider) SupportedConfigKeys() []string {
	return []string{"operation", "namespace", "key", "value", "value_js"}
}

func (p *MemoryProvider) Execute(ctx context.Context, item core.WorkItem, cfg core.CheckConfig) (*core.ReviewSummary, error) {
	ns := cfg.Namespace
	if ns == "" {
		ns = "default"
	}

	value, err := p.resolveValue(ctx, item, cfg)
	if err != nil {
		return nil, err
	}

	switch cfg.Operation {
	case "", "get":
		v, ok := p.store.Get(ns, cfg.Key)
		if !ok {
			return &core.ReviewSummary{Output: nil}, nil
		}
		return &core.ReviewSummary{Output: v}, nil
	case "set":
		p.store.Set(ns, cfg.Key, value)
		return &core.ReviewSummary{Output: value}, nil
	case "append":
		p.store.Append(ns, cfg.Key, value)
		return &core.ReviewSummary{Output: p.store.List(ns)[cfg.Key]}, nil
	case "increment":
		delta := 1.0
		if f, ok := value.(float64); ok {
			delta = f
		}
		if existing, ok := p.store.Get(ns, cfg.Key); ok {
			if _, numeric := existing.(float64); !numeric {
				return nil, verrors.New(verrors.KindMemoryType, "memory.increment", cfg.Key,
					fmt.Errorf("cannot increment non-numeric value %v", existing))
			}
		}
		return &core.ReviewSummary{Output: p.store.Increment(ns, cfg.Key, delta)}, nil
	case "delete":
		p.store.Delete(ns, cfg.Key)
		return &core.ReviewSummary{}, nil
	case "clear":
		p.store.Clear(ns)
		return &core.ReviewSummary{}, nil
	default:
		return nil, fmt.Errorf("memory provider: unknown operation %q", cfg.Operation)
	}
}

func (p *MemoryProvider) resolveValue(ctx context.Context, item core.WorkItem, cfg core.CheckConfig) (any, error) {
	if cfg.ValueJS != "" {
		scope := map[string]any{
			"outputs": unwrapOutputs(item.DependencyOutputs),
			"item":    item.IterationItem,
		}
		return p.sandbox.Evaluate(ctx, cfg.ValueJS, scope)
	}
	return cfg.Value, nil
}

func unwrapOutputs(outputs map[string]core.CheckOutput) map[string]any {
	result := make(map[string]any, len(outputs))
	for k, v := range outputs {
		result[k] = v.Unwrap()
	}
	return result
}
