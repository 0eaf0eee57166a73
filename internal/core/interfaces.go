package core

import "context"

// Provider is the Provider Registry & Contract (§4.4): the single interface
// every check type implements. A provider is a pure function of its
// config and the dependency outputs it was handed — it never reaches
// back into the scheduler or into another provider's state.
type Provider interface {
	// Type is the registry key checks reference via CheckConfig.Type.
	Type() string

	// SupportedConfigKeys lists the CheckConfig fields this provider reads.
	// The config validator does not consult it.
	SupportedConfigKeys() []string

	// Execute runs one invocation of the provider for a single WorkItem.
	// It must not retain ctx, the WorkItem, or its DependencyOutputs beyond
	// the call.
	Execute(ctx context.Context, item WorkItem, cfg CheckConfig) (*ReviewSummary, error)
}

// ProviderFactory builds a Provider instance for a given namespace/session,
// letting stateful providers (e.g. a memory-backed one) construct fresh
// per-registry-lookup instances rather than share mutable state across
// unrelated engine runs.
type ProviderFactory func() Provider

// Registry resolves a CheckConfig.Type to a Provider. Kept as an interface
// (rather than a concrete struct) so the scheduler depends only on the
// contract, matching the teacher's checker-registry split between
// interface and implementation.
type Registry interface {
	Register(p Provider)
	Lookup(typ string) (Provider, bool)
	Types() []string
}

// Sandbox is the Expression Sandbox contract (§4.1) as seen by callers
// outside internal/sandbox (template engine, scheduler routing).
type Sandbox interface {
	// Evaluate runs a single boolean/value expression and returns its
	// unwrapped result.
	Evaluate(ctx context.Context, expr string, scope map[string]any) (any, error)
	// EvaluateScript runs a multi-statement script and returns the value
	// of its final expression or an explicit return.
	EvaluateScript(ctx context.Context, script string, scope map[string]any) (any, error)
}

// MemoryStore is the Memory Store contract (§4.3).
type MemoryStore interface {
	Get(namespace, key string) (any, bool)
	Has(namespace, key string) bool
	Set(namespace, key string, value any)
	Append(namespace, key string, value any)
	Increment(namespace, key string, delta float64) float64
	List(namespace string) map[string]any
	GetAll() map[string]map[string]any
	Delete(namespace, key string)
	Clear(namespace string)
}
