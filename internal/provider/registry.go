// Package provider implements the Provider Registry & Contract (§4.4):
// the Provider interface itself lives in internal/core so the scheduler
// can depend on the contract without importing concrete providers; this
// package holds the registry implementation and the shipped providers.
package provider

import (
	"sync"

	"github.com/codcod/visor/internal/core"
)

// Registry is a concurrency-safe core.Registry implementation, grounded on
// the teacher's checker registry (RWMutex-guarded map keyed by ID).
type Registry struct {
	mu        sync.RWMutex
	providers map[string]core.Provider
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]core.Provider)}
}

// Register adds a provider, keyed by its Type().
func (r *Registry) Register(p core.Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Type()] = p
}

// Lookup resolves a CheckConfig.Type to its Provider.
func (r *Registry) Lookup(typ string) (core.Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[typ]
	return p, ok
}

// Types lists every registered provider type.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.providers))
	for t := range r.providers {
		types = append(types, t)
	}
	return types
}

// NewDefaultRegistry builds a Registry with Visor's shipped providers
// (§4.4: noop, log, memory, command, script). AI/HTTP providers stay out
// of scope per the purpose statement; operators wire those in externally
// through the same Registry.Register call this constructor uses.
func NewDefaultRegistry(store core.MemoryStore, sandbox core.Sandbox, logger core.Logger) *Registry {
	r := NewRegistry()
	r.Register(NewNoopProvider())
	r.Register(NewLogProvider(logger))
	r.Register(NewMemoryProvider(store, sandbox))
	r.Register(NewCommandProvider())
	r.Register(NewScriptProvider(sandbox))
	return r
}
