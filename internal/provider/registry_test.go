package provider

import (
	"context"
	"testing"

	"github.com/codcod/visor/internal/core"
)

type stubProvider struct {
	typ string
}

func (s *stubProvider) Type() string                  { return s.typ }
func (s *stubProvider) SupportedConfigKeys() []string  { return nil }
func (s *stubProvider) Execute(context.Context, core.WorkItem, core.CheckConfig) (*core.ReviewSummary, error) {
	return &core.ReviewSummary{}, nil
}

func TestRegistryRegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubProvider{typ: "noop"})

	p, ok := r.Lookup("noop")
	if !ok {
		t.Fatal("expected noop provider to be registered")
	}
	if p.Type() != "noop" {
		t.Fatalf("got type %q, want noop", p.Type())
	}
}

func TestRegistryLookupMissing(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.Lookup("does-not-exist"); ok {
		t.Fatal("expected lookup of unregistered type to fail")
	}
}

func TestRegistryTypes(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubProvider{typ: "a"})
	r.Register(&stubProvider{typ: "b"})

	types := r.Types()
	if len(types) != 2 {
		t.Fatalf("got %d types, want 2", len(types))
	}
}

type stubMemoryStore struct{}

func (stubMemoryStore) Get(string, string) (any, bool)       { return nil, false }
func (stubMemoryStore) Has(string, string) bool              { return false }
func (stubMemoryStore) Set(string, string, any)              {}
func (stubMemoryStore) Append(string, string, any)           {}
func (stubMemoryStore) Increment(string, string, float64) float64 { return 0 }
func (stubMemoryStore) List(string) map[string]any           { return nil }
func (stubMemoryStore) GetAll() map[string]map[string]any    { return nil }
func (stubMemoryStore) Delete(string, string)                {}
func (stubMemoryStore) Clear(string)                         {}

type stubSandbox struct{}

func (stubSandbox) Evaluate(context.Context, string, map[string]any) (any, error)       { return nil, nil }
func (stubSandbox) EvaluateScript(context.Context, string, map[string]any) (any, error) { return nil, nil }

func TestNewDefaultRegistryRegistersShippedProviders(t *testing.T) {
	r := NewDefaultRegistry(stubMemoryStore{}, stubSandbox{}, nil)

	for _, typ := range []string{"noop", "log", "memory", "command", "script"} {
		if _, ok := r.Lookup(typ); !ok {
			t.Fatalf("expected default registry to ship a %q provider", typ)
		}
	}
}
