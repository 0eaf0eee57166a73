package provider

import (
	"context"
	"testing"

	"github.com/codcod/visor/internal/core"
	"github.com/codcod/visor/internal/sandbox"
	"github.com/codcod/visor/internal/verrors"
)

// fakeMemoryStore is a minimal in-process core.MemoryStore for exercising
// MemoryProvider without depending on internal/memstore.
type fakeMemoryStore struct {
	data map[string]map[string]any
}

func newFakeMemoryStore() *fakeMemoryStore {
	return &fakeMemoryStore{data: map[string]map[string]any{}}
}

func (f *fakeMemoryStore) ns(namespace string) map[string]any {
	n, ok := f.data[namespace]
	if !ok {
		n = map[string]any{}
		f.data[namespace] = n
	}
	return n
}

func (f *fakeMemoryStore) Get(namespace, key string) (any, bool) {
	v, ok := f.ns(namespace)[key]
	return v, ok
}
func (f *fakeMemoryStore) Has(namespace, key string) bool {
	_, ok := f.ns(namespace)[key]
	return ok
}
func (f *fakeMemoryStore) Set(namespace, key string, value any) { f.ns(namespace)[key] = value }
func (f *fakeMemoryStore) Append(namespace, key string, value any) {
	n := f.ns(namespace)
	existing, ok := n[key]
	if !ok {
		n[key] = []any{value}
		return
	}
	if list, ok := existing.([]any); ok {
		n[key] = append(list, value)
		return
	}
	n[key] = []any{existing, value}
}
func (f *fakeMemoryStore) Increment(namespace, key string, delta float64) float64 {
	n := f.ns(namespace)
	cur, _ := n[key].(float64)
	cur += delta
	n[key] = cur
	return cur
}
func (f *fakeMemoryStore) List(namespace string) map[string]any        { return f.ns(namespace) }
func (f *fakeMemoryStore) GetAll() map[string]map[string]any           { return f.data }
func (f *fakeMemoryStore) Delete(namespace, key string)                { delete(f.ns(namespace), key) }
func (f *fakeMemoryStore) Clear(namespace string)                      { delete(f.data, namespace) }

func TestMemoryProviderSetAndGet(t *testing.T) {
	store := newFakeMemoryStore()
	p := NewMemoryProvider(store, sandbox.New(0))
	item := core.WorkItem{CheckID: "mem"}

	_, err := p.Execute(context.Background(), item, core.CheckConfig{
		Type: "memory", Operation: "set", Key: "count", Value: 1.0,
	})
	if err != nil {
		t.Fatalf("set: unexpected error: %v", err)
	}

	summary, err := p.Execute(context.Background(), item, core.CheckConfig{
		Type: "memory", Operation: "get", Key: "count",
	})
	if err != nil {
		t.Fatalf("get: unexpected error: %v", err)
	}
	if summary.Output != 1.0 {
		t.Fatalf("got %v, want 1.0", summary.Output)
	}
}

func TestMemoryProviderIncrement(t *testing.T) {
	store := newFakeMemoryStore()
	p := NewMemoryProvider(store, sandbox.New(0))
	item := core.WorkItem{CheckID: "mem"}

	for i := 0; i < 3; i++ {
		if _, err := p.Execute(context.Background(), item, core.CheckConfig{
			Type: "memory", Operation: "increment", Key: "hits",
		}); err != nil {
			t.Fatalf("increment: unexpected error: %v", err)
		}
	}

	v, _ := store.Get("default", "hits")
	if v != 3.0 {
		t.Fatalf("got %v, want 3.0", v)
	}
}

func TestMemoryProviderValueJS(t *testing.T) {
	store := newFakeMemoryStore()
	p := NewMemoryProvider(store, sandbox.New(0))
	item := core.WorkItem{
		CheckID: "mem",
		DependencyOutputs: map[string]core.CheckOutput{
			"lint": core.NewValueOutput(2.0),
		},
	}

	_, err := p.Execute(context.Background(), item, core.CheckConfig{
		Type: "memory", Operation: "set", Key: "lintIssues", ValueJS: "outputs.lint * 10",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	v, ok := store.Get("default", "lintIssues")
	if !ok {
		t.Fatal("expected lintIssues to be set")
	}
	if v != int64(20) {
		t.Fatalf("got %v (%T), want 20", v, v)
	}
}

func TestMemoryProviderUnknownOperation(t *testing.T) {
	store := newFakeMemoryStore()
	p := NewMemoryProvider(store, sandbox.New(0))

	_, err := p.Execute(context.Background(), core.WorkItem{}, core.CheckConfig{
		Type: "memory", Operation: "bogus",
	})
	if err == nil {
		t.Fatal("expected an error for an unknown operation")
	}
}

func TestMemoryProviderIncrementNonNumericFails(t *testing.T) {
	store := newFakeMemoryStore()
	p := NewMemoryProvider(store, sandbox.New(0))
	store.Set("default", "label", "not-a-number")

	_, err := p.Execute(context.Background(), core.WorkItem{}, core.CheckConfig{
		Type: "memory", Operation: "increment", Key: "label",
	})
	if err == nil {
		t.Fatal("expected an error incrementing a non-numeric value")
	}
	if !verrors.Is(err, verrors.KindMemoryType) {
		t.Fatalf("expected KindMemoryType, got %v", err)
	}
}
