package memstore

import "testing"

func TestSetGet(t *testing.T) {
	s := New()
	s.Set("ns", "k", "v")
	v, ok := s.Get("ns", "k")
	if !ok || v != "v" {
		t.Fatalf("got (%v, %v), want (v, true)", v, ok)
	}
}

func TestGetMissing(t *testing.T) {
	s := New()
	if _, ok := s.Get("ns", "missing"); ok {
		t.Fatal("expected ok=false for a missing key")
	}
}

func TestHas(t *testing.T) {
	s := New()
	if s.Has("ns", "k") {
		t.Fatal("expected Has to be false before Set")
	}
	s.Set("ns", "k", 1.0)
	if !s.Has("ns", "k") {
		t.Fatal("expected Has to be true after Set")
	}
}

func TestDefaultNamespace(t *testing.T) {
	s := New()
	s.Set("", "k", "v")
	v, ok := s.Get(DefaultNamespace, "k")
	if !ok || v != "v" {
		t.Fatalf("empty namespace should alias %q, got (%v, %v)", DefaultNamespace, v, ok)
	}
}

func TestNamespaceIsolation(t *testing.T) {
	s := New()
	s.Set("nsA", "k", "a")
	s.Set("nsB", "k", "b")

	va, _ := s.Get("nsA", "k")
	vb, _ := s.Get("nsB", "k")
	if va == vb {
		t.Fatalf("expected isolated namespaces, got %v == %v", va, vb)
	}
}

func TestAppendUndefinedBecomesSingleton(t *testing.T) {
	s := New()
	s.Append("ns", "list", "a")
	v, _ := s.Get("ns", "list")
	list, ok := v.([]any)
	if !ok || len(list) != 1 || list[0] != "a" {
		t.Fatalf("got %#v, want [a]", v)
	}
}

func TestAppendPromotesScalar(t *testing.T) {
	s := New()
	s.Set("ns", "k", "first")
	s.Append("ns", "k", "second")
	v, _ := s.Get("ns", "k")
	list, ok := v.([]any)
	if !ok || len(list) != 2 || list[0] != "first" || list[1] != "second" {
		t.Fatalf("got %#v, want [first second]", v)
	}
}

func TestAppendGrowsExistingSlice(t *testing.T) {
	s := New()
	s.Append("ns", "k", "a")
	s.Append("ns", "k", "b")
	s.Append("ns", "k", "c")
	v, _ := s.Get("ns", "k")
	list := v.([]any)
	if len(list) != 3 {
		t.Fatalf("got %d entries, want 3", len(list))
	}
}

func TestIncrementFromZero(t *testing.T) {
	s := New()
	got := s.Increment("ns", "counter", 1)
	if got != 1.0 {
		t.Fatalf("got %v, want 1.0", got)
	}
	got = s.Increment("ns", "counter", 2)
	if got != 3.0 {
		t.Fatalf("got %v, want 3.0", got)
	}
}

func TestIncrementNonNumericResets(t *testing.T) {
	s := New()
	s.Set("ns", "counter", "not-a-number")
	got := s.Increment("ns", "counter", 5)
	if got != 5.0 {
		t.Fatalf("got %v, want 5.0 (non-numeric existing value treated as 0)", got)
	}
}

func TestDeleteAndHas(t *testing.T) {
	s := New()
	s.Set("ns", "k", "v")
	s.Delete("ns", "k")
	if s.Has("ns", "k") {
		t.Fatal("expected Has to be false after Delete")
	}
}

func TestClearNamespace(t *testing.T) {
	s := New()
	s.Set("ns", "a", 1.0)
	s.Set("ns", "b", 2.0)
	s.Clear("ns")
	if len(s.List("ns")) != 0 {
		t.Fatal("expected List to be empty after Clear")
	}
}

func TestListReturnsCopy(t *testing.T) {
	s := New()
	s.Set("ns", "a", 1.0)
	list := s.List("ns")
	list["a"] = 999.0
	v, _ := s.Get("ns", "a")
	if v != 1.0 {
		t.Fatal("List should return a copy, not a live view")
	}
}

func TestGetAllListsEveryNamespace(t *testing.T) {
	s := New()
	s.Set("nsA", "a", 1.0)
	s.Set("nsB", "b", 2.0)

	all := s.GetAll()
	if len(all) != 2 {
		t.Fatalf("got %d namespaces, want 2", len(all))
	}
}

func TestListNamespaces(t *testing.T) {
	s := New()
	s.Set("nsA", "a", 1.0)
	s.Set("nsB", "b", 2.0)

	names := s.ListNamespaces()
	if len(names) != 2 {
		t.Fatalf("got %d namespaces, want 2", len(names))
	}
}

func TestSingletonReturnsSameInstance(t *testing.T) {
	a := Get()
	b := Get()
	if a != b {
		t.Fatal("expected Get() to return the same singleton instance")
	}
}
