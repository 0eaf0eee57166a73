// Package memstore implements the Memory Store (§4.3): a process-wide,
// namespaced key/value store shared by every check in a run.
package memstore

import "sync"

// DefaultNamespace is used whenever a caller passes an empty namespace.
const DefaultNamespace = "default"

// Store is a namespaced, mutex-guarded key/value store, grounded on the
// teacher's internal/platform/cache.MemoryCache locking discipline
// (sync.RWMutex over a plain map, promoted here to two levels for
// namespacing).
type Store struct {
	mu   sync.RWMutex
	data map[string]map[string]any
}

// New constructs an empty Store. Most callers should use Get, which
// returns the process-wide singleton (§4.3: "singleton lifecycle per
// process"); New exists for tests and for embedding callers that want an
// isolated store per run.
func New() *Store {
	return &Store{data: make(map[string]map[string]any)}
}

var (
	singleton     *Store
	singletonOnce sync.Once
)

// Get returns the process-wide Store singleton, constructing it on first
// use.
func Get() *Store {
	singletonOnce.Do(func() {
		singleton = New()
	})
	return singleton
}

func (s *Store) namespaceOrDefault(ns string) string {
	if ns == "" {
		return DefaultNamespace
	}
	return ns
}

// nsLocked returns the map for ns, creating it if absent. Callers must
// hold s.mu for writing.
func (s *Store) nsLocked(ns string) map[string]any {
	n, ok := s.data[ns]
	if !ok {
		n = make(map[string]any)
		s.data[ns] = n
	}
	return n
}

// Get returns a key's value and whether it was present.
func (s *Store) Get(namespace, key string) (any, bool) {
	ns := s.namespaceOrDefault(namespace)
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.data[ns]
	if !ok {
		return nil, false
	}
	v, ok := n[key]
	return v, ok
}

// Has reports whether key exists in namespace.
func (s *Store) Has(namespace, key string) bool {
	_, ok := s.Get(namespace, key)
	return ok
}

// Set stores value under key in namespace, overwriting any existing value.
func (s *Store) Set(namespace, key string, value any) {
	ns := s.namespaceOrDefault(namespace)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nsLocked(ns)[key] = value
}

// Append promotes an existing scalar to a two-element slice and appends
// to an existing slice; an absent key becomes a one-element slice (§4.3:
// "append promotes scalar existing to [existing, value]; undefined
// becomes [value]").
func (s *Store) Append(namespace, key string, value any) {
	ns := s.namespaceOrDefault(namespace)
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.nsLocked(ns)
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

// Increment adds delta to the numeric value at key and returns the new
// total. A key with no existing value starts at 0. §4.3 notes that
// incrementing a non-numeric key is a TypeError in the JS-facing API; this
// Go-facing store instead treats a non-numeric existing value as 0 and
// overwrites it, since MemoryStore.Increment has no error return — a
// misused key corrects itself on the next increment rather than wedging
// the run.
func (s *Store) Increment(namespace, key string, delta float64) float64 {
	ns := s.namespaceOrDefault(namespace)
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.nsLocked(ns)
	cur, _ := toFloat(n[key])
	cur += delta
	n[key] = cur
	return cur
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// List returns a snapshot copy of every key/value pair in namespace.
func (s *Store) List(namespace string) map[string]any {
	ns := s.namespaceOrDefault(namespace)
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := s.data[ns]
	out := make(map[string]any, len(n))
	for k, v := range n {
		out[k] = v
	}
	return out
}

// GetAll returns a snapshot copy of every namespace.
func (s *Store) GetAll() map[string]map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]map[string]any, len(s.data))
	for ns, n := range s.data {
		cp := make(map[string]any, len(n))
		for k, v := range n {
			cp[k] = v
		}
		out[ns] = cp
	}
	return out
}

// Delete removes key from namespace, a no-op if it isn't present.
func (s *Store) Delete(namespace, key string) {
	ns := s.namespaceOrDefault(namespace)
	s.mu.Lock()
	defer s.mu.Unlock()
	if n, ok := s.data[ns]; ok {
		delete(n, key)
	}
}

// Clear removes every key in namespace.
func (s *Store) Clear(namespace string) {
	ns := s.namespaceOrDefault(namespace)
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, ns)
}

// ListNamespaces returns the names of every namespace with at least one
// write. A namespace removed by Clear is not listed.
func (s *Store) ListNamespaces() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.data))
	for ns := range s.data {
		out = append(out, ns)
	}
	return out
}
