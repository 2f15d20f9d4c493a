// Package memo provides a reusable memoize-by-dependency utility: a cached
// value that is recomputed only when its dependency fingerprint changes,
// compared element-wise. One implementation, shared by every caller, instead
// of ad hoc per-feature caches.
package memo

import (
	"sync"
)

// ByDeps caches a single computed value keyed by a dependency slice.
// Dependency elements must be comparable with ==; slices and maps belong in
// the fingerprint only through a stable surrogate (length, identity pointer,
// individual elements).
type ByDeps[T any] struct {
	mu    sync.Mutex
	deps  []any
	value T
	valid bool
}

// Get returns the cached value when deps matches the previous call, and
// otherwise invokes compute and caches the result under the new fingerprint.
func (m *ByDeps[T]) Get(deps []any, compute func() T) T {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.valid && depsEqual(m.deps, deps) {
		return m.value
	}

	m.value = compute()
	m.deps = append([]any(nil), deps...)
	m.valid = true
	return m.value
}

// Invalidate drops the cached value; the next Get recomputes unconditionally.
func (m *ByDeps[T]) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.valid = false
	m.deps = nil
}

func depsEqual(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
