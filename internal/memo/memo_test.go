package memo

import (
	"testing"
)

func TestGetCachesOnEqualDeps(t *testing.T) {
	var m ByDeps[[]int]
	calls := 0
	compute := func() []int {
		calls++
		return []int{1, 2, 3}
	}

	first := m.Get([]any{int64(42), true, false}, compute)
	second := m.Get([]any{int64(42), true, false}, compute)

	if calls != 1 {
		t.Errorf("Expected 1 compute call, got %d", calls)
	}
	if &first[0] != &second[0] {
		t.Error("Expected identical slice reference for identical deps")
	}
}

func TestGetRecomputesOnChangedDeps(t *testing.T) {
	var m ByDeps[[]int]
	calls := 0
	compute := func() []int {
		calls++
		return []int{calls}
	}

	m.Get([]any{int64(42), true}, compute)
	got := m.Get([]any{int64(42), false}, compute)

	if calls != 2 {
		t.Errorf("Expected 2 compute calls, got %d", calls)
	}
	if got[0] != 2 {
		t.Errorf("Expected recomputed value, got %v", got)
	}
}

func TestGetRecomputesOnLengthChange(t *testing.T) {
	var m ByDeps[int]
	calls := 0
	compute := func() int {
		calls++
		return calls
	}

	m.Get([]any{1, 2}, compute)
	m.Get([]any{1, 2, 3}, compute)

	if calls != 2 {
		t.Errorf("Expected 2 compute calls, got %d", calls)
	}
}

func TestInvalidate(t *testing.T) {
	var m ByDeps[int]
	calls := 0
	compute := func() int {
		calls++
		return calls
	}

	m.Get([]any{"a"}, compute)
	m.Invalidate()
	m.Get([]any{"a"}, compute)

	if calls != 2 {
		t.Errorf("Expected 2 compute calls after invalidate, got %d", calls)
	}
}

func TestDepsCopiedNotAliased(t *testing.T) {
	var m ByDeps[int]
	calls := 0
	compute := func() int {
		calls++
		return calls
	}

	deps := []any{"a", 1}
	m.Get(deps, compute)

	// Mutating the caller's slice must not corrupt the stored fingerprint.
	deps[0] = "b"
	m.Get([]any{"a", 1}, compute)

	if calls != 1 {
		t.Errorf("Expected cached value despite caller mutation, got %d calls", calls)
	}
}
