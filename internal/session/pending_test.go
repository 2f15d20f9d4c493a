package session

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/mdabydeen/dashstate/internal/kv"
)

func TestPendingActionRoundTrip(t *testing.T) {
	h := NewPendingActionHolder(kv.NewAdapter(kv.NewMemory()))
	ctx := context.Background()

	h.Set(ctx, "dev1", json.RawMessage(`{"action":"follow","blog_id":99}`))

	got, ok := h.Get(ctx, "dev1")
	if !ok {
		t.Fatal("Expected pending action")
	}

	var decoded map[string]any
	if err := json.Unmarshal(got, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if decoded["action"] != "follow" {
		t.Errorf("Unexpected action payload: %v", decoded)
	}
}

func TestPendingActionExpiry(t *testing.T) {
	now := time.Now()
	clock := &now
	h := NewPendingActionHolder(kv.NewAdapter(kv.NewMemory()),
		WithPendingClock(func() time.Time { return *clock }))
	ctx := context.Background()

	h.Set(ctx, "dev1", json.RawMessage(`{"action":"follow"}`))

	// Under 5 minutes: still present.
	fresh := now.Add(4 * time.Minute)
	clock = &fresh
	if _, ok := h.Get(ctx, "dev1"); !ok {
		t.Error("Expected pending action under max age")
	}

	// Past 5 minutes: read as absent.
	stale := now.Add(6 * time.Minute)
	clock = &stale
	if _, ok := h.Get(ctx, "dev1"); ok {
		t.Error("Expected pending action past max age to read as absent")
	}
}

func TestPendingActionClear(t *testing.T) {
	h := NewPendingActionHolder(kv.NewAdapter(kv.NewMemory()))
	ctx := context.Background()

	h.Set(ctx, "dev1", json.RawMessage(`{}`))
	h.Clear(ctx, "dev1")

	if _, ok := h.Get(ctx, "dev1"); ok {
		t.Error("Expected no pending action after clear")
	}
}
