package session

import (
	"context"
	"testing"

	"github.com/mdabydeen/dashstate/internal/domain"
	"github.com/mdabydeen/dashstate/internal/kv"
)

func TestChatStateDefault(t *testing.T) {
	h := NewChatStateHolder(kv.NewAdapter(kv.NewMemory()))

	if got := h.Current(context.Background(), "dev1"); got != domain.ChatStateCollapsed {
		t.Errorf("Expected default collapsed, got %q", got)
	}
}

func TestChatStateRoundTripIdempotent(t *testing.T) {
	h := NewChatStateHolder(kv.NewAdapter(kv.NewMemory()))
	ctx := context.Background()

	h.Set(ctx, "dev1", domain.ChatStateExpanded)

	// Storing the value just loaded must not change the next load.
	loaded := h.Current(ctx, "dev1")
	h.Set(ctx, "dev1", loaded)

	if got := h.Current(ctx, "dev1"); got != loaded {
		t.Errorf("Expected %q after save(load()), got %q", loaded, got)
	}
}

func TestChatStateToggle(t *testing.T) {
	h := NewChatStateHolder(kv.NewAdapter(kv.NewMemory()))
	ctx := context.Background()

	if got := h.Toggle(ctx, "dev1"); got != domain.ChatStateExpanded {
		t.Errorf("Expected first toggle to expand, got %q", got)
	}
	if got := h.Toggle(ctx, "dev1"); got != domain.ChatStateCollapsed {
		t.Errorf("Expected second toggle to collapse, got %q", got)
	}
}

func TestChatStateUnknownValueNormalizes(t *testing.T) {
	mem := kv.NewMemory()
	h := NewChatStateHolder(kv.NewAdapter(mem))
	ctx := context.Background()

	if err := mem.Save(ctx, "dev1", DefaultChatStateKey, []byte("sideways"), 0); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if got := h.Current(ctx, "dev1"); got != domain.ChatStateCollapsed {
		t.Errorf("Expected unknown value to normalize to collapsed, got %q", got)
	}
}

func TestChatStateInvalidSetIgnored(t *testing.T) {
	h := NewChatStateHolder(kv.NewAdapter(kv.NewMemory()))
	ctx := context.Background()

	h.Set(ctx, "dev1", domain.ChatStateExpanded)
	h.Set(ctx, "dev1", domain.ChatState("sideways"))

	if got := h.Current(ctx, "dev1"); got != domain.ChatStateExpanded {
		t.Errorf("Expected invalid set to be ignored, got %q", got)
	}
}

func TestChatStateCustomKey(t *testing.T) {
	mem := kv.NewMemory()
	h := NewChatStateHolder(kv.NewAdapter(mem), WithChatStateKey("custom-chat-key"))
	ctx := context.Background()

	h.Set(ctx, "dev1", domain.ChatStateExpanded)

	raw, err := mem.Load(ctx, "dev1", "custom-chat-key")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if string(raw) != "expanded" {
		t.Errorf("Expected raw string expanded under custom key, got %s", raw)
	}
}
