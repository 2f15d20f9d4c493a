package session

import (
	"context"

	"github.com/mdabydeen/dashstate/internal/domain"
	"github.com/mdabydeen/dashstate/internal/kv"
)

// DefaultChatStateKey is the preference key for the chat widget state.
const DefaultChatStateKey = "agents-manager-chat-state"

// ChatStateHolder persists the chat widget collapse state verbatim as a raw
// string. The state never expires; unknown stored values normalize to
// collapsed.
type ChatStateHolder struct {
	kv  *kv.Adapter
	key string
}

// ChatStateOption configures a ChatStateHolder.
type ChatStateOption func(*ChatStateHolder)

// WithChatStateKey overrides the storage key.
func WithChatStateKey(key string) ChatStateOption {
	return func(h *ChatStateHolder) { h.key = key }
}

// NewChatStateHolder creates a chat state holder over the given adapter.
func NewChatStateHolder(adapter *kv.Adapter, opts ...ChatStateOption) *ChatStateHolder {
	h := &ChatStateHolder{kv: adapter, key: DefaultChatStateKey}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Key returns the storage key this holder persists under.
func (h *ChatStateHolder) Key() string {
	return h.key
}

// Current returns the persisted state, defaulting to collapsed.
func (h *ChatStateHolder) Current(ctx context.Context, deviceID string) domain.ChatState {
	raw, ok := h.kv.LoadString(ctx, deviceID, h.key)
	if !ok {
		return domain.ChatStateCollapsed
	}
	state := domain.ChatState(raw)
	if !state.Valid() {
		return domain.ChatStateCollapsed
	}
	return state
}

// Set persists the given state verbatim. Invalid states are ignored; the
// caller validates before persisting.
func (h *ChatStateHolder) Set(ctx context.Context, deviceID string, state domain.ChatState) {
	if !state.Valid() {
		return
	}
	h.kv.SaveString(ctx, deviceID, h.key, string(state), 0)
}

// Toggle flips the persisted state and returns the new value.
func (h *ChatStateHolder) Toggle(ctx context.Context, deviceID string) domain.ChatState {
	next := h.Current(ctx, deviceID).Toggled()
	h.Set(ctx, deviceID, next)
	return next
}
