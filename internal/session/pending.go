package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mdabydeen/dashstate/internal/domain"
	"github.com/mdabydeen/dashstate/internal/kv"
)

// DefaultPendingActionKey is the preference key for the deferred signup action.
const DefaultPendingActionKey = "wp-reader-pending-signup-action"

// DefaultPendingActionTTL is the maximum age of a pending action.
const DefaultPendingActionTTL = 5 * time.Minute

// PendingActionHolder stores a deferred action for the short window between
// leaving for an auth round-trip and returning. Stale entries read as absent
// and are removed.
type PendingActionHolder struct {
	kv     *kv.Adapter
	key    string
	maxAge time.Duration
	now    func() time.Time
}

// PendingOption configures a PendingActionHolder.
type PendingOption func(*PendingActionHolder)

// WithPendingKey overrides the storage key.
func WithPendingKey(key string) PendingOption {
	return func(h *PendingActionHolder) { h.key = key }
}

// WithPendingTTL overrides the maximum age.
func WithPendingTTL(maxAge time.Duration) PendingOption {
	return func(h *PendingActionHolder) { h.maxAge = maxAge }
}

// WithPendingClock overrides the time source, for tests.
func WithPendingClock(now func() time.Time) PendingOption {
	return func(h *PendingActionHolder) { h.now = now }
}

// NewPendingActionHolder creates a pending action holder over the adapter.
func NewPendingActionHolder(adapter *kv.Adapter, opts ...PendingOption) *PendingActionHolder {
	h := &PendingActionHolder{
		kv:     adapter,
		key:    DefaultPendingActionKey,
		maxAge: DefaultPendingActionTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Key returns the storage key this holder persists under.
func (h *PendingActionHolder) Key() string {
	return h.key
}

// Get returns the stored action payload, or (nil, false) when absent or stale.
func (h *PendingActionHolder) Get(ctx context.Context, deviceID string) (json.RawMessage, bool) {
	var p domain.PendingAction
	if !h.kv.LoadJSON(ctx, deviceID, h.key, &p) {
		return nil, false
	}
	if p.ExpiredAt(h.now(), h.maxAge) {
		h.kv.Delete(ctx, deviceID, h.key)
		return nil, false
	}
	return p.Action, true
}

// Set stores the action payload with a fresh timestamp.
func (h *PendingActionHolder) Set(ctx context.Context, deviceID string, action json.RawMessage) {
	p := domain.PendingAction{
		Action:    action,
		Timestamp: h.now().UnixMilli(),
	}
	h.kv.SaveJSON(ctx, deviceID, h.key, p, h.maxAge)
}

// Clear removes the stored action.
func (h *PendingActionHolder) Clear(ctx context.Context, deviceID string) {
	h.kv.Delete(ctx, deviceID, h.key)
}
