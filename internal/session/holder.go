// Package session provides the expiring session holder and the small
// persisted widget states that ride alongside it: chat collapse state and
// the short-lived pending signup action.
package session

import (
	"context"
	"time"

	"github.com/mdabydeen/dashstate/internal/domain"
	"github.com/mdabydeen/dashstate/internal/kv"
)

// DefaultSessionKey is the preference key for the stored session.
// The key is bit-exact for compatibility with existing stored state.
const DefaultSessionKey = "agents-manager-session-id"

// DefaultSessionTTL is how long a session stays valid after issuance.
const DefaultSessionTTL = 24 * time.Hour

// Holder manages the two-state session machine: Empty (no session) and
// Active (unexpired session id present). Expiry is lazy, checked on load
// rather than by a timer; storage failures degrade to Empty.
type Holder struct {
	kv  *kv.Adapter
	key string
	ttl time.Duration
	now func() time.Time
}

// HolderOption configures a Holder.
type HolderOption func(*Holder)

// WithKey overrides the storage key.
func WithKey(key string) HolderOption {
	return func(h *Holder) { h.key = key }
}

// WithTTL overrides the session TTL.
func WithTTL(ttl time.Duration) HolderOption {
	return func(h *Holder) { h.ttl = ttl }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) HolderOption {
	return func(h *Holder) { h.now = now }
}

// NewHolder creates a session holder over the given adapter.
func NewHolder(adapter *kv.Adapter, opts ...HolderOption) *Holder {
	h := &Holder{
		kv:  adapter,
		key: DefaultSessionKey,
		ttl: DefaultSessionTTL,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Key returns the storage key this holder persists under.
func (h *Holder) Key() string {
	return h.key
}

// Current returns the active session id for the device, or "" when the
// machine is Empty. A stored session past its TTL is removed on read.
func (h *Holder) Current(ctx context.Context, deviceID string) string {
	s, ok := h.Snapshot(ctx, deviceID)
	if !ok {
		return ""
	}
	return s.SessionID
}

// Snapshot returns the stored session and whether the machine is Active.
func (h *Holder) Snapshot(ctx context.Context, deviceID string) (domain.StoredSession, bool) {
	var s domain.StoredSession
	if !h.kv.LoadJSON(ctx, deviceID, h.key, &s) {
		return domain.StoredSession{}, false
	}
	if s.SessionID == "" {
		return domain.StoredSession{}, false
	}
	if s.ExpiredAt(h.now(), h.ttl) {
		h.kv.Delete(ctx, deviceID, h.key)
		return domain.StoredSession{}, false
	}
	return s, true
}

// Apply replaces the stored session wholesale with the given id and a fresh
// timestamp, transitioning the machine to Active.
func (h *Holder) Apply(ctx context.Context, deviceID, sessionID string) domain.StoredSession {
	s := domain.NewStoredSession(sessionID, h.now())
	h.kv.SaveJSON(ctx, deviceID, h.key, s, h.ttl)
	return s
}

// Reset removes the stored session, transitioning the machine to Empty.
func (h *Holder) Reset(ctx context.Context, deviceID string) {
	h.kv.Delete(ctx, deviceID, h.key)
}
