package domain

import (
	"encoding/json"
	"time"
)

// StoredSession correlates a device with a server-side conversation context.
// A session is valid only while its timestamp is younger than the session TTL;
// it is never mutated in place, always replaced wholesale.
type StoredSession struct {
	SessionID string `json:"sessionId"`
	Timestamp int64  `json:"timestamp"` // epoch milliseconds
}

// NewStoredSession creates a session stamped at the given time.
func NewStoredSession(sessionID string, now time.Time) StoredSession {
	return StoredSession{
		SessionID: sessionID,
		Timestamp: now.UnixMilli(),
	}
}

// IssuedAt returns the session creation time.
func (s StoredSession) IssuedAt() time.Time {
	return time.UnixMilli(s.Timestamp)
}

// ExpiredAt reports whether the session is stale at the given time.
func (s StoredSession) ExpiredAt(now time.Time, ttl time.Duration) bool {
	return now.Sub(s.IssuedAt()) >= ttl
}

// ChatState is the persisted collapse state of the chat widget.
// It is stored verbatim as a raw string and never expires.
type ChatState string

const (
	ChatStateCollapsed ChatState = "collapsed"
	ChatStateExpanded  ChatState = "expanded"
)

// Valid reports whether the value is one of the two known states.
func (c ChatState) Valid() bool {
	return c == ChatStateCollapsed || c == ChatStateExpanded
}

// Toggled returns the opposite state. Unknown values normalize to collapsed
// first, so they toggle to expanded.
func (c ChatState) Toggled() ChatState {
	if c == ChatStateExpanded {
		return ChatStateCollapsed
	}
	return ChatStateExpanded
}

// PendingAction is a deferred signup action stored until the user returns
// from an auth round-trip. Entries older than the pending-action TTL are
// discarded on read.
type PendingAction struct {
	Action    json.RawMessage `json:"action"`
	Timestamp int64           `json:"timestamp"` // epoch milliseconds
}

// ExpiredAt reports whether the pending action is older than maxAge.
func (p PendingAction) ExpiredAt(now time.Time, maxAge time.Duration) bool {
	return now.Sub(time.UnixMilli(p.Timestamp)) >= maxAge
}
