package kv

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// envelopeVersion is bumped whenever the shape of a persisted JSON payload
// changes incompatibly. Loads of any other version read as absent.
const envelopeVersion = 1

type envelope struct {
	Version int             `json:"version"`
	Payload json.RawMessage `json:"payload"`
}

func wrapPayload(v any) ([]byte, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return json.Marshal(envelope{Version: envelopeVersion, Payload: payload})
}

func unwrapPayload(raw []byte, v any) error {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if env.Version != envelopeVersion {
		return fmt.Errorf("%w: %d", ErrVersionUnknown, env.Version)
	}
	if err := json.Unmarshal(env.Payload, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	return nil
}

// Adapter wraps a Store and absorbs every failure mode: loads of missing,
// malformed, or unreadable values report absent, and saves degrade to a
// logged no-op. A preference glitch must never take a request down.
type Adapter struct {
	store Store
}

// NewAdapter creates an Adapter over the given driver.
func NewAdapter(store Store) *Adapter {
	return &Adapter{store: store}
}

// LoadJSON unmarshals the stored value for (owner, key) into v.
// Returns false when the key is absent, expired, malformed, of an unknown
// version, or the driver fails; v is untouched in that case.
func (a *Adapter) LoadJSON(ctx context.Context, owner, key string, v any) bool {
	raw, err := a.store.Load(ctx, owner, key)
	if err != nil {
		slog.Warn("kv load failed", "key", key, "error", err)
		return false
	}
	if raw == nil {
		return false
	}
	if err := unwrapPayload(raw, v); err != nil {
		slog.Warn("kv discarding unreadable record", "key", key, "error", err)
		return false
	}
	return true
}

// SaveJSON persists v under (owner, key) inside a versioned envelope.
// A ttl of 0 means the value never expires. Failures are logged and dropped.
func (a *Adapter) SaveJSON(ctx context.Context, owner, key string, v any, ttl time.Duration) {
	raw, err := wrapPayload(v)
	if err != nil {
		slog.Warn("kv marshal failed", "key", key, "error", err)
		return
	}
	if err := a.store.Save(ctx, owner, key, raw, ttl); err != nil {
		slog.Warn("kv save failed", "key", key, "error", err)
	}
}

// LoadString returns the raw string stored under (owner, key), bypassing the
// envelope. Returns ("", false) when absent or on driver failure.
func (a *Adapter) LoadString(ctx context.Context, owner, key string) (string, bool) {
	raw, err := a.store.Load(ctx, owner, key)
	if err != nil {
		slog.Warn("kv load failed", "key", key, "error", err)
		return "", false
	}
	if raw == nil {
		return "", false
	}
	return string(raw), true
}

// SaveString persists a raw string under (owner, key) with no envelope.
func (a *Adapter) SaveString(ctx context.Context, owner, key, value string, ttl time.Duration) {
	if err := a.store.Save(ctx, owner, key, []byte(value), ttl); err != nil {
		slog.Warn("kv save failed", "key", key, "error", err)
	}
}

// Delete removes (owner, key). Failures are logged and dropped.
func (a *Adapter) Delete(ctx context.Context, owner, key string) {
	if err := a.store.Delete(ctx, owner, key); err != nil {
		slog.Warn("kv delete failed", "key", key, "error", err)
	}
}
