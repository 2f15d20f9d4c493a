// Package kv provides the persistent key-value layer that backs device
// preferences: a typed Store interface with interchangeable drivers and a
// never-fail Adapter façade on top.
package kv

import (
	"context"
	"errors"
	"time"
)

// Common errors for key-value store operations.
var (
	ErrClosed          = errors.New("kv store closed")
	ErrVersionUnknown  = errors.New("unknown payload version")
	ErrMalformedRecord = errors.New("malformed stored record")
)

// Store is the raw driver interface. Load returns (nil, nil) when the key is
// absent; drivers are responsible for honoring TTLs, lazily on read where the
// backend has no native expiry.
type Store interface {
	Load(ctx context.Context, owner, key string) ([]byte, error)
	Save(ctx context.Context, owner, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, owner, key string) error
	Close() error
}
