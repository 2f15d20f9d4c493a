// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"github.com/mdabydeen/dashstate/internal/domain"
)

// Repository defines the interface for persisting devices, preferences,
// and entitlements.
type Repository interface {
	// GetDevice retrieves a device by its device ID.
	GetDevice(ctx context.Context, deviceID string) (*domain.Device, error)

	// UpsertDevice creates or updates a device record.
	UpsertDevice(ctx context.Context, device *domain.Device) error

	// TouchDevice updates the last_seen_at timestamp for a device.
	TouchDevice(ctx context.Context, deviceID string, seenAt time.Time) error

	// DeleteIdleDevices removes devices whose last_seen_at is before cutoff.
	DeleteIdleDevices(ctx context.Context, cutoff time.Time) (int64, error)

	// GetPreference retrieves a persisted preference value.
	// Returns (nil, nil) when the key is absent. Rows past their expiry are
	// removed lazily on read and reported as absent.
	GetPreference(ctx context.Context, deviceID, key string) ([]byte, error)

	// SetPreference creates or replaces a preference value. A nil expiresAt
	// means the value never expires.
	SetPreference(ctx context.Context, deviceID, key string, value []byte, expiresAt *time.Time) error

	// DeletePreference removes a preference value.
	DeletePreference(ctx context.Context, deviceID, key string) error

	// DeleteExpiredPreferences removes all preference rows past their expiry.
	DeleteExpiredPreferences(ctx context.Context, now time.Time) (int64, error)

	// ListEntitlements retrieves all entitlement rows for a site.
	ListEntitlements(ctx context.Context, siteID int64) ([]domain.Entitlement, error)

	// UpsertEntitlement creates or updates an entitlement row.
	UpsertEntitlement(ctx context.Context, ent domain.Entitlement) error

	// Ping verifies connectivity and returns an error if the backend is unreachable.
	Ping(ctx context.Context) error

	// Close closes the underlying connection.
	Close() error
}
