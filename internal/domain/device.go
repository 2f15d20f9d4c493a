// Package domain contains core domain types for the dashstate service.
package domain

import (
	"time"
)

// Device represents an anonymous browser device that owns persisted state.
type Device struct {
	DeviceID   string    `json:"device_id"`
	LastSeenAt time.Time `json:"last_seen_at"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// IdleSince returns how long the device has been inactive.
func (d *Device) IdleSince(now time.Time) time.Duration {
	idle := now.Sub(d.LastSeenAt)
	if idle < 0 {
		return 0
	}
	return idle
}

// ExpiresIn returns the time until the device record is eligible for pruning.
// Returns 0 if the device has already expired.
func (d *Device) ExpiresIn(deviceTTL time.Duration) time.Duration {
	expiresAt := d.LastSeenAt.Add(deviceTTL)
	ttl := time.Until(expiresAt)
	if ttl < 0 {
		return 0
	}
	return ttl
}
