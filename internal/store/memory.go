package store

import (
	"context"
	"sync"
	"time"

	"github.com/mdabydeen/dashstate/internal/domain"
)

type prefRow struct {
	value     []byte
	expiresAt *time.Time
}

type entKey struct {
	siteID   int64
	statType string
}

// MemoryStore implements Repository using in-memory maps. Used by tests and
// as a fallback when no database path is configured.
type MemoryStore struct {
	mu           sync.RWMutex
	devices      map[string]domain.Device
	preferences  map[string]map[string]prefRow
	entitlements map[entKey]domain.Entitlement
}

// NewMemory creates a new in-memory repository.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		devices:      make(map[string]domain.Device),
		preferences:  make(map[string]map[string]prefRow),
		entitlements: make(map[entKey]domain.Entitlement),
	}
}

// GetDevice retrieves a device by its device ID.
func (s *MemoryStore) GetDevice(ctx context.Context, deviceID string) (*domain.Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	device, ok := s.devices[deviceID]
	if !ok {
		return nil, nil
	}
	return &device, nil
}

// UpsertDevice creates or updates a device record.
func (s *MemoryStore) UpsertDevice(ctx context.Context, device *domain.Device) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.devices[device.DeviceID] = *device
	return nil
}

// TouchDevice updates the last_seen_at timestamp for a device.
func (s *MemoryStore) TouchDevice(ctx context.Context, deviceID string, seenAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	device, ok := s.devices[deviceID]
	if !ok {
		return nil
	}
	device.LastSeenAt = seenAt
	device.UpdatedAt = time.Now()
	s.devices[deviceID] = device
	return nil
}

// DeleteIdleDevices removes devices whose last_seen_at is before cutoff.
func (s *MemoryStore) DeleteIdleDevices(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, device := range s.devices {
		if device.LastSeenAt.Before(cutoff) {
			delete(s.devices, id)
			deleted++
		}
	}
	return deleted, nil
}

// GetPreference retrieves a persisted preference value. Expired rows are
// deleted lazily on read and reported as absent.
func (s *MemoryStore) GetPreference(ctx context.Context, deviceID, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, ok := s.preferences[deviceID]
	if !ok {
		return nil, nil
	}
	row, ok := rows[key]
	if !ok {
		return nil, nil
	}
	if row.expiresAt != nil && !time.Now().Before(*row.expiresAt) {
		delete(rows, key)
		return nil, nil
	}

	value := make([]byte, len(row.value))
	copy(value, row.value)
	return value, nil
}

// SetPreference creates or replaces a preference value.
func (s *MemoryStore) SetPreference(ctx context.Context, deviceID, key string, value []byte, expiresAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, ok := s.preferences[deviceID]
	if !ok {
		rows = make(map[string]prefRow)
		s.preferences[deviceID] = rows
	}

	stored := make([]byte, len(value))
	copy(stored, value)
	rows[key] = prefRow{value: stored, expiresAt: expiresAt}
	return nil
}

// DeletePreference removes a preference value.
func (s *MemoryStore) DeletePreference(ctx context.Context, deviceID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rows, ok := s.preferences[deviceID]; ok {
		delete(rows, key)
	}
	return nil
}

// DeleteExpiredPreferences removes all preference rows past their expiry.
func (s *MemoryStore) DeleteExpiredPreferences(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for _, rows := range s.preferences {
		for key, row := range rows {
			if row.expiresAt != nil && !now.Before(*row.expiresAt) {
				delete(rows, key)
				deleted++
			}
		}
	}
	return deleted, nil
}

// ListEntitlements retrieves all entitlement rows for a site.
func (s *MemoryStore) ListEntitlements(ctx context.Context, siteID int64) ([]domain.Entitlement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ents []domain.Entitlement
	for key, ent := range s.entitlements {
		if key.siteID == siteID {
			ents = append(ents, ent)
		}
	}
	return ents, nil
}

// UpsertEntitlement creates or updates an entitlement row.
func (s *MemoryStore) UpsertEntitlement(ctx context.Context, ent domain.Entitlement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ent.UpdatedAt = time.Now()
	s.entitlements[entKey{ent.SiteID, ent.StatType}] = ent
	return nil
}

// Ping always succeeds for the in-memory store.
func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Close releases the in-memory maps.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.devices = nil
	s.preferences = nil
	s.entitlements = nil
	return nil
}
