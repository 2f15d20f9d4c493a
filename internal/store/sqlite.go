package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mdabydeen/dashstate/internal/domain"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	prefMu sync.Mutex // Mutex for preference writes to prevent SQLITE_BUSY
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS devices (
		device_id TEXT PRIMARY KEY,
		last_seen_at INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_devices_last_seen ON devices(last_seen_at);

	CREATE TABLE IF NOT EXISTS preferences (
		device_id TEXT NOT NULL,
		key TEXT NOT NULL,
		value BLOB NOT NULL,
		expires_at INTEGER,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (device_id, key)
	);
	CREATE INDEX IF NOT EXISTS idx_preferences_expires ON preferences(expires_at) WHERE expires_at IS NOT NULL;

	CREATE TABLE IF NOT EXISTS entitlements (
		site_id INTEGER NOT NULL,
		stat_type TEXT NOT NULL,
		gated INTEGER NOT NULL DEFAULT 0,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (site_id, stat_type)
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// GetDevice retrieves a device by its device ID.
func (s *SQLiteStore) GetDevice(ctx context.Context, deviceID string) (*domain.Device, error) {
	query := `
		SELECT device_id, last_seen_at, created_at, updated_at
		FROM devices WHERE device_id = ?`

	row := s.db.QueryRowContext(ctx, query, deviceID)

	var device domain.Device
	var lastSeen, createdAt, updatedAt int64

	err := row.Scan(&device.DeviceID, &lastSeen, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan device row: %w", err)
	}

	device.LastSeenAt = time.Unix(lastSeen, 0)
	device.CreatedAt = time.Unix(createdAt, 0)
	device.UpdatedAt = time.Unix(updatedAt, 0)

	return &device, nil
}

// UpsertDevice creates or updates a device record.
func (s *SQLiteStore) UpsertDevice(ctx context.Context, device *domain.Device) error {
	query := `
	INSERT INTO devices (device_id, last_seen_at, created_at, updated_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(device_id) DO UPDATE SET
		last_seen_at = excluded.last_seen_at,
		updated_at = excluded.updated_at`

	_, err := s.db.ExecContext(ctx, query,
		device.DeviceID, device.LastSeenAt.Unix(),
		device.CreatedAt.Unix(), device.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert device: %w", err)
	}
	return nil
}

// TouchDevice updates the last_seen_at timestamp for a device.
func (s *SQLiteStore) TouchDevice(ctx context.Context, deviceID string, seenAt time.Time) error {
	query := `UPDATE devices SET last_seen_at = ?, updated_at = ? WHERE device_id = ?`
	result, err := s.db.ExecContext(ctx, query, seenAt.Unix(), time.Now().Unix(), deviceID)
	if err != nil {
		return fmt.Errorf("touch device: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		slog.Warn("TouchDevice affected 0 rows", "device_id", deviceID)
	}

	return nil
}

// DeleteIdleDevices removes devices whose last_seen_at is before cutoff.
func (s *SQLiteStore) DeleteIdleDevices(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM devices WHERE last_seen_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("delete idle devices: %w", err)
	}
	return result.RowsAffected()
}

// GetPreference retrieves a persisted preference value. Expired rows are
// deleted lazily on read and reported as absent.
func (s *SQLiteStore) GetPreference(ctx context.Context, deviceID, key string) ([]byte, error) {
	query := `SELECT value, expires_at FROM preferences WHERE device_id = ? AND key = ?`
	row := s.db.QueryRowContext(ctx, query, deviceID, key)

	var value []byte
	var expiresAt sql.NullInt64

	err := row.Scan(&value, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan preference row: %w", err)
	}

	if expiresAt.Valid && time.Now().Unix() >= expiresAt.Int64 {
		if err := s.DeletePreference(ctx, deviceID, key); err != nil {
			slog.Warn("Failed to delete expired preference", "device_id", deviceID, "key", key, "error", err)
		}
		return nil, nil
	}

	return value, nil
}

// SetPreference creates or replaces a preference value.
func (s *SQLiteStore) SetPreference(ctx context.Context, deviceID, key string, value []byte, expiresAt *time.Time) error {
	s.prefMu.Lock()
	defer s.prefMu.Unlock()

	query := `
	INSERT INTO preferences (device_id, key, value, expires_at, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(device_id, key) DO UPDATE SET
		value = excluded.value,
		expires_at = excluded.expires_at,
		updated_at = excluded.updated_at`

	var expires interface{}
	if expiresAt != nil {
		expires = expiresAt.Unix()
	}

	_, err := s.db.ExecContext(ctx, query, deviceID, key, value, expires, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("set preference: %w", err)
	}
	return nil
}

// DeletePreference removes a preference value.
func (s *SQLiteStore) DeletePreference(ctx context.Context, deviceID, key string) error {
	s.prefMu.Lock()
	defer s.prefMu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`DELETE FROM preferences WHERE device_id = ? AND key = ?`, deviceID, key)
	if err != nil {
		return fmt.Errorf("delete preference: %w", err)
	}
	return nil
}

// DeleteExpiredPreferences removes all preference rows past their expiry.
func (s *SQLiteStore) DeleteExpiredPreferences(ctx context.Context, now time.Time) (int64, error) {
	s.prefMu.Lock()
	defer s.prefMu.Unlock()

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM preferences WHERE expires_at IS NOT NULL AND expires_at <= ?`, now.Unix())
	if err != nil {
		return 0, fmt.Errorf("delete expired preferences: %w", err)
	}
	return result.RowsAffected()
}

// ListEntitlements retrieves all entitlement rows for a site.
func (s *SQLiteStore) ListEntitlements(ctx context.Context, siteID int64) ([]domain.Entitlement, error) {
	query := `SELECT site_id, stat_type, gated, updated_at FROM entitlements WHERE site_id = ?`

	rows, err := s.db.QueryContext(ctx, query, siteID)
	if err != nil {
		return nil, fmt.Errorf("query entitlements: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close entitlement rows", "error", closeErr)
		}
	}()

	var ents []domain.Entitlement
	for rows.Next() {
		var ent domain.Entitlement
		var updatedAt int64

		if err := rows.Scan(&ent.SiteID, &ent.StatType, &ent.Gated, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan entitlement row: %w", err)
		}

		ent.UpdatedAt = time.Unix(updatedAt, 0)
		ents = append(ents, ent)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entitlements: %w", err)
	}

	return ents, nil
}

// UpsertEntitlement creates or updates an entitlement row.
func (s *SQLiteStore) UpsertEntitlement(ctx context.Context, ent domain.Entitlement) error {
	query := `
	INSERT INTO entitlements (site_id, stat_type, gated, updated_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(site_id, stat_type) DO UPDATE SET
		gated = excluded.gated,
		updated_at = excluded.updated_at`

	_, err := s.db.ExecContext(ctx, query,
		ent.SiteID, ent.StatType, ent.Gated, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("upsert entitlement: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
