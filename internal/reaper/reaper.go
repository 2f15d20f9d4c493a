// Package reaper runs the background sweep that removes expired preference
// rows and idle device rows. Expiry is otherwise lazy, enforced on read; the
// sweep keeps rows that are never read again from accumulating.
package reaper

import (
	"context"
	"log/slog"
	"time"

	"github.com/mdabydeen/dashstate/internal/shared"
	"github.com/mdabydeen/dashstate/internal/store"
)

// DefaultInterval is how often the sweep runs.
const DefaultInterval = 5 * time.Minute

// sweepWithRetry runs a delete sweep with exponential backoff to ride out
// SQLITE_BUSY while another writer holds the lock.
func sweepWithRetry(ctx context.Context, name string, fn func() (int64, error)) (int64, error) {
	maxRetries := 3
	baseDelay := 100 * time.Millisecond

	var err error
	for i := 0; i < maxRetries; i++ {
		var deleted int64
		deleted, err = fn()
		if err == nil {
			return deleted, nil
		}

		if shared.IsSQLiteConflictError(err) && i < maxRetries-1 {
			delay := baseDelay * time.Duration(1<<i) // 100ms, 200ms, 400ms
			slog.Debug("Reaper sweep hit a locked database, retrying",
				"sweep", name,
				"attempt", i+1,
				"delay", delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return 0, ctx.Err()
			}
			continue
		}

		return 0, err
	}
	return 0, err
}

// Start runs a background goroutine that periodically deletes expired
// preferences and devices idle longer than deviceTTL. It stops when ctx is
// canceled.
func Start(ctx context.Context, repo store.Repository, interval, deviceTTL time.Duration) {
	if interval <= 0 {
		interval = DefaultInterval
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		slog.Info("Reaper started", "interval", interval, "device_ttl", deviceTTL)

		for {
			select {
			case <-ticker.C:
				sweep(ctx, repo, deviceTTL)
			case <-ctx.Done():
				slog.Info("Reaper shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

func sweep(ctx context.Context, repo store.Repository, deviceTTL time.Duration) {
	now := time.Now()

	deleted, err := sweepWithRetry(ctx, "preferences", func() (int64, error) {
		return repo.DeleteExpiredPreferences(ctx, now)
	})
	if err != nil {
		slog.Error("Reaper failed to delete expired preferences", "error", err)
	} else if deleted > 0 {
		slog.Info("Reaper deleted expired preferences", "count", deleted)
	}

	if deviceTTL <= 0 {
		return
	}

	deleted, err = sweepWithRetry(ctx, "devices", func() (int64, error) {
		return repo.DeleteIdleDevices(ctx, now.Add(-deviceTTL))
	})
	if err != nil {
		slog.Error("Reaper failed to delete idle devices", "error", err)
	} else if deleted > 0 {
		slog.Info("Reaper deleted idle devices", "count", deleted)
	}
}
