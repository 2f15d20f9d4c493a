// Package gating decides whether a stats view is accessible under the
// current plan entitlements, and enriches the static interval definitions
// with that decision.
package gating

import (
	"context"
	"sync"
	"time"

	"github.com/mdabydeen/dashstate/internal/store"
)

// Snapshot is a read-only projection of a site's entitlement rows:
// stat type -> gated. Missing stat types are not gated.
type Snapshot map[string]bool

// ShouldGateStats is the single source of truth for whether a stat view
// shows an upsell overlay instead of data. Pure: no side effects, consulted
// synchronously. A zero siteID (no site context) resolves to not gated so
// free views stay visible.
func ShouldGateStats(snap Snapshot, siteID int64, statType string) bool {
	if siteID == 0 {
		return false
	}
	return snap[statType]
}

type snapshotEntry struct {
	snap     Snapshot
	loadedAt time.Time
}

// Provider loads entitlement snapshots from the repository and caches them
// per site for a refresh interval. Failed refreshes fall back to the last
// known snapshot rather than flapping the gate.
type Provider struct {
	repo    store.Repository
	refresh time.Duration
	now     func() time.Time

	mu    sync.Mutex
	cache map[int64]snapshotEntry
}

// NewProvider creates a snapshot provider over the repository.
func NewProvider(repo store.Repository, refresh time.Duration) *Provider {
	if refresh <= 0 {
		refresh = time.Minute
	}
	return &Provider{
		repo:    repo,
		refresh: refresh,
		now:     time.Now,
		cache:   make(map[int64]snapshotEntry),
	}
}

// Snapshot returns the entitlement snapshot for a site, loading from the
// repository when the cached copy is stale.
func (p *Provider) Snapshot(ctx context.Context, siteID int64) (Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	entry, ok := p.cache[siteID]
	if ok && p.now().Sub(entry.loadedAt) < p.refresh {
		return entry.snap, nil
	}

	ents, err := p.repo.ListEntitlements(ctx, siteID)
	if err != nil {
		if ok {
			return entry.snap, nil
		}
		return nil, err
	}

	snap := make(Snapshot, len(ents))
	for _, ent := range ents {
		snap[ent.StatType] = ent.Gated
	}
	p.cache[siteID] = snapshotEntry{snap: snap, loadedAt: p.now()}
	return snap, nil
}

// Invalidate drops the cached snapshot for a site, forcing a reload on the
// next read.
func (p *Provider) Invalidate(siteID int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.cache, siteID)
}
