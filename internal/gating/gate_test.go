package gating

import (
	"context"
	"testing"
	"time"

	"github.com/mdabydeen/dashstate/internal/domain"
	"github.com/mdabydeen/dashstate/internal/store"
)

func TestShouldGateStats(t *testing.T) {
	snap := Snapshot{"stats_year": true, "stats_day": false}

	tests := []struct {
		name     string
		siteID   int64
		statType string
		want     bool
	}{
		{"gated stat", 42, "stats_year", true},
		{"ungated stat", 42, "stats_day", false},
		{"unknown stat defaults ungated", 42, "stats_hour", false},
		{"no site context never gates", 0, "stats_year", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldGateStats(snap, tt.siteID, tt.statType); got != tt.want {
				t.Errorf("ShouldGateStats(%d, %s) = %v, want %v", tt.siteID, tt.statType, got, tt.want)
			}
		})
	}
}

func TestProviderCachesWithinRefresh(t *testing.T) {
	repo := store.NewMemory()
	ctx := context.Background()

	if err := repo.UpsertEntitlement(ctx, domain.Entitlement{SiteID: 42, StatType: "stats_year", Gated: true}); err != nil {
		t.Fatalf("UpsertEntitlement failed: %v", err)
	}

	p := NewProvider(repo, time.Minute)

	snap, err := p.Snapshot(ctx, 42)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if !snap["stats_year"] {
		t.Error("Expected stats_year gated")
	}

	// A change inside the refresh window is not observed.
	if err := repo.UpsertEntitlement(ctx, domain.Entitlement{SiteID: 42, StatType: "stats_year", Gated: false}); err != nil {
		t.Fatalf("UpsertEntitlement failed: %v", err)
	}
	snap, err = p.Snapshot(ctx, 42)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if !snap["stats_year"] {
		t.Error("Expected cached snapshot inside refresh window")
	}

	// Invalidation forces a reload.
	p.Invalidate(42)
	snap, err = p.Snapshot(ctx, 42)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if snap["stats_year"] {
		t.Error("Expected reload after invalidation")
	}
}

func TestPressableOfferWindow(t *testing.T) {
	tests := []struct {
		name          string
		now           time.Time
		billingSystem string
		referMode     bool
		want          bool
	}{
		{"inside window", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), "billingdragon", false, true},
		{"after window", time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), "billingdragon", false, false},
		{"before window", time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), "billingdragon", false, false},
		{"refer mode bypasses dates", time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), "billingdragon", true, true},
		{"wrong billing system", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), "legacy", false, false},
		{"wrong billing system with refer mode", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), "legacy", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PressableOffer.Active(tt.now, tt.billingSystem, tt.referMode); got != tt.want {
				t.Errorf("Active(%s, %s, %v) = %v, want %v", tt.now.Format("2006-01-02"), tt.billingSystem, tt.referMode, got, tt.want)
			}
		})
	}
}
