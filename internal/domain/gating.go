package domain

import (
	"time"
)

// IntervalDefinition is a static stats interval (day, week, month, year).
type IntervalDefinition struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	StatType string `json:"statType"`
}

// GatedInterval is an interval definition enriched with the entitlement
// decision for a specific site. Computed, never persisted.
type GatedInterval struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	StatType string `json:"statType"`
	IsGated  bool   `json:"isGated"`
}

// Entitlement is a per-site, per-stat gating row: when Gated is true the
// frontend shows an upsell overlay instead of the data view.
type Entitlement struct {
	SiteID    int64     `json:"site_id"`
	StatType  string    `json:"stat_type"`
	Gated     bool      `json:"gated"`
	UpdatedAt time.Time `json:"updated_at"`
}
