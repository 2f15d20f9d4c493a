package domain

import (
	"time"
)

// OfferWindow gates a promotional banner by billing system and date range.
// It is a pure predicate evaluated at request time, not a stateful entity.
type OfferWindow struct {
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	BillingSystem string    `json:"billing_system"`
}

// Active reports whether the offer should render. The billing system must
// always match; referMode bypasses the date-range check only.
func (o OfferWindow) Active(now time.Time, billingSystem string, referMode bool) bool {
	if billingSystem != o.BillingSystem {
		return false
	}
	if referMode {
		return true
	}
	return !now.Before(o.Start) && now.Before(o.End)
}
