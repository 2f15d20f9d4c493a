package gating

import (
	"time"

	"github.com/mdabydeen/dashstate/internal/domain"
)

// PressableOffer is the promotional window for the Pressable migration
// banner: agencies on the billingdragon system see it between February and
// April 2026, or at any time in refer mode.
var PressableOffer = domain.OfferWindow{
	Start:         time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC),
	End:           time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC),
	BillingSystem: "billingdragon",
}
