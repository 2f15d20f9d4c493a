package gating

import (
	"context"
	"sync"

	"github.com/mdabydeen/dashstate/internal/domain"
	"github.com/mdabydeen/dashstate/internal/memo"
)

// DefaultIntervals are the static stats interval definitions.
var DefaultIntervals = []domain.IntervalDefinition{
	{ID: "day", Label: "Days", StatType: "stats_day"},
	{ID: "week", Label: "Weeks", StatType: "stats_week"},
	{ID: "month", Label: "Months", StatType: "stats_month"},
	{ID: "year", Label: "Years", StatType: "stats_year"},
}

// IntervalService enriches the interval definitions with per-site gating
// decisions. The enrichment is memoized on the gate results so that
// irrelevant entitlement churn does not produce a new slice identity:
// identical inputs return the identical slice.
type IntervalService struct {
	provider *Provider
	defs     []domain.IntervalDefinition

	mu    sync.Mutex
	memos map[int64]*memo.ByDeps[[]domain.GatedInterval]
}

// NewIntervalService creates an interval service using the default
// definitions.
func NewIntervalService(provider *Provider) *IntervalService {
	return &IntervalService{
		provider: provider,
		defs:     DefaultIntervals,
		memos:    make(map[int64]*memo.ByDeps[[]domain.GatedInterval]),
	}
}

// Intervals returns the definitions enriched with IsGated for the site.
func (s *IntervalService) Intervals(ctx context.Context, siteID int64) ([]domain.GatedInterval, error) {
	snap, err := s.provider.Snapshot(ctx, siteID)
	if err != nil {
		return nil, err
	}

	// Dependency fingerprint: one gate result per interval plus the site id.
	deps := make([]any, 0, len(s.defs)+1)
	deps = append(deps, siteID)
	for _, def := range s.defs {
		deps = append(deps, ShouldGateStats(snap, siteID, def.StatType))
	}

	return s.memoFor(siteID).Get(deps, func() []domain.GatedInterval {
		gated := make([]domain.GatedInterval, len(s.defs))
		for i, def := range s.defs {
			gated[i] = domain.GatedInterval{
				ID:       def.ID,
				Label:    def.Label,
				StatType: def.StatType,
				IsGated:  ShouldGateStats(snap, siteID, def.StatType),
			}
		}
		return gated
	}), nil
}

func (s *IntervalService) memoFor(siteID int64) *memo.ByDeps[[]domain.GatedInterval] {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.memos[siteID]
	if !ok {
		m = &memo.ByDeps[[]domain.GatedInterval]{}
		s.memos[siteID] = m
	}
	return m
}
