// Package navhistory persists a bounded stack of visited stats screens and
// derives the "back" affordance from it, without relying on router history.
package navhistory

import (
	"context"
	"net/url"
	"strings"

	"github.com/mdabydeen/dashstate/internal/domain"
	"github.com/mdabydeen/dashstate/internal/kv"
)

// StorageKey is the preference key for the navigation stack.
// Bit-exact for compatibility with existing stored state.
const StorageKey = "jp-stats-navigation"

// DefaultMaxDepth bounds the stack; the oldest entry is evicted first.
const DefaultMaxDepth = 20

type backLinkTemplate struct {
	Text string
	URL  string
}

// possibleBackLinks is the fixed allow-list of recordable screens. Recording
// any other screen name is a no-op.
var possibleBackLinks = map[string]backLinkTemplate{
	"traffic":     {Text: "Traffic", URL: "/stats/{period}/"},
	"insights":    {Text: "Insights", URL: "/stats/insights/"},
	"store":       {Text: "Store", URL: "/store/stats/orders/{period}/"},
	"subscribers": {Text: "Subscribers", URL: "/stats/subscribers/"},
	"annualstats": {Text: "Annual insights", URL: "/stats/annualstats/"},
}

// supportedQueryParams is the whitelist of query parameter names that
// persist with an entry. Everything else is dropped silently, as a
// deliberate size and privacy bound.
var supportedQueryParams = map[string]struct{}{
	"startDate": {},
	"endDate":   {},
	"tab":       {},
	"chartTab":  {},
	"num":       {},
}

// defaultBackLink is returned when the stack is empty.
var defaultBackLink = domain.BackLink{Text: "Stats", URL: "/stats/day/"}

// Stack is the persisted navigation history for a device. All operations
// degrade to no-ops on storage failure; malformed stored JSON reads as an
// empty stack and is replaced wholesale on the next write.
type Stack struct {
	kv       *kv.Adapter
	key      string
	maxDepth int
}

// Option configures a Stack.
type Option func(*Stack)

// WithStorageKey overrides the storage key.
func WithStorageKey(key string) Option {
	return func(s *Stack) { s.key = key }
}

// WithMaxDepth overrides the stack depth bound.
func WithMaxDepth(depth int) Option {
	return func(s *Stack) {
		if depth > 0 {
			s.maxDepth = depth
		}
	}
}

// New creates a navigation history stack over the given adapter.
func New(adapter *kv.Adapter, opts ...Option) *Stack {
	s := &Stack{kv: adapter, key: StorageKey, maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the storage key this stack persists under.
func (s *Stack) Key() string {
	return s.key
}

// KnownScreen reports whether the screen name is in the allow-list.
func KnownScreen(screen string) bool {
	_, ok := possibleBackLinks[screen]
	return ok
}

// Entries returns the persisted stack, oldest first. Missing or unreadable
// storage reads as empty.
func (s *Stack) Entries(ctx context.Context, owner string) []domain.NavigationEntry {
	var entries []domain.NavigationEntry
	if !s.kv.LoadJSON(ctx, owner, s.key, &entries) {
		return nil
	}
	return entries
}

// Record pushes the current screen onto the stack. Unknown screens are
// ignored; query parameters outside the whitelist are dropped; an existing
// entry for the same screen is removed first so the stack stays unique by
// screen name with ordering by recency. When reset is true the stack is
// cleared before appending. Depth is capped, oldest evicted first.
func (s *Stack) Record(ctx context.Context, owner string, entry domain.NavigationEntry, reset bool) {
	if !KnownScreen(entry.Screen) {
		return
	}

	entry.QueryParams = filterQueryParams(entry.QueryParams)

	var entries []domain.NavigationEntry
	if !reset {
		entries = s.Entries(ctx, owner)
		entries = removeScreen(entries, entry.Screen)
	}
	entries = append(entries, entry)

	if len(entries) > s.maxDepth {
		entries = entries[len(entries)-s.maxDepth:]
	}

	s.kv.SaveJSON(ctx, owner, s.key, entries, 0)
}

// Pop removes the most recent entry and returns the back link for the new
// top of the stack.
func (s *Stack) Pop(ctx context.Context, owner string) domain.BackLink {
	entries := s.Entries(ctx, owner)
	if len(entries) == 0 {
		return defaultBackLink
	}

	entries = entries[:len(entries)-1]
	s.kv.SaveJSON(ctx, owner, s.key, entries, 0)

	if len(entries) == 0 {
		return defaultBackLink
	}
	return buildBackLink(entries[len(entries)-1])
}

// BackLink returns the back affordance for the most recent entry without
// mutating the stack.
func (s *Stack) BackLink(ctx context.Context, owner string) domain.BackLink {
	entries := s.Entries(ctx, owner)
	if len(entries) == 0 {
		return defaultBackLink
	}
	return buildBackLink(entries[len(entries)-1])
}

func filterQueryParams(params map[string]string) map[string]string {
	if len(params) == 0 {
		return nil
	}
	filtered := make(map[string]string)
	for name, value := range params {
		if _, ok := supportedQueryParams[name]; ok {
			filtered[name] = value
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	return filtered
}

func removeScreen(entries []domain.NavigationEntry, screen string) []domain.NavigationEntry {
	kept := entries[:0]
	for _, e := range entries {
		if e.Screen != screen {
			kept = append(kept, e)
		}
	}
	return kept
}

func buildBackLink(entry domain.NavigationEntry) domain.BackLink {
	tmpl, ok := possibleBackLinks[entry.Screen]
	if !ok {
		return defaultBackLink
	}

	period := entry.Period
	if period == "" {
		period = "day"
	}
	link := strings.Replace(tmpl.URL, "{period}", period, 1)

	if len(entry.QueryParams) > 0 {
		values := url.Values{}
		for name, value := range entry.QueryParams {
			values.Set(name, value)
		}
		link += "?" + values.Encode()
	}

	return domain.BackLink{Text: tmpl.Text, URL: link}
}
