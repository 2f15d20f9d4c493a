package domain

// NavigationEntry is one screen visit in the persisted navigation history.
// Screen names are constrained to a fixed allow-list and query parameters
// to a fixed whitelist; both are enforced at the history layer.
type NavigationEntry struct {
	Screen      string            `json:"screen"`
	QueryParams map[string]string `json:"queryParams,omitempty"`
	Period      string            `json:"period,omitempty"`
}

// BackLink is the "back" affordance derived from the top of the history
// stack: a label and a fully-substituted URL.
type BackLink struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}
