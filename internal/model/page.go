package model

import "time"

// PageStatus is the outcome of processing one page of a site.
type PageStatus string

const (
	PageStatusExtracted     PageStatus = "extracted"
	PageStatusLowSignal     PageStatus = "low_signal"
	PageStatusFetchFailed   PageStatus = "fetch_failed"
	PageStatusExtractFailed PageStatus = "extract_failed"
	PageStatusTimeout       PageStatus = "timeout"
)

// PageOutcome records what happened to one visited page.
type PageOutcome struct {
	URL    string     `json:"url"`
	Status PageStatus `json:"status"`
	Error  string     `json:"error,omitempty"`
}

// LinkCandidate is a same-site link discovered on the seed page.
type LinkCandidate struct {
	URL  string `json:"url"`
	Text string `json:"text,omitempty"`
}

// CachedPage is a fetched, cleaned page kept for reuse across runs.
type CachedPage struct {
	URL        string          `json:"url"`
	Title      string          `json:"title"`
	Markdown   string          `json:"markdown"`
	Links      []LinkCandidate `json:"links,omitempty"`
	StatusCode int             `json:"status_code"`
	FetchedAt  time.Time       `json:"fetched_at"`
	ExpiresAt  time.Time       `json:"expires_at"`
}

// Expired reports whether the entry is stale at now.
func (c *CachedPage) Expired(now time.Time) bool {
	return !c.ExpiresAt.After(now)
}
