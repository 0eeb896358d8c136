package model

import "time"

// RunStatus represents the current state of a profile run.
type RunStatus string

const (
	RunStatusQueued        RunStatus = "queued"
	RunStatusFetching      RunStatus = "fetching"
	RunStatusExtracting    RunStatus = "extracting"
	RunStatusConsolidating RunStatus = "consolidating"
	RunStatusEnriching     RunStatus = "enriching"
	RunStatusComplete      RunStatus = "complete"
	RunStatusFailed        RunStatus = "failed"
)

// Terminal reports whether no further transitions are expected.
func (s RunStatus) Terminal() bool {
	return s == RunStatusComplete || s == RunStatusFailed
}

// FailureKind classifies why a run produced no profile.
type FailureKind string

const (
	FailureFetch         FailureKind = "FETCH_FAILED"
	FailureExtraction    FailureKind = "EXTRACTION_FAILED"
	FailureTimeout       FailureKind = "TIMEOUT"
	FailureConsolidation FailureKind = "CONSOLIDATION_FAILED"
	// FailurePersist means the profile was built but could not be stored.
	FailurePersist FailureKind = "PERSIST_FAILED"
)

// Retryable reports whether resubmitting the same URL may succeed.
func (k FailureKind) Retryable() bool {
	return k == FailureFetch || k == FailureTimeout || k == FailurePersist
}

// Company is one seed to profile, as read from a batch source.
type Company struct {
	URL          string `json:"url"`
	Name         string `json:"name,omitempty"`
	NotionPageID string `json:"notion_page_id,omitempty"`
}

// Run represents a single profile run for a website.
type Run struct {
	ID        string     `json:"id"`
	Company   Company    `json:"company"`
	Status    RunStatus  `json:"status"`
	Result    *RunResult `json:"result,omitempty"`
	Failure   *Failure   `json:"failure,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Failure is the persisted form of a run failure.
type Failure struct {
	Kind    FailureKind `json:"kind"`
	Stage   string      `json:"stage"`
	URL     string      `json:"url,omitempty"`
	Message string      `json:"message"`
}

// RunResult holds the final outcome of a run.
type RunResult struct {
	Profile        *CompanyProfile `json:"profile,omitempty"`
	FieldsFound    int             `json:"fields_found"`
	PagesExtracted int             `json:"pages_extracted"`
	SelectedLinks  []string        `json:"selected_links,omitempty"`
	Pages          []PageOutcome   `json:"pages,omitempty"`
	Phases         []PhaseResult   `json:"phases"`
	Usage          TokenUsage      `json:"usage"`
	ArchiveKey     string          `json:"archive_key,omitempty"`
}

// RunPhase represents a phase within a run.
type RunPhase struct {
	ID        string       `json:"id"`
	RunID     string       `json:"run_id"`
	Name      string       `json:"name"`
	Status    PhaseStatus  `json:"status"`
	Result    *PhaseResult `json:"result,omitempty"`
	StartedAt time.Time    `json:"started_at"`
}

// PhaseStatus represents the current state of a pipeline phase.
type PhaseStatus string

const (
	PhaseStatusRunning  PhaseStatus = "running"
	PhaseStatusComplete PhaseStatus = "complete"
	PhaseStatusFailed   PhaseStatus = "failed"
	PhaseStatusSkipped  PhaseStatus = "skipped"
)

// PhaseResult holds the outcome of a pipeline phase.
type PhaseResult struct {
	Name       string         `json:"name"`
	Status     PhaseStatus    `json:"status"`
	Duration   int64          `json:"duration_ms"`
	TokenUsage TokenUsage     `json:"token_usage"`
	Error      string         `json:"error,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// TokenUsage tracks model token consumption and its estimated cost.
type TokenUsage struct {
	InputTokens         int     `json:"input_tokens"`
	OutputTokens        int     `json:"output_tokens"`
	CacheCreationTokens int     `json:"cache_creation_tokens"`
	CacheReadTokens     int     `json:"cache_read_tokens"`
	Cost                float64 `json:"cost"`
}

// Add merges token usage from another instance.
func (t *TokenUsage) Add(other TokenUsage) {
	t.InputTokens += other.InputTokens
	t.OutputTokens += other.OutputTokens
	t.CacheCreationTokens += other.CacheCreationTokens
	t.CacheReadTokens += other.CacheReadTokens
	t.Cost += other.Cost
}

// ProfileRecord is a stored profile, keyed by its canonical website URL.
type ProfileRecord struct {
	URL         string          `json:"url"`
	Name        string          `json:"name"`
	RunID       string          `json:"run_id"`
	FieldsFound int             `json:"fields_found"`
	Profile     *CompanyProfile `json:"profile"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
