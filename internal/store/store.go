// Package store persists runs, phases, profiles and the page cache.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/profile-cli/internal/config"
	"github.com/sells-group/profile-cli/internal/model"
)

// ErrNotFound is wrapped by lookups that match no row.
var ErrNotFound = eris.New("store: not found")

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status     model.RunStatus `json:"status,omitempty"`
	CompanyURL string          `json:"company_url,omitempty"`
	Limit      int             `json:"limit,omitempty"`
	Offset     int             `json:"offset,omitempty"`
}

// ProfileFilter specifies criteria for listing profiles.
type ProfileFilter struct {
	// Name matches profiles whose name contains it, case-insensitively.
	Name   string `json:"name,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// Store defines the persistence interface for profile runs.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, company model.Company) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	CompleteRun(ctx context.Context, runID string, result *model.RunResult) error
	FailRun(ctx context.Context, runID string, failure *model.Failure, result *model.RunResult) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Phases
	CreatePhase(ctx context.Context, runID string, name string) (*model.RunPhase, error)
	CompletePhase(ctx context.Context, phaseID string, result *model.PhaseResult) error

	// Profiles, keyed by canonical website URL
	UpsertProfile(ctx context.Context, runID string, profile *model.CompanyProfile) (*model.ProfileRecord, error)
	GetProfile(ctx context.Context, url string) (*model.ProfileRecord, error)
	ListProfiles(ctx context.Context, filter ProfileFilter) ([]model.ProfileRecord, error)

	// Page cache
	GetCachedPage(ctx context.Context, url string) (*model.CachedPage, error)
	SetCachedPage(ctx context.Context, page *model.CachedPage) error
	DeleteExpiredPages(ctx context.Context) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open connects to the configured backend and applies migrations.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Driver {
	case "", "sqlite":
		s, err = NewSQLite(cfg.DatabaseURL)
	case "postgres":
		s, err = NewPostgres(ctx, cfg.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func listLimit(n int) int {
	if n <= 0 || n > 500 {
		return 100
	}
	return n
}
