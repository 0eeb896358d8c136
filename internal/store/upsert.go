package store

import (
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/profile-cli/internal/db"
	"github.com/sells-group/profile-cli/internal/fetch"
	"github.com/sells-group/profile-cli/internal/model"
)

// A re-run of the same site replaces the stored profile; created_at keeps
// the first run's time.
var profileUpsert = db.UpsertConfig{
	Table:        "profiles",
	Columns:      []string{"url", "name", "run_id", "fields_found", "profile", "created_at", "updated_at"},
	ConflictKeys: []string{"url"},
	UpdateCols:   []string{"name", "run_id", "fields_found", "profile", "updated_at"},
}

var pageUpsert = db.UpsertConfig{
	Table:        "page_cache",
	Columns:      []string{"url", "title", "markdown", "links", "status_code", "fetched_at", "expires_at"},
	ConflictKeys: []string{"url"},
}

// profileArgs builds the record and the upsert arguments for p. The key is
// the canonical form of p.WebsiteLink.
func profileArgs(runID string, p *model.CompanyProfile) (*model.ProfileRecord, []any, error) {
	if p == nil || p.WebsiteLink == "" {
		return nil, nil, eris.New("store: profile has no website link")
	}
	profileJSON, err := json.Marshal(p)
	if err != nil {
		return nil, nil, eris.Wrap(err, "store: marshal profile")
	}
	now := time.Now().UTC()
	rec := &model.ProfileRecord{
		URL:         fetch.CanonicalURL(p.WebsiteLink),
		Name:        p.Name,
		RunID:       runID,
		FieldsFound: p.FilledFields(),
		Profile:     p,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return rec, []any{rec.URL, rec.Name, rec.RunID, rec.FieldsFound, profileJSON, now, now}, nil
}

func pageArgs(page *model.CachedPage) ([]any, error) {
	linksJSON, err := json.Marshal(page.Links)
	if err != nil {
		return nil, eris.Wrap(err, "store: marshal cached links")
	}
	return []any{
		page.URL, page.Title, page.Markdown, linksJSON, page.StatusCode,
		page.FetchedAt.UTC(), page.ExpiresAt.UTC(),
	}, nil
}
