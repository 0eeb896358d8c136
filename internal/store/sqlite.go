package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/profile-cli/internal/db"
	"github.com/sells-group/profile-cli/internal/fetch"
	"github.com/sells-group/profile-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: conn}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	company    TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'queued',
	result     TEXT,
	failure    TEXT,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS run_phases (
	id         TEXT PRIMARY KEY,
	run_id     TEXT NOT NULL REFERENCES runs(id),
	name       TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'running',
	result     TEXT,
	started_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS profiles (
	url          TEXT PRIMARY KEY,
	name         TEXT NOT NULL DEFAULT '',
	run_id       TEXT NOT NULL,
	fields_found INTEGER NOT NULL DEFAULT 0,
	profile      TEXT NOT NULL,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS page_cache (
	url         TEXT PRIMARY KEY,
	title       TEXT NOT NULL DEFAULT '',
	markdown    TEXT NOT NULL,
	links       TEXT,
	status_code INTEGER NOT NULL DEFAULT 0,
	fetched_at  DATETIME NOT NULL,
	expires_at  DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
CREATE INDEX IF NOT EXISTS idx_run_phases_run_id ON run_phases(run_id);
CREATE INDEX IF NOT EXISTS idx_profiles_updated_at ON profiles(updated_at);
CREATE INDEX IF NOT EXISTS idx_page_cache_expires_at ON page_cache(expires_at);
`

var (
	sqliteUpsertProfile = db.MustUpsertSQL(profileUpsert, db.Question)
	sqliteUpsertPage    = db.MustUpsertSQL(pageUpsert, db.Question)
)

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context, company model.Company) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	companyJSON, err := json.Marshal(company)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal company")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, company, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, string(companyJSON), string(model.RunStatusQueued), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &model.Run{
		ID:        id,
		Company:   company,
		Status:    model.RunStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *SQLiteStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update run status %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, result *model.RunResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal result")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET result = ?, status = ?, updated_at = ? WHERE id = ?`,
		string(resultJSON), string(model.RunStatusComplete), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) FailRun(ctx context.Context, runID string, failure *model.Failure, result *model.RunResult) error {
	failureJSON, err := json.Marshal(failure)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal failure")
	}
	var resultJSON sql.NullString
	if result != nil {
		b, err := json.Marshal(result)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal result")
		}
		resultJSON = sql.NullString{String: string(b), Valid: true}
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET failure = ?, result = ?, status = ?, updated_at = ? WHERE id = ?`,
		string(failureJSON), resultJSON, string(model.RunStatusFailed), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, company, status, result, failure, created_at, updated_at FROM runs WHERE id = ?`,
		runID,
	)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: run %s", runID)
	}
	return r, err
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, company, status, result, failure, created_at, updated_at FROM runs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.CompanyURL != "" {
		query += ` AND json_extract(company, '$.url') = ?`
		args = append(args, filter.CompanyURL)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, listLimit(filter.Limit))

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) CreatePhase(ctx context.Context, runID string, name string) (*model.RunPhase, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO run_phases (id, run_id, name, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		id, runID, name, string(model.PhaseStatusRunning), now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert phase for run %s", runID)
	}

	return &model.RunPhase{
		ID:        id,
		RunID:     runID,
		Name:      name,
		Status:    model.PhaseStatusRunning,
		StartedAt: now,
	}, nil
}

func (s *SQLiteStore) CompletePhase(ctx context.Context, phaseID string, result *model.PhaseResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal phase result")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE run_phases SET status = ?, result = ? WHERE id = ?`,
		string(result.Status), string(resultJSON), phaseID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete phase %s", phaseID)
	}
	return checkRowsAffected(res, "phase", phaseID)
}

func (s *SQLiteStore) UpsertProfile(ctx context.Context, runID string, p *model.CompanyProfile) (*model.ProfileRecord, error) {
	rec, args, err := profileArgs(runID, p)
	if err != nil {
		return nil, err
	}
	if _, err := s.db.ExecContext(ctx, sqliteUpsertProfile, args...); err != nil {
		return nil, eris.Wrapf(err, "sqlite: upsert profile %s", rec.URL)
	}
	err = s.db.QueryRowContext(ctx, `SELECT created_at FROM profiles WHERE url = ?`, rec.URL).Scan(&rec.CreatedAt)
	return rec, eris.Wrapf(err, "sqlite: read profile %s", rec.URL)
}

func (s *SQLiteStore) GetProfile(ctx context.Context, rawURL string) (*model.ProfileRecord, error) {
	key := fetch.CanonicalURL(rawURL)
	row := s.db.QueryRowContext(ctx,
		`SELECT url, name, run_id, fields_found, profile, created_at, updated_at FROM profiles WHERE url = ?`,
		key,
	)
	rec, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: profile %s", key)
	}
	return rec, err
}

func (s *SQLiteStore) ListProfiles(ctx context.Context, filter ProfileFilter) ([]model.ProfileRecord, error) {
	query := `SELECT url, name, run_id, fields_found, profile, created_at, updated_at FROM profiles WHERE 1=1`
	var args []any
	if filter.Name != "" {
		query += ` AND name LIKE ? COLLATE NOCASE`
		args = append(args, "%"+filter.Name+"%")
	}
	query += ` ORDER BY updated_at DESC LIMIT ?`
	args = append(args, listLimit(filter.Limit))
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list profiles")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.ProfileRecord
	for rows.Next() {
		rec, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list profiles iterate")
}

func (s *SQLiteStore) GetCachedPage(ctx context.Context, rawURL string) (*model.CachedPage, error) {
	var (
		page      model.CachedPage
		linksJSON sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT url, title, markdown, links, status_code, fetched_at, expires_at FROM page_cache WHERE url = ?`,
		rawURL,
	).Scan(&page.URL, &page.Title, &page.Markdown, &linksJSON, &page.StatusCode, &page.FetchedAt, &page.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get cached page")
	}
	if page.Expired(time.Now()) {
		return nil, nil
	}
	if linksJSON.Valid {
		if err := json.Unmarshal([]byte(linksJSON.String), &page.Links); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal cached links")
		}
	}
	return &page, nil
}

func (s *SQLiteStore) SetCachedPage(ctx context.Context, page *model.CachedPage) error {
	args, err := pageArgs(page)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, sqliteUpsertPage, args...)
	return eris.Wrap(err, "sqlite: set cached page")
}

func (s *SQLiteStore) DeleteExpiredPages(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM page_cache WHERE expires_at <= ?`, time.Now().UTC())
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete expired pages")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "%s %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*model.Run, error) {
	var (
		r                       model.Run
		companyJSON             string
		resultJSON, failureJSON sql.NullString
	)
	err := row.Scan(&r.ID, &companyJSON, &r.Status, &resultJSON, &failureJSON, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}

	if err := json.Unmarshal([]byte(companyJSON), &r.Company); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal company")
	}
	if resultJSON.Valid {
		r.Result = &model.RunResult{}
		if err := json.Unmarshal([]byte(resultJSON.String), r.Result); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal result")
		}
	}
	if failureJSON.Valid {
		r.Failure = &model.Failure{}
		if err := json.Unmarshal([]byte(failureJSON.String), r.Failure); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal failure")
		}
	}
	return &r, nil
}

func scanProfile(row scannable) (*model.ProfileRecord, error) {
	var (
		rec         model.ProfileRecord
		profileJSON string
	)
	err := row.Scan(&rec.URL, &rec.Name, &rec.RunID, &rec.FieldsFound, &profileJSON, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan profile")
	}
	rec.Profile = &model.CompanyProfile{}
	if err := json.Unmarshal([]byte(profileJSON), rec.Profile); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal profile")
	}
	return &rec, nil
}
