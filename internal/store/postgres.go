package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/profile-cli/internal/db"
	"github.com/sells-group/profile-cli/internal/fetch"
	"github.com/sells-group/profile-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool db.Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

var (
	pgUpsertProfile = db.MustUpsertSQL(profileUpsert, db.Dollar) + ` RETURNING created_at`
	pgUpsertPage    = db.MustUpsertSQL(pageUpsert, db.Dollar)
)

// preparedStatements lists the queries every run issues, prepared on each
// new connection.
var preparedStatements = map[string]string{
	"update_run_status": `UPDATE runs SET status = $1, updated_at = $2 WHERE id = $3`,
	"insert_phase":      `INSERT INTO run_phases (id, run_id, name, status, started_at) VALUES ($1, $2, $3, $4, $5)`,
	"complete_phase":    `UPDATE run_phases SET status = $1, result = $2 WHERE id = $3`,
	"get_cached_page":   `SELECT url, title, markdown, links, status_code, fetched_at, expires_at FROM page_cache WHERE url = $1 AND expires_at > now()`,
	"set_cached_page":   pgUpsertPage,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	company    JSONB NOT NULL,
	status     TEXT NOT NULL DEFAULT 'queued',
	result     JSONB,
	failure    JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS run_phases (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	run_id     TEXT NOT NULL REFERENCES runs(id),
	name       TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'running',
	result     JSONB,
	started_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS profiles (
	url          TEXT PRIMARY KEY,
	name         TEXT NOT NULL DEFAULT '',
	run_id       TEXT NOT NULL,
	fields_found INTEGER NOT NULL DEFAULT 0,
	profile      JSONB NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS page_cache (
	url         TEXT PRIMARY KEY,
	title       TEXT NOT NULL DEFAULT '',
	markdown    TEXT NOT NULL,
	links       JSONB,
	status_code INTEGER NOT NULL DEFAULT 0,
	fetched_at  TIMESTAMPTZ NOT NULL,
	expires_at  TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_runs_company_url ON runs((company->>'url'));
CREATE INDEX IF NOT EXISTS idx_run_phases_run_id ON run_phases(run_id);
CREATE INDEX IF NOT EXISTS idx_profiles_updated_at ON profiles(updated_at DESC);
CREATE INDEX IF NOT EXISTS idx_page_cache_expires_at ON page_cache(expires_at);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, company model.Company) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	companyJSON, err := json.Marshal(company)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal company")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO runs (id, company, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		id, companyJSON, string(model.RunStatusQueued), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	return &model.Run{
		ID:        id,
		Company:   company,
		Status:    model.RunStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *PostgresStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update run status %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "postgres: run %s", runID)
	}
	return nil
}

func (s *PostgresStore) CompleteRun(ctx context.Context, runID string, result *model.RunResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal result")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET result = $1, status = $2, updated_at = $3 WHERE id = $4`,
		resultJSON, string(model.RunStatusComplete), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "postgres: run %s", runID)
	}
	return nil
}

func (s *PostgresStore) FailRun(ctx context.Context, runID string, failure *model.Failure, result *model.RunResult) error {
	failureJSON, err := json.Marshal(failure)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal failure")
	}
	var resultJSON []byte
	if result != nil {
		if resultJSON, err = json.Marshal(result); err != nil {
			return eris.Wrap(err, "postgres: marshal result")
		}
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET failure = $1, result = $2, status = $3, updated_at = $4 WHERE id = $5`,
		failureJSON, resultJSON, string(model.RunStatusFailed), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: fail run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "postgres: run %s", runID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	r, err := scanPgRun(s.pool.QueryRow(ctx,
		`SELECT id, company, status, result, failure, created_at, updated_at FROM runs WHERE id = $1`,
		runID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: get run %s", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	return r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, company, status, result, failure, created_at, updated_at FROM runs WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	if filter.CompanyURL != "" {
		query += fmt.Sprintf(` AND company->>'url' = $%d`, argIdx)
		args = append(args, filter.CompanyURL)
		argIdx++
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, argIdx)
	args = append(args, listLimit(filter.Limit))
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanPgRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func (s *PostgresStore) CreatePhase(ctx context.Context, runID string, name string) (*model.RunPhase, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO run_phases (id, run_id, name, status, started_at) VALUES ($1, $2, $3, $4, $5)`,
		id, runID, name, string(model.PhaseStatusRunning), now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: insert phase for run %s", runID)
	}

	return &model.RunPhase{
		ID:        id,
		RunID:     runID,
		Name:      name,
		Status:    model.PhaseStatusRunning,
		StartedAt: now,
	}, nil
}

func (s *PostgresStore) CompletePhase(ctx context.Context, phaseID string, result *model.PhaseResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal phase result")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE run_phases SET status = $1, result = $2 WHERE id = $3`,
		string(result.Status), resultJSON, phaseID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete phase %s", phaseID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "postgres: phase %s", phaseID)
	}
	return nil
}

func (s *PostgresStore) UpsertProfile(ctx context.Context, runID string, p *model.CompanyProfile) (*model.ProfileRecord, error) {
	rec, args, err := profileArgs(runID, p)
	if err != nil {
		return nil, err
	}
	if err := s.pool.QueryRow(ctx, pgUpsertProfile, args...).Scan(&rec.CreatedAt); err != nil {
		return nil, eris.Wrapf(err, "postgres: upsert profile %s", rec.URL)
	}
	return rec, nil
}

func (s *PostgresStore) GetProfile(ctx context.Context, rawURL string) (*model.ProfileRecord, error) {
	key := fetch.CanonicalURL(rawURL)
	rec, err := scanPgProfile(s.pool.QueryRow(ctx,
		`SELECT url, name, run_id, fields_found, profile, created_at, updated_at FROM profiles WHERE url = $1`,
		key,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: get profile %s", key)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get profile %s", key)
	}
	return rec, nil
}

func (s *PostgresStore) ListProfiles(ctx context.Context, filter ProfileFilter) ([]model.ProfileRecord, error) {
	query := `SELECT url, name, run_id, fields_found, profile, created_at, updated_at FROM profiles WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Name != "" {
		query += fmt.Sprintf(` AND name ILIKE $%d`, argIdx)
		args = append(args, "%"+filter.Name+"%")
		argIdx++
	}
	query += fmt.Sprintf(` ORDER BY updated_at DESC LIMIT $%d`, argIdx)
	args = append(args, listLimit(filter.Limit))
	argIdx++
	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list profiles")
	}
	defer rows.Close()

	var out []model.ProfileRecord
	for rows.Next() {
		rec, err := scanPgProfile(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan profile")
		}
		out = append(out, *rec)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list profiles iterate")
}

func (s *PostgresStore) GetCachedPage(ctx context.Context, rawURL string) (*model.CachedPage, error) {
	var (
		page      model.CachedPage
		linksJSON []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT url, title, markdown, links, status_code, fetched_at, expires_at FROM page_cache WHERE url = $1 AND expires_at > now()`,
		rawURL,
	).Scan(&page.URL, &page.Title, &page.Markdown, &linksJSON, &page.StatusCode, &page.FetchedAt, &page.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: get cached page")
	}
	if len(linksJSON) > 0 {
		if err := json.Unmarshal(linksJSON, &page.Links); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal cached links")
		}
	}
	return &page, nil
}

func (s *PostgresStore) SetCachedPage(ctx context.Context, page *model.CachedPage) error {
	args, err := pageArgs(page)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, pgUpsertPage, args...)
	return eris.Wrap(err, "postgres: set cached page")
}

func (s *PostgresStore) DeleteExpiredPages(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM page_cache WHERE expires_at <= now()`)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete expired pages")
	}
	return int(tag.RowsAffected()), nil
}

func scanPgRun(row pgx.Row) (*model.Run, error) {
	var (
		r                       model.Run
		companyJSON             []byte
		resultJSON, failureJSON []byte
	)
	if err := row.Scan(&r.ID, &companyJSON, &r.Status, &resultJSON, &failureJSON, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(companyJSON, &r.Company); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal company")
	}
	if len(resultJSON) > 0 {
		r.Result = &model.RunResult{}
		if err := json.Unmarshal(resultJSON, r.Result); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal result")
		}
	}
	if len(failureJSON) > 0 {
		r.Failure = &model.Failure{}
		if err := json.Unmarshal(failureJSON, r.Failure); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal failure")
		}
	}
	return &r, nil
}

func scanPgProfile(row pgx.Row) (*model.ProfileRecord, error) {
	var (
		rec         model.ProfileRecord
		profileJSON []byte
	)
	if err := row.Scan(&rec.URL, &rec.Name, &rec.RunID, &rec.FieldsFound, &profileJSON, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	rec.Profile = &model.CompanyProfile{}
	if err := json.Unmarshal(profileJSON, rec.Profile); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal profile")
	}
	return &rec, nil
}
