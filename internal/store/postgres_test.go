package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/profile-cli/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return &PostgresStore{pool: mock}, mock
}

func TestPostgresStore_CreateRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO runs`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), "queued", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	run, err := s.CreateRun(context.Background(), model.Company{URL: "https://acme.com"})
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRun_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, company, status, result, failure, created_at, updated_at FROM runs WHERE id = \$1`).
		WithArgs("nonexistent-run").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetRun(context.Background(), "nonexistent-run")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRun_Failed(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now().UTC()

	failure, _ := json.Marshal(model.Failure{Kind: model.FailureTimeout, Stage: "PAGE_FAN_OUT"})
	rows := mock.NewRows([]string{"id", "company", "status", "result", "failure", "created_at", "updated_at"}).
		AddRow("run-1", []byte(`{"url":"https://acme.com"}`), model.RunStatusFailed, []byte(nil), failure, now, now)
	mock.ExpectQuery(`FROM runs WHERE id = \$1`).WithArgs("run-1").WillReturnRows(rows)

	run, err := s.GetRun(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusFailed, run.Status)
	assert.Equal(t, "https://acme.com", run.Company.URL)
	require.NotNil(t, run.Failure)
	assert.Equal(t, model.FailureTimeout, run.Failure.Kind)
	assert.Nil(t, run.Result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateRunStatus_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE runs SET status`).
		WithArgs("fetching", pgxmock.AnyArg(), "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.UpdateRunStatus(context.Background(), "missing", model.RunStatusFetching)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FailRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE runs SET failure = \$1, result = \$2, status = \$3`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), "failed", pgxmock.AnyArg(), "run-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.FailRun(context.Background(), "run-1", &model.Failure{Kind: model.FailureFetch}, &model.RunResult{})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListRuns_Filters(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`WHERE true AND status = \$1 AND company->>'url' = \$2 ORDER BY created_at DESC LIMIT \$3 OFFSET \$4`).
		WithArgs("complete", "https://acme.com", 10, 20).
		WillReturnRows(mock.NewRows([]string{"id", "company", "status", "result", "failure", "created_at", "updated_at"}))

	runs, err := s.ListRuns(context.Background(), RunFilter{
		Status:     model.RunStatusComplete,
		CompanyURL: "https://acme.com",
		Limit:      10,
		Offset:     20,
	})
	require.NoError(t, err)
	assert.Empty(t, runs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpsertProfile(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(`INSERT INTO "profiles" .* ON CONFLICT \("url"\) DO UPDATE SET .* RETURNING created_at`).
		WithArgs("https://acme.com", "Acme", "run-9", 2, pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(mock.NewRows([]string{"created_at"}).AddRow(created))

	rec, err := s.UpsertProfile(context.Background(), "run-9", &model.CompanyProfile{
		WebsiteLink: "http://www.acme.com/",
		Name:        "Acme",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://acme.com", rec.URL)
	assert.Equal(t, created, rec.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetProfile_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM profiles WHERE url = \$1`).
		WithArgs("https://unknown.com").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetProfile(context.Background(), "https://www.unknown.com/")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListProfiles_ByName(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`FROM profiles WHERE true AND name ILIKE \$1 ORDER BY updated_at DESC LIMIT \$2`).
		WithArgs("%acme%", 100).
		WillReturnRows(mock.NewRows([]string{"url", "name", "run_id", "fields_found", "profile", "created_at", "updated_at"}).
			AddRow("https://acme.com", "Acme", "run-1", 3, []byte(`{"name":"Acme","products":["Widget"]}`), now, now))

	got, err := s.ListProfiles(context.Background(), ProfileFilter{Name: "acme"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []string{"Widget"}, got[0].Profile.Products)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetCachedPage_Miss(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM page_cache WHERE url = \$1 AND expires_at > now\(\)`).
		WithArgs("https://acme.com/about").
		WillReturnError(pgx.ErrNoRows)

	page, err := s.GetCachedPage(context.Background(), "https://acme.com/about")
	require.NoError(t, err)
	assert.Nil(t, page)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SetCachedPage_Upsert(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO "page_cache" .* ON CONFLICT \("url"\) DO UPDATE`).
		WithArgs("https://acme.com/about", "About", "# About", pgxmock.AnyArg(), 200, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	now := time.Now()
	err := s.SetCachedPage(context.Background(), &model.CachedPage{
		URL: "https://acme.com/about", Title: "About", Markdown: "# About", StatusCode: 200,
		FetchedAt: now, ExpiresAt: now.Add(24 * time.Hour),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeleteExpiredPages(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`DELETE FROM page_cache WHERE expires_at <= now\(\)`).
		WillReturnResult(pgxmock.NewResult("DELETE", 4))

	n, err := s.DeleteExpiredPages(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS runs`).WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
