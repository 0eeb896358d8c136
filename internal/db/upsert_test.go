package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertSQL_Dollar(t *testing.T) {
	q, err := UpsertSQL(UpsertConfig{
		Table:        "profiles",
		Columns:      []string{"url", "name", "updated_at"},
		ConflictKeys: []string{"url"},
	}, Dollar)
	require.NoError(t, err)
	assert.Equal(t,
		`INSERT INTO "profiles" ("url", "name", "updated_at") VALUES ($1, $2, $3) `+
			`ON CONFLICT ("url") DO UPDATE SET "name" = EXCLUDED."name", "updated_at" = EXCLUDED."updated_at"`,
		q)
}

func TestUpsertSQL_QuestionWithUpdateCols(t *testing.T) {
	q, err := UpsertSQL(UpsertConfig{
		Table:        "page_cache",
		Columns:      []string{"url", "markdown", "fetched_at"},
		ConflictKeys: []string{"url"},
		UpdateCols:   []string{"markdown"},
	}, Question)
	require.NoError(t, err)
	assert.Equal(t,
		`INSERT INTO "page_cache" ("url", "markdown", "fetched_at") VALUES (?, ?, ?) `+
			`ON CONFLICT ("url") DO UPDATE SET "markdown" = EXCLUDED."markdown"`,
		q)
}

func TestUpsertSQL_OnlyKeys(t *testing.T) {
	q, err := UpsertSQL(UpsertConfig{Table: "seen", Columns: []string{"url"}, ConflictKeys: []string{"url"}}, Dollar)
	require.NoError(t, err)
	assert.Contains(t, q, "DO NOTHING")
}

func TestUpsertSQL_NoColumns(t *testing.T) {
	_, err := UpsertSQL(UpsertConfig{Table: "profiles", ConflictKeys: []string{"url"}}, Dollar)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no columns specified")
}

func TestUpsertSQL_NoConflictKeys(t *testing.T) {
	_, err := UpsertSQL(UpsertConfig{Table: "profiles", Columns: []string{"url"}}, Dollar)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no conflict keys specified")
}

func TestMustUpsertSQL_Panics(t *testing.T) {
	assert.Panics(t, func() { MustUpsertSQL(UpsertConfig{}, Dollar) })
}

func TestSanitizeTable(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"simple", `"simple"`},
		{"public.profiles", `"public"."profiles"`},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeTable(tt.input))
		})
	}
}
