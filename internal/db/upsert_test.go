package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestBulkUpsertIgnoreConflicts(t *testing.T) {
	mock := newMockPool(t)

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TEMP TABLE").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_leads"}, []string{"email", "first_name"}).
		WillReturnResult(2)
	mock.ExpectExec(`INSERT INTO "leads" .* ON CONFLICT \("email"\) DO NOTHING`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	n, err := BulkUpsert(context.Background(), mock, UpsertConfig{
		Table:           "leads",
		Columns:         []string{"email", "first_name"},
		ConflictKeys:    []string{"email"},
		IgnoreConflicts: true,
	}, [][]any{
		{"jane@fitstudio.com", "Jane"},
		{"amy@liftlab.co", "Amy"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkUpsertUpdatesNonKeyColumns(t *testing.T) {
	mock := newMockPool(t)

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TEMP TABLE").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_leads"}, []string{"email", "first_name"}).
		WillReturnResult(1)
	mock.ExpectExec(`DO UPDATE SET "first_name" = EXCLUDED."first_name"`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	n, err := BulkUpsert(context.Background(), mock, UpsertConfig{
		Table:        "leads",
		Columns:      []string{"email", "first_name"},
		ConflictKeys: []string{"email"},
	}, [][]any{{"jane@fitstudio.com", "Jane"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkUpsertSchemaQualifiedTable(t *testing.T) {
	mock := newMockPool(t)

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE "_tmp_upsert_public_leads"`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_public_leads"}, []string{"email"}).
		WillReturnResult(1)
	mock.ExpectExec(`INSERT INTO "public"\."leads"`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	_, err := BulkUpsert(context.Background(), mock, UpsertConfig{
		Table:           "public.leads",
		Columns:         []string{"email"},
		ConflictKeys:    []string{"email"},
		IgnoreConflicts: true,
	}, [][]any{{"jane@fitstudio.com"}})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkUpsertEmptyRows(t *testing.T) {
	mock := newMockPool(t)

	n, err := BulkUpsert(context.Background(), mock, UpsertConfig{
		Table:        "leads",
		Columns:      []string{"email"},
		ConflictKeys: []string{"email"},
	}, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkUpsertMissingConfig(t *testing.T) {
	mock := newMockPool(t)
	rows := [][]any{{"jane@fitstudio.com"}}

	_, err := BulkUpsert(context.Background(), mock, UpsertConfig{
		Table:        "leads",
		ConflictKeys: []string{"email"},
	}, rows)
	assert.ErrorContains(t, err, "no columns")

	_, err = BulkUpsert(context.Background(), mock, UpsertConfig{
		Table:   "leads",
		Columns: []string{"email"},
	}, rows)
	assert.ErrorContains(t, err, "no conflict keys")
}

func TestBulkUpsertCopyFailureRollsBack(t *testing.T) {
	mock := newMockPool(t)

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TEMP TABLE").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_leads"}, []string{"email"}).
		WillReturnError(errors.New("copy failed"))
	mock.ExpectRollback()

	_, err := BulkUpsert(context.Background(), mock, UpsertConfig{
		Table:           "leads",
		Columns:         []string{"email"},
		ConflictKeys:    []string{"email"},
		IgnoreConflicts: true,
	}, [][]any{{"jane@fitstudio.com"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COPY into temp table")
	assert.NoError(t, mock.ExpectationsWereMet())
}
