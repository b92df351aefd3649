package docstore

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T, dialect Dialect) (*SQLStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store, err := NewSQLStore(db, dialect)
	require.NoError(t, err)
	return store, mock
}

func TestNewSQLStore_Validation(t *testing.T) {
	_, err := NewSQLStore(nil, DialectPostgres)
	require.Error(t, err)

	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	_, err = NewSQLStore(db, Dialect("sqlite"))
	require.ErrorIs(t, err, ErrUnknownDriver)
}

func TestSQLStore_CommitBatchPostgres(t *testing.T) {
	store, mock := newMockStore(t, DialectPostgres)

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(regexp.QuoteMeta("ON CONFLICT (collection, id) DO UPDATE"))
	prep.ExpectExec().
		WithArgs("train_data", "12951-NDLS-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().
		WithArgs("train_data", "12951-BRC-2", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.CommitBatch(context.Background(), "train_data", []Write{
		{Key: "12951-NDLS-1", Data: map[string]any{"sequence": 1}},
		{Key: "12951-BRC-2", Data: map[string]any{"sequence": 2}},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_CommitBatchMySQL(t *testing.T) {
	store, mock := newMockStore(t, DialectMySQL)

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(regexp.QuoteMeta("ON DUPLICATE KEY UPDATE data = VALUES(data)"))
	prep.ExpectExec().
		WithArgs("train_data", "k", `{"v":1}`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.CommitBatch(context.Background(), "train_data", []Write{
		{Key: "k", Data: map[string]any{"v": 1}},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_CommitBatchRollsBackOnError(t *testing.T) {
	store, mock := newMockStore(t, DialectPostgres)
	boom := errors.New("deadlock detected")

	mock.ExpectBegin()
	prep := mock.ExpectPrepare("INSERT INTO documents")
	prep.ExpectExec().
		WithArgs("c", "a", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().
		WithArgs("c", "b", sqlmock.AnyArg()).
		WillReturnError(boom)
	mock.ExpectRollback()

	err := store.CommitBatch(context.Background(), "c", []Write{
		{Key: "a", Data: map[string]any{}},
		{Key: "b", Data: map[string]any{}},
		{Key: "never", Data: map[string]any{}},
	})
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), `"b"`)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_CommitFailure(t *testing.T) {
	store, mock := newMockStore(t, DialectPostgres)

	mock.ExpectBegin()
	prep := mock.ExpectPrepare("INSERT INTO documents")
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit().WillReturnError(errors.New("connection reset"))

	err := store.CommitBatch(context.Background(), "c", []Write{{Key: "a", Data: map[string]any{}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "commit transaction")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_CommitBatchValidatesFirst(t *testing.T) {
	store, mock := newMockStore(t, DialectPostgres)

	err := store.CommitBatch(context.Background(), "", []Write{{Key: "a"}})
	require.ErrorIs(t, err, ErrEmptyCollection)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_Add(t *testing.T) {
	store, mock := newMockStore(t, DialectPostgres)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3)")).
		WithArgs("data_upload_logs", sqlmock.AnyArg(), `{"recordCount":3}`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	id, err := store.Add(context.Background(), "data_upload_logs", map[string]any{"recordCount": 3})
	require.NoError(t, err)
	assert.Len(t, id, 26)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_Get(t *testing.T) {
	store, mock := newMockStore(t, DialectMySQL)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT data FROM documents WHERE collection = ? AND id = ?")).
		WithArgs("c", "k").
		WillReturnRows(sqlmock.NewRows([]string{"data"}).AddRow([]byte(`{"v":"x"}`)))
	mock.ExpectQuery("SELECT data FROM documents").
		WithArgs("c", "missing").
		WillReturnRows(sqlmock.NewRows([]string{"data"}))

	doc, err := store.Get(context.Background(), "c", "k")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"v": "x"}, doc)

	_, err = store.Get(context.Background(), "c", "missing")
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_Close(t *testing.T) {
	store, mock := newMockStore(t, DialectPostgres)
	mock.ExpectClose()

	require.NoError(t, store.Close())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOpenSQL_RejectsBadInput(t *testing.T) {
	ctx := context.Background()

	_, err := OpenSQL(ctx, DialectPostgres, "  ", false)
	require.Error(t, err)

	_, err = OpenSQL(ctx, Dialect("oracle"), "dsn", false)
	require.ErrorIs(t, err, ErrUnknownDriver)

	_, err = OpenSQL(ctx, DialectMySQL, "not a dsn", false)
	require.Error(t, err)
}
