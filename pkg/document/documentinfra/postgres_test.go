package documentinfra

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/hypeframe/monarch/pkg/document"
	"github.com/hypeframe/monarch/pkg/kernel"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var docCols = []string{"id", "project_id", "collection", "owner_user_id", "data", "version", "deleted_at", "created_at", "updated_at"}

func newMockStore(t *testing.T) (*PostgresDocumentStore, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { raw.Close() })
	return NewPostgresDocumentStore(sqlx.NewDb(raw, "postgres")), mock
}

func TestPostgresDocumentStore_FindDecodesJSON(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM documents WHERE project_id = $1 AND id = $2")).
		WithArgs("p1", "d1").
		WillReturnRows(sqlmock.NewRows(docCols).
			AddRow("d1", "p1", "todos", "u1", []byte(`{"title":"x","completed":true}`), 3, nil, now, now))

	doc, err := store.Find(context.Background(), "p1", "d1")
	require.NoError(t, err)
	assert.Equal(t, "x", doc.Data["title"])
	assert.True(t, doc.Data.IsCompleted())
	assert.Equal(t, int64(3), doc.Version)
	assert.False(t, doc.IsDeleted())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDocumentStore_FindNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM documents")).
		WillReturnRows(sqlmock.NewRows(docCols))

	_, err := store.Find(context.Background(), "p1", "missing")
	assert.True(t, document.CodeNotFound.Is(err))
}

func TestPostgresDocumentStore_ListBuildsFilter(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM documents WHERE project_id = $1 AND owner_user_id = $2 AND collection = $3 AND deleted_at IS NULL AND data -> $4::text = $5::jsonb AND data -> $6::text = $7::jsonb")).
		WithArgs("p1", "u1", "todos", "completed", []byte(`true`), "tags", []byte(`["a"]`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC, id DESC LIMIT $8 OFFSET $9")).
		WithArgs("p1", "u1", "todos", "completed", sqlmock.AnyArg(), "tags", sqlmock.AnyArg(), 10, 10).
		WillReturnRows(sqlmock.NewRows(docCols).
			AddRow("d1", "p1", "todos", "u1", []byte(`{"completed":true}`), 1, nil, now, now))

	docs, total, err := store.List(context.Background(), document.ListQuery{
		ProjectID:   "p1",
		OwnerUserID: "u1",
		Collection:  "todos",
		Filter:      document.Data{"tags": []any{"a"}, "completed": true},
		Pagination:  kernel.PaginationOptions{Page: 2, PageSize: 10},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, docs, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDocumentStore_TxRollsBackOnError(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO documents")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("p1", "missing").
		WillReturnRows(sqlmock.NewRows(docCols))
	mock.ExpectRollback()

	err := store.WithinTx(ctx, func(ctx context.Context, repo document.Repository) error {
		doc := document.NewDocument("p1", "todos", "u1", document.Data{"n": 1}, time.Now())
		if err := repo.Insert(ctx, doc); err != nil {
			return err
		}
		_, err := repo.FindForUpdate(ctx, "p1", "missing")
		return err
	})

	assert.True(t, document.CodeNotFound.Is(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDocumentStore_TxCommits(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM documents WHERE project_id = $1 AND id = $2")).
		WithArgs("p1", "d1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.WithinTx(context.Background(), func(ctx context.Context, repo document.Repository) error {
		return repo.Delete(ctx, "p1", "d1")
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDocumentStore_DriverErrorIsInternal(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT collection")).
		WillReturnError(errors.New("connection reset"))

	_, err := store.Collections(context.Background(), "p1", "u1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list collections")
}

func TestPostgresDocumentStore_Stats(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY collection")).
		WithArgs("p1", "u1").
		WillReturnRows(sqlmock.NewRows([]string{"collection", "total", "completed", "with_completed_field"}).
			AddRow("goals", 2, 1, 2).
			AddRow("todos", 5, 3, 4))

	stats, err := store.Stats(context.Background(), "p1", "u1")
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, 7, document.NewStats(stats).TotalDocuments)
	assert.NoError(t, mock.ExpectationsWereMet())
}
