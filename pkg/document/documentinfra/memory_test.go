package documentinfra

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/hypeframe/monarch/pkg/document"
	"github.com/hypeframe/monarch/pkg/kernel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryDocumentStore_TxDiscardedOnError(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryDocumentStore()

	err := store.WithinTx(ctx, func(ctx context.Context, repo document.Repository) error {
		doc := document.NewDocument("p1", "todos", "u1", document.Data{}, time.Now())
		require.NoError(t, repo.Insert(ctx, doc))
		return errors.New("boom")
	})
	require.Error(t, err)

	names, err := store.Collections(ctx, "p1", "u1")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestMemoryDocumentStore_TxCommits(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryDocumentStore()
	doc := document.NewDocument("p1", "todos", "u1", document.Data{"a": 1.0}, time.Now())
	require.NoError(t, store.Insert(ctx, doc))

	err := store.WithinTx(ctx, func(ctx context.Context, repo document.Repository) error {
		locked, err := repo.FindForUpdate(ctx, "p1", doc.ID)
		if err != nil {
			return err
		}
		locked.ApplyPatch(document.Data{"b": 2.0}, time.Now())
		return repo.Save(ctx, locked)
	})
	require.NoError(t, err)

	got, err := store.Find(ctx, "p1", doc.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Version)
	assert.Equal(t, 2.0, got.Data["b"])
}

func TestMemoryDocumentStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryDocumentStore()
	doc := document.NewDocument("p1", "todos", "u1", document.Data{"a": 1.0}, time.Now())
	require.NoError(t, store.Insert(ctx, doc))

	got, err := store.Find(ctx, "p1", doc.ID)
	require.NoError(t, err)
	got.Data["a"] = 99.0

	again, err := store.Find(ctx, "p1", doc.ID)
	require.NoError(t, err)
	assert.Equal(t, 1.0, again.Data["a"])
}

func TestMemoryDocumentStore_ProjectIsolation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryDocumentStore()
	doc := document.NewDocument("p1", "todos", "u1", document.Data{}, time.Now())
	require.NoError(t, store.Insert(ctx, doc))

	_, err := store.Find(ctx, "p2", doc.ID)
	assert.True(t, document.CodeNotFound.Is(err))

	docs, total, err := store.List(ctx, document.ListQuery{
		ProjectID: "p2", OwnerUserID: "u1", Collection: "todos",
		Pagination: kernel.PaginationOptions{Page: 1, PageSize: 10},
	})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, docs)
}

func TestMemoryStore_ListNegativeOffsetIsEmpty(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryDocumentStore()
	require.NoError(t, store.Insert(ctx, document.NewDocument("p1", "todos", "u1", document.Data{}, time.Now())))

	// Page*PageSize envuelve a negativo si no se normaliza
	docs, total, err := store.List(ctx, document.ListQuery{
		ProjectID: "p1", OwnerUserID: "u1", Collection: "todos",
		Pagination: kernel.PaginationOptions{Page: math.MaxInt, PageSize: 50},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Empty(t, docs)
}
