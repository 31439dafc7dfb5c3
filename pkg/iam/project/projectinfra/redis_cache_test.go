package projectinfra

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hypeframe/monarch/pkg/iam/project"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCachedRepo(t *testing.T) (*CachedProjectRepository, *MemoryProjectRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	mem := NewMemoryProjectRepository()
	return NewCachedProjectRepository(mem, client, time.Minute), mem, mr
}

func TestCachedProjectRepository_ReadThrough(t *testing.T) {
	ctx := context.Background()
	repo, _, mr := newCachedRepo(t)

	p := project.NewProject("p1", "cached", "raw-key")
	require.NoError(t, repo.Create(ctx, p))

	got, err := repo.FindByAPIKeyHash(ctx, p.APIKeyHash)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	assert.True(t, mr.Exists(keyHashCachePrefix+p.APIKeyHash))

	cached, err := repo.FindByAPIKeyHash(ctx, p.APIKeyHash)
	require.NoError(t, err)
	assert.Equal(t, p.APIKeyHash, cached.APIKeyHash)
	assert.True(t, cached.IsActive)
}

func TestCachedProjectRepository_UpdateEvicts(t *testing.T) {
	ctx := context.Background()
	repo, _, mr := newCachedRepo(t)

	p := project.NewProject("p1", "cached", "raw-key")
	require.NoError(t, repo.Create(ctx, p))
	_, err := repo.FindByAPIKeyHash(ctx, p.APIKeyHash)
	require.NoError(t, err)

	oldHash := p.APIKeyHash
	p.Disable()
	require.NoError(t, repo.Update(ctx, p))
	assert.False(t, mr.Exists(keyHashCachePrefix+oldHash))

	got, err := repo.FindByAPIKeyHash(ctx, oldHash)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
}

func TestCachedProjectRepository_RedisDownFallsBack(t *testing.T) {
	ctx := context.Background()
	repo, _, mr := newCachedRepo(t)

	p := project.NewProject("p1", "cached", "raw-key")
	require.NoError(t, repo.Create(ctx, p))
	mr.Close()

	got, err := repo.FindByAPIKeyHash(ctx, p.APIKeyHash)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
}

func TestCachedProjectRepository_NotFound(t *testing.T) {
	repo, _, _ := newCachedRepo(t)
	_, err := repo.FindByAPIKeyHash(context.Background(), "missing")
	assert.True(t, project.CodeProjectNotFound.Is(err))
}
