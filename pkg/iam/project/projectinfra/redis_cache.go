package projectinfra

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/hypeframe/monarch/pkg/iam/project"
	"github.com/hypeframe/monarch/pkg/kernel"
	"github.com/hypeframe/monarch/pkg/logx"
	"github.com/redis/go-redis/v9"
)

const keyHashCachePrefix = "project:key:"

// CachedProjectRepository decorates a Repository with a Redis read-through cache
// on the API-key lookup, which runs on every request.
type CachedProjectRepository struct {
	next   project.Repository
	client redis.UniversalClient
	ttl    time.Duration
}

// NewCachedProjectRepository wraps next. Cache failures degrade to the wrapped repository.
func NewCachedProjectRepository(next project.Repository, client redis.UniversalClient, ttl time.Duration) *CachedProjectRepository {
	return &CachedProjectRepository{next: next, client: client, ttl: ttl}
}

func (r *CachedProjectRepository) Create(ctx context.Context, p *project.Project) error {
	return r.next.Create(ctx, p)
}

// Update writes through and evicts the previous key hash entry.
func (r *CachedProjectRepository) Update(ctx context.Context, p *project.Project) error {
	previous, err := r.next.FindByID(ctx, p.ID)
	if err != nil {
		return err
	}
	if err := r.next.Update(ctx, p); err != nil {
		return err
	}
	r.evict(ctx, previous.APIKeyHash, p.APIKeyHash)
	return nil
}

func (r *CachedProjectRepository) FindByID(ctx context.Context, id kernel.ProjectID) (*project.Project, error) {
	return r.next.FindByID(ctx, id)
}

func (r *CachedProjectRepository) FindByAPIKeyHash(ctx context.Context, keyHash string) (*project.Project, error) {
	key := keyHashCachePrefix + keyHash

	raw, err := r.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached cachedProject
		if jsonErr := json.Unmarshal(raw, &cached); jsonErr == nil {
			return cached.toDomain(), nil
		}
	case !errors.Is(err, redis.Nil):
		logx.WithContext(ctx).WithError(err).Warn("Project cache read failed")
	}

	p, err := r.next.FindByAPIKeyHash(ctx, keyHash)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(toCache(p)); err == nil {
		if err := r.client.Set(ctx, key, payload, r.ttl).Err(); err != nil {
			logx.WithContext(ctx).WithError(err).Warn("Project cache write failed")
		}
	}
	return p, nil
}

func (r *CachedProjectRepository) List(ctx context.Context) ([]*project.Project, error) {
	return r.next.List(ctx)
}

func (r *CachedProjectRepository) evict(ctx context.Context, hashes ...string) {
	keys := make([]string, 0, len(hashes))
	for _, h := range hashes {
		keys = append(keys, keyHashCachePrefix+h)
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		logx.WithContext(ctx).WithError(err).Warn("Project cache eviction failed")
	}
}

// cachedProject serializes every field, including the ones hidden from API JSON.
type cachedProject struct {
	ID           kernel.ProjectID `json:"id"`
	Name         string           `json:"name"`
	APIKeyHash   string           `json:"api_key_hash"`
	APIKeyPrefix string           `json:"api_key_prefix"`
	IsActive     bool             `json:"is_active"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

func toCache(p *project.Project) cachedProject {
	return cachedProject{
		ID:           p.ID,
		Name:         p.Name,
		APIKeyHash:   p.APIKeyHash,
		APIKeyPrefix: p.APIKeyPrefix,
		IsActive:     p.IsActive,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func (c cachedProject) toDomain() *project.Project {
	return &project.Project{
		ID:           c.ID,
		Name:         c.Name,
		APIKeyHash:   c.APIKeyHash,
		APIKeyPrefix: c.APIKeyPrefix,
		IsActive:     c.IsActive,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}
