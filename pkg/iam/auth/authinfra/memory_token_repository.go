package authinfra

import (
	"context"
	"sync"
	"time"

	"github.com/hypeframe/monarch/pkg/iam/auth"
	"github.com/hypeframe/monarch/pkg/kernel"
)

// MemoryTokenRepository guarda refresh tokens en memoria, indexados por hash.
type MemoryTokenRepository struct {
	mu     sync.Mutex
	tokens map[string]auth.RefreshToken
}

func NewMemoryTokenRepository() *MemoryTokenRepository {
	return &MemoryTokenRepository{tokens: make(map[string]auth.RefreshToken)}
}

func (r *MemoryTokenRepository) SaveRefreshToken(_ context.Context, token auth.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[token.TokenHash] = token
	return nil
}

func (r *MemoryTokenRepository) FindRefreshToken(_ context.Context, tokenHash string) (*auth.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	token, ok := r.tokens[tokenHash]
	if !ok {
		return nil, auth.ErrInvalidRefreshToken()
	}
	return &token, nil
}

func (r *MemoryTokenRepository) RevokeIfActive(_ context.Context, tokenHash string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	token, ok := r.tokens[tokenHash]
	if !ok || !token.IsValid(now) {
		return false, nil
	}
	token.Revoked = true
	token.RevokedAt = &now
	r.tokens[tokenHash] = token
	return true, nil
}

func (r *MemoryTokenRepository) RevokeRefreshToken(_ context.Context, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	token, ok := r.tokens[tokenHash]
	if !ok || token.Revoked {
		return nil
	}
	now := time.Now().UTC()
	token.Revoked = true
	token.RevokedAt = &now
	r.tokens[tokenHash] = token
	return nil
}

func (r *MemoryTokenRepository) RevokeAllUserTokens(_ context.Context, projectID kernel.ProjectID, userID kernel.UserID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	for hash, token := range r.tokens {
		if token.ProjectID == projectID && token.UserID == userID && !token.Revoked {
			token.Revoked = true
			token.RevokedAt = &now
			r.tokens[hash] = token
		}
	}
	return nil
}

func (r *MemoryTokenRepository) CleanExpiredTokens(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed int64
	for hash, token := range r.tokens {
		if token.ExpiresAt.Before(before) {
			delete(r.tokens, hash)
			removed++
		}
	}
	return removed, nil
}
