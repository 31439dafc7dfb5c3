package userinfra

import (
	"context"
	"sync"

	"github.com/hypeframe/monarch/pkg/iam/user"
	"github.com/hypeframe/monarch/pkg/kernel"
)

type emailKey struct {
	projectID kernel.ProjectID
	email     string
}

// MemoryUserRepository guarda usuarios en memoria (STORE_DRIVER=memory y tests).
type MemoryUserRepository struct {
	mu      sync.RWMutex
	byID    map[kernel.UserID]user.User
	byEmail map[emailKey]kernel.UserID
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		byID:    make(map[kernel.UserID]user.User),
		byEmail: make(map[emailKey]kernel.UserID),
	}
}

func (r *MemoryUserRepository) Create(_ context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := emailKey{u.ProjectID, user.NormalizeEmail(u.Email)}
	if _, ok := r.byEmail[key]; ok {
		return user.ErrDuplicateUser().WithDetail("email", u.Email)
	}
	r.byID[u.ID] = *u
	r.byEmail[key] = u.ID
	return nil
}

func (r *MemoryUserRepository) Update(_ context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.byID[u.ID]
	if !ok || existing.ProjectID != u.ProjectID {
		return user.ErrUserNotFound()
	}
	r.byID[u.ID] = *u
	return nil
}

func (r *MemoryUserRepository) FindByID(_ context.Context, projectID kernel.ProjectID, id kernel.UserID) (*user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok || u.ProjectID != projectID {
		return nil, user.ErrUserNotFound()
	}
	return &u, nil
}

func (r *MemoryUserRepository) FindByEmail(_ context.Context, projectID kernel.ProjectID, email string) (*user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[emailKey{projectID, user.NormalizeEmail(email)}]
	if !ok {
		return nil, user.ErrUserNotFound()
	}
	u := r.byID[id]
	return &u, nil
}
