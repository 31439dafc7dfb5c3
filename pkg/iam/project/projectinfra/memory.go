package projectinfra

import (
	"context"
	"sort"
	"sync"

	"github.com/hypeframe/monarch/pkg/iam/project"
	"github.com/hypeframe/monarch/pkg/kernel"
)

// MemoryProjectRepository keeps projects in process memory.
type MemoryProjectRepository struct {
	mu       sync.RWMutex
	projects map[kernel.ProjectID]project.Project
}

func NewMemoryProjectRepository() *MemoryProjectRepository {
	return &MemoryProjectRepository{projects: make(map[kernel.ProjectID]project.Project)}
}

func (r *MemoryProjectRepository) Create(_ context.Context, p *project.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.projects[p.ID]; ok {
		return project.ErrProjectExists().WithDetail("project_id", p.ID)
	}
	for _, existing := range r.projects {
		if existing.APIKeyHash == p.APIKeyHash {
			return project.ErrProjectExists().WithDetail("reason", "api key already in use")
		}
	}
	r.projects[p.ID] = *p
	return nil
}

func (r *MemoryProjectRepository) Update(_ context.Context, p *project.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.projects[p.ID]; !ok {
		return project.ErrProjectNotFound()
	}
	r.projects[p.ID] = *p
	return nil
}

func (r *MemoryProjectRepository) FindByID(_ context.Context, id kernel.ProjectID) (*project.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.projects[id]
	if !ok {
		return nil, project.ErrProjectNotFound()
	}
	return &p, nil
}

func (r *MemoryProjectRepository) FindByAPIKeyHash(_ context.Context, keyHash string) (*project.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.projects {
		if p.APIKeyHash == keyHash {
			found := p
			return &found, nil
		}
	}
	return nil, project.ErrProjectNotFound()
}

func (r *MemoryProjectRepository) List(_ context.Context) ([]*project.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*project.Project, 0, len(r.projects))
	for _, p := range r.projects {
		found := p
		out = append(out, &found)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
